package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.viam.com/rdk/rimage"

	"chessfen"
)

// detectionsFile mirrors the JSON the detection models emit: one board
// result and a list of piece detections, boxes in original-image pixels.
type detectionsFile struct {
	Board struct {
		Detected   bool        `json:"detected"`
		BBox       *[4]float64 `json:"bbox"`
		Confidence float64     `json:"confidence"`
	} `json:"board"`
	Pieces []struct {
		ClassName  string     `json:"class_name"`
		BBox       [4]float64 `json:"bbox"`
		Confidence float64    `json:"confidence"`
	} `json:"pieces"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.jpg> <detections.json> [warped-output.jpg]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  If the warped output is not specified, it will be <input>_warped.jpg\n")
		os.Exit(1)
	}

	inputFile := os.Args[1]
	detectionsPath := os.Args[2]

	var outputFile string
	if len(os.Args) >= 4 {
		outputFile = os.Args[3]
	} else {
		ext := filepath.Ext(inputFile)
		base := strings.TrimSuffix(inputFile, ext)
		outputFile = base + "_warped" + ext
	}

	input, err := rimage.ReadImageFromFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(detectionsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading detections: %v\n", err)
		os.Exit(1)
	}

	var df detectionsFile
	if err := json.Unmarshal(raw, &df); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing detections: %v\n", err)
		os.Exit(1)
	}

	board := chessfen.BoardDetection{
		Detected:   df.Board.Detected,
		Confidence: df.Board.Confidence,
	}
	if df.Board.BBox != nil {
		b := *df.Board.BBox
		board.Box = chessfen.BoundingBox{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]}
	}

	pieces := make([]chessfen.PieceDetection, 0, len(df.Pieces))
	for _, p := range df.Pieces {
		pieces = append(pieces, chessfen.PieceDetection{
			Label:      p.ClassName,
			Box:        chessfen.BoundingBox{X1: p.BBox[0], Y1: p.BBox[1], X2: p.BBox[2], Y2: p.BBox[3]},
			Confidence: p.Confidence,
		})
	}

	result, err := chessfen.RunPipeline(input, board, pieces)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	if !result.BoardDetected {
		fmt.Println("No board found")
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		return
	}

	fmt.Printf("FEN: %s\n", result.FEN)
	fmt.Printf("Pieces (%d):\n", len(result.Pieces))
	for _, p := range result.Pieces {
		fmt.Printf("  %-4s %-14s %.4f\n", p.Square, p.Piece, p.Confidence)
	}
	for _, e := range result.Errors {
		fmt.Printf("validation: %s\n", e)
	}

	warped, _ := chessfen.WarpBoard(input, board.Box)
	err = rimage.WriteImageToFile(outputFile, warped)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing warped image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved warped board to %s\n", outputFile)
}
