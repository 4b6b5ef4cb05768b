package chessfen

import (
	"context"
	"fmt"
	"image"

	"github.com/mitchellh/mapstructure"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
	"go.viam.com/rdk/services/vision"
	"go.viam.com/rdk/vision/objectdetection"
	"go.viam.com/rdk/vision/viscapture"
)

var FENServiceModel = family.WithModel("fen")

func init() {
	resource.RegisterService(generic.API, FENServiceModel,
		resource.Registration[resource.Resource, *FENServiceConfig]{
			Constructor: newFENService,
		},
	)
}

type FENServiceConfig struct {
	Camera        string
	BoardDetector string `json:"board-detector"`
	PieceDetector string `json:"piece-detector"`
}

func (cfg *FENServiceConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Camera == "" {
		return nil, nil, fmt.Errorf("need a camera")
	}
	if cfg.BoardDetector == "" {
		return nil, nil, fmt.Errorf("need a board-detector")
	}
	if cfg.PieceDetector == "" {
		return nil, nil, fmt.Errorf("need a piece-detector")
	}
	return []string{cfg.Camera, cfg.BoardDetector, cfg.PieceDetector}, nil, nil
}

type fenService struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	logger logging.Logger
	conf   *FENServiceConfig

	boardFinder vision.Service
	pieceFinder vision.Service
}

func newFENService(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*FENServiceConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewFENService(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewFENService(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *FENServiceConfig, logger logging.Logger) (resource.Resource, error) {
	var err error

	s := &fenService{
		name:   name,
		logger: logger,
		conf:   conf,
	}

	s.boardFinder, err = vision.FromProvider(deps, conf.BoardDetector)
	if err != nil {
		return nil, err
	}

	s.pieceFinder, err = vision.FromProvider(deps, conf.PieceDetector)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *fenService) Name() resource.Name {
	return s.name
}

// ----

type fenCmd struct {
	Detect bool
	Diff   string // reference FEN; empty means the starting position
}

func (s *fenService) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd fenCmd
	err := mapstructure.Decode(cmdMap, &cmd)
	if err != nil {
		return nil, err
	}

	if _, diffRequested := cmdMap["diff"]; cmd.Detect || diffRequested {
		result, occ, err := s.detectOnce(ctx)
		if err != nil {
			return nil, err
		}

		out := pipelineResultToMap(result)

		if diffRequested {
			reference := StartingBoard()
			if cmd.Diff != "" {
				reference, err = BoardFromFEN(cmd.Diff)
				if err != nil {
					return nil, err
				}
			}

			mismatches := []interface{}{}
			for _, m := range DiffOccupancy(occ, reference) {
				mismatches = append(mismatches, map[string]interface{}{
					"square":   string(m.Square),
					"detected": m.Detected,
					"expected": m.Expected,
				})
			}
			out["mismatches"] = mismatches
		}

		return out, nil
	}

	return nil, fmt.Errorf("bad cmd %v", cmdMap)
}

// detectOnce grabs one frame, runs both detectors on it, and pushes the
// result through the pipeline.
func (s *fenService) detectOnce(ctx context.Context) (PipelineResult, OccupancyMap, error) {
	capture, err := s.boardFinder.CaptureAllFromCamera(ctx, s.conf.Camera,
		viscapture.CaptureOptions{ReturnImage: true, ReturnDetections: true}, nil)
	if err != nil {
		return PipelineResult{}, nil, err
	}
	if capture.Image == nil {
		return PipelineResult{}, nil, fmt.Errorf("no image from camera %q", s.conf.Camera)
	}

	board := boardFromDetections(capture.Detections)
	if !board.Detected {
		result, err := RunPipeline(capture.Image, board, nil)
		return result, OccupancyMap{}, err
	}

	// piece detection runs on the same frame so both sets of boxes share
	// one coordinate space
	pieceDets, err := s.pieceFinder.Detections(ctx, capture.Image, nil)
	if err != nil {
		return PipelineResult{}, nil, err
	}
	pieces := piecesFromDetections(pieceDets)

	result, err := RunPipeline(capture.Image, board, pieces)
	if err != nil {
		return PipelineResult{}, nil, err
	}

	crop := cropToBoard(capture.Image, board.Box)
	_, transform := CorrectPerspective(crop)
	occ := MapPiecesToSquares(pieces, board.Box, transform)

	s.logger.Infof("detected %d pieces, fen %q", len(result.Pieces), result.FEN)
	return result, occ, nil
}

// boardFromDetections keeps the highest-confidence board box.
func boardFromDetections(dets []objectdetection.Detection) BoardDetection {
	best := BoardDetection{}
	for _, det := range dets {
		if !best.Detected || det.Score() > best.Confidence {
			best = BoardDetection{
				Detected:   true,
				Box:        rectToBox(det.BoundingBox()),
				Confidence: det.Score(),
			}
		}
	}
	return best
}

func piecesFromDetections(dets []objectdetection.Detection) []PieceDetection {
	pieces := make([]PieceDetection, 0, len(dets))
	for _, det := range dets {
		pieces = append(pieces, PieceDetection{
			Label:      det.Label(),
			Box:        rectToBox(det.BoundingBox()),
			Confidence: det.Score(),
		})
	}
	return pieces
}

func rectToBox(r *image.Rectangle) BoundingBox {
	if r == nil {
		return BoundingBox{}
	}
	return BoundingBox{
		X1: float64(r.Min.X),
		Y1: float64(r.Min.Y),
		X2: float64(r.Max.X),
		Y2: float64(r.Max.Y),
	}
}

func pipelineResultToMap(result PipelineResult) map[string]interface{} {
	pieces := []interface{}{}
	for _, p := range result.Pieces {
		pieces = append(pieces, map[string]interface{}{
			"piece":      p.Piece,
			"square":     string(p.Square),
			"confidence": p.Confidence,
		})
	}

	errs := []interface{}{}
	for _, e := range result.Errors {
		errs = append(errs, e)
	}

	return map[string]interface{}{
		"fen":            result.FEN,
		"board_detected": result.BoardDetected,
		"pieces":         pieces,
		"errors":         errs,
	}
}
