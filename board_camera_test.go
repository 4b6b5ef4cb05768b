package chessfen

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestBoardCameraConfigValidate(t *testing.T) {
	cfg := BoardCameraConfig{Input: "cam", BoardDetector: "boards"}
	deps, _, err := cfg.Validate("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"cam", "boards"})

	_, _, err = (&BoardCameraConfig{BoardDetector: "boards"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&BoardCameraConfig{Input: "cam"}).Validate("")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestHueImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	out := hueImage(src)
	test.That(t, out.Bounds(), test.ShouldResemble, src.Bounds())

	// red input keeps a red-dominant hue rendering
	r, g, b, _ := out.At(2, 2).RGBA()
	test.That(t, r, test.ShouldBeGreaterThan, g)
	test.That(t, r, test.ShouldBeGreaterThan, b)
}

func TestDrawSquareGrid(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, warpSize, warpSize))
	drawSquareGrid(dst)

	// grid lines land on the cell boundaries, opaque black over the
	// transparent starting canvas
	_, _, _, a := dst.At(cellSize, 5).RGBA()
	test.That(t, a>>8, test.ShouldEqual, uint32(255))
	_, _, _, a = dst.At(3, cellSize*4).RGBA()
	test.That(t, a>>8, test.ShouldEqual, uint32(255))
}
