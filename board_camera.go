package chessfen

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/services/vision"
	"go.viam.com/rdk/spatialmath"
)

var BoardCameraModel = family.WithModel("board-camera")

func init() {
	resource.RegisterComponent(camera.API, BoardCameraModel,
		resource.Registration[camera.Camera, *BoardCameraConfig]{
			Constructor: newBoardCamera,
		},
	)
}

type BoardCameraConfig struct {
	Input         string // source camera looking at the board
	BoardDetector string `json:"board-detector"`
	Hue           bool   // hue-only debug coloring of the warped board
}

func (cfg *BoardCameraConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Input == "" {
		return nil, nil, fmt.Errorf("need an input")
	}
	if cfg.BoardDetector == "" {
		return nil, nil, fmt.Errorf("need a board-detector")
	}
	return []string{cfg.Input, cfg.BoardDetector}, nil, nil
}

func newBoardCamera(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (camera.Camera, error) {
	conf, err := resource.NativeConfig[*BoardCameraConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewBoardCamera(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewBoardCamera(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *BoardCameraConfig, logger logging.Logger) (camera.Camera, error) {
	var err error

	bc := &BoardCamera{
		name:   name,
		conf:   conf,
		logger: logger,
	}

	bc.input, err = camera.FromProvider(deps, conf.Input)
	if err != nil {
		return nil, err
	}

	bc.boardFinder, err = vision.FromProvider(deps, conf.BoardDetector)
	if err != nil {
		return nil, err
	}

	return bc, nil
}

// BoardCamera streams the perspective-corrected 640x640 board with a grid
// and square-name overlay, for checking detector and warp alignment.
type BoardCamera struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	conf   *BoardCameraConfig
	logger logging.Logger

	input       camera.Camera
	boardFinder vision.Service
}

func (bc *BoardCamera) Image(ctx context.Context, mimeType string, extra map[string]interface{}) ([]byte, camera.ImageMetadata, error) {
	return camera.GetImageFromGetImages(ctx, nil, bc, extra, nil)
}

func (bc *BoardCamera) Images(ctx context.Context, filterSourceNames []string, extra map[string]interface{}) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	ni, rm, err := bc.input.Images(ctx, nil, extra)
	if err != nil {
		return nil, rm, err
	}

	if len(ni) == 0 {
		return nil, rm, fmt.Errorf("no images returned from input camera")
	}

	srcImg, err := ni[0].Image(ctx)
	if err != nil {
		return nil, rm, err
	}

	dets, err := bc.boardFinder.Detections(ctx, srcImg, nil)
	if err != nil {
		return nil, rm, err
	}

	board := boardFromDetections(dets)
	if !board.Detected {
		bc.logger.Warn("no board detected, passing source image through")
		result, err := camera.NamedImageFromImage(srcImg, ni[0].SourceName, "", data.Annotations{})
		if err != nil {
			return nil, rm, err
		}
		return []camera.NamedImage{result}, rm, nil
	}

	crop := cropToBoard(srcImg, board.Box)
	warped, _ := CorrectPerspective(crop)

	var dst *image.RGBA
	if bc.conf.Hue {
		dst = hueImage(warped)
	} else {
		dst = warped
	}
	drawSquareGrid(dst)

	result, err := camera.NamedImageFromImage(dst, ni[0].SourceName, "", data.Annotations{})
	if err != nil {
		return nil, rm, err
	}
	return []camera.NamedImage{result}, rm, nil
}

// hueImage redraws every pixel with its hue at full saturation and value,
// which makes the square coloring pop for debugging.
func hueImage(srcImg image.Image) *image.RGBA {
	bounds := srcImg.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cf, ok := colorful.MakeColor(srcImg.At(x, y))
			if !ok {
				continue
			}
			h, _, _ := cf.Hsv()
			dst.Set(x, y, colorful.Hsv(h, 1, 1))
		}
	}
	return dst
}

// drawSquareGrid overlays the 8x8 grid and square names on a warped board.
func drawSquareGrid(dst *image.RGBA) {
	bounds := dst.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	gridColor := color.RGBA{0, 0, 0, 255}
	labelColor := color.RGBA{255, 0, 0, 255}

	for i := 0; i <= 8; i++ {
		x := bounds.Min.X + (width * i / 8)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			dst.Set(x, y, gridColor)
		}
		y := bounds.Min.Y + (height * i / 8)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, gridColor)
		}
	}

	squareW := width / 8
	squareH := height / 8
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			name := fmt.Sprintf("%c%d", 'a'+col, 8-row)
			textX := bounds.Min.X + col*squareW + squareW/2 - len(name)*3
			textY := bounds.Min.Y + row*squareH + squareH/2 + 3
			drawString(dst, textX, textY, name, labelColor)
		}
	}
}

func drawString(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func (bc *BoardCamera) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return nil, fmt.Errorf("DoCommand not supported")
}

func (bc *BoardCamera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	return nil, fmt.Errorf("NextPointCloud not supported")
}

func (bc *BoardCamera) Properties(ctx context.Context) (camera.Properties, error) {
	return camera.Properties{}, nil
}

func (bc *BoardCamera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

func (bc *BoardCamera) Name() resource.Name {
	return bc.name
}
