package preview

import (
	"fmt"
	"image"
	"math"

	"github.com/teslashibe/go-signcapture/pkg/camera"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
	"gocv.io/x/gocv"
)

// pixel converts a normalized landmark to image coordinates. Points with
// NaN coordinates are not drawable.
func pixel(p landmark.Point, w, h int) (image.Point, bool) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return image.Point{}, false
	}
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h))), true
}

// Annotate draws every region of res onto img in place.
func Annotate(img *gocv.Mat, res *landmark.Result, style Style) {
	if res == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	for _, region := range landmark.Regions {
		pts := res.Points(region)
		if len(pts) == 0 {
			continue
		}
		c := style.colorFor(region)

		for _, conn := range connectionsFor(region) {
			if conn[0] >= len(pts) || conn[1] >= len(pts) {
				continue
			}
			a, okA := pixel(pts[conn[0]], w, h)
			b, okB := pixel(pts[conn[1]], w, h)
			if okA && okB {
				gocv.Line(img, a, b, c, style.LineThickness)
			}
		}

		for _, p := range pts {
			if pt, ok := pixel(p, w, h); ok {
				gocv.Circle(img, pt, style.PointRadius, c, -1)
			}
		}
	}
}

// Render decodes a JPEG frame, draws the landmarks, applies the mirror
// setting and returns the result as a new Mat. The caller closes it.
func Render(frame []byte, res *landmark.Result, style Style) (gocv.Mat, error) {
	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("preview: decode frame: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("preview: empty frame")
	}

	Annotate(&img, res, style)

	if !style.Mirror {
		return img, nil
	}
	flipped := gocv.NewMat()
	gocv.Flip(img, &flipped, 1)
	img.Close()
	return flipped, nil
}

// RenderJPEG is Render followed by JPEG encoding.
func RenderJPEG(frame []byte, res *landmark.Result, style Style) ([]byte, error) {
	img, err := Render(frame, res, style)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	return camera.EncodeJPEG(img, style.Quality)
}
