package preview

import (
	"github.com/teslashibe/go-signcapture/pkg/landmark"
	"gocv.io/x/gocv"
)

// KeyEscape is the key code that stops a capture from the preview window.
const KeyEscape = 27

// Window shows annotated frames in an OpenCV window. It must be used from
// the goroutine that created it.
type Window struct {
	window *gocv.Window
	style  Style
	waitMs int
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string, style Style) *Window {
	return &Window{
		window: gocv.NewWindow(title),
		style:  style,
		waitMs: 5,
	}
}

// Show draws res onto the frame, displays it and reports whether escape
// was pressed.
func (w *Window) Show(frame []byte, res *landmark.Result) (bool, error) {
	img, err := Render(frame, res, w.style)
	if err != nil {
		return false, err
	}
	defer img.Close()

	w.window.IMShow(img)
	return w.window.WaitKey(w.waitMs)&0xFF == KeyEscape, nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
