// Package preview draws landmark results onto frames and shows them in an
// OpenCV window.
package preview

import (
	"image/color"

	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Style controls how landmarks are drawn. It is passed to renderers
// explicitly; there is no package-level drawing state.
type Style struct {
	Mirror bool // Flip horizontally for a selfie view

	PointRadius    int
	LineThickness  int
	FacePointColor color.RGBA
	PoseColor      color.RGBA
	LeftHandColor  color.RGBA
	RightHandColor color.RGBA

	// Quality is the JPEG quality of rendered frames.
	Quality int
}

// DefaultStyle returns the drawing style used by the signcap command.
func DefaultStyle() Style {
	return Style{
		Mirror:         true,
		PointRadius:    2,
		LineThickness:  2,
		FacePointColor: color.RGBA{R: 192, G: 192, B: 192, A: 255},
		PoseColor:      color.RGBA{R: 245, G: 117, B: 66, A: 255},
		LeftHandColor:  color.RGBA{R: 121, G: 22, B: 76, A: 255},
		RightHandColor: color.RGBA{R: 80, G: 22, B: 10, A: 255},
		Quality:        80,
	}
}

func (s Style) colorFor(region landmark.Region) color.RGBA {
	switch region {
	case landmark.Pose:
		return s.PoseColor
	case landmark.LeftHand:
		return s.LeftHandColor
	case landmark.RightHand:
		return s.RightHandColor
	default:
		return s.FacePointColor
	}
}

// Connection is a drawn edge between two landmark indices of a region.
type Connection [2]int

// PoseConnections is the MediaPipe pose skeleton.
var PoseConnections = []Connection{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8},
	{9, 10}, {11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21},
	{17, 19}, {12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
	{11, 23}, {12, 24}, {23, 24}, {23, 25}, {24, 26}, {25, 27}, {26, 28},
	{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
}

// HandConnections is the MediaPipe hand skeleton.
var HandConnections = []Connection{
	{0, 1}, {1, 2}, {2, 3}, {3, 4},
	{0, 5}, {5, 6}, {6, 7}, {7, 8},
	{5, 9}, {9, 10}, {10, 11}, {11, 12},
	{9, 13}, {13, 14}, {14, 15}, {15, 16},
	{13, 17}, {0, 17}, {17, 18}, {18, 19}, {19, 20},
}

// FaceOval is the outer contour of the face mesh.
var FaceOval = []Connection{
	{10, 338}, {338, 297}, {297, 332}, {332, 284}, {284, 251}, {251, 389},
	{389, 356}, {356, 454}, {454, 323}, {323, 361}, {361, 288}, {288, 397},
	{397, 365}, {365, 379}, {379, 378}, {378, 400}, {400, 377}, {377, 152},
	{152, 148}, {148, 176}, {176, 149}, {149, 150}, {150, 136}, {136, 172},
	{172, 58}, {58, 132}, {132, 93}, {93, 234}, {234, 127}, {127, 162},
	{162, 21}, {21, 54}, {54, 103}, {103, 67}, {67, 109}, {109, 10},
}

// connectionsFor returns the edges drawn for a region.
func connectionsFor(region landmark.Region) []Connection {
	switch region {
	case landmark.Face:
		return FaceOval
	case landmark.Pose:
		return PoseConnections
	case landmark.LeftHand, landmark.RightHand:
		return HandConnections
	}
	return nil
}
