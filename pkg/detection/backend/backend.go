// Package backend names the landmark detector backends. It has no OpenCV
// dependency so configuration code can validate names without cgo.
package backend

const (
	Local    = "local"     // YuNet face + YOLOv8-pose body
	YuNet    = "yunet"     // face only
	YOLOPose = "yolo-pose" // body only
	Remote   = "remote"    // holistic landmark service
)

// Names lists every backend in the order shown to users.
var Names = []string{Local, YuNet, YOLOPose, Remote}

// Valid reports whether name is a known backend.
func Valid(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// NeedsModels reports whether the backend loads local ONNX models.
func NeedsModels(name string) bool {
	return name == Local || name == YuNet || name == YOLOPose
}
