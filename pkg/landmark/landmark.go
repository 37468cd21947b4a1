// Package landmark holds the per-frame landmark model and the table builder
// that joins detector output onto a reference schema.
package landmark

// Region is one independently reported landmark group.
type Region string

// Known regions. The order of Regions is the stacking order used when
// building a frame table.
const (
	Face      Region = "face"
	Pose      Region = "pose"
	LeftHand  Region = "left_hand"
	RightHand Region = "right_hand"
)

// Regions lists every region in stacking order.
var Regions = []Region{Face, Pose, LeftHand, RightHand}

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	switch r {
	case Face, Pose, LeftHand, RightHand:
		return true
	}
	return false
}

// Point is a single detector keypoint. Coordinates are whatever the
// detector produced (usually normalized image space for x/y).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Result is one frame's detector output. A nil slice means the detector
// found nothing for that region in this frame.
type Result struct {
	Face      []Point `json:"face"`
	Pose      []Point `json:"pose"`
	LeftHand  []Point `json:"left_hand"`
	RightHand []Point `json:"right_hand"`
}

// Points returns the points reported for a region.
func (r *Result) Points(region Region) []Point {
	if r == nil {
		return nil
	}
	switch region {
	case Face:
		return r.Face
	case Pose:
		return r.Pose
	case LeftHand:
		return r.LeftHand
	case RightHand:
		return r.RightHand
	}
	return nil
}

// Set replaces the points of a region.
func (r *Result) Set(region Region, pts []Point) {
	switch region {
	case Face:
		r.Face = pts
	case Pose:
		r.Pose = pts
	case LeftHand:
		r.LeftHand = pts
	case RightHand:
		r.RightHand = pts
	}
}

// Merge fills every region absent from r with the points from other.
// Regions already present in r are left untouched.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	for _, region := range Regions {
		if r.Points(region) == nil {
			if pts := other.Points(region); pts != nil {
				r.Set(region, pts)
			}
		}
	}
}

// Empty reports whether no region has any point.
func (r *Result) Empty() bool {
	for _, region := range Regions {
		if len(r.Points(region)) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of points across regions.
func (r *Result) Count() int {
	n := 0
	for _, region := range Regions {
		n += len(r.Points(region))
	}
	return n
}
