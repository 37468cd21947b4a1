package landmark

// Row is one (type, landmark_index) entry of a frame. When Present is false
// the detector produced no point for the entry and the coordinates are null.
type Row struct {
	Type    Region
	Index   int
	X, Y, Z float64
	Present bool
	Frame   int
}

// FrameTable holds one row per schema entry for a single frame.
type FrameTable struct {
	Frame int
	Rows  []Row
}

// BuildFrame joins a detector result onto the schema.
//
// Each region's points are numbered 0..n-1 by their order in the result and
// looked up per schema entry. Schema entries without a matching point get
// Present=false; points the schema does not list are dropped. A nil result
// is treated as a frame where nothing was detected.
func BuildFrame(res *Result, schema *Schema, frame int) FrameTable {
	rows := make([]Row, 0, schema.Len())
	for _, e := range schema.Entries() {
		row := Row{Type: e.Type, Index: e.Index, Frame: frame}
		pts := res.Points(e.Type)
		if e.Index >= 0 && e.Index < len(pts) {
			p := pts[e.Index]
			row.X, row.Y, row.Z = p.X, p.Y, p.Z
			row.Present = true
		}
		rows = append(rows, row)
	}
	return FrameTable{Frame: frame, Rows: rows}
}

// Present returns how many rows carry coordinates.
func (t FrameTable) Present() int {
	n := 0
	for _, r := range t.Rows {
		if r.Present {
			n++
		}
	}
	return n
}

// VideoTable is the stacked rows of every recorded frame.
type VideoTable struct {
	Rows []Row
}

// Concat stacks frame tables in the given order. No deduplication is done.
func Concat(frames ...FrameTable) VideoTable {
	n := 0
	for _, f := range frames {
		n += len(f.Rows)
	}
	rows := make([]Row, 0, n)
	for _, f := range frames {
		rows = append(rows, f.Rows...)
	}
	return VideoTable{Rows: rows}
}

// FrameCount returns the number of distinct frame numbers in the table.
func (v VideoTable) FrameCount() int {
	seen := make(map[int]struct{})
	for _, r := range v.Rows {
		seen[r.Frame] = struct{}{}
	}
	return len(seen)
}
