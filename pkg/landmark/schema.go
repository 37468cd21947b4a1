package landmark

// SchemaEntry identifies one expected landmark.
type SchemaEntry struct {
	Type  Region
	Index int
}

// Schema is the ordered, duplicate-free catalogue of expected landmarks.
// Every frame table has exactly one row per entry, in this order.
type Schema struct {
	entries []SchemaEntry
}

// NewSchema builds a schema from raw entries. Duplicates are collapsed and
// the first occurrence decides the position.
func NewSchema(entries []SchemaEntry) *Schema {
	s := &Schema{entries: make([]SchemaEntry, 0, len(entries))}
	seen := make(map[SchemaEntry]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		s.entries = append(s.entries, e)
	}
	return s
}

// Len returns the number of distinct entries.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the entries in schema order.
func (s *Schema) Entries() []SchemaEntry {
	if s == nil {
		return nil
	}
	out := make([]SchemaEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// RegionCounts returns how many schema entries each region has.
func (s *Schema) RegionCounts() map[Region]int {
	counts := make(map[Region]int, len(Regions))
	if s == nil {
		return counts
	}
	for _, e := range s.entries {
		counts[e.Type]++
	}
	return counts
}
