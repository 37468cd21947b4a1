// Package store reads reference landmark schemas from Parquet files and
// writes recorded landmark tables back out as Parquet.
package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/teslashibe/go-signcapture/internal/log"
	"github.com/teslashibe/go-signcapture/pkg/landmark"
)

// Sentinel errors for the store package.
var (
	// ErrMissingColumn is returned when the schema file lacks a required column.
	ErrMissingColumn = errors.New("store: missing required column")
)

// Metadata keys written to the output file footer.
const (
	MetaSessionID  = "signcap.session_id"
	MetaStopReason = "signcap.stop_reason"
	MetaFrames     = "signcap.frames"
	MetaSkipped    = "signcap.skipped"
)

// schemaRecord is the projection of the reference file that matters to us.
// Any other columns in the file are ignored.
type schemaRecord struct {
	Type          string `parquet:"type"`
	LandmarkIndex int32  `parquet:"landmark_index"`
}

// Record is one output row. Nil coordinates are written as null.
type Record struct {
	Type          string   `parquet:"type,dict"`
	LandmarkIndex int32    `parquet:"landmark_index"`
	X             *float64 `parquet:"x,optional"`
	Y             *float64 `parquet:"y,optional"`
	Z             *float64 `parquet:"z,optional"`
	Frame         int32    `parquet:"frame"`
}

// ReadSchema loads the reference schema from a Parquet file with at least
// "type" and "landmark_index" columns. Duplicate pairs are collapsed.
func ReadSchema(path string) (*landmark.Schema, error) {
	if err := requireColumns(path, "type", "landmark_index"); err != nil {
		return nil, err
	}

	records, err := parquet.ReadFile[schemaRecord](path)
	if err != nil {
		return nil, fmt.Errorf("store: read schema %s: %w", path, err)
	}

	// Types no detector reports (including null, read as "") are kept and
	// always come out with null coordinates.
	entries := make([]landmark.SchemaEntry, 0, len(records))
	unknown := 0
	for _, rec := range records {
		region := landmark.Region(rec.Type)
		if !region.Valid() {
			unknown++
		}
		entries = append(entries, landmark.SchemaEntry{Type: region, Index: int(rec.LandmarkIndex)})
	}
	if unknown > 0 {
		log.Debug("schema rows with unknown landmark type", "path", path, "rows", unknown)
	}

	schema := landmark.NewSchema(entries)
	log.Debug("schema loaded", "path", path, "rows", len(records), "entries", schema.Len())
	return schema, nil
}

// requireColumns checks the file's top-level columns before decoding so a
// missing column is reported as such instead of silently zero-filled.
func requireColumns(path string, names ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("store: stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return fmt.Errorf("store: open parquet %s: %w", path, err)
	}

	for _, name := range names {
		if _, ok := pf.Schema().Lookup(name); !ok {
			return fmt.Errorf("%w: %s in %s", ErrMissingColumn, name, path)
		}
	}
	return nil
}

// Meta describes the recording session and is stored as file metadata.
type Meta struct {
	SessionID  string
	StopReason string
	Frames     int
	Skipped    int
}

// Records converts a video table to output rows. NaN coordinates are
// written as null.
func Records(video landmark.VideoTable) []Record {
	records := make([]Record, len(video.Rows))
	for i, row := range video.Rows {
		rec := Record{
			Type:          string(row.Type),
			LandmarkIndex: int32(row.Index),
			Frame:         int32(row.Frame),
		}
		if row.Present {
			rec.X = coord(row.X)
			rec.Y = coord(row.Y)
			rec.Z = coord(row.Z)
		}
		records[i] = rec
	}
	return records
}

func coord(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// WriteVideo writes the video table to path, replacing any existing file.
func WriteVideo(path string, video landmark.VideoTable, meta Meta) error {
	records := Records(video)

	opts := []parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata(MetaFrames, strconv.Itoa(meta.Frames)),
		parquet.KeyValueMetadata(MetaSkipped, strconv.Itoa(meta.Skipped)),
	}
	if meta.SessionID != "" {
		opts = append(opts, parquet.KeyValueMetadata(MetaSessionID, meta.SessionID))
	}
	if meta.StopReason != "" {
		opts = append(opts, parquet.KeyValueMetadata(MetaStopReason, meta.StopReason))
	}

	if err := parquet.WriteFile(path, records, opts...); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}

	log.Info("landmarks written", "path", path, "rows", len(records), "frames", video.FrameCount())
	return nil
}

// ReadVideo loads an output file back into records.
func ReadVideo(path string) ([]Record, error) {
	records, err := parquet.ReadFile[Record](path)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	return records, nil
}

// ReadMeta returns the signcap key/value metadata of an output file.
func ReadMeta(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("store: open parquet %s: %w", path, err)
	}

	meta := make(map[string]string)
	for _, key := range []string{MetaSessionID, MetaStopReason, MetaFrames, MetaSkipped} {
		if v, ok := pf.Lookup(key); ok {
			meta[key] = v
		}
	}
	return meta, nil
}
