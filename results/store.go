// Package results persists per-reducer timings to a CSV table that is merged
// with any existing table on every write.
package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

// Column headers of the results table.
const (
	ColumnReducer = "Reducer"
	ColumnSeconds = "Time (seconds)"
)

// Record is one row of the results table.
type Record struct {
	Reducer string
	Seconds float64
}

// MergePolicy decides which value survives when a reducer name appears more
// than once across the existing table and the new batch.
type MergePolicy int

const (
	// KeepLast keeps the newest value at the position of the name's first
	// appearance.
	KeepLast MergePolicy = iota
	// KeepFirst keeps the value already in the table.
	KeepFirst
	// ErrorOnConflict fails when the same name carries different values.
	ErrorOnConflict
)

func (p MergePolicy) String() string {
	switch p {
	case KeepLast:
		return "keep-last"
	case KeepFirst:
		return "keep-first"
	case ErrorOnConflict:
		return "error-on-conflict"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy parses the String form of a policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "keep-last", "":
		return KeepLast, nil
	case "keep-first":
		return KeepFirst, nil
	case "error-on-conflict":
		return ErrorOnConflict, nil
	default:
		return KeepLast, errors.NewValidationError("merge_policy", "must be keep-last, keep-first or error-on-conflict", s)
	}
}

// Merge concatenates existing then batch and removes duplicate reducer names
// according to policy. Row order follows first appearance.
func Merge(existing, batch []Record, policy MergePolicy) ([]Record, error) {
	merged := make([]Record, 0, len(existing)+len(batch))
	index := make(map[string]int, len(existing)+len(batch))

	for _, rec := range append(append([]Record(nil), existing...), batch...) {
		i, seen := index[rec.Reducer]
		if !seen {
			index[rec.Reducer] = len(merged)
			merged = append(merged, rec)
			continue
		}
		switch policy {
		case KeepFirst:
			// existing value wins
		case KeepLast:
			merged[i].Seconds = rec.Seconds
		case ErrorOnConflict:
			if merged[i].Seconds != rec.Seconds {
				return nil, errors.Newf("conflicting times for %s: %v and %v",
					rec.Reducer, merged[i].Seconds, rec.Seconds)
			}
		default:
			return nil, errors.NewValidationError("merge_policy", "unknown policy", int(policy))
		}
	}
	return merged, nil
}

// Store reads and writes results tables.
type Store struct {
	FS     fs.FileSystem
	Policy MergePolicy
	Logger log.Logger
}

// NewStore creates a Store on the local file system.
func NewStore(policy MergePolicy, logger log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		FS:     fs.Default,
		Policy: policy,
		Logger: logger.With(log.ComponentKey, "results"),
	}
}

// MergeAndWrite merges batch into the table at path (if any) and atomically
// rewrites it. It returns the rows written.
func (s *Store) MergeAndWrite(batch []Record, path string) ([]Record, error) {
	exists, err := fs.Exists(s.FS, path)
	if err != nil {
		return nil, errors.NewStorageError("stat results", path, err)
	}

	var existing []Record
	if exists {
		if existing, err = s.Read(path); err != nil {
			return nil, err
		}
	}

	for _, rec := range batch {
		if err := errors.CheckScalar(rec.Reducer, rec.Seconds); err != nil {
			return nil, errors.NewStorageError("merge results", path, err)
		}
	}

	merged, err := Merge(existing, batch, s.Policy)
	if err != nil {
		return nil, errors.NewStorageError("merge results", path, err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, merged); err != nil {
		return nil, errors.NewStorageError("encode results", path, err)
	}
	if err := fs.WriteFileAtomic(s.FS, path, buf.Bytes(), 0o644); err != nil {
		return nil, errors.NewStorageError("write results", path, err)
	}

	s.Logger.Info("Saving results",
		log.PathKey, path,
		log.RowsKey, len(merged),
		log.OperationKey, log.OperationMerge,
		"policy", s.Policy.String(),
	)
	return merged, nil
}

// Read parses the table at path.
func (s *Store) Read(path string) ([]Record, error) {
	data, err := fs.ReadFile(s.FS, path)
	if err != nil {
		return nil, errors.NewStorageError("read results", path, err)
	}
	records, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewStorageError("parse results", path, err)
	}
	return records, nil
}

// Encode writes records as CSV with the header "Reducer,Time (seconds)".
func Encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnReducer, ColumnSeconds}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{rec.Reducer, strconv.FormatFloat(rec.Seconds, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses a results table. Extra columns are ignored; the two named
// columns may appear in any order.
func Decode(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty table: missing header")
	}
	if err != nil {
		return nil, err
	}

	nameCol, secCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnReducer:
			nameCol = i
		case ColumnSeconds:
			secCol = i
		}
	}
	if nameCol < 0 || secCol < 0 {
		return nil, errors.Newf("header %q must contain %q and %q", header, ColumnReducer, ColumnSeconds)
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= nameCol || len(row) <= secCol {
			return nil, errors.Newf("line %d: expected at least %d fields, got %d", line, max(nameCol, secCol)+1, len(row))
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(row[secCol]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid time", line)
		}
		if err := errors.CheckScalar("parse time", seconds); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, Record{Reducer: row[nameCol], Seconds: seconds})
	}
	return records, nil
}
