// Package journal reads and writes the CSV audit journal recording every
// statistic-row correction made by a live run. The journal is an append-only
// record and the single durable input for reverting a correction: revert
// replays the recorded old values verbatim and never recomputes them.
package journal

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// Record is one journal row, covering exactly one updated statistic row.
// FromCPID and ToCPID carry the checkpoint range the operator selected;
// CPID identifies the concrete row the old and new values belong to.
type Record struct {
	RunID      int64
	PlayerID   int64
	PlayerName string
	MapID      int64
	MapName    string
	FPS        int
	FromCPID   int64
	ToCPID     int64
	CPID       int64
	OldTime    float64
	NewTime    float64
}

// Adjustment returns the change in seconds recorded for the row.
func (r Record) Adjustment() float64 {
	return r.NewTime - r.OldTime
}

// header is the journal column set. Order matters; Read rejects files whose
// header does not match exactly.
var header = []string{
	"run_id", "player_id", "player_name", "mapid", "map_name", "fps",
	"from_cp_id", "to_cp_id", "cp_id",
	"old_time_played", "old_time_formatted",
	"new_time_played", "new_time_formatted",
	"adjustment_seconds",
}

// Write writes records to path as CSV, sorted by fps ascending and then by
// new time ascending. The input slice is not modified.
func Write(path string, records []Record) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].FPS != sorted[j].FPS {
			return sorted[i].FPS < sorted[j].FPS
		}
		return sorted[i].NewTime < sorted[j].NewTime
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write journal header: %w", err)
	}
	for _, r := range sorted {
		row := []string{
			strconv.FormatInt(r.RunID, 10),
			strconv.FormatInt(r.PlayerID, 10),
			r.PlayerName,
			strconv.FormatInt(r.MapID, 10),
			r.MapName,
			strconv.Itoa(r.FPS),
			strconv.FormatInt(r.FromCPID, 10),
			strconv.FormatInt(r.ToCPID, 10),
			strconv.FormatInt(r.CPID, 10),
			formatSeconds(r.OldTime),
			FormatTime(r.OldTime),
			formatSeconds(r.NewTime),
			FormatTime(r.NewTime),
			fmt.Sprintf("%.2f", r.Adjustment()),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write journal row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return f.Close()
}

// Read loads and validates a journal file previously produced by Write.
// A malformed header or row is a validation error; revert must not run
// against a file it cannot fully parse.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read journal %s: %v", types.ErrValidation, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: journal %s is empty", types.ErrValidation, path)
	}
	if !equalHeader(rows[0]) {
		return nil, fmt.Errorf("%w: journal %s has an unrecognized header", types.ErrValidation, path)
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: journal %s row %d: %v", types.ErrValidation, path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func equalHeader(row []string) bool {
	if len(row) != len(header) {
		return false
	}
	for i, col := range header {
		if row[i] != col {
			return false
		}
	}
	return true
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(header) {
		return Record{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	var rec Record
	var err error
	if rec.RunID, err = strconv.ParseInt(row[0], 10, 64); err != nil {
		return Record{}, fmt.Errorf("run_id: %v", err)
	}
	if rec.PlayerID, err = strconv.ParseInt(row[1], 10, 64); err != nil {
		return Record{}, fmt.Errorf("player_id: %v", err)
	}
	rec.PlayerName = row[2]
	if rec.MapID, err = strconv.ParseInt(row[3], 10, 64); err != nil {
		return Record{}, fmt.Errorf("mapid: %v", err)
	}
	rec.MapName = row[4]
	if rec.FPS, err = strconv.Atoi(row[5]); err != nil {
		return Record{}, fmt.Errorf("fps: %v", err)
	}
	if rec.FromCPID, err = strconv.ParseInt(row[6], 10, 64); err != nil {
		return Record{}, fmt.Errorf("from_cp_id: %v", err)
	}
	if rec.ToCPID, err = strconv.ParseInt(row[7], 10, 64); err != nil {
		return Record{}, fmt.Errorf("to_cp_id: %v", err)
	}
	if rec.CPID, err = strconv.ParseInt(row[8], 10, 64); err != nil {
		return Record{}, fmt.Errorf("cp_id: %v", err)
	}
	if rec.OldTime, err = strconv.ParseFloat(row[9], 64); err != nil {
		return Record{}, fmt.Errorf("old_time_played: %v", err)
	}
	if rec.NewTime, err = strconv.ParseFloat(row[11], 64); err != nil {
		return Record{}, fmt.Errorf("new_time_played: %v", err)
	}
	if rec.OldTime < 0 || math.IsNaN(rec.OldTime) || math.IsInf(rec.OldTime, 0) {
		return Record{}, fmt.Errorf("old_time_played %v is not a usable time", rec.OldTime)
	}
	if rec.NewTime < 0 || math.IsNaN(rec.NewTime) || math.IsInf(rec.NewTime, 0) {
		return Record{}, fmt.Errorf("new_time_played %v is not a usable time", rec.NewTime)
	}
	return rec, nil
}

// formatSeconds renders a raw seconds value without trailing zeros so the
// round trip through Read reproduces the float exactly.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTime renders seconds as MM:SS.SS.
func FormatTime(seconds float64) string {
	minutes := int(seconds) / 60
	rest := seconds - float64(minutes)*60
	return fmt.Sprintf("%02d:%05.2f", minutes, rest)
}

// Timestamp layout used in journal filenames.
const filenameTimestamp = "20060102_150405"

// PreviewFilename names an informational pre-write export.
func PreviewFilename(t time.Time) string {
	return "cheated_runs_preview_" + t.Format(filenameTimestamp) + ".csv"
}

// FixedFilename names the authoritative post-write export used for revert.
func FixedFilename(t time.Time) string {
	return "cheated_runs_fixed_" + t.Format(filenameTimestamp) + ".csv"
}
