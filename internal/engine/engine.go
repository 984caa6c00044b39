// Package engine drives one fix or revert invocation: validate inputs,
// resolve the checkpoint pair, find affected runs, compute corrections,
// confirm, apply with verification, and export the audit journal.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ujcly/cheated-runs-fixer/internal/journal"
	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// Store is the slice of the relational layer the engine drives.
type Store interface {
	ResolveCheckpointPair(ctx context.Context, fromID, toID int64) (int64, error)
	Reachable(ctx context.Context, fromID, toID, mapID int64) (bool, error)
	MapName(ctx context.Context, mapID int64) (string, error)
	FindCandidates(ctx context.Context, fromID, toID, mapID int64, refTime float64) ([]types.Candidate, error)
	FollowingCheckpoints(ctx context.Context, toID, mapID int64) ([]int64, error)
	StatisticTimes(ctx context.Context, runID int64, cpIDs []int64) (map[int64]float64, error)
	Apply(ctx context.Context, adjustments []types.Adjustment) error
}

// Engine coordinates one invocation against a Store. It holds no state
// across invocations beyond its configuration.
type Engine struct {
	store      Store
	prompter   Prompter
	policy     Policy
	out        io.Writer
	journalDir string
	opID       string
	now        func() time.Time
}

// Options tune an Engine. Zero values select the defaults: DeficitPolicy,
// journal files in the working directory, output to stdout.
type Options struct {
	Policy     Policy
	JournalDir string
	Out        io.Writer
	Now        func() time.Time
}

// New creates an Engine bound to a store and a prompter.
func New(st Store, prompter Prompter, opts Options) *Engine {
	e := &Engine{
		store:      st,
		prompter:   prompter,
		policy:     opts.Policy,
		out:        opts.Out,
		journalDir: opts.JournalDir,
		opID:       newOperationID(),
		now:        opts.Now,
	}
	if e.policy == nil {
		e.policy = DeficitPolicy
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.journalDir == "" {
		e.journalDir = "."
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// newOperationID returns a UUID v7 identifying one invocation in reports.
func newOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// OperationID returns the invocation's identifier.
func (e *Engine) OperationID() string {
	return e.opID
}

// FixOptions control the fix flow. DryRun stops after the preview; Confirm
// skips the interactive confirmation prompts.
type FixOptions struct {
	DryRun  bool
	Confirm bool
}

// PlanEntry is one candidate run with its computed correction.
type PlanEntry struct {
	types.Candidate
	NewTime float64
	Rows    int
}

// Adjustment returns the seconds added to the run's times.
func (p PlanEntry) Adjustment() float64 {
	return p.NewTime - p.OldTime
}

// Report summarizes one fix invocation.
type Report struct {
	OperationID string
	Params      Params
	MapID       int64
	MapName     string
	Reachable   bool
	Plan        []PlanEntry
	Records     []journal.Record
	ExportPath  string
	Applied     bool
	Aborted     bool
}

// PlayerRunCount aggregates affected runs per player and frame rate.
type PlayerRunCount struct {
	PlayerID   int64
	PlayerName string
	FPS        int
	Runs       int
}

// PlayerSummary returns the affected players ordered by player ID, then fps.
func (r *Report) PlayerSummary() []PlayerRunCount {
	type key struct {
		playerID int64
		fps      int
	}
	var summary []PlayerRunCount
	index := make(map[key]int)
	for _, p := range r.Plan {
		k := key{p.PlayerID, p.FPS}
		if i, ok := index[k]; ok {
			summary[i].Runs++
			continue
		}
		index[k] = len(summary)
		summary = append(summary, PlayerRunCount{
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			FPS:        p.FPS,
			Runs:       1,
		})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].PlayerID != summary[j].PlayerID {
			return summary[i].PlayerID < summary[j].PlayerID
		}
		return summary[i].FPS < summary[j].FPS
	})
	return summary
}

// CollectParams obtains and validates parameters from the prompter. Used
// when no positional arguments were supplied.
func (e *Engine) CollectParams() (Params, error) {
	from, to, err := e.prompter.Range()
	if err != nil {
		return Params{}, fmt.Errorf("read checkpoint range: %w", err)
	}
	refTime, err := e.prompter.RefTime()
	if err != nil {
		return Params{}, fmt.Errorf("read reference time: %w", err)
	}
	return ParseParams(from, to, refTime)
}

// Fix runs one invocation end to end. In dry-run mode it computes and
// reports the corrections, optionally exporting a preview journal, and
// writes nothing to the store. In live mode it asks for confirmation (unless
// bypassed), applies all corrections in one verified transaction, and
// exports the authoritative journal.
//
// A declined confirmation or an empty candidate set is a clean stop, not an
// error; the report's Aborted and Plan fields tell the two apart.
func (e *Engine) Fix(ctx context.Context, p Params, opts FixOptions) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	rep := &Report{OperationID: e.opID, Params: p}

	mapID, err := e.store.ResolveCheckpointPair(ctx, p.FromCPID, p.ToCPID)
	if err != nil {
		return nil, err
	}
	rep.MapID = mapID

	reachable, err := e.store.Reachable(ctx, p.FromCPID, p.ToCPID, mapID)
	if err != nil {
		return nil, err
	}
	rep.Reachable = reachable
	if !reachable {
		fmt.Fprintf(e.out, "warning: checkpoint %d is not reachable from checkpoint %d via checkpoint connections; this may indicate a data issue\n",
			p.ToCPID, p.FromCPID)
	}

	mapName, err := e.store.MapName(ctx, mapID)
	if err != nil {
		return nil, err
	}
	rep.MapName = mapName

	candidates, err := e.store.FindCandidates(ctx, p.FromCPID, p.ToCPID, mapID, p.RefTime)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		fmt.Fprintln(e.out, "No cheated runs found.")
		return rep, nil
	}

	following, err := e.store.FollowingCheckpoints(ctx, p.ToCPID, mapID)
	if err != nil {
		return nil, err
	}

	var adjustments []types.Adjustment
	for _, c := range candidates {
		newTime := e.policy(c, p.RefTime)
		if err := checkPolicyResult(c, newTime); err != nil {
			return nil, err
		}
		delta := newTime - c.OldTime

		times, err := e.store.StatisticTimes(ctx, c.RunID, following)
		if err != nil {
			return nil, err
		}
		if len(times) == 0 {
			return nil, fmt.Errorf("%w: run %d has no statistic rows in the affected checkpoint set",
				types.ErrNotFound, c.RunID)
		}

		rows := 0
		for _, cpID := range following {
			current, ok := times[cpID]
			if !ok {
				continue
			}
			adjustments = append(adjustments, types.Adjustment{
				RunID: c.RunID,
				CPID:  cpID,
				Old:   current,
				New:   current + delta,
			})
			rep.Records = append(rep.Records, journal.Record{
				RunID:      c.RunID,
				PlayerID:   c.PlayerID,
				PlayerName: c.PlayerName,
				MapID:      c.MapID,
				MapName:    c.MapName,
				FPS:        c.FPS,
				FromCPID:   p.FromCPID,
				ToCPID:     p.ToCPID,
				CPID:       cpID,
				OldTime:    current,
				NewTime:    current + delta,
			})
			rows++
		}
		rep.Plan = append(rep.Plan, PlanEntry{Candidate: c, NewTime: newTime, Rows: rows})
	}

	e.printPlan(rep)

	if opts.DryRun {
		export, err := e.confirm(opts, "Export preview CSV?")
		if err != nil {
			return nil, err
		}
		if export {
			path := filepath.Join(e.journalDir, journal.PreviewFilename(e.now()))
			if err := journal.Write(path, rep.Records); err != nil {
				return nil, err
			}
			rep.ExportPath = path
			fmt.Fprintf(e.out, "Preview exported to %s\n", path)
		}
		return rep, nil
	}

	proceed, err := e.confirm(opts, "Apply these changes?")
	if err != nil {
		return nil, err
	}
	if !proceed {
		rep.Aborted = true
		fmt.Fprintln(e.out, "Changes not applied.")
		return rep, nil
	}

	if err := e.store.Apply(ctx, adjustments); err != nil {
		return nil, err
	}
	rep.Applied = true

	path := filepath.Join(e.journalDir, journal.FixedFilename(e.now()))
	if err := journal.Write(path, rep.Records); err != nil {
		// The transaction is committed; without the journal the change
		// cannot be reverted, so surface this loudly.
		return rep, fmt.Errorf("changes applied but journal export failed: %w", err)
	}
	rep.ExportPath = path
	fmt.Fprintf(e.out, "Updated %d row(s) across %d run(s); journal exported to %s\n",
		len(rep.Records), len(rep.Plan), path)
	return rep, nil
}

// RevertReport summarizes one revert invocation.
type RevertReport struct {
	Records []journal.Record
	Applied bool
	Aborted bool
}

// Revert replays a journal file: each recorded old value is written back to
// the row identified by run and checkpoint, inside one verified transaction.
// Old values are restored verbatim, never recomputed, so a second revert of
// the same journal is a no-op that still passes verification. A referenced
// row that no longer exists aborts the whole batch.
func (e *Engine) Revert(ctx context.Context, path string, autoConfirm bool) (*RevertReport, error) {
	records, err := journal.Read(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: journal %s has no records", types.ErrValidation, path)
	}

	fmt.Fprintf(e.out, "Found %d row correction(s) to revert from %s\n", len(records), path)

	proceed, err := e.confirm(FixOptions{Confirm: autoConfirm},
		fmt.Sprintf("Revert changes recorded in %s?", path))
	if err != nil {
		return nil, err
	}
	if !proceed {
		fmt.Fprintln(e.out, "Revert cancelled.")
		return &RevertReport{Records: records, Aborted: true}, nil
	}

	adjustments := make([]types.Adjustment, len(records))
	for i, rec := range records {
		adjustments[i] = types.Adjustment{
			RunID: rec.RunID,
			CPID:  rec.CPID,
			Old:   rec.NewTime,
			New:   rec.OldTime,
		}
	}

	if err := e.store.Apply(ctx, adjustments); err != nil {
		return nil, err
	}

	fmt.Fprintf(e.out, "Reverted %d row(s)\n", len(records))
	return &RevertReport{Records: records, Applied: true}, nil
}

func (e *Engine) confirm(opts FixOptions, question string) (bool, error) {
	if opts.Confirm {
		return true, nil
	}
	ok, err := e.prompter.Confirm(question)
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return ok, nil
}

func (e *Engine) printPlan(rep *Report) {
	fmt.Fprintf(e.out, "Found %d cheated run(s) on map %s (id %d):\n\n",
		len(rep.Plan), rep.MapName, rep.MapID)
	for i, p := range rep.Plan {
		fmt.Fprintf(e.out, "%d. Run %d by %s (id %d), fps %d\n",
			i+1, p.RunID, p.PlayerName, p.PlayerID, p.FPS)
		fmt.Fprintf(e.out, "   segment %.2fs vs reference %.2fs\n",
			p.SegmentTime, rep.Params.RefTime)
		fmt.Fprintf(e.out, "   %s -> %s (+%.2fs across %d checkpoint row(s))\n",
			journal.FormatTime(p.OldTime), journal.FormatTime(p.NewTime),
			p.Adjustment(), p.Rows)
	}
	fmt.Fprintln(e.out)
}
