package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujcly/cheated-runs-fixer/internal/journal"
	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// stubStore is a canned Store for driving the engine's state machine
// without a database.
type stubStore struct {
	mapID      int64
	mapName    string
	reachable  bool
	candidates []types.Candidate
	following  []int64
	times      map[int64]map[int64]float64

	resolveErr error
	applyErr   error

	resolveCalls int
	applied      [][]types.Adjustment
}

func (s *stubStore) ResolveCheckpointPair(ctx context.Context, fromID, toID int64) (int64, error) {
	s.resolveCalls++
	if s.resolveErr != nil {
		return 0, s.resolveErr
	}
	return s.mapID, nil
}

func (s *stubStore) Reachable(ctx context.Context, fromID, toID, mapID int64) (bool, error) {
	return s.reachable, nil
}

func (s *stubStore) MapName(ctx context.Context, mapID int64) (string, error) {
	return s.mapName, nil
}

func (s *stubStore) FindCandidates(ctx context.Context, fromID, toID, mapID int64, refTime float64) ([]types.Candidate, error) {
	return s.candidates, nil
}

func (s *stubStore) FollowingCheckpoints(ctx context.Context, toID, mapID int64) ([]int64, error) {
	return s.following, nil
}

func (s *stubStore) StatisticTimes(ctx context.Context, runID int64, cpIDs []int64) (map[int64]float64, error) {
	return s.times[runID], nil
}

func (s *stubStore) Apply(ctx context.Context, adjustments []types.Adjustment) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, adjustments)
	return nil
}

// stubPrompter returns canned answers and records the questions asked.
type stubPrompter struct {
	from, to, refTime string
	answers           []bool
	questions         []string
}

func (p *stubPrompter) Range() (string, string, error) {
	return p.from, p.to, nil
}

func (p *stubPrompter) RefTime() (string, error) {
	return p.refTime, nil
}

func (p *stubPrompter) Confirm(question string) (bool, error) {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return false, fmt.Errorf("unexpected confirmation: %s", question)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func cheatedStore() *stubStore {
	candidate := types.Candidate{SegmentTime: 10.0, OldTime: 12.0}
	candidate.RunID = 42
	candidate.PlayerID = 7
	candidate.PlayerName = "alice"
	candidate.MapID = 3
	candidate.MapName = "frozen_valley"
	candidate.FPS = 250

	return &stubStore{
		mapID:      3,
		mapName:    "frozen_valley",
		reachable:  true,
		candidates: []types.Candidate{candidate},
		following:  []int64{105, 106, 107},
		times: map[int64]map[int64]float64{
			42: {105: 12.0, 106: 13.0, 107: 14.0},
		},
	}
}

func testEngine(t *testing.T, st Store, p Prompter) *Engine {
	t.Helper()
	return New(st, p, Options{JournalDir: t.TempDir(), Out: io.Discard})
}

func testParams() Params {
	return Params{FromCPID: 100, ToCPID: 105, RefTime: 15.5}
}

func TestFixComputesCascadingAdjustments(t *testing.T) {
	st := cheatedStore()
	prompter := &stubPrompter{answers: []bool{false}} // decline preview export
	eng := testEngine(t, st, prompter)

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{DryRun: true})
	require.NoError(t, err)

	require.Len(t, rep.Plan, 1)
	assert.InDelta(t, 17.5, rep.Plan[0].NewTime, 1e-9)
	assert.InDelta(t, 5.5, rep.Plan[0].Adjustment(), 1e-9)
	assert.Equal(t, 3, rep.Plan[0].Rows)

	require.Len(t, rep.Records, 3)
	for i, cpID := range []int64{105, 106, 107} {
		assert.Equal(t, cpID, rep.Records[i].CPID)
		assert.InDelta(t, 5.5, rep.Records[i].Adjustment(), 1e-9)
	}

	// Dry run never writes.
	assert.Empty(t, st.applied)
	assert.Empty(t, rep.ExportPath)
}

func TestFixDryRunExportsPreview(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{answers: []bool{true}})

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{DryRun: true})
	require.NoError(t, err)

	require.NotEmpty(t, rep.ExportPath)
	assert.Contains(t, filepath.Base(rep.ExportPath), "cheated_runs_preview_")

	records, err := journal.Read(rep.ExportPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Empty(t, st.applied)
}

func TestFixAppliesAndExports(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{})

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{Confirm: true})
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	require.Len(t, st.applied, 1)
	adjustments := st.applied[0]
	require.Len(t, adjustments, 3)
	assert.Equal(t, types.Adjustment{RunID: 42, CPID: 105, Old: 12.0, New: 17.5}, adjustments[0])
	assert.Equal(t, types.Adjustment{RunID: 42, CPID: 106, Old: 13.0, New: 18.5}, adjustments[1])
	assert.Equal(t, types.Adjustment{RunID: 42, CPID: 107, Old: 14.0, New: 19.5}, adjustments[2])

	require.NotEmpty(t, rep.ExportPath)
	assert.Contains(t, filepath.Base(rep.ExportPath), "cheated_runs_fixed_")
	records, err := journal.Read(rep.ExportPath)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	summary := rep.PlayerSummary()
	require.Len(t, summary, 1)
	assert.Equal(t, PlayerRunCount{PlayerID: 7, PlayerName: "alice", FPS: 250, Runs: 1}, summary[0])
}

func TestFixDeclineWritesNothing(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{answers: []bool{false}})

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Aborted)
	assert.False(t, rep.Applied)
	assert.Empty(t, st.applied)
	assert.Empty(t, rep.ExportPath)
}

func TestFixNoCandidates(t *testing.T) {
	st := cheatedStore()
	st.candidates = nil
	prompter := &stubPrompter{}
	eng := testEngine(t, st, prompter)

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{})
	require.NoError(t, err)
	assert.Empty(t, rep.Plan)
	assert.Empty(t, prompter.questions)
	assert.Empty(t, st.applied)
}

func TestFixValidatesBeforeTouchingStore(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{})

	_, err := eng.Fix(context.Background(), Params{FromCPID: 10, ToCPID: 10, RefTime: 15}, FixOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Zero(t, st.resolveCalls)
}

func TestFixCrossMapErrorStopsBeforeRunLookup(t *testing.T) {
	st := cheatedStore()
	st.resolveErr = fmt.Errorf("%w: checkpoints are on different maps", types.ErrConsistency)
	eng := testEngine(t, st, &stubPrompter{})

	_, err := eng.Fix(context.Background(), testParams(), FixOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConsistency)
	assert.Empty(t, st.applied)
}

func TestFixRejectsBrokenPolicy(t *testing.T) {
	st := cheatedStore()
	broken := func(c types.Candidate, refTime float64) float64 { return math.NaN() }
	eng := New(st, &stubPrompter{}, Options{JournalDir: t.TempDir(), Out: io.Discard, Policy: broken})

	_, err := eng.Fix(context.Background(), testParams(), FixOptions{Confirm: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConsistency)
	assert.Empty(t, st.applied)
}

func TestFixApplyFailurePropagates(t *testing.T) {
	st := cheatedStore()
	st.applyErr = fmt.Errorf("%w: verification failed", types.ErrConsistency)
	eng := testEngine(t, st, &stubPrompter{})

	rep, err := eng.Fix(context.Background(), testParams(), FixOptions{Confirm: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConsistency)
	assert.Nil(t, rep)
}

func TestRevertReplaysRecordedOldValues(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{})

	path := filepath.Join(t.TempDir(), "fixed.csv")
	require.NoError(t, journal.Write(path, []journal.Record{
		{RunID: 42, PlayerID: 7, PlayerName: "alice", MapID: 3, MapName: "frozen_valley",
			FPS: 250, FromCPID: 100, ToCPID: 105, CPID: 105, OldTime: 12.0, NewTime: 17.5},
		{RunID: 42, PlayerID: 7, PlayerName: "alice", MapID: 3, MapName: "frozen_valley",
			FPS: 250, FromCPID: 100, ToCPID: 105, CPID: 106, OldTime: 13.0, NewTime: 18.5},
	}))

	rep, err := eng.Revert(context.Background(), path, true)
	require.NoError(t, err)
	assert.True(t, rep.Applied)

	require.Len(t, st.applied, 1)
	adjustments := st.applied[0]
	require.Len(t, adjustments, 2)
	assert.Equal(t, types.Adjustment{RunID: 42, CPID: 105, Old: 17.5, New: 12.0}, adjustments[0])
	assert.Equal(t, types.Adjustment{RunID: 42, CPID: 106, Old: 18.5, New: 13.0}, adjustments[1])
}

func TestRevertDeclineWritesNothing(t *testing.T) {
	st := cheatedStore()
	eng := testEngine(t, st, &stubPrompter{answers: []bool{false}})

	path := filepath.Join(t.TempDir(), "fixed.csv")
	require.NoError(t, journal.Write(path, []journal.Record{
		{RunID: 42, FPS: 250, FromCPID: 100, ToCPID: 105, CPID: 105, OldTime: 12.0, NewTime: 17.5},
	}))

	rep, err := eng.Revert(context.Background(), path, false)
	require.NoError(t, err)
	assert.True(t, rep.Aborted)
	assert.Empty(t, st.applied)
}

func TestRevertMissingJournal(t *testing.T) {
	eng := testEngine(t, cheatedStore(), &stubPrompter{})
	_, err := eng.Revert(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), true)
	require.Error(t, err)
}

func TestCollectParams(t *testing.T) {
	prompter := &stubPrompter{from: "100", to: "105", refTime: "15.5"}
	eng := testEngine(t, cheatedStore(), prompter)

	params, err := eng.CollectParams()
	require.NoError(t, err)
	assert.Equal(t, testParams(), params)
}

func TestCollectParamsRejectsBadInput(t *testing.T) {
	prompter := &stubPrompter{from: "abc", to: "105", refTime: "15.5"}
	eng := testEngine(t, cheatedStore(), prompter)

	_, err := eng.CollectParams()
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}
