package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// FindCandidates selects every finished run whose time across the checkpoint
// segment is positive but shorter than refTime seconds. Each candidate
// carries player, map, and frame-rate information plus the run's final
// checkpoint time. Read-only; results are ordered by fps ascending, then by
// final time ascending.
func (s *Store) FindCandidates(ctx context.Context, fromID, toID, mapID int64, refTime float64) ([]types.Candidate, error) {
	const query = `
		SELECT seg_start.run_id,
		       seg_start.time_played,
		       seg_end.time_played,
		       pr.mapid, pr.player_id, pr.playername, pr.fps
		FROM checkpoint_statistics seg_start
		JOIN checkpoint_statistics seg_end ON seg_start.run_id = seg_end.run_id
		JOIN player_runs pr ON seg_start.run_id = pr.run_id
		WHERE seg_start.cp_id = ?
		  AND seg_end.cp_id = ?
		  AND seg_end.time_played > seg_start.time_played
		  AND seg_end.time_played - seg_start.time_played < ?
		  AND pr.finished_map = 1`

	rows, err := s.db.QueryContext(ctx, query, fromID, toID, refTime)
	if err != nil {
		return nil, fmt.Errorf("query candidate runs: %w", err)
	}
	defer rows.Close()

	var candidates []types.Candidate
	for rows.Next() {
		var c types.Candidate
		var start, end float64
		if err := rows.Scan(&c.RunID, &start, &end, &c.MapID, &c.PlayerID, &c.PlayerName, &c.FPS); err != nil {
			return nil, fmt.Errorf("scan candidate run: %w", err)
		}
		c.SegmentTime = end - start
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candidate runs: %w", err)
	}

	for i := range candidates {
		c := &candidates[i]
		name, err := s.MapName(ctx, c.MapID)
		if err != nil {
			return nil, err
		}
		c.MapName = name

		final, err := s.finalCheckpointTime(ctx, c.RunID, c.MapID)
		if err != nil {
			return nil, err
		}
		c.OldTime = final
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FPS != candidates[j].FPS {
			return candidates[i].FPS < candidates[j].FPS
		}
		return candidates[i].OldTime < candidates[j].OldTime
	})
	return candidates, nil
}

// finalCheckpointTime returns the run's time_played at the map's final
// checkpoint (isend = 1). A finished run without one is a data integrity
// problem and aborts the invocation.
func (s *Store) finalCheckpointTime(ctx context.Context, runID, mapID int64) (float64, error) {
	const query = `
		SELECT cs.time_played
		FROM checkpoint_statistics cs
		JOIN checkpoints c ON cs.cp_id = c.cp_id
		WHERE cs.run_id = ? AND c.mapid = ? AND c.isend = 1
		ORDER BY cs.time_played DESC
		LIMIT 1`

	var final float64
	err := s.db.QueryRowContext(ctx, query, runID, mapID).Scan(&final)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: no final checkpoint (isend=1) for run %d on map %d",
			types.ErrConsistency, runID, mapID)
	}
	if err != nil {
		return 0, fmt.Errorf("query final checkpoint for run %d: %w", runID, err)
	}
	return final, nil
}

// StatisticTimes returns the current time_played for the run's rows at the
// given checkpoints, keyed by checkpoint ID. Checkpoints the run never
// reached have no entry.
func (s *Store) StatisticTimes(ctx context.Context, runID int64, cpIDs []int64) (map[int64]float64, error) {
	if len(cpIDs) == 0 {
		return map[int64]float64{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cpIDs)), ",")
	query := fmt.Sprintf(
		"SELECT cp_id, time_played FROM checkpoint_statistics WHERE run_id = ? AND cp_id IN (%s)",
		placeholders)

	args := make([]any, 0, len(cpIDs)+1)
	args = append(args, runID)
	for _, id := range cpIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statistics for run %d: %w", runID, err)
	}
	defer rows.Close()

	times := make(map[int64]float64)
	for rows.Next() {
		var cpID int64
		var t float64
		if err := rows.Scan(&cpID, &t); err != nil {
			return nil, fmt.Errorf("scan statistic: %w", err)
		}
		times[cpID] = t
	}
	return times, rows.Err()
}
