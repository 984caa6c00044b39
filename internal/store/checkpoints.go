package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// ResolveCheckpointPair confirms both checkpoints exist and share a map, and
// returns that map's ID. Missing checkpoints are reported by name; a pair on
// different maps is a consistency error and stops the invocation before any
// run is looked up.
func (s *Store) ResolveCheckpointPair(ctx context.Context, fromID, toID int64) (int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT cp_id, mapid FROM checkpoints WHERE cp_id IN (?, ?)", fromID, toID)
	if err != nil {
		return 0, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	maps := make(map[int64]int64, 2)
	for rows.Next() {
		var cpID, mapID int64
		if err := rows.Scan(&cpID, &mapID); err != nil {
			return 0, fmt.Errorf("scan checkpoint: %w", err)
		}
		maps[cpID] = mapID
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read checkpoints: %w", err)
	}

	var missing []string
	if _, ok := maps[fromID]; !ok {
		missing = append(missing, fmt.Sprintf("from_cp_id %d", fromID))
	}
	if _, ok := maps[toID]; !ok {
		missing = append(missing, fmt.Sprintf("to_cp_id %d", toID))
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: checkpoint(s) not found: %s",
			types.ErrNotFound, strings.Join(missing, ", "))
	}

	if maps[fromID] != maps[toID] {
		return 0, fmt.Errorf("%w: checkpoints are on different maps: from_cp %d on map %d, to_cp %d on map %d",
			types.ErrConsistency, fromID, maps[fromID], toID, maps[toID])
	}
	return maps[fromID], nil
}

// Reachable reports whether toID can be reached from fromID by walking
// checkpoint_connections on the given map. Non-reachable pairs usually
// indicate a data issue; callers treat this as a warning, not a failure.
func (s *Store) Reachable(ctx context.Context, fromID, toID, mapID int64) (bool, error) {
	visited := make(map[int64]bool)
	queue := []int64{fromID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == toID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		children, err := s.childCheckpoints(ctx, current, mapID)
		if err != nil {
			return false, err
		}
		for _, child := range children {
			if !visited[child] {
				queue = append(queue, child)
			}
		}
	}
	return false, nil
}

// FollowingCheckpoints returns toID and every checkpoint reachable from it
// on the map, walking checkpoint_connections breadth-first. This is the set
// of statistic rows a correction cascades over, so the times downstream of
// the adjusted segment stay consistent with checkpoint ordering.
func (s *Store) FollowingCheckpoints(ctx context.Context, toID, mapID int64) ([]int64, error) {
	following := map[int64]bool{toID: true}
	visited := make(map[int64]bool)
	queue := []int64{toID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		children, err := s.childCheckpoints(ctx, current, mapID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if !visited[child] {
				following[child] = true
				queue = append(queue, child)
			}
		}
	}

	ids := make([]int64, 0, len(following))
	for id := range following {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) childCheckpoints(ctx context.Context, cpID, mapID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT child_cp_id FROM checkpoint_connections WHERE cp_id = ? AND mapid = ?",
		cpID, mapID)
	if err != nil {
		return nil, fmt.Errorf("query connections for cp %d: %w", cpID, err)
	}
	defer rows.Close()

	var children []int64
	for rows.Next() {
		var child int64
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

// MapName resolves a map's display name, or "Unknown" when the mapids table
// has no row for it.
func (s *Store) MapName(ctx context.Context, mapID int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT mapname FROM mapids WHERE mapid = ?", mapID).Scan(&name)
	if err == sql.ErrNoRows {
		return "Unknown", nil
	}
	if err != nil {
		return "", fmt.Errorf("query map name: %w", err)
	}
	return name, nil
}
