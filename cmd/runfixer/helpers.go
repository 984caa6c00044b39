// Shared helpers for runfixer CLI commands.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/ujcly/cheated-runs-fixer/internal/engine"
	"github.com/ujcly/cheated-runs-fixer/internal/store"
	"github.com/ujcly/cheated-runs-fixer/internal/tunnel"
	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// openStore opens the optional SSH tunnel and the database connection and
// verifies the database answers. The returned cleanup closes both and must
// run on every exit path.
func openStore(ctx context.Context, cfg types.Config) (*store.Store, func(), error) {
	addr := cfg.Database.Addr()

	var tun *tunnel.Tunnel
	if cfg.SSH != nil {
		fmt.Printf("Opening SSH tunnel to %s...\n", cfg.SSH.Host)
		t, err := tunnel.Open(*cfg.SSH)
		if err != nil {
			return nil, nil, err
		}
		tun = t
		addr = t.Addr()
		color.Green("✓ SSH tunnel established (local %s)", addr)
	}

	closeTunnel := func() {
		if tun != nil {
			tun.Close()
		}
	}

	st, err := store.Open(cfg.Database, addr)
	if err != nil {
		closeTunnel()
		return nil, nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		closeTunnel()
		return nil, nil, err
	}
	color.Green("✓ Connected to database %s", cfg.Database.Name)

	cleanup := func() {
		st.Close()
		closeTunnel()
	}
	return st, cleanup, nil
}

// exitCodeFor maps an error to the CLI exit code by its kind.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	if errors.Is(err, types.ErrValidation) || errors.Is(err, types.ErrNotFound) {
		return exitUserError
	}
	return exitSysError
}

// printPlayerSummary prints the affected players grouped by player and fps.
func printPlayerSummary(rep *engine.Report) {
	summary := rep.PlayerSummary()
	if len(summary) == 0 {
		return
	}
	fmt.Println("Affected players:")
	for _, s := range summary {
		fmt.Printf("  %s (id %d): fps %d, %d run(s)\n", s.PlayerName, s.PlayerID, s.FPS, s.Runs)
	}
}
