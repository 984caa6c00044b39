package engine

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

func TestDeficitPolicy(t *testing.T) {
	c := types.Candidate{SegmentTime: 10.0, OldTime: 12.0}
	c.FPS = 250

	newTime := DeficitPolicy(c, 15.5)
	assert.InDelta(t, 17.5, newTime, 1e-9)
	assert.InDelta(t, 5.5, newTime-c.OldTime, 1e-9)
}

func TestDeficitPolicyLeavesCorrectRunsAlone(t *testing.T) {
	c := types.Candidate{SegmentTime: 20.0, OldTime: 45.0}
	assert.Equal(t, 45.0, DeficitPolicy(c, 15.5))
}

func TestDeficitPolicyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	candidate := func(old, segment float64, fps int) types.Candidate {
		c := types.Candidate{SegmentTime: segment, OldTime: old}
		c.FPS = fps
		return c
	}

	properties.Property("result is finite and never below the old time", prop.ForAll(
		func(old, segment, ref float64, fps int) bool {
			got := DeficitPolicy(candidate(old, segment, fps), ref)
			return !math.IsNaN(got) && !math.IsInf(got, 0) && got >= old && got >= 0
		},
		gen.Float64Range(0, 3600),
		gen.Float64Range(0.01, 3600),
		gen.Float64Range(MinRefTime, MaxRefTime),
		gen.IntRange(30, 1000),
	))

	properties.Property("cheated segments gain exactly the missing time", prop.ForAll(
		func(old, segment, ref float64, fps int) bool {
			if segment >= ref {
				return true
			}
			got := DeficitPolicy(candidate(old, segment, fps), ref)
			return math.Abs((got-old)-(ref-segment)) < 1e-9
		},
		gen.Float64Range(0, 3600),
		gen.Float64Range(0.01, 3600),
		gen.Float64Range(MinRefTime, MaxRefTime),
		gen.IntRange(30, 1000),
	))

	properties.Property("deterministic for equal inputs", prop.ForAll(
		func(old, segment, ref float64) bool {
			c := candidate(old, segment, 250)
			return DeficitPolicy(c, ref) == DeficitPolicy(c, ref)
		},
		gen.Float64Range(0, 3600),
		gen.Float64Range(0.01, 3600),
		gen.Float64Range(MinRefTime, MaxRefTime),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCheckPolicyResult(t *testing.T) {
	c := types.Candidate{OldTime: 10}
	c.RunID = 5

	assert.NoError(t, checkPolicyResult(c, 12.5))
	assert.ErrorIs(t, checkPolicyResult(c, math.NaN()), types.ErrConsistency)
	assert.ErrorIs(t, checkPolicyResult(c, math.Inf(1)), types.ErrConsistency)
	assert.ErrorIs(t, checkPolicyResult(c, -1), types.ErrConsistency)
}
