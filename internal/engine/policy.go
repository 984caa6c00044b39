package engine

import (
	"fmt"
	"math"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// Policy computes the corrected final time for one candidate run. The exact
// normalization rule is an operator decision that depends on game physics,
// so implementations are interchangeable: a Policy must be a pure function
// of the candidate's recorded values and the reference time, and must return
// a non-negative, finite result.
type Policy func(c types.Candidate, refTime float64) float64

// DeficitPolicy is the default rule: the run is missing the time it skipped
// across the segment, so the final time grows by refTime minus the recorded
// segment time. Runs at or above the reference are left unchanged.
func DeficitPolicy(c types.Candidate, refTime float64) float64 {
	deficit := refTime - c.SegmentTime
	if deficit < 0 {
		deficit = 0
	}
	return c.OldTime + deficit
}

// checkPolicyResult rejects unusable policy output before it reaches the
// database.
func checkPolicyResult(c types.Candidate, newTime float64) error {
	if math.IsNaN(newTime) || math.IsInf(newTime, 0) {
		return fmt.Errorf("%w: policy produced a non-finite time for run %d", types.ErrConsistency, c.RunID)
	}
	if newTime < 0 {
		return fmt.Errorf("%w: policy produced a negative time %v for run %d", types.ErrConsistency, newTime, c.RunID)
	}
	return nil
}
