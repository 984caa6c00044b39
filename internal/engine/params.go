package engine

import (
	"fmt"
	"strconv"

	"github.com/ujcly/cheated-runs-fixer/pkg/types"
)

// Reference time bounds in seconds. Values outside this range are rejected
// before any query executes.
const (
	MinRefTime = 0.05
	MaxRefTime = 3600
)

// Params are the validated operator inputs for one fix invocation.
type Params struct {
	FromCPID int64
	ToCPID   int64
	RefTime  float64
}

// ParseParams converts raw string inputs into Params and validates them.
// Each failure names the offending field; no partial state is retained.
func ParseParams(from, to, refTime string) (Params, error) {
	var p Params
	var err error

	if p.FromCPID, err = strconv.ParseInt(from, 10, 64); err != nil {
		return Params{}, fmt.Errorf("%w: from_cp_id must be an integer, got %q", types.ErrValidation, from)
	}
	if p.ToCPID, err = strconv.ParseInt(to, 10, 64); err != nil {
		return Params{}, fmt.Errorf("%w: to_cp_id must be an integer, got %q", types.ErrValidation, to)
	}
	if p.RefTime, err = strconv.ParseFloat(refTime, 64); err != nil {
		return Params{}, fmt.Errorf("%w: ref_time must be a number, got %q", types.ErrValidation, refTime)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks the Params ranges: positive, distinct checkpoint IDs and a
// reference time within [MinRefTime, MaxRefTime] seconds.
func (p Params) Validate() error {
	if p.FromCPID <= 0 {
		return fmt.Errorf("%w: from_cp_id must be positive, got %d", types.ErrValidation, p.FromCPID)
	}
	if p.ToCPID <= 0 {
		return fmt.Errorf("%w: to_cp_id must be positive, got %d", types.ErrValidation, p.ToCPID)
	}
	if p.FromCPID == p.ToCPID {
		return fmt.Errorf("%w: from_cp_id and to_cp_id must be different, both are %d", types.ErrValidation, p.FromCPID)
	}
	if p.RefTime < MinRefTime {
		return fmt.Errorf("%w: ref_time must be at least %v seconds, got %v", types.ErrValidation, MinRefTime, p.RefTime)
	}
	if p.RefTime > MaxRefTime {
		return fmt.Errorf("%w: ref_time must be at most %v seconds (1 hour), got %v", types.ErrValidation, MaxRefTime, p.RefTime)
	}
	return nil
}
