// Package solver runs a built MIP through an external solver and reduces the
// outcome to the few statuses the rest of the pipeline branches on.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/nextmv-io/sdk/mip"
)

// Status is the outcome of a solve.
type Status int

const (
	// Error is a solve that produced no usable verdict.
	Error Status = iota
	// Optimal is a proven optimum, or the incumbent after a timeout.
	Optimal
	// Infeasible means no assignment satisfies the constraints.
	Infeasible
	// Unbounded means the objective can decrease without limit.
	Unbounded
	// TimedOut is a solve stopped by the time limit.
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case TimedOut:
		return "TimedOut"
	}
	return "Error"
}

// Result is what the pipeline needs from a solve. Values are only meaningful
// when Incumbent is true.
type Result struct {
	Status    Status
	Objective float64
	RunTime   time.Duration
	// Incumbent is set when the solver returned variable values.
	Incumbent bool

	values map[int]float64
}

// NewResult builds a result from variable values keyed by variable index.
func NewResult(status Status, objective float64, runTime time.Duration, values map[int]float64) Result {
	return Result{
		Status:    status,
		Objective: objective,
		RunTime:   runTime,
		Incumbent: values != nil,
		values:    values,
	}
}

// Value returns the solved value of v, or 0 without an incumbent.
func (r Result) Value(v mip.Var) float64 {
	return r.values[v.Index()]
}

// Effective maps a timeout to the status downstream code acts on: the best
// found solution counts as optimal, no incumbent counts as infeasible.
func (r Result) Effective() Status {
	if r.Status != TimedOut {
		return r.Status
	}
	if r.Incumbent {
		return Optimal
	}
	return Infeasible
}

// SolverError reports a solver failure that is not an infeasibility verdict.
type SolverError struct {
	Op  string
	Err error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver %s: %v", e.Op, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// Adapter solves a MIP within a wall-clock limit.
type Adapter interface {
	Solve(ctx context.Context, m mip.Model, limit time.Duration) (Result, error)
}
