// Package solvertest provides solver adapters for tests.
package solvertest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nextmv-io/sdk/mip"

	"example.com/your_project/facility-location/internal/solver"
)

// MaxVariables bounds the models Enumerator accepts.
const MaxVariables = 22

const feasibilityTolerance = 1e-9

// Enumerator solves small all-binary models by trying every assignment. It
// returns the first minimum found in ascending bit order, so results are
// deterministic.
type Enumerator struct {
	// Calls counts Solve invocations.
	Calls int
}

var _ solver.Adapter = (*Enumerator)(nil)

// Solve implements solver.Adapter.
func (e *Enumerator) Solve(_ context.Context, m mip.Model, _ time.Duration) (solver.Result, error) {
	e.Calls++
	start := time.Now()

	vars := m.Vars()
	n := len(vars)
	if n > MaxVariables {
		return solver.Result{Status: solver.Error}, &solver.SolverError{
			Op:  "enumerate",
			Err: fmt.Errorf("%d variables, at most %d supported", n, MaxVariables),
		}
	}
	pos := make(map[int]int, n)
	for k, v := range vars {
		pos[v.Index()] = k
	}

	sign := 1.0
	if m.Objective().IsMaximize() {
		sign = -1
	}

	var (
		best      uint64
		bestValue = math.Inf(1)
		found     bool
	)
	value := func(bits uint64, v mip.Var) float64 {
		return float64(bits >> uint(pos[v.Index()]) & 1)
	}
	for bits := uint64(0); bits < 1<<uint(n); bits++ {
		if !feasible(m, func(v mip.Var) float64 { return value(bits, v) }) {
			continue
		}
		obj := 0.0
		for _, t := range m.Objective().Terms() {
			obj += t.Coefficient() * value(bits, t.Var())
		}
		if !found || sign*obj < sign*bestValue-feasibilityTolerance {
			best, bestValue, found = bits, obj, true
		}
	}

	if !found {
		return solver.NewResult(solver.Infeasible, 0, time.Since(start), nil), nil
	}
	values := make(map[int]float64, n)
	for _, v := range vars {
		values[v.Index()] = value(best, v)
	}
	return solver.NewResult(solver.Optimal, bestValue, time.Since(start), values), nil
}

func feasible(m mip.Model, value func(mip.Var) float64) bool {
	for _, c := range m.Constraints() {
		lhs := 0.0
		for _, t := range c.Terms() {
			lhs += t.Coefficient() * value(t.Var())
		}
		rhs := c.RightHandSide()
		switch c.Sense() {
		case mip.Equal:
			if math.Abs(lhs-rhs) > feasibilityTolerance {
				return false
			}
		case mip.LessThanOrEqual:
			if lhs > rhs+feasibilityTolerance {
				return false
			}
		case mip.GreaterThanOrEqual:
			if lhs < rhs-feasibilityTolerance {
				return false
			}
		}
	}
	return true
}

// Static returns a fixed result, optionally with an error.
type Static struct {
	Result solver.Result
	Err    error
	Calls  int
}

var _ solver.Adapter = (*Static)(nil)

// Solve implements solver.Adapter.
func (s *Static) Solve(context.Context, mip.Model, time.Duration) (solver.Result, error) {
	s.Calls++
	return s.Result, s.Err
}
