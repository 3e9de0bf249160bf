package solver

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/nextmv-io/sdk/mip"
)

const highsProvider = "highs"

// Highs solves models with the HiGHS provider of the nextmv SDK.
type Highs struct {
	// Gap is the relative MIP gap; HiGHS defaults to 5%, 0 asks for a proven
	// optimum.
	Gap float64
}

// Solve implements Adapter. A zero limit is treated as infinity by the
// provider.
func (h Highs) Solve(ctx context.Context, m mip.Model, limit time.Duration) (Result, error) {
	log := logr.FromContextOrDiscard(ctx)

	// We create a solver using the 'highs' provider
	solver, err := mip.NewSolver(highsProvider, m)
	if err != nil {
		return Result{Status: Error}, &SolverError{Op: "create", Err: err}
	}

	// We create the solve options we will use
	solveOptions := mip.NewSolveOptions()

	// Limit the solve to a maximum duration
	if err = solveOptions.SetMaximumDuration(limit); err != nil {
		return Result{Status: Error}, &SolverError{Op: "options", Err: err}
	}

	if err = solveOptions.SetMIPGapRelative(h.Gap); err != nil {
		return Result{Status: Error}, &SolverError{Op: "options", Err: err}
	}

	solveOptions.SetVerbosity(mip.Off)

	log.V(1).Info("solving", "provider", highsProvider, "limit", limit.String(), "gap", h.Gap)
	solution, err := solver.Solve(solveOptions)
	if err != nil {
		return Result{Status: Error}, &SolverError{Op: "solve", Err: err}
	}
	if solution == nil {
		return Result{Status: Error}, &SolverError{Op: "solve", Err: errors.New("no solution returned")}
	}
	return fromSolution(solution, m), nil
}

// fromSolution copies the status and values out of a provider solution.
func fromSolution(solution mip.Solution, m mip.Model) Result {
	var values map[int]float64
	if solution.HasValues() {
		vars := m.Vars()
		values = make(map[int]float64, len(vars))
		for _, v := range vars {
			values[v.Index()] = solution.Value(v)
		}
	}

	var objective float64
	if values != nil {
		objective = solution.ObjectiveValue()
	}
	return NewResult(classify(solution), objective, solution.RunTime(), values)
}

// outcome is the part of mip.Solution that decides the status.
type outcome interface {
	HasValues() bool
	IsOptimal() bool
	IsSubOptimal() bool
	IsInfeasible() bool
	IsUnbounded() bool
	IsTimeOut() bool
}

func classify(s outcome) Status {
	switch {
	case s.IsOptimal():
		return Optimal
	case s.IsInfeasible():
		return Infeasible
	case s.IsUnbounded():
		return Unbounded
	case s.IsTimeOut():
		return TimedOut
	case s.IsSubOptimal() && s.HasValues():
		// Stopped early with an incumbent, which is the same as a timeout
		// for the caller.
		return TimedOut
	}
	return Error
}
