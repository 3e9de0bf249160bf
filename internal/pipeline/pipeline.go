// Package pipeline runs one siting invocation end to end: validate the
// document, compute distances and weights, build and solve the model, decode
// and verify the result. Every failure becomes an error record; only failing
// to write the output escapes to the caller.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"example.com/your_project/facility-location/internal/buildinfo"
	"example.com/your_project/facility-location/internal/decode"
	"example.com/your_project/facility-location/internal/facility"
	"example.com/your_project/facility-location/internal/formulation"
	"example.com/your_project/facility-location/internal/geo"
	"example.com/your_project/facility-location/internal/metrics"
	"example.com/your_project/facility-location/internal/solver"
	"example.com/your_project/facility-location/internal/weights"
)

// StatusError is the status of an error record.
const StatusError = "Error"

// objectiveTolerance is the relative difference between the solver's and
// the recomputed objective above which a warning is logged.
const objectiveTolerance = 1e-3

// Output is the document written for one invocation.
type Output struct {
	Status      string              `json:"status"`
	Message     string              `json:"mensagem,omitempty"`
	RunID       string              `json:"execucao_id"`
	Version     string              `json:"versao"`
	Variant     string              `json:"variante,omitempty"`
	ProblemType string              `json:"tipo_problema,omitempty"`
	RunTime     float64             `json:"tempo_execucao"`
	Objective   *float64            `json:"valor_objetivo,omitempty"`
	K           int                 `json:"num_centros,omitempty"`
	Budget      *float64            `json:"orcamento,omitempty"`
	DistanceCap *float64            `json:"dist_max,omitempty"`
	CapStrategy string              `json:"estrategia_dist_max,omitempty"`
	Metric      string              `json:"metrica_distancia,omitempty"`
	MetricNames []string            `json:"metricas,omitempty"`
	Priorities  []float64           `json:"prioridades,omitempty"`
	Allocations []decode.Allocation `json:"alocacoes,omitempty"`
	Activated   []decode.Activated  `json:"centros_adicionados,omitempty"`
	Fixed       []decode.Fixed      `json:"centros_fixos,omitempty"`
}

// Runner holds what is shared by every invocation of a process.
type Runner struct {
	Solver    solver.Adapter
	Policy    facility.Policy
	TimeLimit time.Duration
}

// Run solves doc. It never returns an error: stage failures are reported in
// the returned record with StatusError.
func (r Runner) Run(ctx context.Context, doc facility.Document) (out Output) {
	start := time.Now()
	runID := uuid.NewString()
	log := logr.FromContextOrDiscard(ctx).WithValues("runId", runID)
	ctx = logr.NewContext(ctx, log)

	defer func() {
		metrics.ObserveSolve(out.Variant, out.Status, time.Since(start))
	}()

	in, err := facility.NewInstance(doc, r.Policy)
	if err != nil {
		return r.fail(log, runID, "", err)
	}
	variant := string(in.Variant)
	if in.InversionIgnored {
		log.Info("inversion flags ignored", "variant", variant)
	}

	calc := geo.NewCalculator(in.Metric, in.PlanarScale)
	d, err := calc.Matrix(in.LocalityPoints(), in.SitePoints())
	if err != nil {
		return r.fail(log, runID, variant, fmt.Errorf("distances: %w", err))
	}

	w, err := weights.Aggregate(in.Metrics(), weights.Config{Lambda: in.Lambda, Invert: in.Invert})
	if err != nil {
		return r.fail(log, runID, variant, fmt.Errorf("weights: %w", err))
	}

	p, err := formulation.Build(ctx, in, d, w)
	if err != nil {
		return r.fail(log, runID, variant, fmt.Errorf("build model: %w", err))
	}
	stats := p.Stats()
	metrics.ObserveModel(variant, stats.Variables, stats.Constraints)

	res, err := r.Solver.Solve(ctx, p.Model, r.TimeLimit)
	if err != nil {
		return r.fail(log, runID, variant, err)
	}
	if res.Effective() == solver.Error {
		return r.fail(log, runID, variant, &solver.SolverError{
			Op:  "solve",
			Err: fmt.Errorf("solver returned status %s", res.Status),
		})
	}

	sol := decode.Decode(p, res)
	if err := decode.Verify(p, sol); err != nil {
		return r.fail(log, runID, variant, fmt.Errorf("solution check: %w", err))
	}

	out = Output{
		Status:      sol.Status.String(),
		RunID:       runID,
		Version:     buildinfo.String(),
		Variant:     variant,
		ProblemType: in.Config.Mode.String(),
		RunTime:     sol.RunTime.Seconds(),
		K:           in.Config.K,
		DistanceCap: &p.DistanceCap,
		CapStrategy: in.Config.Cap.Kind.String(),
		Metric:      calc.Metric().String(),
		MetricNames: in.MetricNames,
		Priorities:  in.Lambda,
		Fixed:       sol.Fixed,
	}
	if p.Rules.Budget {
		out.Budget = &in.Config.Budget
	}
	if sol.Status == solver.Optimal {
		out.Objective = &sol.Objective
		out.Allocations = sol.Allocations
		out.Activated = sol.Activated
		if got := decode.Objective(p, sol); relDiff(got, sol.Objective) > objectiveTolerance {
			log.Info("objective mismatch", "solver", sol.Objective, "recomputed", got)
		}
	}

	log.Info("solve finished",
		"variant", variant,
		"status", out.Status,
		"objective", sol.Objective,
		"activated", len(sol.Activated),
		"runtime", sol.RunTime.String(),
	)
	return out
}

func (r Runner) fail(log logr.Logger, runID, variant string, err error) Output {
	log.Error(err, "solve failed", "variant", variant)
	return Output{
		Status:  StatusError,
		Message: err.Error(),
		RunID:   runID,
		Version: buildinfo.String(),
		Variant: variant,
	}
}

func relDiff(a, b float64) float64 {
	den := math.Max(math.Abs(a), math.Abs(b))
	if den == 0 {
		return 0
	}
	return math.Abs(a-b) / den
}

// RunFile reads the document at in, solves it and writes the record to out.
// A non-nil k overrides the document's facility count. An unreadable input
// is reported in the written record; the returned error is only set when the
// record could not be written.
func (r Runner) RunFile(ctx context.Context, in, out string, k *int) (Output, error) {
	doc, err := facility.ReadDocument(in)
	var rec Output
	if err != nil {
		runID := uuid.NewString()
		log := logr.FromContextOrDiscard(ctx).WithValues("runId", runID, "input", in)
		rec = r.fail(log, runID, "", err)
		metrics.ObserveSolve("", rec.Status, 0)
	} else {
		if k != nil {
			doc.K = k
		}
		rec = r.Run(ctx, doc)
	}
	return rec, WriteOutput(out, rec)
}

// WriteOutput writes rec to path as indented JSON.
func WriteOutput(path string, rec Output) error {
	b, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
