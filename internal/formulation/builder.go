// Package formulation builds the facility location MIP for every variant.
//
// The model is built the way the order fulfillment template builds its
// knapsack: binary variables are held in multimaps keyed by domain elements,
// the objective is set to minimize and every family of constraints is added
// row by row with NewConstraint and NewTerm.
package formulation

import (
	"context"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/nextmv-io/sdk/mip"
	"github.com/nextmv-io/sdk/model"

	"example.com/your_project/facility-location/internal/facility"
)

// arc indexes an allocation variable: locality i served by site j.
type arc struct {
	i, j int
}

// ID is implemented to fulfill the model.Identifier interface.
func (a arc) ID() string {
	return strconv.Itoa(a.i) + "-" + strconv.Itoa(a.j)
}

// Rules records which optional constraint families are part of a built
// model.
type Rules struct {
	// Link ties allocations to activated optional sites (x <= y).
	Link bool
	// Capacity bounds the population served by each site.
	Capacity bool
	// Budget bounds the activation cost of optional sites.
	Budget bool
	// ExemptFixed drops the distance cap for fixed sites.
	ExemptFixed bool
}

// Problem is a built model together with the data needed to decode its
// solution.
type Problem struct {
	Instance    *facility.Instance
	Model       mip.Model
	Distances   [][]float64
	Weights     []float64
	DistanceCap float64
	Rules       Rules

	x model.MultiMap[mip.Bool, arc]
	y model.MultiMap[mip.Bool, facility.OptionalSite]
}

// X is the allocation variable of locality i and site j.
func (p *Problem) X(i, j int) mip.Bool { return p.x.Get(arc{i: i, j: j}) }

// Y is the activation variable of an optional site.
func (p *Problem) Y(s facility.OptionalSite) mip.Bool { return p.y.Get(s) }

// CapApplies reports whether allocations to site are bound by the distance
// cap.
func (p *Problem) CapApplies(site facility.Site) bool {
	if _, fixed := site.(facility.FixedSite); fixed && p.Rules.ExemptFixed {
		return false
	}
	return true
}

// Stats is the size of a built model.
type Stats struct {
	Variables   int
	Constraints int
}

// Stats returns the model size.
func (p *Problem) Stats() Stats {
	return Stats{Variables: len(p.Model.Vars()), Constraints: len(p.Model.Constraints())}
}

// Build assembles variables, objective and constraints for the instance's
// variant. d[i][j] is the distance from locality i to site j and w[i] the
// locality weight.
func Build(ctx context.Context, in *facility.Instance, d [][]float64, w []float64) (*Problem, error) {
	if err := check(in, d, w); err != nil {
		return nil, err
	}
	log := logr.FromContextOrDiscard(ctx)

	feat := in.Features()
	cfg := in.Config
	optional := in.OptionalSites()
	fixedCount := len(in.Sites) - len(optional)

	// We start by creating a MIP model.
	m := mip.NewModel()
	p := &Problem{
		Instance:    in,
		Model:       m,
		Distances:   d,
		Weights:     w,
		DistanceCap: cfg.Cap.Resolve(d),
		Rules: Rules{
			Link:        cfg.Mode == facility.MinimizeDistance,
			Capacity:    feat.CapacityApplies(cfg.Mode),
			Budget:      feat.Budget,
			ExemptFixed: cfg.Mode == facility.MinimizeCost && cfg.CostModeCap == facility.CapOptionalSites,
		},
	}

	arcs := make([]arc, 0, len(in.Localities)*len(in.Sites))
	for i := range in.Localities {
		for j := range in.Sites {
			arcs = append(arcs, arc{i: i, j: j})
		}
	}
	p.x = model.NewMultiMap(
		func(...arc) mip.Bool {
			return m.NewBool()
		}, arcs)
	p.y = model.NewMultiMap(
		func(...facility.OptionalSite) mip.Bool {
			return m.NewBool()
		}, optional)

	m.Objective().SetMinimize()
	switch cfg.Mode {
	case facility.MinimizeCost:
		for _, s := range optional {
			if c := s.Facility().Cost; c != 0 {
				m.Objective().NewTerm(c, p.Y(s))
			}
		}
	default:
		for i := range in.Localities {
			for j := range in.Sites {
				if c := d[i][j] * w[i]; c != 0 {
					m.Objective().NewTerm(c, p.X(i, j))
				}
			}
		}
	}

	/* every locality is allocated to exactly one site */
	for i := range in.Localities {
		assigned := m.NewConstraint(mip.Equal, 1.0)
		for j := range in.Sites {
			assigned.NewTerm(1.0, p.X(i, j))
		}
	}

	/* optional activations complete the k active sites */
	if len(optional) > 0 {
		count := m.NewConstraint(mip.Equal, float64(cfg.K-fixedCount))
		for _, s := range optional {
			count.NewTerm(1.0, p.Y(s))
		}
	}

	/* allocations only go to activated optional sites */
	if p.Rules.Link {
		for _, s := range optional {
			for i := range in.Localities {
				link := m.NewConstraint(mip.LessThanOrEqual, 0.0)
				link.NewTerm(1.0, p.X(i, s.Index()))
				link.NewTerm(-1.0, p.Y(s))
			}
		}
	}

	/* allocation distance stays within d_max. Rows with d <= d_max can never
	bind and are left out. */
	for i := range in.Localities {
		for j, s := range in.Sites {
			if !p.CapApplies(s) || d[i][j] <= p.DistanceCap {
				continue
			}
			near := m.NewConstraint(mip.LessThanOrEqual, p.DistanceCap)
			near.NewTerm(d[i][j], p.X(i, j))
		}
	}

	/* served population stays within each site's capacity */
	if p.Rules.Capacity {
		for j, s := range in.Sites {
			capacity := m.NewConstraint(mip.LessThanOrEqual, s.Facility().Capacity)
			for i, l := range in.Localities {
				if l.Population != 0 {
					capacity.NewTerm(l.Population, p.X(i, j))
				}
			}
		}
	}

	/* activation cost stays within the budget */
	if p.Rules.Budget && len(optional) > 0 {
		budget := m.NewConstraint(mip.LessThanOrEqual, cfg.Budget)
		for _, s := range optional {
			budget.NewTerm(s.Facility().Cost, p.Y(s))
		}
	}

	stats := p.Stats()
	log.V(1).Info("model built",
		"variant", in.Variant,
		"mode", cfg.Mode.String(),
		"localities", len(in.Localities),
		"fixedSites", fixedCount,
		"optionalSites", len(optional),
		"distanceCap", p.DistanceCap,
		"variables", stats.Variables,
		"constraints", stats.Constraints,
	)
	return p, nil
}

func check(in *facility.Instance, d [][]float64, w []float64) error {
	if in == nil {
		return facility.ModelErrorf("no instance")
	}
	l, f := len(in.Localities), len(in.Sites)
	if l == 0 {
		return facility.ModelErrorf("no localities")
	}
	if f == 0 {
		return facility.ModelErrorf("no sites after partitioning")
	}
	if len(d) != l {
		return facility.ModelErrorf("distance matrix has %d rows for %d localities", len(d), l)
	}
	for i, row := range d {
		if len(row) != f {
			return facility.ModelErrorf("distance row %d has %d columns for %d sites", i, len(row), f)
		}
	}
	if len(w) != l {
		return facility.ModelErrorf("%d weights for %d localities", len(w), l)
	}
	fixed := f - len(in.OptionalSites())
	if k := in.Config.K; k < fixed || k > f {
		return facility.ModelErrorf("k=%d outside [%d, %d]", k, fixed, f)
	}
	for j, s := range in.Sites {
		if s.Index() != j {
			return facility.ModelErrorf("site %q at position %d has index %d", s.ID(), j, s.Index())
		}
	}
	return nil
}
