// Package decode turns raw solver values into allocation and activation
// records and checks them against the model's invariants.
package decode

import (
	"errors"
	"fmt"
	"math"
	"time"

	"example.com/your_project/facility-location/internal/facility"
	"example.com/your_project/facility-location/internal/formulation"
	"example.com/your_project/facility-location/internal/solver"
)

// Tolerance is how far from 1 a binary value may drift and still read as
// true. It absorbs solver floating-point slack and is not configurable.
const Tolerance = 0.1

// IsSet reports whether a binary variable value reads as true.
func IsSet(v float64) bool {
	return math.Abs(v-1) <= Tolerance
}

// Allocation is one locality served by one site.
type Allocation struct {
	Locality      string  `json:"localidade"`
	LocalityIndex int     `json:"indice_localidade"`
	Facility      string  `json:"centro"`
	FacilityIndex int     `json:"indice_centro"`
	Fixed         bool    `json:"fixo"`
	Distance      float64 `json:"distancia"`
}

// Activated is an optional site opened by the solution. Index is the
// position in the combined candidate list.
type Activated struct {
	Index      int                 `json:"indice"`
	ID         string              `json:"codigo"`
	Coordinate facility.Coordinate `json:"coordenada"`
	Cost       float64             `json:"custo"`
}

// Fixed is a pre-existing site, passed through unchanged.
type Fixed struct {
	Index      int                 `json:"indice"`
	ID         string              `json:"codigo_cnes"`
	Coordinate facility.Coordinate `json:"centro"`
}

// Solution is the decoded outcome of one solve.
type Solution struct {
	Status      solver.Status
	Objective   float64
	RunTime     time.Duration
	Allocations []Allocation
	Activated   []Activated
	Fixed       []Fixed
}

// Decode reads every y and x value of p from res. Records are ordered by
// ascending index. Only an effective Optimal status carries allocations.
func Decode(p *formulation.Problem, res solver.Result) Solution {
	in := p.Instance
	sol := Solution{
		Status:  res.Effective(),
		RunTime: res.RunTime,
	}
	for _, s := range in.FixedSites() {
		f := s.Facility()
		sol.Fixed = append(sol.Fixed, Fixed{Index: s.Index(), ID: f.ID, Coordinate: f.Coordinate})
	}
	if sol.Status != solver.Optimal || !res.Incumbent {
		return sol
	}
	sol.Objective = res.Objective

	for _, s := range in.OptionalSites() {
		if !IsSet(res.Value(p.Y(s))) {
			continue
		}
		f := s.Facility()
		sol.Activated = append(sol.Activated, Activated{
			Index:      s.Index(),
			ID:         f.ID,
			Coordinate: f.Coordinate,
			Cost:       f.Cost,
		})
	}

	for i, l := range in.Localities {
		for j, s := range in.Sites {
			if !IsSet(res.Value(p.X(i, j))) {
				continue
			}
			_, fixed := s.(facility.FixedSite)
			sol.Allocations = append(sol.Allocations, Allocation{
				Locality:      l.ID,
				LocalityIndex: i,
				Facility:      s.ID(),
				FacilityIndex: j,
				Fixed:         fixed,
				Distance:      p.Distances[i][j],
			})
		}
	}
	return sol
}

// Objective recomputes the objective from the decoded records.
func Objective(p *formulation.Problem, sol Solution) float64 {
	total := 0.0
	if p.Instance.Config.Mode == facility.MinimizeCost {
		for _, a := range sol.Activated {
			total += a.Cost
		}
		return total
	}
	for _, a := range sol.Allocations {
		total += a.Distance * p.Weights[a.LocalityIndex]
	}
	return total
}

const slack = 1e-6

// Verify checks an optimal solution against every invariant the model
// encodes. It returns nil for non-optimal solutions.
func Verify(p *formulation.Problem, sol Solution) error {
	if sol.Status != solver.Optimal {
		return nil
	}
	in := p.Instance
	var errs []error

	served := make([]int, len(in.Localities))
	for _, a := range sol.Allocations {
		served[a.LocalityIndex]++
	}
	for i, n := range served {
		if n != 1 {
			errs = append(errs, fmt.Errorf("locality %q allocated %d times", in.Localities[i].ID, n))
		}
	}

	fixedCount := len(in.FixedSites())
	if want := in.Config.K - fixedCount; len(sol.Activated) != want {
		errs = append(errs, fmt.Errorf("%d optional sites activated, want %d", len(sol.Activated), want))
	}
	if len(sol.Fixed) != fixedCount {
		errs = append(errs, fmt.Errorf("%d fixed sites reported, want %d", len(sol.Fixed), fixedCount))
	}

	active := make(map[int]bool, len(sol.Activated))
	for _, a := range sol.Activated {
		if _, ok := in.Sites[a.Index].(facility.OptionalSite); !ok {
			errs = append(errs, fmt.Errorf("site %q activated but is not optional", a.ID))
		}
		active[a.Index] = true
	}

	load := make([]float64, len(in.Sites))
	for _, a := range sol.Allocations {
		site := in.Sites[a.FacilityIndex]
		if p.Rules.Link && !a.Fixed && !active[a.FacilityIndex] {
			errs = append(errs, fmt.Errorf("locality %q allocated to inactive site %q", a.Locality, a.Facility))
		}
		if p.CapApplies(site) && a.Distance > p.DistanceCap+slack {
			errs = append(errs, fmt.Errorf("locality %q allocated %.2f away from %q, cap %.2f", a.Locality, a.Distance, a.Facility, p.DistanceCap))
		}
		load[a.FacilityIndex] += in.Localities[a.LocalityIndex].Population
	}

	if p.Rules.Capacity {
		for j, s := range in.Sites {
			if c := s.Facility().Capacity; load[j] > c+slack {
				errs = append(errs, fmt.Errorf("site %q serves %.0f people, capacity %.0f", s.ID(), load[j], c))
			}
		}
	}

	if p.Rules.Budget {
		spent := 0.0
		for _, a := range sol.Activated {
			spent += a.Cost
		}
		if spent > in.Config.Budget+slack {
			errs = append(errs, fmt.Errorf("activation cost %.2f exceeds budget %.2f", spent, in.Config.Budget))
		}
	}
	return errors.Join(errs...)
}
