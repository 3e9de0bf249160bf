// Package facility holds the siting domain: localities, candidate facilities,
// the formulation variants and the validated problem instance.
package facility

import (
	"fmt"

	"github.com/nextmv-io/sdk/measure"
)

// Locality is a demand point that must be served by exactly one facility.
type Locality struct {
	ID         string
	Coordinate Coordinate
	Population float64
	Metrics    []float64
}

// Point returns the coordinate as a measure point.
func (l Locality) Point() measure.Point { return l.Coordinate.Point() }

// Facility is a site able to serve localities. Cost only matters when the
// facility is not fixed.
type Facility struct {
	ID         string
	Coordinate Coordinate
	Fixed      bool
	Cost       float64
	Capacity   float64
}

// Site is a facility placed in the candidate set. It is either a FixedSite or
// an OptionalSite; callers distinguish them with a type switch.
type Site interface {
	// ID is the facility identifier.
	ID() string
	// Index is the position in the combined candidate list, fixed sites
	// first.
	Index() int
	Facility() Facility
	site()
}

// FixedSite is a pre-existing facility. It is always active and has no
// activation variable.
type FixedSite struct {
	facility Facility
	index    int
}

func (s FixedSite) ID() string         { return s.facility.ID }
func (s FixedSite) Index() int         { return s.index }
func (s FixedSite) Facility() Facility { return s.facility }
func (FixedSite) site()                {}

// OptionalSite is a candidate facility that may be activated.
type OptionalSite struct {
	facility Facility
	index    int
	slot     int
}

func (s OptionalSite) ID() string         { return s.facility.ID }
func (s OptionalSite) Index() int         { return s.index }
func (s OptionalSite) Facility() Facility { return s.facility }

// Slot is the position among optional sites only.
func (s OptionalSite) Slot() int { return s.slot }
func (OptionalSite) site()      {}

// Mode is the objective selector.
type Mode int

const (
	// MinimizeDistance minimizes the weighted allocation distance.
	MinimizeDistance Mode = 1
	// MinimizeCost minimizes the activation cost of optional facilities.
	MinimizeCost Mode = 2
)

func (m Mode) String() string {
	switch m {
	case MinimizeDistance:
		return "min_dist"
	case MinimizeCost:
		return "min_custo"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// CapKind names how the maximum allocation distance is obtained.
type CapKind int

const (
	// CapFixed uses a policy or supplied constant.
	CapFixed CapKind = iota
	// CapDerived uses the largest per-locality nearest-facility distance.
	CapDerived
)

func (k CapKind) String() string {
	if k == CapDerived {
		return "derivada"
	}
	return "fixa"
}

// CapStrategy resolves d_max.
type CapStrategy struct {
	Kind  CapKind
	Value float64
}

// FixedCap is a constant d_max.
func FixedCap(v float64) CapStrategy { return CapStrategy{Kind: CapFixed, Value: v} }

// DerivedCap computes d_max from the distance matrix.
func DerivedCap() CapStrategy { return CapStrategy{Kind: CapDerived} }

// Resolve returns d_max for the distance matrix d.
func (s CapStrategy) Resolve(d [][]float64) float64 {
	if s.Kind == CapFixed {
		return s.Value
	}
	return DerivedDistanceCap(d)
}

// CostModeCap decides whether allocations to fixed sites keep the distance cap
// when minimizing cost.
type CostModeCap int

const (
	// CapAllSites applies the distance cap to every site in both modes.
	CapAllSites CostModeCap = iota
	// CapOptionalSites exempts fixed sites from the cap in cost mode.
	CapOptionalSites
)

// ParseCostModeCap reads the document spelling.
func ParseCostModeCap(s string) (CostModeCap, error) {
	switch s {
	case "todas", "all":
		return CapAllSites, nil
	case "opcionais", "optional":
		return CapOptionalSites, nil
	}
	return 0, fmt.Errorf("unknown cost mode distance policy %q", s)
}

func (c CostModeCap) String() string {
	if c == CapOptionalSites {
		return "opcionais"
	}
	return "todas"
}

// ProblemConfig holds the solver-facing parameters of one instance.
type ProblemConfig struct {
	Mode        Mode
	K           int
	Cap         CapStrategy
	Budget      float64
	CostModeCap CostModeCap
}
