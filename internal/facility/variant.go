package facility

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Variant selects one formulation of the siting model.
type Variant string

const (
	// VariantA picks k sites from one undifferentiated pool, minimizing
	// weighted distance.
	VariantA Variant = "A"
	// VariantB is VariantA on pre-scaled distances with a policy d_max.
	VariantB Variant = "B"
	// VariantC splits fixed and optional sites and adds the cost objective
	// and the budget.
	VariantC Variant = "C"
	// VariantD is VariantC with capacities, metric inversion and a derived
	// d_max.
	VariantD Variant = "D"
)

// CapacityRule tells when per-site capacity rows are added.
type CapacityRule int

const (
	// CapacityNever leaves capacities out of the model.
	CapacityNever CapacityRule = iota
	// CapacityCostMode adds capacity rows only when minimizing cost.
	CapacityCostMode
	// CapacityAlways adds capacity rows in both modes.
	CapacityAlways
)

// Features lists what a variant adds to the shared formulation.
type Features struct {
	// SplitFixed keeps fixed sites out of the activation variables. Without
	// it every facility is an optional candidate.
	SplitFixed bool
	CostMode   bool
	Budget     bool
	Capacity   CapacityRule
	Inversion  bool
	// DefaultCap is used when the document gives neither a cap nor a
	// strategy.
	DefaultCap CapKind
	// ScaledCap selects the scaled-distance policy constant for fixed caps.
	ScaledCap   bool
	PlanarScale float64
}

var variantFeatures = map[Variant]Features{
	VariantA: {DefaultCap: CapDerived, PlanarScale: 1},
	VariantB: {DefaultCap: CapFixed, ScaledCap: true, PlanarScale: 1000},
	VariantC: {SplitFixed: true, CostMode: true, Budget: true, Capacity: CapacityCostMode, DefaultCap: CapFixed, PlanarScale: 1000},
	VariantD: {SplitFixed: true, CostMode: true, Budget: true, Capacity: CapacityAlways, Inversion: true, DefaultCap: CapDerived, PlanarScale: 1000},
}

// ParseVariant reads a variant name; the empty string selects VariantD.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantD, nil
	}
	v := Variant(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := variantFeatures[v]; !ok {
		return "", fmt.Errorf("unknown variant %q", s)
	}
	return v, nil
}

// Features returns the variant's feature set.
func (v Variant) Features() Features { return variantFeatures[v] }

// CapacityApplies reports whether capacity rows are part of the model in
// mode m.
func (f Features) CapacityApplies(m Mode) bool {
	switch f.Capacity {
	case CapacityAlways:
		return true
	case CapacityCostMode:
		return m == MinimizeCost
	}
	return false
}

// DerivedDistanceCap is the maximum over localities of the distance to their
// nearest site, so every locality keeps at least one site in range.
func DerivedDistanceCap(d [][]float64) float64 {
	nearest := make([]float64, 0, len(d))
	for _, row := range d {
		if len(row) == 0 {
			continue
		}
		nearest = append(nearest, floats.Min(row))
	}
	if len(nearest) == 0 {
		return 0
	}
	return floats.Max(nearest)
}
