package facility

import (
	"fmt"

	"github.com/nextmv-io/sdk/measure"

	"example.com/your_project/facility-location/internal/geo"
)

// Policy holds the defaults applied when a document leaves a limit out.
type Policy struct {
	// Capacity is the population a facility serves when the document does
	// not say.
	Capacity float64
	// Budget is c_max when the document has no "orcamento".
	Budget float64
	// DistanceCap is the fixed d_max on unscaled distances.
	DistanceCap float64
	// ScaledDistanceCap is the fixed d_max on pre-scaled planar distances.
	ScaledDistanceCap float64
	CostModeCap       CostModeCap
}

// DefaultPolicy returns the constants used by the production runs.
func DefaultPolicy() Policy {
	return Policy{
		Capacity:          12000,
		Budget:            100000,
		DistanceCap:       10,
		ScaledDistanceCap: 100,
		CostModeCap:       CapAllSites,
	}
}

// Instance is a validated, immutable problem ready for distance computation
// and model building.
type Instance struct {
	Variant     Variant
	Metric      geo.Metric
	PlanarScale float64
	Localities  []Locality
	// Sites holds fixed sites first, then optional ones, so Sites[j].Index()
	// == j.
	Sites       []Site
	Lambda      []float64
	Invert      []int
	MetricNames []string
	Config      ProblemConfig
	// InversionIgnored is set when the document carried inversion flags for a
	// variant that does not support them.
	InversionIgnored bool
}

// Features returns the features of the instance's variant.
func (in *Instance) Features() Features { return in.Variant.Features() }

// FixedSites returns the fixed sites in index order.
func (in *Instance) FixedSites() []FixedSite {
	var out []FixedSite
	for _, s := range in.Sites {
		if f, ok := s.(FixedSite); ok {
			out = append(out, f)
		}
	}
	return out
}

// OptionalSites returns the optional sites in slot order.
func (in *Instance) OptionalSites() []OptionalSite {
	var out []OptionalSite
	for _, s := range in.Sites {
		if o, ok := s.(OptionalSite); ok {
			out = append(out, o)
		}
	}
	return out
}

// LocalityPoints returns the locality coordinates in order.
func (in *Instance) LocalityPoints() []measure.Point {
	out := make([]measure.Point, len(in.Localities))
	for i, l := range in.Localities {
		out[i] = l.Point()
	}
	return out
}

// SitePoints returns the site coordinates in index order.
func (in *Instance) SitePoints() []measure.Point {
	out := make([]measure.Point, len(in.Sites))
	for j, s := range in.Sites {
		out[j] = s.Facility().Coordinate.Point()
	}
	return out
}

// Metrics returns the locality metric rows.
func (in *Instance) Metrics() [][]float64 {
	out := make([][]float64, len(in.Localities))
	for i, l := range in.Localities {
		out[i] = l.Metrics
	}
	return out
}

// NewInstance validates doc and resolves every default from policy. All
// failures are InputValidationErrors.
func NewInstance(doc Document, policy Policy) (*Instance, error) {
	variant, err := ParseVariant(doc.Variant)
	if err != nil {
		return nil, invalid("variante", "%v", err)
	}
	feat := variant.Features()
	in := &Instance{
		Variant:     variant,
		PlanarScale: feat.PlanarScale,
		MetricNames: doc.MetricNames,
	}

	if in.Metric, err = resolveMetric(doc.DistanceMetric, variant); err != nil {
		return nil, err
	}
	if in.Config.Mode, err = resolveMode(doc.ProblemType, feat); err != nil {
		return nil, err
	}
	if in.Localities, err = buildLocalities(doc.Localities); err != nil {
		return nil, err
	}
	if in.Sites, err = buildSites(doc.Facilities, feat, policy); err != nil {
		return nil, err
	}

	width := len(in.Localities[0].Metrics)
	if doc.Weights == nil {
		return nil, invalid("pesos", "weights not provided")
	}
	if len(doc.Weights) != width {
		return nil, invalid("pesos", "%d weights for %d metrics", len(doc.Weights), width)
	}
	in.Lambda = append([]float64(nil), doc.Weights...)

	if feat.Inversion && doc.Inversion == nil {
		return nil, invalid("proporcao_inversa", "inversion flags not provided")
	}
	// Flags are checked even where the variant ignores them.
	if doc.Inversion != nil {
		if len(doc.Inversion) != width {
			return nil, invalid("proporcao_inversa", "%d flags for %d metrics", len(doc.Inversion), width)
		}
		for j, f := range doc.Inversion {
			if f != 0 && f != 1 {
				return nil, invalid("proporcao_inversa", "flag %d is %d, want 0 or 1", j, f)
			}
		}
	}
	if feat.Inversion {
		in.Invert = append([]int(nil), doc.Inversion...)
	} else {
		for _, f := range doc.Inversion {
			if f != 0 {
				in.InversionIgnored = true
				break
			}
		}
	}
	if doc.MetricNames != nil && len(doc.MetricNames) != width {
		return nil, invalid("nome_metricas", "%d names for %d metrics", len(doc.MetricNames), width)
	}

	if doc.K == nil {
		return nil, invalid("num_centros_desejado", "desired facility count not provided")
	}
	k := *doc.K
	fixed := len(in.FixedSites())
	if k < fixed {
		return nil, invalid("num_centros_desejado", "k=%d is less than the %d existing facilities", k, fixed)
	}
	if k > len(in.Sites) {
		return nil, invalid("num_centros_desejado", "k=%d exceeds the %d available facilities", k, len(in.Sites))
	}
	in.Config.K = k

	if in.Config.Cap, err = resolveCap(doc, feat, policy); err != nil {
		return nil, err
	}

	in.Config.Budget = policy.Budget
	if doc.Budget != nil {
		in.Config.Budget = *doc.Budget
	}
	if in.Config.Budget < 0 {
		return nil, invalid("orcamento", "budget %v is negative", in.Config.Budget)
	}

	in.Config.CostModeCap = policy.CostModeCap
	if doc.CostModeCap != "" {
		if in.Config.CostModeCap, err = ParseCostModeCap(doc.CostModeCap); err != nil {
			return nil, invalid("restricao_distancia_custo", "%v", err)
		}
	}
	return in, nil
}

func resolveMetric(s string, v Variant) (geo.Metric, error) {
	if s == "" {
		if v == VariantA || v == VariantB {
			return geo.Planar, nil
		}
		return geo.Geographic, nil
	}
	m, err := geo.ParseMetric(s)
	if err != nil {
		return 0, invalid("metrica_distancia", "%v", err)
	}
	return m, nil
}

func resolveMode(t int, feat Features) (Mode, error) {
	switch Mode(t) {
	case MinimizeDistance:
		return MinimizeDistance, nil
	case MinimizeCost:
		if !feat.CostMode {
			return 0, invalid("tipo_problema", "cost minimization needs fixed and optional facilities (variant C or D)")
		}
		return MinimizeCost, nil
	}
	if t == 0 && !feat.CostMode {
		return MinimizeDistance, nil
	}
	return 0, invalid("tipo_problema", "must be 1 or 2, got %d", t)
}

func buildLocalities(docs []LocalityDoc) ([]Locality, error) {
	var out []Locality
	seen := map[string]bool{}
	width := -1
	for i, d := range docs {
		if d.Pinned() {
			continue
		}
		id := string(d.Code)
		if id == "" {
			id = fmt.Sprintf("L%d", i)
		}
		if seen[id] {
			return nil, invalid("localidades", "duplicate locality code %q", id)
		}
		seen[id] = true
		if width == -1 {
			width = len(d.Metrics)
		}
		if len(d.Metrics) != width {
			return nil, invalid("localidades", "locality %q has %d metrics, want %d", id, len(d.Metrics), width)
		}
		if d.Population < 0 {
			return nil, invalid("localidades", "locality %q has negative population", id)
		}
		out = append(out, Locality{
			ID:         id,
			Coordinate: d.Coordinate,
			Population: d.Population,
			Metrics:    append([]float64(nil), d.Metrics...),
		})
	}
	if len(out) == 0 {
		return nil, invalid("localidades", "no localities to serve")
	}
	return out, nil
}

func buildSites(docs []FacilityDoc, feat Features, policy Policy) ([]Site, error) {
	if len(docs) == 0 {
		return nil, invalid("facilities", "no candidate facilities")
	}
	var fixed, optional []Facility
	seen := map[string]bool{}
	for i, d := range docs {
		id := string(d.CNES)
		if id == "" {
			id = string(d.Code)
		}
		if id == "" {
			id = fmt.Sprintf("F%d", i)
		}
		if seen[id] {
			return nil, invalid("facilities", "duplicate facility code %q", id)
		}
		seen[id] = true
		f := Facility{
			ID:         id,
			Coordinate: d.Coordinate,
			Fixed:      d.Fixed && feat.SplitFixed,
			Cost:       d.Cost,
			Capacity:   policy.Capacity,
		}
		if d.Capacity != nil {
			f.Capacity = *d.Capacity
		}
		if f.Cost < 0 {
			return nil, invalid("facilities", "facility %q has negative cost", id)
		}
		if f.Capacity < 0 {
			return nil, invalid("facilities", "facility %q has negative capacity", id)
		}
		if f.Fixed {
			fixed = append(fixed, f)
		} else {
			optional = append(optional, f)
		}
	}

	sites := make([]Site, 0, len(docs))
	for _, f := range fixed {
		sites = append(sites, FixedSite{facility: f, index: len(sites)})
	}
	for slot, f := range optional {
		sites = append(sites, OptionalSite{facility: f, index: len(sites), slot: slot})
	}
	return sites, nil
}

func resolveCap(doc Document, feat Features, policy Policy) (CapStrategy, error) {
	if doc.DistanceCap != nil && *doc.DistanceCap < 0 {
		return CapStrategy{}, invalid("dist_max", "distance cap %v is negative", *doc.DistanceCap)
	}
	kind := feat.DefaultCap
	switch doc.CapStrategy {
	case "":
		if doc.DistanceCap != nil {
			kind = CapFixed
		}
	case "fixa", "fixed":
		kind = CapFixed
	case "derivada", "derived":
		kind = CapDerived
	default:
		return CapStrategy{}, invalid("estrategia_dist_max", "unknown strategy %q", doc.CapStrategy)
	}

	if kind == CapDerived {
		return DerivedCap(), nil
	}
	if doc.DistanceCap != nil {
		return FixedCap(*doc.DistanceCap), nil
	}
	if feat.ScaledCap {
		return FixedCap(policy.ScaledDistanceCap), nil
	}
	return FixedCap(policy.DistanceCap), nil
}
