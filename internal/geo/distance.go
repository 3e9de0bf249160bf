// Package geo computes locality to facility distances.
//
// Both metrics are expressed as nextmv measure.ByPoint implementations so they
// can be swapped freely. Points are (x, y) for the planar metric and
// (latitude, longitude) in degrees for the geographic one.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/nextmv-io/sdk/measure"
)

// Metric selects how distances are measured.
type Metric int

const (
	// Planar is the Euclidean distance on normalized plane coordinates.
	Planar Metric = iota
	// Geographic is the great-circle distance in kilometers.
	Geographic
)

// PlanarScale converts normalized-plane units into a real-world-like unit.
const PlanarScale = 1000.0

const (
	// nauticalMilesPerDegree is 60 minutes of arc with the statute mile
	// correction used by the historical model.
	nauticalMilesPerDegree = 60 * 1.1515
	kilometersPerMile      = 1.609344
)

func (m Metric) String() string {
	switch m {
	case Planar:
		return "planar"
	case Geographic:
		return "geografica"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric reads the document spelling of a metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "planar", "euclidiana":
		return Planar, nil
	case "geografica", "geographic", "haversine":
		return Geographic, nil
	}
	return 0, fmt.Errorf("unknown distance metric %q", s)
}

// DistanceComputationError reports a distance that could not be computed.
type DistanceComputationError struct {
	A, B measure.Point
	Err  error
}

func (e *DistanceComputationError) Error() string {
	return fmt.Sprintf("distance between %v and %v: %v", e.A, e.B, e.Err)
}

func (e *DistanceComputationError) Unwrap() error { return e.Err }

var (
	errDimension = errors.New("point must have exactly two coordinates")
	errNotFinite = errors.New("coordinate is not a finite number")
	errLatitude  = errors.New("latitude outside [-90, 90]")
	errLongitude = errors.New("longitude outside [-180, 180]")
)

// Calculator measures distances with one metric.
type Calculator struct {
	metric Metric
	cost   measure.ByPoint
}

// NewCalculator returns a calculator for metric. The scale only applies to the
// planar metric; a non-positive scale means 1.
func NewCalculator(metric Metric, scale float64) Calculator {
	if scale <= 0 {
		scale = 1
	}
	c := Calculator{metric: metric}
	switch metric {
	case Geographic:
		c.cost = sphericalCosine{}
	default:
		c.cost = measure.ScaleByPoint(measure.EuclideanByPoint(), scale)
	}
	return c
}

// Metric returns the metric the calculator was built with.
func (c Calculator) Metric() Metric { return c.metric }

// Distance returns the non-negative distance between a and b.
func (c Calculator) Distance(a, b measure.Point) (float64, error) {
	if err := c.check(a); err != nil {
		return 0, &DistanceComputationError{A: a, B: b, Err: err}
	}
	if err := c.check(b); err != nil {
		return 0, &DistanceComputationError{A: a, B: b, Err: err}
	}
	d := c.cost.Cost(a, b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, &DistanceComputationError{A: a, B: b, Err: errNotFinite}
	}
	return d, nil
}

// Matrix returns d[i][j] = Distance(from[i], to[j]).
func (c Calculator) Matrix(from, to []measure.Point) ([][]float64, error) {
	d := make([][]float64, len(from))
	for i, a := range from {
		d[i] = make([]float64, len(to))
		for j, b := range to {
			v, err := c.Distance(a, b)
			if err != nil {
				return nil, err
			}
			d[i][j] = v
		}
	}
	return d, nil
}

func (c Calculator) check(p measure.Point) error {
	if len(p) != 2 {
		return errDimension
	}
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errNotFinite
		}
	}
	if c.metric == Geographic {
		if p[0] < -90 || p[0] > 90 {
			return errLatitude
		}
		if p[1] < -180 || p[1] > 180 {
			return errLongitude
		}
	}
	return nil
}

// sphericalCosine implements measure.ByPoint with the spherical law of
// cosines. Points are (lat, lon) in degrees and the result is kilometers
// rounded to two decimals.
type sphericalCosine struct{}

func (sphericalCosine) Cost(from, to measure.Point) float64 {
	lat1, lon1 := from[0]*math.Pi/180, from[1]*math.Pi/180
	lat2, lon2 := to[0]*math.Pi/180, to[1]*math.Pi/180

	cos := math.Sin(lat1)*math.Sin(lat2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon1-lon2)
	// acos is undefined just outside [-1, 1], which rounding reaches for
	// identical or antipodal points.
	cos = math.Max(-1, math.Min(1, cos))

	degrees := math.Acos(cos) * 180 / math.Pi
	km := degrees * nauticalMilesPerDegree * kilometersPerMile
	return math.Round(km*100) / 100
}
