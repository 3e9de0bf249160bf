package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/nextmv-io/sdk/measure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func haversineKm(a, b measure.Point) float64 {
	const r = 6371.0
	dLat := (b[0] - a[0]) * math.Pi / 180
	dLon := (b[1] - a[1]) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a[0]*math.Pi/180)*math.Cos(b[0]*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func TestPlanarDistance(t *testing.T) {
	c := NewCalculator(Planar, PlanarScale)
	d, err := c.Distance(measure.Point{0, 0}, measure.Point{0.003, 0.004})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	unit := NewCalculator(Planar, 0)
	d, err = unit.Distance(measure.Point{1, 1}, measure.Point{4, 5})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][2]measure.Point{
		{{-8.05, -34.88}, {-9.66, -35.73}},
		{{-8.89, -36.49}, {-8.90, -36.48}},
		{{0, 0}, {0, 179.9}},
		{{89.5, 10}, {-89.5, -170}},
	}
	for _, metric := range []Metric{Planar, Geographic} {
		c := NewCalculator(metric, PlanarScale)
		for _, p := range pairs {
			ab, err := c.Distance(p[0], p[1])
			require.NoError(t, err)
			ba, err := c.Distance(p[1], p[0])
			require.NoError(t, err)
			assert.Equal(t, ab, ba, "%s %v", metric, p)
			assert.GreaterOrEqual(t, ab, 0.0)
		}
	}
}

func TestGeographicBoundaries(t *testing.T) {
	c := NewCalculator(Geographic, 0)

	tests := []struct {
		name string
		a, b measure.Point
	}{
		{name: "identical", a: measure.Point{-8.058260309612239, -34.88203670720981}, b: measure.Point{-8.058260309612239, -34.88203670720981}},
		{name: "identical near pole", a: measure.Point{89.99999999, 45}, b: measure.Point{89.99999999, 45}},
		{name: "antipodal", a: measure.Point{10, 20}, b: measure.Point{-10, -160}},
		{name: "poles", a: measure.Point{90, 0}, b: measure.Point{-90, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Distance(tt.a, tt.b)
			require.NoError(t, err)
			assert.False(t, math.IsNaN(d))
			if tt.a[0] == tt.b[0] && tt.a[1] == tt.b[1] {
				assert.Zero(t, d)
			}
		})
	}
}

func TestGeographicMatchesHaversine(t *testing.T) {
	c := NewCalculator(Geographic, 0)
	recife := measure.Point{-8.058260309612239, -34.88203670720981}
	maceio := measure.Point{-9.665517080399974, -35.730751728241714}

	d, err := c.Distance(recife, maceio)
	require.NoError(t, err)
	want := haversineKm(recife, maceio)
	assert.InEpsilon(t, want, d, 1e-3)
	assert.Equal(t, math.Round(d*100)/100, d, "rounded to two decimals")
}

func TestDistanceErrors(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		a, b   measure.Point
		want   error
	}{
		{name: "short point", metric: Planar, a: measure.Point{1}, b: measure.Point{0, 0}, want: errDimension},
		{name: "long point", metric: Geographic, a: measure.Point{0, 0}, b: measure.Point{0, 0, 0}, want: errDimension},
		{name: "nan", metric: Planar, a: measure.Point{math.NaN(), 0}, b: measure.Point{0, 0}, want: errNotFinite},
		{name: "latitude", metric: Geographic, a: measure.Point{91, 0}, b: measure.Point{0, 0}, want: errLatitude},
		{name: "longitude", metric: Geographic, a: measure.Point{0, 0}, b: measure.Point{0, -181}, want: errLongitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.metric, 1).Distance(tt.a, tt.b)
			var dErr *DistanceComputationError
			require.True(t, errors.As(err, &dErr))
			assert.Equal(t, tt.a, dErr.A)
			assert.Equal(t, tt.b, dErr.B)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMatrix(t *testing.T) {
	c := NewCalculator(Planar, 1)
	d, err := c.Matrix(
		[]measure.Point{{0, 0}, {0, 2}},
		[]measure.Point{{0, 1}, {3, 0}, {0, 2}},
	)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 3, 2}, {1, math.Sqrt(13), 0}}, d)

	_, err = c.Matrix([]measure.Point{{0, 0}}, []measure.Point{{1}})
	require.Error(t, err)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("geografica")
	require.NoError(t, err)
	assert.Equal(t, Geographic, m)
	m, err = ParseMetric("planar")
	require.NoError(t, err)
	assert.Equal(t, Planar, m)
	_, err = ParseMetric("manhattan")
	assert.Error(t, err)
}
