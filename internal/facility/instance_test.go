package facility

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/your_project/facility-location/internal/geo"
)

func ptr[T any](v T) *T { return &v }

func baseDocument() Document {
	return Document{
		Localities: []LocalityDoc{
			{Code: "260410", Coordinate: Coordinate{-8.89, -36.49}, Population: 300, Metrics: []float64{0.5, 2}},
			{Code: "260411", Coordinate: Coordinate{-8.88, -36.48}, Population: 200, Metrics: []float64{0.2, 4}},
		},
		Facilities: []FacilityDoc{
			{Code: "n1", Coordinate: Coordinate{-8.885, -36.485}, Cost: 500},
			{CNES: "2345", Coordinate: Coordinate{-8.89, -36.49}, Fixed: true},
			{Code: "n2", Coordinate: Coordinate{-8.87, -36.47}, Cost: 800, Capacity: ptr(900.0)},
		},
		Weights:     []float64{0.9, 0.1},
		Inversion:   []int{0, 1},
		ProblemType: 1,
		K:           ptr(2),
	}
}

func TestNewInstancePartitionsSites(t *testing.T) {
	in, err := NewInstance(baseDocument(), DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, VariantD, in.Variant)
	assert.Equal(t, geo.Geographic, in.Metric)
	require.Len(t, in.Sites, 3)

	fixed, ok := in.Sites[0].(FixedSite)
	require.True(t, ok)
	assert.Equal(t, "2345", fixed.ID())
	assert.Equal(t, 0, fixed.Index())

	opt := in.OptionalSites()
	require.Len(t, opt, 2)
	assert.Equal(t, []string{"n1", "n2"}, []string{opt[0].ID(), opt[1].ID()})
	assert.Equal(t, []int{1, 2}, []int{opt[0].Index(), opt[1].Index()})
	assert.Equal(t, []int{0, 1}, []int{opt[0].Slot(), opt[1].Slot()})
	assert.Equal(t, 12000.0, opt[0].Facility().Capacity)
	assert.Equal(t, 900.0, opt[1].Facility().Capacity)

	for j, s := range in.Sites {
		assert.Equal(t, j, s.Index())
	}
	assert.Equal(t, DerivedCap(), in.Config.Cap)
	assert.Equal(t, 100000.0, in.Config.Budget)
	assert.Equal(t, []int{0, 1}, in.Invert)
}

func TestNewInstanceSinglePoolVariants(t *testing.T) {
	doc := baseDocument()
	doc.Variant = "a"
	doc.K = ptr(1)
	in, err := NewInstance(doc, DefaultPolicy())
	require.NoError(t, err)

	assert.Empty(t, in.FixedSites())
	assert.Len(t, in.OptionalSites(), 3)
	assert.Equal(t, geo.Planar, in.Metric)
	assert.Equal(t, 1.0, in.PlanarScale)
	assert.Nil(t, in.Invert)
	assert.True(t, in.InversionIgnored)

	doc.Variant = "B"
	in, err = NewInstance(doc, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, FixedCap(100), in.Config.Cap)
	assert.Equal(t, 1000.0, in.PlanarScale)
}

func TestNewInstanceSkipsPinnedLocalities(t *testing.T) {
	doc := baseDocument()
	doc.Localities = append(doc.Localities, LocalityDoc{
		Code: "pinned", Coordinate: Coordinate{-8.8, -36.4}, Metrics: []float64{1}, Fixed: []byte("true"),
	})
	in, err := NewInstance(doc, DefaultPolicy())
	require.NoError(t, err)
	assert.Len(t, in.Localities, 2)
}

func TestNewInstanceCapStrategies(t *testing.T) {
	tests := []struct {
		name     string
		variant  string
		cap      *float64
		strategy string
		want     CapStrategy
	}{
		{name: "D default derived", variant: "D", want: DerivedCap()},
		{name: "D supplied", variant: "D", cap: ptr(7.5), want: FixedCap(7.5)},
		{name: "C default policy", variant: "C", want: FixedCap(10)},
		{name: "C forced derived", variant: "C", cap: ptr(3.0), strategy: "derivada", want: DerivedCap()},
		{name: "B policy", variant: "B", strategy: "fixa", want: FixedCap(100)},
		{name: "A default derived", variant: "A", want: DerivedCap()},
		{name: "A fixed without value", variant: "A", strategy: "fixa", want: FixedCap(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := baseDocument()
			doc.Variant = tt.variant
			doc.DistanceCap = tt.cap
			doc.CapStrategy = tt.strategy
			in, err := NewInstance(doc, DefaultPolicy())
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, in.Config.Cap); diff != "" {
				t.Errorf("cap strategy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewInstanceRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		field  string
	}{
		{name: "k below fixed", mutate: func(d *Document) { d.K = ptr(0) }, field: "num_centros_desejado"},
		{name: "k above total", mutate: func(d *Document) { d.K = ptr(4) }, field: "num_centros_desejado"},
		{name: "k missing", mutate: func(d *Document) { d.K = nil }, field: "num_centros_desejado"},
		{name: "no localities", mutate: func(d *Document) { d.Localities = nil }, field: "localidades"},
		{name: "no facilities", mutate: func(d *Document) { d.Facilities = nil }, field: "facilities"},
		{name: "weights missing", mutate: func(d *Document) { d.Weights = nil }, field: "pesos"},
		{name: "weights length", mutate: func(d *Document) { d.Weights = []float64{1} }, field: "pesos"},
		{name: "flags missing", mutate: func(d *Document) { d.Inversion = nil }, field: "proporcao_inversa"},
		{name: "flag value", mutate: func(d *Document) { d.Inversion = []int{0, 3} }, field: "proporcao_inversa"},
		{name: "ignored flag length", mutate: func(d *Document) { d.Variant = "C"; d.Inversion = []int{1} }, field: "proporcao_inversa"},
		{name: "ignored flag value", mutate: func(d *Document) { d.Variant = "A"; d.K = ptr(1); d.Inversion = []int{0, 2} }, field: "proporcao_inversa"},
		{name: "problem type", mutate: func(d *Document) { d.ProblemType = 3 }, field: "tipo_problema"},
		{name: "cost mode on A", mutate: func(d *Document) { d.Variant = "A"; d.ProblemType = 2 }, field: "tipo_problema"},
		{name: "variant", mutate: func(d *Document) { d.Variant = "Z" }, field: "variante"},
		{name: "ragged metrics", mutate: func(d *Document) { d.Localities[1].Metrics = []float64{1} }, field: "localidades"},
		{name: "duplicate facility", mutate: func(d *Document) { d.Facilities[2].Code = "n1" }, field: "facilities"},
		{name: "negative budget", mutate: func(d *Document) { d.Budget = ptr(-1.0) }, field: "orcamento"},
		{name: "metric", mutate: func(d *Document) { d.DistanceMetric = "manhattan" }, field: "metrica_distancia"},
		{name: "cap strategy", mutate: func(d *Document) { d.CapStrategy = "media" }, field: "estrategia_dist_max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := baseDocument()
			tt.mutate(&doc)
			_, err := NewInstance(doc, DefaultPolicy())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInputValidation))
			var vErr *InputValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestDerivedDistanceCap(t *testing.T) {
	d := [][]float64{
		{4, 1, 9},
		{2, 8, 6},
		{7, 5, 3},
	}
	assert.Equal(t, 3.0, DerivedDistanceCap(d))
	assert.Equal(t, 0.0, DerivedDistanceCap(nil))
	assert.Equal(t, 3.0, DerivedCap().Resolve(d))
	assert.Equal(t, 2.5, FixedCap(2.5).Resolve(d))
}

func TestDecodeDocumentCoordinates(t *testing.T) {
	const doc = `{
		"localidades": [
			{"codigo": 260410, "coordenada": [-8.1, -34.9], "total_moradores": 10, "metricas": [1]},
			{"codigo": "b", "coordenada": [[-8.2, -34.8]], "total_moradores": 10, "metricas": [1]},
			{"coordenada": {"latitude": -8.3, "longitude": -34.7}, "total_moradores": 10, "metricas": [1]},
			{"coordenada": {"centro": [[-8.4, -34.6]]}, "total_moradores": 10, "metricas": [1], "fixed": false}
		],
		"facilities": [{"codigo_cnes": 2345, "coordenada": [-8.0, -35.0], "fixed": true}],
		"pesos": [1],
		"proporcao_inversa": [0],
		"tipo_problema": 1,
		"num_centros_desejado": 1
	}`
	got, err := DecodeDocument(strings.NewReader(doc), "json")
	require.NoError(t, err)

	want := []Coordinate{{-8.1, -34.9}, {-8.2, -34.8}, {-8.3, -34.7}, {-8.4, -34.6}}
	for i, w := range want {
		assert.Equal(t, w, got.Localities[i].Coordinate)
	}
	assert.Equal(t, Code("260410"), got.Localities[0].Code)
	assert.Equal(t, Code("2345"), got.Facilities[0].CNES)
	assert.False(t, got.Localities[0].Pinned())
	assert.True(t, got.Localities[3].Pinned())
	require.NotNil(t, got.K)
	assert.Equal(t, 1, *got.K)
}

func TestDecodeDocumentYAML(t *testing.T) {
	const doc = `
localidades:
  - codigo: a
    coordenada: [0, 0]
    total_moradores: 5
    metricas: [1, 2]
facilities:
  - codigo: f
    coordenada: [0, 1]
pesos: [0.5, 0.5]
variante: A
num_centros_desejado: 1
`
	got, err := DecodeDocument(strings.NewReader(doc), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Variant)
	assert.Equal(t, Coordinate{0, 1}, got.Facilities[0].Coordinate)

	in, err := NewInstance(got, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, MinimizeDistance, in.Config.Mode)
}

func TestDecodeDocumentMalformedCoordinate(t *testing.T) {
	for _, c := range []string{`[1]`, `[1, 2, 3]`, `{"latitude": 1}`, `"here"`, `[[1, 2], [3, 4]]`} {
		_, err := DecodeDocument(strings.NewReader(`{"localidades":[{"coordenada":`+c+`}]}`), "json")
		assert.Error(t, err, c)
	}
}
