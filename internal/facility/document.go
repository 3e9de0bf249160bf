package facility

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nextmv-io/sdk/measure"
	"gopkg.in/yaml.v3"
)

// Document is the input interchange document. Keys follow the historical
// files produced by the data service.
type Document struct {
	Localities     []LocalityDoc `json:"localidades"`
	Facilities     []FacilityDoc `json:"facilities"`
	Weights        []float64     `json:"pesos"`
	Inversion      []int         `json:"proporcao_inversa,omitempty"`
	ProblemType    int           `json:"tipo_problema,omitempty"`
	K              *int          `json:"num_centros_desejado,omitempty"`
	DistanceCap    *float64      `json:"dist_max,omitempty"`
	CapStrategy    string        `json:"estrategia_dist_max,omitempty"`
	Budget         *float64      `json:"orcamento,omitempty"`
	MetricNames    []string      `json:"nome_metricas,omitempty"`
	Variant        string        `json:"variante,omitempty"`
	DistanceMetric string        `json:"metrica_distancia,omitempty"`
	CostModeCap    string        `json:"restricao_distancia_custo,omitempty"`
}

// LocalityDoc is one entry of "localidades". The presence of the "fixed"
// key, whatever its value, marks a locality excluded from the demand set.
type LocalityDoc struct {
	Code       Code            `json:"codigo,omitempty"`
	Coordinate Coordinate      `json:"coordenada"`
	Population float64         `json:"total_moradores"`
	Metrics    []float64       `json:"metricas"`
	Fixed      json.RawMessage `json:"fixed,omitempty"`
}

// Pinned reports whether the fixed-assignment marker is present.
func (l LocalityDoc) Pinned() bool { return len(l.Fixed) > 0 }

// FacilityDoc is one entry of "facilities".
type FacilityDoc struct {
	Code       Code       `json:"codigo,omitempty"`
	CNES       Code       `json:"codigo_cnes,omitempty"`
	Coordinate Coordinate `json:"coordenada"`
	Fixed      bool       `json:"fixed"`
	Cost       float64    `json:"custo"`
	Capacity   *float64   `json:"capacidade,omitempty"`
}

// Code is an identifier that historical files write either as a string or
// as a number (IBGE and CNES codes).
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("code must be a string or a number: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// Coordinate is a (lat, lon) pair, or (x, y) on the plane. Its canonical
// encoding is a two-element array.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Point returns the coordinate as a measure point.
func (c Coordinate) Point() measure.Point { return measure.Point{c.Lat, c.Lon} }

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

// UnmarshalJSON accepts the canonical [lat, lon] and, for historical files,
// [[lat, lon]], {"latitude": .., "longitude": ..} and {"centro": <any of
// these>}.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty coordinate")
	}
	switch b[0] {
	case '[':
		var pair []float64
		if err := json.Unmarshal(b, &pair); err == nil {
			if len(pair) != 2 {
				return fmt.Errorf("coordinate has %d values, want 2", len(pair))
			}
			c.Lat, c.Lon = pair[0], pair[1]
			return nil
		}
		var nested []json.RawMessage
		if err := json.Unmarshal(b, &nested); err != nil {
			return fmt.Errorf("malformed coordinate %s: %w", b, err)
		}
		if len(nested) != 1 {
			return fmt.Errorf("malformed coordinate %s", b)
		}
		return c.UnmarshalJSON(nested[0])
	case '{':
		var obj struct {
			Latitude  *float64        `json:"latitude"`
			Longitude *float64        `json:"longitude"`
			Center    json.RawMessage `json:"centro"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("malformed coordinate %s: %w", b, err)
		}
		if len(obj.Center) > 0 {
			return c.UnmarshalJSON(obj.Center)
		}
		if obj.Latitude == nil || obj.Longitude == nil {
			return fmt.Errorf("coordinate object needs latitude and longitude")
		}
		c.Lat, c.Lon = *obj.Latitude, *obj.Longitude
		return nil
	}
	return fmt.Errorf("malformed coordinate %s", b)
}

// DecodeDocument reads a document in the given format ("json" or "yaml").
func DecodeDocument(r io.Reader, format string) (Document, error) {
	var doc Document
	switch strings.ToLower(format) {
	case "", "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode json document: %w", err)
		}
	case "yaml", "yml":
		var raw any
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("decode yaml document: %w", err)
		}
		// Round-trip through JSON so both formats share one schema.
		b, err := json.Marshal(raw)
		if err != nil {
			return Document{}, fmt.Errorf("decode yaml document: %w", err)
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return Document{}, fmt.Errorf("decode yaml document: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unsupported document format %q", format)
	}
	return doc, nil
}

// ReadDocument loads a document from path, choosing the format from the file
// extension.
func ReadDocument(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	format := "json"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		format = "yaml"
	}
	return DecodeDocument(f, format)
}
