package valuehandlers

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// Geometry serves GeoJSON geometry properties.
//
// Native values are orb.Geometry, wire values are GeoJSON objects and
// storage values are domain.StoredGeometry. Any of these, a *geojson.Geometry
// or GeoJSON text is accepted as input.
type Geometry struct {
	allowed []string
}

var (
	_ Handler       = (*Geometry)(nil)
	_ GeometryAware = (*Geometry)(nil)
)

// NewGeometry creates a geometry handler accepting the given GeoJSON types,
// e.g. "Point" or "Polygon". No types means every geometry is accepted.
func NewGeometry(allowed ...string) *Geometry {
	g := &Geometry{}
	for _, t := range allowed {
		g.allowed = append(g.allowed, strings.ToLower(t))
	}
	return g
}

// Name returns "geometry".
func (g *Geometry) Name() string { return "geometry" }

// IsGeometry returns true.
func (g *Geometry) IsGeometry() bool { return true }

// Allowed returns the accepted GeoJSON types, lower-cased.
func (g *Geometry) Allowed() []string {
	return append([]string(nil), g.allowed...)
}

func (g *Geometry) allows(typ string) bool {
	if len(g.allowed) == 0 {
		return true
	}
	typ = strings.ToLower(typ)
	for _, a := range g.allowed {
		if a == typ {
			return true
		}
	}
	return false
}

// ToStorage checks the geometry type against the allow-list and encodes the
// coordinates as WKB.
func (g *Geometry) ToStorage(v any) (any, error) {
	if m, ok := v.(map[string]any); ok {
		typ, _ := m["type"].(string)
		if !g.allows(typ) {
			return nil, domain.NewValidationError("", "geometry type %q is not one of %v", typ, g.allowed)
		}
	}

	geom, err := toOrb(v)
	if err != nil {
		return nil, err
	}
	if !g.allows(geom.GeoJSONType()) {
		return nil, domain.NewValidationError("", "geometry type %q is not one of %v", geom.GeoJSONType(), g.allowed)
	}

	data, err := wkb.Marshal(geom)
	if err != nil {
		return nil, &domain.ValidationError{Reason: "geometry cannot be encoded", Err: err}
	}
	return domain.StoredGeometry{Type: geom.GeoJSONType(), WKB: data}, nil
}

// ToWire renders the geometry as a GeoJSON object.
func (g *Geometry) ToWire(v any) (any, error) {
	geom, err := toOrb(v)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(geojson.NewGeometry(geom))
	if err != nil {
		return nil, &domain.ValidationError{Reason: "geometry cannot be encoded", Err: err}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToNative returns the orb.Geometry.
func (g *Geometry) ToNative(v any) (any, error) {
	return toOrb(v)
}

func toOrb(v any) (orb.Geometry, error) {
	switch t := v.(type) {
	case *geojson.Geometry:
		if t == nil || t.Geometry() == nil {
			return nil, domain.NewValidationError("", "empty geometry")
		}
		return t.Geometry(), nil
	case orb.Geometry:
		return t, nil
	case domain.StoredGeometry:
		geom, err := wkb.Unmarshal(t.WKB)
		if err != nil {
			return nil, &domain.ValidationError{Reason: "stored geometry cannot be decoded", Err: err}
		}
		return geom, nil
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, &domain.ValidationError{Reason: "geometry is not JSON", Err: err}
		}
		return parseGeoJSON(data)
	case string:
		return parseGeoJSON([]byte(t))
	case []byte:
		return parseGeoJSON(t)
	default:
		return nil, domain.NewValidationError("", "cannot convert %T to a geometry", v)
	}
}

func parseGeoJSON(data []byte) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, &domain.ValidationError{Reason: "invalid GeoJSON geometry", Err: err}
	}
	if g.Geometry() == nil {
		return nil, domain.NewValidationError("", "GeoJSON geometry has no coordinates")
	}
	return g.Geometry(), nil
}

// String describes the handler.
func (g *Geometry) String() string {
	if len(g.allowed) == 0 {
		return "geometry"
	}
	return fmt.Sprintf("geometry(%s)", strings.Join(g.allowed, ","))
}
