package valuehandlers

// Handler converts one property value between its shapes. A nil value is
// never passed to a Handler.
//
// Implementations must be idempotent under round trip:
// ToNative(ToWire(ToNative(x))) equals ToNative(x).
type Handler interface {
	// Name returns the registry name of the handler.
	Name() string

	// ToStorage converts any accepted form into the store-native value.
	ToStorage(v any) (any, error)

	// ToWire converts any accepted form into a JSON-compatible value.
	ToWire(v any) (any, error)

	// ToNative converts any accepted form into the in-memory value.
	ToNative(v any) (any, error)
}

// Defaulter is implemented by handlers that supply a value when the
// property is absent at save time.
type Defaulter interface {
	Default() any
}

// GeometryAware is implemented by handlers whose values are geometries.
// Properties served by them get geospatial indexes.
type GeometryAware interface {
	IsGeometry() bool
}

// Identity passes values through unchanged in every direction.
type Identity struct{}

// Name returns "identity".
func (Identity) Name() string { return "identity" }

// ToStorage returns v.
func (Identity) ToStorage(v any) (any, error) { return v, nil }

// ToWire returns v.
func (Identity) ToWire(v any) (any, error) { return v, nil }

// ToNative returns v.
func (Identity) ToNative(v any) (any, error) { return v, nil }

var _ Handler = Identity{}
