package di

import "reflect"

// Key identifies a registered type. Two keys are equal iff they denote the
// same Go type, so Key can be used as a map key.
type Key struct {
	t reflect.Type
}

// KeyOf returns the key for T. Interface types are supported.
func KeyOf[T any]() Key {
	return Key{t: reflect.TypeFor[T]()}
}

// KeyFor returns the key for t.
func KeyFor(t reflect.Type) Key {
	return Key{t: t}
}

// Type returns the underlying type, nil for the zero key.
func (k Key) Type() reflect.Type { return k.t }

// IsZero reports whether k denotes no type.
func (k Key) IsZero() bool { return k.t == nil }

func (k Key) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return k.t.String()
}

// MarshalText renders the key as its type name.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
