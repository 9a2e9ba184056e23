// Package component provides field-level injection helpers on top of a
// *di.Container.
//
// Lazy[T] is a proxy field that resolves T on first access and keeps the
// instance. Isolated marks a type that owns its own container, and Get
// resolves through it.
//
//	type Handler struct {
//		Users component.Lazy[*users.Service]
//	}
//
//	h := &Handler{Users: component.InjectGlobal[*users.Service]()}
//	svc, err := h.Users.Get()
package component
