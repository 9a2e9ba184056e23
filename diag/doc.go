// Package diag exposes a container over HTTP for inspection.
//
//	r := gin.New()
//	r.Use(diag.RequestID(), diag.Recovery(log))
//	diag.Mount(r.Group("/debug/di"), container)
//
// Routes:
//
//	GET /registrations         all definitions in registration order
//	GET /registrations?type=T  one definition, 404 if T is not registered
//	GET /health                container health, 503 once closed
//
// Info serves build and uptime data and is mounted separately.
package diag
