package diag

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/observability"
)

// ContainerView is the body of the registrations endpoint.
type ContainerView struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Closed        bool                  `json:"closed"`
	Registrations []di.RegistrationInfo `json:"registrations"`
}

// Mount registers the diagnostic routes for c on r.
func Mount(r gin.IRouter, c *di.Container, checkers ...observability.HealthChecker) {
	r.GET("/registrations", Registrations(c))
	r.GET("/health", Health(c, checkers...))
}

// Registrations lists the definitions of c. With a type query parameter it
// returns that single definition.
func Registrations(c *di.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		regs := c.Registrations()

		if typeName, ok := ctx.GetQuery("type"); ok {
			names := make([]string, 0, len(regs))
			for _, r := range regs {
				if r.Key.String() == typeName {
					RespondOK(ctx, r)
					return
				}
				names = append(names, r.Key.String())
			}
			RespondWithError(ctx, errors.DefinitionNotFound(typeName, names))
			return
		}

		RespondOK(ctx, ContainerView{
			ID:            c.ID(),
			Name:          c.Name(),
			Closed:        c.IsClosed(),
			Registrations: regs,
		})
	}
}

// Health reports c and any extra checkers. The status is 503 when any of
// them is down.
func Health(c *di.Container, checkers ...observability.HealthChecker) gin.HandlerFunc {
	all := append([]observability.HealthChecker{c}, checkers...)
	return func(ctx *gin.Context) {
		agg := observability.CheckAll(ctx.Request.Context(), all...)

		status := http.StatusOK
		if agg.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{
			"status":     agg.Status,
			"container":  c.Name(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": agg.Components,
		})
	}
}
