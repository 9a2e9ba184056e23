package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/observability"
)

// Summary tracks and displays the application bootstrap.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// StartupDuration returns the recorded startup time.
func (s *Summary) StartupDuration() time.Duration {
	return s.startupDuration
}

// DisplaySummary writes the summary with the registrations and live health
// of c to w.
func (s *Summary) DisplaySummary(w io.Writer, c *di.Container) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if c == nil {
		fmt.Fprintf(w, "   └── No container\n\n")
		return
	}

	regs := c.Registrations()
	fmt.Fprintf(w, "📦 Container %s (%s)\n", c.Name(), c.ID())
	if len(regs) == 0 {
		fmt.Fprintf(w, "   └── No definitions registered\n")
	}
	realized := 0
	for i, r := range regs {
		prefix := "├──"
		if i == len(regs)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(w, "   %s %s %s [%s] (%s)\n", prefix, registrationIcon(r), r.Key, r.Lifecycle, r.Module)
		if r.Realized {
			realized++
		}
	}
	if len(regs) > 0 {
		fmt.Fprintf(w, "\n   %d definitions, %d singletons realized\n", len(regs), realized)
	}

	h := c.CheckHealth(context.Background())
	fmt.Fprintf(w, "\n🏥 Health Check\n")
	msg := ""
	if h.Message != "" {
		msg = fmt.Sprintf(" (%s)", h.Message)
	}
	fmt.Fprintf(w, "   └── %s %s: %s%s\n", healthStatusIcon(h.Status), h.Name, h.Status, msg)
	fmt.Fprintf(w, "\n")
}

func registrationIcon(r di.RegistrationInfo) string {
	switch {
	case r.Realized:
		return "✅"
	case r.Lifecycle == di.LifecycleFactory:
		return "🔁"
	default:
		return "⚡"
	}
}

func healthStatusIcon(status observability.HealthStatus) string {
	switch status {
	case observability.HealthStatusUp:
		return "✅"
	case observability.HealthStatusDown:
		return "❌"
	default:
		return "❓"
	}
}
