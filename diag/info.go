package diag

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/injector/di"
)

// Version is set at build time with -ldflags "-X .../diag.Version=v1.2.3".
var Version = "dev"

var startTime = time.Now()

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Module    string `json:"module,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Revision  string `json:"revision,omitempty"`
	Dirty     bool   `json:"dirty"`
}

// ReadBuildInfo combines Version with the VCS data embedded by the Go
// toolchain. The revision is shortened to seven characters.
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
			if len(info.Revision) > 7 {
				info.Revision = info.Revision[:7]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Info reports the build, uptime and container identity.
func Info(serviceName string, c *di.Container) gin.HandlerFunc {
	build := ReadBuildInfo()
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"service":      serviceName,
			"build":        build,
			"container":    c.Name(),
			"container_id": c.ID(),
			"uptime":       time.Since(startTime).String(),
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
