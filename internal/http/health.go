package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/library"
)

type HealthResponse struct {
	Status  string            `json:"status"` // healthy, degraded or unhealthy
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// ActiveLibrary reports which library searches currently go to.
type ActiveLibrary interface {
	Active() (library.Handle, error)
}

// HealthCheck is one named check. A failing critical check makes the
// service unhealthy; any other failure only degrades it.
type HealthCheck struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) (string, error)
}

// DatabaseCheck pings the catalog database.
func DatabaseCheck(db *database.Database) HealthCheck {
	return HealthCheck{Name: "database", Critical: true, Run: func(ctx context.Context) (string, error) {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return "", err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return "", err
		}
		return "ok", nil
	}}
}

// LibraryCheck reports the active library and its generation.
func LibraryCheck(libraries ActiveLibrary) HealthCheck {
	return HealthCheck{Name: "library", Critical: true, Run: func(ctx context.Context) (string, error) {
		handle, err := libraries.Active()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (generation %d)", handle.Name, handle.Generation), nil
	}}
}

// NameIndexCheck reports whether free-text names are being recognised.
// Searches with explicit facets keep working without it.
func NameIndexCheck(names NameIndexer) HealthCheck {
	return HealthCheck{Name: "names", Run: func(ctx context.Context) (string, error) {
		state := names.Names()
		if state.RefreshedAt.IsZero() {
			return "", errors.New("name index not built")
		}
		return fmt.Sprintf("%d names from %s", state.Index.Size(), state.Library), nil
	}}
}

type HealthController struct {
	checks  []HealthCheck
	version string
}

func NewHealthController(version string, checks ...HealthCheck) *HealthController {
	return &HealthController{checks: checks, version: version}
}

// Status handles GET /health
func (h *HealthController) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	status := "healthy"
	for _, check := range h.checks {
		result, err := check.Run(ctx)
		if err == nil {
			checks[check.Name] = result
			continue
		}
		checks[check.Name] = "error: " + err.Error()
		if check.Critical {
			status = "unhealthy"
		} else if status == "healthy" {
			status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	})
}

// healthChecks picks the checks the configured dependencies support.
func healthChecks(cfg RouterConfig) []HealthCheck {
	var checks []HealthCheck
	if cfg.Database != nil {
		checks = append(checks, DatabaseCheck(cfg.Database))
	}
	if cfg.Libraries != nil {
		checks = append(checks, LibraryCheck(cfg.Libraries))
	}
	if cfg.Names != nil {
		checks = append(checks, NameIndexCheck(cfg.Names))
	}
	return checks
}
