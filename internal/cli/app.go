package cli

import (
	"context"

	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/entrypoint"
)

// openApp loads the configuration, points it at databasePath when one was
// given, and opens the application.
func openApp(ctx context.Context, databasePath string) (*entrypoint.App, error) {
	cfg := config.NewConfig()
	if databasePath != "" {
		cfg.Database.Path = databasePath
	}
	return entrypoint.NewApp(ctx, cfg)
}
