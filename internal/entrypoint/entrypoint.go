package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/config"
	"github.com/mrlokans/bookfinder/internal/demo"
	http_controllers "github.com/mrlokans/bookfinder/internal/http"
	"github.com/mrlokans/bookfinder/internal/scheduler"
	"github.com/mrlokans/bookfinder/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookfinder v%s", version)

	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled - write operations will be blocked, catalog at %s", cfg.Demo.DBPath)
		cfg.Database.Path = cfg.Demo.DBPath
		if err := os.MkdirAll(filepath.Dir(cfg.Demo.DBPath), 0755); err != nil {
			log.Fatalf("Failed to create demo directory: %v", err)
		}
	}

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing resources: %v", err)
		}
	}()

	if cfg.Demo.Enabled {
		if err := seedDemo(context.Background(), app); err != nil {
			log.Fatalf("Failed to seed demo catalog: %v", err)
		}
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		queues := taskClient.RegisterQueues(tasks.Dependencies{
			Names:     app.Search,
			Status:    app.Settings,
			Orphans:   app.Tags,
			Libraries: app.Libraries,
			Importer:  app.Pipeline,
		})
		log.Printf("[TASK] Registered queues: %v", queues)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic name index rebuild: through the queue when there is one
	refresh := func(ctx context.Context) error {
		if taskClient != nil {
			_, err := taskClient.Enqueue(tasks.RefreshNamesTask{Reason: "schedule"})
			return err
		}
		state, err := app.Search.RefreshNames(ctx)
		if err != nil {
			return err
		}
		return app.Settings.SetNamesRefreshStatus("success", fmt.Sprintf("%s: %d names", state.Library, state.Index.Size()))
	}
	namesScheduler := scheduler.NewNamesRefreshScheduler(app.Settings, refresh)
	if err := namesScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: names refresh scheduler not started: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:  app.DB,
		Search:    app.Search,
		Names:     app.Search,
		Libraries: app.Libraries,
		TagStore:  app.Tags,
		Version:   version,

		DemoMiddleware: demo.NewMiddleware(cfg.Demo.Enabled),
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		namesScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// seedDemo fills an empty demo catalog with the bundled books and rebuilds
// the name index so the new names are recognised.
func seedDemo(ctx context.Context, app *App) error {
	existing, err := app.Books.GetAllBooks()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	result, err := demo.Seed(app.Pipeline)
	if err != nil {
		return err
	}
	log.Printf("Seeded demo catalog with %d books", result.BooksCreated)

	_, err = app.Search.RefreshNames(ctx)
	return err
}
