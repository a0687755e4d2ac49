package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply demo mode middleware if enabled
	if cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.Handler())
	}

	health := NewHealthController(cfg.Version, healthChecks(cfg)...)
	searchController := NewSearchController(cfg.Search)
	librariesController := NewLibrariesController(cfg.Libraries, cfg.Names, cfg.TaskQueue)
	namesController := NewNamesController(cfg.Names, cfg.TaskQueue)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Demo mode status endpoint (always available)
	router.GET("/api/demo/status", func(c *gin.Context) {
		c.JSON(200, gin.H{"demo_mode": cfg.DemoMiddleware.IsEnabled()})
	})

	// Search
	router.GET("/api/search", searchController.Query)
	router.POST("/api/search", searchController.Submit)
	router.POST("/api/search/explain", searchController.Explain)

	// Libraries and the name index
	router.GET("/api/libraries", librariesController.List)
	router.PUT("/api/libraries/active", librariesController.SetActive)
	router.POST("/api/libraries/:name/mirror", librariesController.Mirror)
	router.GET("/api/names", namesController.Get)
	router.POST("/api/names/refresh", namesController.Refresh)

	// Tag endpoints
	if cfg.TagStore != nil {
		tagsController := NewTagsController(cfg.TagStore, cfg.TaskQueue)
		router.GET("/api/tags", tagsController.GetAllTags)
		router.POST("/api/admin/tags/cleanup", tagsController.CleanupOrphanTags)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.GET("/api/tasks/types", tasksController.ListTaskTypes)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
