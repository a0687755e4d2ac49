package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/tasks"
)

type LibrariesController struct {
	libraries LibraryCatalog
	names     NameIndexer
	queue     TaskQueue
}

func NewLibrariesController(libraries LibraryCatalog, names NameIndexer, queue TaskQueue) *LibrariesController {
	return &LibrariesController{libraries: libraries, names: names, queue: queue}
}

// List handles GET /api/libraries
func (lc *LibrariesController) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"libraries": lc.libraries.List()})
}

// SetActive handles PUT /api/libraries/active
// Switches the active library and rebuilds the name index for it.
func (lc *LibrariesController) SetActive(c *gin.Context) {
	var req struct {
		Name string `json:"name" form:"name" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	state, err := lc.names.SwitchLibrary(ctx, req.Name)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			respondNotFound(c, "library")
			return
		}
		// The switch itself happened; only the name index is stale.
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active": req.Name,
		"names":  state,
	})
}

// Mirror handles POST /api/libraries/:name/mirror
// Enqueues a copy of a read-only library into the catalog.
func (lc *LibrariesController) Mirror(c *gin.Context) {
	if lc.queue == nil {
		respondQueueDisabled(c)
		return
	}

	name := c.Param("name")
	lib, err := lc.libraries.Lookup(name)
	if err != nil {
		respondNotFound(c, "library")
		return
	}
	if lib.Kind == library.KindCatalog {
		respondBadRequest(c, "the catalog cannot be mirrored into itself")
		return
	}

	id, err := lc.queue.Enqueue(tasks.MirrorLibraryTask{Library: lib.Name})
	if err != nil {
		respondInternalError(c, err, "enqueue mirror task")
		return
	}
	respondAccepted(c, "mirror task enqueued", gin.H{"task_id": id, "library": lib.Name})
}
