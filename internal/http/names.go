package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/tasks"
)

type NamesController struct {
	names NameIndexer
	queue TaskQueue
}

func NewNamesController(names NameIndexer, queue TaskQueue) *NamesController {
	return &NamesController{names: names, queue: queue}
}

// Get handles GET /api/names
// Returns the name index the free-text parser currently recognises.
func (nc *NamesController) Get(c *gin.Context) {
	c.JSON(http.StatusOK, nc.names.Names())
}

// Refresh handles POST /api/names/refresh
// Rebuilds the index inline, or in the background with ?async=true.
func (nc *NamesController) Refresh(c *gin.Context) {
	async, ok := parseBoolQuery(c, "async")
	if !ok {
		return
	}

	if async {
		if nc.queue == nil {
			respondQueueDisabled(c)
			return
		}
		id, err := nc.queue.Enqueue(tasks.RefreshNamesTask{Reason: "api"})
		if err != nil {
			respondInternalError(c, err, "enqueue names refresh")
			return
		}
		respondAccepted(c, "names refresh enqueued", gin.H{"task_id": id})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()

	state, err := nc.names.RefreshNames(ctx)
	if err != nil {
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}
