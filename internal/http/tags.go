package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookfinder/internal/tasks"
)

type TagsController struct {
	store TagStore
	queue TaskQueue
}

func NewTagsController(store TagStore, queue TaskQueue) *TagsController {
	return &TagsController{store: store, queue: queue}
}

// GetAllTags returns every catalog tag with its book count
// GET /api/tags
func (tc *TagsController) GetAllTags(c *gin.Context) {
	tags, err := tc.store.GetAllTags()
	if err != nil {
		respondInternalError(c, err, "get all tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CleanupOrphanTags removes tags, authors and series that no book refers to.
// Requires the task queue to be enabled.
// POST /api/admin/tags/cleanup
func (tc *TagsController) CleanupOrphanTags(c *gin.Context) {
	if tc.queue == nil {
		respondQueueDisabled(c)
		return
	}

	id, err := tc.queue.Enqueue(tasks.CleanupOrphansTask{})
	if err != nil {
		respondInternalError(c, err, "enqueue cleanup task")
		return
	}
	log.Printf("Enqueued CleanupOrphansTask with ID: %s", id)

	respondAccepted(c, "cleanup task started", gin.H{"task_id": id})
}
