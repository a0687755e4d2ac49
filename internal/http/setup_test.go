package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/library"
	"github.com/mrlokans/bookfinder/internal/memstore"
	"github.com/mrlokans/bookfinder/internal/search"
	"github.com/mrlokans/bookfinder/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeQueue records enqueued tasks instead of persisting them.
type fakeQueue struct {
	mu       sync.Mutex
	enqueued []backlite.Task
	statuses map[string]backlite.TaskStatus
	err      error
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, task)
	return fmt.Sprintf("task-%d", len(q.enqueued)), nil
}

func (q *fakeQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	if q.err != nil {
		return backlite.TaskStatusNotFound, q.err
	}
	if s, ok := q.statuses[taskID]; ok {
		return s, nil
	}
	return backlite.TaskStatusNotFound, nil
}

// failingStore fails every snapshot.
type failingStore struct{}

func (failingStore) Snapshot(ctx context.Context) (search.Snapshot, error) {
	return nil, errors.New("disk unplugged")
}

func (failingStore) Names(ctx context.Context) (search.NameIndex, error) {
	return search.NameIndex{}, errors.New("disk unplugged")
}

type testEnv struct {
	router   *gin.Engine
	registry *library.Registry
	service  *services.SearchService
	queue    *fakeQueue
	catalog  *memstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	catalog := memstore.New(
		search.BookRecord{ID: 1, Title: "Dune", Authors: []string{"Frank Herbert"}, Tags: []string{"scifi"}, Rating: 5, Formats: []string{"EPUB"}},
		search.BookRecord{ID: 2, Title: "Foundation", Authors: []string{"Isaac Asimov"}, Tags: []string{"scifi"}, Rating: 4},
		search.BookRecord{ID: 3, Title: "Emma", Authors: []string{"Jane Austen"}, Tags: []string{"romance"}, Rating: 3, Comments: "A comedy of manners."},
	)
	classics := memstore.New(
		search.BookRecord{ID: 1, Title: "Middlemarch", Authors: []string{"George Eliot"}, Tags: []string{"classic"}},
	)

	reg := library.NewRegistry(nil)
	require.NoError(t, reg.Register(library.Library{Name: "catalog", Kind: library.KindCatalog, Store: catalog}))
	require.NoError(t, reg.Register(library.Library{Name: "classics", Kind: library.KindCalibre, Path: "/srv/classics", Store: classics}))
	require.NoError(t, reg.Register(library.Library{Name: "broken", Kind: library.KindCalibre, Store: failingStore{}}))

	svc := services.NewSearchService(reg, services.SearchServiceOptions{})
	_, err := svc.RefreshNames(context.Background())
	require.NoError(t, err)

	queue := &fakeQueue{statuses: map[string]backlite.TaskStatus{}}
	router := NewRouter(RouterConfig{
		Search:    svc,
		Names:     svc,
		Libraries: reg,
		TaskQueue: queue,
		Version:   "test",
	})
	return &testEnv{router: router, registry: reg, service: svc, queue: queue, catalog: catalog}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func setupTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	return db, func() { db.Close() }
}

func resultTitles(doc search.ResultDocument) []string {
	out := make([]string, len(doc.Items))
	for i, it := range doc.Items {
		out[i] = it.Title
	}
	return out
}
