package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// ErrQueueNotRegistered is returned when a task is enqueued for a queue no
// worker will ever process.
var ErrQueueNotRegistered = errors.New("queue not registered")

// Dependencies are the collaborators the built-in queues run against.
// A nil field leaves its queue unregistered.
type Dependencies struct {
	Names     NamesRefresher
	Status    StatusRecorder
	Orphans   OrphanCleaner
	Libraries LibraryLookup
	Importer  Importer
}

// Client runs the background queues on a dedicated SQLite database.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	queues  map[string]bool
	started bool
}

// DatabasePath returns where the task database for a catalog lives: next
// to it, with a "-tasks" suffix.
func DatabasePath(catalogPath string) string {
	dir, base := filepath.Split(catalogPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// NewClient opens (or creates) the task database and installs the backlite
// schema. Queues must be registered before Start.
func NewClient(catalogPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	path := DatabasePath(catalogPath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create task client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install task schema: %w", err)
	}

	log.Printf("[TASK] Task database at %s", path)
	return &Client{
		client: client,
		db:     db,
		config: cfg,
		queues: make(map[string]bool),
	}, nil
}

// RegisterQueues registers every queue whose dependencies are present and
// returns the registered queue names.
func (c *Client) RegisterQueues(deps Dependencies) []string {
	var names []string
	if deps.Names != nil {
		c.register(RefreshNamesTask{}, NewRefreshNamesQueue(deps.Names, deps.Status))
		names = append(names, RefreshNamesTask{}.Config().Name)
	}
	if deps.Orphans != nil {
		c.register(CleanupOrphansTask{}, NewCleanupOrphansQueue(deps.Orphans))
		names = append(names, CleanupOrphansTask{}.Config().Name)
	}
	if deps.Libraries != nil && deps.Importer != nil {
		c.register(MirrorLibraryTask{}, NewMirrorLibraryQueue(deps.Libraries, deps.Importer))
		names = append(names, MirrorLibraryTask{}.Config().Name)
	}
	return names
}

func (c *Client) register(task backlite.Task, queue backlite.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client.Register(queue)
	c.queues[task.Config().Name] = true
}

// Start begins processing tasks until ctx is cancelled or Stop is called.
// Later calls are no-ops.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("[TASK] Started %d workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop waits for running tasks. It reports false when ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	if !c.client.Stop(ctx) {
		log.Printf("[TASK] Stopped with tasks still running")
		return false
	}
	log.Printf("[TASK] Stopped")
	return true
}

// Close releases the task database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue saves a single task and returns its ID.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	name := task.Config().Name
	c.mu.RLock()
	known := c.queues[name]
	c.mu.RUnlock()
	if !known {
		return "", fmt.Errorf("failed to enqueue %s: %w", name, ErrQueueNotRegistered)
	}

	ids, err := c.client.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", name, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("failed to enqueue %s: no task id returned", name)
	}
	return ids[0], nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// taskLogger routes backlite's logging through the standard logger.
type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
