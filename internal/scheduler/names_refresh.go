package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookfinder/internal/settingsstore"
)

// NamesRefreshSettings is the settings surface the scheduler reads.
type NamesRefreshSettings interface {
	GetNamesRefreshConfig() settingsstore.NamesRefreshConfig
	SetNamesRefreshStatus(status, message string) error
}

// RunFunc performs one refresh, or enqueues one.
type RunFunc func(ctx context.Context) error

// NamesRefreshScheduler periodically rebuilds the name index so names
// added by imports become recognisable in free text.
type NamesRefreshScheduler struct {
	settings NamesRefreshSettings
	run      RunFunc

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewNamesRefreshScheduler(settings NamesRefreshSettings, run RunFunc) *NamesRefreshScheduler {
	return &NamesRefreshScheduler{
		settings: settings,
		run:      run,
		cron:     newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// Start begins the scheduler if the refresh is enabled
func (s *NamesRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settings.GetNamesRefreshConfig()
	if !config.Enabled {
		log.Printf("Names refresh scheduler: disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	s.cron = newCron()
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.runRefresh(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule names refresh: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("Names refresh scheduler: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running refresh to finish.
func (s *NamesRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Names refresh scheduler: stopped")
}

// Reschedule applies changed settings.
func (s *NamesRefreshScheduler) Reschedule() error {
	s.Stop()
	return s.Start(context.Background())
}

// RunNow triggers an immediate refresh in the background.
func (s *NamesRefreshScheduler) RunNow() {
	go s.runRefresh(context.Background())
}

func (s *NamesRefreshScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next refresh will occur
func (s *NamesRefreshScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *NamesRefreshScheduler) runRefresh(ctx context.Context) {
	if s.run == nil {
		return
	}
	if err := s.run(ctx); err != nil {
		log.Printf("Names refresh: %v", err)
		_ = s.settings.SetNamesRefreshStatus("failed", err.Error())
	}
}
