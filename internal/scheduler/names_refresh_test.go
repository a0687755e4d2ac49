package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookfinder/internal/settingsstore"
)

type fakeSettings struct {
	mu     sync.Mutex
	config settingsstore.NamesRefreshConfig
	status string
	msg    string
}

func (f *fakeSettings) GetNamesRefreshConfig() settingsstore.NamesRefreshConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

func (f *fakeSettings) SetNamesRefreshStatus(status, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.msg = status, message
	return nil
}

func (f *fakeSettings) lastStatus() (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.msg
}

func TestNamesRefreshScheduler_Disabled(t *testing.T) {
	s := NewNamesRefreshScheduler(&fakeSettings{}, nil)

	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestNamesRefreshScheduler_InvalidSchedule(t *testing.T) {
	s := NewNamesRefreshScheduler(&fakeSettings{config: settingsstore.NamesRefreshConfig{Enabled: true, Schedule: "often"}}, nil)

	err := s.Start(context.Background())

	assert.ErrorContains(t, err, "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestNamesRefreshScheduler_StartStop(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.NamesRefreshConfig{Enabled: true, Schedule: "*/30 * * * *"}}
	s := NewNamesRefreshScheduler(settings, func(ctx context.Context) error { return nil })

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	settings.mu.Lock()
	settings.config.Enabled = false
	settings.mu.Unlock()
	require.NoError(t, s.Reschedule())
	assert.False(t, s.IsRunning())
}

func TestNamesRefreshScheduler_StopsWithContext(t *testing.T) {
	settings := &fakeSettings{config: settingsstore.NamesRefreshConfig{Enabled: true, Schedule: "0 * * * *"}}
	s := NewNamesRefreshScheduler(settings, nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestNamesRefreshScheduler_RunNowRecordsFailure(t *testing.T) {
	settings := &fakeSettings{}
	s := NewNamesRefreshScheduler(settings, func(ctx context.Context) error {
		return errors.New("queue is closed")
	})

	s.RunNow()

	assert.Eventually(t, func() bool {
		status, _ := settings.lastStatus()
		return status == "failed"
	}, time.Second, 10*time.Millisecond)
	_, msg := settings.lastStatus()
	assert.Equal(t, "queue is closed", msg)
}
