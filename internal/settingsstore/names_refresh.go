package settingsstore

import (
	"os"
	"strconv"
	"time"

	"github.com/mrlokans/bookfinder/internal/entities"
	"github.com/robfig/cron/v3"
)

// DefaultNamesRefreshSchedule rebuilds the name index every 30 minutes.
const DefaultNamesRefreshSchedule = "*/30 * * * *"

// NamesRefreshConfig is the effective configuration of the periodic
// name index rebuild.
type NamesRefreshConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// NamesRefreshConfigInfo includes source information for each field
type NamesRefreshConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"` // "database", "environment", "default"

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
}

// NamesRefreshStatus is the outcome of the last rebuild.
type NamesRefreshStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"` // "success", "failed", ""
	Message   string     `json:"message,omitempty"`
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// GetNamesRefreshEnabled returns whether the refresh is enabled (database > env > default)
func (s *SettingsStore) GetNamesRefreshEnabled() bool {
	setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshEnabled)
	if err == nil && setting.Value != "" {
		return parseBool(setting.Value)
	}

	if envVal := os.Getenv("NAMES_REFRESH_ENABLED"); envVal != "" {
		return parseBool(envVal)
	}

	// Default: enabled, the index goes stale after imports otherwise
	return true
}

func (s *SettingsStore) GetNamesRefreshEnabledSource() string {
	setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshEnabled)
	if err == nil && setting.Value != "" {
		return "database"
	}
	if envVal := os.Getenv("NAMES_REFRESH_ENABLED"); envVal != "" {
		return "environment"
	}
	return "default"
}

func (s *SettingsStore) SetNamesRefreshEnabled(enabled bool) error {
	return s.db.SetSetting(entities.SettingKeyNamesRefreshEnabled, strconv.FormatBool(enabled))
}

// GetNamesRefreshSchedule returns the cron schedule (database > env > default)
func (s *SettingsStore) GetNamesRefreshSchedule() string {
	setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshSchedule)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if envVal := os.Getenv("NAMES_REFRESH_SCHEDULE"); envVal != "" {
		return envVal
	}

	return DefaultNamesRefreshSchedule
}

func (s *SettingsStore) GetNamesRefreshScheduleSource() string {
	setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshSchedule)
	if err == nil && setting.Value != "" {
		return "database"
	}
	if envVal := os.Getenv("NAMES_REFRESH_SCHEDULE"); envVal != "" {
		return "environment"
	}
	return "default"
}

func (s *SettingsStore) SetNamesRefreshSchedule(schedule string) error {
	return s.db.SetSetting(entities.SettingKeyNamesRefreshSchedule, schedule)
}

func (s *SettingsStore) GetNamesRefreshConfig() NamesRefreshConfig {
	return NamesRefreshConfig{
		Enabled:  s.GetNamesRefreshEnabled(),
		Schedule: s.GetNamesRefreshSchedule(),
	}
}

func (s *SettingsStore) GetNamesRefreshConfigInfo() NamesRefreshConfigInfo {
	return NamesRefreshConfigInfo{
		Enabled:        s.GetNamesRefreshEnabled(),
		EnabledSource:  s.GetNamesRefreshEnabledSource(),
		Schedule:       s.GetNamesRefreshSchedule(),
		ScheduleSource: s.GetNamesRefreshScheduleSource(),
	}
}

func (s *SettingsStore) GetNamesRefreshStatus() NamesRefreshStatus {
	status := NamesRefreshStatus{}

	if setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastRunAt = &ts
		}
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := s.db.GetSetting(entities.SettingKeyNamesRefreshLastMessage); err == nil {
		status.Message = setting.Value
	}

	return status
}

func (s *SettingsStore) SetNamesRefreshStatus(status, message string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if err := s.db.SetSetting(entities.SettingKeyNamesRefreshLastAt, now); err != nil {
		return err
	}
	if err := s.db.SetSetting(entities.SettingKeyNamesRefreshLastStatus, status); err != nil {
		return err
	}
	return s.db.SetSetting(entities.SettingKeyNamesRefreshLastMessage, message)
}

// ClearNamesRefreshSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearNamesRefreshSettings() error {
	keys := []string{
		entities.SettingKeyNamesRefreshEnabled,
		entities.SettingKeyNamesRefreshSchedule,
	}
	for _, key := range keys {
		if err := s.db.DeleteSetting(key); err != nil {
			continue
		}
	}
	return nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
