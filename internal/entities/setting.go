package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingKeyActiveLibrary = "active_library"

	// Name index refresh settings
	SettingKeyNamesRefreshEnabled     = "names_refresh_enabled"
	SettingKeyNamesRefreshSchedule    = "names_refresh_schedule"
	SettingKeyNamesRefreshLastAt      = "names_refresh_last_at"
	SettingKeyNamesRefreshLastStatus  = "names_refresh_last_status"
	SettingKeyNamesRefreshLastMessage = "names_refresh_last_message"
)
