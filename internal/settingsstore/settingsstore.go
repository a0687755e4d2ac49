package settingsstore

import (
	"errors"
	"os"

	"github.com/mrlokans/bookfinder/internal/database"
	"github.com/mrlokans/bookfinder/internal/entities"
	"gorm.io/gorm"
)

// Priority: database > environment > default
type SettingsStore struct {
	db *database.Database
}

func New(db *database.Database) *SettingsStore {
	return &SettingsStore{db: db}
}

// DefaultActiveLibrary is the library selected when nothing else is configured.
const DefaultActiveLibrary = "catalog"

func (s *SettingsStore) GetActiveLibrary() string {
	setting, err := s.db.GetSetting(entities.SettingKeyActiveLibrary)
	if err == nil && setting.Value != "" {
		return setting.Value
	}

	if env := os.Getenv("ACTIVE_LIBRARY"); env != "" {
		return env
	}

	return DefaultActiveLibrary
}

func (s *SettingsStore) SetActiveLibrary(name string) error {
	return s.db.SetSetting(entities.SettingKeyActiveLibrary, name)
}

func (s *SettingsStore) GetActiveLibrarySource() string {
	setting, err := s.db.GetSetting(entities.SettingKeyActiveLibrary)
	if err == nil && setting.Value != "" {
		return "database"
	}
	if env := os.Getenv("ACTIVE_LIBRARY"); env != "" {
		return "environment"
	}
	return "default"
}

type ActiveLibraryInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"` // "database", "environment", or "default"
}

func (s *SettingsStore) GetActiveLibraryInfo() ActiveLibraryInfo {
	return ActiveLibraryInfo{
		Name:   s.GetActiveLibrary(),
		Source: s.GetActiveLibrarySource(),
	}
}

func (s *SettingsStore) ClearActiveLibrary() error {
	err := s.db.DeleteSetting(entities.SettingKeyActiveLibrary)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
