package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookfinder/internal/entities"
)

var defaultSources = []entities.Source{
	{Name: "json", DisplayName: "JSON Import"},
	{Name: "calibre", DisplayName: "Calibre Library"},
	{Name: "demo", DisplayName: "Demo Catalog"},
	{Name: "manual", DisplayName: "Manual Entry"},
}

type Database struct {
	DB *gorm.DB
}

// Options tunes how the catalog database is opened.
type Options struct {
	// LogSQL logs every statement through the gorm logger.
	LogSQL bool
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, Options{})
}

func Open(dbPath string, opts Options) (*Database, error) {
	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Source{},
		&entities.Author{},
		&entities.Series{},
		&entities.Tag{},
		&entities.Book{},
		&entities.BookAuthor{},
		&entities.BookFormat{},
		&entities.ImportSession{},
		&entities.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedSources(); err != nil {
		return nil, fmt.Errorf("failed to seed sources: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func withForeignKeys(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedSources() error {
	for _, source := range defaultSources {
		var existing entities.Source
		result := d.DB.Where("name = ?", source.Name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&source).Error; err != nil {
				return fmt.Errorf("failed to create source %s: %w", source.Name, err)
			}
			log.Printf("Created source: %s", source.DisplayName)
		}
	}
	return nil
}

func (d *Database) GetSourceByName(name string) (*entities.Source, error) {
	var source entities.Source
	err := d.DB.Where("name = ?", name).First(&source).Error
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (d *Database) GetAllSources() ([]entities.Source, error) {
	var sources []entities.Source
	err := d.DB.Find(&sources).Error
	return sources, err
}

func (d *Database) CreateImportSession(sourceID uint) (*entities.ImportSession, error) {
	session := &entities.ImportSession{
		SourceID:  sourceID,
		Status:    entities.ImportStatusRunning,
		StartedAt: time.Now(),
	}
	if err := d.DB.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (d *Database) UpdateImportSession(session *entities.ImportSession) error {
	return d.DB.Omit(clause.Associations).Save(session).Error
}

func (d *Database) GetImportSession(id uint) (*entities.ImportSession, error) {
	var session entities.ImportSession
	err := d.DB.Preload("Source").First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetRecentImportSessions returns the latest sessions first.
func (d *Database) GetRecentImportSessions(limit int) ([]entities.ImportSession, error) {
	var sessions []entities.ImportSession
	err := d.DB.Preload("Source").Order("started_at DESC, id DESC").Limit(limit).Find(&sessions).Error
	return sessions, err
}

// Stats summarises the catalog.
type Stats struct {
	Books   int64 `json:"books"`
	Authors int64 `json:"authors"`
	Tags    int64 `json:"tags"`
	Series  int64 `json:"series"`
}

func (d *Database) GetStats() (Stats, error) {
	var s Stats
	for _, c := range []struct {
		model any
		dst   *int64
	}{
		{&entities.Book{}, &s.Books},
		{&entities.Author{}, &s.Authors},
		{&entities.Tag{}, &s.Tags},
		{&entities.Series{}, &s.Series},
	} {
		if err := d.DB.Model(c.model).Count(c.dst).Error; err != nil {
			return Stats{}, err
		}
	}
	return s, nil
}

func (d *Database) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := d.DB.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (d *Database) SetSetting(key, value string) error {
	var setting entities.Setting
	result := d.DB.Where("key = ?", key).First(&setting)

	if result.Error == gorm.ErrRecordNotFound {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return d.DB.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return d.DB.Save(&setting).Error
}

func (d *Database) DeleteSetting(key string) error {
	return d.DB.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
