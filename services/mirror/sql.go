package mirror

import (
	"context"
	"fmt"
	"time"

	"homeclimate-go/services/store"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReadingRow is one mirrored reading.
type ReadingRow struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Location     string    `gorm:"index:idx_location_time;not null;size:64" json:"location"`
	Timestamp    time.Time `gorm:"index:idx_location_time;not null" json:"timestamp"`
	TemperatureF float32   `gorm:"not null" json:"temperature_f"`
	Humidity     float32   `gorm:"not null" json:"humidity"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReadingRow) TableName() string { return "readings" }

type SQL struct {
	db *gorm.DB
}

// OpenSQL connects with driver sqlite, postgres or mysql and migrates the
// readings table.
func OpenSQL(driver, dsn string) (*SQL, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&ReadingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate readings: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Name() string { return "sql" }

func (s *SQL) Write(ctx context.Context, a store.Accepted) error {
	return s.db.WithContext(ctx).Create(&ReadingRow{
		Location:     string(a.Location),
		Timestamp:    a.Reading.Time,
		TemperatureF: a.Reading.TemperatureF,
		Humidity:     a.Reading.Humidity,
	}).Error
}

// Recent returns up to n rows for loc, newest first.
func (s *SQL) Recent(ctx context.Context, loc store.Location, n int) ([]ReadingRow, error) {
	var rows []ReadingRow
	err := s.db.WithContext(ctx).
		Where("location = ?", string(loc)).
		Order("timestamp desc").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
