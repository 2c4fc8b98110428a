package infrastructure

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"jobboard/config"
	"jobboard/domain"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// NewDatabase opens the configured database and migrates the schema.
func NewDatabase(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, errors.Newf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite serializes writers; one connection avoids "database is locked".
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get sql.DB")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	if cfg.Seed {
		if err := SeedCategories(db, log); err != nil {
			return nil, err
		}
	}

	log.Infow("Connected to database", "driver", cfg.Driver)
	return db, nil
}

// sqliteDSN turns on foreign keys for file and memory databases.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&domain.User{}, &domain.JobCategory{}, &domain.Job{}, &domain.JobApplication{})
	if err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

var defaultCategories = []domain.JobCategory{
	{Name: "Software Engineering", Description: "Backend, frontend and platform roles"},
	{Name: "Data", Description: "Analytics, data engineering and machine learning"},
	{Name: "Design", Description: "Product and visual design"},
	{Name: "Operations", Description: "Support, people and business operations"},
}

// SeedCategories inserts the default categories into an empty table.
func SeedCategories(db *gorm.DB, log *zap.SugaredLogger) error {
	var count int64
	if err := db.Model(&domain.JobCategory{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count categories")
	}
	if count > 0 {
		return nil
	}

	categories := make([]domain.JobCategory, len(defaultCategories))
	copy(categories, defaultCategories)
	if err := db.Create(&categories).Error; err != nil {
		return errors.Wrap(err, "failed to seed categories")
	}

	log.Infow("Seeded default categories", "count", len(categories))
	return nil
}

// isDuplicateKey recognizes unique-constraint violations from every
// supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound converts gorm's missing-row error into a domain error.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity, id)
	}
	return errors.Wrapf(err, "load %s %d", entity, id)
}
