package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/sales-app/internal/models"
)

// Connect opens the database from DATABASE_DSN: postgres for URL or
// key=value DSNs, sqlite for file DSNs (dev convenience; tests open
// their own in-memory sqlite).
func Connect(dsn string) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	if IsSQLiteDSN(dsn) {
		return gorm.Open(sqlite.Open(dsn), cfg)
	}
	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			return db, nil
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect database after retries: %w", err)
}

func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	db, err := Connect(dsn)
	if err != nil {
		return nil, err
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)
	// MIGRATIONS=1 runs sql migrations via golang-migrate (postgres
	// only); otherwise AutoMigrate keeps dev setups simple.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"products", "clients", "sales", "sale_lines"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// AutoMigrate creates/updates the schema for every domain model.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Product{}, &models.Client{}, &models.Sale{}, &models.SaleLine{},
	}
	for _, m := range modelsToMigrate {
		if migErr := db.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

func seed(db *gorm.DB) {
	baseProducts := []models.Product{
		{Name: "Clavier sans fil", Description: "Clavier AZERTY", UnitPrice: 29.90, Stock: 40, AlertThreshold: 5},
		{Name: "Souris optique", Description: "Souris USB", UnitPrice: 12.50, Stock: 60, AlertThreshold: 10},
		{Name: "Écran 24\"", Description: "Dalle IPS", UnitPrice: 149.00, Stock: 15, AlertThreshold: 3},
	}
	for _, p := range baseProducts {
		var existing models.Product
		if err := db.Where("name = ?", p.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&p)
		}
	}
	baseClients := []models.Client{
		{Nom: "Bureau Plus", Email: "contact@bureauplus.example", Telephone: "0555 12 34 56"},
		{Nom: "Informatique Centre", Email: "info@ic.example", Telephone: "0555 98 76 54"},
	}
	for _, c := range baseClients {
		var existing models.Client
		if err := db.Where("nom = ?", c.Nom).First(&existing).Error; err == gorm.ErrRecordNotFound {
			db.Create(&c)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
