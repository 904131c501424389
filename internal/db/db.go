package db

import (
	"fmt"

	"codenook/internal/logger"
	"codenook/internal/models"
	"codenook/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to postgres, migrates the schema and seeds default categories.
func Open(dsn string) (*gorm.DB, error) {
	conn, err := OpenDialector(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	logger.L().Info("database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	logger.L().Info("database migration completed")

	if err := SeedCategories(conn); err != nil {
		logger.L().Warn("seeding categories failed", zap.Error(err))
	}
	return conn, nil
}

// OpenDialector opens any gorm dialector with the settings the application relies on.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey on every dialect.
func OpenDialector(d gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

var defaultCategories = []string{"Programming", "Database", "Cloud", "Web Development", "Data"}

// SeedCategories creates the default categories on an empty table.
func SeedCategories(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.L().Debug("categories already seeded, skipping")
		return nil
	}

	for _, name := range defaultCategories {
		category := models.Category{Name: name, Slug: utils.Slugify(name)}
		if err := conn.Create(&category).Error; err != nil {
			return fmt.Errorf("create category %s: %w", name, err)
		}
	}
	logger.L().Info("initial categories created", zap.Int("count", len(defaultCategories)))
	return nil
}
