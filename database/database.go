package database

import (
	"fmt"
	"log"

	"kontor/config"
	"kontor/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the database connection, migrates the schema and seeds defaults.
func Init(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("connecting to database failed: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Expense{},
		&models.ExpenseCategory{},
		&models.DepreciationScheduleEntry{},
		&models.Invoice{},
		&models.Payment{},
	); err != nil {
		return err
	}

	// Older rows predate the status column; default them to active so existing
	// accounts keep working after an upgrade.
	_ = DB.Model(&models.User{}).
		Where("status IS NULL OR status = ''").
		Update("status", models.UserStatusActive).Error

	// Seed default bookkeeping categories, only when the table is empty.
	var catCount int64
	DB.Model(&models.ExpenseCategory{}).Count(&catCount)
	if catCount == 0 {
		colorMap := map[string]string{
			models.CategoryOfficeSupplies: "#ef4444",
			models.CategoryTravel:         "#3b82f6",
			models.CategorySoftware:       "#a855f7",
			models.CategoryHardware:       "#ec4899",
			models.CategoryRent:           "#10b981",
			models.CategoryInsurance:      "#f59e0b",
			models.CategoryProfessional:   "#14b8a6",
			models.CategoryOther:          "#64748b",
		}
		var cats []models.ExpenseCategory
		for i, name := range models.GetCategories() {
			color := colorMap[name]
			if color == "" {
				color = "#64748b"
			}
			cats = append(cats, models.ExpenseCategory{
				Name:  name,
				Sort:  (i + 1) * 10,
				Color: color,
			})
		}
		if len(cats) > 0 {
			_ = DB.Create(&cats).Error
		}
	}

	log.Println("database initialized")
	return nil
}

// GetDB returns the database handle.
func GetDB() *gorm.DB {
	return DB
}
