package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/roomworld/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormPlayerProfile{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) SaveProfile(profile *models.PlayerProfile) error {
	var existing models.GormPlayerProfile
	result := p.db.Where("name = ?", profile.Name).First(&existing)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return p.db.Create(&models.GormPlayerProfile{
			Name:      profile.Name,
			Color:     profile.Color,
			Character: profile.Character,
		}).Error
	} else if result.Error != nil {
		return result.Error
	}

	existing.Color = profile.Color
	existing.Character = profile.Character
	return p.db.Save(&existing).Error
}

func (p *GormPostgreSQL) LoadProfile(name string) (*models.PlayerProfile, error) {
	var profile models.GormPlayerProfile
	if err := p.db.Where("name = ?", name).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &models.PlayerProfile{
		Name:      profile.Name,
		Color:     profile.Color,
		Character: profile.Character,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}, nil
}

func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	return p.db.Create(&models.GormGameRecord{
		RoomID:   record.RoomID,
		RoomName: record.RoomName,
		Mode:     record.Mode,
		Map:      record.Map,
		Players:  strings.Join(record.Players, ","),
		Duration: record.Duration,
	}).Error
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
