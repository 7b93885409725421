package service

import (
	"campus_share_backend/internal/model"
	"campus_share_backend/pkg/database"
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试使用独立的内存数据库；单连接使事务天然串行
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, points int) *model.User {
	t.Helper()
	user := &model.User{Username: username, Password: "x", Points: points}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createResource(t *testing.T, db *gorm.DB, uploaderID uint, price int) *model.Resource {
	t.Helper()
	resource := &model.Resource{
		Title:          "数据结构期末复习",
		FilePath:       "resources/test.pdf",
		FileName:       "review.pdf",
		MimeType:       "application/pdf",
		PointsRequired: price,
		UploaderID:     uploaderID,
	}
	if err := db.Create(resource).Error; err != nil {
		t.Fatalf("create resource: %v", err)
	}
	return resource
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

func reloadResource(t *testing.T, db *gorm.DB, id uint) *model.Resource {
	t.Helper()
	var resource model.Resource
	if err := db.First(&resource, id).Error; err != nil {
		t.Fatalf("reload resource: %v", err)
	}
	return &resource
}

func countRows(t *testing.T, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(m).Where(query, args...).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

var bg = context.Background()
