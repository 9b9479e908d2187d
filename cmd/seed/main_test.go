package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/postboard/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seed-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestRunSeedsOnePostPerUserPerDay(t *testing.T) {
	gdb := setupSeedTestDB(t)
	loc := time.FixedZone("KST", 9*60*60)

	summary, err := run(gdb, seedOptions{
		Users:           2,
		DaysPerUser:     3,
		CommentsPerPost: 1,
		Seed:            42,
		Location:        loc,
		Now:             time.Date(2024, 5, 10, 12, 0, 0, 0, loc),
		Password:        "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, 6, summary.Posts)
	assert.Equal(t, 6, summary.Comments)
	assert.Equal(t, len(seedCategories), summary.Categories)

	var days []string
	require.NoError(t, gdb.Model(&db.Post{}).Distinct("quota_day").Order("quota_day").Pluck("quota_day", &days).Error)
	assert.Equal(t, []string{"2024-05-08", "2024-05-09", "2024-05-10"}, days)

	var links int64
	require.NoError(t, gdb.Model(&db.CategoryPost{}).Count(&links).Error)
	assert.EqualValues(t, 6, links)
}

func TestRunReusesExistingCategories(t *testing.T) {
	gdb := setupSeedTestDB(t)
	opts := seedOptions{Users: 1, DaysPerUser: 1, Seed: 7, Location: time.UTC, Now: time.Now(), Password: "password123"}

	_, err := run(gdb, opts)
	require.NoError(t, err)

	opts.Seed = 8
	summary, err := run(gdb, opts)
	require.NoError(t, err)
	assert.Zero(t, summary.Categories)

	var count int64
	require.NoError(t, gdb.Model(&db.Category{}).Count(&count).Error)
	assert.EqualValues(t, len(seedCategories), count)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "가나다", truncate("가나다라", 3))
	assert.Equal(t, "abc", truncate("  abc  ", 10))
	assert.Equal(t, "user", sanitizeUsername("!"))
}
