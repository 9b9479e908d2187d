package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例，供命令行工具复用
var DB *gorm.DB

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options describes how to reach the database.
type Options struct {
	Driver string
	// Path is the sqlite file; empty falls back to postboard.db.
	Path string
	// DSN is the postgres connection string.
	DSN    string
	Logger logger.Interface
}

// Open connects to the configured database. Unique violations are translated
// to gorm.ErrDuplicatedKey for every driver.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "postboard.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(path)
	case DriverPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, errors.New("postgres driver requires a DSN")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	cfg := &gorm.Config{TranslateError: true}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}
	return gorm.Open(dialector, cfg)
}

// Init 初始化全局数据库连接并执行自动迁移。
func Init(opts Options) error {
	gdb, err := Open(opts)
	if err != nil {
		return err
	}
	if err := Migrate(gdb); err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&Post{},
		&Comment{},
		&Category{},
		&CategoryPost{},
		&Image{},
	}
}

// Migrate 自动迁移模式，为核心模型创建表
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(Models()...)
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
