package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/postboard/internal/config"
	"github.com/postboard/internal/db"
	"github.com/postboard/internal/service"
)

func main() {
	username := flag.String("username", "", "account name (defaults to SUPER_ROOT_USER_NAME)")
	password := flag.String("password", "", "account password (defaults to SUPER_ROOT_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if *username == "" {
		*username = cfg.SuperRootUserName
	}
	if *password == "" {
		*password = cfg.SuperRootPassword
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		os.Exit(2)
	}

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, DSN: cfg.DatabaseDSN}); err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	user, err := service.NewUserService(db.DB).Register(service.RegisterInput{Username: *username, Password: *password})
	if err != nil {
		slog.Error("failed to create user", "username", *username, "error", err)
		os.Exit(1)
	}

	fmt.Printf("用户创建成功: %s (id=%d)\n", user.Username, user.ID)
}
