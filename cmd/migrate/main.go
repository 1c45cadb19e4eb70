package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "accounts-migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "source directory for create and validate")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem.
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			exit("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.Validate(os.DirFS(opts.dir)); err != nil {
			exit("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "accounts-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		logg.Error(ctx, "failed to open sql handle", err)
		os.Exit(1)
	}

	if err := run(ctx, logg, sqlDB, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up":
		applied, err := migrate.Up(ctx, sqlDB)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", applied), "migrations applied")
	case "down":
		version, err := migrate.Down(ctx, sqlDB)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", version), "migration rolled back")
	case "status":
		statuses, err := migrate.Statuses(ctx, sqlDB)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			applied := "pending"
			if st.Applied {
				applied = st.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%d\t%-45s\t%s\n", st.Version, st.Name, applied)
		}
	case "version":
		target, err := strconv.ParseInt(opts.version, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -version %q: %w", opts.version, err)
		}
		if err := migrate.To(ctx, sqlDB, target); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", target), "schema at target version")
	default:
		return fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	}
	return nil
}

func exit(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
