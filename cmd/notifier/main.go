package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/nutritrack-backend/internal/notifications"
	"github.com/angelmondragon/nutritrack-backend/internal/nutrition"
	"github.com/angelmondragon/nutritrack-backend/internal/session"
	pkgAuth "github.com/angelmondragon/nutritrack-backend/pkg/auth"
	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/db"
	"github.com/angelmondragon/nutritrack-backend/pkg/kv"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
	"github.com/angelmondragon/nutritrack-backend/pkg/migrate"
)

// notifier runs one user's engine against the configured database with the list cached
// in a local directory.
func main() {
	logg := logger.New(logger.Options{ServiceName: "notifier"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	userFlag := flag.String("user", "", "user id (uuid) to run the engine for")
	dirFlag := flag.String("dir", "", "cache directory (defaults to NUTRITRACK_NOTIFICATIONS_FILE_DIR)")
	once := flag.Bool("once", false, "run one derivation pass and the goal check, print the list and exit")
	printToken := flag.Bool("token", false, "print an access token for the user and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "notifier",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	userID, err := uuid.Parse(*userFlag)
	if err != nil || userID == uuid.Nil {
		fmt.Fprintln(os.Stderr, "a valid -user uuid is required")
		os.Exit(2)
	}

	if *printToken {
		token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID})
		if err != nil {
			logg.Error(context.Background(), "failed to mint token", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	dir := cfg.Notifications.FileDir
	if *dirFlag != "" {
		dir = *dirFlag
	}

	if err := run(cfg, logg, userID, dir, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "notifier stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger, userID uuid.UUID, dir string, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": dir})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	fileStore, err := kv.NewFile(dir)
	if err != nil {
		return err
	}
	loc, err := cfg.Notifications.Location()
	if err != nil {
		return err
	}
	m := metrics.NewNotificationMetrics(prometheus.NewRegistry())

	store, err := notifications.NewStore(notifications.StoreParams{
		KV:       kv.NewScoped(fileStore, cfg.Notifications.StorageKey),
		Key:      userID.String(),
		Logger:   logg,
		Metrics:  m,
		Toaster:  notifications.NewLogToaster(logg),
		Location: loc,
	})
	if err != nil {
		return err
	}
	deriver, err := notifications.NewDeriver(notifications.DeriverParams{
		Reader:   nutrition.NewRepository(dbClient.DB()),
		Logger:   logg,
		Metrics:  m,
		Location: loc,
	})
	if err != nil {
		return err
	}

	provider := session.NewProvider()
	provider.SignIn(userID.String())

	engine, err := notifications.NewEngine(notifications.EngineParams{
		UserID:   userID,
		Store:    store,
		Deriver:  deriver,
		Session:  provider,
		Logger:   logg,
		Interval: cfg.Notifications.Interval,
	})
	if err != nil {
		return err
	}

	if once {
		engine.Load(ctx)
		engine.Derive(ctx)
		snap, err := engine.FetchNotifications(ctx)
		if err != nil {
			logg.Warn(ctx, "goal check failed")
		}
		return printSnapshot(snap)
	}

	logg.Info(ctx, "starting notifier")
	err = engine.Run(ctx)
	provider.SignOut()
	if printErr := printSnapshot(engine.Snapshot()); printErr != nil {
		logg.Error(context.Background(), "failed to print notifications", printErr)
	}
	return err
}

func printSnapshot(snap notifications.Snapshot) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
