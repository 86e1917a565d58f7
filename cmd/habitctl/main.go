package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/xyz-asif/habitstreak/internal/cli"
	"github.com/xyz-asif/habitstreak/internal/config"
	"github.com/xyz-asif/habitstreak/internal/database"
	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/features/habits"
	"github.com/xyz-asif/habitstreak/internal/pkg/cache"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
)

var CLI struct {
	Version kong.VersionFlag

	Streaks struct {
		Refresh cli.StreaksRefreshCmd `cmd:"" help:"Reset current streaks that were broken by a missed day."`
	} `cmd:"" help:"Streak maintenance."`

	Habits struct {
		Featured cli.HabitsFeaturedCmd `cmd:"" help:"Show the featured ranking."`
		List     cli.HabitsListCmd     `cmd:"" help:"List public habits or one owner's habits."`
		Show     cli.HabitsShowCmd     `cmd:"" help:"Print one habit as JSON."`
	} `cmd:"" help:"Inspect habits."`

	Reminders struct {
		Due cli.RemindersDueCmd `cmd:"" help:"List habits whose reminder is due."`
	} `cmd:"" help:"Reminder diagnostics."`

	Token struct {
		Issue cli.TokenIssueCmd `cmd:"" help:"Sign a development bearer token."`
	} `cmd:"" help:"Development tokens."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Operator tool for the habit tracker"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: "warn"})

	ctx := context.Background()

	var store habits.Store
	if cfg.UsesMemoryStore() {
		store = habits.NewMemoryStore()
	} else {
		db, err := database.Connect(ctx, database.Config{URI: cfg.MongoURI, DBName: cfg.MongoDB, Timeout: cfg.MongoTimeout()})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Disconnect(context.Background())
		store = habits.NewRepository(db.Database)
	}

	// Same featured cache as the API server.
	var habitCache habits.Cache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Warn("Redis unavailable: %v", err)
		} else {
			defer client.Close()
			habitCache = cache.New(client, "habitstreak:")
		}
	}

	var dev *auth.DevTokenVerifier
	if cfg.DevLoginAllowed() {
		dev = &auth.DevTokenVerifier{Secret: cfg.DevTokenSecret, TTL: cfg.DevTokenTTL()}
	}

	appCtx := &cli.Context{
		Ctx: ctx,
		Service: habits.NewService(store, habitCache, nil, habits.ServiceConfig{
			Location:      cfg.Location(),
			FeaturedCount: cfg.FeaturedCount,
		}),
		Dev: dev,
		Out: os.Stdout,
	}

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
