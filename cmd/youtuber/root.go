package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/xingyangJP/youtuberGCP/internal/config"
	"github.com/xingyangJP/youtuberGCP/pkg/lifecycle"
	"github.com/xingyangJP/youtuberGCP/pkg/meta"
	"github.com/xingyangJP/youtuberGCP/pkg/prompt"
	"github.com/xingyangJP/youtuberGCP/pkg/scheduler"
	"github.com/xingyangJP/youtuberGCP/pkg/sora"
	"github.com/xingyangJP/youtuberGCP/pkg/storage"
	"github.com/xingyangJP/youtuberGCP/pkg/youtube"
)

// app holds the wired services shared by all commands.
type app struct {
	cfg     *config.Config
	store   *storage.GormStore
	manager *lifecycle.Manager
	sched   *scheduler.Scheduler
	metas   *meta.Builder
	sora    *sora.Client
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "youtuber",
		Short:         "AI short-video generation and scheduled YouTube publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newRunScheduleCmd(),
		newDispatchCmd(),
		newPollCmd(),
		newRetryUploadsCmd(),
		newMigrateCmd(),
	)
	return root
}

// buildApp loads configuration, opens the database, runs migrations, and
// wires the domain services.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := storage.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	soraClient := sora.NewClient(sora.Config{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.SoraModel,
		TextModel: cfg.TextModel,
	})

	uploader := youtube.NewUploader(youtube.Config{
		ClientID:     cfg.YouTubeClientID,
		ClientSecret: cfg.YouTubeClientSecret,
		RefreshToken: cfg.YouTubeRefreshToken,
	})

	prompts := prompt.NewBuilder(nil)
	manager := lifecycle.NewManager(store, soraClient, uploader, prompts, cfg.PublicBaseURL)
	manager.SetLogger(logger)

	metas := meta.NewBuilder(soraClient, nil)
	metas.SetLogger(logger)

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving timezone %q: %w", cfg.Timezone, err)
	}

	sched := scheduler.New(store, manager, metas, loc, nil)
	sched.SetLogger(logger)

	return &app{
		cfg:     cfg,
		store:   store,
		manager: manager,
		sched:   sched,
		metas:   metas,
		sora:    soraClient,
		logger:  logger,
	}, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func newRunScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-schedule",
		Short: "Evaluate the posting schedule once and fire due slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.sched.Run(cmd.Context())
			if err != nil {
				return err
			}
			if result.Disabled {
				fmt.Println("scheduler disabled")
				return nil
			}
			fmt.Printf("now=%s date=%s\n", result.Now, result.Date)
			for _, r := range result.Results {
				switch {
				case r.Error != "":
					fmt.Printf("slot=%s error=%s\n", r.Slot, r.Error)
				case r.Skipped:
					fmt.Printf("slot=%s skipped (%s)\n", r.Slot, r.Reason)
				default:
					fmt.Printf("slot=%s job=%s\n", r.Slot, r.JobID)
				}
			}
			return nil
		},
	}
}

func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Submit pending jobs to the video provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.manager.Dispatch(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("processed=%d failed=%d\n", result.Processed, result.Failed)
			return nil
		},
	}
}

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Reconcile processing jobs against the provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.manager.Poll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("checked=%d completed=%d failed=%d\n", result.Checked, result.Completed, result.Failed)
			return nil
		},
	}
}

func newRetryUploadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry-uploads",
		Short: "Retry YouTube uploads for completed jobs that have not published",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.manager.RetryUploads(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("scanned=%d retried=%d succeeded=%d\n", result.Scanned, result.Retried, result.Succeeded)
			return nil
		},
	}
}
