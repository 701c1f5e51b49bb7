package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnpath/backend/config"
	"learnpath/backend/controllers"
	"learnpath/backend/gamification"
	"learnpath/backend/middleware"
	"learnpath/backend/models"
	"learnpath/backend/routes"
	"learnpath/backend/scheduler"
	"learnpath/backend/services"
	"learnpath/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "learnpath",
	Short: "learnpath - gamified learning roadmaps API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logger, err = utils.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, svc, err := open()
		if err != nil {
			return err
		}
		defer closeDB(db)

		loc, _ := cfg.Location()
		jobs, err := scheduler.New(scheduler.Config{
			StreakCron:      cfg.StreakSweepCron,
			RefreshInterval: cfg.ChallengeRefreshInterval,
			Location:        loc,
		}, svc.Progress, svc.Challenges, logger.Named("scheduler"))
		if err != nil {
			return err
		}

		app := newApp(svc)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("listening", zap.String("port", cfg.ServerPort))
			return app.Listen(":" + cfg.ServerPort)
		})
		g.Go(func() error {
			jobs.Start(gctx)
			<-gctx.Done()
			jobs.Stop()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			return app.ShutdownWithTimeout(shutdownTimeout)
		})
		return g.Wait()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := open()
		if err != nil {
			return err
		}
		defer closeDB(db)
		logger.Info("schema up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the starter challenges if none exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, svc, err := open()
		if err != nil {
			return err
		}
		defer closeDB(db)
		n, err := svc.Challenges.Seed(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("seeded challenges", zap.Int("created", n))
		return nil
	},
}

var catalogCategory string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the achievement catalog as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := gamification.DefaultCatalog()
		defs := c.Definitions()
		if catalogCategory != "" {
			cat := gamification.Category(catalogCategory)
			if !cat.Valid() {
				return fmt.Errorf("unknown category %q", catalogCategory)
			}
			defs = c.ByCategory(cat)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "", "only this category")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open connects and migrates the database and builds the services.
func open() (*gorm.DB, *services.Services, error) {
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := utils.Migrate(db); err != nil {
		closeDB(db)
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		closeDB(db)
		return nil, nil, err
	}
	svc := services.New(&services.Env{
		DB:     db,
		Log:    logger.Named("services"),
		Engine: gamification.NewEngine(nil),
		Clock:  time.Now,
		Loc:    loc,
	})
	return db, svc, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newApp(svc *services.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "learnpath",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger.Named("http")))

	routes.SetupRoutes(app, controllers.Deps{
		Svc:      svc,
		Cfg:      cfg,
		Validate: utils.NewValidator(models.ValidSkin),
		Log:      logger.Named("controllers"),
	})
	return app
}
