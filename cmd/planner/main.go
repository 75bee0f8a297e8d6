package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-planner/internal/common/config"
	"room-planner/internal/common/logger"
	"room-planner/internal/common/middleware"
	"room-planner/internal/planner/editor"
	"room-planner/internal/planner/furniture"
	"room-planner/internal/planner/handlers"
	"room-planner/internal/planner/mapper"
	"room-planner/internal/planner/project"
	"room-planner/internal/planner/repository"
	"room-planner/internal/planner/service"
	"room-planner/internal/planner/vastu"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// Room Planner Service
// ============================================================

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		zlog.Fatal("open db", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()

	repo := repository.New(db, zlog.Named("repository"))
	if err := repo.Init(context.Background()); err != nil {
		zlog.Fatal("init db", zap.Error(err))
	}

	rules, err := vastu.Default()
	if err != nil {
		zlog.Fatal("load vastu catalogue", zap.Error(err))
	}
	furnitureCatalog, err := furniture.Default()
	if err != nil {
		zlog.Fatal("load furniture catalogue", zap.Error(err))
	}

	opts, err := projectOptions(cfg)
	if err != nil {
		zlog.Fatal("invalid planner config", zap.Error(err))
	}
	opts.Catalog = furnitureCatalog

	workspaces := service.NewWorkspaces(opts, repo, zlog.Named("workspaces"))
	plannerHandler := handlers.NewPlannerHandler(workspaces, rules, furnitureCatalog, zlog.Named("handlers"))
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Room Planner",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger(zlog))
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	healthHandler.Register(app)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Room Planner v1",
			"status":  "ok",
		})
	})

	plannerHandler.Register(api)
	healthHandler.MarkStarted()

	// ============================================================
	// Server Start
	// ============================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%s", cfg.Port)
	go func() {
		zlog.Info("starting room planner",
			zap.String("addr", addr),
			zap.String("env", cfg.Environment),
			zap.String("db", cfg.DBPath),
		)
		if err := app.Listen(addr); err != nil {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	saveOpen(workspaces, zlog)
}

// projectOptions переводит конфиг в параметры новых проектов.
func projectOptions(cfg *config.Config) (project.Options, error) {
	opts := project.DefaultOptions()
	opts.Editor = editor.Config{
		CanvasWidth:  cfg.Editor.CanvasWidth,
		CanvasHeight: cfg.Editor.CanvasHeight,
		GridSize:     cfg.Editor.GridSize,
		NodeRadius:   cfg.Editor.NodeRadius,
		HitRadius:    cfg.Editor.HitRadius,
	}
	if err := opts.Editor.Validate(); err != nil {
		return opts, err
	}
	opts.Tolerance = cfg.Editor.SnapTolerance
	opts.WallHeight = cfg.Scene.WallHeight

	var err error
	if cfg.Scene.RoomWidth > 0 && cfg.Scene.RoomDepth > 0 {
		opts.Mapper, err = mapper.FitCanvas(cfg.Editor.CanvasWidth, cfg.Editor.CanvasHeight, cfg.Scene.RoomWidth, cfg.Scene.RoomDepth)
	} else {
		opts.Mapper, err = mapper.New(cfg.Scene.ScaleFactor, cfg.Scene.OffsetX, cfg.Scene.OffsetY)
	}
	return opts, err
}

// saveOpen сохраняет открытые проекты перед выходом; неизменённые не переписываются.
func saveOpen(workspaces *service.Workspaces, zlog *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, id := range workspaces.Open() {
		if _, err := workspaces.Save(ctx, id); err != nil {
			zlog.Error("save on shutdown", zap.String("project", id), zap.Error(err))
		}
	}
}
