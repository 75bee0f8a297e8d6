package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string       `yaml:"port"`
	Environment  string       `yaml:"env"`
	ReadTimeout  int          `yaml:"read_timeout"`
	WriteTimeout int          `yaml:"write_timeout"`
	LogLevel     string       `yaml:"log_level"`
	DBPath       string       `yaml:"db_path"`
	CORSOrigins  []string     `yaml:"cors_origins"`
	Editor       EditorConfig `yaml:"editor"`
	Scene        SceneConfig  `yaml:"scene"`
}

// EditorConfig - холст 2D редактора в пикселях.
type EditorConfig struct {
	CanvasWidth   float64 `yaml:"canvas_width"`
	CanvasHeight  float64 `yaml:"canvas_height"`
	GridSize      float64 `yaml:"grid_size"`
	NodeRadius    float64 `yaml:"node_radius"`
	HitRadius     float64 `yaml:"hit_radius"`
	SnapTolerance float64 `yaml:"snap_tolerance"`
}

// SceneConfig задаёт перевод пикселей в единицы сцены. Если RoomWidth и
// RoomDepth больше нуля, масштаб и смещение вычисляются по холсту.
type SceneConfig struct {
	ScaleFactor float64 `yaml:"scale_factor"`
	OffsetX     float64 `yaml:"offset_x"`
	OffsetY     float64 `yaml:"offset_y"`
	WallHeight  float64 `yaml:"wall_height"`
	RoomWidth   float64 `yaml:"room_width"`
	RoomDepth   float64 `yaml:"room_depth"`
}

func Default() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		LogLevel:     "info",
		DBPath:       "data/db/planner.db",
		CORSOrigins:  []string{"*"},
		Editor: EditorConfig{
			CanvasWidth:   400,
			CanvasHeight:  300,
			GridSize:      20,
			NodeRadius:    6,
			HitRadius:     8,
			SnapTolerance: 1,
		},
		Scene: SceneConfig{
			ScaleFactor: 10,
			OffsetX:     200,
			OffsetY:     150,
			WallHeight:  3,
		},
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML файл из
// PLANNER_CONFIG (если задан), затем переменные окружения.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("PLANNER_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DBPath = getEnv("PLANNER_DB_PATH", cfg.DBPath)
	cfg.CORSOrigins = getEnvAsList("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.Editor.CanvasWidth = getEnvAsFloat("EDITOR_CANVAS_WIDTH", cfg.Editor.CanvasWidth)
	cfg.Editor.CanvasHeight = getEnvAsFloat("EDITOR_CANVAS_HEIGHT", cfg.Editor.CanvasHeight)
	cfg.Editor.GridSize = getEnvAsFloat("EDITOR_GRID_SIZE", cfg.Editor.GridSize)
	cfg.Editor.NodeRadius = getEnvAsFloat("EDITOR_NODE_RADIUS", cfg.Editor.NodeRadius)
	cfg.Editor.HitRadius = getEnvAsFloat("EDITOR_HIT_RADIUS", cfg.Editor.HitRadius)
	cfg.Editor.SnapTolerance = getEnvAsFloat("EDITOR_SNAP_TOLERANCE", cfg.Editor.SnapTolerance)

	cfg.Scene.ScaleFactor = getEnvAsFloat("SCENE_SCALE_FACTOR", cfg.Scene.ScaleFactor)
	cfg.Scene.OffsetX = getEnvAsFloat("SCENE_OFFSET_X", cfg.Scene.OffsetX)
	cfg.Scene.OffsetY = getEnvAsFloat("SCENE_OFFSET_Y", cfg.Scene.OffsetY)
	cfg.Scene.WallHeight = getEnvAsFloat("SCENE_WALL_HEIGHT", cfg.Scene.WallHeight)
	cfg.Scene.RoomWidth = getEnvAsFloat("SCENE_ROOM_WIDTH", cfg.Scene.RoomWidth)
	cfg.Scene.RoomDepth = getEnvAsFloat("SCENE_ROOM_DEPTH", cfg.Scene.RoomDepth)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	// поля, которых нет в файле, сохраняют текущие значения
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsList читает список через запятую; пустые элементы отбрасываются.
func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
