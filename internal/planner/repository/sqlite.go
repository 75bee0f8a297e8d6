package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"room-planner/internal/planner/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{db: db, log: log}
}

// Init применяет встроенные миграции по порядку имён файлов.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Save записывает снимок проекта. Если отпечаток не изменился, запись
// пропускается и возвращается false.
func (r *Repository) Save(ctx context.Context, snap models.ProjectSnapshot, fingerprint string) (bool, error) {
	if snap.ID == "" {
		return false, fmt.Errorf("%w: project id is empty", models.ErrInvalidArgument)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT fingerprint FROM projects WHERE id = ?`, snap.ID).Scan(&current)
	switch {
	case err == nil && current == fingerprint:
		r.log.Debug("snapshot unchanged", zap.String("project", snap.ID), zap.String("fingerprint", fingerprint))
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("read fingerprint: %w", err)
	}

	shapeJSON, err := marshalList(snap.RoomShape)
	if err != nil {
		return false, err
	}
	furnitureJSON, err := marshalList(snap.Furniture)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO projects (id, name, room_type, room_shape, furniture, fingerprint, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            room_type = excluded.room_type,
            room_shape = excluded.room_shape,
            furniture = excluded.furniture,
            fingerprint = excluded.fingerprint,
            updated_at = excluded.updated_at
    `, snap.ID, snap.Name, snap.RoomType, shapeJSON, furnitureJSON, fingerprint, snap.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("save project %s: %w", snap.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit project %s: %w", snap.ID, err)
	}

	r.log.Info("snapshot saved",
		zap.String("project", snap.ID),
		zap.String("fingerprint", fingerprint),
		zap.Int("nodes", len(snap.RoomShape)),
		zap.Int("furniture", len(snap.Furniture)),
	)
	return true, nil
}

func (r *Repository) Get(ctx context.Context, id string) (models.ProjectSnapshot, string, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, room_type, room_shape, furniture, fingerprint, updated_at
        FROM projects
        WHERE id = ?
    `, id)

	var (
		snap                     models.ProjectSnapshot
		shapeJSON, furnitureJSON string
		fingerprint              string
	)
	if err := row.Scan(&snap.ID, &snap.Name, &snap.RoomType, &shapeJSON, &furnitureJSON, &fingerprint, &snap.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ProjectSnapshot{}, "", fmt.Errorf("%w: project %s", models.ErrNotFound, id)
		}
		return models.ProjectSnapshot{}, "", err
	}

	if err := json.Unmarshal([]byte(shapeJSON), &snap.RoomShape); err != nil {
		return models.ProjectSnapshot{}, "", fmt.Errorf("decode room shape of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(furnitureJSON), &snap.Furniture); err != nil {
		return models.ProjectSnapshot{}, "", fmt.Errorf("decode furniture of %s: %w", id, err)
	}
	return snap, fingerprint, nil
}

// List возвращает сохранённые проекты, последние изменённые первыми.
func (r *Repository) List(ctx context.Context) ([]models.ProjectSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, room_type, fingerprint, updated_at
        FROM projects
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []models.ProjectSummary{}
	for rows.Next() {
		var s models.ProjectSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.RoomType, &s.Fingerprint, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, id)
	}
	return nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		r.log.Debug("migration applied", zap.String("file", name))
	}
	return nil
}

func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(data), nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
