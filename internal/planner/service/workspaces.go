package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"room-planner/internal/planner/models"
	"room-planner/internal/planner/project"
)

// ============================================================
// Workspace Manager
// ============================================================

// SnapshotStore - постоянное хранилище снимков проектов.
type SnapshotStore interface {
	Save(ctx context.Context, snap models.ProjectSnapshot, fingerprint string) (bool, error)
	Get(ctx context.Context, id string) (models.ProjectSnapshot, string, error)
	List(ctx context.Context) ([]models.ProjectSummary, error)
	Delete(ctx context.Context, id string) error
}

// Workspaces держит открытые проекты. Каждый проект защищён своим мьютексом,
// так что запросы к одному проекту выполняются по очереди.
type Workspaces struct {
	mu      sync.Mutex
	entries map[string]*entry

	opts project.Options
	repo SnapshotStore
	log  *zap.Logger
}

type entry struct {
	mu sync.Mutex
	ws *project.Workspace
}

func NewWorkspaces(opts project.Options, repo SnapshotStore, log *zap.Logger) *Workspaces {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workspaces{
		entries: make(map[string]*entry),
		opts:    opts,
		repo:    repo,
		log:     log,
	}
}

type CreateParams struct {
	Name         string                     `json:"name"`
	RoomType     string                     `json:"roomType"`
	Shape        []models.Point2D           `json:"shape"`
	Furniture    []models.FurnitureInstance `json:"furniture"`
	SeedDefaults bool                       `json:"seedDefaults"`
}

// Create открывает новый проект. Без контура берётся DefaultShape.
func (m *Workspaces) Create(p CreateParams) (models.ProjectSnapshot, error) {
	points := p.Shape
	if points == nil {
		points = project.DefaultShape()
	}

	ws, err := project.New(uuid.NewString(), p.Name, p.RoomType, points, m.opts)
	if err != nil {
		return models.ProjectSnapshot{}, err
	}
	if len(p.Furniture) > 0 {
		if err := ws.Ledger.Replace(p.Furniture); err != nil {
			ws.Close()
			return models.ProjectSnapshot{}, err
		}
	}
	if p.SeedDefaults {
		if _, err := ws.Ledger.SeedDefaults(ws.RoomType); err != nil {
			ws.Close()
			return models.ProjectSnapshot{}, err
		}
	}

	m.mu.Lock()
	m.entries[ws.ID] = &entry{ws: ws}
	m.mu.Unlock()

	m.log.Info("project created",
		zap.String("project", ws.ID),
		zap.String("room_type", ws.RoomType),
		zap.Int("nodes", ws.Shape.Len()),
		zap.Int("furniture", ws.Ledger.Len()),
	)
	return ws.Snapshot(), nil
}

// With выполняет fn под блокировкой проекта. Проект, которого нет в памяти,
// поднимается из хранилища.
func (m *Workspaces) With(ctx context.Context, id string, fn func(*project.Workspace) error) error {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ws)
}

// Close выгружает проект из памяти; несохранённые изменения теряются.
func (m *Workspaces) Close(id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: project %s", models.ErrNotFound, id)
	}
	e.mu.Lock()
	e.ws.Close()
	e.mu.Unlock()
	return nil
}

// Delete закрывает проект и удаляет его сохранённую копию. Проект, которого
// нет ни в памяти, ни в хранилище, даёт ErrNotFound.
func (m *Workspaces) Delete(ctx context.Context, id string) error {
	closeErr := m.Close(id)
	wasOpen := closeErr == nil

	if m.repo == nil {
		return closeErr
	}
	err := m.repo.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound) && wasOpen:
		// проект так и не сохраняли
	default:
		return err
	}

	m.log.Info("project deleted", zap.String("project", id), zap.Bool("was_open", wasOpen))
	return nil
}

// Open возвращает id открытых проектов по возрастанию.
func (m *Workspaces) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ============================================================
// Persistence
// ============================================================

type SaveResult struct {
	ID          string `json:"id"`
	Changed     bool   `json:"changed"`
	Fingerprint string `json:"fingerprint"`
}

var ErrNoStore = errors.New("persistence is not configured")

func (m *Workspaces) Save(ctx context.Context, id string) (SaveResult, error) {
	if m.repo == nil {
		return SaveResult{}, ErrNoStore
	}

	// Запись идёт под блокировкой проекта: иначе более старый снимок
	// может перезаписать более новый.
	var (
		fp      string
		changed bool
	)
	err := m.With(ctx, id, func(ws *project.Workspace) error {
		snap := ws.Snapshot()
		var err error
		if fp, err = project.Fingerprint(snap); err != nil {
			return err
		}
		changed, err = m.repo.Save(ctx, snap, fp)
		if err != nil {
			m.log.Error("save failed", zap.String("project", id), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{ID: id, Changed: changed, Fingerprint: fp}, nil
}

// Restore перечитывает последний сохранённый снимок, отбрасывая изменения в памяти.
func (m *Workspaces) Restore(ctx context.Context, id string) (models.ProjectSnapshot, error) {
	if m.repo == nil {
		return models.ProjectSnapshot{}, ErrNoStore
	}

	snap, _, err := m.repo.Get(ctx, id)
	if err != nil {
		return models.ProjectSnapshot{}, err
	}

	var out models.ProjectSnapshot
	err = m.With(ctx, id, func(ws *project.Workspace) error {
		if err := ws.Restore(snap); err != nil {
			return err
		}
		out = ws.Snapshot()
		return nil
	})
	if err != nil {
		return models.ProjectSnapshot{}, err
	}

	m.log.Info("project restored", zap.String("project", id))
	return out, nil
}

// List объединяет сохранённые проекты и открытые, но ещё не сохранённые.
func (m *Workspaces) List(ctx context.Context) ([]models.ProjectSummary, error) {
	open := m.Open()

	var saved []models.ProjectSummary
	if m.repo != nil {
		var err error
		saved, err = m.repo.List(ctx)
		if err != nil {
			return nil, err
		}
	}

	known := make(map[string]struct{}, len(saved))
	for _, s := range saved {
		known[s.ID] = struct{}{}
	}

	out := append([]models.ProjectSummary{}, saved...)
	for _, id := range open {
		if _, ok := known[id]; ok {
			continue
		}
		err := m.With(ctx, id, func(ws *project.Workspace) error {
			snap := ws.Snapshot()
			out = append(out, models.ProjectSummary{
				ID:        snap.ID,
				Name:      snap.Name,
				RoomType:  snap.RoomType,
				UpdatedAt: snap.UpdatedAt,
			})
			return nil
		})
		if err != nil {
			// проект закрыли между Open и With
			m.log.Warn("list: project unavailable", zap.String("project", id), zap.Error(err))
		}
	}
	return out, nil
}

// ============================================================
// Helpers
// ============================================================

func (m *Workspaces) lookup(ctx context.Context, id string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	if m.repo == nil {
		return nil, fmt.Errorf("%w: project %s", models.ErrNotFound, id)
	}

	snap, _, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ws, err := project.New(id, snap.Name, snap.RoomType, nil, m.opts)
	if err != nil {
		return nil, err
	}
	if err := ws.Restore(snap); err != nil {
		ws.Close()
		return nil, err
	}

	e := &entry{ws: ws}
	m.entries[id] = e
	m.log.Info("project loaded", zap.String("project", id))
	return e, nil
}
