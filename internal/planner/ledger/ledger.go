package ledger

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/google/uuid"

	"room-planner/internal/planner/models"
)

// ============================================================
// Furniture Placement Ledger
// ============================================================

type Op string

const (
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Event описывает применённое изменение. Для OpReplace Item пустой.
type Event struct {
	Op   Op                       `json:"op"`
	ID   string                   `json:"id,omitempty"`
	Item models.FurnitureInstance `json:"item"`
}

type Observer func(Event)

// Ledger хранит расставленную мебель в порядке добавления. Не потокобезопасен.
type Ledger struct {
	order     []string
	items     map[string]models.FurnitureInstance
	observers map[int]Observer
	nextObs   int
	newID     func() string
	catalog   ModelCatalog
}

// ModelCatalog отвечает, существует ли модель мебели с таким id.
type ModelCatalog interface {
	Has(id string) bool
}

type Option func(*Ledger)

// WithCatalog включает проверку ModelRef по каталогу моделей.
func WithCatalog(c ModelCatalog) Option {
	return func(l *Ledger) { l.catalog = c }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		items:     make(map[string]models.FurnitureInstance),
		observers: make(map[int]Observer),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add добавляет экземпляр с уже заданным id.
func (l *Ledger) Add(f models.FurnitureInstance) error {
	if f.ID == "" {
		return fmt.Errorf("%w: furniture id is empty", models.ErrInvalidArgument)
	}
	if _, exists := l.items[f.ID]; exists {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, f.ID)
	}
	if err := l.validate(f); err != nil {
		return err
	}

	l.order = append(l.order, f.ID)
	l.items[f.ID] = f
	l.notify(Event{Op: OpAdd, ID: f.ID, Item: f})
	return nil
}

// Place создаёт экземпляр модели с новым id и значениями по умолчанию.
func (l *Ledger) Place(modelRef string, position models.Vector3) (models.FurnitureInstance, error) {
	f := models.FurnitureInstance{
		ID:       l.newID(),
		ModelRef: modelRef,
		Position: position,
		Scale:    models.Vector3{X: 1, Y: 1, Z: 1},
		Color:    DefaultColor,
		Texture:  DefaultTexture,
	}
	if err := l.Add(f); err != nil {
		return models.FurnitureInstance{}, err
	}
	return f, nil
}

// Update сливает patch с экземпляром; векторы обновляются по осям.
func (l *Ledger) Update(id string, patch models.FurniturePatch) (models.FurnitureInstance, error) {
	f, ok := l.items[id]
	if !ok {
		return models.FurnitureInstance{}, fmt.Errorf("%w: furniture %s", models.ErrNotFound, id)
	}

	color, texture := f.Color, f.Texture
	if patch.Color != nil {
		color = *patch.Color
	}
	if patch.Texture != nil {
		texture = *patch.Texture
	}
	if err := validateFinish(color, texture); err != nil {
		return models.FurnitureInstance{}, err
	}

	f.Position = patch.Position.Apply(f.Position)
	f.Rotation = patch.Rotation.Apply(f.Rotation)
	f.Scale = patch.Scale.Apply(f.Scale)
	f.Color = color
	f.Texture = texture

	l.items[id] = f
	l.notify(Event{Op: OpUpdate, ID: id, Item: f})
	return f, nil
}

func (l *Ledger) Remove(id string) error {
	f, ok := l.items[id]
	if !ok {
		return fmt.Errorf("%w: furniture %s", models.ErrNotFound, id)
	}

	delete(l.items, id)
	if i := slices.Index(l.order, id); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
	l.notify(Event{Op: OpRemove, ID: id, Item: f})
	return nil
}

func (l *Ledger) Get(id string) (models.FurnitureInstance, bool) {
	f, ok := l.items[id]
	return f, ok
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// All отдаёт экземпляры в порядке добавления. Последовательность можно
// запускать повторно: каждый запуск читает текущее состояние.
func (l *Ledger) All() iter.Seq[models.FurnitureInstance] {
	return func(yield func(models.FurnitureInstance) bool) {
		order := slices.Clone(l.order)
		for _, id := range order {
			f, ok := l.items[id]
			if !ok {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// List возвращает копию содержимого.
func (l *Ledger) List() []models.FurnitureInstance {
	out := slices.Collect(l.All())
	if out == nil {
		return []models.FurnitureInstance{}
	}
	return out
}

// Replace заменяет всё содержимое (загрузка проекта). При ошибке ledger не меняется.
func (l *Ledger) Replace(items []models.FurnitureInstance) error {
	seen := make(map[string]struct{}, len(items))
	for _, f := range items {
		if f.ID == "" {
			return fmt.Errorf("%w: furniture id is empty", models.ErrInvalidArgument)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: %s", models.ErrDuplicateID, f.ID)
		}
		if err := l.validate(f); err != nil {
			return err
		}
		seen[f.ID] = struct{}{}
	}

	l.order = make([]string, 0, len(items))
	l.items = make(map[string]models.FurnitureInstance, len(items))
	for _, f := range items {
		l.order = append(l.order, f.ID)
		l.items[f.ID] = f
	}
	l.notify(Event{Op: OpReplace})
	return nil
}

// validate проверяет ссылку на модель и отделку экземпляра.
func (l *Ledger) validate(f models.FurnitureInstance) error {
	if f.ModelRef == "" {
		return fmt.Errorf("%w: furniture %s has no model reference", models.ErrInvalidArgument, f.ID)
	}
	if l.catalog != nil && !l.catalog.Has(f.ModelRef) {
		return fmt.Errorf("%w: unknown furniture model %q", models.ErrInvalidArgument, f.ModelRef)
	}
	return validateFinish(f.Color, f.Texture)
}

// SeedDefaults расставляет мебель по умолчанию для типа комнаты.
// Для неизвестного типа ничего не добавляется.
func (l *Ledger) SeedDefaults(roomType string) ([]models.FurnitureInstance, error) {
	var placed []models.FurnitureInstance
	for _, d := range DefaultsFor(roomType) {
		f, err := l.Place(d.ModelRef, d.Position)
		if err != nil {
			return placed, err
		}
		if d.Scale != f.Scale {
			f, err = l.Update(f.ID, models.FurniturePatch{
				Scale: &models.Vector3Patch{X: &d.Scale.X, Y: &d.Scale.Y, Z: &d.Scale.Z},
			})
			if err != nil {
				return placed, err
			}
		}
		placed = append(placed, f)
	}
	return placed, nil
}

// ============================================================
// Observers
// ============================================================

// Subscribe регистрирует наблюдателя; возвращает функцию отписки.
func (l *Ledger) Subscribe(o Observer) func() {
	id := l.nextObs
	l.nextObs++
	l.observers[id] = o
	return func() { delete(l.observers, id) }
}

func (l *Ledger) notify(e Event) {
	if len(l.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(l.observers))
	for id := range l.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if o, ok := l.observers[id]; ok {
			o(e)
		}
	}
}
