package project

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"room-planner/internal/planner/editor"
	"room-planner/internal/planner/furniture"
	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/ledger"
	"room-planner/internal/planner/mapper"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/shape"
)

// ============================================================
// Workspace
// ============================================================

// DefaultShape - Г-образная комната, с которой открывается новый проект.
func DefaultShape() []models.Point2D {
	return []models.Point2D{
		{X: 50, Y: 50},
		{X: 350, Y: 50},
		{X: 350, Y: 200},
		{X: 200, Y: 200},
		{X: 200, Y: 250},
		{X: 50, Y: 250},
	}
}

type Options struct {
	Editor     editor.Config
	Mapper     *mapper.Mapper
	Tolerance  float64
	WallHeight float64
	// Catalog ограничивает ModelRef известными моделями; nil - без проверки.
	Catalog ledger.ModelCatalog
}

func DefaultOptions() Options {
	return Options{
		Editor:     editor.DefaultConfig(),
		Mapper:     mapper.Default(),
		Tolerance:  shape.DefaultTolerance,
		WallHeight: 3,
		Catalog:    furniture.Builtin(),
	}
}

// Workspace собирает контур, мебель, маппер и редактор одного проекта.
// Не потокобезопасен: доступ сериализует вызывающий.
type Workspace struct {
	ID       string
	Name     string
	RoomType string

	Shape  *shape.Store
	Ledger *ledger.Ledger
	Mapper *mapper.Mapper
	Editor *editor.Editor

	wallHeight float64
	updatedAt  time.Time
	revision   uint64
	now        func() time.Time

	unsubscribe []func()
}

func New(id, name, roomType string, points []models.Point2D, opts Options) (*Workspace, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: project id is empty", models.ErrInvalidArgument)
	}
	if opts.Mapper == nil {
		opts.Mapper = mapper.Default()
	}
	if opts.WallHeight <= 0 {
		opts.WallHeight = DefaultOptions().WallHeight
	}

	store := shape.NewStore(points)
	store.SetTolerance(opts.Tolerance)
	var ledgerOpts []ledger.Option
	if opts.Catalog != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithCatalog(opts.Catalog))
	}
	l := ledger.New(ledgerOpts...)

	ed, err := editor.New(opts.Editor, store, l)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		ID:         id,
		Name:       name,
		RoomType:   strings.ToLower(strings.TrimSpace(roomType)),
		Shape:      store,
		Ledger:     l,
		Mapper:     opts.Mapper,
		Editor:     ed,
		wallHeight: opts.WallHeight,
		now:        time.Now,
	}
	w.updatedAt = w.now().UTC()
	w.unsubscribe = append(w.unsubscribe,
		store.Subscribe(func(shape.Event) { w.touch() }),
		l.Subscribe(func(ledger.Event) { w.touch() }),
	)
	return w, nil
}

func (w *Workspace) Close() {
	for _, u := range w.unsubscribe {
		u()
	}
	w.unsubscribe = nil
	w.Editor.Close()
}

// Revision растёт на каждом изменении контура или мебели.
func (w *Workspace) Revision() uint64 { return w.revision }

func (w *Workspace) UpdatedAt() time.Time { return w.updatedAt }

func (w *Workspace) WallHeight() float64 { return w.wallHeight }

func (w *Workspace) touch() {
	w.revision++
	w.updatedAt = w.now().UTC()
}

// ============================================================
// Snapshot / Restore
// ============================================================

func (w *Workspace) Snapshot() models.ProjectSnapshot {
	return models.ProjectSnapshot{
		ID:        w.ID,
		Name:      w.Name,
		RoomType:  w.RoomType,
		RoomShape: w.Shape.Points(),
		Furniture: w.Ledger.List(),
		UpdatedAt: w.updatedAt.Format(time.RFC3339),
	}
}

// Restore загружает снимок. Мебель проверяется до изменения контура,
// поэтому при ошибке проект остаётся прежним.
func (w *Workspace) Restore(snap models.ProjectSnapshot) error {
	if snap.ID != "" && snap.ID != w.ID {
		return fmt.Errorf("%w: snapshot %s does not belong to project %s", models.ErrInvalidArgument, snap.ID, w.ID)
	}
	if err := w.Ledger.Replace(snap.Furniture); err != nil {
		return err
	}
	w.Shape.SetShape(snap.RoomShape)
	w.Name = snap.Name
	w.RoomType = strings.ToLower(strings.TrimSpace(snap.RoomType))
	w.Editor.ClearFurnitureSelection()
	return nil
}

// Fingerprint - xxhash канонического JSON снимка без времени изменения.
func (w *Workspace) Fingerprint() (string, error) {
	return Fingerprint(w.Snapshot())
}

func Fingerprint(snap models.ProjectSnapshot) (string, error) {
	snap.UpdatedAt = ""
	if snap.RoomShape == nil {
		snap.RoomShape = []models.Point2D{}
	}
	if snap.Furniture == nil {
		snap.Furniture = []models.FurnitureInstance{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// ============================================================
// Derived views
// ============================================================

type Scene struct {
	Room      models.RoomGeometry        `json:"room"`
	Furniture []models.FurnitureInstance `json:"furniture"`
	// Outside - id мебели, стоящей за пределами контура комнаты.
	Outside []string `json:"outside"`
}

// Scene строит 3D геометрию комнаты; wallHeight == 0 берёт высоту проекта.
func (w *Workspace) Scene(wallHeight float64) (Scene, error) {
	if wallHeight == 0 {
		wallHeight = w.wallHeight
	}
	room, err := w.Mapper.ExtrudePolygon(w.Shape.Points(), wallHeight)
	if err != nil {
		return Scene{}, err
	}
	scene := Scene{Room: room, Furniture: w.Ledger.List(), Outside: []string{}}
	for _, f := range scene.Furniture {
		if !w.InRoom(f.Position) {
			scene.Outside = append(scene.Outside, f.ID)
		}
	}
	return scene, nil
}

// InRoom проверяет, что точка сцены лежит внутри контура комнаты.
// Сначала отсекает по ограничивающему прямоугольнику, затем точный тест.
func (w *Workspace) InRoom(position models.Vector3) bool {
	points := w.Shape.Points()
	p := w.Mapper.ToEditor(position)
	return geometry.InBounds(points, p) && geometry.Contains(points, p)
}

// ShapeStats - измерения контура: площадь и периметр в пикселях и в единицах сцены.
type ShapeStats struct {
	Area       float64        `json:"area"`
	Perimeter  float64        `json:"perimeter"`
	FloorArea  float64        `json:"floorArea"`
	WallLength float64        `json:"wallLength"`
	Centroid   models.Point2D `json:"centroid"`
	Min        models.Point2D `json:"min"`
	Max        models.Point2D `json:"max"`
	Clockwise  bool           `json:"clockwise"`
}

func (w *Workspace) Measure() ShapeStats {
	points := w.Shape.Points()
	s := w.Mapper.ScaleFactor()
	lo, hi := geometry.Bounds(points)
	area := geometry.Area(points)
	perimeter := geometry.Perimeter(points)
	return ShapeStats{
		Area:       area,
		Perimeter:  perimeter,
		FloorArea:  area / (s * s),
		WallLength: perimeter / s,
		Centroid:   geometry.Centroid(points),
		Min:        lo,
		Max:        hi,
		Clockwise:  geometry.IsClockwise(points),
	}
}

// RenderSVG рисует план с узлами, если редактирование включено.
func (w *Workspace) RenderSVG() (string, error) {
	cfg := w.Editor.Config()
	session := w.Editor.Session()
	r := mapper.NewRenderer(w.Mapper, cfg.CanvasWidth, cfg.CanvasHeight, cfg.GridSize, cfg.NodeRadius)
	return r.Render(mapper.Plan{
		Shape:        w.Shape.Points(),
		Furniture:    w.Ledger.List(),
		ShowNodes:    session.EditingEnabled,
		SelectedNode: session.SelectedNodeIndex,
	})
}
