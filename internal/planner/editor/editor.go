package editor

import (
	"fmt"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/ledger"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/shape"
)

// ============================================================
// Editor State Machine
// ============================================================

type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config задаёт геометрию холста редактора в пикселях.
type Config struct {
	CanvasWidth  float64 `json:"canvasWidth" yaml:"canvas_width"`
	CanvasHeight float64 `json:"canvasHeight" yaml:"canvas_height"`
	GridSize     float64 `json:"gridSize" yaml:"grid_size"`
	NodeRadius   float64 `json:"nodeRadius" yaml:"node_radius"`
	HitRadius    float64 `json:"hitRadius" yaml:"hit_radius"`
}

func DefaultConfig() Config {
	return Config{
		CanvasWidth:  400,
		CanvasHeight: 300,
		GridSize:     20,
		NodeRadius:   6,
		HitRadius:    8,
	}
}

func (c Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("%w: grid size must be positive, got %v", models.ErrInvalidArgument, c.GridSize)
	}
	if c.NodeRadius < 0 || c.HitRadius < 0 {
		return fmt.Errorf("%w: radii must not be negative", models.ErrInvalidArgument)
	}
	if c.CanvasWidth <= 2*c.NodeRadius || c.CanvasHeight <= 2*c.NodeRadius {
		return fmt.Errorf("%w: canvas %vx%v too small for node radius %v",
			models.ErrInvalidArgument, c.CanvasWidth, c.CanvasHeight, c.NodeRadius)
	}
	return nil
}

// EmptyShapeSeed - первая точка, которую AddNode ставит в пустой контур.
var EmptyShapeSeed = models.Point2D{X: 100, Y: 100}

// Editor переводит жесты указателя в изменения контура комнаты.
// Выделение мебели хранится только как id и сбрасывается при удалении предмета.
type Editor struct {
	cfg     Config
	store   *shape.Store
	ledger  *ledger.Ledger
	state   State
	session models.EditorSession

	dragIndex int
	dragOff   models.Point2D

	unsubscribe []func()
}

func New(cfg Config, store *shape.Store, l *ledger.Ledger) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || l == nil {
		return nil, fmt.Errorf("%w: editor needs a shape store and a ledger", models.ErrInvalidArgument)
	}

	e := &Editor{
		cfg:    cfg,
		store:  store,
		ledger: l,
		state:  StateIdle,
		session: models.EditorSession{
			EditingEnabled: true,
			SnapToGrid:     true,
		},
	}
	e.unsubscribe = append(e.unsubscribe,
		store.Subscribe(e.onShapeChange),
		l.Subscribe(e.onLedgerChange),
	)
	return e, nil
}

// Close отписывает редактор от store и ledger.
func (e *Editor) Close() {
	for _, u := range e.unsubscribe {
		u()
	}
	e.unsubscribe = nil
}

func (e *Editor) Config() Config { return e.cfg }

func (e *Editor) State() State { return e.state }

// Session возвращает копию состояния сессии.
func (e *Editor) Session() models.EditorSession {
	s := e.session
	if s.SelectedNodeIndex != nil {
		idx := *s.SelectedNodeIndex
		s.SelectedNodeIndex = &idx
	}
	if s.DragOffset != nil {
		off := *s.DragOffset
		s.DragOffset = &off
	}
	return s
}

// SetEditing включает или выключает редактирование. Выключение прерывает перетаскивание.
func (e *Editor) SetEditing(enabled bool) {
	e.session.EditingEnabled = enabled
	if !enabled {
		e.endDrag()
	}
}

func (e *Editor) SetSnapToGrid(enabled bool) {
	e.session.SnapToGrid = enabled
}

// ============================================================
// Gestures
// ============================================================

// PointerDown захватывает первый узел (по порядку индексов) в радиусе попадания.
// Без попадания состояние не меняется.
func (e *Editor) PointerDown(p models.Point2D) bool {
	if !e.session.EditingEnabled || e.state != StateIdle {
		return false
	}

	for i, node := range e.store.Points() {
		if !geometry.IsWithinRadius(p, node, e.cfg.HitRadius) {
			continue
		}
		e.state = StateDragging
		e.dragIndex = i
		e.dragOff = p.Sub(node)
		e.selectNode(i)
		off := e.dragOff
		e.session.DragOffset = &off
		return true
	}
	return false
}

// PointerMove двигает захваченный узел: смещение, привязка к сетке, ограничение холстом.
func (e *Editor) PointerMove(p models.Point2D) (bool, error) {
	if !e.session.EditingEnabled || e.state != StateDragging {
		return false, nil
	}

	candidate := p.Sub(e.dragOff)
	if e.session.SnapToGrid {
		snapped, err := geometry.Snap(candidate, e.cfg.GridSize)
		if err != nil {
			return false, err
		}
		candidate = snapped
	}
	candidate = e.clampToCanvas(candidate)

	if err := e.store.MoveNode(e.dragIndex, candidate); err != nil {
		e.endDrag()
		return false, err
	}
	return true, nil
}

func (e *Editor) PointerUp() {
	e.endDrag()
}

func (e *Editor) PointerLeave() {
	e.endDrag()
}

// DoubleClick вставляет точку клика в ближайшее ребро. Возвращает индекс нового узла
// или -1, если жест проигнорирован.
func (e *Editor) DoubleClick(p models.Point2D) (int, error) {
	if !e.session.EditingEnabled || e.state != StateIdle {
		return -1, nil
	}

	if e.session.SnapToGrid {
		snapped, err := geometry.Snap(p, e.cfg.GridSize)
		if err != nil {
			return -1, err
		}
		p = snapped
	}
	p = e.clampToCanvas(p)

	// Узел встаёт в ближайшее ребро, а не в конец контура, чтобы контур
	// не перерезал комнату.
	index := e.store.Len()
	if e.store.Len() >= 2 {
		edge, err := e.store.NearestEdge(p)
		if err != nil {
			return -1, err
		}
		index = edge + 1
	}

	if err := e.store.InsertAt(index, p); err != nil {
		return -1, err
	}
	return index, nil
}

// AddNode вставляет середину самого длинного ребра. Пустой контур получает EmptyShapeSeed.
func (e *Editor) AddNode() (int, error) {
	if !e.session.EditingEnabled || e.state != StateIdle {
		return -1, nil
	}

	if e.store.Len() == 0 {
		if err := e.store.InsertAt(0, EmptyShapeSeed); err != nil {
			return -1, err
		}
		return 0, nil
	}

	edge, mid, err := e.store.LongestEdgeMidpoint()
	if err != nil {
		return -1, err
	}
	if err := e.store.InsertAt(edge+1, mid); err != nil {
		return -1, err
	}
	return edge + 1, nil
}

// RemoveSelectedNode удаляет выделенный узел. Без выделения или при контуре
// из трёх точек ничего не делает и возвращает false.
func (e *Editor) RemoveSelectedNode() bool {
	if !e.session.EditingEnabled || e.state != StateIdle || e.session.SelectedNodeIndex == nil {
		return false
	}
	if err := e.store.RemoveNode(*e.session.SelectedNodeIndex); err != nil {
		return false
	}
	e.session.SelectedNodeIndex = nil
	return true
}

// SelectNode выделяет узел без перетаскивания.
func (e *Editor) SelectNode(index int) error {
	if _, err := e.store.At(index); err != nil {
		return err
	}
	e.selectNode(index)
	return nil
}

func (e *Editor) ClearNodeSelection() {
	e.session.SelectedNodeIndex = nil
}

// ============================================================
// Furniture selection
// ============================================================

func (e *Editor) SelectFurniture(id string) error {
	if _, ok := e.ledger.Get(id); !ok {
		return fmt.Errorf("%w: furniture %s", models.ErrNotFound, id)
	}
	e.session.SelectedFurnitureID = id
	return nil
}

func (e *Editor) ClearFurnitureSelection() {
	e.session.SelectedFurnitureID = ""
}

// SelectedFurniture разрешает слабую ссылку на выделенный предмет.
func (e *Editor) SelectedFurniture() (models.FurnitureInstance, bool) {
	if e.session.SelectedFurnitureID == "" {
		return models.FurnitureInstance{}, false
	}
	return e.ledger.Get(e.session.SelectedFurnitureID)
}

// ============================================================
// Observers
// ============================================================

// onShapeChange сдвигает выделение вслед за вставками и удалениями,
// сделанными в обход редактора.
func (e *Editor) onShapeChange(ev shape.Event) {
	if ev.Op == shape.OpSet {
		e.endDrag()
		e.session.SelectedNodeIndex = nil
		return
	}

	// Перетаскиваемый узел отслеживается отдельно от выделения: выделение
	// можно снять посреди жеста.
	if e.state == StateDragging {
		switch {
		case ev.Op == shape.OpInsert && ev.Index <= e.dragIndex:
			e.dragIndex++
		case ev.Op == shape.OpRemove && ev.Index == e.dragIndex:
			e.endDrag()
		case ev.Op == shape.OpRemove && ev.Index < e.dragIndex:
			e.dragIndex--
		}
	}

	sel := e.session.SelectedNodeIndex
	if sel == nil {
		return
	}
	switch {
	case ev.Op == shape.OpInsert && ev.Index <= *sel:
		e.selectNode(*sel + 1)
	case ev.Op == shape.OpRemove && ev.Index == *sel:
		e.session.SelectedNodeIndex = nil
	case ev.Op == shape.OpRemove && ev.Index < *sel:
		e.selectNode(*sel - 1)
	}
}

func (e *Editor) onLedgerChange(ev ledger.Event) {
	id := e.session.SelectedFurnitureID
	if id == "" {
		return
	}
	switch ev.Op {
	case ledger.OpRemove:
		if ev.ID == id {
			e.session.SelectedFurnitureID = ""
		}
	case ledger.OpReplace:
		if _, ok := e.ledger.Get(id); !ok {
			e.session.SelectedFurnitureID = ""
		}
	}
}

// ============================================================
// Helpers
// ============================================================

func (e *Editor) selectNode(i int) {
	e.session.SelectedNodeIndex = &i
}

func (e *Editor) endDrag() {
	e.state = StateIdle
	e.dragOff = models.Point2D{}
	e.session.DragOffset = nil
}

func (e *Editor) clampToCanvas(p models.Point2D) models.Point2D {
	r := e.cfg.NodeRadius
	return models.Point2D{
		X: geometry.Clamp(p.X, r, e.cfg.CanvasWidth-r),
		Y: geometry.Clamp(p.Y, r, e.cfg.CanvasHeight-r),
	}
}
