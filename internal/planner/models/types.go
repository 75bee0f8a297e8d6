package models

// ============================================================
// Geometry primitives
// ============================================================

// Point2D - координата на холсте редактора, в пикселях.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point2D) Sub(o Point2D) Point2D {
	return Point2D{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point2D) Add(o Point2D) Point2D {
	return Point2D{X: p.X + o.X, Y: p.Y + o.Y}
}

type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vector3Patch - частичное обновление вектора; nil оси не меняются.
type Vector3Patch struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Z *float64 `json:"z,omitempty"`
}

func (p *Vector3Patch) Apply(v Vector3) Vector3 {
	if p == nil {
		return v
	}
	if p.X != nil {
		v.X = *p.X
	}
	if p.Y != nil {
		v.Y = *p.Y
	}
	if p.Z != nil {
		v.Z = *p.Z
	}
	return v
}

// ============================================================
// Furniture
// ============================================================

type FurnitureInstance struct {
	ID       string  `json:"id"`
	ModelRef string  `json:"modelRef"`
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"` // radians
	Scale    Vector3 `json:"scale"`
	Color    string  `json:"color"`
	Texture  string  `json:"texture"`
}

// FurniturePatch - поля, которые может изменить Update.
type FurniturePatch struct {
	Position *Vector3Patch `json:"position,omitempty"`
	Rotation *Vector3Patch `json:"rotation,omitempty"`
	Scale    *Vector3Patch `json:"scale,omitempty"`
	Color    *string       `json:"color,omitempty"`
	Texture  *string       `json:"texture,omitempty"`
}

func (p FurniturePatch) Empty() bool {
	return p.Position == nil && p.Rotation == nil && p.Scale == nil && p.Color == nil && p.Texture == nil
}

// ============================================================
// Editor session
// ============================================================

type EditorSession struct {
	EditingEnabled      bool     `json:"editingEnabled"`
	SelectedNodeIndex   *int     `json:"selectedNodeIndex"`
	DragOffset          *Point2D `json:"dragOffset"`
	SnapToGrid          bool     `json:"snapToGrid"`
	SelectedFurnitureID string   `json:"selectedFurnitureId,omitempty"`
}

// ============================================================
// 3D geometry
// ============================================================

// Mesh - индексированный список треугольников.
type Mesh struct {
	Vertices []Vector3 `json:"vertices"`
	Indices  []int     `json:"indices"`
}

func (m Mesh) Triangles() int {
	return len(m.Indices) / 3
}

type RoomGeometry struct {
	Floor      Mesh    `json:"floor"`
	Walls      Mesh    `json:"walls"`
	WallHeight float64 `json:"wallHeight"`
}

// ============================================================
// Project snapshot
// ============================================================

// ProjectSnapshot - плоская запись проекта для хранилища.
type ProjectSnapshot struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	RoomType  string              `json:"roomType"`
	RoomShape []Point2D           `json:"roomShape"`
	Furniture []FurnitureInstance `json:"furniture"`
	UpdatedAt string              `json:"updatedAt,omitempty"`
}

// ProjectSummary - строка списка сохранённых проектов.
type ProjectSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RoomType    string `json:"roomType"`
	Fingerprint string `json:"fingerprint"`
	UpdatedAt   string `json:"updatedAt"`
}
