package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"room-planner/internal/planner/models"
)

// ============================================================
// Renderer
// ============================================================

// Renderer рисует план редактора (сетка, контур, узлы, мебель) как SVG документ.
type Renderer struct {
	mapper     *Mapper
	width      float64
	height     float64
	gridSize   float64
	nodeRadius float64
}

func NewRenderer(m *Mapper, width, height, gridSize, nodeRadius float64) *Renderer {
	return &Renderer{
		mapper:     m,
		width:      width,
		height:     height,
		gridSize:   gridSize,
		nodeRadius: nodeRadius,
	}
}

type Plan struct {
	Shape        []models.Point2D
	Furniture    []models.FurnitureInstance
	ShowNodes    bool
	SelectedNode *int
}

func (r *Renderer) Render(plan Plan) (string, error) {
	if r.width <= 0 || r.height <= 0 {
		return "", fmt.Errorf("%w: canvas %vx%v", models.ErrInvalidArgument, r.width, r.height)
	}

	var elements []string
	elements = append(elements, r.renderGrid()...)
	elements = append(elements, r.renderOutline(plan.Shape)...)
	if plan.ShowNodes {
		elements = append(elements, r.renderNodes(plan.Shape, plan.SelectedNode)...)
	}
	elements = append(elements, r.renderFurniture(plan.Furniture)...)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(r.width), formatFloat(r.height), formatFloat(r.width), formatFloat(r.height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) renderGrid() []string {
	if r.gridSize <= 0 {
		return nil
	}
	g := formatFloat(r.gridSize)
	return []string{
		fmt.Sprintf(`<defs><pattern id="grid" width="%s" height="%s" patternUnits="userSpaceOnUse"><path d="M %s 0 L 0 0 0 %s" fill="none" stroke="rgba(59, 130, 246, 0.1)" stroke-width="1" /></pattern></defs>`, g, g, g, g),
		`<rect width="100%" height="100%" fill="url(#grid)" />`,
	}
}

func (r *Renderer) renderOutline(points []models.Point2D) []string {
	if len(points) < 3 {
		return nil
	}
	return []string{
		fmt.Sprintf(`<path id="room" d="%s" fill="rgba(59, 130, 246, 0.1)" stroke="#3B82F6" stroke-width="2" stroke-dasharray="5,5" />`, PathData(points)),
	}
}

func (r *Renderer) renderNodes(points []models.Point2D, selected *int) []string {
	out := make([]string, 0, len(points))
	for i, p := range points {
		fill := "#3B82F6"
		if selected != nil && *selected == i {
			fill = "#1D4ED8"
		}
		out = append(out, fmt.Sprintf(`<circle id="node-%d" cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="2" />`,
			i, formatFloat(p.X), formatFloat(p.Y), formatFloat(r.nodeRadius), fill))
	}
	return out
}

func (r *Renderer) renderFurniture(items []models.FurnitureInstance) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		corners := r.mapper.Footprint(item)
		stroke := item.Color
		if stroke == "" {
			stroke = "#22C55E"
		}
		out = append(out, fmt.Sprintf(`<path id="%s" data-model="%s" d="%s" fill="rgba(34, 197, 94, 0.3)" stroke="%s" stroke-width="1" />`,
			escapeAttr(item.ID), escapeAttr(item.ModelRef), PathData(corners), escapeAttr(stroke)))
	}
	return out
}

// ============================================================
// Formatting helpers
// ============================================================

// PathData кодирует замкнутый контур в SVG path ("M x y L x y ... Z").
func PathData(points []models.Point2D) string {
	if len(points) == 0 {
		return ""
	}
	var path strings.Builder
	path.WriteString("M ")
	path.WriteString(formatPoint(points[0]))
	for _, p := range points[1:] {
		path.WriteString(" L ")
		path.WriteString(formatPoint(p))
	}
	path.WriteString(" Z")
	return path.String()
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point2D) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
