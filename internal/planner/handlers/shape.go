package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"room-planner/internal/planner/models"
	"room-planner/internal/planner/parser"
	"room-planner/internal/planner/project"
)

// ============================================================
// Room Shape Handlers
// ============================================================

type shapeRequest struct {
	Points []models.Point2D `json:"points"`
	Path   string           `json:"path"`
	SVG    string           `json:"svg"`
}

type shapeResponse struct {
	Points []models.Point2D   `json:"points"`
	Index  *int               `json:"index,omitempty"`
	Valid  bool               `json:"valid"`
	Stats  project.ShapeStats `json:"stats"`
}

func shapeOf(ws *project.Workspace, index *int) shapeResponse {
	return shapeResponse{Points: ws.Shape.Points(), Index: index, Valid: ws.Shape.Valid(), Stats: ws.Measure()}
}

// SetShape заменяет контур целиком: точками, SVG path или SVG документом.
func (h *PlannerHandler) SetShape(c fiber.Ctx) error {
	var req shapeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	points, err := req.outline()
	if err != nil {
		return h.fail(c, err)
	}

	var resp shapeResponse
	err = h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		ws.Shape.SetShape(points)
		resp = shapeOf(ws, nil)
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

func (r shapeRequest) outline() ([]models.Point2D, error) {
	sources := 0
	if r.Points != nil {
		sources++
	}
	if r.Path != "" {
		sources++
	}
	if r.SVG != "" {
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("%w: exactly one of points, path or svg is required", models.ErrInvalidArgument)
	}

	switch {
	case r.Path != "":
		return parser.ParsePath(r.Path)
	case r.SVG != "":
		return parser.ParseOutline(strings.NewReader(r.SVG))
	default:
		return r.Points, nil
	}
}

type insertRequest struct {
	Index *int            `json:"index"`
	Point *models.Point2D `json:"point"`
}

// InsertNode вставляет узел в заданную позицию; без тела - в середину самого длинного ребра.
func (h *PlannerHandler) InsertNode(c fiber.Ctx) error {
	var req insertRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
		}
	}
	if (req.Index == nil) != (req.Point == nil) {
		return h.fail(c, fmt.Errorf("%w: index and point go together", models.ErrInvalidArgument))
	}

	var resp shapeResponse
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		index, point := 0, models.Point2D{}
		if req.Index != nil {
			index, point = *req.Index, *req.Point
		} else {
			edge, mid, err := ws.Shape.LongestEdgeMidpoint()
			if err != nil {
				return err
			}
			index, point = edge+1, mid
		}

		index = min(max(index, 0), ws.Shape.Len())
		if err := ws.Shape.InsertAt(index, point); err != nil {
			return err
		}
		resp = shapeOf(ws, &index)
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

func (h *PlannerHandler) MoveNode(c fiber.Ctx) error {
	index, err := paramIndex(c)
	if err != nil {
		return h.fail(c, err)
	}
	var p models.Point2D
	if err := json.Unmarshal(c.Body(), &p); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var resp shapeResponse
	err = h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		if err := ws.Shape.MoveNode(index, p); err != nil {
			return err
		}
		resp = shapeOf(ws, &index)
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

// RemoveNode удаляет узел; контур короче трёх точек даёт 409.
func (h *PlannerHandler) RemoveNode(c fiber.Ctx) error {
	index, err := paramIndex(c)
	if err != nil {
		return h.fail(c, err)
	}

	var resp shapeResponse
	err = h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		if err := ws.Shape.RemoveNode(index); err != nil {
			return err
		}
		resp = shapeOf(ws, nil)
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}
