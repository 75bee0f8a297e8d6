package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"room-planner/internal/planner/ledger"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/project"
	"room-planner/internal/planner/vastu"
)

// ============================================================
// Scene & Plan
// ============================================================

// GetScene отдаёт экструдированную комнату и мебель. wallHeight в query необязателен.
func (h *PlannerHandler) GetScene(c fiber.Ctx) error {
	wallHeight := 0.0
	if raw := c.Query("wallHeight"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "wallHeight must be a number"})
		}
		if v <= 0 {
			// явно запрошенная нулевая высота - ошибка, а не высота по умолчанию
			return h.fail(c, fmt.Errorf("%w: wall height must be positive, got %v", models.ErrDegenerateGeometry, v))
		}
		wallHeight = v
	}

	var scene project.Scene
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		var err error
		scene, err = ws.Scene(wallHeight)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(scene)
}

// GetSVG рисует 2D план проекта.
func (h *PlannerHandler) GetSVG(c fiber.Ctx) error {
	var svg string
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		var err error
		svg, err = ws.RenderSVG()
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}

	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// ============================================================
// Catalogues
// ============================================================

func (h *PlannerHandler) GetMaterials(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"textures": ledger.Textures,
		"colors":   ledger.Palette,
		"defaults": fiber.Map{"color": ledger.DefaultColor, "texture": ledger.DefaultTexture},
	})
}

// ListModels отдаёт каталог моделей мебели, category фильтрует.
func (h *PlannerHandler) ListModels(c fiber.Ctx) error {
	if h.catalog == nil {
		return h.fail(c, fmt.Errorf("%w: furniture catalogue is not loaded", models.ErrNotFound))
	}
	return c.JSON(fiber.Map{
		"categories": h.catalog.Categories,
		"models":     h.catalog.ByCategory(c.Query("category")),
	})
}

func (h *PlannerHandler) GetModel(c fiber.Ctx) error {
	if h.catalog == nil {
		return h.fail(c, fmt.Errorf("%w: furniture catalogue is not loaded", models.ErrNotFound))
	}
	m, ok := h.catalog.Get(c.Params("model"))
	if !ok {
		return h.fail(c, fmt.Errorf("%w: furniture model %s", models.ErrNotFound, c.Params("model")))
	}
	return c.JSON(m)
}

type vastuResponse struct {
	Rules          []vastu.Rule `json:"rules"`
	Recommended    []string     `json:"recommendedDirections,omitempty"`
	Score          *float64     `json:"score,omitempty"`
	DirectionOrder []string     `json:"directions"`
}

// GetVastu фильтрует правила по room, direction и category; furniture+room дают рекомендации.
func (h *PlannerHandler) GetVastu(c fiber.Ctx) error {
	if h.vastu == nil {
		return h.fail(c, fmt.Errorf("%w: vastu catalogue is not loaded", models.ErrNotFound))
	}

	room := c.Query("room")
	direction := c.Query("direction")
	category := c.Query("category")

	rules := h.vastu.Rules
	if room != "" {
		rules = intersect(rules, h.vastu.ForRoom(room))
	}
	if direction != "" {
		rules = intersect(rules, h.vastu.ForDirection(direction))
	}
	if category != "" {
		rules = intersect(rules, h.vastu.ForCategory(category))
	}

	resp := vastuResponse{
		Rules:          rules,
		DirectionOrder: h.vastu.DirectionNames(),
	}
	if furniture := c.Query("furniture"); furniture != "" {
		resp.Recommended = h.vastu.ForFurniture(furniture, room)
	}
	if room != "" {
		score := h.vastu.Score(room)
		resp.Score = &score
	}
	return c.JSON(resp)
}

func intersect(base, keep []vastu.Rule) []vastu.Rule {
	ids := make(map[string]struct{}, len(keep))
	for _, r := range keep {
		ids[r.ID] = struct{}{}
	}
	out := []vastu.Rule{}
	for _, r := range base {
		if _, ok := ids[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}
