package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"room-planner/internal/planner/ledger"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/project"
)

// ============================================================
// Furniture Handlers
// ============================================================

func (h *PlannerHandler) ListFurniture(c fiber.Ctx) error {
	var items []models.FurnitureInstance
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		items = ws.Ledger.List()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(items)
}

type placeRequest struct {
	ID       string          `json:"id"`
	ModelRef string          `json:"modelRef"`
	Position models.Vector3  `json:"position"`
	Rotation *models.Vector3 `json:"rotation"`
	Scale    *models.Vector3 `json:"scale"`
	Color    *string         `json:"color"`
	Texture  *string         `json:"texture"`
}

// instance собирает экземпляр с явным id; незаданные поля берут значения по умолчанию.
func (r placeRequest) instance() models.FurnitureInstance {
	f := models.FurnitureInstance{
		ID:       r.ID,
		ModelRef: r.ModelRef,
		Position: r.Position,
		Scale:    models.Vector3{X: 1, Y: 1, Z: 1},
		Color:    ledger.DefaultColor,
		Texture:  ledger.DefaultTexture,
	}
	if r.Rotation != nil {
		f.Rotation = *r.Rotation
	}
	if r.Scale != nil {
		f.Scale = *r.Scale
	}
	if r.Color != nil {
		f.Color = *r.Color
	}
	if r.Texture != nil {
		f.Texture = *r.Texture
	}
	return f
}

// PlaceFurniture ставит предмет. Без id он генерируется; пустой modelRef даёт 400.
func (h *PlannerHandler) PlaceFurniture(c fiber.Ctx) error {
	var req placeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	placed := req.instance()

	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		return ws.Ledger.Add(placed)
	})
	if err != nil {
		return h.fail(c, err)
	}

	h.log.Debug("furniture placed",
		zap.String("project", c.Params("id")),
		zap.String("furniture", placed.ID),
		zap.String("model", placed.ModelRef),
	)
	return c.Status(http.StatusCreated).JSON(placed)
}

func (h *PlannerHandler) UpdateFurniture(c fiber.Ctx) error {
	var patch models.FurniturePatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json"})
	}

	var updated models.FurnitureInstance
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		var err error
		updated, err = ws.Ledger.Update(c.Params("fid"), patch)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(updated)
}

func (h *PlannerHandler) RemoveFurniture(c fiber.Ctx) error {
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		return ws.Ledger.Remove(c.Params("fid"))
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *PlannerHandler) SelectFurniture(c fiber.Ctx) error {
	var session models.EditorSession
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		if err := ws.Editor.SelectFurniture(c.Params("fid")); err != nil {
			return err
		}
		session = ws.Editor.Session()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(session)
}

func (h *PlannerHandler) ClearFurnitureSelection(c fiber.Ctx) error {
	var session models.EditorSession
	err := h.workspaces.With(c.Context(), c.Params("id"), func(ws *project.Workspace) error {
		if ws.Editor.Session().SelectedFurnitureID == c.Params("fid") {
			ws.Editor.ClearFurnitureSelection()
		}
		session = ws.Editor.Session()
		return nil
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(session)
}
