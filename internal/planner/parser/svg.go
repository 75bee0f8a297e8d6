package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"room-planner/internal/planner/models"
)

// ============================================================
// SVG Outline Import
// ============================================================

type outlineCandidate struct {
	id     string
	points []models.Point2D
}

// ParseOutline ищет контур комнаты в SVG документе.
// Приоритет у элемента с id "room" (или Room_*, *_room); иначе берётся первый path/polygon/rect.
func ParseOutline(r io.Reader) ([]models.Point2D, error) {
	decoder := xml.NewDecoder(r)

	var candidates []outlineCandidate
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		var points []models.Point2D
		switch start.Name.Local {
		case "path":
			d := attr(start, "d")
			if d == "" {
				continue
			}
			points, err = ParsePath(d)
		case "polygon":
			points, err = parsePolygon(attr(start, "points"))
		case "rect":
			points, err = parseRect(start)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			continue
		}
		candidates = append(candidates, outlineCandidate{id: attr(start, "id"), points: points})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no outline element in svg", models.ErrNotFound)
	}
	for _, c := range candidates {
		if isRoomID(c.id) {
			return c.points, nil
		}
	}
	return candidates[0].points, nil
}

func isRoomID(id string) bool {
	return id == "room" ||
		strings.HasPrefix(id, "Room_") ||
		strings.HasSuffix(id, "_room") || // Hall_room, Kitchen_room
		strings.HasSuffix(id, "_Room")
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parsePolygon(s string) ([]models.Point2D, error) {
	coords, err := parseCoords(s)
	if err != nil {
		return nil, err
	}
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: polygon has an odd number of coordinates", models.ErrInvalidArgument)
	}
	points := make([]models.Point2D, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		points = append(points, models.Point2D{X: coords[i], Y: coords[i+1]})
	}
	return points, nil
}

func parseRect(el xml.StartElement) ([]models.Point2D, error) {
	var vals [4]float64
	for i, name := range []string{"x", "y", "width", "height"} {
		raw := attr(el, name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// width="100%" и подобное не описывает контур
			return nil, nil
		}
		vals[i] = v
	}
	x, y, w, h := vals[0], vals[1], vals[2], vals[3]
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	return []models.Point2D{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}, nil
}
