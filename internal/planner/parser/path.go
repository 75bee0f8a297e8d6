package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"room-planner/internal/planner/geometry"
	"room-planner/internal/planner/models"
)

// ============================================================
// Path Parser
// ============================================================

var commandRe = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath разбирает SVG path (M, L, H, V, Z и их относительные формы) в контур комнаты.
// Замыкающая точка, совпадающая с первой, отбрасывается: контур всегда считается замкнутым.
func ParsePath(d string) ([]models.Point2D, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("%w: empty path", models.ErrInvalidArgument)
	}
	if !strings.ContainsAny(d[:1], "Mm") {
		return nil, fmt.Errorf("%w: path must start with a moveto", models.ErrInvalidArgument)
	}

	var points []models.Point2D
	var cur, start models.Point2D

	for _, match := range commandRe.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords, err := parseCoords(match[2])
		if err != nil {
			return nil, err
		}

		switch cmd {
		case "M", "m", "L", "l":
			if len(coords) == 0 || len(coords)%2 != 0 {
				return nil, fmt.Errorf("%w: %s expects coordinate pairs, got %d values", models.ErrInvalidArgument, cmd, len(coords))
			}
			relative := cmd == "m" || cmd == "l"
			for i := 0; i < len(coords); i += 2 {
				next := models.Point2D{X: coords[i], Y: coords[i+1]}
				if relative {
					next = cur.Add(next)
				}
				cur = next
				// пары после moveto трактуются как lineto
				if i == 0 && (cmd == "M" || cmd == "m") {
					start = cur
				}
				points = append(points, cur)
			}

		case "H", "h":
			if len(coords) == 0 {
				return nil, fmt.Errorf("%w: %s expects a value", models.ErrInvalidArgument, cmd)
			}
			for _, x := range coords {
				if cmd == "h" {
					x += cur.X
				}
				cur.X = x
				points = append(points, cur)
			}

		case "V", "v":
			if len(coords) == 0 {
				return nil, fmt.Errorf("%w: %s expects a value", models.ErrInvalidArgument, cmd)
			}
			for _, y := range coords {
				if cmd == "v" {
					y += cur.Y
				}
				cur.Y = y
				points = append(points, cur)
			}

		case "Z", "z":
			cur = start
		}
	}

	if len(points) > 1 && geometry.AlmostEqual(points[0], points[len(points)-1]) {
		points = points[:len(points)-1]
	}
	return points, nil
}

func parseCoords(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")
	parts := strings.Fields(s)

	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad coordinate %q", models.ErrInvalidArgument, part)
		}
		coords = append(coords, val)
	}

	return coords, nil
}
