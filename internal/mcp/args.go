package mcp

import (
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-pdf-annotator/internal/pdf/overlay"
)

// Tool arguments arrive as decoded JSON: numbers are float64, arrays are
// []any and objects are map[string]any.

func optionalString(request mcp.CallToolRequest, key string) string {
	if v, ok := request.GetArguments()[key].(string); ok {
		return v
	}
	return ""
}

func optionalBool(request mcp.CallToolRequest, key string) bool {
	v, _ := request.GetArguments()[key].(bool)
	return v
}

// optionalNumber returns nil when key is absent.
func optionalNumber(request mcp.CallToolRequest, key string) (*float64, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, err := toFloat(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &f, nil
}

func requiredNumber(request mcp.CallToolRequest, key string) (float64, error) {
	v, err := optionalNumber(request, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("required argument %q not found", key)
	}
	return *v, nil
}

func requiredInt(request mcp.CallToolRequest, key string) (int, error) {
	f, err := requiredNumber(request, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be a whole number, got %g", key, f)
	}
	return int(f), nil
}

func optionalInt(request mcp.CallToolRequest, key string) (int, error) {
	v, err := optionalNumber(request, key)
	if err != nil || v == nil {
		return 0, err
	}
	if *v != math.Trunc(*v) {
		return 0, fmt.Errorf("%s must be a whole number, got %g", key, *v)
	}
	return int(*v), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// requiredPoints reads a point list given as [{"x":..,"y":..}, ...] or
// [[x, y], ...].
func requiredPoints(request mcp.CallToolRequest, key string) ([]overlay.Point, error) {
	raw, ok := request.GetArguments()[key]
	if !ok {
		return nil, fmt.Errorf("required argument %q not found", key)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array", key)
	}
	points := make([]overlay.Point, 0, len(list))
	for i, item := range list {
		p, err := toPoint(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func toPoint(item any) (overlay.Point, error) {
	switch v := item.(type) {
	case map[string]any:
		x, err := toFloat(v["x"])
		if err != nil {
			return overlay.Point{}, fmt.Errorf("x: %w", err)
		}
		y, err := toFloat(v["y"])
		if err != nil {
			return overlay.Point{}, fmt.Errorf("y: %w", err)
		}
		return overlay.Point{X: x, Y: y}, nil
	case []any:
		if len(v) != 2 {
			return overlay.Point{}, fmt.Errorf("expected [x, y], got %d values", len(v))
		}
		x, err := toFloat(v[0])
		if err != nil {
			return overlay.Point{}, err
		}
		y, err := toFloat(v[1])
		if err != nil {
			return overlay.Point{}, err
		}
		return overlay.Point{X: x, Y: y}, nil
	default:
		return overlay.Point{}, fmt.Errorf("expected a point, got %T", item)
	}
}
