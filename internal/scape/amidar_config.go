package scape

import "fmt"

// parseAmidarConfig coerces a structured document into an amidarConfig.
// Missing fields keep their current values; numbers accept both native ints
// and the float64 form produced by a JSON round-trip.
func parseAmidarConfig(doc Config, current amidarConfig) (amidarConfig, error) {
	cfg := amidarConfig{
		layout:      append([]string(nil), current.layout...),
		enemyRoutes: cloneRoutes(current.enemyRoutes),
		lives:       current.lives,
		boxBonus:    current.boxBonus,
		playerStart: current.playerStart,
	}

	if raw, ok := doc["board"]; ok {
		layout, err := asStringSlice(raw)
		if err != nil {
			return amidarConfig{}, fmt.Errorf("board: %w", err)
		}
		cfg.layout = layout
	}
	if raw, ok := doc["enemies"]; ok {
		routes, err := asEnemyRoutes(raw)
		if err != nil {
			return amidarConfig{}, fmt.Errorf("enemies: %w", err)
		}
		cfg.enemyRoutes = routes
	}
	if raw, ok := doc["lives"]; ok {
		lives, err := asConfigInt(raw)
		if err != nil {
			return amidarConfig{}, fmt.Errorf("lives: %w", err)
		}
		cfg.lives = lives
	}
	if raw, ok := doc["box_bonus"]; ok {
		bonus, err := asConfigInt(raw)
		if err != nil {
			return amidarConfig{}, fmt.Errorf("box_bonus: %w", err)
		}
		cfg.boxBonus = bonus
	}
	if raw, ok := doc["player_start"]; ok {
		start, err := asTilePoint(raw)
		if err != nil {
			return amidarConfig{}, fmt.Errorf("player_start: %w", err)
		}
		cfg.playerStart = start
	}
	return cfg, nil
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, 0, len(routes))
	for _, route := range routes {
		out = append(out, append([]int(nil), route...))
	}
	return out
}

func asConfigInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asStringSlice(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		if direct, ok := v.([]string); ok {
			return append([]string(nil), direct...), nil
		}
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %d: expected string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func asIntSlice(v any) ([]int, error) {
	items, ok := v.([]any)
	if !ok {
		if direct, ok := v.([]int); ok {
			return append([]int(nil), direct...), nil
		}
		return nil, fmt.Errorf("expected list of numbers, got %T", v)
	}
	out := make([]int, 0, len(items))
	for i, item := range items {
		n, err := asConfigInt(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func asEnemyRoutes(v any) ([][]int, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list of enemy documents, got %T", v)
	}
	routes := make([][]int, 0, len(items))
	for i, item := range items {
		enemy, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("enemy %d: expected document, got %T", i, item)
		}
		route, err := asIntSlice(enemy["route"])
		if err != nil {
			return nil, fmt.Errorf("enemy %d route: %w", i, err)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func asTilePoint(v any) (tilePoint, error) {
	pair, err := asIntSlice(v)
	if err != nil {
		return tilePoint{}, err
	}
	if len(pair) != 2 {
		return tilePoint{}, fmt.Errorf("expected [tx, ty], got %d elements", len(pair))
	}
	return tilePoint{TX: pair[0], TY: pair[1]}, nil
}
