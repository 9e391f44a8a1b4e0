package scape

import (
	"context"
	"fmt"
	"strings"
)

// ALE controller inputs the Amidar scape understands.
const (
	ActionNoop  Action = 0
	ActionUp    Action = 2
	ActionRight Action = 3
	ActionLeft  Action = 4
	ActionDown  Action = 5
)

const (
	amidarDefaultLives    = 3
	amidarDefaultBoxBonus = 50
)

// AmidarScape is a reduced Amidar: a player paints a rail grid while enemies
// patrol fixed routes. Touching an enemy costs a life; painting every rail
// ends the episode. The full mutable game state is exposed through the
// configuration channel, so a harness can remove enemies between trials.
//
// Observation layout: player tx, player ty, painted fraction, lives, then an
// (tx, ty) pair per enemy.
type AmidarScape struct {
	cfg      amidarConfig
	board    *amidarBoard
	player   tilePoint
	enemies  []amidarEnemy
	lives    int
	gameOver bool
}

type amidarEnemy struct {
	route []int
	next  int
}

type amidarConfig struct {
	layout      []string
	enemyRoutes [][]int
	lives       int
	boxBonus    int
	playerStart tilePoint
}

func NewAmidarScape() (*AmidarScape, error) {
	board, err := newAmidarBoard(strings.Split(amidarDefaultBoard, "\n"))
	if err != nil {
		return nil, err
	}

	// Default patrols: one enemy looping each box of the top row.
	routes := make([][]int, 0, 3)
	for _, box := range board.Boxes {
		if box.TopLeft.TY != 0 {
			continue
		}
		routes = append(routes, board.perimeterRoute(box))
	}

	cfg := amidarConfig{
		layout:      board.layout(),
		enemyRoutes: routes,
		lives:       amidarDefaultLives,
		boxBonus:    amidarDefaultBoxBonus,
		playerStart: tilePoint{TX: board.Width / 2, TY: board.Height - 1},
	}

	s := &AmidarScape{}
	if err := s.apply(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AmidarScape) Name() string {
	return "amidar"
}

func (s *AmidarScape) Reset() (Observation, error) {
	if err := s.apply(s.cfg); err != nil {
		return nil, err
	}
	return s.observation(), nil
}

func (s *AmidarScape) Step(ctx context.Context, action Action) (Observation, float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, false, err
	}
	if s.gameOver {
		return s.observation(), 0, true, nil
	}

	reward := 0.0
	if target, ok := s.playerTarget(action); ok {
		s.player = target
		points, boxes := s.board.paint(target)
		reward = float64(points + s.cfg.boxBonus*boxes)
	}

	done := false
	if s.board.fullyPainted() {
		s.gameOver = true
		done = true
	}

	for i := range s.enemies {
		s.advanceEnemy(&s.enemies[i])
		if s.enemyTile(s.enemies[i]) == s.player {
			done = true
			s.lives--
			if s.lives <= 0 {
				s.lives = 0
				s.gameOver = true
			} else {
				// Life loss resets positions but keeps the paint.
				s.resetMobs()
			}
			break
		}
	}

	return s.observation(), reward, done, nil
}

func (s *AmidarScape) Lives() int {
	return s.lives
}

// Render draws the board as text for human observation.
func (s *AmidarScape) Render() {
	fmt.Println(s.Frame())
}

func (s *AmidarScape) Frame() string {
	rows := s.board.layout()
	grid := make([][]rune, len(rows))
	for i, row := range rows {
		grid[i] = []rune(row)
	}
	for _, enemy := range s.enemies {
		tile := s.enemyTile(enemy)
		if tile.TY >= 0 && tile.TY < len(grid) && tile.TX >= 0 && tile.TX < len(grid[tile.TY]) {
			grid[tile.TY][tile.TX] = 'E'
		}
	}
	if s.player.TY >= 0 && s.player.TY < len(grid) && s.player.TX >= 0 && s.player.TX < len(grid[s.player.TY]) {
		grid[s.player.TY][s.player.TX] = 'P'
	}
	lines := make([]string, 0, len(grid)+1)
	for _, row := range grid {
		lines = append(lines, string(row))
	}
	lines = append(lines, fmt.Sprintf("lives=%d painted=%.2f", s.lives, s.board.paintedFraction()))
	return strings.Join(lines, "\n")
}

func (s *AmidarScape) ReadConfig() (Config, error) {
	enemies := make([]any, 0, len(s.cfg.enemyRoutes))
	for _, route := range s.cfg.enemyRoutes {
		positions := make([]any, 0, len(route))
		for _, p := range route {
			positions = append(positions, p)
		}
		enemies = append(enemies, map[string]any{"route": positions})
	}
	return Config{
		"board":        append([]any(nil), toAnySlice(s.cfg.layout)...),
		"enemies":      enemies,
		"lives":        s.cfg.lives,
		"box_bonus":    s.cfg.boxBonus,
		"player_start": []any{s.cfg.playerStart.TX, s.cfg.playerStart.TY},
	}, nil
}

// WriteConfig replaces the simulator configuration and starts a new game,
// matching the read-mutate-write side channel contract.
func (s *AmidarScape) WriteConfig(doc Config) error {
	cfg, err := parseAmidarConfig(doc, s.cfg)
	if err != nil {
		return fmt.Errorf("write amidar config: %w", err)
	}
	return s.apply(cfg)
}

func (s *AmidarScape) apply(cfg amidarConfig) error {
	board, err := newAmidarBoard(cfg.layout)
	if err != nil {
		return err
	}
	if !board.getTile(cfg.playerStart).walkable() {
		return fmt.Errorf("player start %v is not walkable", cfg.playerStart)
	}
	enemies := make([]amidarEnemy, 0, len(cfg.enemyRoutes))
	for i, route := range cfg.enemyRoutes {
		if len(route) == 0 {
			return fmt.Errorf("enemy %d has an empty route", i)
		}
		for _, p := range route {
			if p < 0 || p >= board.Width*board.Height {
				return fmt.Errorf("enemy %d route position %d out of bounds", i, p)
			}
		}
		enemies = append(enemies, amidarEnemy{route: append([]int(nil), route...)})
	}
	if cfg.lives <= 0 {
		return fmt.Errorf("lives must be positive, got %d", cfg.lives)
	}

	s.cfg = cfg
	s.board = board
	s.enemies = enemies
	s.player = cfg.playerStart
	s.lives = cfg.lives
	s.gameOver = false
	// The player paints every tile it occupies, the start included, so a
	// tile left behind never pays again on re-entry.
	s.board.paint(cfg.playerStart)
	return nil
}

func (s *AmidarScape) resetMobs() {
	s.player = s.cfg.playerStart
	for i := range s.enemies {
		s.enemies[i].next = 0
	}
}

func (s *AmidarScape) playerTarget(action Action) (tilePoint, bool) {
	var target tilePoint
	switch action {
	case ActionUp:
		target = s.player.translate(0, -1)
	case ActionDown:
		target = s.player.translate(0, 1)
	case ActionLeft:
		target = s.player.translate(-1, 0)
	case ActionRight:
		target = s.player.translate(1, 0)
	default:
		return tilePoint{}, false
	}
	if !s.board.getTile(target).walkable() {
		return tilePoint{}, false
	}
	return target, true
}

func (s *AmidarScape) advanceEnemy(e *amidarEnemy) {
	e.next = (e.next + 1) % len(e.route)
}

func (s *AmidarScape) enemyTile(e amidarEnemy) tilePoint {
	return s.board.lookupPosition(e.route[e.next])
}

func (s *AmidarScape) observation() Observation {
	obs := make(Observation, 0, 4+2*len(s.enemies))
	obs = append(obs,
		float64(s.player.TX),
		float64(s.player.TY),
		s.board.paintedFraction(),
		float64(s.lives),
	)
	for _, enemy := range s.enemies {
		tile := s.enemyTile(enemy)
		obs = append(obs, float64(tile.TX), float64(tile.TY))
	}
	return obs
}

func toAnySlice(xs []string) []any {
	out := make([]any, 0, len(xs))
	for _, x := range xs {
		out = append(out, x)
	}
	return out
}
