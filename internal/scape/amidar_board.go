package scape

import (
	"fmt"
	"strings"
)

// amidarDefaultBoard is the paintable rail grid. '=' is an unpainted rail,
// 'p' a pre-painted rail, ' ' is empty (not walkable).
const amidarDefaultBoard = `=============
=   =   =   =
=   =   =   =
=============
=   =   =   =
=   =   =   =
=============`

type amidarTile int

const (
	tileEmpty amidarTile = iota
	tileUnpainted
	tilePainted
)

func (t amidarTile) walkable() bool {
	return t != tileEmpty
}

func tileFromChar(c rune) (amidarTile, error) {
	switch c {
	case '=':
		return tileUnpainted, nil
	case 'p':
		return tilePainted, nil
	case ' ':
		return tileEmpty, nil
	default:
		return tileEmpty, fmt.Errorf("cannot construct amidar tile from %q", c)
	}
}

func (t amidarTile) char() rune {
	switch t {
	case tileUnpainted:
		return '='
	case tilePainted:
		return 'p'
	default:
		return ' '
	}
}

type tilePoint struct {
	TX int
	TY int
}

func (p tilePoint) translate(dx, dy int) tilePoint {
	return tilePoint{TX: p.TX + dx, TY: p.TY + dy}
}

// gridBox is a paintable rectangle on the board. It pays the box bonus once
// its whole perimeter is painted.
type gridBox struct {
	TopLeft     tilePoint
	BottomRight tilePoint
	Painted     bool
}

func (b *gridBox) perimeterPainted(board *amidarBoard) bool {
	x1, y1 := b.TopLeft.TX, b.TopLeft.TY
	x2, y2 := b.BottomRight.TX, b.BottomRight.TY
	for x := x1; x <= x2; x++ {
		if !board.isPainted(tilePoint{TX: x, TY: y1}) || !board.isPainted(tilePoint{TX: x, TY: y2}) {
			return false
		}
	}
	for y := y1; y <= y2; y++ {
		if !board.isPainted(tilePoint{TX: x1, TY: y}) || !board.isPainted(tilePoint{TX: x2, TY: y}) {
			return false
		}
	}
	return true
}

type amidarBoard struct {
	Tiles  [][]amidarTile
	Width  int
	Height int
	Boxes  []gridBox
}

func newAmidarBoard(layout []string) (*amidarBoard, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("amidar board layout is empty")
	}
	tiles := make([][]amidarTile, 0, len(layout))
	width := len(layout[0])
	for ty, row := range layout {
		if len(row) != width {
			return nil, fmt.Errorf("amidar board row %d width mismatch: got=%d want=%d", ty, len(row), width)
		}
		tileRow := make([]amidarTile, 0, width)
		for _, c := range row {
			tile, err := tileFromChar(c)
			if err != nil {
				return nil, err
			}
			tileRow = append(tileRow, tile)
		}
		tiles = append(tiles, tileRow)
	}

	board := &amidarBoard{
		Tiles:  tiles,
		Width:  width,
		Height: len(tiles),
	}
	board.Boxes = board.findBoxes()
	for i := range board.Boxes {
		board.Boxes[i].Painted = board.Boxes[i].perimeterPainted(board)
	}
	return board, nil
}

// findBoxes scans for minimal rectangles whose perimeters are fully walkable
// and whose interiors are empty.
func (b *amidarBoard) findBoxes() []gridBox {
	boxes := make([]gridBox, 0)
	for y1 := 0; y1 < b.Height; y1++ {
		for x1 := 0; x1 < b.Width; x1++ {
			if !b.getTile(tilePoint{TX: x1, TY: y1}).walkable() {
				continue
			}
			x2 := b.nextWalkableCorner(x1, y1, true)
			y2 := b.nextWalkableCorner(x1, y1, false)
			if x2 < 0 || y2 < 0 {
				continue
			}
			candidate := gridBox{TopLeft: tilePoint{TX: x1, TY: y1}, BottomRight: tilePoint{TX: x2, TY: y2}}
			if b.isBox(candidate) {
				boxes = append(boxes, candidate)
			}
		}
	}
	return boxes
}

func (b *amidarBoard) nextWalkableCorner(x1, y1 int, horizontal bool) int {
	if horizontal {
		for x := x1 + 1; x < b.Width; x++ {
			if !b.getTile(tilePoint{TX: x, TY: y1}).walkable() {
				return -1
			}
			if y1+1 < b.Height && b.getTile(tilePoint{TX: x, TY: y1 + 1}).walkable() {
				return x
			}
		}
		return -1
	}
	for y := y1 + 1; y < b.Height; y++ {
		if !b.getTile(tilePoint{TX: x1, TY: y}).walkable() {
			return -1
		}
		if x1+1 < b.Width && b.getTile(tilePoint{TX: x1 + 1, TY: y}).walkable() {
			return y
		}
	}
	return -1
}

func (b *amidarBoard) isBox(box gridBox) bool {
	x1, y1 := box.TopLeft.TX, box.TopLeft.TY
	x2, y2 := box.BottomRight.TX, box.BottomRight.TY
	if x2 <= x1 || y2 <= y1 {
		return false
	}
	for x := x1; x <= x2; x++ {
		if !b.getTile(tilePoint{TX: x, TY: y1}).walkable() || !b.getTile(tilePoint{TX: x, TY: y2}).walkable() {
			return false
		}
	}
	for y := y1; y <= y2; y++ {
		if !b.getTile(tilePoint{TX: x1, TY: y}).walkable() || !b.getTile(tilePoint{TX: x2, TY: y}).walkable() {
			return false
		}
	}
	for y := y1 + 1; y < y2; y++ {
		for x := x1 + 1; x < x2; x++ {
			if b.getTile(tilePoint{TX: x, TY: y}).walkable() {
				return false
			}
		}
	}
	return true
}

func (b *amidarBoard) getTile(p tilePoint) amidarTile {
	if p.TY < 0 || p.TY >= b.Height || p.TX < 0 || p.TX >= b.Width {
		return tileEmpty
	}
	return b.Tiles[p.TY][p.TX]
}

func (b *amidarBoard) isPainted(p tilePoint) bool {
	return b.getTile(p) == tilePainted
}

// paint marks the tile under p and reports how many boxes that completed.
// The returned points are zero when the tile was already painted.
func (b *amidarBoard) paint(p tilePoint) (points int, boxesCompleted int) {
	if b.getTile(p) != tileUnpainted {
		return 0, 0
	}
	b.Tiles[p.TY][p.TX] = tilePainted
	points = 1
	for i := range b.Boxes {
		if b.Boxes[i].Painted {
			continue
		}
		if b.Boxes[i].perimeterPainted(b) {
			b.Boxes[i].Painted = true
			boxesCompleted++
		}
	}
	return points, boxesCompleted
}

func (b *amidarBoard) fullyPainted() bool {
	for _, row := range b.Tiles {
		for _, tile := range row {
			if tile == tileUnpainted {
				return false
			}
		}
	}
	return true
}

func (b *amidarBoard) paintedFraction() float64 {
	painted, paintable := 0, 0
	for _, row := range b.Tiles {
		for _, tile := range row {
			switch tile {
			case tilePainted:
				painted++
				paintable++
			case tileUnpainted:
				paintable++
			}
		}
	}
	if paintable == 0 {
		return 0
	}
	return float64(painted) / float64(paintable)
}

func (b *amidarBoard) layout() []string {
	rows := make([]string, 0, b.Height)
	for _, row := range b.Tiles {
		var sb strings.Builder
		for _, tile := range row {
			sb.WriteRune(tile.char())
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// lookupPosition converts a route index into a tile point, row-major.
func (b *amidarBoard) lookupPosition(position int) tilePoint {
	return tilePoint{TX: position % b.Width, TY: position / b.Width}
}

func (b *amidarBoard) positionIndex(p tilePoint) int {
	return p.TY*b.Width + p.TX
}

// perimeterRoute walks the rectangle clockwise from its top-left corner and
// returns the route as position indices. Used for the default enemy paths.
func (b *amidarBoard) perimeterRoute(box gridBox) []int {
	route := make([]int, 0)
	x1, y1 := box.TopLeft.TX, box.TopLeft.TY
	x2, y2 := box.BottomRight.TX, box.BottomRight.TY
	for x := x1; x < x2; x++ {
		route = append(route, b.positionIndex(tilePoint{TX: x, TY: y1}))
	}
	for y := y1; y < y2; y++ {
		route = append(route, b.positionIndex(tilePoint{TX: x2, TY: y}))
	}
	for x := x2; x > x1; x-- {
		route = append(route, b.positionIndex(tilePoint{TX: x, TY: y2}))
	}
	for y := y2; y > y1; y-- {
		route = append(route, b.positionIndex(tilePoint{TX: x1, TY: y}))
	}
	return route
}
