// Package spatial provides the broad-phase grid used for arena hit tests.
//
// Entities are stored as integer indices into the caller's slice so the grid
// can be cleared and refilled every tick without allocating.
package spatial

import (
	"math"
)

// SpatialGrid buckets entities into fixed-size cells over a rectangle
// centered at the origin. Positions outside the rectangle clamp to the
// border cells, so escaped entities stay queryable.
//
// Cell size should be at least the largest query radius.
// Cells are row-major: cells[row*cols+col].
type SpatialGrid struct {
	cellSize    float64
	invCellSize float64
	halfW       float64
	halfH       float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
}

// NewSpatialGrid creates a grid covering [-width/2, width/2] x [-height/2, height/2].
// maxEntities is used to preallocate cell capacity.
func NewSpatialGrid(width, height, cellSize float64, maxEntities int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		halfW:       width / 2,
		halfH:       height / 2,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 32),
	}
}

// Clear empties every cell, keeping capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) col(x float64) int {
	c := int(math.Floor((x + g.halfW) * g.invCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) row(y float64) int {
	r := int(math.Floor((y + g.halfH) * g.invCellSize))
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// Insert adds an entity at (x, y).
func (g *SpatialGrid) Insert(entityID uint32, x, y float64) {
	idx := g.row(y)*g.cols + g.col(x)
	g.cells[idx] = append(g.cells[idx], entityID)
}

// QueryRadius returns candidate entity IDs near (cx, cy).
//
// The returned slice is reused by the next query. Candidates may lie outside
// the radius; callers do the exact distance check.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(cx-radius), g.col(cx+radius)
	minRow, maxRow := g.row(cy-radius), g.row(cy+radius)

	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			g.scratch = append(g.scratch, g.cells[r*g.cols+c]...)
		}
	}
	return g.scratch
}
