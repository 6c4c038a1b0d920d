package spatial

import "testing"

// TestGridDimensions tests cell count rounding
func TestGridDimensions(t *testing.T) {
	g := NewSpatialGrid(25, 25, 2, 64)
	if g.cols != 13 || g.rows != 13 {
		t.Errorf("Expected 13x13 grid, got %dx%d", g.cols, g.rows)
	}
	if len(g.cells) != 169 {
		t.Errorf("Expected 169 cells, got %d", len(g.cells))
	}
}

// TestGridNegativeCoordinates tests that origin-centered positions land in distinct cells
func TestGridNegativeCoordinates(t *testing.T) {
	g := NewSpatialGrid(20, 20, 2, 16)
	g.Insert(1, -9, -9)
	g.Insert(2, 9, 9)

	if got := g.QueryRadius(-9, -9, 0.1); len(got) != 1 || got[0] != 1 {
		t.Errorf("Expected [1] in bottom-left cell, got %v", got)
	}
	if got := g.QueryRadius(9, 9, 0.1); len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected [2] in top-right cell, got %v", got)
	}
}

// TestGridQueryRadius tests neighbor lookup across cell borders
func TestGridQueryRadius(t *testing.T) {
	g := NewSpatialGrid(20, 20, 2, 16)
	g.Insert(1, 0.1, 0.1)
	g.Insert(2, -0.1, -0.1)
	g.Insert(3, 8, 8)

	found := map[uint32]bool{}
	for _, id := range g.QueryRadius(0, 0, 1) {
		found[id] = true
	}
	if !found[1] || !found[2] {
		t.Errorf("Expected entities 1 and 2 near origin, got %v", found)
	}
	if found[3] {
		t.Error("Entity 3 should not be a candidate near origin")
	}
}

// TestGridClampsOutside tests that out-of-bounds entities stay queryable
func TestGridClampsOutside(t *testing.T) {
	g := NewSpatialGrid(10, 10, 2, 16)
	g.Insert(7, 100, -100)

	if got := g.QueryRadius(100, -100, 0.5); len(got) != 1 || got[0] != 7 {
		t.Errorf("Expected clamped entity 7, got %v", got)
	}

	g.Clear()
	if got := g.QueryRadius(0, 0, 10); len(got) != 0 {
		t.Errorf("Expected empty grid after Clear, got %v", got)
	}
}
