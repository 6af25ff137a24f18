package geo

import (
	"math"
	"sync"

	"github.com/rendis/storetap/internal/model"
)

// DefaultCellSize is the snapping granularity in degrees. It must stay below the
// oracle's effective result radius so neighbouring cells overlap in coverage.
const DefaultCellSize = 0.2

// Snap maps a point to its cell for the given granularity in degrees.
func Snap(p model.GeoPoint, size float64) model.Cell {
	return model.Cell{
		Row: int64(math.Floor(p.Lat / size)),
		Col: int64(math.Floor(p.Lng / size)),
	}
}

// CellIndex is the visited set of a crawl run. It is safe for concurrent use.
type CellIndex struct {
	size    float64
	mu      sync.Mutex
	visited map[model.Cell]struct{}
}

// NewCellIndex creates an empty index snapping at size degrees.
func NewCellIndex(size float64) *CellIndex {
	if size <= 0 {
		size = DefaultCellSize
	}
	return &CellIndex{
		size:    size,
		visited: make(map[model.Cell]struct{}),
	}
}

// Size returns the snapping granularity in degrees.
func (ci *CellIndex) Size() float64 {
	return ci.size
}

// Snap maps p to a cell using the index granularity.
func (ci *CellIndex) Snap(p model.GeoPoint) model.Cell {
	return Snap(p, ci.size)
}

// MarkVisited records c and reports whether it was not visited before.
// Only the first call for a given cell returns true.
func (ci *CellIndex) MarkVisited(c model.Cell) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if _, ok := ci.visited[c]; ok {
		return false
	}
	ci.visited[c] = struct{}{}
	return true
}

// Visit snaps p and marks its cell.
func (ci *CellIndex) Visit(p model.GeoPoint) (model.Cell, bool) {
	c := ci.Snap(p)
	return c, ci.MarkVisited(c)
}

// Visited reports whether c has been marked.
func (ci *CellIndex) Visited(c model.Cell) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	_, ok := ci.visited[c]
	return ok
}

// Len returns the number of visited cells.
func (ci *CellIndex) Len() int {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return len(ci.visited)
}
