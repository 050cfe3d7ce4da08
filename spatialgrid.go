package planar

import (
	"math"

	"github.com/akmonengine/planar/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey - coordinates of a cell in the 2D grid
type CellKey struct {
	X, Y int
}

// cell - container of body indices bucketed into one cell
type cell struct {
	bodyIndices []int
}

// Pair - pair of bodies potentially in collision
type Pair struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

// SpatialGrid is a uniform hashed grid used for broad-phase pruning.
// It is fully rebuilt each step from current body transforms and only
// shrinks the candidate set for the narrow phase.
type SpatialGrid struct {
	cellSize float64
	cells    []cell
	cellMask int
}

// NewSpatialGrid creates a grid of numCells buckets (rounded up to a
// power of two) of cellSize world units each.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert buckets a body into every cell its bounding box overlaps.
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.Body) {
	aabb := body.AABB()
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			cellIdx := sg.hashCell(CellKey{x, y})
			sg.cells[cellIdx].bodyIndices = append(
				sg.cells[cellIdx].bodyIndices,
				bodyIndex,
			)
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

// FindPairs enumerates candidate pairs in deterministic body-insertion
// order, deduplicated across shared cells. Static-static and
// sleeping-sleeping pairs are skipped, and a pair is only a candidate
// when the bounding boxes actually overlap.
func (sg *SpatialGrid) FindPairs(bodies []*actor.Body) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)
	seen := make([]bool, len(bodies))
	touched := make([]int, 0, 16)

	for bodyIdx, bodyA := range bodies {
		touched = touched[:0]
		aabb := bodyA.AABB()
		minCell := sg.worldToCell(aabb.Min)
		maxCell := sg.worldToCell(aabb.Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				cellIdx := sg.hashCell(CellKey{x, y})

				for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
					// Deterministic order, no (A,B)/(B,A) doubles
					if otherIdx <= bodyIdx || seen[otherIdx] {
						continue
					}
					seen[otherIdx] = true
					touched = append(touched, otherIdx)

					bodyB := bodies[otherIdx]
					if bodyA.Static && bodyB.Static {
						continue
					}
					if bodyA.Sleeping && bodyB.Sleeping {
						continue
					}

					if aabb.Overlaps(bodyB.AABB()) {
						pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB})
					}
				}
			}
		}

		for _, i := range touched {
			seen[i] = false
		}
	}

	return pairs
}

// worldToCell converts a world position to cell coordinates.
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec2) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
	}
}

// hashCell maps a cell to an index in the bucket array.
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}
