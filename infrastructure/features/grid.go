package features

import (
	"math"

	"github.com/ahrav/go-posescore/internal/domain"
)

// siteRef is one heavy atom together with its chain and residue context.
type siteRef struct {
	chain   int
	residue *domain.Residue
	coord   domain.Vec3
}

type cellKey struct{ x, y, z int }

// grid buckets heavy atoms into cubic cells whose edge equals the search
// radius, so every neighbour within that radius lies in one of the 27
// surrounding cells.
type grid struct {
	cell  float64
	cells map[cellKey][]siteRef
}

func newGrid(cell float64, sites []siteRef) *grid {
	g := &grid{cell: cell, cells: make(map[cellKey][]siteRef)}
	for _, s := range sites {
		k := g.key(s.coord)
		g.cells[k] = append(g.cells[k], s)
	}
	return g
}

func (g *grid) key(v domain.Vec3) cellKey {
	return cellKey{
		x: int(math.Floor(v.X / g.cell)),
		y: int(math.Floor(v.Y / g.cell)),
		z: int(math.Floor(v.Z / g.cell)),
	}
}

// forEachInterChainPair calls fn once for every pair (a, b) where b belongs
// to a later chain than a and the two atoms are within the grid radius.
// fn receives the exact distance.
func (g *grid) forEachInterChainPair(sites []siteRef, fn func(a, b siteRef, d float64)) {
	for _, a := range sites {
		k := g.key(a.coord)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for dz := -1; dz <= 1; dz++ {
					for _, b := range g.cells[cellKey{k.x + dx, k.y + dy, k.z + dz}] {
						if b.chain <= a.chain {
							continue
						}
						if d := a.coord.Distance(b.coord); d <= g.cell {
							fn(a, b, d)
						}
					}
				}
			}
		}
	}
}
