package timezone

import (
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Index answers point-in-zone queries with a bounding-box prefilter. When
// zones overlap, the one loaded last wins.
type Index struct {
	zones []domain.Zone
	tree  rtree.RTreeG[int]
}

// NewIndex indexes zones by bounding box, keeping their load order.
func NewIndex(zones []domain.Zone) *Index {
	idx := &Index{zones: zones}
	for i, z := range zones {
		if z.Geometry == nil {
			continue
		}
		b := z.Geometry.Bound()
		idx.tree.Insert([2]float64{b.Min.X(), b.Min.Y()}, [2]float64{b.Max.X(), b.Max.Y()}, i)
	}
	return idx
}

// Len returns the number of indexed zones.
func (idx *Index) Len() int { return len(idx.zones) }

// Zone returns the last-loaded zone containing p.
func (idx *Index) Zone(p orb.Point) (domain.Zone, bool) {
	best := -1
	pt := [2]float64{p.X(), p.Y()}
	idx.tree.Search(pt, pt, func(_, _ [2]float64, i int) bool {
		if i > best && Contains(idx.zones[i].Geometry, p) {
			best = i
		}
		return true
	})
	if best < 0 {
		return domain.Zone{}, false
	}
	return idx.zones[best], true
}

func (idx *Index) Classify(p orb.Point) (float64, bool) {
	z, ok := idx.Zone(p)
	if !ok {
		return 0, false
	}
	return z.NormalizedOffset(), true
}

// Contains reports whether g covers p. Only areal geometries contain points.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	case orb.Collection:
		for _, c := range g {
			if Contains(c, p) {
				return true
			}
		}
	}
	return false
}
