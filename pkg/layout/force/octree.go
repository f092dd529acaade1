package force

import (
	"github.com/go-gl/mathgl/mgl32"
)

// maxDepth bounds octree subdivision so coincident bodies cannot recurse
// forever; past it, bodies merge into the cell's aggregate mass.
const maxDepth = 24

// octNode is one cell of the Barnes-Hut octree. A cell is either empty,
// a leaf holding one body, or an internal node with up to eight children
// and an aggregate mass/center.
type octNode struct {
	min, max mgl32.Vec3
	children [8]*octNode
	leaf     *body

	mass   float32
	center mgl32.Vec3 // mass-weighted sum until finalize, then centroid
}

// buildOctree constructs the tree over all bodies.
func buildOctree(bodies []*body) *octNode {
	min := bodies[0].pos
	max := bodies[0].pos
	for _, b := range bodies[1:] {
		for i := 0; i < 3; i++ {
			if b.pos[i] < min[i] {
				min[i] = b.pos[i]
			}
			if b.pos[i] > max[i] {
				max[i] = b.pos[i]
			}
		}
	}
	// Pad degenerate extents so the root always has volume.
	for i := 0; i < 3; i++ {
		if max[i]-min[i] < 1 {
			min[i] -= 0.5
			max[i] += 0.5
		}
	}

	root := &octNode{min: min, max: max}
	for _, b := range bodies {
		root.insert(b, 0)
	}
	root.finalize()
	return root
}

func (n *octNode) insert(b *body, depth int) {
	n.mass++
	n.center = n.center.Add(b.pos)

	if depth >= maxDepth {
		return // merged into aggregate only
	}

	if n.isLeafCell() {
		if n.leaf == nil {
			n.leaf = b
			return
		}
		// Split: push the resident body down, then fall through.
		resident := n.leaf
		n.leaf = nil
		n.childFor(resident.pos, true).insert(resident, depth+1)
	}
	n.childFor(b.pos, true).insert(b, depth+1)
}

func (n *octNode) isLeafCell() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

// childFor returns the octant containing pos, creating it when create is set.
func (n *octNode) childFor(pos mgl32.Vec3, create bool) *octNode {
	mid := n.min.Add(n.max).Mul(0.5)
	idx := 0
	if pos[0] > mid[0] {
		idx |= 1
	}
	if pos[1] > mid[1] {
		idx |= 2
	}
	if pos[2] > mid[2] {
		idx |= 4
	}
	if n.children[idx] == nil && create {
		cmin, cmax := n.min, n.max
		for i := 0; i < 3; i++ {
			if idx&(1<<i) != 0 {
				cmin[i] = mid[i]
			} else {
				cmax[i] = mid[i]
			}
		}
		n.children[idx] = &octNode{min: cmin, max: cmax}
	}
	return n.children[idx]
}

// finalize converts accumulated position sums into centroids.
func (n *octNode) finalize() {
	if n.mass > 0 {
		n.center = n.center.Mul(1 / n.mass)
	}
	for _, c := range n.children {
		if c != nil {
			c.finalize()
		}
	}
}

// updateForce accumulates the Barnes-Hut force on b. Cells whose extent
// over distance ratio is below theta act as a single aggregate body with
// inverse-square force scaled by gravity (negative repels).
func (n *octNode) updateForce(b *body, theta, gravity float32) {
	if n.mass == 0 {
		return
	}
	if n.leaf == b && n.mass == 1 {
		return
	}

	d := distance(b.pos, n.center)
	if d < 1e-6 {
		return
	}

	size := n.max[0] - n.min[0]
	if n.isLeafCell() || size/d < theta {
		// Far enough (or a single body): aggregate interaction.
		mass := n.mass
		if n.leaf == b {
			mass-- // exclude self from own cell's aggregate
			if mass <= 0 {
				return
			}
		}
		scale := gravity * mass / (d * d * d)
		b.force = b.force.Add(n.center.Sub(b.pos).Mul(scale))
		return
	}

	for _, c := range n.children {
		if c != nil {
			c.updateForce(b, theta, gravity)
		}
	}
}
