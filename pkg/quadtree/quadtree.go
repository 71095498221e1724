package quadtree

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r2"
)

// Root is the index of the root node
const Root = 0

// MaxDepth caps subdivision for points that stop separating in floating point.
// Past it the incoming charge is merged into the occupied leaf.
const MaxDepth = 64

// Node is one cell of the flattened tree. Children == 0 marks a leaf, since 0 is always the root.
// Next is the node visited after this one's subtree is skipped; 0 ends the walk.
type Node struct {
	Children int
	Next     int
	Pos      r2.Vec
	Charge   float64
	Quad     Quad
}

func newNode(next int, quad Quad) Node {
	return Node{Next: next, Quad: quad}
}

func (n Node) IsLeaf() bool   { return n.Children == 0 }
func (n Node) IsBranch() bool { return n.Children != 0 }
func (n Node) IsEmpty() bool  { return n.Charge == 0 }

// Quadtree is a Barnes-Hut index rebuilt from scratch each step.
// Insert and Propagate are single-threaded; EField may be called concurrently once Propagate is done.
type Quadtree struct {
	tSq     float64
	eSq     float64
	nodes   []Node
	parents []int
	calcs   atomic.Int64
}

// New creates an empty tree with opening angle theta and softening epsilon
func New(theta, epsilon float64) *Quadtree {
	t := &Quadtree{}
	t.SetParams(theta, epsilon)
	return t
}

// SetParams changes theta and epsilon for subsequent queries
func (t *Quadtree) SetParams(theta, epsilon float64) {
	t.tSq = theta * theta
	t.eSq = epsilon * epsilon
}

func (t *Quadtree) Theta() float64   { return math.Sqrt(t.tSq) }
func (t *Quadtree) Epsilon() float64 { return math.Sqrt(t.eSq) }

// Clear resets the tree to a single empty leaf covering quad
func (t *Quadtree) Clear(quad Quad) {
	t.nodes = t.nodes[:0]
	t.parents = t.parents[:0]
	t.nodes = append(t.nodes, newNode(0, quad))
	t.calcs.Store(0)
}

// Reset drops every node, root included. EField must not be called until the next Clear.
func (t *Quadtree) Reset() {
	t.nodes = t.nodes[:0]
	t.parents = t.parents[:0]
	t.calcs.Store(0)
}

// subdivide turns a leaf into a branch and returns the index of its first child
func (t *Quadtree) subdivide(node int) int {
	t.parents = append(t.parents, node)
	children := len(t.nodes)
	t.nodes[node].Children = children

	nexts := [4]int{
		children + 1,
		children + 2,
		children + 3,
		t.nodes[node].Next,
	}
	quads := t.nodes[node].Quad.Subdivide()
	for i := 0; i < 4; i++ {
		t.nodes = append(t.nodes, newNode(nexts[i], quads[i]))
	}

	return children
}

// Insert adds charge at pos. Coincident positions accumulate into one leaf.
func (t *Quadtree) Insert(pos r2.Vec, charge float64) {
	node := Root
	depth := 0

	for t.nodes[node].IsBranch() {
		quadrant := t.nodes[node].Quad.FindQuadrant(pos)
		node = t.nodes[node].Children + quadrant
		depth++
	}

	if t.nodes[node].IsEmpty() {
		t.nodes[node].Pos = pos
		t.nodes[node].Charge = charge
		return
	}

	p, m := t.nodes[node].Pos, t.nodes[node].Charge
	if pos == p {
		t.nodes[node].Charge += charge
		return
	}

	for {
		if depth >= MaxDepth {
			total := m + charge
			t.nodes[node].Pos = r2.Scale(1/total, r2.Add(r2.Scale(m, p), r2.Scale(charge, pos)))
			t.nodes[node].Charge = total
			return
		}

		children := t.subdivide(node)
		depth++

		q1 := t.nodes[node].Quad.FindQuadrant(p)
		q2 := t.nodes[node].Quad.FindQuadrant(pos)

		if q1 == q2 {
			node = children + q1
			continue
		}

		n1 := children + q1
		n2 := children + q2

		t.nodes[n1].Pos = p
		t.nodes[n1].Charge = m
		t.nodes[n2].Pos = pos
		t.nodes[n2].Charge = charge
		return
	}
}

// Propagate aggregates charge and charge-weighted position into every branch.
// Parents are stored in subdivision order, so walking them backwards visits children first.
func (t *Quadtree) Propagate() {
	for k := len(t.parents) - 1; k >= 0; k-- {
		node := t.parents[k]
		i := t.nodes[node].Children

		var pos r2.Vec
		var charge float64
		for c := i; c < i+4; c++ {
			pos = r2.Add(pos, r2.Scale(t.nodes[c].Charge, t.nodes[c].Pos))
			charge += t.nodes[c].Charge
		}

		t.nodes[node].Charge = charge
		if charge != 0 {
			t.nodes[node].Pos = r2.Scale(1/charge, pos)
		}
	}
}

// EField returns the approximate field at pos, pointing away from positive charge
func (t *Quadtree) EField(pos r2.Vec) r2.Vec {
	var field r2.Vec
	visits := int64(0)

	node := Root
	for {
		n := &t.nodes[node]

		d := r2.Sub(pos, n.Pos)
		dSq := r2.Norm2(d)

		if n.IsLeaf() || n.Quad.Size*n.Quad.Size < dSq*t.tSq {
			if n.Charge != 0 {
				denom := dSq + t.eSq
				field = r2.Add(field, r2.Scale(math.Min(n.Charge/denom, math.MaxFloat64), d))
			}
			visits++

			if n.Next == 0 {
				break
			}
			node = n.Next
		} else {
			node = n.Children
		}
	}

	t.calcs.Add(visits)
	return field
}

// Calcs returns the number of node interactions since the last Clear
func (t *Quadtree) Calcs() int64 {
	return t.calcs.Load()
}

// Len returns the number of nodes
func (t *Quadtree) Len() int {
	return len(t.nodes)
}

// Nodes exposes the node arena. The slice is reused by the next Clear.
func (t *Quadtree) Nodes() []Node {
	return t.nodes
}

// CopyNodes appends a copy of the arena to dst
func (t *Quadtree) CopyNodes(dst []Node) []Node {
	return append(dst[:0], t.nodes...)
}
