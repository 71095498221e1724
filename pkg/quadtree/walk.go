package quadtree

import "math"

type frame struct {
	node  int
	depth int
}

// DepthRange returns the shallowest and deepest leaf depth of a published node list
func DepthRange(nodes []Node) (int, int) {
	if len(nodes) == 0 {
		return 0, 0
	}

	minDepth, maxDepth := math.MaxInt, 0
	stack := []frame{{Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := nodes[f.node]
		if n.IsLeaf() {
			minDepth = min(minDepth, f.depth)
			maxDepth = max(maxDepth, f.depth)
			continue
		}
		for i := 0; i < 4; i++ {
			stack = append(stack, frame{n.Children + i, f.depth + 1})
		}
	}

	return minDepth, maxDepth
}

// Walk calls fn for every node that is a leaf or sits at maxDepth, skipping anything shallower than minDepth
func Walk(nodes []Node, minDepth, maxDepth int, fn func(n Node, depth int)) {
	if len(nodes) == 0 {
		return
	}

	stack := []frame{{Root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := nodes[f.node]
		if n.IsBranch() && f.depth < maxDepth {
			for i := 0; i < 4; i++ {
				stack = append(stack, frame{n.Children + i, f.depth + 1})
			}
		} else if f.depth >= minDepth {
			fn(n, f.depth)
		}
	}
}
