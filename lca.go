// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rmq

import (
	"context"
	"fmt"
	"unsafe"
)

// cartesianNode is one node of the Cartesian tree. Nodes live in a flat
// arena indexed by node id, and node id equals the original array index, so
// relationships are plain ints and the whole tree is freed by dropping one
// slice.
type cartesianNode struct {
	value      Value
	arrayIndex int
	parent     int // -1 for the root
	leftChild  int // -1 if none
	rightChild int // -1 if none
	depth      int
}

// LCA answers queries through a Cartesian tree.
//
// Description:
//
//	Preprocessing builds a Cartesian tree over the array: in-order
//	traversal reproduces the array, and every node's value is <= both
//	children's values. Those two properties together mean the minimum of
//	A[left..right] is exactly the value at the lowest common ancestor of
//	nodes left and right, so a query is one LCA lookup. The LCA is found
//	in O(log n) with a binary-lifting ancestor table.
//
// Invariants:
//   - Node id == original array index (identity mapping)
//   - In-order traversal of the tree yields 0, 1, ..., n-1
//   - node.value <= both children's values (min-heap order)
//   - Exactly one node has parent == -1
//   - anc[v][k] is the 2^k-th ancestor of v, -1 once past the root
//
// The stack-based build pops only nodes whose value is strictly greater
// than the incoming one, so equal values keep their left-to-right stack
// order: among equal minima the earliest index is the ancestor, which is
// what makes the first-occurrence tie-break fall out of the LCA lookup.
//
// No update support: a single write can restructure the whole tree, so a
// rebuild via Preprocess is required.
//
// Thread Safety: Single writer; see the package documentation.
type LCA struct {
	base

	nodes  []cartesianNode
	anc    []int // Flat ancestor table; anc[v*maxLog+k] = 2^k-th ancestor of v
	root   int
	maxLog int
}

// TreeStats contains statistics about the Cartesian tree.
type TreeStats struct {
	NodeCount   int // Nodes in the tree (== array length)
	TreeDepth   int // Maximum node depth (0 for a single node)
	Levels      int // Ancestor table levels (ceil(log2 n) + 1)
	MemoryBytes int // Approximate memory for tree plus the data copy
}

var _ Engine = (*LCA)(nil)

// NewLCA creates a Cartesian-tree/LCA engine.
func NewLCA(cfg Config) *LCA {
	e := &LCA{root: -1}
	e.base = newBase(KindLCA, "LCA-based", false, cfg)
	e.base.algo = e
	return e
}

// build constructs the tree, assigns depths, and fills the ancestor table.
//
// Algorithm:
//
//	Time:  O(n log n) — tree O(n) amortized, lifting table O(n log n)
//	Space: O(n log n)
func (e *LCA) build(ctx context.Context) error {
	if err := e.buildCartesianTree(ctx); err != nil {
		return err
	}
	if e.root == -1 {
		return fmt.Errorf("%w: cartesian tree has no root", ErrAlgorithm)
	}
	e.assignDepths()
	return e.buildAncestorTable(ctx)
}

// buildCartesianTree runs the stack-based construction.
//
// The stack holds the rightmost path of the tree built so far. For each
// index i, nodes with value strictly greater than A[i] are popped; the last
// one popped becomes i's left child, and i becomes the right child of the
// new stack top. Equal values are NOT popped, which keeps them in stable
// left-to-right order on the spine.
func (e *LCA) buildCartesianTree(ctx context.Context) error {
	n := len(e.data)
	e.nodes = make([]cartesianNode, n)
	for i := 0; i < n; i++ {
		e.nodes[i] = cartesianNode{
			value:      e.data[i],
			arrayIndex: i,
			parent:     -1,
			leftChild:  -1,
			rightChild: -1,
		}
	}

	stack := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i%4096 == 0 {
			if err := checkCancel(ctx, "cartesian tree build"); err != nil {
				return err
			}
		}

		lastPopped := -1
		for len(stack) > 0 && e.nodes[stack[len(stack)-1]].value > e.nodes[i].value {
			lastPopped = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			e.nodes[top].rightChild = i
			e.nodes[i].parent = top
		}
		if lastPopped != -1 {
			e.nodes[i].leftChild = lastPopped
			e.nodes[lastPopped].parent = i
		}

		stack = append(stack, i)
	}

	// The stack bottom is the single parentless node.
	e.root = -1
	for i := 0; i < n; i++ {
		if e.nodes[i].parent == -1 {
			e.root = i
			break
		}
	}
	return nil
}

// assignDepths walks the tree once from the root. Iterative with an explicit
// stack: the tree degenerates to a path for sorted input, so recursion depth
// would be O(n).
func (e *LCA) assignDepths() {
	type frame struct{ node, depth int }
	stack := []frame{{e.root, 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e.nodes[f.node].depth = f.depth
		if l := e.nodes[f.node].leftChild; l != -1 {
			stack = append(stack, frame{l, f.depth + 1})
		}
		if r := e.nodes[f.node].rightChild; r != -1 {
			stack = append(stack, frame{r, f.depth + 1})
		}
	}
}

// buildAncestorTable fills the binary-lifting table:
// anc[v][0] = parent(v), anc[v][k] = anc[anc[v][k-1]][k-1].
func (e *LCA) buildAncestorTable(ctx context.Context) error {
	n := len(e.nodes)

	e.maxLog = 0
	for 1<<e.maxLog < n {
		e.maxLog++
	}
	e.maxLog++

	e.anc = make([]int, n*e.maxLog)
	for v := 0; v < n; v++ {
		e.anc[v*e.maxLog] = e.nodes[v].parent
	}

	for k := 1; k < e.maxLog; k++ {
		if err := checkCancel(ctx, "ancestor table build"); err != nil {
			return err
		}
		for v := 0; v < n; v++ {
			mid := e.anc[v*e.maxLog+k-1]
			if mid != -1 {
				e.anc[v*e.maxLog+k] = e.anc[mid*e.maxLog+k-1]
			} else {
				e.anc[v*e.maxLog+k] = -1
			}
		}
	}
	return nil
}

// kthAncestor lifts node by k steps, -1 once past the root.
func (e *LCA) kthAncestor(node, k int) int {
	for i := 0; i < e.maxLog && node != -1; i++ {
		if k&(1<<i) != 0 {
			node = e.anc[node*e.maxLog+i]
		}
	}
	return node
}

// findLCA returns the lowest common ancestor of u and v, -1 on failure.
//
// Depths are equalized first by lifting the deeper node. If the nodes then
// coincide, that node is the LCA; otherwise both are lifted past every level
// where their ancestor chains still differ, leaving them as children of the
// LCA.
func (e *LCA) findLCA(u, v int) int {
	if u == -1 || v == -1 {
		return -1
	}

	if e.nodes[u].depth < e.nodes[v].depth {
		u, v = v, u
	}
	u = e.kthAncestor(u, e.nodes[u].depth-e.nodes[v].depth)
	if u == -1 {
		return -1
	}
	if u == v {
		return u
	}

	for i := e.maxLog - 1; i >= 0; i-- {
		if e.anc[u*e.maxLog+i] != e.anc[v*e.maxLog+i] {
			u = e.anc[u*e.maxLog+i]
			v = e.anc[v*e.maxLog+i]
		}
	}
	return e.anc[u*e.maxLog]
}

// minimum maps both array indices to their tree nodes (identity mapping)
// and answers from the LCA node.
func (e *LCA) minimum(left, right int) (Value, int, error) {
	lca := e.findLCA(left, right)
	if lca == -1 {
		return 0, 0, fmt.Errorf("%w: LCA lookup for [%d, %d] resolved to no node", ErrAlgorithm, left, right)
	}
	return e.nodes[lca].value, e.nodes[lca].arrayIndex, nil
}

// discard releases the tree and the ancestor table.
func (e *LCA) discard() {
	e.nodes = nil
	e.anc = nil
	e.root = -1
	e.maxLog = 0
}

// Complexity returns the engine's descriptive complexity labels.
func (e *LCA) Complexity() ComplexityInfo {
	return ComplexityInfo{
		PreprocessingTime:  "O(n log n)",
		PreprocessingSpace: "O(n log n)",
		QueryTime:          "O(log n)",
		QuerySpace:         "O(1)",
		TotalSpace:         "O(n log n)",
	}
}

// InOrder returns the array indices visited by an in-order traversal of the
// tree. For a correctly built Cartesian tree this is 0, 1, ..., n-1.
// Iterative for the same reason as assignDepths.
func (e *LCA) InOrder() []int {
	if !e.preprocessed {
		return nil
	}

	order := make([]int, 0, len(e.nodes))
	stack := make([]int, 0, 64)
	curr := e.root

	for curr != -1 || len(stack) > 0 {
		for curr != -1 {
			stack = append(stack, curr)
			curr = e.nodes[curr].leftChild
		}
		curr = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, e.nodes[curr].arrayIndex)
		curr = e.nodes[curr].rightChild
	}
	return order
}

// Validate checks the Cartesian tree invariants.
//
// Description:
//
//	Verifies:
//	- Exactly one parentless node, and it is the recorded root
//	- Parent/child links are mutually consistent
//	- Min-heap order: every node's value <= both children's values
//	- Depths increase by one along every parent-child edge
//	- In-order traversal reproduces the original array order
//
// Complexity: O(n) time
func (e *LCA) Validate() error {
	if !e.preprocessed {
		return fmt.Errorf("%w: nothing to validate", ErrNotPreprocessed)
	}

	n := len(e.nodes)
	roots := 0
	for i := 0; i < n; i++ {
		if e.nodes[i].parent == -1 {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: tree has %d parentless nodes, want 1", ErrAlgorithm, roots)
	}
	if e.root < 0 || e.root >= n || e.nodes[e.root].parent != -1 {
		return fmt.Errorf("%w: recorded root %d is not the parentless node", ErrAlgorithm, e.root)
	}

	for i := 0; i < n; i++ {
		for _, child := range []int{e.nodes[i].leftChild, e.nodes[i].rightChild} {
			if child == -1 {
				continue
			}
			if child < 0 || child >= n {
				return fmt.Errorf("%w: node %d has child %d outside [0, %d)", ErrAlgorithm, i, child, n)
			}
			if e.nodes[child].parent != i {
				return fmt.Errorf("%w: node %d's child %d has parent %d", ErrAlgorithm, i, child, e.nodes[child].parent)
			}
			if e.nodes[child].value < e.nodes[i].value {
				return fmt.Errorf("%w: heap order violated between %d and child %d", ErrAlgorithm, i, child)
			}
			if e.nodes[child].depth != e.nodes[i].depth+1 {
				return fmt.Errorf("%w: node %d depth %d, child %d depth %d",
					ErrAlgorithm, i, e.nodes[i].depth, child, e.nodes[child].depth)
			}
		}
	}

	for pos, idx := range e.InOrder() {
		if pos != idx {
			return fmt.Errorf("%w: in-order position %d holds index %d", ErrAlgorithm, pos, idx)
		}
	}

	return nil
}

// TreeLayout returns tree statistics for tests and benchmarks.
func (e *LCA) TreeLayout() TreeStats {
	maxDepth := 0
	for i := range e.nodes {
		if e.nodes[i].depth > maxDepth {
			maxDepth = e.nodes[i].depth
		}
	}
	return TreeStats{
		NodeCount:   len(e.nodes),
		TreeDepth:   maxDepth,
		Levels:      e.maxLog,
		MemoryBytes: e.MemoryUsage(),
	}
}

// MemoryUsage estimates memory usage in bytes.
func (e *LCA) MemoryUsage() int {
	return len(e.data)*int(unsafe.Sizeof(Value(0))) +
		len(e.nodes)*int(unsafe.Sizeof(cartesianNode{})) +
		len(e.anc)*int(unsafe.Sizeof(int(0)))
}
