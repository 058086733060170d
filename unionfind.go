package dupdetect

// Forest is a disjoint-set forest with one node per fingerprinted record.
// Nodes are identified by their 0-based arrival position; Index reports the
// 1-based record index used for cluster ids. Unions are decided by index, not
// by rank: the node with the smaller index always becomes the root, so a
// cluster's representative is its earliest record.
type Forest struct {
	data     []string
	reversed []string
	parent   []int
	// children lists the nodes folded into a root across unions. It is only
	// meaningful while the node is a root and is used to validate merges.
	children [][]int
}

// NewForest creates a forest of singleton clusters, one per fingerprint.
func NewForest(fingerprints []string) *Forest {
	n := len(fingerprints)
	f := &Forest{
		data:     make([]string, n),
		reversed: make([]string, n),
		parent:   make([]int, n),
		children: make([][]int, n),
	}
	copy(f.data, fingerprints)
	for i, s := range fingerprints {
		f.reversed[i] = reverseRunes(s)
		f.parent[i] = i
	}
	return f
}

// Len returns the number of nodes.
func (f *Forest) Len() int { return len(f.parent) }

// Data returns the fingerprint of node x.
func (f *Forest) Data(x int) string { return f.data[x] }

// ReversedData returns the fingerprint of node x with its characters reversed.
func (f *Forest) ReversedData(x int) string { return f.reversed[x] }

// Index returns the 1-based record index of node x.
func (f *Forest) Index(x int) int { return x + 1 }

// Children returns the nodes merged into x while x was a root. The slice
// must not be modified.
func (f *Forest) Children(x int) []int { return f.children[x] }

// Find returns the root of the cluster containing x, with path compression.
func (f *Forest) Find(x int) int {
	// Walk to the root.
	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	// Path compression: point all nodes along the path directly to root.
	for x != root {
		x, f.parent[x] = f.parent[x], root
	}
	return root
}

// Union merges the clusters containing x and y and returns the new root,
// which is whichever of the two roots has the smaller index. The losing
// root and all of its children are re-parented to the winner and appended
// to the winner's children. Union of two nodes already in the same cluster
// returns their root unchanged.
func (f *Forest) Union(x, y int) int {
	rootX := f.Find(x)
	rootY := f.Find(y)
	if rootX == rootY {
		return rootX
	}

	if rootY < rootX {
		rootX, rootY = rootY, rootX
	}
	f.parent[rootY] = rootX
	f.children[rootX] = append(f.children[rootX], rootY)
	// Children of distinct roots are disjoint, so none of these can already
	// be present in the winner's list.
	for _, c := range f.children[rootY] {
		f.parent[c] = rootX
		f.children[rootX] = append(f.children[rootX], c)
	}
	return rootX
}

// Size returns the number of records in the cluster containing x.
func (f *Forest) Size(x int) int {
	return len(f.children[f.Find(x)]) + 1
}

func reverseRunes(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
