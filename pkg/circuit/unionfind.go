package circuit

// UnionFind is an arena of parent indices with path compression. Union
// attaches the root with the larger index under the smaller one, so every
// class is represented by its first-inserted member.
type UnionFind struct {
	parent []int
	index  map[string]int
	keys   []string
}

func NewUnionFind() *UnionFind {
	return &UnionFind{index: make(map[string]int)}
}

// Add registers key as a singleton class and returns its arena index.
// Adding an existing key is a no-op.
func (u *UnionFind) Add(key string) int {
	if i, ok := u.index[key]; ok {
		return i
	}
	i := len(u.parent)
	u.parent = append(u.parent, i)
	u.index[key] = i
	u.keys = append(u.keys, key)
	return i
}

func (u *UnionFind) Has(key string) bool {
	_, ok := u.index[key]
	return ok
}

func (u *UnionFind) find(i int) int {
	root := i
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[i] != root {
		next := u.parent[i]
		u.parent[i] = root
		i = next
	}
	return root
}

// Find returns the representative key of key's class, or "" when key is
// unknown.
func (u *UnionFind) Find(key string) string {
	i, ok := u.index[key]
	if !ok {
		return ""
	}
	return u.keys[u.find(i)]
}

// Union merges the classes of a and b. Unknown keys are ignored.
func (u *UnionFind) Union(a, b string) bool {
	ia, okA := u.index[a]
	ib, okB := u.index[b]
	if !okA || !okB {
		return false
	}
	ra, rb := u.find(ia), u.find(ib)
	if ra == rb {
		return true
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
	return true
}

// Same reports whether a and b are in one class.
func (u *UnionFind) Same(a, b string) bool {
	ra := u.Find(a)
	return ra != "" && ra == u.Find(b)
}

// Keys returns every key in insertion order.
func (u *UnionFind) Keys() []string { return u.keys }
