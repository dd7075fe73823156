package citeplug

// TypeGraph holds the registered type matchers and their extends edges.
// Edges are stored as identifier strings and looked up at resolution time, so
// a child may be added before its parent. TypeGraph is not safe for
// concurrent use; Registry serializes access to it.
type TypeGraph struct {
	order []string
	nodes map[string]*TypeMatcher
}

// NewTypeGraph creates an empty graph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{nodes: make(map[string]*TypeMatcher)}
}

// Add registers or replaces the matcher for id. A replaced matcher keeps the
// position of the first registration. The graph becomes the matcher's
// resolver unless one was bound explicitly.
func (g *TypeGraph) Add(id string, m *TypeMatcher) {
	if _, ok := g.nodes[id]; !ok {
		g.order = append(g.order, id)
	}
	m.bindDefault(g)
	g.nodes[id] = m
}

// Remove deletes id. Descendants stay registered; with their parent gone they
// can no longer be reached during resolution.
func (g *TypeGraph) Remove(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i:i], g.order[i+1:]...)
			break
		}
	}
}

// Has reports whether id has a matcher.
func (g *TypeGraph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Get returns the matcher for id.
func (g *TypeGraph) Get(id string) (*TypeMatcher, bool) {
	m, ok := g.nodes[id]
	return m, ok
}

// Parent returns the identifier id extends, if any.
func (g *TypeGraph) Parent(id string) (string, bool) {
	m, ok := g.nodes[id]
	if !ok || m.Extends() == "" {
		return "", false
	}
	return m.Extends(), true
}

// IsA reports whether ancestor is reachable from id by following extends
// edges through registered nodes. A node is not its own ancestor.
func (g *TypeGraph) IsA(id, ancestor string) bool {
	seen := map[string]bool{id: true}
	cur := id
	for {
		m, ok := g.nodes[cur]
		if !ok || m.Extends() == "" {
			return false
		}
		cur = m.Extends()
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
}

// List returns the registered identifiers in insertion order.
func (g *TypeGraph) List() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of registered matchers.
func (g *TypeGraph) Len() int { return len(g.order) }

// Type resolves v to the most specific matching identifier. Roots (nodes
// without extends) are tried in insertion order among those whose data type
// equals DataTypeOf(v); from the first matching root the resolution descends
// into the first matching child until no child matches.
func (g *TypeGraph) Type(v any) (string, bool) {
	dt := DataTypeOf(v)
	for _, id := range g.order {
		m := g.nodes[id]
		if m.Extends() != "" || m.DataType() != dt {
			continue
		}
		if m.Match(v) {
			return g.descend(id, v), true
		}
	}
	return "", false
}

func (g *TypeGraph) descend(id string, v any) string {
	visited := map[string]bool{id: true}
	for {
		next := ""
		for _, cid := range g.order {
			if visited[cid] || g.nodes[cid].Extends() != id {
				continue
			}
			if g.nodes[cid].Match(v) {
				next = cid
				break
			}
		}
		if next == "" {
			return id
		}
		visited[next] = true
		id = next
	}
}
