package formula

// DependencyGraph tracks, for every cell, which cells it reads from
// (precedents) and which cells read from it (dependents). It is the
// engine's single source of truth for "what needs recomputing when cell X
// changes" and "is there a cycle".
type DependencyGraph struct {
	precedents map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		precedents: make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (g *DependencyGraph) ensure(node string) {
	if _, ok := g.precedents[node]; !ok {
		g.precedents[node] = make(map[string]struct{})
	}
	if _, ok := g.dependents[node]; !ok {
		g.dependents[node] = make(map[string]struct{})
	}
}

// SetPrecedents replaces cell's entire precedent set, fixing up the
// reciprocal dependents edges on both the old and new sides. Call this
// every time a cell's formula is parsed, even with an empty precedents
// slice for a literal value — that clears any stale edges from its
// previous formula.
func (g *DependencyGraph) SetPrecedents(cell string, precedents []string) {
	g.ensure(cell)
	for old := range g.precedents[cell] {
		delete(g.dependents[old], cell)
	}
	g.precedents[cell] = make(map[string]struct{}, len(precedents))
	for _, p := range precedents {
		g.ensure(p)
		g.precedents[cell][p] = struct{}{}
		g.dependents[p][cell] = struct{}{}
	}
}

// RemoveCell drops cell and every edge touching it, e.g. when a row is
// deleted out from under it.
func (g *DependencyGraph) RemoveCell(cell string) {
	for p := range g.precedents[cell] {
		delete(g.dependents[p], cell)
	}
	for d := range g.dependents[cell] {
		delete(g.precedents[d], cell)
	}
	delete(g.precedents, cell)
	delete(g.dependents, cell)
}

// Dependents returns the cells that read cell directly.
func (g *DependencyGraph) Dependents(cell string) []string {
	return setToSlice(g.dependents[cell])
}

// Precedents returns the cells that cell reads directly.
func (g *DependencyGraph) Precedents(cell string) []string {
	return setToSlice(g.precedents[cell])
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// AffectedSet returns every cell transitively dependent on any of seeds,
// including the seeds themselves, via depth-first traversal of the
// dependents edges.
func (g *DependencyGraph) AffectedSet(seeds []string) []string {
	visited := make(map[string]bool)
	var order []string
	var dfs func(string)
	dfs = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true
		order = append(order, n)
		for d := range g.dependents[n] {
			dfs(d)
		}
	}
	for _, s := range seeds {
		dfs(s)
	}
	return order
}

// RecalcPlan is the result of planning a recalculation: Order lists
// acyclic cells in dependency order (every precedent appears before its
// dependents), and Cycles lists the strongly-connected groups that must
// instead resolve to #CYCLE!.
type RecalcPlan struct {
	Order  []string
	Cycles [][]string
}

// Plan computes a recalculation plan covering every cell transitively
// affected by seeds, detecting cycles with Tarjan's strongly-connected
// components algorithm rather than the naive "stop on revisit" approach,
// so every cell caught in a cycle is identified instead of just the first
// repeat visited during a DFS.
func (g *DependencyGraph) Plan(seeds []string) RecalcPlan {
	affected := g.AffectedSet(seeds)
	if len(affected) == 0 {
		return RecalcPlan{}
	}
	subset := make(map[string]bool, len(affected))
	for _, n := range affected {
		subset[n] = true
	}
	sccs := g.stronglyConnectedComponents(subset)

	var plan RecalcPlan
	// Tarjan emits components in reverse topological order with respect to
	// the precedent->dependent edge direction; reversing gives precedents
	// before dependents.
	for i := len(sccs) - 1; i >= 0; i-- {
		comp := sccs[i]
		if len(comp) > 1 || g.hasSelfLoop(comp[0]) {
			plan.Cycles = append(plan.Cycles, comp)
			continue
		}
		plan.Order = append(plan.Order, comp[0])
	}
	return plan
}

func (g *DependencyGraph) hasSelfLoop(n string) bool {
	_, ok := g.dependents[n][n]
	return ok
}

type tarjanState struct {
	g       *DependencyGraph
	subset  map[string]bool
	index   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	counter int
	sccs    [][]string
}

func (g *DependencyGraph) stronglyConnectedComponents(subset map[string]bool) [][]string {
	st := &tarjanState{
		g:       g,
		subset:  subset,
		index:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
	}
	for n := range subset {
		if _, seen := st.index[n]; !seen {
			st.strongconnect(n)
		}
	}
	return st.sccs
}

func (st *tarjanState) strongconnect(v string) {
	st.index[v] = st.counter
	st.low[v] = st.counter
	st.counter++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for w := range st.g.dependents[v] {
		if !st.subset[w] {
			continue
		}
		if _, seen := st.index[w]; !seen {
			st.strongconnect(w)
			if st.low[w] < st.low[v] {
				st.low[v] = st.low[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.low[v] {
				st.low[v] = st.index[w]
			}
		}
	}

	if st.low[v] == st.index[v] {
		var component []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, component)
	}
}
