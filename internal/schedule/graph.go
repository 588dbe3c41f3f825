package schedule

import (
	"slices"

	"github.com/oklog/ulid/v2"
)

// DependencyGraph guards the edge set of a TaskSet: every insertion is
// checked for self reference and for cycles before it is applied.
type DependencyGraph struct {
	set   *TaskSet
	newID func() string
}

type GraphOption func(*DependencyGraph)

// WithIDGenerator overrides how new dependency ids are minted.
func WithIDGenerator(fn func() string) GraphOption {
	return func(g *DependencyGraph) {
		g.newID = fn
	}
}

func NewDependencyGraph(set *TaskSet, opts ...GraphOption) *DependencyGraph {
	g := &DependencyGraph{
		set:   set,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddDependency validates and appends the edge source -> target.
func (g *DependencyGraph) AddDependency(source, target string, typ DependencyType, lagDays int) (Dependency, error) {
	return g.Insert(Dependency{
		SourceID: source,
		TargetID: target,
		Type:     typ,
		LagDays:  lagDays,
	})
}

// Insert is AddDependency for a complete record. An empty ID is filled in;
// a given ID is kept, which is how persisted edges are reloaded.
func (g *DependencyGraph) Insert(dep Dependency) (Dependency, error) {
	if dep.SourceID == dep.TargetID {
		return Dependency{}, &SelfDependencyError{TaskID: dep.SourceID}
	}
	typ, ok := ParseDependencyType(string(dep.Type))
	if !ok {
		return Dependency{}, &InvalidDependencyError{Reason: "unknown type " + string(dep.Type)}
	}
	dep.Type = typ
	if !g.set.HasTask(dep.SourceID) {
		return Dependency{}, &TaskNotFoundError{TaskID: dep.SourceID}
	}
	if !g.set.HasTask(dep.TargetID) {
		return Dependency{}, &TaskNotFoundError{TaskID: dep.TargetID}
	}
	if dep.ID != "" {
		if _, exists := g.set.depIdx[dep.ID]; exists {
			return Dependency{}, &DuplicateDependencyError{DependencyID: dep.ID}
		}
	}
	if existing := g.set.edgeBetween(dep.SourceID, dep.TargetID); existing != nil {
		return Dependency{}, &DuplicateDependencyError{
			DependencyID: existing.ID,
			SourceID:     dep.SourceID,
			TargetID:     dep.TargetID,
		}
	}
	if cycle := g.pathBetween(dep.TargetID, dep.SourceID); cycle != nil {
		return Dependency{}, &CircularDependencyError{
			SourceID: dep.SourceID,
			TargetID: dep.TargetID,
			Cycle:    cycle,
		}
	}
	if dep.ID == "" {
		dep.ID = g.newID()
	}
	g.set.attach(dep)
	return dep, nil
}

// UpdateDependency changes the relation and lag of an existing edge. The
// endpoints stay the same, so acyclicity cannot change.
func (g *DependencyGraph) UpdateDependency(id string, typ DependencyType, lagDays int) (Dependency, error) {
	i, ok := g.set.depIdx[id]
	if !ok {
		return Dependency{}, &DependencyNotFoundError{DependencyID: id}
	}
	parsed, ok := ParseDependencyType(string(typ))
	if !ok {
		return Dependency{}, &InvalidDependencyError{Reason: "unknown type " + string(typ)}
	}
	d := g.set.deps[i]
	d.Type = parsed
	d.LagDays = lagDays
	return *d, nil
}

// RemoveDependency detaches an edge. Removal can never introduce a cycle.
func (g *DependencyGraph) RemoveDependency(id string) error {
	if !g.set.detach(id) {
		return &DependencyNotFoundError{DependencyID: id}
	}
	return nil
}

// pathBetween searches depth first from `from` along outgoing edges and
// returns the first path that reaches `to` (both ends included), or nil.
func (g *DependencyGraph) pathBetween(from, to string) []string {
	visited := make(map[string]bool, len(g.set.tasks))
	parent := make(map[string]string)
	stack := []string{from}
	visited[from] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			path := []string{cur}
			for cur != from {
				cur = parent[cur]
				path = append(path, cur)
			}
			slices.Reverse(path)
			return path
		}
		out := g.set.outgoing[cur]
		// Push in reverse so the first edge is explored first.
		for i := len(out) - 1; i >= 0; i-- {
			next := out[i].TargetID
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			stack = append(stack, next)
		}
	}
	return nil
}

// Validate checks the whole edge set for cycles. It only fails if the set
// was modified behind the graph's back.
func (g *DependencyGraph) Validate() error {
	if cycle := findCycle(g.set); cycle != nil {
		return &CircularDependencyError{Cycle: cycle}
	}
	return nil
}

type frame struct {
	id   string
	next int
}

const (
	white = iota
	gray
	black
)

// findCycle runs an iterative colour DFS over the set and returns the first
// cycle found, or nil.
func findCycle(s *TaskSet) []string {
	color := make(map[string]int, len(s.tasks))
	for _, root := range s.tasks {
		if color[root.ID] != white {
			continue
		}
		stack := []frame{{id: root.ID}}
		color[root.ID] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := s.outgoing[top.id]
			if top.next == len(out) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := out[top.next].TargetID
			top.next++
			switch color[next] {
			case gray:
				var cycle []string
				for i := range stack {
					if stack[i].id == next {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.id)
						}
						break
					}
				}
				return cycle
			case white:
				color[next] = gray
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}
