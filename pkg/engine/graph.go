package engine

import "sort"

// unionFind groups question ids that share a fix.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind(ids []string) *unionFind {
	u := &unionFind{parent: make(map[string]string, len(ids)), rank: make(map[string]int, len(ids))}
	for _, id := range ids {
		u.parent[id] = id
	}
	return u
}

func (u *unionFind) find(x string) string {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}

// groups returns the connected components. Components and their members
// keep the order of ids.
func (u *unionFind) groups(ids []string) [][]string {
	index := make(map[string]int)
	var out [][]string
	for _, id := range ids {
		root := u.find(id)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], id)
	}
	return out
}

// depGraph is a directed graph of task dependencies. An edge from a task
// points at one of its prerequisites.
type depGraph struct {
	prereqs map[string]map[string]bool
}

func newDepGraph() *depGraph {
	return &depGraph{prereqs: make(map[string]map[string]bool)}
}

func (g *depGraph) addEdge(task, prereq string) {
	if g.prereqs[task] == nil {
		g.prereqs[task] = make(map[string]bool)
	}
	g.prereqs[task][prereq] = true
}

// dependsOn returns the sorted prerequisites of a task.
func (g *depGraph) dependsOn(task string) []string {
	var out []string
	for p := range g.prereqs[task] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// order sorts tasks so every prerequisite precedes its dependents. less
// breaks ties among tasks that are ready at the same time. Only edges
// between members of tasks are considered. When the members contain a
// cycle, order returns the tasks on it instead.
func (g *depGraph) order(tasks []string, less func(a, b string) bool) (sorted, cycle []string) {
	member := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		member[t] = true
	}
	pending := make(map[string]int, len(tasks))
	dependents := make(map[string][]string)
	for _, t := range tasks {
		for p := range g.prereqs[t] {
			if member[p] {
				pending[t]++
				dependents[p] = append(dependents[p], t)
			}
		}
	}

	var ready []string
	for _, t := range tasks {
		if pending[t] == 0 {
			ready = append(ready, t)
		}
	}
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		next := ready[0]
		ready = ready[1:]
		sorted = append(sorted, next)
		for _, d := range dependents[next] {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(sorted) == len(tasks) {
		return sorted, nil
	}

	var left []string
	for _, t := range tasks {
		if pending[t] > 0 {
			left = append(left, t)
		}
	}
	return nil, g.findCycle(left)
}

// findCycle walks prerequisite edges among the unsorted tasks until a task
// repeats. Every unsorted task has an unsorted prerequisite, so the walk
// always closes a loop.
func (g *depGraph) findCycle(left []string) []string {
	in := make(map[string]bool, len(left))
	for _, t := range left {
		in[t] = true
	}
	sort.Strings(left)

	seen := make(map[string]int)
	var path []string
	cur := left[0]
	for {
		if i, ok := seen[cur]; ok {
			loop := append([]string(nil), path[i:]...)
			return append(loop, cur)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		next := ""
		for _, p := range g.dependsOn(cur) {
			if in[p] {
				next = p
				break
			}
		}
		if next == "" {
			return path
		}
		cur = next
	}
}
