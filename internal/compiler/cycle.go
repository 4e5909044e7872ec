package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// CycleWarning reports a loop in the declared waitFor graph.
//
// Level is "error" when every store in the loop handles a common identifier,
// since dispatching that identifier always fails with a cyclic dependency.
// Otherwise the loop is only reachable if handlers wait conditionally, and
// Level is "warning".
type CycleWarning struct {
	Path    []string `json:"path"`
	Shared  []string `json:"shared,omitempty"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles finds loops in the store waitFor graph.
//
// The algorithm:
//  1. Build store → waited-for stores edges from the declarations
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop
//
// A DAG returns an empty list. Results are ordered by the first store name in
// each path.
func AnalyzeCycles(stores []StoreDecl) []CycleWarning {
	if len(stores) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(stores)
	handles := make(map[string][]string, len(stores))
	for _, s := range stores {
		handles[s.Name] = s.Handles
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph, handles))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// dependencyGraph maps store name → stores it waits for.
type dependencyGraph map[string][]string

func buildDependencyGraph(stores []StoreDecl) dependencyGraph {
	graph := make(dependencyGraph, len(stores))
	for _, s := range stores {
		if graph[s.Name] == nil {
			graph[s.Name] = []string{}
		}
		graph[s.Name] = append(graph[s.Name], s.WaitFor...)
	}
	return graph
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are stable.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range slices.Sorted(maps.Keys(graph)) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph, handles map[string][]string) CycleWarning {
	shared := sharedIdentifiers(scc, handles)
	level := "warning"
	if len(shared) > 0 {
		level = "error"
	}

	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Shared:  shared,
			Message: fmt.Sprintf("store waits for itself: %s → %s", name, name),
			Level:   level,
		}
	}

	path := reconstructCyclePath(scc, graph)
	msg := fmt.Sprintf("waitFor cycle: %s", strings.Join(path, " → "))
	if len(shared) > 0 {
		msg += fmt.Sprintf(" (fails on %s)", strings.Join(shared, ", "))
	}
	return CycleWarning{Path: path, Shared: shared, Message: msg, Level: level}
}

// sharedIdentifiers returns the identifiers handled by every store in scc.
func sharedIdentifiers(scc []string, handles map[string][]string) []string {
	var shared []string
	for _, id := range handles[scc[0]] {
		inAll := true
		for _, name := range scc[1:] {
			if !slices.Contains(handles[name], id) {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, id)
		}
	}
	slices.Sort(shared)
	return shared
}

// reconstructCyclePath follows edges within the SCC from its first member
// until it returns to it.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
