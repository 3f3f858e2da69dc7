package rules

import (
	"fmt"
	"slices"

	"github.com/edp1096/toy-circuit/internal/consts"
)

// multigraph keeps parallel links apart so two components between the same
// pair of nodes form a loop.
type multigraph struct {
	adj [][]halfEdge
}

type halfEdge struct{ to, edge int }

func (m *multigraph) addEdge(u, v, id int) {
	m.adj[u] = append(m.adj[u], halfEdge{v, id})
	m.adj[v] = append(m.adj[v], halfEdge{u, id})
}

// bridges is Tarjan's low-link search. An edge is a bridge when no back
// edge from below it reaches its upper end or above.
func (m *multigraph) bridges() map[int]bool {
	n := len(m.adj)
	disc := make([]int, n)
	low := make([]int, n)
	out := make(map[int]bool)
	timer := 0

	var dfs func(u, parentEdge int)
	dfs = func(u, parentEdge int) {
		timer++
		disc[u], low[u] = timer, timer
		for _, h := range m.adj[u] {
			if h.edge == parentEdge {
				continue
			}
			if disc[h.to] == 0 {
				dfs(h.to, h.edge)
				low[u] = min(low[u], low[h.to])
				if low[h.to] > disc[u] {
					out[h.edge] = true
				}
				continue
			}
			low[u] = min(low[u], disc[h.to])
		}
	}

	for u := 0; u < n; u++ {
		if disc[u] == 0 {
			dfs(u, -1)
		}
	}
	return out
}

// checkDanglingNodes flags non-ground nodes that touch at most one
// component, or whose every link is a bridge and so lies on no loop.
func checkDanglingNodes(t *topology, _ Options) []Violation {
	m := &multigraph{adj: make([][]halfEdge, len(t.nodes))}
	edges := 0
	for i := range t.comps {
		for _, l := range t.links(&t.comps[i]) {
			u, v := int(t.ids[l.a]), int(t.ids[l.b])
			if u == v {
				continue
			}
			m.addEdge(u, v, edges)
			edges++
		}
	}
	bridges := m.bridges()

	var out []Violation
	for _, n := range t.graph.Nodes {
		if n.ID == consts.GroundNodeID {
			continue
		}

		var ids []string
		for _, p := range n.Ports {
			if !slices.Contains(ids, p.ComponentID) {
				ids = append(ids, p.ComponentID)
			}
		}

		if len(ids) <= 1 {
			out = append(out, Violation{
				RuleID:         RuleDanglingNode,
				Severity:       SeverityWarning,
				ComponentIDs:   ids,
				Message:        fmt.Sprintf("terminal of %s is not connected to anything", ids[0]),
				Recommendation: "wire the open terminal or remove the component",
			})
			continue
		}

		adj := m.adj[t.ids[n.ID]]
		if len(adj) == 0 {
			continue
		}
		onLoop := false
		for _, h := range adj {
			if !bridges[h.edge] {
				onLoop = true
				break
			}
		}
		if onLoop {
			continue
		}
		out = append(out, Violation{
			RuleID:         RuleDanglingNode,
			Severity:       SeverityWarning,
			ComponentIDs:   ids,
			Message:        fmt.Sprintf("node joining %v is not part of any closed loop", ids),
			Recommendation: "current can only flow around a closed loop",
		})
	}
	return out
}
