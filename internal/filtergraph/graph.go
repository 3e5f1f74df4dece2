package filtergraph

import "strings"

// Node is one filter invocation bound to named input and output buffers.
// Inputs refer either to roster streams ("0:v", "2:a") or to intermediate
// labels produced by earlier nodes.
type Node struct {
	Filter  string
	Inputs  []string
	Outputs []string
}

// Graph is an ordered node list over named intermediate buffers.
type Graph struct {
	nodes []Node
}

// Add appends a node.
func (g *Graph) Add(filter string, inputs, outputs []string) {
	g.nodes = append(g.nodes, Node{Filter: filter, Inputs: inputs, Outputs: outputs})
}

// Nodes returns the node list in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Prefix returns a graph holding the first n nodes.
func (g *Graph) Prefix(n int) Graph {
	if n < 0 {
		n = 0
	}
	if n > len(g.nodes) {
		n = len(g.nodes)
	}
	return Graph{nodes: append([]Node(nil), g.nodes[:n]...)}
}

// Empty reports whether no nodes were emitted.
func (g *Graph) Empty() bool {
	return len(g.nodes) == 0
}

// Produces reports whether any node emits the given output label.
func (g *Graph) Produces(label string) bool {
	for _, node := range g.nodes {
		for _, out := range node.Outputs {
			if out == label {
				return true
			}
		}
	}
	return false
}

// Render serializes the graph into the engine's filter syntax:
// each node as [in]...filter[out]..., nodes joined by semicolons.
func (g *Graph) Render() string {
	parts := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		var sb strings.Builder
		for _, in := range node.Inputs {
			sb.WriteByte('[')
			sb.WriteString(in)
			sb.WriteByte(']')
		}
		sb.WriteString(node.Filter)
		for _, out := range node.Outputs {
			sb.WriteByte('[')
			sb.WriteString(out)
			sb.WriteByte(']')
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, ";")
}
