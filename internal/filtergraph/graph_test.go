package filtergraph_test

import (
	"testing"

	"keylight/internal/filtergraph"
)

func TestGraphRenderJoinsNodes(t *testing.T) {
	var g filtergraph.Graph
	g.Add("setpts=PTS-STARTPTS", []string{"1:v"}, []string{"l0pts"})
	g.Add("scale=640:360", []string{"l0pts"}, []string{"l0scl"})
	g.Add("overlay=0:0", []string{"0:v", "l0scl"}, []string{"ov0"})

	want := "[1:v]setpts=PTS-STARTPTS[l0pts];[l0pts]scale=640:360[l0scl];[0:v][l0scl]overlay=0:0[ov0]"
	if got := g.Render(); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestGraphEmpty(t *testing.T) {
	var g filtergraph.Graph
	if !g.Empty() {
		t.Fatal("fresh graph should be empty")
	}
	if g.Render() != "" {
		t.Fatalf("empty graph rendered %q", g.Render())
	}
	g.Add("anull", []string{"0:a"}, []string{"a"})
	if g.Empty() {
		t.Fatal("graph with one node reported empty")
	}
}

func TestGraphProduces(t *testing.T) {
	var g filtergraph.Graph
	g.Add("amix=inputs=2:duration=longest", []string{"0:a", "1:a"}, []string{"aout"})
	if !g.Produces("aout") {
		t.Fatal("aout should be produced")
	}
	if g.Produces("0:a") {
		t.Fatal("roster stream reported as produced")
	}
}
