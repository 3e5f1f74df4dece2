package filtergraph_test

import (
	"strings"
	"testing"

	"keylight/internal/chroma"
	"keylight/internal/filtergraph"
	"keylight/internal/media"
	"keylight/internal/timeline"
)

func baseStream(duration float64, hasAudio bool) media.Stream {
	return media.Stream{
		Path:     "/in/base.mp4",
		Kind:     media.StreamVideo,
		Width:    1920,
		Height:   1080,
		FPS:      25,
		Duration: duration,
		HasAudio: hasAudio,
	}
}

func videoLayer(path string, duration float64, hasAudio bool) filtergraph.Layer {
	return filtergraph.Layer{
		Stream: media.Stream{
			Path:     path,
			Kind:     media.StreamVideo,
			Width:    1280,
			Height:   720,
			FPS:      30,
			Duration: duration,
			HasAudio: hasAudio,
		},
		Scale:   1,
		Opacity: 1,
	}
}

func findNode(t *testing.T, g *filtergraph.Graph, output string) filtergraph.Node {
	t.Helper()
	for _, node := range g.Nodes() {
		for _, out := range node.Outputs {
			if out == output {
				return node
			}
		}
	}
	t.Fatalf("no node produces %q in %q", output, g.Render())
	return filtergraph.Node{}
}

func TestBuildZeroLayersPassesBaseThrough(t *testing.T) {
	plan, err := filtergraph.NewBuilder().Build(baseStream(10, true), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !plan.Graph.Empty() {
		t.Fatalf("expected empty graph, got %q", plan.Graph.Render())
	}
	if plan.VideoMap != "0:v" {
		t.Fatalf("VideoMap = %q, want 0:v", plan.VideoMap)
	}
	if plan.AudioMap != "0:a?" {
		t.Fatalf("AudioMap = %q, want 0:a?", plan.AudioMap)
	}
	if plan.TargetDuration != 10 {
		t.Fatalf("TargetDuration = %g, want 10", plan.TargetDuration)
	}
	if len(plan.Inputs) != 1 || plan.Inputs[0].Path != "/in/base.mp4" {
		t.Fatalf("unexpected roster %+v", plan.Inputs)
	}
}

func TestBuildImageLayerWindow(t *testing.T) {
	layer := filtergraph.Layer{
		Stream: media.Stream{
			Path:   "/in/logo.png",
			Kind:   media.StreamImage,
			Width:  800,
			Height: 600,
		},
		Window:     timeline.Window{Start: 2, End: 8},
		Scale:      0.3,
		KeepAspect: true,
		OffsetX:    100,
		OffsetY:    -50,
		Opacity:    1,
	}
	plan, err := filtergraph.NewBuilder().Build(baseStream(10, true), []filtergraph.Layer{layer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if plan.TargetDuration != 10 {
		t.Fatalf("TargetDuration = %g, want 10 (window inside base)", plan.TargetDuration)
	}
	if plan.Graph.Produces("base") {
		t.Fatal("no canvas extension expected, found tpad output")
	}

	if len(plan.Inputs) != 2 {
		t.Fatalf("roster size %d, want 2", len(plan.Inputs))
	}
	wantOpts := []string{"-loop", "1", "-framerate", "25", "-t", "10"}
	if got := plan.Inputs[1].Options; strings.Join(got, " ") != strings.Join(wantOpts, " ") {
		t.Fatalf("image options %v, want %v", got, wantOpts)
	}

	pts := findNode(t, &plan.Graph, "l0pts")
	if pts.Filter != "setpts=PTS+2/TB" {
		t.Fatalf("timestamp shift %q", pts.Filter)
	}
	scl := findNode(t, &plan.Graph, "l0scl")
	if scl.Filter != "scale=576:432:force_original_aspect_ratio=decrease" {
		t.Fatalf("scale %q", scl.Filter)
	}
	ov := findNode(t, &plan.Graph, "ov0")
	if ov.Filter != "overlay=772:274:enable='lt(t,8)'" {
		t.Fatalf("overlay %q", ov.Filter)
	}
	if ov.Inputs[0] != "0:v" || ov.Inputs[1] != "l0scl" {
		t.Fatalf("overlay inputs %v", ov.Inputs)
	}
	if plan.VideoMap != "[ov0]" {
		t.Fatalf("VideoMap = %q", plan.VideoMap)
	}
	if plan.AudioMap != "0:a?" {
		t.Fatalf("AudioMap = %q, want pass-through", plan.AudioMap)
	}
}

func TestBuildExtendsCanvasForLongLayer(t *testing.T) {
	layer := videoLayer("/in/clip.mp4", 12, false)
	layer.Window = timeline.Window{Start: 5}

	plan, err := filtergraph.NewBuilder().Build(baseStream(10, false), []filtergraph.Layer{layer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.TargetDuration != 17 {
		t.Fatalf("TargetDuration = %g, want 17", plan.TargetDuration)
	}
	pad := findNode(t, &plan.Graph, "base")
	if pad.Filter != "tpad=stop_mode=clone:stop_duration=7" {
		t.Fatalf("tpad %q", pad.Filter)
	}
	if pad.Inputs[0] != "0:v" {
		t.Fatalf("tpad inputs %v", pad.Inputs)
	}
	ov := findNode(t, &plan.Graph, "ov0")
	if ov.Inputs[0] != "base" {
		t.Fatalf("overlay should consume padded base, got %v", ov.Inputs)
	}
	pts := findNode(t, &plan.Graph, "l0pts")
	if pts.Filter != "setpts=PTS+5/TB" {
		t.Fatalf("timestamp shift %q", pts.Filter)
	}
}

func TestBuildZeroStartNormalizesTimestamps(t *testing.T) {
	layer := videoLayer("/in/clip.mp4", 4, false)
	plan, err := filtergraph.NewBuilder().Build(baseStream(10, false), []filtergraph.Layer{layer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pts := findNode(t, &plan.Graph, "l0pts")
	if pts.Filter != "setpts=PTS-STARTPTS" {
		t.Fatalf("timestamp shift %q", pts.Filter)
	}
}

func TestBuildChromaAndOpacityNodes(t *testing.T) {
	layer := videoLayer("/in/green.mp4", 6, false)
	layer.Opacity = 0.5
	layer.Chroma = &chroma.ApproxSpec{
		Color:     media.RGB{G: 255},
		Threshold: 80,
		Tolerance: 10,
	}
	plan, err := filtergraph.NewBuilder().Build(baseStream(10, false), []filtergraph.Layer{layer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	key := findNode(t, &plan.Graph, "l0key")
	if key.Filter != "colorkey=0x00FF00:0.170:0.500" {
		t.Fatalf("colorkey %q", key.Filter)
	}
	fmtNode := findNode(t, &plan.Graph, "l0fmt")
	if fmtNode.Filter != "format=yuva420p" {
		t.Fatalf("format %q", fmtNode.Filter)
	}
	alpha := findNode(t, &plan.Graph, "l0alp")
	if alpha.Filter != "colorchannelmixer=aa=0.5" {
		t.Fatalf("alpha %q", alpha.Filter)
	}
	ov := findNode(t, &plan.Graph, "ov0")
	if ov.Inputs[1] != "l0alp" {
		t.Fatalf("overlay should consume the faded layer, got %v", ov.Inputs)
	}
}

func TestBuildSequentialOverlayThreading(t *testing.T) {
	first := videoLayer("/in/a.mp4", 3, false)
	second := videoLayer("/in/b.mp4", 3, false)

	plan, err := filtergraph.NewBuilder().Build(baseStream(10, false), []filtergraph.Layer{first, second})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ov0 := findNode(t, &plan.Graph, "ov0")
	ov1 := findNode(t, &plan.Graph, "ov1")
	if ov0.Inputs[0] != "0:v" {
		t.Fatalf("first overlay base %v", ov0.Inputs)
	}
	if ov1.Inputs[0] != "ov0" {
		t.Fatalf("second overlay must consume the first result, got %v", ov1.Inputs)
	}
	if plan.VideoMap != "[ov1]" {
		t.Fatalf("VideoMap = %q", plan.VideoMap)
	}
}

func TestBuildMixesAudioContributors(t *testing.T) {
	clip := videoLayer("/in/clip.mp4", 6, true)
	clip.Window = timeline.Window{Start: 3}
	track := filtergraph.Layer{
		Stream: media.Stream{
			Path:     "/in/music.mp3",
			Kind:     media.StreamAudio,
			Duration: 30,
			HasAudio: true,
		},
	}

	plan, err := filtergraph.NewBuilder().Build(baseStream(10, true), []filtergraph.Layer{clip, track})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The half-minute track stretches the canvas.
	if plan.TargetDuration != 30 {
		t.Fatalf("TargetDuration = %g, want 30", plan.TargetDuration)
	}
	pad := findNode(t, &plan.Graph, "base")
	if pad.Filter != "tpad=stop_mode=clone:stop_duration=20" {
		t.Fatalf("tpad %q", pad.Filter)
	}

	delay := findNode(t, &plan.Graph, "a1d")
	if delay.Filter != "adelay=3000|3000" {
		t.Fatalf("adelay %q", delay.Filter)
	}
	if delay.Inputs[0] != "1:a" {
		t.Fatalf("adelay inputs %v", delay.Inputs)
	}

	mix := findNode(t, &plan.Graph, "aout")
	if mix.Filter != "amix=inputs=3:duration=longest" {
		t.Fatalf("amix %q", mix.Filter)
	}
	wantInputs := []string{"0:a", "a1d", "2:a"}
	if strings.Join(mix.Inputs, " ") != strings.Join(wantInputs, " ") {
		t.Fatalf("amix inputs %v, want %v", mix.Inputs, wantInputs)
	}
	if plan.AudioMap != "[aout]" {
		t.Fatalf("AudioMap = %q", plan.AudioMap)
	}
}

func TestBuildRejectsInvalidLayers(t *testing.T) {
	base := baseStream(10, false)
	cases := []struct {
		name  string
		layer filtergraph.Layer
	}{
		{"unknown kind", filtergraph.Layer{Stream: media.Stream{Path: "/in/x", Kind: "subtitle"}}},
		{"zero scale", func() filtergraph.Layer {
			l := videoLayer("/in/x.mp4", 3, false)
			l.Scale = 0
			return l
		}()},
		{"opacity above one", func() filtergraph.Layer {
			l := videoLayer("/in/x.mp4", 3, false)
			l.Opacity = 1.5
			return l
		}()},
		{"end before start", func() filtergraph.Layer {
			l := videoLayer("/in/x.mp4", 3, false)
			l.Window = timeline.Window{Start: 5, End: 2}
			return l
		}()},
		{"chroma threshold", func() filtergraph.Layer {
			l := videoLayer("/in/x.mp4", 3, false)
			l.Chroma = &chroma.ApproxSpec{Color: media.RGB{G: 255}, Threshold: 200}
			return l
		}()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := filtergraph.NewBuilder().Build(base, []filtergraph.Layer{tc.layer}); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildRejectsUnusableBase(t *testing.T) {
	bad := baseStream(10, false)
	bad.Width = 0
	if _, err := filtergraph.NewBuilder().Build(bad, nil); err == nil {
		t.Fatal("expected error for base without dimensions")
	}
	bad = baseStream(10, false)
	bad.FPS = 0
	if _, err := filtergraph.NewBuilder().Build(bad, nil); err == nil {
		t.Fatal("expected error for base without frame rate")
	}
}

func TestBuildPortraitLayerScalesAgainstHeight(t *testing.T) {
	layer := filtergraph.Layer{
		Stream: media.Stream{
			Path:     "/in/phone.mp4",
			Kind:     media.StreamVideo,
			Width:    720,
			Height:   1280,
			FPS:      30,
			Duration: 5,
		},
		Scale:      0.5,
		KeepAspect: true,
		Opacity:    1,
	}
	plan, err := filtergraph.NewBuilder().Build(baseStream(10, false), []filtergraph.Layer{layer})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	scl := findNode(t, &plan.Graph, "l0scl")
	// Half the canvas height, width follows the 9:16 ratio.
	if scl.Filter != "scale=303:540:force_original_aspect_ratio=decrease" {
		t.Fatalf("scale %q", scl.Filter)
	}
}
