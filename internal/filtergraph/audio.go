package filtergraph

import (
	"fmt"

	"keylight/internal/media"
)

// AudioEntry is one contributing track beyond the base: the roster index of
// its input, the delay aligning it to the canvas timeline, and its natural
// duration.
type AudioEntry struct {
	InputIndex int
	Delay      float64
	Duration   float64
}

// AudioPlan lists the audio contributors of a composition and the mix
// topology they require.
type AudioPlan struct {
	BaseHasAudio bool
	BaseDuration float64
	Entries      []AudioEntry
}

// PlanAudio walks the layers in roster order and collects every audio-bearing
// input: video layers whose probe reported an audio track, then dedicated
// audio layers. Image layers never contribute.
func PlanAudio(base media.Stream, layers []Layer) AudioPlan {
	plan := AudioPlan{BaseHasAudio: base.HasAudio, BaseDuration: base.Duration}
	var audioKind []Layer
	index := 0
	for _, l := range layers {
		if !l.Visual() {
			audioKind = append(audioKind, l)
			continue
		}
		index++
		if l.Stream.Kind == media.StreamVideo && l.Stream.HasAudio {
			plan.Entries = append(plan.Entries, AudioEntry{
				InputIndex: index,
				Delay:      l.Window.Start,
				Duration:   l.Stream.Duration,
			})
		}
	}
	for _, l := range audioKind {
		index++
		plan.Entries = append(plan.Entries, AudioEntry{
			InputIndex: index,
			Delay:      l.Window.Start,
			Duration:   l.Stream.Duration,
		})
	}
	return plan
}

// Mixed reports whether a mix node is required.
func (p AudioPlan) Mixed() bool { return len(p.Entries) > 0 }

// Duration is the mix length under the longest policy: every contributor
// counts from its delay offset, and the base track counts when present.
func (p AudioPlan) Duration() float64 {
	var d float64
	if p.BaseHasAudio {
		d = p.BaseDuration
	}
	for _, e := range p.Entries {
		if t := e.Delay + e.Duration; t > d {
			d = t
		}
	}
	return d
}

// emit adds the delay and mix nodes and returns the map argument for the
// audio side. Zero contributors means pass-through: the base track when
// present, silence otherwise, and no mix node. With contributors, the base
// track enters the mix first so it is never dropped.
func (p AudioPlan) emit(g *Graph) string {
	if !p.Mixed() {
		return "0:a?"
	}
	inputs := make([]string, 0, len(p.Entries)+1)
	if p.BaseHasAudio {
		inputs = append(inputs, "0:a")
	}
	for _, e := range p.Entries {
		src := fmt.Sprintf("%d:a", e.InputIndex)
		if e.Delay > 0 {
			ms := int(e.Delay * 1000)
			delayed := fmt.Sprintf("a%dd", e.InputIndex)
			g.Add(fmt.Sprintf("adelay=%d|%d", ms, ms), []string{src}, []string{delayed})
			src = delayed
		}
		inputs = append(inputs, src)
	}
	g.Add(fmt.Sprintf("amix=inputs=%d:duration=longest", len(inputs)), inputs, []string{"aout"})
	return "[aout]"
}
