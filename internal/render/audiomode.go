package render

import (
	"strconv"
	"strings"

	"keylight/internal/config"
	"keylight/internal/media"
	"keylight/internal/services"
	"keylight/internal/timeline"
)

// AudioMode selects the audio policy of a two-stream render. The background
// timeline is authoritative, so every mode except AudioNone truncates the
// result to the shortest contributing stream.
type AudioMode string

const (
	// AudioBackground keeps the background's track.
	AudioBackground AudioMode = "background"
	// AudioForeground keeps the foreground's track.
	AudioForeground AudioMode = "foreground"
	// AudioBoth mixes both tracks untouched.
	AudioBoth AudioMode = "both"
	// AudioSynced mixes both with the foreground delayed to its window
	// start and the background lowered underneath it.
	AudioSynced AudioMode = "synced"
	// AudioTimed mixes both with the foreground delayed and emphasized,
	// held open across dropouts.
	AudioTimed AudioMode = "timed"
	// AudioNone emits a silent render.
	AudioNone AudioMode = "none"
)

var allAudioModes = []AudioMode{
	AudioBackground,
	AudioForeground,
	AudioBoth,
	AudioSynced,
	AudioTimed,
	AudioNone,
}

// ParseAudioMode converts a string into a known AudioMode.
func ParseAudioMode(value string) (AudioMode, bool) {
	mode := AudioMode(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range allAudioModes {
		if mode == known {
			return mode, true
		}
	}
	return "", false
}

// AudioModeNames returns the accepted mode spellings in declaration order.
func AudioModeNames() []string {
	out := make([]string, len(allAudioModes))
	for i, mode := range allAudioModes {
		out[i] = string(mode)
	}
	return out
}

// audioMergeArgs builds the engine invocation that attaches the final track
// to the silent render. A nil slice with a nil error means no merge process
// is needed and the silent render already is the result. A non-nil error
// means the requested mix cannot be assembled; callers absorb it by keeping
// the video-only result.
func audioMergeArgs(cfg *config.Config, mode AudioMode, silent string, fg, bg media.Stream, window timeline.Window, output string) ([]string, error) {
	switch mode {
	case AudioNone:
		return nil, nil
	case AudioBackground:
		if !bg.HasAudio {
			return nil, nil
		}
		return mergeSingle(cfg, silent, bg.Path, output), nil
	case AudioForeground:
		if !fg.HasAudio {
			return nil, nil
		}
		return mergeSingle(cfg, silent, fg.Path, output), nil
	}
	if !bg.HasAudio || !fg.HasAudio {
		return nil, services.Wrap(services.ErrAudioAssembly, "render", "audio",
			"mode "+string(mode)+" needs an audio track in both streams", nil)
	}
	return mergeMix(cfg, mode, silent, fg, bg, window, output), nil
}

// mergeSingle copies the rendered video and takes the audio track of one
// source unchanged.
func mergeSingle(cfg *config.Config, silent, source, output string) []string {
	args := []string{"-y", "-i", silent, "-i", source,
		"-map", "0:v:0", "-map", "1:a:0", "-c:v", "copy"}
	args = append(args, cfg.AudioEncodeArgs()...)
	args = append(args, "-shortest")
	args = append(args, cfg.MuxArgs()...)
	return append(args, output)
}

// mergeMix combines both tracks. Input order is fixed: the silent render,
// then the background, then the foreground, so the filter labels below stay
// stable across modes.
func mergeMix(cfg *config.Config, mode AudioMode, silent string, fg, bg media.Stream, window timeline.Window, output string) []string {
	delay := strconv.Itoa(int(window.Start * 1000))
	var filter string
	switch mode {
	case AudioBoth:
		filter = "[1:a][2:a]amix=inputs=2[aout]"
	case AudioSynced:
		filter = "[2:a]adelay=" + delay + "|" + delay + ",volume=1.0[fga];" +
			"[1:a]volume=0.8[bga];" +
			"[bga][fga]amix=inputs=2[aout]"
	case AudioTimed:
		filter = "[2:a]adelay=" + delay + "|" + delay + ",volume=1.2[fga];" +
			"[1:a]volume=1.0[bga];" +
			"[bga][fga]amix=inputs=2:duration=longest:dropout_transition=2[aout]"
	}
	args := []string{"-y", "-i", silent, "-i", bg.Path, "-i", fg.Path,
		"-filter_complex", filter,
		"-map", "0:v:0", "-map", "[aout]", "-c:v", "copy"}
	args = append(args, cfg.AudioEncodeArgs()...)
	args = append(args, "-shortest")
	args = append(args, cfg.MuxArgs()...)
	return append(args, output)
}
