package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"keylight/internal/chroma"
	"keylight/internal/config"
	"keylight/internal/media"
	"keylight/internal/render"
	"keylight/internal/timeline"
)

// Approximate-key parameters applied when a plan layer names a key color
// but omits the tuning values.
const (
	defaultKeyThreshold = 110
	defaultKeyTolerance = 2
)

// planFile is the TOML schema for multi-layer compositions.
type planFile struct {
	Base   string      `toml:"base"`
	Output string      `toml:"output"`
	Layers []planLayer `toml:"layer"`
}

// planLayer mirrors LayerSpec plus the optional key color. Threshold and
// tolerance are pointers so an omitted value and an explicit zero stay
// distinguishable.
type planLayer struct {
	Path       string  `toml:"path"`
	Kind       string  `toml:"kind"`
	Start      float64 `toml:"start"`
	End        float64 `toml:"end"`
	Scale      float64 `toml:"scale"`
	KeepAspect bool    `toml:"keep_aspect"`
	X          int     `toml:"x"`
	Y          int     `toml:"y"`
	Opacity    float64 `toml:"opacity"`
	Key        string  `toml:"key"`
	Threshold  *int    `toml:"threshold"`
	Tolerance  *int    `toml:"tolerance"`
}

// loadPlan reads a composition plan and resolves it into a request.
// Relative media paths resolve against the plan file's directory, so plans
// can travel with their footage.
func loadPlan(path string) (render.CompositeRequest, error) {
	var req render.CompositeRequest

	resolved, err := resolvePath(path)
	if err != nil {
		return req, fmt.Errorf("resolve plan path: %w", err)
	}
	file, err := os.Open(resolved)
	if err != nil {
		return req, fmt.Errorf("open plan: %w", err)
	}
	defer file.Close()

	var plan planFile
	if err := toml.NewDecoder(file).Decode(&plan); err != nil {
		return req, fmt.Errorf("parse plan %s: %w", resolved, err)
	}

	planDir := filepath.Dir(resolved)
	if req.Base, err = resolvePlanPath(planDir, plan.Base); err != nil {
		return req, fmt.Errorf("plan base: %w", err)
	}
	if req.Output, err = resolvePlanPath(planDir, plan.Output); err != nil {
		return req, fmt.Errorf("plan output: %w", err)
	}
	req.Layers = make([]render.LayerSpec, 0, len(plan.Layers))
	for i, layer := range plan.Layers {
		spec, err := layer.toSpec(planDir)
		if err != nil {
			return req, fmt.Errorf("plan layer %d: %w", i+1, err)
		}
		req.Layers = append(req.Layers, spec)
	}
	return req, nil
}

func (l planLayer) toSpec(planDir string) (render.LayerSpec, error) {
	spec := render.LayerSpec{
		Kind:       l.Kind,
		Scale:      l.Scale,
		KeepAspect: l.KeepAspect,
		OffsetX:    l.X,
		OffsetY:    l.Y,
		Opacity:    l.Opacity,
		Window:     timeline.Window{Start: l.Start, End: l.End},
	}
	var err error
	if spec.Path, err = resolvePlanPath(planDir, l.Path); err != nil {
		return spec, err
	}
	if spec.Kind == "" {
		spec.Kind = string(media.StreamVideo)
	}
	if key := strings.TrimSpace(l.Key); key != "" {
		color, err := media.ParseHexColor(key)
		if err != nil {
			return spec, fmt.Errorf("key color: %w", err)
		}
		approx := &chroma.ApproxSpec{Color: color, Threshold: defaultKeyThreshold, Tolerance: defaultKeyTolerance}
		if l.Threshold != nil {
			approx.Threshold = *l.Threshold
		}
		if l.Tolerance != nil {
			approx.Tolerance = *l.Tolerance
		}
		spec.Chroma = approx
	}
	return spec, nil
}

// resolvePlanPath makes a plan entry absolute. Entries starting with ~
// expand against the home directory; bare relative entries resolve against
// the plan's own directory rather than the process working directory.
func resolvePlanPath(planDir, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(value, "~") {
		return config.ExpandPath(value)
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value), nil
	}
	return filepath.Join(planDir, value), nil
}
