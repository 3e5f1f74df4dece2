package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"keylight/internal/config"
	"keylight/internal/media"
)

// resolvePath expands ~ and makes a flag argument absolute. Job requests
// require absolute paths so they keep meaning independent of the process
// working directory.
func resolvePath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("path is required")
	}
	return config.ExpandPath(arg)
}

// parseBoundsFlags turns the --lower/--upper pair into a color range. Both
// empty defers to the configured bounds; setting only one is an error.
func parseBoundsFlags(lower, upper string) (media.ColorRange, error) {
	lower = strings.TrimSpace(lower)
	upper = strings.TrimSpace(upper)
	var bounds media.ColorRange
	if lower == "" && upper == "" {
		return bounds, nil
	}
	if lower == "" || upper == "" {
		return bounds, errors.New("--lower and --upper must be set together")
	}
	var err error
	if bounds.Lower, err = parseHSVTriple(lower); err != nil {
		return bounds, fmt.Errorf("parse --lower: %w", err)
	}
	if bounds.Upper, err = parseHSVTriple(upper); err != nil {
		return bounds, fmt.Errorf("parse --upper: %w", err)
	}
	return bounds, nil
}

func parseHSVTriple(value string) ([3]uint8, error) {
	var triple [3]uint8
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return triple, fmt.Errorf("expected h,s,v components, got %q", value)
	}
	for i, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return triple, fmt.Errorf("component %d of %q: %w", i+1, value, err)
		}
		triple[i] = uint8(n)
	}
	return triple, nil
}
