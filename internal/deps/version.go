package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Version runs an ffmpeg-family binary with -version and extracts the
// release from its banner line. Callers bound the probe with ctx.
func Version(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "", errors.New("binary not configured")
	}
	output, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("run %s -version: %w", binary, err)
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return parseVersionBanner(line)
}

// parseVersionBanner extracts the release token from banners such as
// "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers".
// Distribution builds decorate the token (n7.0-12-g89a8, 6.1.1-static);
// the decorated form is returned untouched.
func parseVersionBanner(line string) (string, error) {
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1], nil
		}
	}
	return "", fmt.Errorf("unrecognized version banner %q", strings.TrimSpace(line))
}
