package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Progress is one engine progress report.
type Progress struct {
	Frame   int64
	OutTime time.Duration
	Speed   float64
	Done    bool
}

// progressParser folds the engine's key=value stream into reports. The
// stream arrives in blocks; the progress= line terminates a block.
type progressParser struct {
	cur Progress
}

func (p *progressParser) feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "frame":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.cur.Frame = v
		}
	case "out_time_us":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.cur.OutTime = time.Duration(v) * time.Microsecond
		}
	case "out_time":
		if d, err := parseOutTime(value); err == nil {
			p.cur.OutTime = d
		}
	case "speed":
		if v, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil {
			p.cur.Speed = v
		}
	case "progress":
		update := p.cur
		update.Done = value == "end"
		return update, true
	}
	return Progress{}, false
}

// parseOutTime reads the engine's HH:MM:SS.micro timestamps.
func parseOutTime(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("out_time %q: want HH:MM:SS", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("out_time %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("out_time %q: %w", value, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("out_time %q: %w", value, err)
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)), nil
}
