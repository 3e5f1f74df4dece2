package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"keylight/internal/history"
)

// jobView is the JSON projection of a stored job snapshot.
type jobView struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind"`
	Status          string   `json:"status"`
	Sources         []string `json:"sources,omitempty"`
	OutputPath      string   `json:"output_path,omitempty"`
	Error           string   `json:"error,omitempty"`
	ProgressStage   string   `json:"progress_stage,omitempty"`
	ProgressPercent float64  `json:"progress_percent"`
	ProgressMessage string   `json:"progress_message,omitempty"`
	CreatedAt       string   `json:"created_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	FinishedAt      string   `json:"finished_at,omitempty"`
}

func newJobView(rec *history.Record) jobView {
	return jobView{
		ID:              rec.ID,
		Kind:            rec.Kind,
		Status:          rec.Status,
		Sources:         rec.Sources,
		OutputPath:      rec.OutputPath,
		Error:           rec.ErrorMessage,
		ProgressStage:   rec.ProgressStage,
		ProgressPercent: rec.ProgressPercent,
		ProgressMessage: rec.ProgressMessage,
		CreatedAt:       formatWireTime(rec.CreatedAt),
		StartedAt:       formatWireTimePtr(rec.StartedAt),
		FinishedAt:      formatWireTimePtr(rec.FinishedAt),
	}
}

func buildJobRows(records []*history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			shortJobID(rec.ID),
			formatStatusLabel(rec.Kind),
			formatStatusLabel(rec.Status),
			formatPercent(rec.ProgressPercent),
			formatOutputName(rec.OutputPath),
			formatDisplayTime(rec.CreatedAt),
		})
	}
	return rows
}

func buildJobDetailRows(rec *history.Record) [][]string {
	rows := [][]string{
		{"ID", rec.ID},
		{"Kind", formatStatusLabel(rec.Kind)},
		{"Status", formatStatusLabel(rec.Status)},
	}
	for i, source := range rec.Sources {
		label := ""
		if i == 0 {
			label = "Sources"
		}
		rows = append(rows, []string{label, source})
	}
	if rec.OutputPath != "" {
		rows = append(rows, []string{"Output", rec.OutputPath})
	}
	if rec.ProgressStage != "" || rec.ProgressPercent > 0 {
		progress := formatPercent(rec.ProgressPercent)
		if rec.ProgressStage != "" {
			progress = fmt.Sprintf("%s (%s)", progress, rec.ProgressStage)
		}
		rows = append(rows, []string{"Progress", progress})
	}
	if rec.ErrorMessage != "" {
		rows = append(rows, []string{"Error", rec.ErrorMessage})
	}
	rows = append(rows, []string{"Created", formatDisplayTime(rec.CreatedAt)})
	if rec.StartedAt != nil {
		rows = append(rows, []string{"Started", formatDisplayTime(*rec.StartedAt)})
	}
	if rec.FinishedAt != nil {
		rows = append(rows, []string{"Finished", formatDisplayTime(*rec.FinishedAt)})
		if rec.StartedAt != nil {
			rows = append(rows, []string{"Duration", formatElapsed(rec.FinishedAt.Sub(*rec.StartedAt))})
		}
	}
	return rows
}

// formatStatusLabel renders machine status and kind values for display.
func formatStatusLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(value, "_", " "))
}

func formatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatWireTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatWireTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatWireTime(*t)
}

func formatPercent(value float64) string {
	if value <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", value)
}

func formatOutputName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "-"
	}
	return filepath.Base(path)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(100 * time.Millisecond).String()
}

func shortJobID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "-"
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
