package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fingersatz/internal/api"
	"fingersatz/internal/textutil"
)

func buildJobStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildJobListRows(entries []api.JobEntry) [][]string {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]api.JobEntry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseJournalTime(sorted[i].CreatedAt)
		tj := parseJournalTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, entry := range sorted {
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.ID),
			formatSourceLabel(entry.Source),
			formatRef(entry.InputRef),
			formatStatusLabel(entry.Status),
			formatDuration(entry.DurationMS),
			formatDisplayTime(entry.CreatedAt),
		})
	}
	return rows
}

func buildJobDetailLines(entry api.JobEntry) []string {
	lines := []string{
		fmt.Sprintf("ID:       %d", entry.ID),
		fmt.Sprintf("Source:   %s", formatSourceLabel(entry.Source)),
		fmt.Sprintf("Status:   %s", formatStatusLabel(entry.Status)),
	}
	if ref := strings.TrimSpace(entry.InputRef); ref != "" {
		lines = append(lines, fmt.Sprintf("Title:    %s", textutil.DisplayTitle(ref)))
		lines = append(lines, fmt.Sprintf("Input:    %s", ref))
	}
	if ref := strings.TrimSpace(entry.OutputRef); ref != "" {
		lines = append(lines, fmt.Sprintf("Output:   %s", ref))
	}
	if entry.HandSize != "" {
		lines = append(lines, fmt.Sprintf("Hands:    %s (right part %d, left part %d)", entry.HandSize, entry.RightPart, entry.LeftPart))
	}
	if entry.Format != "" {
		lines = append(lines, fmt.Sprintf("Format:   %s", entry.Format))
	}
	if entry.DurationMS > 0 {
		lines = append(lines, fmt.Sprintf("Duration: %s", formatDuration(entry.DurationMS)))
	}
	if created := formatDisplayTime(entry.CreatedAt); created != "" {
		lines = append(lines, fmt.Sprintf("Created:  %s", created))
	}
	if message := strings.TrimSpace(entry.Message); message != "" {
		lines = append(lines, fmt.Sprintf("Message:  %s", message))
	}
	if errMsg := strings.TrimSpace(entry.ErrorMessage); errMsg != "" {
		lines = append(lines, fmt.Sprintf("Error:    %s", errMsg))
	}
	return lines
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatSourceLabel(source string) string {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "direct":
		return "Direct"
	case "storage":
		return "Storage"
	case "cli":
		return "CLI"
	case "":
		return "-"
	default:
		return source
	}
}

func formatRef(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	if len(value) > 48 {
		return "..." + value[len(value)-45:]
	}
	return value
}

func formatDuration(millis int64) string {
	if millis <= 0 {
		return "-"
	}
	if millis < 1000 {
		return fmt.Sprintf("%dms", millis)
	}
	return fmt.Sprintf("%.1fs", float64(millis)/1000)
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseJournalTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
