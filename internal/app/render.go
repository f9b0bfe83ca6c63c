package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/config"
	"github.com/rbright/whisperkey/internal/history"
	"github.com/samber/lo"
)

const historyTextWidth = 72

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	markStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a6e3a1"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// renderTable pads columns to their widest cell. The header row is styled.
func renderTable(header []string, rows [][]string) string {
	widths := lo.Map(header, func(h string, col int) int {
		return lo.Max(append(lo.Map(rows, func(row []string, _ int) int {
			return lipgloss.Width(row[col])
		}), lipgloss.Width(h)))
	})

	renderRow := func(cells []string, style lipgloss.Style) string {
		rendered := lo.Map(cells, func(cell string, col int) string {
			return cellStyle.Width(widths[col] + 2).Render(style.Render(cell))
		})
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, rendered...), " ")
	}

	lines := []string{renderRow(header, headerStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return strings.Join(lines, "\n")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) commandDevices(ctx context.Context, cfg config.Config) int {
	_, lister, err := audio.Backend(cfg.Audio.Backend)
	if err != nil {
		return r.fail(err)
	}
	devices, err := audio.ListDevices(ctx, lister)
	if err != nil {
		return r.fail(err)
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	fmt.Fprintln(r.Stdout, renderDevices(devices))
	return 0
}

func renderDevices(devices []audio.Device) string {
	rows := lo.Map(devices, func(d audio.Device, _ int) []string {
		mark := " "
		if d.Default {
			mark = markStyle.Render("*")
		}
		return []string{mark, d.ID, d.Label(), d.State, yesNo(d.Available), yesNo(d.Muted)}
	})
	return renderTable([]string{"", "ID", "NAME", "STATE", "AVAILABLE", "MUTED"}, rows)
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, limit int) int {
	path, err := historyPath(cfg.History)
	if err != nil {
		return r.fail(err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if !cfg.History.Enable {
			fmt.Fprintln(r.Stdout, "history is disabled (set history.enable to record transcriptions)")
			return 0
		}
		fmt.Fprintln(r.Stdout, "no transcriptions recorded")
		return 0
	}

	store, err := openHistory(ctx, cfg.History)
	if err != nil {
		return r.fail(err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return r.fail(err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no transcriptions recorded")
		return 0
	}

	fmt.Fprintln(r.Stdout, renderHistory(entries))
	return 0
}

func renderHistory(entries []history.Entry) string {
	rows := lo.Map(entries, func(e history.Entry, _ int) []string {
		target := e.Target
		if target == "" {
			target = dimStyle.Render("-")
		}
		return []string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Command,
			target,
			fmt.Sprintf("%.1fs", e.AudioSeconds),
			lo.Ellipsis(strings.Join(strings.Fields(e.Text), " "), historyTextWidth),
		}
	})
	return renderTable([]string{"TIME", "COMMAND", "TARGET", "AUDIO", "TEXT"}, rows)
}
