package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkrv/qabot/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

// Render produces the one-shot terminal view of the credential pool's quota
// state.
func Render(credentials []domain.Credential, opts RenderOptions) string {
	return renderView(credentials, opts, newStyles())
}

func renderView(credentials []domain.Credential, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Embedding Credential Usage"),
		s.header.Render(fmt.Sprintf("credentials: %d", len(credentials))),
	}

	if len(credentials) == 0 {
		lines = append(lines, s.empty.Render("No credentials configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, credential := range credentials {
		lines = append(lines, s.section.Render(renderCredential(credential, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCredential(credential domain.Credential, opts RenderOptions, s styles) string {
	title := s.credential.Render(fmt.Sprintf("%s (%s)", credential.ID, credential.Redacted()))
	if suspended(credential, opts.Now) {
		title += " " + s.warning.Render(fmt.Sprintf("[suspended until %s]", credential.DisabledUntil.Format("15:04:05")))
	}

	parts := []string{
		title,
		windowLine("minute", credential.Minute.Count, credential.RPM, s),
		windowLine("day   ", credential.Day.Count, credential.RPD, s),
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func windowLine(label string, used, limit int, s styles) string {
	bar := renderProgressBar(used, limit, 24, s)
	meta := s.limitMeta.Render(fmt.Sprintf("%d of %d", used, limit))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.limitKey.Render(label+" window:"),
		" ",
		bar,
		" ",
		meta,
	)
}

func renderProgressBar(used, limit, width int, s styles) string {
	if width <= 0 || limit <= 0 {
		return ""
	}

	fraction := float64(used) / float64(limit)
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(math.Round(float64(width) * fraction))
	if filled > width {
		filled = width
	}
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func suspended(credential domain.Credential, now time.Time) bool {
	if credential.DisabledUntil.IsZero() {
		return false
	}
	if now.IsZero() {
		return true
	}
	return now.Before(credential.DisabledUntil)
}
