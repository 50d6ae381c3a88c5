package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/webmail/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with the application title on the
// left and the session/server indicator on the right.
func (l Layout) RenderHeader(title string, sessionInfo string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	infoRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(sessionInfo)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(infoRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		infoRendered,
	)
}

// RenderStatusBar renders the bottom status bar. When errText is non-empty
// it takes the whole bar in the error style; otherwise the key hints show.
func (l Layout) RenderStatusBar(hints string, errText string) string {
	style := theme.StatusBarStyle
	text := hints
	if errText != "" {
		style = theme.ErrorBarStyle
		text = errText
	}

	rendered := style.Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
