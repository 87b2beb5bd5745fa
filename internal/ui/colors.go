package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/albumgate/internal/models"
)

// Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
//
// accent and glow are kept as raw colors for the progress bar gradient.
type Palette struct {
	title  lipgloss.Style
	accent lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	locked lipgloss.Style
	hint   lipgloss.Style
	pulse  lipgloss.Style

	primary string
	glow    string
}

var _ Painter = (*Palette)(nil)

// NewPalette builds a palette from title, accent/glow, success, error, warning and help colors.
func NewPalette(t, a, g, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		accent:  NewBold(a),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(h),
		locked:  NewBold(w).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color(a)).PaddingLeft(1),
		hint:    NewStyle(a),
		pulse:   NewBold(t).Background(lipgloss.Color(g)).Padding(0, 1),
		primary: a,
		glow:    g,
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

var palettes = map[models.Theme]*Palette{
	models.ThemeDefault:      NewPalette("#FFFFFF", "#7D56F4", "#3C2A7A", "#04B575", "#FF0000", "#FFA500", "#626262"),
	models.ThemeCyberpunk:    NewPalette("#F5F500", "#FF00FF", "#00FFFF", "#00FF9F", "#FF3864", "#F5F500", "#8A8AA3"),
	models.ThemeNeonSunset:   NewPalette("#FFD319", "#FF2975", "#8C1EFF", "#F9C80E", "#FF4365", "#FF901F", "#9D7A8F"),
	models.ThemeDigitalOcean: NewPalette("#E0F7FA", "#0077B6", "#00B4D8", "#48CAE4", "#EF476F", "#FFD166", "#5E7A8A"),
}

// PaletteFor returns the palette of a theme; unknown themes get the default one.
func PaletteFor(t models.Theme) *Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[models.ThemeDefault]
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
