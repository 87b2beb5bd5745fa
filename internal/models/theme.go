package models

import "strings"

// Theme names the visual style an album is rendered with, e.g. "theme-cyberpunk".
type Theme string

const (
	ThemeDefault      Theme = "theme-default"
	ThemeCyberpunk    Theme = "theme-cyberpunk"
	ThemeNeonSunset   Theme = "theme-neon-sunset"
	ThemeDigitalOcean Theme = "theme-digital-ocean"
)

// Themes lists the built-in themes in the order the theme switcher cycles through them.
var Themes = []Theme{ThemeDefault, ThemeCyberpunk, ThemeNeonSunset, ThemeDigitalOcean}

const themePrefix = "theme-"

// ParseTheme normalizes user or sheet input: "Cyberpunk" and "theme-cyberpunk" both yield [ThemeCyberpunk].
//
// Unknown names are kept (renderers fall back to their default palette) and empty input yields [ThemeDefault].
func ParseTheme(s string) Theme {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ThemeDefault
	}
	if !strings.HasPrefix(s, themePrefix) {
		s = themePrefix + s
	}
	return Theme(strings.ReplaceAll(s, " ", "-"))
}

// Name returns the theme without its "theme-" prefix.
func (t Theme) Name() string {
	return strings.TrimPrefix(string(t), themePrefix)
}

// Known reports whether t is one of the built-in [Themes].
func (t Theme) Known() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// Next returns the theme after t in [Themes], wrapping around. Unknown themes advance to the first.
func (t Theme) Next() Theme {
	for i, known := range Themes {
		if t == known {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
