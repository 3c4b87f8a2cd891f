package service

import "github.com/haierkeys/miknow-notebook-service/internal/domain"

const (
	defaultThemeName        = "New Theme"
	defaultThemeDescription = "A custom theme for MiKnow"
	defaultActiveTheme      = "light"
)

// ThemeVariable 主题编辑器中的一个 CSS 变量
type ThemeVariable struct {
	Name        string `json:"name"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

var themeVariables = []ThemeVariable{
	{"--background", "0 0% 100%", "Main background color of the application"},
	{"--foreground", "240 10% 3.9%", "Main text color on the background"},
	{"--card", "0 0% 100%", "Background color for card components"},
	{"--card-foreground", "240 10% 3.9%", "Text color for card components"},
	{"--popover", "0 0% 100%", "Background color for popover components"},
	{"--popover-foreground", "240 10% 3.9%", "Text color for popover components"},
	{"--primary", "262.1 83.3% 57.8%", "Primary brand color for buttons and interactive elements"},
	{"--primary-foreground", "210 20% 98%", "Text color on primary-colored elements"},
	{"--secondary", "240 4.8% 95.9%", "Secondary color for less prominent elements"},
	{"--secondary-foreground", "240 5.9% 10%", "Text color on secondary-colored elements"},
	{"--muted", "240 4.8% 95.9%", "Muted background color for subtle UI elements"},
	{"--muted-foreground", "240 3.8% 46.1%", "Text color on muted backgrounds"},
	{"--accent", "240 4.8% 95.9%", "Accent color for highlighting elements"},
	{"--accent-foreground", "240 5.9% 10%", "Text color on accent-colored elements"},
	{"--destructive", "0 84.2% 60.2%", "Color for destructive actions like delete"},
	{"--destructive-foreground", "0 0% 98%", "Text color on destructive elements"},
	{"--border", "240 5.9% 90%", "Color for borders and dividers"},
	{"--input", "240 5.9% 90%", "Border color for input elements"},
	{"--ring", "262.1 83.3% 57.8%", "Focus ring color for interactive elements"},
}

var builtinThemes = []domain.ThemeSummary{
	{ID: "light", Name: "Light", Description: "Default light theme", Author: "MiKnow"},
	{ID: "dark", Name: "Dark", Description: "Default dark theme", Author: "MiKnow"},
	{ID: "obsidian", Name: "Obsidian", Description: "Inspired by Obsidian.md's default theme", Author: "MiKnow"},
	{ID: "nord", Name: "Nord", Description: "A calm, arctic-inspired theme", Author: "Community"},
	{ID: "solarized", Name: "Solarized", Description: "Ethan Schoonover's Solarized theme", Author: "Community"},
}

func isBuiltinTheme(id string) bool {
	for _, t := range builtinThemes {
		if t.ID == id {
			return true
		}
	}
	return false
}
