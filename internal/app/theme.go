package app

import (
	"image/color"

	"wallmap/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// WallmapTheme matches the application chrome to the wall view: chalk
// orange accents and the amber selection ring used on markers.
type WallmapTheme struct{}

var _ fyne.Theme = (*WallmapTheme)(nil)

// Overrides for the dark variant; the wall view background sits behind
// the photo letterbox.
var darkColors = map[fyne.ThemeColorName]color.Color{
	theme.ColorNameBackground: colorutil.Background,
	theme.ColorNameFocus:      colorutil.WithAlpha(colorutil.Chalk, 0x7f),
}

var accentColors = map[fyne.ThemeColorName]color.Color{
	theme.ColorNamePrimary:   colorutil.Chalk,
	theme.ColorNameSelection: colorutil.WithAlpha(colorutil.Amber, 0x80),
	theme.ColorNameHyperlink: colorutil.Amber,
}

func (t *WallmapTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if c, ok := accentColors[name]; ok {
		return c
	}
	if variant == theme.VariantDark {
		if c, ok := darkColors[name]; ok {
			return c
		}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *WallmapTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *WallmapTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

// Size widens touch targets in the route list and toolbar.
func (t *WallmapTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameInputBorder {
		return 2
	}
	if name == theme.SizeNamePadding {
		return theme.DefaultTheme().Size(name) + 2
	}
	return theme.DefaultTheme().Size(name)
}
