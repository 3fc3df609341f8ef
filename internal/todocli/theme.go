package todocli

import "github.com/fatih/color"

// Theme holds the printers used by the grouped text output.
type Theme struct {
	Header *color.Color
	Count  *color.Color
	Path   *color.Color
	Line   *color.Color
	Text   *color.Color
	Status *color.Color
}

func ThemeFor(name string) Theme {
	var th Theme
	switch name {
	case "colorblind":
		th = Theme{
			Header: color.New(color.FgBlue, color.Bold),
			Count:  color.New(color.FgHiBlack),
			Path:   color.New(color.FgYellow),
			Line:   color.New(color.FgHiBlue),
			Text:   color.New(color.Reset),
			Status: color.New(color.FgYellow),
		}
	case "high-contrast":
		th = Theme{
			Header: color.New(color.FgHiWhite, color.Bold, color.Underline),
			Count:  color.New(color.FgHiWhite),
			Path:   color.New(color.FgHiCyan, color.Bold),
			Line:   color.New(color.FgHiYellow, color.Bold),
			Text:   color.New(color.FgHiWhite),
			Status: color.New(color.FgHiMagenta, color.Bold),
		}
	default:
		th = Theme{
			Header: color.New(color.FgCyan, color.Bold),
			Count:  color.New(color.FgHiBlack),
			Path:   color.New(color.FgGreen),
			Line:   color.New(color.FgYellow),
			Text:   color.New(color.Reset),
			Status: color.New(color.FgYellow),
		}
	}
	if name == "none" {
		for _, c := range th.all() {
			c.DisableColor()
		}
	}
	return th
}

func (th Theme) all() []*color.Color {
	return []*color.Color{th.Header, th.Count, th.Path, th.Line, th.Text, th.Status}
}
