package silog

import "github.com/charmbracelet/lipgloss"

// Style controls the colors and decorations used when rendering log
// messages. The zero value is not valid; use [DefaultStyle] or
// [PlainStyle] to build one.
type Style struct {
	// LevelLabels holds the text rendered for each log level
	// (e.g. "INF", "WRN").
	LevelLabels ByLevel[lipgloss.Style]

	// Messages holds the style applied to the log message body
	// for each log level.
	Messages ByLevel[lipgloss.Style]

	// PrefixDelimiter separates a logger's prefix from its message.
	PrefixDelimiter lipgloss.Style

	// Key is the style applied to attribute keys.
	Key lipgloss.Style

	// KeyValueDelimiter separates an attribute key from its value.
	KeyValueDelimiter lipgloss.Style

	// Values holds per-key styles for attribute values.
	// Keys not present here are rendered unstyled.
	Values map[string]lipgloss.Style

	// MultilinePrefix is the style applied to the "| " prefix
	// written before each line of a multi-line attribute value.
	MultilinePrefix lipgloss.Style
}

// DefaultStyle returns the style used for terminal output,
// with colored level labels and delimiters.
func DefaultStyle() *Style {
	return &Style{
		LevelLabels: ByLevel[lipgloss.Style]{
			Debug: lipgloss.NewStyle().SetString("DBG").Foreground(lipgloss.Color("243")),
			Info:  lipgloss.NewStyle().SetString("INF").Foreground(lipgloss.Color("39")),
			Warn:  lipgloss.NewStyle().SetString("WRN").Foreground(lipgloss.Color("214")),
			Error: lipgloss.NewStyle().SetString("ERR").Foreground(lipgloss.Color("203")),
			Fatal: lipgloss.NewStyle().SetString("FTL").Foreground(lipgloss.Color("161")).Bold(true),
		},
		Messages: ByLevel[lipgloss.Style]{
			Debug: lipgloss.NewStyle(),
			Info:  lipgloss.NewStyle(),
			Warn:  lipgloss.NewStyle(),
			Error: lipgloss.NewStyle(),
			Fatal: lipgloss.NewStyle().Bold(true),
		},
		PrefixDelimiter:   lipgloss.NewStyle().SetString(": ").Faint(true),
		Key:               lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		KeyValueDelimiter: lipgloss.NewStyle().SetString("="),
		Values:            make(map[string]lipgloss.Style),
		MultilinePrefix:   lipgloss.NewStyle().SetString("| ").Faint(true),
	}
}

// PlainStyle returns a style with no colors or decorations,
// suitable for non-TTY output and tests.
func PlainStyle() *Style {
	return &Style{
		LevelLabels: ByLevel[lipgloss.Style]{
			Debug: lipgloss.NewStyle().SetString("DBG"),
			Info:  lipgloss.NewStyle().SetString("INF"),
			Warn:  lipgloss.NewStyle().SetString("WRN"),
			Error: lipgloss.NewStyle().SetString("ERR"),
			Fatal: lipgloss.NewStyle().SetString("FTL"),
		},
		Messages: ByLevel[lipgloss.Style]{
			Debug: lipgloss.NewStyle(),
			Info:  lipgloss.NewStyle(),
			Warn:  lipgloss.NewStyle(),
			Error: lipgloss.NewStyle(),
			Fatal: lipgloss.NewStyle(),
		},
		PrefixDelimiter:   lipgloss.NewStyle().SetString(": "),
		Key:               lipgloss.NewStyle(),
		KeyValueDelimiter: lipgloss.NewStyle().SetString("="),
		Values:            make(map[string]lipgloss.Style),
		MultilinePrefix:   lipgloss.NewStyle().SetString("| "),
	}
}
