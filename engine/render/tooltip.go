package render

// Line is one row of a tooltip.
type Line struct {
	Text  string `json:"text"`
	Bold  bool   `json:"bold,omitempty"`
	Color string `json:"color,omitempty"`
	// Gap starts a new block with spacing above it.
	Gap bool `json:"gap,omitempty"`
}

// Tooltip is positioned in page coordinates.
type Tooltip struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Lines []Line  `json:"lines"`
}

func (t *Tooltip) add(text string) *Tooltip {
	t.Lines = append(t.Lines, Line{Text: text})
	return t
}

func (t *Tooltip) bold(text string) *Tooltip {
	t.Lines = append(t.Lines, Line{Text: text, Bold: true})
	return t
}

func (t *Tooltip) block(text, color string) *Tooltip {
	t.Lines = append(t.Lines, Line{Text: text, Bold: true, Color: color, Gap: true})
	return t
}

func (t *Tooltip) colored(text, color string) *Tooltip {
	t.Lines = append(t.Lines, Line{Text: text, Color: color})
	return t
}
