package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowActions includes the action kind and its arguments in state nodes
	ShowActions bool

	// ShowOutcomes labels transitions with the outcome that takes them
	ShowOutcomes bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right); empty omits it
	Direction string

	// HighlightPath highlights the states a run visited
	HighlightPath []string

	// Fenced wraps the diagram in a ```mermaid block for Markdown
	Fenced bool
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowActions:  true,
		ShowOutcomes: true,
		Direction:    "TD",
		Fenced:       true,
	}
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

// WithFenced toggles the Markdown fence.
func (o Options) WithFenced(fenced bool) Options {
	o.Fenced = fenced

	return o
}
