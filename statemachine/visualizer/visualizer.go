// Package visualizer renders scenarios as Mermaid state diagrams.
package visualizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mir-robotics/actionstates/statemachine"
)

// Visualizer errors.
var (
	ErrConfigNil      = errors.New("config cannot be nil")
	ErrNoInitialState = errors.New("config must have an initial state")
)

// GenerateMermaid converts a scenario to a Mermaid state diagram.
func GenerateMermaid(config *statemachine.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromFile loads a scenario by path or name and renders it.
func GenerateMermaidFromFile(pathOrName string) (string, error) {
	config, err := statemachine.LoadConfig(pathOrName)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
func GenerateMermaidWithOptions(config *statemachine.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if config.InitialState == "" {
		return "", ErrNoInitialState
	}

	var sb strings.Builder

	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}

	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", config.InitialState)

	for _, state := range config.States {
		writeState(&sb, config, state, opts)
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef actionState fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef finalState fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	if opts.Fenced {
		sb.WriteString("```\n")
	}

	return sb.String(), nil
}

func writeState(sb *strings.Builder, config *statemachine.Config, state statemachine.StateConfig, opts Options) {
	if opts.ShowActions && state.Action != nil {
		label := state.Action.Kind
		if state.Action.Args.Len() > 0 {
			label += " " + state.Action.Args.String()
		}

		fmt.Fprintf(sb, "    %s: %s\\n[%s]\n", state.Name, state.Name, label)
	}

	isFinal := config.IsFinal(state.Name)

	switch {
	case slices.Contains(opts.HighlightPath, state.Name):
		fmt.Fprintf(sb, "    class %s highlighted\n", state.Name)
	case isFinal:
		fmt.Fprintf(sb, "    class %s finalState\n", state.Name)
	case state.Type == statemachine.StateTypeAction:
		fmt.Fprintf(sb, "    class %s actionState\n", state.Name)
	}

	outcomes := make([]string, 0, len(state.Transitions))
	for outcome := range state.Transitions {
		outcomes = append(outcomes, outcome)
	}

	slices.Sort(outcomes)

	for _, outcome := range outcomes {
		label := ""
		if opts.ShowOutcomes {
			label = ": " + outcome
		}

		fmt.Fprintf(sb, "    %s --> %s%s\n", state.Name, state.Transitions[outcome], label)
	}

	if isFinal {
		fmt.Fprintf(sb, "    %s --> [*]\n", state.Name)
	}
}
