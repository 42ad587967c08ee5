package cli

import (
	"errors"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm asks a yes/no question. A declined prompt is (false, nil).
func Confirm(label string, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Select lets the operator pick one of choices, filtered by prefix while typing.
func Select(label string, choices []string, in io.ReadCloser, out io.WriteCloser) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("nothing to choose from")
	}

	sel := &promptui.Select{
		Label:  label,
		Items:  choices,
		Stdin:  in,
		Stdout: out,
		Searcher: func(input string, index int) bool {
			return strings.HasPrefix(choices[index], input)
		},
	}

	_, value, err := sel.Run()

	return value, err
}
