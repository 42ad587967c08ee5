// Package scenarios embeds the built-in task scenarios so they can be run by
// name, e.g. `mirtask run pick_and_place`.
package scenarios

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"facette.io/natsort"
	"github.com/mir-robotics/actionstates/statemachine"
)

var ErrUnknownScenario = errors.New("unknown scenario")

//go:embed *.yaml
var files embed.FS

// Loader serves embedded scenarios to statemachine.LoadConfig.
type Loader struct {
	fsys fs.FS
}

var _ statemachine.ConfigLoader = Loader{}

// NewLoader returns a loader over the embedded scenarios.
func NewLoader() Loader {
	return Loader{fsys: files}
}

// Register makes the embedded scenarios loadable by bare name.
func Register() {
	statemachine.SetConfigLoader(NewLoader())
}

func (l Loader) LoadByName(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, name+".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}

	return data, nil
}

// ListAvailable returns the scenario names in natural order.
func (l Loader) ListAvailable() []string {
	entries, err := fs.Glob(l.fsys, "*.yaml")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(path.Base(e), ".yaml"))
	}

	natsort.Sort(names)

	return names
}

// Load parses the embedded scenario called name.
func Load(name string) (*statemachine.Config, error) {
	return statemachine.LoadConfigFromFS(files, name+".yaml")
}
