package simserver

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mir-robotics/actionstates/actionlib"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid simulator script")

// Behavior scripts how one endpoint handles goals.
type Behavior struct {
	// Result is the terminal status a goal ends in. Non-terminal values
	// (including an omitted field) mean SUCCEEDED.
	Result actionlib.GoalStatus `yaml:"result"`
	// Delay is how long a goal stays ACTIVE before finishing.
	Delay time.Duration `yaml:"delay"`
	// Never keeps goals ACTIVE until they are cancelled.
	Never bool `yaml:"never"`
	// Reject refuses goals: they are recorded as REJECTED without running.
	Reject bool `yaml:"reject"`
	// ReadyAfter delays readiness of the endpoint, counted from server start.
	ReadyAfter time.Duration `yaml:"ready_after"`
}

func (b Behavior) result() actionlib.GoalStatus {
	if b.Result.IsTerminal() {
		return b.Result
	}

	return actionlib.StatusSucceeded
}

// Script maps endpoint names to behaviors. Endpoints not listed use Default;
// without a Default they are unknown and answer 404.
type Script struct {
	Default *Behavior           `yaml:"default"`
	Actions map[string]Behavior `yaml:"actions"`
}

// DefaultScript serves every endpoint, succeeding after a short delay.
func DefaultScript() Script {
	return Script{Default: &Behavior{Result: actionlib.StatusSucceeded, Delay: 100 * time.Millisecond}}
}

// Lookup returns the behavior for endpoint.
func (s Script) Lookup(endpoint string) (Behavior, bool) {
	if b, ok := s.Actions[endpoint]; ok {
		return b, true
	}

	if s.Default != nil {
		return *s.Default, true
	}

	return Behavior{}, false
}

// Endpoints returns the explicitly scripted endpoint names, sorted.
func (s Script) Endpoints() []string {
	names := make([]string, 0, len(s.Actions))
	for name := range s.Actions {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (s Script) Validate() error {
	check := func(name string, b Behavior) error {
		if b.Delay < 0 || b.ReadyAfter < 0 {
			return fmt.Errorf("%w: %s: negative duration", ErrInvalidScript, name)
		}

		if b.Never && b.Reject {
			return fmt.Errorf("%w: %s: never and reject are exclusive", ErrInvalidScript, name)
		}

		return nil
	}

	if s.Default != nil {
		if err := check("default", *s.Default); err != nil {
			return err
		}
	}

	for _, name := range s.Endpoints() {
		if name == "" {
			return fmt.Errorf("%w: empty endpoint name", ErrInvalidScript)
		}

		if err := check(name, s.Actions[name]); err != nil {
			return err
		}
	}

	return nil
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (Script, error) {
	var script Script

	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if err := script.Validate(); err != nil {
		return Script{}, err
	}

	return script, nil
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}

	return ParseScript(data)
}
