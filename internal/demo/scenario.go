package demo

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/fiber"
)

// Step actions.
const (
	DoIncrement     = "increment"
	DoSetItems      = "set_items"
	DoToggle        = "toggle"
	DoReorder       = "reorder"
	DoToggleCounter = "toggle_counter"
	DoRun           = "run"
	DoSettle        = "settle"
	DoAbandon       = "abandon"
	DoExpect        = "expect"
)

var actions = []string{
	DoIncrement, DoSetItems, DoToggle, DoReorder,
	DoToggleCounter, DoRun, DoSettle, DoAbandon, DoExpect,
}

var lanes = map[string]fiber.Lane{
	"":           fiber.NoLane,
	"sync":       fiber.SyncLane,
	"input":      fiber.InputLane,
	"default":    fiber.DefaultLane,
	"transition": fiber.TransitionLane,
	"idle":       fiber.IdleLane,
}

// Scenario is a scripted sequence of updates applied to App.
//
//	name: todo
//	yieldEvery: 3
//	steps:
//	  - do: set_items
//	    items: [a, b, c]
//	  - do: increment
//	    times: 2
//	    lane: transition
//	  - do: expect
//	    snapshot: '<div class="app">...</div>'
type Scenario struct {
	Name string `yaml:"name"`

	// YieldEvery makes the manual scheduler yield on every n-th check.
	// Zero never yields.
	YieldEvery int `yaml:"yieldEvery,omitempty"`

	Steps []Step `yaml:"steps"`

	// File is the path the scenario was loaded from.
	File string `yaml:"-"`
}

// Step is one scenario action.
type Step struct {
	Do string `yaml:"do"`

	// Times repeats increment within one batch, or bounds the host tasks
	// executed by run. Default 1.
	Times int `yaml:"times,omitempty"`

	// Items holds labels for set_items and IDs for reorder.
	Items []string `yaml:"items,omitempty"`

	// ID selects the item for toggle.
	ID string `yaml:"id,omitempty"`

	// Lane is the priority of the updates of this step.
	Lane string `yaml:"lane,omitempty"`

	// Defer leaves the scheduled render pending instead of settling.
	Defer bool `yaml:"defer,omitempty"`

	// Snapshot and Log are the expectations of an expect step.
	Snapshot string   `yaml:"snapshot,omitempty"`
	Log      []string `yaml:"log,omitempty"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// LaneValue returns the lane named by s.Lane.
func (s Step) LaneValue() fiber.Lane {
	return lanes[s.Lane]
}

func (s Step) String() string {
	switch s.Do {
	case DoIncrement, DoRun:
		return fmt.Sprintf("%s x%d", s.Do, s.times())
	case DoSetItems, DoReorder:
		return fmt.Sprintf("%s [%s]", s.Do, strings.Join(s.Items, " "))
	case DoToggle:
		return "toggle " + s.ID
	}
	return s.Do
}

func (s Step) times() int {
	if s.Times == 0 {
		return 1
	}
	return s.Times
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S301").WithDetail(err.Error()).Wrap(err)
	}
	return Parse(data, path)
}

// Parse decodes and validates a scenario. file is used for error
// locations.
func Parse(data []byte, file string) (*Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("S301").WithDetailf("%s: %v", file, err).Wrap(err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("S301").WithDetailf("%s: empty scenario", file)
	}

	sc := &Scenario{File: file}
	if err := doc.Decode(sc); err != nil {
		return nil, errors.New("S301").WithDetailf("%s: %v", file, err).Wrap(err)
	}
	if sc.Name == "" {
		sc.Name = file
	}
	if sc.YieldEvery < 0 {
		return nil, errors.New("S302").WithDetailf("yieldEvery must be >= 0, got %d", sc.YieldEvery)
	}

	if steps := mappingValue(doc.Content[0], "steps"); steps != nil && steps.Kind == yaml.SequenceNode {
		for i, n := range steps.Content {
			if i < len(sc.Steps) {
				sc.Steps[i].Line, sc.Steps[i].Column = n.Line, n.Column
			}
		}
	}
	for i := range sc.Steps {
		if err := sc.validate(&sc.Steps[i]); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func (sc *Scenario) validate(s *Step) error {
	invalid := func(format string, args ...any) *errors.Error {
		e := errors.New("S302").WithDetailf(format, args...)
		if s.Line > 0 {
			e = e.WithLocation(sc.File, s.Line, s.Column)
		}
		return e
	}

	if !slices.Contains(actions, s.Do) {
		return invalid("unknown action %q", s.Do).
			WithSuggestion("Use one of " + quoteAll(actions) + ".")
	}
	if _, ok := lanes[s.Lane]; !ok {
		return invalid("unknown lane %q", s.Lane)
	}
	switch s.Do {
	case DoIncrement, DoRun:
		if s.Times < 0 {
			return invalid("times must be >= 0, got %d", s.Times)
		}
	case DoToggle:
		if s.ID == "" {
			return invalid("toggle needs an id")
		}
	case DoReorder:
		if len(s.Items) == 0 {
			return invalid("reorder needs items")
		}
	case DoExpect:
		if s.Snapshot == "" && s.Log == nil {
			return invalid("expect needs a snapshot or a log")
		}
	}
	return nil
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
