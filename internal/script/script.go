package script

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/ShotMark/internal/editor"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"gopkg.in/yaml.v3"
)

// Script is a recorded sequence of editor input, used to annotate a capture
// without an interactive front end
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step holds exactly one input
type Step struct {
	Tool       string      `yaml:"tool,omitempty"`
	Down       []float64   `yaml:"down,omitempty"`
	Drag       []float64   `yaml:"drag,omitempty"`
	Up         bool        `yaml:"up,omitempty"`
	Colour     *ColourStep `yaml:"colour,omitempty"`
	Text       *string     `yaml:"text,omitempty"`
	CancelText bool        `yaml:"cancel_text,omitempty"`
}

// ColourStep picks a colour for a slot
type ColourStep struct {
	Slot  string `yaml:"slot"`
	Value string `yaml:"value"`
}

// Load reads a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a script
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if _, err := s.Events(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Events converts the steps into editor events
func (s *Script) Events() ([]editor.Event, error) {
	events := make([]editor.Event, 0, len(s.Steps))
	for i, step := range s.Steps {
		ev, err := step.event()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (st Step) event() (editor.Event, error) {
	var events []editor.Event

	if st.Tool != "" {
		tool, err := editor.ParseTool(st.Tool)
		if err != nil {
			return nil, err
		}
		events = append(events, editor.SelectTool{Tool: tool})
	}
	if st.Down != nil {
		p, err := point(st.Down)
		if err != nil {
			return nil, fmt.Errorf("down: %w", err)
		}
		events = append(events, editor.PointerDown{Point: p})
	}
	if st.Drag != nil {
		p, err := point(st.Drag)
		if err != nil {
			return nil, fmt.Errorf("drag: %w", err)
		}
		events = append(events, editor.PointerDrag{Point: p})
	}
	if st.Up {
		events = append(events, editor.PointerUp{})
	}
	if st.Colour != nil {
		slot, err := editor.ParseColourSlot(st.Colour.Slot)
		if err != nil {
			return nil, err
		}
		c, err := model.ParseColour(st.Colour.Value)
		if err != nil {
			return nil, err
		}
		events = append(events, editor.PickColour{Slot: slot, Colour: c})
	}
	if st.Text != nil {
		events = append(events, editor.EnterText{Text: *st.Text})
	}
	if st.CancelText {
		events = append(events, editor.CancelText{})
	}

	switch len(events) {
	case 0:
		return nil, fmt.Errorf("empty step")
	case 1:
		return events[0], nil
	default:
		return nil, fmt.Errorf("step has %d inputs, expected exactly one", len(events))
	}
}

func point(v []float64) (model.Point, error) {
	if len(v) != 2 {
		return model.Point{}, fmt.Errorf("expected [x, y], got %d values", len(v))
	}
	return model.Point{X: v[0], Y: v[1]}, nil
}

// Dispatcher receives events; *editor.Session implements it
type Dispatcher interface {
	Dispatch(ev editor.Event) error
}

// Play feeds every event to d in order, stopping at the first error
func (s *Script) Play(d Dispatcher) error {
	log := logger.WithComponent("script")

	events, err := s.Events()
	if err != nil {
		return err
	}

	for i, ev := range events {
		if err := d.Dispatch(ev); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	log.Debug().Int("steps", len(events)).Msg("Script played")
	return nil
}
