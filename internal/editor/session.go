package editor

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/rs/zerolog"
)

// ColourSlot names which of the two colours a pick applies to
type ColourSlot int

const (
	PrimaryColour ColourSlot = iota
	SecondaryColour
)

func (s ColourSlot) String() string {
	if s == SecondaryColour {
		return "secondary"
	}
	return "primary"
}

// ParseColourSlot accepts "primary" and "secondary"
func ParseColourSlot(name string) (ColourSlot, error) {
	switch name {
	case "primary", "":
		return PrimaryColour, nil
	case "secondary":
		return SecondaryColour, nil
	default:
		return 0, fmt.Errorf("unknown colour slot: %q", name)
	}
}

// Event is one discrete input from the user interface
type Event interface {
	eventName() string
}

type SelectTool struct{ Tool Tool }
type PointerDown struct{ Point model.Point }
type PointerDrag struct{ Point model.Point }
type PointerUp struct{}
type PickColour struct {
	Slot   ColourSlot
	Colour model.Colour
}
type EnterText struct{ Text string }
type CancelText struct{}

func (SelectTool) eventName() string  { return "select_tool" }
func (PointerDown) eventName() string { return "pointer_down" }
func (PointerDrag) eventName() string { return "pointer_drag" }
func (PointerUp) eventName() string   { return "pointer_up" }
func (PickColour) eventName() string  { return "pick_colour" }
func (EnterText) eventName() string   { return "enter_text" }
func (CancelText) eventName() string  { return "cancel_text" }

// RedrawFunc receives the live rendering after every event
type RedrawFunc func(img *image.RGBA)

// Session is one editing session over a captured image. All input goes
// through Dispatch, one event at a time.
type Session struct {
	base      *image.RGBA
	stack     *OperationStack
	finalizer *Finalizer
	redraw    RedrawFunc

	awaitingText bool
	done         bool
	result       *image.RGBA

	dispatching bool
	log         *zerolog.Logger
}

// NewSession starts editing base. A nil finalizer runs no actions and uses
// the fallback resolution.
func NewSession(base *image.RGBA, stack *OperationStack, finalizer *Finalizer) *Session {
	if stack == nil {
		stack = NewOperationStack()
	}
	if finalizer == nil {
		finalizer = &Finalizer{}
	}
	return &Session{
		base:      base,
		stack:     stack,
		finalizer: finalizer,
		log:       logger.WithComponent("session"),
	}
}

// OnRedraw sets the callback that receives live renderings
func (s *Session) OnRedraw(fn RedrawFunc) {
	s.redraw = fn
}

func (s *Session) Stack() *OperationStack { return s.stack }
func (s *Session) Base() *image.RGBA      { return s.base }

// AwaitingText reports whether a text operation needs EnterText or CancelText
func (s *Session) AwaitingText() bool { return s.awaitingText }

// Done reports whether the session was finalized
func (s *Session) Done() bool { return s.done }

// Result is the finalized image, nil until Done
func (s *Session) Result() *image.RGBA { return s.result }

// Dispatch applies one event. Events arriving after the session is done are
// ignored. A Dispatch made from inside another Dispatch (for example from a
// redraw callback) is skipped and returns ErrBusy.
func (s *Session) Dispatch(ev Event) error {
	if s.dispatching {
		s.log.Warn().Str("event", ev.eventName()).Msg("Re-entrant dispatch skipped")
		return ErrBusy
	}
	if !s.stack.enter("Dispatch") {
		return ErrBusy
	}
	s.dispatching = true
	defer func() {
		s.dispatching = false
		s.stack.leave()
	}()

	if s.done {
		s.log.Debug().Str("event", ev.eventName()).Msg("Session finished, event ignored")
		return nil
	}

	s.log.Debug().Str("event", ev.eventName()).Msg("Dispatching event")

	switch e := ev.(type) {
	case SelectTool:
		s.stack.setCurrentTool(e.Tool)
	case PointerDown:
		s.stack.startOperationAt(e.Point)
	case PointerDrag:
		s.stack.updateEnd(e.Point.X, e.Point.Y)
	case PointerUp:
		if err := s.pointerUp(); err != nil {
			return err
		}
	case PickColour:
		if e.Slot == SecondaryColour {
			s.stack.setSecondaryColour(e.Colour)
		} else {
			s.stack.setPrimaryColour(e.Colour)
		}
	case EnterText:
		s.stack.setText(e.Text)
		s.awaitingText = false
	case CancelText:
		s.stack.cancelText()
		s.awaitingText = false
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}

	if !s.done {
		s.refresh()
	}
	return nil
}

func (s *Session) pointerUp() error {
	switch s.stack.CurrentTool() {
	case ToolText:
		s.awaitingText = s.stack.PendingText()
		return nil
	case ToolCropAndSave:
		s.stack.finishCurrentOperation()
		result, err := s.finalizer.finalize(s.stack, s.base)
		if err != nil {
			return fmt.Errorf("finalize: %w", err)
		}
		s.result = result
		s.done = true
		return nil
	default:
		s.stack.finishCurrentOperation()
		return nil
	}
}

// Finish finalizes a session that never reached a crop. Pending text and any
// in-progress operation are discarded; the full screen is extracted. Calling
// it from inside Dispatch, a redraw or an action returns ErrBusy.
func (s *Session) Finish() (*image.RGBA, error) {
	if s.dispatching {
		s.log.Warn().Msg("Finish called during dispatch, skipped")
		return nil, ErrBusy
	}
	if !s.stack.enter("Finish") {
		return nil, ErrBusy
	}
	defer s.stack.leave()

	if s.done {
		return s.result, nil
	}
	if s.stack.PendingText() {
		s.stack.cancelText()
		s.awaitingText = false
	}

	result, err := s.finalizer.finalize(s.stack, s.base)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	s.result = result
	s.done = true
	return result, nil
}

func (s *Session) refresh() {
	if s.redraw == nil {
		return
	}
	img, err := s.stack.renderImage(s.base, true)
	if err != nil {
		s.log.Error().Err(err).Msg("Redraw failed")
		return
	}
	s.redraw(img)
}
