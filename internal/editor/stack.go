package editor

import (
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/rs/zerolog"
)

// Settings are the drawing parameters copied into each new operation
type Settings struct {
	LineWidth         float64
	PixelateBlockSize int
	BlurRadius        int
	BubbleRadius      float64
	Font              FontDescription
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		LineWidth:         3,
		PixelateBlockSize: 10,
		BlurRadius:        6,
		BubbleRadius:      14,
		Font:              DefaultFont(),
	}
}

// OperationStack is the annotation document: an append-only list of
// committed operations, at most one in-progress operation, and the tool and
// colour state that new operations are created with.
//
// The stack has a single writer. A mutator called while another mutator or
// Execute is still running is skipped and logged. A Session holds the stack
// for the whole of each event, redraw and finalize included.
type OperationStack struct {
	operations []Operation
	current    Operation

	tool      Tool
	primary   model.Colour
	secondary model.Colour
	crop      *model.Rectangle
	settings  Settings
	fonts     *fontCache

	busy bool
	log  *zerolog.Logger
}

// NewOperationStack creates an empty stack with the default settings
func NewOperationStack() *OperationStack {
	return NewOperationStackWithSettings(DefaultSettings())
}

// NewOperationStackWithSettings creates an empty stack. The crop tool is
// selected, the primary colour is black and the secondary is transparent.
func NewOperationStackWithSettings(settings Settings) *OperationStack {
	return &OperationStack{
		tool:      ToolCropAndSave,
		primary:   model.Black,
		secondary: model.Transparent,
		settings:  settings,
		log:       logger.WithComponent("editor"),
	}
}

// enter marks the stack busy. It returns false, and the caller must bail out,
// when the stack is already inside another call.
func (s *OperationStack) enter(call string) bool {
	if s.busy {
		s.log.Warn().Str("call", call).Msg("Re-entrant call on operation stack skipped")
		return false
	}
	s.busy = true
	return true
}

func (s *OperationStack) leave() {
	s.busy = false
}

// SetCurrentTool switches the tool used by the next StartOperationAt
func (s *OperationStack) SetCurrentTool(tool Tool) {
	if !s.enter("SetCurrentTool") {
		return
	}
	defer s.leave()
	s.setCurrentTool(tool)
}

func (s *OperationStack) setCurrentTool(tool Tool) {
	s.tool = tool
	s.log.Debug().Stringer("tool", tool).Msg("Tool selected")
}

// CurrentTool returns the active tool
func (s *OperationStack) CurrentTool() Tool {
	return s.tool
}

// SetPrimaryColour sets the stroke colour for new operations
func (s *OperationStack) SetPrimaryColour(c model.Colour) {
	if !s.enter("SetPrimaryColour") {
		return
	}
	defer s.leave()
	s.setPrimaryColour(c)
}

func (s *OperationStack) setPrimaryColour(c model.Colour) {
	s.primary = c
}

// SetSecondaryColour sets the fill colour for new boxes and ellipses
func (s *OperationStack) SetSecondaryColour(c model.Colour) {
	if !s.enter("SetSecondaryColour") {
		return
	}
	defer s.leave()
	s.setSecondaryColour(c)
}

func (s *OperationStack) setSecondaryColour(c model.Colour) {
	s.secondary = c
}

func (s *OperationStack) PrimaryColour() model.Colour   { return s.primary }
func (s *OperationStack) SecondaryColour() model.Colour { return s.secondary }

// Settings returns the drawing settings
func (s *OperationStack) Settings() Settings {
	return s.settings
}

// StartOperationAt begins a new operation of the current tool at point,
// replacing whatever was in progress
func (s *OperationStack) StartOperationAt(point model.Point) {
	if !s.enter("StartOperationAt") {
		return
	}
	defer s.leave()
	s.startOperationAt(point)
}

func (s *OperationStack) startOperationAt(point model.Point) {
	if s.current != nil {
		s.log.Debug().Stringer("tool", s.current.Tool()).Msg("Discarding unfinished operation")
	}
	s.current = s.newOperation(point)

	s.log.Debug().
		Stringer("tool", s.tool).
		Float64("x", point.X).
		Float64("y", point.Y).
		Msg("Operation started")
}

// UpdateCurrentOperationEndCoordinate moves the end point of the in-progress
// operation. Coordinates are absolute.
func (s *OperationStack) UpdateCurrentOperationEndCoordinate(x, y float64) {
	if !s.enter("UpdateCurrentOperationEndCoordinate") {
		return
	}
	defer s.leave()
	s.updateEnd(x, y)
}

func (s *OperationStack) updateEnd(x, y float64) {
	op, ok := s.current.(endSetter)
	if !ok {
		return
	}
	op.setEnd(model.Point{X: x, Y: y})
}

// FinishCurrentOperation commits the in-progress operation. A crop is not
// committed; it sets the crop region instead. A text operation stays pending
// until SetText.
func (s *OperationStack) FinishCurrentOperation() {
	if !s.enter("FinishCurrentOperation") {
		return
	}
	defer s.leave()
	s.finishCurrentOperation()
}

func (s *OperationStack) finishCurrentOperation() {
	switch op := s.current.(type) {
	case nil:
		s.log.Debug().Msg("No operation in progress to finish")
	case *Crop:
		region := op.Bounds()
		s.crop = &region
		s.current = nil
		s.log.Debug().Stringer("region", region).Msg("Crop region set")
	case *Text:
		s.log.Debug().Msg("Text operation waits for its string")
	default:
		s.operations = append(s.operations, op)
		s.current = nil
		s.log.Debug().
			Stringer("tool", op.Tool()).
			Int("operations", len(s.operations)).
			Msg("Operation committed")
	}
}

// SetText fills in the pending text operation and commits it. An empty
// string drops the operation.
func (s *OperationStack) SetText(text string) {
	if !s.enter("SetText") {
		return
	}
	defer s.leave()
	s.setText(text)
}

func (s *OperationStack) setText(text string) {
	op, ok := s.current.(*Text)
	if !ok {
		s.log.Warn().Msg("SetText called without a pending text operation")
		return
	}
	s.current = nil

	if text == "" {
		s.log.Debug().Msg("Empty text, operation dropped")
		return
	}

	op.Text = text
	s.operations = append(s.operations, op)
}

// CancelText drops a pending text operation
func (s *OperationStack) CancelText() {
	if !s.enter("CancelText") {
		return
	}
	defer s.leave()
	s.cancelText()
}

func (s *OperationStack) cancelText() {
	if _, ok := s.current.(*Text); ok {
		s.current = nil
	}
}

// CropRegion returns the normalized crop rectangle, if one was ever set
func (s *OperationStack) CropRegion() (model.Rectangle, bool) {
	if s.crop == nil {
		return model.Rectangle{}, false
	}
	return *s.crop, true
}

// Operations returns a copy of the committed operations in commit order
func (s *OperationStack) Operations() []Operation {
	ops := make([]Operation, len(s.operations))
	copy(ops, s.operations)
	return ops
}

// InProgress returns the uncommitted operation, or nil
func (s *OperationStack) InProgress() Operation {
	return s.current
}

// PendingText reports whether a text operation is waiting for its string
func (s *OperationStack) PendingText() bool {
	_, ok := s.current.(*Text)
	return ok
}
