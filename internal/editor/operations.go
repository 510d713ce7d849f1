package editor

import (
	"fmt"
	"strings"

	"github.com/bryanchriswhite/ShotMark/internal/model"
)

// Tool selects what kind of operation a pointer press starts
type Tool int

const (
	ToolCropAndSave Tool = iota
	ToolLine
	ToolArrow
	ToolRectangle
	ToolHighlight
	ToolEllipse
	ToolPixelate
	ToolBlur
	ToolAutoincrementBubble
	ToolText
)

var toolNames = map[Tool]string{
	ToolCropAndSave:         "crop",
	ToolLine:                "line",
	ToolArrow:               "arrow",
	ToolRectangle:           "rectangle",
	ToolHighlight:           "highlight",
	ToolEllipse:             "ellipse",
	ToolPixelate:            "pixelate",
	ToolBlur:                "blur",
	ToolAutoincrementBubble: "bubble",
	ToolText:                "text",
}

// Tools returns every tool in toolbar order
func Tools() []Tool {
	return []Tool{
		ToolCropAndSave,
		ToolLine,
		ToolArrow,
		ToolRectangle,
		ToolHighlight,
		ToolEllipse,
		ToolPixelate,
		ToolBlur,
		ToolAutoincrementBubble,
		ToolText,
	}
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool resolves a tool by name. "crop-and-save", "rect" and
// "autoincrement-bubble" are accepted as aliases.
func ParseTool(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "crop-and-save":
		return ToolCropAndSave, nil
	case "rect":
		return ToolRectangle, nil
	case "autoincrement-bubble":
		return ToolAutoincrementBubble, nil
	}
	for tool, n := range toolNames {
		if n == name {
			return tool, nil
		}
	}
	return 0, fmt.Errorf("unknown tool: %q", name)
}

// Operation is one annotation in the document. Operations are immutable once
// committed and are rendered in commit order.
type Operation interface {
	Tool() Tool
	// Origin is the point the operation was started at
	Origin() model.Point
	render(p *painter) error
}

// endSetter is implemented by operations that follow the pointer while dragging
type endSetter interface {
	setEnd(end model.Point)
}

// Span is the start and end point shared by the drag-shaped operations
type Span struct {
	Start model.Point `json:"start" yaml:"start"`
	End   model.Point `json:"end" yaml:"end"`
}

// Origin returns the start point
func (s Span) Origin() model.Point { return s.Start }

// Bounds returns the normalized box between start and end
func (s Span) Bounds() model.Rectangle {
	return model.RectangleFromPoints(s.Start, s.End)
}

func (s *Span) setEnd(end model.Point) { s.End = end }

// Line is a straight stroke
type Line struct {
	Span
	Colour model.Colour `json:"colour"`
	Width  float64      `json:"width"`
}

func (*Line) Tool() Tool { return ToolLine }

// Arrow is a line with a head at its end point
type Arrow struct {
	Span
	Colour model.Colour `json:"colour"`
	Width  float64      `json:"width"`
}

func (*Arrow) Tool() Tool { return ToolArrow }

// Box is the rectangle tool: an outline, filled when Fill is not transparent
type Box struct {
	Span
	Outline model.Colour `json:"outline"`
	Fill    model.Colour `json:"fill"`
	Width   float64      `json:"width"`
}

func (*Box) Tool() Tool { return ToolRectangle }

// Ellipse is inscribed in the box between start and end
type Ellipse struct {
	Span
	Outline model.Colour `json:"outline"`
	Fill    model.Colour `json:"fill"`
	Width   float64      `json:"width"`
}

func (*Ellipse) Tool() Tool { return ToolEllipse }

// Highlight paints a translucent box using its colour's own alpha
type Highlight struct {
	Span
	Colour model.Colour `json:"colour"`
}

func (*Highlight) Tool() Tool { return ToolHighlight }

// Pixelate replaces the box with block averages of the base image
type Pixelate struct {
	Span
	BlockSize int `json:"block_size"`
}

func (*Pixelate) Tool() Tool { return ToolPixelate }

// Blur replaces the box with a box-blurred copy of the base image
type Blur struct {
	Span
	Radius int `json:"radius"`
}

func (*Blur) Tool() Tool { return ToolBlur }

// Bubble is a numbered marker centred on its start point. The number is not
// stored; it is derived from the bubbles committed before it.
type Bubble struct {
	Span
	Colour model.Colour `json:"colour"`
	Radius float64      `json:"radius"`
}

func (*Bubble) Tool() Tool { return ToolAutoincrementBubble }

// Text is a string drawn with its top-left corner at Start. It has no end
// point and stays pending until its string arrives.
type Text struct {
	Start  model.Point     `json:"start"`
	Text   string          `json:"text"`
	Font   FontDescription `json:"font"`
	Colour model.Colour    `json:"colour"`
}

func (*Text) Tool() Tool { return ToolText }

// Origin returns the anchor point
func (t *Text) Origin() model.Point { return t.Start }

// Crop selects the output region. It is never rendered and never committed.
type Crop struct {
	Span
}

func (*Crop) Tool() Tool { return ToolCropAndSave }

func (*Crop) render(*painter) error { return nil }

// newOperation builds an operation of the stack's current tool anchored at at,
// capturing the colours and settings active right now
func (s *OperationStack) newOperation(at model.Point) Operation {
	span := Span{Start: at, End: at}
	settings := s.settings

	switch s.tool {
	case ToolLine:
		return &Line{Span: span, Colour: s.primary, Width: settings.LineWidth}
	case ToolArrow:
		return &Arrow{Span: span, Colour: s.primary, Width: settings.LineWidth}
	case ToolRectangle:
		return &Box{Span: span, Outline: s.primary, Fill: s.secondary, Width: settings.LineWidth}
	case ToolEllipse:
		return &Ellipse{Span: span, Outline: s.primary, Fill: s.secondary, Width: settings.LineWidth}
	case ToolHighlight:
		return &Highlight{Span: span, Colour: s.primary}
	case ToolPixelate:
		return &Pixelate{Span: span, BlockSize: settings.PixelateBlockSize}
	case ToolBlur:
		return &Blur{Span: span, Radius: settings.BlurRadius}
	case ToolAutoincrementBubble:
		return &Bubble{Span: span, Colour: s.primary, Radius: settings.BubbleRadius}
	case ToolText:
		return &Text{Start: at, Font: settings.Font, Colour: s.primary}
	default:
		return &Crop{Span: span}
	}
}
