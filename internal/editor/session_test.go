package editor

import (
	"image"
	"testing"

	"github.com/bryanchriswhite/ShotMark/internal/model"
	"github.com/bryanchriswhite/ShotMark/internal/postcapture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatchAll(t *testing.T, s *Session, events ...Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, s.Dispatch(ev))
	}
}

func TestSessionCropFinishes(t *testing.T) {
	base := gradientImage(40, 40)
	s := NewSession(base, nil, &Finalizer{Screen: fixedScreen{w: 40, h: 40}})

	dispatchAll(t, s,
		SelectTool{Tool: ToolLine},
		PointerDown{Point: model.Point{X: 1, Y: 1}},
		PointerDrag{Point: model.Point{X: 30, Y: 30}},
		PointerUp{},
	)
	assert.False(t, s.Done())
	assert.Len(t, s.Stack().Operations(), 1)

	dispatchAll(t, s,
		SelectTool{Tool: ToolCropAndSave},
		PointerDown{Point: model.Point{X: 10, Y: 10}},
		PointerDrag{Point: model.Point{X: 5, Y: 5}},
		PointerUp{},
	)
	require.True(t, s.Done())
	require.NotNil(t, s.Result())
	assert.Equal(t, image.Rect(0, 0, 5, 5), s.Result().Bounds())

	// events after completion are ignored
	require.NoError(t, s.Dispatch(SelectTool{Tool: ToolBlur}))
	assert.Equal(t, ToolCropAndSave, s.Stack().CurrentTool())
}

func TestSessionTextFlow(t *testing.T) {
	s := NewSession(solidImage(50, 50, model.White), nil, nil)

	dispatchAll(t, s,
		SelectTool{Tool: ToolText},
		PickColour{Slot: PrimaryColour, Colour: model.Colour{Red: 200, Alpha: 255}},
		PointerDown{Point: model.Point{X: 5, Y: 5}},
		PointerUp{},
	)
	assert.True(t, s.AwaitingText())
	assert.Empty(t, s.Stack().Operations())

	dispatchAll(t, s, EnterText{Text: "hi"})
	assert.False(t, s.AwaitingText())

	ops := s.Stack().Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, model.Colour{Red: 200, Alpha: 255}, ops[0].(*Text).Colour)

	dispatchAll(t, s,
		PointerDown{Point: model.Point{X: 20, Y: 20}},
		PointerUp{},
		CancelText{},
	)
	assert.False(t, s.AwaitingText())
	assert.Len(t, s.Stack().Operations(), 1)
}

func TestSessionPickSecondaryColour(t *testing.T) {
	s := NewSession(solidImage(4, 4, model.White), nil, nil)
	dispatchAll(t, s, PickColour{Slot: SecondaryColour, Colour: model.White})
	assert.Equal(t, model.White, s.Stack().SecondaryColour())
	assert.Equal(t, model.Black, s.Stack().PrimaryColour())
}

func TestSessionRedrawAfterEachEvent(t *testing.T) {
	base := solidImage(30, 30, model.White)
	s := NewSession(base, nil, nil)

	var frames []*image.RGBA
	s.OnRedraw(func(img *image.RGBA) { frames = append(frames, img) })

	dispatchAll(t, s,
		SelectTool{Tool: ToolRectangle},
		PickColour{Slot: SecondaryColour, Colour: model.Colour{Green: 255, Alpha: 255}},
		PointerDown{Point: model.Point{X: 2, Y: 2}},
		PointerDrag{Point: model.Point{X: 28, Y: 28}},
	)
	require.Len(t, frames, 4)

	// the drag frame shows the uncommitted box
	assert.Equal(t, uint8(255), frames[3].RGBAAt(15, 15).G)
	assert.Equal(t, uint8(0), frames[3].RGBAAt(15, 15).R)
}

func TestSessionNestedDispatchSkipped(t *testing.T) {
	s := NewSession(solidImage(10, 10, model.White), nil, nil)

	var nested error
	s.OnRedraw(func(*image.RGBA) {
		nested = s.Dispatch(SelectTool{Tool: ToolBlur})
	})

	dispatchAll(t, s, SelectTool{Tool: ToolArrow})
	assert.ErrorIs(t, nested, ErrBusy)
	assert.Equal(t, ToolArrow, s.Stack().CurrentTool())
}

func TestParseColourSlot(t *testing.T) {
	slot, err := ParseColourSlot("secondary")
	require.NoError(t, err)
	assert.Equal(t, SecondaryColour, slot)

	slot, err = ParseColourSlot("")
	require.NoError(t, err)
	assert.Equal(t, PrimaryColour, slot)

	_, err = ParseColourSlot("tertiary")
	assert.Error(t, err)
}

func TestSessionFinishWithoutCrop(t *testing.T) {
	base := solidImage(30, 20, model.White)
	s := NewSession(base, nil, &Finalizer{Screen: fixedScreen{w: 30, h: 20}})

	dispatchAll(t, s,
		SelectTool{Tool: ToolText},
		PointerDown{Point: model.Point{X: 2, Y: 2}},
		PointerUp{},
	)
	require.True(t, s.AwaitingText())

	out, err := s.Finish()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), out.Bounds())
	assert.True(t, s.Done())
	assert.False(t, s.AwaitingText())
	assert.Empty(t, s.Stack().Operations())

	again, err := s.Finish()
	require.NoError(t, err)
	assert.Same(t, out, again)
}

func TestSessionRedrawCannotMutateStack(t *testing.T) {
	s := NewSession(solidImage(10, 10, model.White), nil, nil)

	var finishErr error
	s.OnRedraw(func(*image.RGBA) {
		s.Stack().SetCurrentTool(ToolBlur)
		s.Stack().StartOperationAt(model.Point{X: 1, Y: 1})
		s.Stack().SetPrimaryColour(model.White)
		_, finishErr = s.Finish()
	})

	dispatchAll(t, s, SelectTool{Tool: ToolArrow})

	assert.Equal(t, ToolArrow, s.Stack().CurrentTool())
	assert.Nil(t, s.Stack().InProgress())
	assert.Equal(t, model.Black, s.Stack().PrimaryColour())
	assert.ErrorIs(t, finishErr, ErrBusy)
	assert.False(t, s.Done())

	// the stack is free again once Dispatch returns
	s.OnRedraw(nil)
	s.Stack().SetCurrentTool(ToolLine)
	assert.Equal(t, ToolLine, s.Stack().CurrentTool())
}

// stackMutatingAction tries to change the stack while it is being finalized
type stackMutatingAction struct {
	stack   *OperationStack
	session *Session
	err     *error
}

func (a stackMutatingAction) ID() string          { return "mutate" }
func (a stackMutatingAction) Name() string        { return "mutate" }
func (a stackMutatingAction) Description() string { return "" }
func (a stackMutatingAction) Handle(postcapture.Env, *image.RGBA) error {
	a.stack.SetCurrentTool(ToolBlur)
	a.stack.FinishCurrentOperation()
	_, *a.err = a.session.Finish()
	return nil
}

func TestSessionActionCannotMutateStack(t *testing.T) {
	stack := NewOperationStack()
	var finishErr error
	finalizer := &Finalizer{
		Screen:  fixedScreen{w: 20, h: 20},
		Actions: []string{"mutate"},
	}
	s := NewSession(solidImage(20, 20, model.White), stack, finalizer)
	finalizer.Registry = postcapture.NewRegistry(stackMutatingAction{stack: stack, session: s, err: &finishErr})

	dispatchAll(t, s,
		PointerDown{Point: model.Point{X: 2, Y: 2}},
		PointerDrag{Point: model.Point{X: 12, Y: 12}},
		PointerUp{},
	)

	require.True(t, s.Done())
	assert.Equal(t, image.Rect(0, 0, 10, 10), s.Result().Bounds())
	assert.Equal(t, ToolCropAndSave, stack.CurrentTool())
	assert.ErrorIs(t, finishErr, ErrBusy)
}

func TestFinishFromActionIsSkipped(t *testing.T) {
	stack := NewOperationStack()
	var finishErr error
	finalizer := &Finalizer{Screen: fixedScreen{w: 8, h: 8}, Actions: []string{"mutate"}}
	s := NewSession(solidImage(8, 8, model.White), stack, finalizer)
	finalizer.Registry = postcapture.NewRegistry(stackMutatingAction{stack: stack, session: s, err: &finishErr})

	out, err := s.Finish()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())
	assert.ErrorIs(t, finishErr, ErrBusy)
	assert.Equal(t, ToolCropAndSave, stack.CurrentTool())
}
