package display

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/bryanchriswhite/ShotMark/internal/model"
)

// maxWindows bounds how many ids are read from _NET_CLIENT_LIST_STACKING
const maxWindows = 128

const (
	atomClientListStacking = "_NET_CLIENT_LIST_STACKING"
	atomFrameExtents       = "_NET_FRAME_EXTENTS"
)

// Window is a top-level client window with its decorated and undecorated
// geometry in root coordinates
type Window struct {
	ID          uint32          `json:"id"`
	OuterRect   model.Rectangle `json:"outer_rect"`
	ContentRect model.Rectangle `json:"content_rect"`
}

// FrameExtents is the decoration padding the window manager reports
type FrameExtents struct {
	Left, Right, Top, Bottom uint32
}

// decodeFrameExtents reads a _NET_FRAME_EXTENTS value. Anything shorter than
// four CARDINALs counts as no decoration.
func decodeFrameExtents(value []byte) FrameExtents {
	if len(value) < 16 {
		return FrameExtents{}
	}
	return FrameExtents{
		Left:   xgb.Get32(value[0:]),
		Right:  xgb.Get32(value[4:]),
		Top:    xgb.Get32(value[8:]),
		Bottom: xgb.Get32(value[12:]),
	}
}

// decodeWindowIDs reads a WINDOW list property value, keeping at most limit ids
func decodeWindowIDs(value []byte, limit int) []xproto.Window {
	n := len(value) / 4
	if n > limit {
		n = limit
	}
	ids := make([]xproto.Window, n)
	for i := 0; i < n; i++ {
		ids[i] = xproto.Window(xgb.Get32(value[i*4:]))
	}
	return ids
}

// windowFacts holds every reply gathered for one window
type windowFacts struct {
	id       xproto.Window
	mapState byte
	originX  int16
	originY  int16
	shapeX   int16
	shapeY   int16
	width    uint16
	height   uint16
	frame    FrameExtents
}

func (p windowFacts) viewable() bool {
	return p.mapState == xproto.MapStateViewable
}

func (p windowFacts) window() Window {
	content := model.Rectangle{
		X: float64(int(p.originX) + int(p.shapeX)),
		Y: float64(int(p.originY) + int(p.shapeY)),
		W: float64(p.width),
		H: float64(p.height),
	}
	outer := model.Rectangle{
		X: content.X - float64(p.frame.Left),
		Y: content.Y - float64(p.frame.Top),
		W: content.W + float64(p.frame.Left) + float64(p.frame.Right),
		H: content.H + float64(p.frame.Top) + float64(p.frame.Bottom),
	}
	return Window{
		ID:          uint32(p.id),
		OuterRect:   outer,
		ContentRect: content,
	}
}

// assembleWindows turns queried facts into windows, skipping unmapped ones
func assembleWindows(facts []windowFacts) []Window {
	windows := make([]Window, 0, len(facts))
	for _, p := range facts {
		if !p.viewable() {
			continue
		}
		windows = append(windows, p.window())
	}
	return windows
}

// internExisting looks up an atom without creating it
func internExisting(conn *xgb.Conn, name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, err
	}
	return reply.Atom, nil
}

// GetWindows lists the viewable top-level windows of the pointer's screen in
// bottom-to-top stacking order. Requests for all windows are sent before any
// reply is read; a single failed reply fails the whole call.
func (g *Gateway) GetWindows() ([]Window, error) {
	const op = "get windows"
	log := logger.WithComponent("display")

	conn, err := g.connect(op)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stacking, err := internExisting(conn, atomClientListStacking)
	if err != nil {
		return nil, newError(ProtocolFailure, op, fmt.Errorf("intern %s: %w", atomClientListStacking, err))
	}
	frameExtents, err := internExisting(conn, atomFrameExtents)
	if err != nil {
		return nil, newError(ProtocolFailure, op, fmt.Errorf("intern %s: %w", atomFrameExtents, err))
	}
	if stacking == xproto.AtomNone || frameExtents == xproto.AtomNone {
		return nil, newError(ResourceUnavailable, op, ErrWmDoesNotSupportEwmh)
	}

	if err := shape.Init(conn); err != nil {
		return nil, newError(ResourceUnavailable, op, fmt.Errorf("shape extension: %w", err))
	}

	screen, err := pointerScreen(conn, xproto.Setup(conn), op)
	if err != nil {
		return nil, err
	}

	list, err := xproto.GetProperty(conn, false, screen.Root, stacking, xproto.AtomWindow, 0, maxWindows).Reply()
	if err != nil {
		return nil, newError(ProtocolFailure, op, fmt.Errorf("read %s: %w", atomClientListStacking, err))
	}
	ids := decodeWindowIDs(list.Value, maxWindows)

	log.Debug().Int("count", len(ids)).Msg("Read client stacking list")

	type cookies struct {
		attrs     xproto.GetWindowAttributesCookie
		extents   shape.QueryExtentsCookie
		translate xproto.TranslateCoordinatesCookie
		frame     xproto.GetPropertyCookie
	}

	pending := make([]cookies, len(ids))
	for i, id := range ids {
		pending[i] = cookies{
			attrs:     xproto.GetWindowAttributes(conn, id),
			extents:   shape.QueryExtents(conn, id),
			translate: xproto.TranslateCoordinates(conn, id, screen.Root, 0, 0),
			frame:     xproto.GetProperty(conn, false, id, frameExtents, xproto.AtomCardinal, 0, 4),
		}
	}

	facts := make([]windowFacts, len(ids))
	for i, c := range pending {
		id := ids[i]

		attrs, err := c.attrs.Reply()
		if err != nil {
			return nil, replyError(op, "window attributes", id, err)
		}
		extents, err := c.extents.Reply()
		if err != nil {
			return nil, replyError(op, "shape extents", id, err)
		}
		translated, err := c.translate.Reply()
		if err != nil {
			return nil, replyError(op, "translate coordinates", id, err)
		}
		frame, err := c.frame.Reply()
		if err != nil {
			return nil, replyError(op, "frame extents", id, err)
		}

		facts[i] = windowFacts{
			id:       id,
			mapState: attrs.MapState,
			originX:  translated.DstX,
			originY:  translated.DstY,
			shapeX:   extents.BoundingShapeExtentsX,
			shapeY:   extents.BoundingShapeExtentsY,
			width:    extents.BoundingShapeExtentsWidth,
			height:   extents.BoundingShapeExtentsHeight,
			frame:    decodeFrameExtents(frame.Value),
		}
	}

	windows := assembleWindows(facts)

	log.Debug().
		Int("queried", len(facts)).
		Int("viewable", len(windows)).
		Msg("Enumerated windows")

	return windows, nil
}

func replyError(op, what string, id xproto.Window, err error) error {
	if err == nil {
		err = errors.New("empty reply")
	}
	return newError(ProtocolFailure, op, fmt.Errorf("%s for window 0x%x: %w", what, id, err))
}
