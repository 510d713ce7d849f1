package display

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// Gateway talks to the X server. Every call opens its own connection and
// closes it before returning; nothing is pooled or cached between calls.
type Gateway struct {
	display string
}

// NewGateway creates a gateway for the given display name. An empty name
// uses $DISPLAY.
func NewGateway(display string) *Gateway {
	return &Gateway{display: display}
}

// Display returns the configured display name
func (g *Gateway) Display() string {
	return g.display
}

// connect opens a fresh protocol session
func (g *Gateway) connect(op string) (*xgb.Conn, error) {
	conn, err := xgb.NewConnDisplay(g.display)
	if err != nil {
		return nil, newError(ConnectionFailure, op, err)
	}
	return conn, nil
}

// pointerScreen returns the root screen that currently holds the pointer.
// Multi-monitor setups without Xinerama show up as several roots sharing one
// pointer; QueryPointer goes out to every root before any reply is read.
func pointerScreen(conn *xgb.Conn, setup *xproto.SetupInfo, op string) (*xproto.ScreenInfo, error) {
	cookies := make([]xproto.QueryPointerCookie, len(setup.Roots))
	for i := range setup.Roots {
		cookies[i] = xproto.QueryPointer(conn, setup.Roots[i].Root)
	}

	sameScreen := make([]bool, len(cookies))
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return nil, newError(ProtocolFailure, op, fmt.Errorf("query pointer on root 0x%x: %w", setup.Roots[i].Root, err))
		}
		sameScreen[i] = reply.SameScreen
	}

	idx := selectPointerScreen(sameScreen)
	if idx < 0 {
		return nil, newError(ResourceUnavailable, op, ErrNoPointerScreen)
	}

	logger.WithComponent("display").Debug().
		Int("screen", idx).
		Int("screens", len(setup.Roots)).
		Msg("Selected pointer screen")

	return &setup.Roots[idx], nil
}

// selectPointerScreen returns the first index whose reply reported the
// pointer on that screen, or -1
func selectPointerScreen(sameScreen []bool) int {
	for i, same := range sameScreen {
		if same {
			return i
		}
	}
	return -1
}

// FindVisual searches every screen, depth and visual for the given id
func FindVisual(setup *xproto.SetupInfo, id xproto.Visualid) (*xproto.VisualInfo, bool) {
	for i := range setup.Roots {
		for j := range setup.Roots[i].AllowedDepths {
			depth := &setup.Roots[i].AllowedDepths[j]
			for k := range depth.Visuals {
				if depth.Visuals[k].VisualId == id {
					return &depth.Visuals[k], true
				}
			}
		}
	}
	return nil, false
}

// GetScreenResolution returns the width and height of the pointer's screen
func (g *Gateway) GetScreenResolution() (int, int, error) {
	const op = "get screen resolution"

	conn, err := g.connect(op)
	if err != nil {
		return 0, 0, err
	}
	defer conn.Close()

	screen, err := pointerScreen(conn, xproto.Setup(conn), op)
	if err != nil {
		return 0, 0, err
	}

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(screen.Root)).Reply()
	if err != nil {
		return 0, 0, newError(ProtocolFailure, op, fmt.Errorf("get geometry: %w", err))
	}

	return int(geom.Width), int(geom.Height), nil
}
