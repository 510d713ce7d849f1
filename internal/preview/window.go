package preview

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// DefaultLimit bounds the preview window size
var DefaultLimit = image.Pt(1280, 720)

// Window is a plain X11 window that shows the latest editor frame. It is a
// redraw sink only; input still comes from the script.
type Window struct {
	display string
	limit   image.Point

	conn    *xgb.Conn
	screen  *xproto.ScreenInfo
	window  xproto.Window
	gc      xproto.Gcontext
	layout  pixelLayout
	maxReq  int
	size    image.Point
	running bool
	frame   *image.RGBA
	mu      sync.Mutex
	done    chan struct{}
}

// NewWindow creates a preview for the given display. An empty display uses
// $DISPLAY; a zero limit uses DefaultLimit.
func NewWindow(display string, limit image.Point) *Window {
	if limit.X <= 0 || limit.Y <= 0 {
		limit = DefaultLimit
	}
	return &Window{display: display, limit: limit}
}

// Start opens the window sized for an image of the given dimensions
func (w *Window) Start(content image.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("preview already running")
	}

	size := FitSize(content, w.limit)
	if size.X == 0 || size.Y == 0 {
		return fmt.Errorf("invalid preview size %v", content)
	}

	conn, err := xgb.NewConnDisplay(w.display)
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	layout, err := screenLayout(setup, screen)
	if err != nil {
		conn.Close()
		return err
	}

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create window ID: %w", err)
	}

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		screen.BlackPixel,
		xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		screen.Root,
		0, 0,
		uint16(size.X), uint16(size.Y),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create window: %w", err)
	}

	w.conn = conn
	w.screen = screen
	w.window = wid
	w.layout = layout
	w.maxReq = int(setup.MaximumRequestLength) * 4
	w.size = size

	if err := w.setTitle("ShotMark"); err != nil {
		logger.WithComponent("preview").Warn().Err(err).Msg("Failed to set window title")
	}
	if err := w.setClass("shotmark", "ShotMark"); err != nil {
		logger.WithComponent("preview").Warn().Err(err).Msg("Failed to set window class")
	}

	if err := xproto.MapWindowChecked(conn, wid).Check(); err != nil {
		w.teardown()
		return fmt.Errorf("failed to map window: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		w.teardown()
		return fmt.Errorf("failed to create graphics context ID: %w", err)
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid), 0, nil).Check(); err != nil {
		w.teardown()
		return fmt.Errorf("failed to create GC: %w", err)
	}
	w.gc = gc

	w.done = make(chan struct{})
	w.running = true
	go w.eventLoop(conn, w.done)

	logger.WithComponent("preview").Info().
		Int("width", size.X).
		Int("height", size.Y).
		Uint32("window_id", uint32(wid)).
		Msg("Preview window created")
	return nil
}

// Show letterboxes img into the window. Calls before Start are dropped.
func (w *Window) Show(img *image.RGBA) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.frame = compose(img, w.size)
	if err := w.paint(); err != nil {
		logger.WithComponent("preview").Error().Err(err).Msg("Failed to paint preview")
	}
}

// Stop closes the window and its connection
func (w *Window) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.done)
	w.teardown()
	logger.WithComponent("preview").Info().Msg("Preview window closed")
}

// IsRunning reports whether the window is open
func (w *Window) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Window) teardown() {
	if w.gc != 0 {
		xproto.FreeGC(w.conn, w.gc)
		w.gc = 0
	}
	if w.window != 0 {
		xproto.DestroyWindow(w.conn, w.window)
		w.window = 0
	}
	w.conn.Sync()
	w.conn.Close()
}

// eventLoop repaints the last frame on expose until the connection closes
func (w *Window) eventLoop(conn *xgb.Conn, done <-chan struct{}) {
	for {
		ev, err := conn.WaitForEvent()
		if ev == nil && err == nil {
			return
		}
		select {
		case <-done:
			return
		default:
		}
		if err != nil {
			logger.WithComponent("preview").Debug().Err(err).Msg("X error")
			continue
		}
		if e, ok := ev.(xproto.ExposeEvent); ok && e.Count == 0 {
			w.mu.Lock()
			if w.running && w.frame != nil {
				if err := w.paint(); err != nil {
					logger.WithComponent("preview").Error().Err(err).Msg("Failed to repaint preview")
				}
			}
			w.mu.Unlock()
		}
	}
}

// paint sends the current frame in bands that fit the request limit
func (w *Window) paint() error {
	data, err := encodeZPixmap(w.frame, w.layout)
	if err != nil {
		return err
	}

	stride := w.layout.stride(w.size.X)
	for _, band := range bands(w.size.Y, stride, w.maxReq) {
		err := xproto.PutImageChecked(
			w.conn,
			xproto.ImageFormatZPixmap,
			xproto.Drawable(w.window),
			w.gc,
			uint16(w.size.X),
			uint16(band[1]-band[0]),
			0, int16(band[0]),
			0,
			w.screen.RootDepth,
			data[band[0]*stride:band[1]*stride],
		).Check()
		if err != nil {
			return fmt.Errorf("failed to put image: %w", err)
		}
	}
	return nil
}

func screenLayout(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (pixelLayout, error) {
	layout := pixelLayout{byteOrder: setup.ImageByteOrder}

	for _, format := range setup.PixmapFormats {
		if format.Depth == screen.RootDepth {
			layout.bitsPerPixel = int(format.BitsPerPixel)
			layout.scanlinePad = int(format.ScanlinePad)
			break
		}
	}
	if layout.bitsPerPixel == 0 {
		return layout, fmt.Errorf("no pixmap format for depth %d", screen.RootDepth)
	}

	for _, depth := range screen.AllowedDepths {
		for _, visual := range depth.Visuals {
			if visual.VisualId == screen.RootVisual {
				layout.red = visual.RedMask
				layout.green = visual.GreenMask
				layout.blue = visual.BlueMask
				return layout, nil
			}
		}
	}
	return layout, fmt.Errorf("root visual 0x%x not found", screen.RootVisual)
}

func (w *Window) setTitle(title string) error {
	titleAtom, err := w.atom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := w.atom("UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.window,
		titleAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

func (w *Window) setClass(instance, class string) error {
	classAtom, err := w.atom("WM_CLASS")
	if err != nil {
		return err
	}

	// instance\0class\0
	value := instance + "\x00" + class + "\x00"
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.window,
		classAtom,
		xproto.AtomString,
		8,
		uint32(len(value)),
		[]byte(value),
	).Check()
}

func (w *Window) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
