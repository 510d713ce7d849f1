package display

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// Label is the human-readable identity of a window
type Label struct {
	Title string `json:"title,omitempty"`
	Class string `json:"class,omitempty"`
}

// GetWindowLabels looks up the title and class of each window. Windows that
// vanished or carry no names get an empty label.
func (g *Gateway) GetWindowLabels(ids []uint32) (map[uint32]Label, error) {
	xu, err := xgbutil.NewConnDisplay(g.display)
	if err != nil {
		return nil, newError(ConnectionFailure, "get window labels", err)
	}
	defer xu.Conn().Close()

	labels := make(map[uint32]Label, len(ids))
	for _, id := range ids {
		labels[id] = windowLabel(xu, xproto.Window(id))
	}
	return labels, nil
}

func windowLabel(xu *xgbutil.XUtil, win xproto.Window) Label {
	var label Label

	if title, err := ewmh.WmNameGet(xu, win); err == nil && title != "" {
		label.Title = title
	} else if title, err := icccm.WmNameGet(xu, win); err == nil {
		label.Title = title
	}

	// prefer the class name, fall back to the instance
	if class, err := icccm.WmClassGet(xu, win); err == nil {
		label.Class = class.Class
		if label.Class == "" {
			label.Class = class.Instance
		}
	}

	return label
}
