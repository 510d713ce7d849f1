package postcapture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ShotMark/internal/logger"
	"github.com/godbus/dbus/v5"
)

// Notification D-Bus constants
const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"

	appName         = "ShotMark"
	notifyTimeoutMs = int32(5000)
)

// Notifier shows a desktop notification and returns its id
type Notifier interface {
	Notify(summary, body string) (uint32, error)
}

// sessionBusNotifier talks to the notification daemon on the session bus
type sessionBusNotifier struct{}

func (sessionBusNotifier) Notify(summary, body string) (uint32, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return 0, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	var id uint32
	err = conn.Object(notifyService, notifyPath).Call(
		notifyMethod, 0,
		appName,
		uint32(0),
		"camera-photo",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{
			"category": dbus.MakeVariant("transfer.complete"),
		},
		notifyTimeoutMs,
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify call failed: %w", err)
	}
	return id, nil
}

// Notify tells the user a screenshot was taken
type Notify struct {
	Notifier Notifier
}

func NewNotify() *Notify {
	return &Notify{Notifier: sessionBusNotifier{}}
}

func (*Notify) ID() string          { return "notify" }
func (*Notify) Name() string        { return "Notify" }
func (*Notify) Description() string { return "Shows a desktop notification once the screenshot is done" }

func (a *Notify) Handle(env Env, img *image.RGBA) error {
	body := fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	if env.History != nil {
		if entry, ok := env.History.Latest(); ok && entry.Path != "" {
			body = fmt.Sprintf("%s, saved to %s", body, entry.Path)
		}
	}

	id, err := a.Notifier.Notify("Screenshot taken", body)
	if err != nil {
		return err
	}

	logger.WithComponent("postcapture").Debug().Uint32("notification", id).Msg("Notification sent")
	return nil
}
