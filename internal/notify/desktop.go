package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/godbus/dbus/v5"

	"gitnotifier/pkg/errors"
)

const (
	notificationsDest   = "org.freedesktop.Notifications"
	notificationsPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify = "org.freedesktop.Notifications.Notify"

	desktopAppName = "Git notifier"
	desktopTimeout = int32(5000)
)

// busObject is the part of dbus.BusObject the desktop transport calls
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Desktop shows notifications through the freedesktop notification service
// on the session bus
type Desktop struct {
	conn *dbus.Conn
	obj  busObject
}

// NewDesktop connects to the session bus
func NewDesktop() (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTransportConfig, "Failed to connect to the D-Bus session bus").
			WithContext("transport", TransportDesktop).
			WithSuggestions(
				"Run inside a desktop session, or set notifier.transports to [console]",
				"Check DBUS_SESSION_BUS_ADDRESS",
			)
	}

	return &Desktop{
		conn: conn,
		obj:  conn.Object(notificationsDest, notificationsPath),
	}, nil
}

// newDesktopWithObject builds a transport around an existing bus object
func newDesktopWithObject(obj busObject) *Desktop {
	return &Desktop{obj: obj}
}

// Name returns the transport name
func (d *Desktop) Name() string {
	return TransportDesktop
}

// Send shows one notification that expires after five seconds
func (d *Desktop) Send(ctx context.Context, n Notification) error {
	call := d.obj.CallWithContext(ctx, notificationsNotify, 0,
		desktopAppName,
		uint32(0),
		"",
		n.Title,
		desktopBody(n),
		[]string{},
		map[string]dbus.Variant{},
		desktopTimeout,
	)
	if call.Err != nil {
		return errors.TransportError(TransportDesktop, call.Err)
	}
	return nil
}

// Close closes the bus connection
func (d *Desktop) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// desktopBody renders the subject followed by a link to the commit
func desktopBody(n Notification) string {
	return fmt.Sprintf(`%s <a href="%s">commit link</a>`,
		html.EscapeString(n.Message), html.EscapeString(n.URL))
}
