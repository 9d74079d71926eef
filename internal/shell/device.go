package shell

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

const (
	deviceCookieName = "stationcargo_device"
	deviceIDKey      = "device_id"
	deviceContextKey = "device_id"
)

// Devices issues and reads the signed cookie that identifies a browser device.
type Devices struct {
	store sessions.Store
}

// NewDevices creates a device cookie manager signing with secret.
func NewDevices(secret string, secure bool) *Devices {
	store := sessions.NewCookieStore([]byte(secret))

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 365,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Devices{
		store: store,
	}
}

// DeviceID returns the device ID of the request, issuing a new one (and its
// cookie) when the request carries none or carries a tampered cookie.
func (d *Devices) DeviceID(c echo.Context) (string, error) {
	if id, ok := c.Get(deviceContextKey).(string); ok && id != "" {
		return id, nil
	}

	// A cookie that fails verification yields a fresh session plus an
	// error; the device simply gets a new identity.
	session, _ := d.store.Get(c.Request(), deviceCookieName)

	id, ok := session.Values[deviceIDKey].(string)
	if !ok || id == "" {
		id = ulid.Make().String()
		session.Values[deviceIDKey] = id
		if err := session.Save(c.Request(), c.Response()); err != nil {
			return "", fmt.Errorf("failed to save device cookie: %w", err)
		}
	}

	c.Set(deviceContextKey, id)
	return id, nil
}

// Lookup returns the device ID of the request without issuing one.
func (d *Devices) Lookup(r *http.Request) (string, bool) {
	session, err := d.store.Get(r, deviceCookieName)
	if err != nil {
		return "", false
	}
	id, ok := session.Values[deviceIDKey].(string)
	return id, ok && id != ""
}
