package devblog

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/cherbst/devblog/state"
)

const (
	liveDrawerPath = "/live/drawer"
	// Drawer actions are single words.
	liveReadLimit = 64
)

// LiveDrawerPath is the websocket endpoint the drawer script connects to
// in the server profile.
func LiveDrawerPath() string { return liveDrawerPath }

// handleLiveDrawer gives each connection its own DrawerStore, so drawer
// state starts closed on every page load. Text frames carry actions
// ("open", "close", "toggle"); the store subscription pushes the resulting
// state back as {"visible": bool}.
func (a *App) handleLiveDrawer(c echo.Context) error {
	opts := &websocket.AcceptOptions{}
	if u, err := url.Parse(a.Site.URL); err == nil && u.Host != "" {
		opts.OriginPatterns = []string{u.Host}
	}
	conn, err := websocket.Accept(c.Response(), c.Request(), opts)
	if err != nil {
		// Accept has already written the error response.
		a.Logger.Debug("websocket upgrade failed", "error", err)
		return nil
	}
	defer conn.CloseNow()
	conn.SetReadLimit(liveReadLimit)

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	drawer := state.NewDrawerStore()
	// Notifications are serialized by the store, so a one-slot channel
	// that keeps only the newest state is enough.
	updates := make(chan state.Drawer, 1)
	unsubscribe := drawer.Subscribe(func(d state.Drawer) {
		select {
		case <-updates:
		default:
		}
		updates <- d
	})
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			action := strings.ToLower(strings.TrimSpace(string(msg)))
			if !drawer.Apply(action) {
				a.Logger.Debug("unknown drawer action", "action", action)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		case d := <-updates:
			if err := wsjson.Write(ctx, conn, d); err != nil {
				if !errors.Is(err, context.Canceled) {
					a.Logger.Debug("drawer push failed", "error", err)
				}
				return nil
			}
		}
	}
}
