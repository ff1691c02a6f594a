package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
	"github.com/StiensB/RestaurantFinder/internal/pkg/metrics"
)

// locateTimeout bounds how long the engine waits for the browser to answer
// a geolocation request.
const locateTimeout = 30 * time.Second

// wsInbound is a message from the widget. The browser owns rendering and
// the actual map library; it reports map and control events here.
//
//	{"type":"position","location":{"lat":43.26,"lon":-2.93}}
//	{"type":"position_error","code":"denied"}
//	{"type":"idle","center":{"lat":43.26,"lon":-2.93}}
//	{"type":"search_term","text":"pizza"}
//	{"type":"cuisine","text":"sushi"}
//	{"type":"min_rating","value":4}
//	{"type":"radius","value":8045}
//	{"type":"refresh"}
//	{"type":"place_selected","name":"Old Town","location":{...}}
//	{"type":"marker_click","id":"m3"}
type wsInbound struct {
	Type     string           `json:"type"`
	Center   *domain.GeoPoint `json:"center,omitempty"`
	Location *domain.GeoPoint `json:"location,omitempty"`
	Name     string           `json:"name,omitempty"`
	ID       string           `json:"id,omitempty"`
	Code     string           `json:"code,omitempty"`
	Text     string           `json:"text,omitempty"`
	Value    float64          `json:"value,omitempty"`
}

type positionReply struct {
	loc domain.GeoPoint
	err error
}

// wsBridge turns the core's capability ports into JSON commands on one
// WebSocket connection. It implements ports.GeoLocator and ports.MapHandle.
type wsBridge struct {
	conn *websocket.Conn

	mu         sync.Mutex
	closed     bool
	nextMarker uint64

	position chan positionReply
}

var (
	_ ports.GeoLocator = (*wsBridge)(nil)
	_ ports.MapHandle  = (*wsBridge)(nil)
)

func newBridge(conn *websocket.Conn) *wsBridge {
	return &wsBridge{conn: conn, position: make(chan positionReply, 1)}
}

// writeJSON is the single writer to the connection.
func (b *wsBridge) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *wsBridge) markClosed() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Locate asks the browser for the user's position and waits for the single
// position or position_error reply.
func (b *wsBridge) Locate(ctx context.Context) (domain.GeoPoint, error) {
	if err := b.writeJSON(struct {
		Type string `json:"type"`
	}{"locate"}); err != nil {
		return domain.GeoPoint{}, err
	}

	select {
	case reply := <-b.position:
		return reply.loc, reply.err
	case <-ctx.Done():
		return domain.GeoPoint{}, ctx.Err()
	case <-time.After(locateTimeout):
		return domain.GeoPoint{}, fmt.Errorf("geolocation timed out")
	}
}

func (b *wsBridge) CreateMarker(r domain.Restaurant, popup ports.PopupContent) (ports.MarkerID, error) {
	b.mu.Lock()
	b.nextMarker++
	id := ports.MarkerID(fmt.Sprintf("m%d", b.nextMarker))
	b.mu.Unlock()

	err := b.writeJSON(struct {
		Type       string             `json:"type"`
		ID         string             `json:"id"`
		Restaurant domain.Restaurant  `json:"restaurant"`
		Popup      ports.PopupContent `json:"popup"`
	}{"create_marker", string(id), r, popup})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (b *wsBridge) OpenPopup(id ports.MarkerID) error {
	return b.writeJSON(struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}{"open_popup", string(id)})
}

func (b *wsBridge) RemoveMarker(id ports.MarkerID) error {
	return b.writeJSON(struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}{"remove_marker", string(id)})
}

func (b *wsBridge) PanTo(center domain.GeoPoint) error {
	return b.writeJSON(struct {
		Type   string          `json:"type"`
		Center domain.GeoPoint `json:"center"`
	}{"pan", center})
}

func (b *wsBridge) SetZoom(level int) error {
	return b.writeJSON(struct {
		Type  string `json:"type"`
		Level int    `json:"level"`
	}{"zoom", level})
}

func (b *wsBridge) FitBounds(bounds domain.Bounds) error {
	return b.writeJSON(struct {
		Type   string        `json:"type"`
		Bounds domain.Bounds `json:"bounds"`
	}{"fit_bounds", bounds})
}

// pushState sends a session snapshot to the widget.
func (b *wsBridge) pushState(snap usecases.Snapshot) {
	_ = b.writeJSON(struct {
		Type string `json:"type"`
		usecases.Snapshot
	}{Type: "state", Snapshot: snap})
}

// WidgetHandler runs one search-and-sync session per WebSocket connection.
// The connection's read loop is the session's event source; marker and map
// commands flow back over the same connection.
func WidgetHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID := uuid.NewString()
		log := slog.Default().With("session", sessionID)
		log.Info("widget connected", "remote", c.RemoteAddr().String())

		metrics.ActiveSessions.Inc()
		defer metrics.ActiveSessions.Dec()

		bridge := newBridge(c)
		session := usecases.NewSession(sessionID, deps.Search, bridge, bridge,
			usecases.SessionConfig{
				Debounce:            deps.Debounce,
				Cooldown:            deps.Cooldown,
				DefaultRadiusMeters: deps.DefaultRadiusMeters,
				DefaultZoom:         deps.DefaultZoom,
			}, bridge.pushState)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Start blocks on the geolocation round-trip, which the read loop
		// below must service.
		go func() {
			_ = session.Start(ctx)
		}()

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					bridge.mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					bridge.mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsInbound
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = bridge.writeJSON(map[string]string{"type": "error", "message": "invalid JSON"})
				continue
			}

			switch m.Type {
			case "position":
				if m.Location == nil {
					_ = bridge.writeJSON(map[string]string{"type": "error", "message": "position requires a location"})
					continue
				}
				select {
				case bridge.position <- positionReply{loc: *m.Location}:
				default: // one-shot; late duplicates are dropped
				}

			case "position_error":
				reply := positionReply{err: ports.ErrPermissionDenied}
				if m.Code == "unsupported" {
					reply.err = ports.ErrUnsupported
				}
				select {
				case bridge.position <- reply:
				default:
				}

			case "idle":
				if m.Center != nil {
					session.ViewportIdle(*m.Center)
				}

			case "search_term":
				session.SetSearchTerm(m.Text)

			case "cuisine":
				session.SetCuisine(m.Text)

			case "min_rating":
				session.SetMinRating(m.Value)

			case "radius":
				session.SetRadius(int(m.Value))

			case "refresh":
				session.Refresh()

			case "place_selected":
				if m.Location != nil {
					session.PlaceSelected(m.Name, *m.Location)
				}

			case "marker_click":
				session.MarkerClicked(ports.MarkerID(m.ID))

			default:
				_ = bridge.writeJSON(map[string]string{"type": "error", "message": "unknown message type: " + m.Type})
			}
		}

		// Cleanup
		close(done)
		bridge.markClosed()
		session.Close()
		log.Info("widget disconnected")
	}
}
