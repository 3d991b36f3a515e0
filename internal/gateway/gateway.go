// Package gateway is the websocket transport: it upgrades connections,
// decodes wire commands into room service calls and fans room events back
// out to the subscribed sockets.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/sirupsen/logrus"

	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
	roomsvc "github.com/dungeonofmasters/dom-server/internal/services/room"
)

const uriPlay = "/play"

// Gateway serves the websocket endpoint
type Gateway struct {
	service  roomsvc.Service
	hub      *Hub
	log      *logrus.Logger
	upgrader *websocket.Upgrader
	router   *way.Router
}

// GatewayConfig holds configuration for the gateway
type GatewayConfig struct {
	Service roomsvc.Service // Required
	Hub     *Hub            // Required; must be the service's event sink
	Logger  *logrus.Logger  // Optional
}

// New creates a gateway and wires its routes
func New(cfg *GatewayConfig) *Gateway {
	if cfg.Service == nil {
		panic("room service is required")
	}
	if cfg.Hub == nil {
		panic("hub is required")
	}

	g := &Gateway{
		service: cfg.Service,
		hub:     cfg.Hub,
		log:     cfg.Logger,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}

	g.router = way.NewRouter()
	g.router.HandleFunc("GET", uriPlay, g.handlePlay)
	g.router.HandleFunc("GET", "/health", g.handleHealth)

	return g
}

// Handler returns the gateway's http handler
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handlePlay upgrades the socket and runs the client's pumps. Identity
// comes from the authenticated connection; here that is the query string,
// with real authentication owned by the account service upstream.
func (g *Gateway) handlePlay(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = uid
	}
	icon, _ := strconv.Atoi(r.URL.Query().Get("icon"))

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithField("error", err.Error()).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		gw:       g,
		conn:     conn,
		uid:      uid,
		username: username,
		icon:     icon,
		send:     make(chan []byte, sendBuffer),
	}

	g.log.WithFields(logrus.Fields{
		"uid":      uid,
		"username": username,
	}).Info("client connected")

	go c.writePump()
	c.readPump()
}

// disconnect detaches a dropped socket from its room so the turn loop
// cannot stall on a vanished player.
func (g *Gateway) disconnect(c *client) {
	// unsubscribe before closing the send channel so in-flight broadcasts
	// cannot hit a closed channel
	if c.roomID == "" {
		c.close()
		return
	}

	g.hub.unsubscribe(c.roomID, c)
	c.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.service.Leave(ctx, c.roomID, c.uid); err != nil && !apperrors.IsNotFound(err) {
		g.log.WithFields(logrus.Fields{
			"room_id": c.roomID,
			"uid":     c.uid,
			"error":   err.Error(),
		}).Warn("failed to detach disconnected player")
	}

	g.log.WithFields(logrus.Fields{
		"uid": c.uid,
	}).Info("client disconnected")
}
