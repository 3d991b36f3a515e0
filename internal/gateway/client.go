package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/dungeonofmasters/dom-server/internal/domain/grid"
	apperrors "github.com/dungeonofmasters/dom-server/internal/errors"
	roomsvc "github.com/dungeonofmasters/dom-server/internal/services/room"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 64
)

// Command is one wire command from a client. Action selects the operation;
// the remaining fields are its arguments.
type Command struct {
	Action      string `json:"action"`
	RoomID      string `json:"room_id,omitempty"`
	CharacterID int    `json:"character_id,omitempty"`
	ItemIndex   int    `json:"item_index,omitempty"`
	EnemyID     int    `json:"enemy_id,omitempty"`
	Row         int    `json:"y"`
	Col         int    `json:"x"`
}

// client is one connected socket
type client struct {
	gw   *Gateway
	conn *websocket.Conn

	uid      string
	username string
	icon     int

	// roomID is the room this socket is subscribed to; empty until the
	// client creates or joins one
	roomID string

	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

func (c *client) sendMessage(event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) sendError(err error) {
	c.sendMessage("error", map[string]any{
		"code":    string(apperrors.GetCode(err)),
		"message": err.Error(),
	})
}

// readPump consumes commands until the socket dies, then detaches the
// player from their room.
func (c *client) readPump() {
	defer func() {
		c.gw.disconnect(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.log.WithFields(logrus.Fields{
					"uid":   c.uid,
					"error": err.Error(),
				}).Warn("socket closed unexpectedly")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.sendError(apperrors.InvalidArgument("malformed command"))
			continue
		}

		c.gw.dispatch(c, &cmd)
	}
}

// writePump flushes outbound messages and keeps the connection alive
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one command to the room service. Player-input failures
// go back to the sender only; room events reach everyone through the hub.
func (g *Gateway) dispatch(c *client, cmd *Command) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch cmd.Action {
	case "create_room":
		room, cerr := g.service.CreateRoom(ctx, &roomsvc.CreateRoomInput{
			UID:      c.uid,
			Username: c.username,
			Icon:     c.icon,
		})
		err = cerr
		if err == nil {
			c.roomID = room.ID
			g.hub.subscribe(room.ID, c)
			c.sendMessage("room_created", map[string]any{"room_id": room.ID})
		}
	case "join_room":
		room, jerr := g.service.Join(ctx, cmd.RoomID, &roomsvc.JoinInput{
			UID:      c.uid,
			Username: c.username,
			Icon:     c.icon,
		})
		err = jerr
		if err == nil {
			c.roomID = cmd.RoomID
			g.hub.subscribe(cmd.RoomID, c)
			c.sendMessage("room_state", room)
		}
	case "leave_room":
		err = g.service.Leave(ctx, c.roomID, c.uid)
		if err == nil {
			g.hub.unsubscribe(c.roomID, c)
			c.roomID = ""
		}
	case "select_character":
		err = g.service.SelectCharacter(ctx, c.roomID, c.uid, cmd.CharacterID)
	case "ready":
		err = g.service.Ready(ctx, c.roomID, c.uid)
	case "no_ready":
		err = g.service.NoReady(ctx, c.roomID, c.uid)
	case "start_game":
		_, err = g.service.StartGame(ctx, c.roomID, c.uid)
	case "roll_dice":
		_, err = g.service.RollDice(ctx, c.roomID, c.uid)
	case "move":
		_, err = g.service.Move(ctx, c.roomID, c.uid, grid.Cell{Row: cmd.Row, Col: cmd.Col})
	case "choice_enemy":
		err = g.service.ChoiceEnemy(ctx, c.roomID, c.uid, cmd.EnemyID)
	case "roll_fight_dice":
		_, err = g.service.RollFightDice(ctx, c.roomID, c.uid)
	case "pass_move":
		err = g.service.PassMove(ctx, c.roomID, c.uid)
	case "buy_item":
		err = g.service.BuyItem(ctx, c.roomID, c.uid, cmd.ItemIndex)
	case "remove_item":
		err = g.service.RemoveItem(ctx, c.roomID, c.uid, cmd.ItemIndex)
	default:
		err = apperrors.InvalidArgumentf("unknown action %q", cmd.Action)
	}

	if err != nil {
		c.sendError(err)
	}
}
