package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine"
	"whitehill-server/pkg/api"
	"whitehill-server/pkg/logger"
	"whitehill-server/pkg/utils"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и GameService.
// Команды клиента всегда JSON, кадры сервера - в формате Codec.
type Client struct {
	Game      *engine.GameService
	Conn      *websocket.Conn
	Codec     api.Codec
	SessionID string
	AvatarID  domain.EntityID

	log *logrus.Entry
}

func NewClient(game *engine.GameService, conn *websocket.Conn, codec api.Codec) *Client {
	return &Client{
		Game:  game,
		Conn:  conn,
		Codec: codec,
		log:   logger.Log.WithField("remote", conn.RemoteAddr().String()),
	}
}

// run: рукопожатие, подписка, затем цикл чтения до разрыва
func (c *Client) run() {
	defer func() {
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// 1. HANDSHAKE (LOGIN)
	var loginCmd api.ClientCommand
	if err := c.Conn.ReadJSON(&loginCmd); err != nil || loginCmd.Action != api.ActionLogin {
		c.log.Warn("Handshake failed")
		return
	}

	c.SessionID = loginCmd.Token
	if c.SessionID == "" {
		c.SessionID = utils.GenerateSessionToken()
	}
	c.log = c.log.WithField("session", c.SessionID)

	// 2. АВАТАР И ПОДПИСКА НА КАДРЫ
	avatarID, updates, err := c.Game.Join(c.SessionID)
	if err != nil {
		c.log.WithError(err).Error("Join failed")
		return
	}
	c.AvatarID = avatarID
	defer c.Game.Leave(c.SessionID, updates)

	c.log.WithField("avatar", avatarID.String()).Info("Client logged in")

	go c.writePump(updates)

	// Триггер первой отрисовки
	if err := c.Game.ProcessCommand(c.SessionID, api.ClientCommand{Action: api.ActionInit}); err != nil {
		c.log.WithError(err).Warn("INIT dropped")
	}

	// 3. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("WS read error")
			}
			break
		}
		if err := c.Game.ProcessCommand(c.SessionID, cmd); err != nil {
			c.log.WithError(err).WithField("action", cmd.Action).Debug("Command dropped")
		}
	}
	c.log.Info("Client disconnected")
}

// writePump отправляет кадры клиенту + Ping.
// Закрытие updates (выход или перехват сессии) закрывает соединение.
func (c *Client) writePump(updates <-chan api.ServerMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.Codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-updates:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			data, err := c.Codec.Marshal(message)
			if err != nil {
				c.log.WithError(err).Error("encode frame failed")
				continue
			}
			if err := c.Conn.WriteMessage(frameType, data); err != nil {
				c.log.WithError(err).Debug("write frame failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
