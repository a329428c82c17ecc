package agent

import (
	"context"
	"encoding/json"
	"math/rand"

	"github.com/sirupsen/logrus"

	"whitehill-server/internal/engine"
	"whitehill-server/pkg/api"
	"whitehill-server/pkg/logger"
)

const (
	// Столько кадров подряд без движения - значит уперлись, меняем курс
	stuckFrames = 3
	// Шанс сменить курс просто так на каждом кадре
	wanderChance = 0.02
)

// Bot представляет собой "Игрока-компьютера" (Headless Agent).
// Он входит в мир так же, как обычный клиент: получает аватар и личный
// канал кадров, а команды шлет через ProcessCommand. Решения принимает
// только по тому, что видит в кадре.
//
// Жизненный цикл:
//  1. Run -> Join, получение личного канала (Inbox), первый случайный курс.
//  2. На каждый VIEW кадр - react: нашел себя, сравнил с прошлой позицией.
//  3. Застрял или решил побродить - новый STEER.
type Bot struct {
	SessionID string
	Service   *engine.GameService

	rng   *rand.Rand
	last  api.Point
	seen  bool
	stuck int
	log   *logrus.Entry
}

func NewBot(sessionID string, service *engine.GameService, seed int64) *Bot {
	return &Bot{
		SessionID: sessionID,
		Service:   service,
		rng:       rand.New(rand.NewSource(seed)),
		log:       logger.Log.WithField("bot", sessionID),
	}
}

// Run запускает цикл жизни бота до отмены ctx. Должен быть запущен в горутине.
func (b *Bot) Run(ctx context.Context) error {
	avatarID, inbox, err := b.Service.Join(b.SessionID)
	if err != nil {
		return err
	}
	defer b.Service.Leave(b.SessionID, inbox)

	b.log.WithField("avatar", avatarID.String()).Info("Bot joined")
	b.steerRandom()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbox:
			if !ok {
				b.log.Info("Bot inbox closed")
				return nil
			}
			b.react(msg)
		}
	}
}

// react - мозг бота. Позицию в мире восстанавливает из кадра:
// origin вьюпорта плюс экранная позиция своего спрайта.
func (b *Bot) react(msg api.ServerMessage) {
	if msg.Type != api.MsgTypeView {
		return
	}

	var me *api.SpriteView
	for i := range msg.Sprites {
		if msg.Sprites[i].ID == msg.MyEntityID {
			me = &msg.Sprites[i]
			break
		}
	}
	if me == nil {
		return
	}

	pos := api.Point{X: msg.Origin.X + me.Pos.X, Y: msg.Origin.Y + me.Pos.Y}
	if b.seen && pos == b.last {
		b.stuck++
	} else {
		b.stuck = 0
	}
	b.last, b.seen = pos, true

	if b.stuck >= stuckFrames || b.rng.Float64() < wanderChance {
		b.stuck = 0
		b.steerRandom()
	}
}

func (b *Bot) steerRandom() {
	var dx, dy int
	for dx == 0 && dy == 0 {
		dx, dy = b.rng.Intn(3)-1, b.rng.Intn(3)-1
	}
	payload, _ := json.Marshal(api.SteerPayload{Dx: dx, Dy: dy})
	if err := b.Service.ProcessCommand(b.SessionID, api.ClientCommand{Action: api.ActionSteer, Payload: payload}); err != nil {
		b.log.WithError(err).Debug("Steer dropped")
	}
}
