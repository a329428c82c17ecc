package engine

import (
	"whitehill-server/internal/domain"
	"whitehill-server/internal/systems"
	"whitehill-server/pkg/api"
)

// publishAll рассылает кадры всем подключенным сессиям. Вызывается под s.mu.
func (s *GameService) publishAll() {
	for _, sess := range s.sessions {
		if s.Hub.HasSubscriber(sess.ID) {
			s.Hub.SendTo(sess.ID, s.buildSnapshot(sess))
		}
	}
}

// buildSnapshot создает персональный "снимок" вьюпорта для сессии.
func (s *GameService) buildSnapshot(sess *Session) api.ServerMessage {
	origin := s.cameraOrigin(sess)
	sprites := systems.QueryViewport(s.World, origin)

	views := make([]api.SpriteView, len(sprites))
	for i, sp := range sprites {
		views[i] = api.SpriteView{
			ID:  uint64(sp.ID),
			Key: sp.DisplayKey,
			Pos: api.Point{X: sp.Pos.X, Y: sp.Pos.Y},
		}
	}

	world := s.World.PixelSize()
	return api.ServerMessage{
		Type:       api.MsgTypeView,
		Tick:       s.World.Clock().Tick,
		MyEntityID: uint64(sess.AvatarID),
		Origin:     api.Point{X: origin.X, Y: origin.Y},
		Viewport: &api.ViewportMeta{
			Width:       domain.ViewportWidth,
			Height:      domain.ViewportHeight,
			WorldWidth:  world.X,
			WorldHeight: world.Y,
		},
		Sprites: views,
	}
}

// cameraOrigin - левый верхний угол вьюпорта. Следящая камера держит
// аватар в центре экрана и не выезжает за край мира.
func (s *GameService) cameraOrigin(sess *Session) domain.Vec {
	if sess.Camera.Pinned {
		return sess.Camera.Origin
	}
	avatar := s.World.GetEntity(sess.AvatarID)
	if avatar == nil {
		return domain.Vec{}
	}
	screen := domain.V(domain.ViewportWidth, domain.ViewportHeight)
	center := avatar.Pos().Add(domain.V(avatar.Size().X/2, avatar.Size().Y/2))
	origin := center.Sub(domain.V(screen.X/2, screen.Y/2))
	return clampCamera(origin, screen, s.World.PixelSize())
}

func clampCamera(origin, screen, world domain.Vec) domain.Vec {
	clamp := func(v, span, limit int) int {
		if span >= limit {
			return 0
		}
		return min(max(v, 0), limit-span)
	}
	return domain.V(clamp(origin.X, screen.X, world.X), clamp(origin.Y, screen.Y, world.Y))
}
