package actions

import (
	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine/handlers"
	"whitehill-server/pkg/api"
)

// HandleSteer меняет направление аватара. Само перемещение случится
// на ближайшем тике: скорость хранится, вектор скорости выводится.
func HandleSteer(ctx handlers.Context, p api.SteerPayload) (handlers.Result, error) {
	if err := ctx.Actor.SetDirection(domain.NormalizeDirection(p.Dx, p.Dy)); err != nil {
		return handlers.EmptyResult(), err
	}
	if p.Speed != nil {
		if err := ctx.Actor.SetSpeed(*p.Speed); err != nil {
			return handlers.EmptyResult(), err
		}
	}
	return handlers.EmptyResult(), nil
}
