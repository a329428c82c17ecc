package actions

import (
	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine/handlers"
	"whitehill-server/pkg/api"
)

// HandleLook закрепляет камеру: (x, y) - левый верхний угол вьюпорта
func HandleLook(ctx handlers.Context, p api.PositionPayload) (handlers.Result, error) {
	ctx.Camera.Pinned = true
	ctx.Camera.Origin = domain.V(p.X, p.Y)
	return handlers.Result{Publish: true}, nil
}

// HandleFollow возвращает камеру к аватару
func HandleFollow(ctx handlers.Context) (handlers.Result, error) {
	ctx.Camera.Pinned = false
	return handlers.Result{Publish: true}, nil
}

// HandleInit просит полный кадр прямо сейчас
func HandleInit(ctx handlers.Context) (handlers.Result, error) {
	return handlers.Result{Publish: true}, nil
}
