package handlers

import (
	"encoding/json"

	"whitehill-server/internal/domain"
)

// Camera - куда смотрит клиент. По умолчанию камера следует за аватаром.
type Camera struct {
	Pinned bool       // true - LOOK закрепил камеру в точке
	Origin domain.Vec // Левый верхний угол вьюпорта, если Pinned
}

// Context передает хендлеру состояние мира.
// Мы передаем ссылки, чтобы хендлер мог менять состояние (мутировать данные).
type Context struct {
	World  *domain.GameWorld
	Actor  *domain.Entity // Аватар сессии, которая прислала команду
	Camera *Camera
}

// Result - возвращает результат выполнения команды.
// Хендлер не пишет в сокет напрямую, он возвращает пожелания движку.
type Result struct {
	Msg     string // Текст для лога сервера
	Publish bool   // Отправить клиенту кадр немедленно, не дожидаясь рассылки
}

// HandlerFunc - это контракт для любой команды (STEER, LOOK, etc).
type HandlerFunc func(ctx Context, payload json.RawMessage) (Result, error)

// EmptyResult - вспомогательная функция для пустого успешного ответа
func EmptyResult() Result {
	return Result{}
}
