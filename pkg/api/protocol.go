package api

import (
	"encoding/json"
)

// Типы сообщений сервер -> клиент
const (
	MsgTypeView  = "VIEW"  // Снимок вьюпорта
	MsgTypeError = "ERROR" // Ошибка обработки команды
)

// Действия клиент -> сервер
const (
	ActionLogin  = "LOGIN"
	ActionInit   = "INIT"
	ActionSteer  = "STEER"
	ActionLook   = "LOOK"
	ActionFollow = "FOLLOW"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerMessage это корневой объект, который сервер отправляет клиенту.
// Для VIEW это полный список того, что нужно нарисовать на экране клиента.
// О бинах и внутреннем устройстве мира клиент ничего не знает.
type ServerMessage struct {
	// Type тип сообщения: VIEW или ERROR.
	Type string `json:"type" msgpack:"type"`

	// Tick номер тика симуляции, на котором снят снимок.
	Tick uint64 `json:"tick" msgpack:"tick"`

	// MyEntityID ID аватара, которым управляет данный клиент.
	MyEntityID uint64 `json:"myEntityId,string,omitempty" msgpack:"me,omitempty"`

	// Origin левый верхний угол вьюпорта в пикселях мира.
	Origin Point `json:"origin" msgpack:"origin"`

	// Viewport размер экрана в пикселях.
	Viewport *ViewportMeta `json:"viewport,omitempty" msgpack:"viewport,omitempty"`

	// Sprites упорядочены для алгоритма художника: рисовать в порядке среза.
	Sprites []SpriteView `json:"sprites" msgpack:"sprites"`

	// Error текст ошибки для Type == ERROR.
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Point - пиксельные координаты
type Point struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// ViewportMeta содержит размеры экрана и мира, чтобы клиент мог
// подготовить холст и ограничить камеру.
type ViewportMeta struct {
	Width       int `json:"w" msgpack:"w"`
	Height      int `json:"h" msgpack:"h"`
	WorldWidth  int `json:"worldW" msgpack:"ww"`
	WorldHeight int `json:"worldH" msgpack:"wh"`
}

// SpriteView это DTO одной сущности на экране.
// ID стабилен между кадрами: по нему клиент переиспользует спрайты.
type SpriteView struct {
	ID uint64 `json:"id,string" msgpack:"id"`

	// Key ключ визуала (подкаталог ресурсов: "player", "tree").
	Key string `json:"key" msgpack:"key"`

	// Pos позиция относительно угла вьюпорта (может быть отрицательной).
	Pos Point `json:"pos" msgpack:"pos"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Token идентификатор сессии. Обязателен только для первого сообщения "LOGIN".
	Token string `json:"token,omitempty"`

	// Action название действия, которое нужно выполнить.
	Action string `json:"action"`

	// Payload JSON-объект с данными для действия. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Payloads ---

// SteerPayload задает направление движения аватара (e.g. STEER).
// Dx/Dy нормализуются до {-1, 0, 1}. Speed, если задан, меняет скорость.
type SteerPayload struct {
	Dx    int      `json:"dx"`
	Dy    int      `json:"dy"`
	Speed *float64 `json:"speed,omitempty"` // Пикселей в секунду
}

// PositionPayload используется для действий, нацеленных на точку (e.g. LOOK).
type PositionPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}
