package domain

// Геометрия сетки. Все расчеты футпринтов и окон видимости идут через BinSize.
const (
	// BinSize - длина ребра одного бина в пикселях
	BinSize = 16

	// Минимальный размер мира в бинах (ровно покрывает экран 800x640)
	MinGridWidth  = 50
	MinGridHeight = 40
)

// Параметры вьюпорта клиента
const (
	ViewportWidth  = 800
	ViewportHeight = 640

	// Невыровненный по бинам экран задевает на один бин больше по каждой оси
	ViewportBinsX = ViewportWidth/BinSize + 1  // 51
	ViewportBinsY = ViewportHeight/BinSize + 1 // 41
)

// Виды сущностей (кодируются в старших битах EntityID)
const (
	EntityKindNone   EntityKind = 0
	EntityKindProp   EntityKind = 1 // Статичные и подвижные объекты сценария
	EntityKindAvatar EntityKind = 2 // Аватары подключенных игроков
)

// DefaultAvatarSpeed - скорость аватара по умолчанию (пикселей в секунду)
const DefaultAvatarSpeed = 24
