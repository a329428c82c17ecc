package domain

import "errors"

var (
	// ErrInvalidMask - пустая или непрямоугольная битовая маска
	ErrInvalidMask = errors.New("invalid collision mask")

	// ErrDimensionMismatch - операция требует масок одинакового размера
	ErrDimensionMismatch = errors.New("collision mask dimension mismatch")

	// ErrInvalidGridSize - мир меньше минимально допустимого (50x40 бинов)
	ErrInvalidGridSize = errors.New("invalid grid size")

	// ErrIndexCorrupted - индекс бинов рассинхронизирован с футпринтом сущности.
	// Локально не восстанавливается: тик должен быть прерван.
	ErrIndexCorrupted = errors.New("spatial index corrupted")

	// ErrUnknownEntity - сущности с таким ID нет в реестре
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrInvalidDirection - компонента направления вне {-1, 0, 1}
	ErrInvalidDirection = errors.New("invalid direction")

	// ErrInvalidSpeed - отрицательная или нечисловая скорость
	ErrInvalidSpeed = errors.New("invalid speed")
)

// ErrEntityIndexed - попытка изменить геометрию сущности, которая сейчас
// зарегистрирована в бинах (нужно идти через GameWorld.Teleport / Reshape)
var ErrEntityIndexed = errors.New("entity is indexed")
