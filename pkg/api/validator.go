package api

import (
	"errors"
	"math"
)

// MaxSpeed - потолок скорости, который принимает сервер от клиента
const MaxSpeed = 1024

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p SteerPayload) Validate() error {
	if p.Speed != nil {
		s := *p.Speed
		if math.IsNaN(s) || s < 0 {
			return errors.New("speed must be a non-negative number")
		}
		if s > MaxSpeed {
			return errors.New("speed too large")
		}
	}
	return nil
}

func (p PositionPayload) Validate() error {
	const limit = 1 << 20
	if p.X < -limit || p.X > limit || p.Y < -limit || p.Y > limit {
		return errors.New("position out of range")
	}
	return nil
}
