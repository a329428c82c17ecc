package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"whitehill-server/pkg/api"
)

// MaxPayloadBytes - STEER и LOOK несут пару чисел, больше не бывает
const MaxPayloadBytes = 256

// ErrBadPayload - данные команды не разобрались или не прошли проверку
var ErrBadPayload = errors.New("bad payload")

// TypedHandlerFunc работает с уже разобранной структурой T
type TypedHandlerFunc[T any] func(ctx Context, payload T) (Result, error)

// EmptyHandlerFunc - хендлер команды без данных (INIT, FOLLOW)
type EmptyHandlerFunc func(ctx Context) (Result, error)

// WithPayload разбирает JSON команды action в T, проверяет его через
// api.Validator и только потом зовет handler. Аватар до handler не доходит,
// если данные плохие.
func WithPayload[T any](action string, handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx Context, raw json.RawMessage) (Result, error) {
		if err := checkSize(action, raw); err != nil {
			return Result{}, err
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return Result{}, fmt.Errorf("%s: %w: missing", action, ErrBadPayload)
		}

		var payload T
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&payload); err != nil {
			return Result{}, fmt.Errorf("%s: %w: %v", action, ErrBadPayload, err)
		}
		if dec.More() {
			return Result{}, fmt.Errorf("%s: %w: trailing data", action, ErrBadPayload)
		}

		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, fmt.Errorf("%s: %w: %v", action, ErrBadPayload, err)
			}
		}
		return handler(ctx, payload)
	}
}

// WithEmptyPayload - для команд без данных. Содержимое игнорируется,
// но размер все равно ограничен.
func WithEmptyPayload(action string, handler EmptyHandlerFunc) HandlerFunc {
	return func(ctx Context, raw json.RawMessage) (Result, error) {
		if err := checkSize(action, raw); err != nil {
			return Result{}, err
		}
		return handler(ctx)
	}
}

func checkSize(action string, raw json.RawMessage) error {
	if len(raw) > MaxPayloadBytes {
		return fmt.Errorf("%s: %w: %d bytes, limit %d", action, ErrBadPayload, len(raw), MaxPayloadBytes)
	}
	return nil
}
