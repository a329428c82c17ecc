package utils

import (
	"crypto/rand"
	"encoding/hex"
	"hash/fnv"
	mrand "math/rand"
	"time"
)

// GenerateSessionToken создает токен сессии для клиентов без своего токена
func GenerateSessionToken() string {
	b := make([]byte, 8) // 16 символов hex
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate session token: " + err.Error())
	}
	return "s_" + hex.EncodeToString(b)
}

// StringToSeed превращает строку в детерминированный сид
func StringToSeed(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

// NewRand возвращает генератор. Сид 0 значит "случайный".
func NewRand(seed int64) (*mrand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return mrand.New(mrand.NewSource(seed)), seed
}
