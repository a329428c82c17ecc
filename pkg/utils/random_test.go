package utils

import (
	"strings"
	"testing"
)

func TestGenerateSessionToken(t *testing.T) {
	a, b := GenerateSessionToken(), GenerateSessionToken()
	if !strings.HasPrefix(a, "s_") || len(a) != 18 {
		t.Errorf("unexpected token format: %q", a)
	}
	if a == b {
		t.Error("tokens must differ")
	}
}

func TestStringToSeed_Deterministic(t *testing.T) {
	if StringToSeed("player") != StringToSeed("player") {
		t.Error("same input must give the same seed")
	}
	if StringToSeed("player") == StringToSeed("tree") {
		t.Error("different inputs should give different seeds")
	}
}

func TestNewRand(t *testing.T) {
	r1, s1 := NewRand(7)
	r2, _ := NewRand(7)
	if s1 != 7 || r1.Int63() != r2.Int63() {
		t.Error("explicit seed must be reproducible")
	}
	if _, s := NewRand(0); s == 0 {
		t.Error("seed 0 must be replaced with a random one")
	}
}
