package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"whitehill-server/internal/domain"
	"whitehill-server/pkg/api"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config хранит параметры запуска движка
type Config struct {
	Port string `yaml:"port"`

	// TickRate - тиков симуляции в секунду
	TickRate int `yaml:"tick_rate"`
	// BroadcastEvery - рассылать вьюпорт раз в N тиков
	BroadcastEvery int `yaml:"broadcast_every"`

	Grid GridConfig `yaml:"grid"`

	// Codec - формат кадров для клиентов: json или msgpack
	Codec string `yaml:"codec"`

	// Scenario - путь к YAML со стартовой расстановкой.
	// Пусто - уровень генерируется из Seed.
	Scenario      string `yaml:"scenario"`
	WatchScenario bool   `yaml:"watch_scenario"`

	// Seed - зерно генератора уровня. 0 - случайное.
	Seed int64 `yaml:"seed"`
	// Surface - генерировать поверхность вместо подземелья
	Surface bool `yaml:"surface"`

	Spawn SpawnConfig `yaml:"spawn"`
	// Bots - сколько бродячих ботов запустить вместе с сервером
	Bots int       `yaml:"bots"`
	Log  LogConfig `yaml:"log"`
}

// GridConfig - размер мира в бинах
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SpawnConfig описывает аватар, который получает каждая новая сессия
type SpawnConfig struct {
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Layer  int     `yaml:"layer"`
	Key    string  `yaml:"key"`
	Speed  float64 `yaml:"speed"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		Port:           "8080",
		TickRate:       30,
		BroadcastEvery: 1,
		Grid:           GridConfig{Width: domain.MinGridWidth, Height: domain.MinGridHeight},
		Codec:          "json",
		Spawn: SpawnConfig{
			X: 64, Y: 64,
			Width: 12, Height: 12,
			Key:   "player",
			Speed: domain.DefaultAvatarSpeed,
		},
	}
}

// LoadConfig читает YAML поверх значений по умолчанию, затем применяет
// переменные окружения. Пустой путь - только умолчания и окружение.
func LoadConfig(path string) (Config, error) {
	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if port, ok := os.LookupEnv("WH_PORT"); ok && port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("%w: WH_PORT=%q", ErrInvalidConfig, port)
		}
		c.Port = port
	}
	if lvl, ok := os.LookupEnv("LOG_LEVEL"); ok && lvl != "" {
		c.Log.Level = lvl
	}
	if f, ok := os.LookupEnv("LOG_FORMAT"); ok && f != "" {
		c.Log.Format = f
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive, got %d", ErrInvalidConfig, c.TickRate)
	case c.BroadcastEvery <= 0:
		return fmt.Errorf("%w: broadcast_every must be positive, got %d", ErrInvalidConfig, c.BroadcastEvery)
	case c.Grid.Width < domain.MinGridWidth || c.Grid.Height < domain.MinGridHeight:
		return fmt.Errorf("%w: grid %dx%d: %w", ErrInvalidConfig, c.Grid.Width, c.Grid.Height, domain.ErrInvalidGridSize)
	case c.Spawn.Width <= 0 || c.Spawn.Height <= 0:
		return fmt.Errorf("%w: spawn size %dx%d", ErrInvalidConfig, c.Spawn.Width, c.Spawn.Height)
	case c.Spawn.Speed < 0:
		return fmt.Errorf("%w: spawn speed %v", ErrInvalidConfig, c.Spawn.Speed)
	case c.Bots < 0:
		return fmt.Errorf("%w: bots %d", ErrInvalidConfig, c.Bots)
	}
	if _, err := api.CodecByName(c.Codec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
