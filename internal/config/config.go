package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"

	UserStoreRedis  = "redis"
	UserStoreMemory = "memory"
)

var (
	ErrUnknownMode      = errors.New("unknown collaborator mode")
	ErrMissingBaseURL   = errors.New("remote collaborator requires base-url")
	ErrUnknownUserStore = errors.New("unknown user store")
	ErrInvalidWebsocket = errors.New("invalid websocket settings")
)

type Config struct {
	LogLevel            string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort            string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort          string        `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	CollaboratorTimeout time.Duration `yaml:"collaborator-timeout" env:"COLLABORATOR_TIMEOUT" env-default:"2s"`
	UserStore           string        `yaml:"user-store" env:"USER_STORE" env-default:"redis"`
	Redis               Redis         `yaml:"redis"`
	Identity            Collaborator  `yaml:"identity" env-prefix:"IDENTITY_"`
	Validator           Collaborator  `yaml:"validator" env-prefix:"VALIDATOR_"`
	Websocket           Websocket     `yaml:"websocket"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Collaborator - where an external dependency of the room service lives.
type Collaborator struct {
	Mode    string `yaml:"mode" env:"MODE" env-default:"local"`
	BaseURL string `yaml:"base-url" env:"BASE_URL"`
}

type Websocket struct {
	SendBuffer     int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
	WriteWait      time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	MaxMessageSize int64         `yaml:"max-message-size" env:"WS_MAX_MESSAGE_SIZE" env-default:"4096"`
}

// MustLoad - load all configurations in config.yml file, falling back to the environment when the file is absent.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	default:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	if that.UserStore != UserStoreRedis && that.UserStore != UserStoreMemory {
		return fmt.Errorf("%w: %q", ErrUnknownUserStore, that.UserStore)
	}

	if err := that.Identity.validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	if err := that.Validator.validate(); err != nil {
		return fmt.Errorf("validator: %w", err)
	}

	if err := that.Websocket.validate(); err != nil {
		return fmt.Errorf("websocket: %w", err)
	}

	return nil
}

func (that *Collaborator) validate() error {
	switch that.Mode {
	case ModeLocal:
		return nil
	case ModeRemote:
		if that.BaseURL == "" {
			return ErrMissingBaseURL
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, that.Mode)
	}
}

func (that *Collaborator) IsRemote() bool {
	return that.Mode == ModeRemote
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Websocket) validate() error {
	switch {
	case that.SendBuffer < 1:
		return fmt.Errorf("%w: send-buffer must be at least 1, got %d", ErrInvalidWebsocket, that.SendBuffer)
	case that.WriteWait <= 0:
		return fmt.Errorf("%w: write-wait must be positive, got %s", ErrInvalidWebsocket, that.WriteWait)
	case that.PingPeriod() <= 0:
		return fmt.Errorf("%w: pong-wait is too short, got %s", ErrInvalidWebsocket, that.PongWait)
	case that.MaxMessageSize < 1:
		return fmt.Errorf("%w: max-message-size must be at least 1, got %d", ErrInvalidWebsocket, that.MaxMessageSize)
	}

	return nil
}

// PingPeriod - keepalive interval, shorter than the pong deadline.
func (that *Websocket) PingPeriod() time.Duration {
	return that.PongWait * 9 / 10
}
