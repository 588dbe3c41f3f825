package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".ganttguild/data"`
	// Watch invalidates cached views when their files change on disk.
	// Local storage only.
	Watch bool `envconfig:"STORAGE_WATCH" default:"false"`

	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Prefix   string `envconfig:"S3_PREFIX" default:"ganttguild/"`
	S3Region   string `envconfig:"S3_REGION" default:"ap-northeast-1"`
	S3Endpoint string `envconfig:"S3_ENDPOINT"`
}

// VAPIDEnv holds the web push keys. Push is disabled when either key is
// empty.
type VAPIDEnv struct {
	PublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	Contact    string `envconfig:"VAPID_CONTACT" default:"mailto:admin@example.com"`
}

func (e *VAPIDEnv) Enabled() bool {
	return e.PublicKey != "" && e.PrivateKey != ""
}

type EngineEnv struct {
	MaxTasksPerView int `envconfig:"MAX_TASKS_PER_VIEW" default:"5000"`
	EventBuffer     int `envconfig:"EVENT_BUFFER" default:"256"`
}

type Env struct {
	BaseEnv
	StorageEnv
	VAPIDEnv
	EngineEnv
}

const namespace = "GANTTGUILD"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}
	return &env, nil
}

func (e *Env) validate() error {
	if e.APIKey == "" {
		return fmt.Errorf("%s_API_KEY must not be empty", namespace)
	}
	switch e.StorageEnv.Type {
	case "local":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required for s3 storage", namespace)
		}
		if e.StorageEnv.Watch {
			return fmt.Errorf("%s_STORAGE_WATCH is only supported for local storage", namespace)
		}
	default:
		return fmt.Errorf("unknown storage type %q", e.StorageEnv.Type)
	}
	if e.MaxTasksPerView <= 0 {
		return fmt.Errorf("%s_MAX_TASKS_PER_VIEW must be positive", namespace)
	}
	if e.EventBuffer <= 0 {
		return fmt.Errorf("%s_EVENT_BUFFER must be positive", namespace)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) IsLocal() bool {
	return e.Env == "local"
}
