package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Storage StorageConfig `yaml:"storage"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Server  ServerConfig  `yaml:"server"`
	Worker  WorkerConfig  `yaml:"worker"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RenderConfig struct {
	// SystemFonts are tried in order when the job names no font or the named file cannot be loaded.
	SystemFonts      []string      `yaml:"system_fonts" env:"RENDER_SYSTEM_FONTS" env-default:"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf,/usr/share/fonts/truetype/freefont/FreeSans.ttf,C:/Windows/Fonts/arial.ttf"`
	EmbeddedFallback bool          `yaml:"embedded_fallback" env:"RENDER_EMBEDDED_FALLBACK" env-default:"true"`
	EventBuffer      int           `yaml:"event_buffer" env:"RENDER_EVENT_BUFFER" env-default:"64"`
	PreviewMaxSide   int           `yaml:"preview_max_side" env:"RENDER_PREVIEW_MAX_SIDE" env-default:"480"`
	YieldDelay       time.Duration `yaml:"yield_delay" env:"RENDER_YIELD_DELAY" env-default:"0s"`
	MaxValues        int           `yaml:"max_values" env:"RENDER_MAX_VALUES" env-default:"100000"`
	MaxCanvasPixels  int64         `yaml:"max_canvas_pixels" env:"RENDER_MAX_CANVAS_PIXELS" env-default:"64000000"`
}

type StorageConfig struct {
	// Backend is "local" or "minio".
	Backend string      `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`
	Local   LocalConfig `yaml:"local"`
	MinIO   MinIOConfig `yaml:"minio"`
}

type LocalConfig struct {
	OutputDir string `yaml:"output_dir" env:"STORAGE_OUTPUT_DIR" env-default:"./output"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"labels"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	Region    string `yaml:"region" env:"MINIO_REGION" env-default:""`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	JobsTopic   string   `yaml:"jobs_topic" env:"KAFKA_JOBS_TOPIC" env-default:"label-jobs"`
	EventsTopic string   `yaml:"events_topic" env:"KAFKA_EVENTS_TOPIC" env-default:"label-events"`
	GroupID     string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"image-labeler-group"`

	// PublishEvents makes the HTTP server mirror run events to EventsTopic.
	PublishEvents bool `yaml:"publish_events" env:"KAFKA_PUBLISH_EVENTS" env-default:"false"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadSize   int64         `yaml:"max_upload_size" env:"SERVER_MAX_UPLOAD_SIZE" env-default:"33554432"`
}

type WorkerConfig struct {
	// Buffer is the capacity of the channel between the consumer and the job loop.
	Buffer int           `yaml:"buffer" env:"WORKER_BUFFER" env-default:"4"`
	// JobTTL is how long finished runs stay queryable over HTTP.
	JobTTL time.Duration `yaml:"job_ttl" env:"WORKER_JOB_TTL" env-default:"1h"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"500ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads the YAML file named by CONFIG_PATH when it is set, and the
// environment otherwise.
func MustLoad() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if cfg.Render.EventBuffer < 1 {
		cfg.Render.EventBuffer = 1
	}

	return &cfg, nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}
