package config

import (
	"fmt"
	"os"
	"time"

	"print-packager/internal/domain"
	"print-packager/internal/usecase/processor/operations"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Minio      MinioConfig      `yaml:"minio"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Worker     WorkerConfig     `yaml:"worker"`
	Retry      RetryConfig      `yaml:"retry"`
	Processing ProcessingConfig `yaml:"processing"`
	Watermark  WatermarkConfig  `yaml:"watermark"`
	Export     ExportConfig     `yaml:"export"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxUploadSize   int64         `yaml:"max_upload_size" env:"SERVER_MAX_UPLOAD_SIZE" env-default:"268435456" validate:"gt=0"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"print_packager"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"print-batches"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092" validate:"min=1"`
	TasksTopic    string   `yaml:"tasks_topic" env:"KAFKA_TASKS_TOPIC" env-default:"print-batches"`
	ProgressTopic string   `yaml:"progress_topic" env:"KAFKA_PROGRESS_TOPIC" env-default:"print-batch-progress"`
	GroupID       string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"print-packager-group"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"2" validate:"gte=1,lte=64"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3" validate:"gte=1"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2" validate:"gte=1"`
}

type ProcessingConfig struct {
	JPEGQuality  float64        `yaml:"jpeg_quality" env:"PROCESSING_JPEG_QUALITY" env-default:"0.9" validate:"gte=0.1,lte=1"`
	DefaultDPI   int            `yaml:"default_dpi" env:"PROCESSING_DEFAULT_DPI" env-default:"600" validate:"gte=72,lte=2400"`
	DPIOverrides map[string]int `yaml:"dpi_overrides" validate:"dive,gte=72,lte=2400"`
	Filter       string         `yaml:"filter" env:"PROCESSING_FILTER" env-default:"catmullrom" validate:"oneof=catmullrom lanczos"`
	MaxArea      int64          `yaml:"max_area" env:"PROCESSING_MAX_AREA" env-default:"268435456" validate:"gte=0"`
	MaxDimension int            `yaml:"max_dimension" env:"PROCESSING_MAX_DIMENSION" env-default:"16384" validate:"gte=0"`
	FontPath     string         `yaml:"font_path" env:"PROCESSING_FONT_PATH"`
	CatalogPath  string         `yaml:"catalog_path" env:"PROCESSING_CATALOG_PATH"`
	Pause        time.Duration  `yaml:"pause" env:"PROCESSING_PAUSE" env-default:"0s"`
}

// WatermarkConfig carries no defaults for fields whose zero value is
// meaningful, since cleanenv applies env-default to zero fields.
type WatermarkConfig struct {
	Enabled  bool    `yaml:"enabled" env:"WATERMARK_ENABLED"`
	Text     string  `yaml:"text" env:"WATERMARK_TEXT" env-default:"© Your Name"`
	Opacity  float64 `yaml:"opacity" env:"WATERMARK_OPACITY" env-default:"0.5" validate:"gte=0,lte=1"`
	FontSize float64 `yaml:"font_size" env:"WATERMARK_FONT_SIZE" env-default:"48" validate:"gt=0"`
	Color    string  `yaml:"color" env:"WATERMARK_COLOR" env-default:"#ffffff" validate:"watermark_color"`
	Position string  `yaml:"position" env:"WATERMARK_POSITION" env-default:"bottom-right" validate:"oneof=top-left top-right bottom-left bottom-right center repeat"`
	Rotation float64 `yaml:"rotation" env:"WATERMARK_ROTATION"`
	MarginX  float64 `yaml:"margin_x" env:"WATERMARK_MARGIN_X" env-default:"20" validate:"gte=0"`
	MarginY  float64 `yaml:"margin_y" env:"WATERMARK_MARGIN_Y" env-default:"20" validate:"gte=0"`
}

type ExportConfig struct {
	ShopName    string `yaml:"shop_name" env:"EXPORT_SHOP_NAME"`
	ArtTitle    string `yaml:"art_title" env:"EXPORT_ART_TITLE"`
	LicenseText string `yaml:"license_text" env:"EXPORT_LICENSE_TEXT" env-default:"Personal Use Only / non-commercial"`
	OutputDir   string `yaml:"output_dir" env:"EXPORT_OUTPUT_DIR" env-default:"output"`
}

// MustLoad reads the YAML file named by CONFIG_PATH (or the default path when
// it exists) and applies environment overrides on top.
func MustLoad() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := operations.NewValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

func (c *Config) WatermarkSpec() domain.WatermarkSpec {
	return domain.WatermarkSpec{
		Enabled:         c.Watermark.Enabled,
		Text:            c.Watermark.Text,
		Opacity:         c.Watermark.Opacity,
		FontSize:        c.Watermark.FontSize,
		Color:           c.Watermark.Color,
		Position:        domain.WatermarkPosition(c.Watermark.Position),
		RotationDegrees: c.Watermark.Rotation,
		MarginX:         c.Watermark.MarginX,
		MarginY:         c.Watermark.MarginY,
	}
}

func (c *Config) ProcessingSettings() domain.ProcessingSettings {
	overrides := make(map[string]int, len(c.Processing.DPIOverrides))
	for k, v := range c.Processing.DPIOverrides {
		overrides[k] = v
	}
	return domain.ProcessingSettings{
		JPEGQuality:  c.Processing.JPEGQuality,
		DefaultDPI:   c.Processing.DefaultDPI,
		DPIOverrides: overrides,
	}
}

func (c *Config) ExportOptions() domain.ExportOptions {
	return domain.ExportOptions{
		ShopName:    c.Export.ShopName,
		ArtTitle:    c.Export.ArtTitle,
		LicenseText: c.Export.LicenseText,
	}
}
