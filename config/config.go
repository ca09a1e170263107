package config

import (
	"errors"
	"frame-compress/constant"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Config struct {
	App            App           `yaml:"app"`
	Server         Server        `yaml:"server"`
	Compression    Compression   `yaml:"compression"`
	Media          Media         `yaml:"media"`
	Session        Session       `yaml:"session"`
	Storage        *minio.Client `yaml:"storage"`
	StorageCleanup bool          `yaml:"storage_cleanup"`
	Queue          *RabbitMQ     `yaml:"rabbitmq"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
}

type Compression struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	FrameScale int           `yaml:"frame_scale"`
	VideoScale int           `yaml:"video_scale"`
	Probe      bool          `yaml:"probe"`
}

type Media struct {
	FFmpegPath     string        `yaml:"ffmpeg"`
	FFprobePath    string        `yaml:"ffprobe"`
	TempDir        string        `yaml:"temp_dir"`
	ExtractTimeout time.Duration `yaml:"extract_timeout"`
	Timestamp      float64       `yaml:"timestamp"`
}

type Session struct {
	DefaultQuality int   `yaml:"default_quality"`
	MaxUploadMB    int64 `yaml:"max_upload_mb"`
}

type RabbitMQ struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constant.EnvironmentDevelop.String())
	v.SetDefault("server.port", "8080")

	v.SetDefault("compression.base_url", "http://127.0.0.1:5000")
	v.SetDefault("compression.timeout", 10*time.Minute)
	v.SetDefault("compression.frame_scale", 0)
	v.SetDefault("compression.video_scale", 0)
	v.SetDefault("compression.probe", true)

	v.SetDefault("media.ffmpeg", "ffmpeg")
	v.SetDefault("media.ffprobe", "ffprobe")
	v.SetDefault("media.temp_dir", "")
	v.SetDefault("media.extract_timeout", 30*time.Second)
	v.SetDefault("media.timestamp", 0)

	v.SetDefault("session.default_quality", constant.DefaultQuality)
	v.SetDefault("session.max_upload_mb", 2048)

	v.SetDefault("minio.url", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.cleanup", false)

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq_host", "localhost")
	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("rabbitmq_user", "guest")
	v.SetDefault("rabbitmq_pass", "guest")
	v.SetDefault("rabbitmq_kind", "topic")
	v.SetDefault("rabbitmq.exchange", "compression_exchange")
}

// Load reads config.yaml from path. A missing file is not an error; defaults
// and FRAMECOMPRESS_* environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FRAMECOMPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var storage *minio.Client
	if endpoint := v.GetString("minio.url"); endpoint != "" {
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(v.GetString("minio.access_id"), v.GetString("minio.secret_access_key"), ""),
			Secure: v.GetBool("minio.use_ssl"),
			Region: v.GetString("minio.region"),
		})
		if err != nil {
			return nil, err
		}
		storage = client
	}

	return &Config{
		App: App{
			Environment: v.GetString("app.environment"),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
		},
		Compression: Compression{
			BaseURL:    v.GetString("compression.base_url"),
			Timeout:    v.GetDuration("compression.timeout"),
			FrameScale: v.GetInt("compression.frame_scale"),
			VideoScale: v.GetInt("compression.video_scale"),
			Probe:      v.GetBool("compression.probe"),
		},
		Media: Media{
			FFmpegPath:     v.GetString("media.ffmpeg"),
			FFprobePath:    v.GetString("media.ffprobe"),
			TempDir:        v.GetString("media.temp_dir"),
			ExtractTimeout: v.GetDuration("media.extract_timeout"),
			Timestamp:      v.GetFloat64("media.timestamp"),
		},
		Session: Session{
			DefaultQuality: v.GetInt("session.default_quality"),
			MaxUploadMB:    v.GetInt64("session.max_upload_mb"),
		},
		Storage:        storage,
		StorageCleanup: v.GetBool("minio.cleanup"),
		Queue: &RabbitMQ{
			Enabled:      v.GetBool("rabbitmq.enabled"),
			Host:         v.GetString("rabbitmq_host"),
			Port:         v.GetInt("rabbitmq_port"),
			User:         v.GetString("rabbitmq_user"),
			Pass:         v.GetString("rabbitmq_pass"),
			ExchangeName: v.GetString("rabbitmq.exchange"),
			Kind:         v.GetString("rabbitmq_kind"),
		},
	}, nil
}
