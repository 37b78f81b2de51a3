// Package config loads command-line settings with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix 为环境变量前缀，例如 LABELSHEET_LOG_LEVEL。
const EnvPrefix = "LABELSHEET"

// Config holds all application configuration
type Config struct {
	Log        LogConfig
	Render     RenderConfig
	Protection ProtectionConfig
	Storage    StorageConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `validate:"oneof=debug info warn warning error"`
	Format     string `validate:"oneof=json console"`
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// RenderConfig 控制排版与渲染。
type RenderConfig struct {
	Borders       bool
	DefaultFamily string
	FontDir       string // 额外字体目录，可为空
}

// ProtectionConfig holds print-protection settings.
type ProtectionConfig struct {
	Enabled      bool
	ExpiresAfter time.Duration `validate:"gte=0"`
}

// StorageConfig 决定生成的 PDF 写到哪里。
type StorageConfig struct {
	Driver string `validate:"oneof=file s3"`
	Dir    string
	S3     S3Config
}

// S3Config holds settings for any S3-compatible object store.
type S3Config struct {
	Bucket       string `validate:"required_if=Enabled true"`
	Region       string
	Endpoint     string
	Prefix       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Enabled      bool // 由 Driver 推导
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.time_format", "2006-01-02T15:04:05.000Z07:00")

	v.SetDefault("render.borders", false)
	v.SetDefault("render.default_family", "Go")
	v.SetDefault("render.font_dir", "")

	v.SetDefault("protection.enabled", false)
	v.SetDefault("protection.expires_after", 24*time.Hour)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.prefix", "labels/")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_path_style", true)
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with LABELSHEET_ prefix (e.g., LABELSHEET_STORAGE_S3_BUCKET)
// 2. the file at path, or labelsheet.toml in the working directory when path is empty
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labelsheet")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Log: LogConfig{
			Level:      strings.ToLower(v.GetString("log.level")),
			Format:     strings.ToLower(v.GetString("log.format")),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		Render: RenderConfig{
			Borders:       v.GetBool("render.borders"),
			DefaultFamily: v.GetString("render.default_family"),
			FontDir:       v.GetString("render.font_dir"),
		},
		Protection: ProtectionConfig{
			Enabled:      v.GetBool("protection.enabled"),
			ExpiresAfter: v.GetDuration("protection.expires_after"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storage.driver")),
			Dir:    v.GetString("storage.dir"),
			S3: S3Config{
				Bucket:       v.GetString("storage.s3.bucket"),
				Region:       v.GetString("storage.s3.region"),
				Endpoint:     v.GetString("storage.s3.endpoint"),
				Prefix:       v.GetString("storage.s3.prefix"),
				AccessKey:    v.GetString("storage.s3.access_key"),
				SecretKey:    v.GetString("storage.s3.secret_key"),
				UsePathStyle: v.GetBool("storage.s3.use_path_style"),
			},
		},
	}
	cfg.Storage.S3.Enabled = cfg.Storage.Driver == "s3"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks enumerations and the fields the chosen storage driver needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("配置无效: %s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("配置无效: %w", err)
	}
	return nil
}
