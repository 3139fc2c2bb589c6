package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ethpandaops/reportoor/pkg/stats"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. REPORTOOR_GLOBAL_LOG_LEVEL.
	EnvPrefix = "REPORTOOR"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultUploadPrefix is the default discovery path reports are
	// uploaded to.
	DefaultUploadPrefix = "reportoor"
)

// Config is the root configuration for reportoor.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Upload UploadConfig `yaml:"upload" mapstructure:"upload"`
	API    APIConfig    `yaml:"api" mapstructure:"api"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// Timezone of displayed times, an IANA name. Empty means local time.
	Timezone string `yaml:"timezone,omitempty" mapstructure:"timezone"`
}

// Location resolves Timezone.
func (g *GlobalConfig) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", g.Timezone, err)
	}

	return loc, nil
}

// RenderConfig holds the initial view state and presentation settings of
// rendered reports.
type RenderConfig struct {
	OnlyFailures       bool   `yaml:"only_failures" mapstructure:"only_failures"`
	ShowDebugLogs      bool   `yaml:"debug_logs" mapstructure:"debug_logs"`
	TestFilter         string `yaml:"filter,omitempty" mapstructure:"filter"`
	ScrollOnSingleTest bool   `yaml:"scroll_on_single_test" mapstructure:"scroll_on_single_test"`
	RawDataURL         string `yaml:"raw_data_url,omitempty" mapstructure:"raw_data_url"`
	AttachmentBaseURL  string `yaml:"attachment_base_url,omitempty" mapstructure:"attachment_base_url"`
	MessageTemplate    string `yaml:"message_template,omitempty" mapstructure:"message_template"`
}

// UploadConfig contains report publishing settings.
type UploadConfig struct {
	S3 S3UploadConfig `yaml:"s3" mapstructure:"s3"`
}

// S3Config holds the connection settings of an S3-compatible bucket.
type S3Config struct {
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// S3UploadConfig configures the S3 report uploader.
type S3UploadConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	S3Config `yaml:",inline" mapstructure:",squash"`

	// Prefix is the discovery path: reports land under {prefix}/reports/.
	Prefix       string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL          string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// Load reads the configuration files in order, each merged over the
// previous ones, then applies REPORTOOR_* environment overrides. With no
// path only defaults and the environment are used.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := decode(v.AllSettings(), &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func decode(settings map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}

	return dec.Decode(settings)
}

// setDefaults registers every key with viper. Environment overrides only
// apply to keys viper knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)
	v.SetDefault("global.timezone", "")

	v.SetDefault("render.only_failures", false)
	v.SetDefault("render.debug_logs", false)
	v.SetDefault("render.filter", "")
	v.SetDefault("render.scroll_on_single_test", true)
	v.SetDefault("render.raw_data_url", "")
	v.SetDefault("render.attachment_base_url", "")
	v.SetDefault("render.message_template", "")

	setS3Defaults(v, "upload.s3")
	v.SetDefault("upload.s3.enabled", false)
	v.SetDefault("upload.s3.prefix", DefaultUploadPrefix)
	v.SetDefault("upload.s3.storage_class", "")
	v.SetDefault("upload.s3.acl", "")

	setAPIDefaults(v)
}

func setS3Defaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".endpoint_url", "")
	v.SetDefault(prefix+".region", "")
	v.SetDefault(prefix+".bucket", "")
	v.SetDefault(prefix+".access_key_id", "")
	v.SetDefault(prefix+".secret_access_key", "")
	v.SetDefault(prefix+".force_path_style", false)
}

// applyDefaults fills values left empty by an explicit blank setting.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Upload.S3.Prefix == "" {
		c.Upload.S3.Prefix = DefaultUploadPrefix
	}

	c.API.applyDefaults()
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Global.LogLevel); err != nil {
		return fmt.Errorf("global.log_level: %w", err)
	}

	if _, err := c.Global.Location(); err != nil {
		return fmt.Errorf("global.timezone: %w", err)
	}

	if tmpl := c.Render.MessageTemplate; tmpl != "" {
		if err := stats.CheckMessageTemplate(tmpl); err != nil {
			return fmt.Errorf("render.message_template: %w", err)
		}
	}

	return nil
}

// ValidateUpload checks the upload settings.
func (c *Config) ValidateUpload() error {
	s3 := &c.Upload.S3

	if !s3.Enabled {
		return fmt.Errorf("upload.s3 is not enabled")
	}

	if s3.Bucket == "" {
		return fmt.Errorf("upload.s3.bucket is required")
	}

	return nil
}
