// Package config loads PixelVault settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/medium"
	"github.com/xob0t/PixelVault/pkg/stego"
)

const (
	// EnvConfig names a config file used when no path is given.
	EnvConfig = "PIXELVAULT_CONFIG"
	// EnvPassword supplies the password when no flag is given.
	EnvPassword = "PIXELVAULT_PASSWORD"

	// DefaultPath is where init writes the sample file.
	DefaultPath = "pixelvault.yaml"
)

// Argon2 tunes the argon2id KDF.
type Argon2 struct {
	Time     uint32 `yaml:"time"`
	MemoryKB uint32 `yaml:"memory_kb"`
	Threads  uint8  `yaml:"threads"`
}

// Server configures the HTTP client.
type Server struct {
	Port        int   `yaml:"port"`
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// Config is the on-disk settings file.
type Config struct {
	Encryption         string `yaml:"encryption"`
	PasswordIterations int    `yaml:"password_iterations"`
	KeyIterations      int    `yaml:"key_iterations"`
	KDF                string `yaml:"kdf"`
	Argon2             Argon2 `yaml:"argon2"`
	StrictCapacity     bool   `yaml:"strict_capacity"`
	OutputFormat       string `yaml:"output_format"`
	LogLevel           string `yaml:"log_level"`
	Server             Server `yaml:"server"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

// Load reads the file at path. An empty path falls back to $PIXELVAULT_CONFIG,
// and with neither set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, fills unset fields with defaults and validates the
// result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyDefaults fills zero fields.
func applyDefaults(c *Config) {
	d := crypt.DefaultConfig()
	if c.Encryption == "" {
		c.Encryption = string(crypt.ModeAES)
	}
	if c.PasswordIterations == 0 {
		c.PasswordIterations = d.PasswordIterations
	}
	if c.KeyIterations == 0 {
		c.KeyIterations = d.KeyIterations
	}
	if c.KDF == "" {
		c.KDF = string(d.KDF)
	}
	if c.Argon2.Time == 0 {
		c.Argon2.Time = d.Argon2Time
	}
	if c.Argon2.MemoryKB == 0 {
		c.Argon2.MemoryKB = d.Argon2Memory
	}
	if c.Argon2.Threads == 0 {
		c.Argon2.Threads = d.Argon2Threads
	}
	if c.OutputFormat == "" {
		c.OutputFormat = string(medium.PNG)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 64
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := crypt.ParseMode(c.Encryption); err != nil {
		return err
	}
	if err := c.Crypto().Validate(); err != nil {
		return err
	}
	if _, err := medium.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("output_format: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	return nil
}

// Warnings lists settings that work but weaken or break compatibility.
// They are never fatal.
func (c *Config) Warnings() []string {
	d := crypt.DefaultConfig()
	var warnings []string
	if mode, _ := crypt.ParseMode(c.Encryption); mode == crypt.ModeNone {
		warnings = append(warnings, "encryption is none: hidden files are stored in clear")
	}
	if c.PasswordIterations != d.PasswordIterations {
		warnings = append(warnings, fmt.Sprintf("password_iterations %d differs from %d: other tools cannot authenticate these images", c.PasswordIterations, d.PasswordIterations))
	}
	if crypt.KDF(strings.ToLower(c.KDF)) == crypt.KDFPBKDF2 && c.KeyIterations < d.KeyIterations {
		warnings = append(warnings, fmt.Sprintf("key_iterations %d is below %d", c.KeyIterations, d.KeyIterations))
	}
	if crypt.KDF(strings.ToLower(c.KDF)) == crypt.KDFArgon2id {
		warnings = append(warnings, "kdf argon2id: images can only be extracted with the same setting")
	}
	return warnings
}

// Crypto converts the hashing settings.
func (c *Config) Crypto() crypt.Config {
	return crypt.Config{
		PasswordIterations: c.PasswordIterations,
		KeyIterations:      c.KeyIterations,
		KDF:                crypt.KDF(strings.ToLower(c.KDF)),
		Argon2Time:         c.Argon2.Time,
		Argon2Memory:       c.Argon2.MemoryKB,
		Argon2Threads:      c.Argon2.Threads,
	}
}

// Options builds codec options. log may be nil.
func (c *Config) Options(log *logrus.Logger) (stego.Options, error) {
	mode, err := crypt.ParseMode(c.Encryption)
	if err != nil {
		return stego.Options{}, err
	}
	return stego.Options{
		Crypto:         c.Crypto(),
		Encryption:     mode,
		StrictCapacity: c.StrictCapacity,
		Logger:         log,
	}, nil
}

// Codec builds a codec from the settings.
func (c *Config) Codec(log *logrus.Logger) (*stego.Codec, error) {
	opts, err := c.Options(log)
	if err != nil {
		return nil, err
	}
	return stego.NewCodec(opts)
}

// NewLogger returns a text logger on w at the configured level.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
