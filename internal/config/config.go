// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config file
// and environment variables.
//
// Precedence, lowest first: defaults, config file, flags, environment.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/surya9901/diary-manager-backend/internal/notify"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string. When empty the
	// server keeps its data in memory.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs session tokens.
	JWTSecret string `json:"jwt_secret"`

	LogLevel string `json:"log_level"`

	Mail notify.MailConfig `json:"-"`

	// StrictReset requires a verified PIN before a password can be replaced.
	StrictReset bool `json:"strict_reset"`

	// PinRetention is how long an unverified reset PIN stays valid before the
	// sweeper clears it. Zero disables the sweeper.
	PinRetention time.Duration `json:"-"`
	// SweepInterval is how often the sweeper runs.
	SweepInterval time.Duration `json:"-"`

	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// fileOptions mirrors the parts of Options that need a different shape in JSON.
type fileOptions struct {
	*Options
	PinRetention  string `json:"pin_retention"`
	SweepInterval string `json:"pin_sweep_interval"`
	SMTP          struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		SSL      bool   `json:"ssl"`
		AuthType string `json:"auth_type"`
		Username string `json:"username"`
		Password string `json:"password"`
		From     string `json:"from"`
	} `json:"smtp"`
}

func defaults() *Options {
	return &Options{
		Port:          "localhost:8080",
		LogLevel:      "info",
		SweepInterval: time.Hour,
		Mail:          notify.MailConfig{Port: 587, AuthType: "PLAIN"},
		Config:        "config.json",
	}
}

func newFlagSet(o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("diary", flag.ContinueOnError)
	fs.StringVar(&o.Port, "a", o.Port, "run on ip:port server")
	fs.StringVar(&o.DatabaseDSN, "d", o.DatabaseDSN, "db address")
	fs.StringVar(&o.JWTSecret, "s", o.JWTSecret, "session token signing secret")
	fs.StringVar(&o.LogLevel, "l", o.LogLevel, "log level")
	fs.StringVar(&o.Mail.Host, "smtp-host", o.Mail.Host, "SMTP server host")
	fs.IntVar(&o.Mail.Port, "smtp-port", o.Mail.Port, "SMTP server port")
	fs.BoolVar(&o.Mail.SSL, "smtp-ssl", o.Mail.SSL, "use implicit TLS for SMTP")
	fs.StringVar(&o.Mail.Username, "smtp-user", o.Mail.Username, "SMTP username")
	fs.StringVar(&o.Mail.From, "smtp-from", o.Mail.From, "sender address for reset emails")
	fs.BoolVar(&o.StrictReset, "strict-reset", o.StrictReset, "require a verified PIN before resetting a password")
	fs.DurationVar(&o.PinRetention, "pin-retention", o.PinRetention, "clear reset PINs older than this (0 disables)")
	fs.DurationVar(&o.SweepInterval, "pin-sweep-interval", o.SweepInterval, "how often stale PINs are cleared")
	fs.StringVar(&o.TLSCert, "tls-cert", o.TLSCert, "TLS certificate file")
	fs.StringVar(&o.TLSKey, "tls-key", o.TLSKey, "TLS key file")
	fs.StringVar(&o.Config, "config", o.Config, "path to config file")
	fs.StringVar(&o.Config, "c", o.Config, "path to config file (shorthand)")
	return fs
}

// Parse parses args (without the program name), the config file and the
// environment. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse(args []string) (*Options, error) {
	options := defaults()

	// First pass only locates the config file.
	probe := newFlagSet(options)
	probe.SetOutput(io.Discard)
	if err := probe.Parse(args); err != nil {
		return nil, err
	}
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options, options.Config); err != nil {
		return nil, err
	}

	// Flags given on the command line win over the file.
	if err := newFlagSet(options).Parse(args); err != nil {
		return nil, err
	}

	if err := applyEnv(options); err != nil {
		return nil, err
	}
	return options, nil
}

func loadFile(options *Options, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	file := fileOptions{Options: options}
	file.SMTP.Host = options.Mail.Host
	file.SMTP.Port = options.Mail.Port
	file.SMTP.SSL = options.Mail.SSL
	file.SMTP.AuthType = options.Mail.AuthType
	file.SMTP.Username = options.Mail.Username
	file.SMTP.Password = options.Mail.Password
	file.SMTP.From = options.Mail.From
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	options.Mail = notify.MailConfig{
		Host:     file.SMTP.Host,
		Port:     file.SMTP.Port,
		SSL:      file.SMTP.SSL,
		AuthType: file.SMTP.AuthType,
		Username: file.SMTP.Username,
		Password: file.SMTP.Password,
		From:     file.SMTP.From,
	}
	if file.PinRetention != "" {
		d, err := time.ParseDuration(file.PinRetention)
		if err != nil {
			return fmt.Errorf("config file pin_retention: %w", err)
		}
		options.PinRetention = d
	}
	if file.SweepInterval != "" {
		d, err := time.ParseDuration(file.SweepInterval)
		if err != nil {
			return fmt.Errorf("config file pin_sweep_interval: %w", err)
		}
		options.SweepInterval = d
	}
	return nil
}

func applyEnv(options *Options) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("SERVER_ADDRESS", &options.Port)
	setString("DATABASE_DSN", &options.DatabaseDSN)
	setString("JWT_SECRET", &options.JWTSecret)
	setString("LOG_LEVEL", &options.LogLevel)
	setString("SMTP_HOST", &options.Mail.Host)
	setString("SMTP_AUTH_TYPE", &options.Mail.AuthType)
	setString("SMTP_USERNAME", &options.Mail.Username)
	setString("SMTP_PASSWORD", &options.Mail.Password)
	setString("SMTP_FROM", &options.Mail.From)
	setString("TLS_CERT", &options.TLSCert)
	setString("TLS_KEY", &options.TLSKey)

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		options.Mail.Port = port
	}
	for key, dst := range map[string]*bool{
		"SMTP_SSL":     &options.Mail.SSL,
		"STRICT_RESET": &options.StrictReset,
	} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	for key, dst := range map[string]*time.Duration{
		"PIN_RETENTION":      &options.PinRetention,
		"PIN_SWEEP_INTERVAL": &options.SweepInterval,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate reports missing or inconsistent settings.
func (o *Options) Validate() error {
	var errs []error
	if o.Port == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required (-s or JWT_SECRET)"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	if o.PinRetention < 0 || o.SweepInterval < 0 {
		errs = append(errs, errors.New("pin retention and sweep interval must not be negative"))
	}
	if o.Mail.Host != "" {
		if err := o.Mail.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("smtp: %w", err))
		}
	}
	return errors.Join(errs...)
}
