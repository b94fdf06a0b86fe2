// Package config contains configuration options for the jsonapi client as
// well as config loading from file.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bjornharrtell/json-api/logging"
)

// Log contains logging options. If logging is enabled, the client packages
// will configure a logger of the chosen provider and use it for trace-level
// messages about requests and normalization.
type Log struct {
	// Enabled is whether to enable built-in logging statements.
	Enabled bool

	// Provider must be the name of one of the logging providers. If set to
	// None or unset, it will default to logging.Jellog.
	Provider logging.Provider

	// File to log to. If not set, all logging will be done to stderr and it
	// will display all logging statements. If set, the file will receive all
	// levels of log messages and stderr will show only those of Info level
	// or higher.
	File string
}

func (log Log) Create() (logging.Logger, error) {
	return logging.New(log.Provider, log.File)
}

func (log Log) FillDefaults() Log {
	newLog := log

	if newLog.Provider == logging.None {
		newLog.Provider = logging.Jellog
	}

	return newLog
}

func (log Log) Validate() error {
	if log.Provider == logging.None {
		return fmt.Errorf("provider: must not be empty")
	}

	return nil
}

// Config is a complete configuration for the client. It contains all
// parameters that can be used to configure its operation.
type Config struct {

	// Endpoint is the base URL that resource paths are appended to, e.g.
	// "https://api.example.com". Required for the HTTP transport.
	Endpoint string

	// ConvertCase is whether kebab-case attribute and relationship names
	// from the wire are converted to camelCase in-memory names. When false,
	// names are taken as-is.
	ConvertCase bool

	// Timeout is the per-request timeout of the HTTP transport. It will
	// default to 30 seconds if none is given.
	Timeout time.Duration

	// AtomicPath is the path, relative to Endpoint, that atomic operations
	// batches are posted to. It will default to "/operations" if none is
	// given.
	AtomicPath string

	// Headers are default headers sent with every request. Per-request
	// headers with the same name take precedence.
	Headers map[string]string

	// Log is used to configure the built-in logging system. It can be left
	// blank to disable logging entirely.
	Log Log
}

// FillDefaults returns a new Config identical to cfg but with unset values
// set to their defaults.
func (cfg Config) FillDefaults() Config {
	newCFG := cfg

	if newCFG.Timeout == 0 {
		newCFG.Timeout = 30 * time.Second
	}
	if newCFG.AtomicPath == "" {
		newCFG.AtomicPath = "/operations"
	}
	newCFG.Log = newCFG.Log.FillDefaults()

	return newCFG
}

// Validate returns an error if the Config has invalid field values set. Empty
// and unset values are considered invalid; if defaults are intended to be
// used, call Validate on the return value of FillDefaults.
func (cfg Config) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("endpoint: must not be empty")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint: scheme must be http or https")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout: must not be negative")
	}
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
