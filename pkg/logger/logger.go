package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/user/hecvat-adk/pkg/config"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "HECVAT_LOG_LEVEL"

// NewLogger creates an hclog.Logger from the logger section of cfg.
// Output goes to stderr so command results on stdout stay parseable.
func NewLogger(cfg *config.Config, name string) hclog.Logger {
	return newLogger(cfg, name, os.Stderr)
}

func newLogger(cfg *config.Config, name string, out io.Writer) hclog.Logger {
	var lc config.LoggerConfig
	if cfg != nil {
		lc = cfg.Logger
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		Level:       determineLogLevel(lc, out),
		JSONFormat:  lc.JSON,
		DisableTime: !lc.JSON,
		Output:      out,
	})
}

// determineLogLevel prefers HECVAT_LOG_LEVEL, then the config, then INFO.
func determineLogLevel(lc config.LoggerConfig, out io.Writer) hclog.Level {
	if env := os.Getenv(EnvLogLevel); env != "" {
		return parseLogLevel(strings.ToUpper(env), out)
	}
	if lc.Level == "" {
		return hclog.Info
	}
	return parseLogLevel(strings.ToUpper(lc.Level), out)
}

func parseLogLevel(levelStr string, out io.Writer) hclog.Level {
	switch levelStr {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		hclog.New(&hclog.LoggerOptions{
			Level:       hclog.Warn,
			DisableTime: true,
			Output:      out,
		}).Warn("unrecognized log level, defaulting to INFO", "provided_level", levelStr)
		return hclog.Info
	}
}
