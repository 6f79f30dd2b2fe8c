package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, sessionName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", sessionName, sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel converts a string log level to zerolog.Level, defaulting to
// info on unrecognized input.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup configures the logger: colored console output, a no-color copy to
// file (when file is non-nil), and an optional GELF writer when
// graylog.enabled is set. The level comes from the logLevel config key.
func Setup(file io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(viper.GetString("logLevel")))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if viper.GetBool("graylog.enabled") {
		gelfWriter, err := gelf.NewWriter(viper.GetString("graylog.address"))
		if err == nil {
			writers = append(writers, gelfWriter)
		} else {
			fmt.Fprintf(os.Stderr, "failed to connect GELF writer: %v\n", err)
		}
	}

	mlw := zerolog.MultiLevelWriter(writers...)

	return zerolog.New(mlw).With().
		Timestamp().
		Str("session", viper.GetString("sessionName")).
		Logger()
}
