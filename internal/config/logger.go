package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	l.SetLevel(logrus.DebugLevel)
	return l
}

// ConfigureLogging applies LOGLEVEL and TECHTRENDS_LOG_FILE. The returned
// closer releases the log file, if one was opened.
func ConfigureLogging() (io.Closer, error) {

	logger.SetLevel(ParseLogLevel(StringValue("LOGLEVEL")))

	path := StringValue("TECHTRENDS_LOG_FILE")
	if path == "" {
		logger.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))

	return f, nil
}

// SetLogOutput redirects log output, mainly for tests.
func SetLogOutput(out io.Writer) {
	logger.SetOutput(out)
}

// ParseLogLevel maps LOGLEVEL names onto logrus levels. Unknown names give
// DEBUG, the documented default.
func ParseLogLevel(name string) logrus.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRITICAL", "FATAL":
		return logrus.FatalLevel
	case "ERROR":
		return logrus.ErrorLevel
	case "WARNING", "WARN":
		return logrus.WarnLevel
	case "INFO":
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// Public methods
func LogInfo(ctx context.Context, msg string) {
	writeToLog(ctx, logrus.InfoLevel, msg)
}

func LogError(ctx context.Context, msg string) {
	writeToLog(ctx, logrus.ErrorLevel, msg)
}

func LogWarn(ctx context.Context, msg string) {
	writeToLog(ctx, logrus.WarnLevel, msg)
}

func LogDebug(ctx context.Context, msg string) {
	writeToLog(ctx, logrus.DebugLevel, msg)
}

// Private methods
func writeToLog(ctx context.Context, level logrus.Level, msg string) {

	if !logger.IsLevelEnabled(level) {
		return
	}

	req := GetContextRequestInfo(ctx)

	logger.WithFields(logrus.Fields{
		"cid":         GetContextCorrelationId(ctx),
		"remote_addr": req.RemoteAddr,
		"url":         req.URL,
		"elapsed":     sinceCreated(ctx),
	}).Log(level, msg)
}

func sinceCreated(ctx context.Context) string {

	created := GetContextTimeCreated(ctx)
	if created == -1 {
		return "0.0s"
	}
	t := time.Since(time.Unix(0, created)).Seconds()

	return fmt.Sprintf("%.1fs", t)
}
