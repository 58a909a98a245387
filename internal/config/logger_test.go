package config

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLogLevel(t *testing.T) {

	var TestCases = []struct {
		name     string
		expected logrus.Level
	}{
		{"DEBUG", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"WARNING", logrus.WarnLevel},
		{"warn", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"CRITICAL", logrus.FatalLevel},
		{"", logrus.DebugLevel},
		{"chatty", logrus.DebugLevel},
	}

	for _, tc := range TestCases {
		if result := ParseLogLevel(tc.name); result != tc.expected {
			t.Errorf("%q: got %v, expected %v", tc.name, result, tc.expected)
		}
	}
}

func TestWriteToLogFields(t *testing.T) {

	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)

	ctx := SetContextCorrelationId(context.Background(), "cid-1")
	ctx = SetContextRequestInfo(ctx, RequestInfo{RemoteAddr: "127.0.0.1", URL: "http://localhost/about"})

	LogInfo(ctx, "About page was read!")

	out := buf.String()
	for _, want := range []string{"About page was read!", "cid=cid-1", "remote_addr=127.0.0.1", "level=info"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestLogLevelFilters(t *testing.T) {

	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stdout)

	logger.SetLevel(logrus.ErrorLevel)
	defer logger.SetLevel(logrus.DebugLevel)

	LogDebug(context.Background(), "hidden debug")
	LogInfo(context.Background(), "hidden info")
	LogError(context.Background(), "visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered levels were written: %q", out)
	}
	if !strings.Contains(out, "visible error") {
		t.Errorf("error was not written: %q", out)
	}
}

func TestConfigureLoggingWritesFile(t *testing.T) {

	path := t.TempDir() + "/app.log"
	t.Setenv("TECHTRENDS_LOG_FILE", path)
	t.Setenv("LOGLEVEL", "INFO")

	closer, err := ConfigureLogging()
	if err != nil {
		t.Fatalf("ConfigureLogging: %v", err)
	}
	defer func() {
		SetLogOutput(os.Stdout)
		logger.SetLevel(logrus.DebugLevel)
	}()

	LogDebug(context.Background(), "not in file")
	LogInfo(context.Background(), "in file")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "in file") || strings.Contains(string(data), "not in file") {
		t.Errorf("unexpected log file content %q", data)
	}
}

func TestConfigureLoggingWithoutFile(t *testing.T) {

	dir := t.TempDir()
	wd, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(wd)

	t.Setenv("TECHTRENDS_LOG_FILE", "")

	closer, err := ConfigureLogging()
	if err != nil {
		t.Fatalf("ConfigureLogging: %v", err)
	}
	closer.Close()

	// the default app.log must not have been created
	if _, err := os.Stat(dir + "/app.log"); !os.IsNotExist(err) {
		t.Errorf("log file created despite empty TECHTRENDS_LOG_FILE")
	}
}
