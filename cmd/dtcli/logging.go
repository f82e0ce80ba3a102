package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

func setupLogging(level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// logToFile redirects logging into <config-dir>/dtcli.log while the TUI owns the
// terminal. The returned function restores stderr.
func logToFile(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "dtcli.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logrus.SetOutput(f)
	return func() {
		logrus.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
