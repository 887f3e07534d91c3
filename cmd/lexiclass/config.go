package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// ConfigPath points at a YAML file with classifier options.
	ConfigPath string `env:"LEXICLASS_CONFIG"`
	// Backend is one of file, sqlite or badger.
	Backend   string `env:"LEXICLASS_BACKEND,default=file"`
	StorePath string `env:"LEXICLASS_STORE,default=lexiclass.json"`
	// Name selects the classifier inside a shared sqlite or badger store.
	Name string `env:"LEXICLASS_NAME,default=default"`
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
