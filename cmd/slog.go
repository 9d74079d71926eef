package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var once sync.Once

func init() {
	once.Do(func() {
		logger, err := newLogger(os.Getenv("LOG_LEVEL"), getModulePrefix(), os.Stdout, os.Stderr)
		if err != nil {
			panic(err)
		}
		slog.SetDefault(logger)
		logger.Info("logging configured", "level", os.Getenv("LOG_LEVEL"))
	})
}

// newLogger builds the process logger: colored tint output with trimmed
// source paths at debug level, JSON on stderr otherwise.
func newLogger(levelText, modulePrefix string, stdout, stderr io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if levelText != "" {
		if err := level.UnmarshalText([]byte(levelText)); err != nil {
			return nil, fmt.Errorf("invalid log level: %s", levelText)
		}
	}

	if level > slog.LevelDebug {
		return slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})), nil
	}

	replacer := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			if source, ok := a.Value.Any().(*slog.Source); ok {
				source.File = cleanSourcePath(source.File, modulePrefix)
			}
		}
		if err, ok := a.Value.Any().(error); ok {
			aErr := tint.Err(err)
			aErr.Key = a.Key
			return aErr
		}
		return a
	}

	return slog.New(tint.NewHandler(stdout, &tint.Options{
		Level:       level,
		TimeFormat:  time.TimeOnly,
		ReplaceAttr: replacer,
		AddSource:   true,
	})), nil
}

// getModulePrefix returns "/<last module path element>/" from the build info
func getModulePrefix() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path == "" {
		if wd, err := os.Getwd(); err == nil {
			return "/" + filepath.Base(wd) + "/"
		}
		return "/stationcargo/"
	}
	return "/" + pathBase(info.Main.Path) + "/"
}

func pathBase(modulePath string) string {
	if i := strings.LastIndex(modulePath, "/"); i >= 0 {
		return modulePath[i+1:]
	}
	return modulePath
}

// cleanSourcePath makes source paths relative to the module root
func cleanSourcePath(filePath, modulePrefix string) string {
	if _, rest, ok := strings.Cut(filePath, modulePrefix); ok {
		return rest
	}

	if idx := strings.LastIndex(filePath, "/go/src/"); idx != -1 {
		return filePath[idx+len("/go/src/"):]
	}
	if idx := strings.LastIndex(filePath, "/src/"); idx != -1 {
		return filePath[idx+len("/src/"):]
	}
	return filePath
}
