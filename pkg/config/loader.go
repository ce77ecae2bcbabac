package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader loads and watches configuration from a YAML file.
type Loader struct {
	path     string
	onChange func(*Config)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOnChange sets a callback invoked when the config file changes.
func WithOnChange(fn func(*Config)) LoaderOption {
	return func(l *Loader) {
		l.onChange = fn
	}
}

// NewLoader creates a Loader for the given file path.
func NewLoader(path string, opts ...LoaderOption) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	l := &Loader{path: absPath}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load reads, parses, and processes the configuration.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", l.path, err)
	}

	return Parse(data)
}

// Parse builds a Config from raw YAML or JSON bytes: parse into a map,
// expand environment variables, decode, default, validate.
func Parse(data []byte) (*Config, error) {
	rawMap, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	expanded, _ := ExpandEnvVarsInData(rawMap).(map[string]interface{})
	if expanded == nil {
		expanded = map[string]interface{}{}
	}

	cfg := &Config{}
	if err := decodeConfig(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Watch watches the config file for changes. On each change the config is
// reloaded and the onChange callback invoked. Blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return fmt.Errorf("loader is closed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	l.watcher = watcher
	l.mu.Unlock()

	// Watch the directory containing the file
	// (some systems don't support watching files directly)
	configDir := filepath.Dir(l.path)
	configFile := filepath.Base(l.path)

	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", configDir, err)
	}

	slog.Info("Watching config file", "path", l.path)

	ch := make(chan struct{}, 1)
	go l.watchLoop(ctx, watcher, configFile, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}

			cfg, err := l.Load(ctx)
			if err != nil {
				slog.Error("Failed to reload config", "error", err)
				continue
			}

			slog.Info("Configuration reloaded")
			if l.onChange != nil {
				l.onChange(cfg)
			}
		}
	}
}

func (l *Loader) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, configFile string, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	// Debounce timer to coalesce rapid changes
	var debounceTimer *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != configFile {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					select {
					case ch <- struct{}{}:
						slog.Debug("Config file changed", "path", l.path)
					default:
						// Change already pending
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// Close stops watching and releases resources.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.watcher != nil {
		err := l.watcher.Close()
		l.watcher = nil
		return err
	}
	return nil
}

// LoadFile is a convenience function that creates a loader and loads the
// config. A missing path yields the default configuration.
func LoadFile(ctx context.Context, path string, opts ...LoaderOption) (*Config, *Loader, error) {
	if path == "" {
		return Default(), nil, nil
	}

	loader, err := NewLoader(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loader.Load(ctx)
	if err != nil {
		loader.Close()
		return nil, nil, err
	}

	return cfg, loader, nil
}

// parseBytes parses raw bytes into a map.
// Supports YAML (primary) and JSON (fallback).
func parseBytes(data []byte) (map[string]interface{}, error) {
	var result map[string]interface{}

	if err := yaml.Unmarshal(data, &result); err == nil {
		return result, nil
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse as YAML or JSON: %w", err)
	}

	return result, nil
}

// decodeConfig decodes a map into a Config struct using mapstructure.
func decodeConfig(input map[string]interface{}, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	return nil
}
