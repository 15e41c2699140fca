package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/matteomeli/adamant/engine/core"
)

// RendererConfig selects the presentation options the application layer
// controls.
type RendererConfig struct {
	BackBufferCount  uint32 `toml:"back_buffer_count"`
	AllowTearing     bool   `toml:"allow_tearing"`
	EnableHDR        bool   `toml:"enable_hdr"`
	EnableValidation bool   `toml:"enable_validation"`
}

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// The application name used in windowing, if applicable.
	Name     string         `toml:"name"`
	LogLevel core.LogLevel  `toml:"log_level"`
	Renderer RendererConfig `toml:"renderer"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  1280,
		StartHeight: 720,
		Name:        "Adamant Application",
		LogLevel:    core.InfoLevel,
		Renderer: RendererConfig{
			BackBufferCount: 2,
		},
	}
}

// LoadApplicationConfig reads a TOML file over the defaults; fields absent
// from the file keep their default value.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// WatchConfig re-reads the file on change and applies the settings that are
// safe to flip at runtime (currently the log level). Returns a stop
// function.
func WatchConfig(path string) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Watch the directory: editors replace files instead of writing in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				config, err := LoadApplicationConfig(path)
				if err != nil {
					core.LogWarn("config reload failed: %s", err)
					continue
				}
				core.SetLogLevel(config.LogLevel)
				core.LogInfo("Configuration reloaded from %s.", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				core.LogWarn("config watcher error: %s", err)
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		watcher.Close()
	}, nil
}
