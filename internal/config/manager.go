package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const envPrefix = "GRABTUNE_"

// Manager owns the current configuration. It loads with the precedence
// defaults < config file < environment, persists edits back to the file,
// and notifies listeners on every change so running components can pick up
// new values.
type Manager struct {
	mu       sync.RWMutex
	path     string
	current  Config
	onChange []func(Config)
	logger   zerolog.Logger
}

// NewManager creates a manager bound to the given config file path. The
// file does not have to exist yet; Load falls back to defaults.
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: log.With().Str("component", "config").Logger(),
	}
}

// Path returns the config file location this manager reads and writes.
func (m *Manager) Path() string {
	return m.path
}

// Load reads configuration from all sources and validates the result.
func (m *Manager) Load() error {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := k.Load(file.Provider(m.path), kjson.Parser()); err != nil {
			return fmt.Errorf("load config file %q: %w", m.path, err)
		}
	}

	// GRABTUNE_SERVER__ADDR -> server.addr; single underscores stay as-is
	// so flat keys like output_path keep their names.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()

	m.logger.Debug().Str("path", m.path).Msg("configuration loaded")
	return nil
}

// Snapshot returns a copy of the current configuration. The queue calls
// this on every dispatch so it never caches stale settings.
func (m *Manager) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update validates, stores, and persists a new configuration, then fires
// change listeners.
func (m *Manager) Update(cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	listeners := append([]func(Config){}, m.onChange...)
	m.mu.Unlock()

	if err := m.save(cfg); err != nil {
		return err
	}

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// OnChange registers a listener invoked with the new configuration after
// every successful Update or watched-file reload.
func (m *Manager) OnChange(fn func(Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// save writes the configuration as pretty JSON, creating the parent
// directory when needed.
func (m *Manager) save(cfg Config) error {
	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Watch reloads the configuration whenever the config file changes on disk
// and fires change listeners. It blocks until the watcher fails or stop is
// closed.
func (m *Manager) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file atomically,
	// which would invalidate a watch on the file itself.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	for {
		select {
		case <-stop:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := m.Load(); err != nil {
				m.logger.Warn().Err(err).Msg("ignoring invalid config file edit")
				continue
			}

			cfg := m.Snapshot()
			m.mu.RLock()
			listeners := append([]func(Config){}, m.onChange...)
			m.mu.RUnlock()
			for _, fn := range listeners {
				fn(cfg)
			}
			m.logger.Info().Msg("configuration reloaded from disk")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// defaultMap flattens Default() into koanf keys so every key is known even
// when the config file is sparse.
func defaultMap() map[string]any {
	def := Default()
	return map[string]any{
		"output_path":      def.OutputPath,
		"temp_path":        def.TempPath,
		"cookies_path":     def.CookiesPath,
		"itag":             def.ITag,
		"download_mode":    string(def.DownloadMode),
		"concurrent_limit": def.ConcurrentLimit,
		"save_cover":       def.SaveCover,
		"cover_size":       def.CoverSize,
		"cover_format":     string(def.CoverFormat),
		"cover_quality":    def.CoverQuality,
		"template_folder":  def.TemplateFolder,
		"template_file":    def.TemplateFile,
		"template_date":    def.TemplateDate,
		"po_token":         def.POToken,
		"exclude_tags":     def.ExcludeTags,
		"truncate":         def.Truncate,
		"overwrite":        def.Overwrite,
		"no_synced_lyrics": def.NoSyncedLyrics,
		"server.addr":      def.Server.Addr,
		"log.level":        def.Log.Level,
	}
}
