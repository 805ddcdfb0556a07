package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager hands out the current configuration and hot-reloads it when the
// config file changes on disk. An invalid edit keeps the previous config.
type Manager struct {
	mu      sync.RWMutex
	config  *Config
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewManager() (*Manager, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		log.Printf("config: validation warning: %v", err)
	}

	return &Manager{config: config}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// copy so callers cannot mutate shared state
	configCopy := *m.config
	return &configCopy
}

func (m *Manager) StartWatching(ctx context.Context) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	// watch the directory: editors replace the file rather than write it
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, configPath)

	log.Printf("config: watching %s for changes", configPath)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, configPath string) {
	defer m.wg.Done()
	configFileName := filepath.Base(configPath)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				log.Printf("config: file change detected, reloading")
				m.reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	newConfig, err := Load()
	if err != nil {
		log.Printf("config: reload failed: %v", err)
		return
	}

	if err := newConfig.Validate(); err != nil {
		log.Printf("config: invalid config after reload, keeping previous: %v", err)
		return
	}

	m.mu.Lock()
	m.config = newConfig
	m.mu.Unlock()

	log.Printf("config: configuration reloaded")
}
