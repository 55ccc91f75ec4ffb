package watcher

import (
	"fmt"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/debug"
)

// ConfigReloader re-reads the configuration file whenever it changes and
// hands each successfully parsed version to OnReload. Parse and validation
// failures go to OnError and leave the previous configuration in effect.
type ConfigReloader struct {
	watcher  *Watcher
	onReload func(config.Config)
	onError  func(error)
}

// NewConfigReloader watches path. Both callbacks may be nil.
func NewConfigReloader(path string, onReload func(config.Config), onError func(error), opts ...WatcherOption) (*ConfigReloader, error) {
	r := &ConfigReloader{
		onReload: onReload,
		onError:  onError,
	}
	if r.onReload == nil {
		r.onReload = func(config.Config) {}
	}
	if r.onError == nil {
		r.onError = func(error) {}
	}

	opts = append(opts, WithOnChange(r.reload), WithOnError(r.onError))
	w, err := NewWatcher(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("watching config: %w", err)
	}
	r.watcher = w
	return r, nil
}

// Start begins watching.
func (r *ConfigReloader) Start() error {
	return r.watcher.Start()
}

// Stop stops watching.
func (r *ConfigReloader) Stop() {
	r.watcher.Stop()
}

// Watcher exposes the underlying file watcher.
func (r *ConfigReloader) Watcher() *Watcher {
	return r.watcher
}

func (r *ConfigReloader) reload() {
	cfg, err := config.LoadFrom(r.watcher.Path())
	if err != nil {
		debug.Log("watcher: reload failed: %v", err)
		r.onError(fmt.Errorf("reloading config: %w", err))
		return
	}
	debug.Log("watcher: reloaded %s", r.watcher.Path())
	r.onReload(cfg)
}
