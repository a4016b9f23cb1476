// Package cmd provides shared constructors for the binaries.
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/opsmith/agentforge/pkg/actions/httprequest"
	logaction "github.com/opsmith/agentforge/pkg/actions/log"
	"github.com/opsmith/agentforge/pkg/actions/transform"
	"github.com/opsmith/agentforge/pkg/channels/gochannel"
	"github.com/opsmith/agentforge/pkg/eventbus"
	"github.com/opsmith/agentforge/pkg/persistence"
	filepersistence "github.com/opsmith/agentforge/pkg/persistence/file"
	"github.com/opsmith/agentforge/pkg/persistence/memory"
	"github.com/opsmith/agentforge/pkg/registry"
)

// NewPersistence selects a storage implementation from a URL:
// "file://<dir>" or "memory://".
func NewPersistence(logger *slog.Logger, url string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(url, "file://"):
		store, err := filepersistence.NewPersistence(url)
		if err != nil {
			return nil, err
		}

		logger.Info("Using file persistence", "url", url)

		return store, nil
	case strings.HasPrefix(url, "memory://"):
		logger.Info("Using in-memory persistence")

		return memory.NewPersistence(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence url %q", url)
	}
}

// NewEventBus creates the in-process event bus.
func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event channel: %w", err)
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}

// NewRegistry builds the action allow-list with the built-in capabilities.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)
	reg.RegisterAction(logaction.NewActionFactory())
	reg.RegisterAction(httprequest.NewActionFactory())
	reg.RegisterAction(transform.NewActionFactory())

	return reg
}
