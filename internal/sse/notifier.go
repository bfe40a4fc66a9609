package sse

import (
	"time"

	"github.com/elektromart/bundle_api/internal/models"
)

// BundleNotifier is the interface services use to emit bundle change events.
type BundleNotifier interface {
	NotifyBundleSaved(b *models.Bundle)
	NotifyBundleDeleted(bundleID int64)
}

// HubNotifier implements BundleNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyBundleSaved(b *models.Bundle) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&BundleEvent{
		Event:     EventBundleSaved,
		BundleID:  b.ID,
		Slug:      b.Slug,
		Name:      b.Name,
		IsActive:  b.IsActive,
		Timestamp: time.Now(),
	})
}

func (n *HubNotifier) NotifyBundleDeleted(bundleID int64) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&BundleEvent{
		Event:     EventBundleDeleted,
		BundleID:  bundleID,
		Timestamp: time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyBundleSaved(b *models.Bundle) {}
func (n *NopNotifier) NotifyBundleDeleted(bundleID int64) {}
