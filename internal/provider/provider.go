package provider

import (
	"context"
	"errors"
	"fmt"

	"heating_scheduler/internal/logger"
	"heating_scheduler/internal/models"
)

var (
	// ErrDeviceNotFound is returned when a device name is unknown to the vendor account.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrRejected is returned when the vendor answered a mode change with an error payload.
	ErrRejected = errors.New("mode change rejected")
)

// Provider is the capability set one device family exposes to the reconciler.
type Provider interface {
	Family() models.Family
	ListDevices(ctx context.Context) ([]string, error)
	GetStatus(ctx context.Context, device string) (models.LiveStatus, error)
	SetMode(ctx context.Context, device, mode string) error
	Close() error
}

// CollectStatus lists the provider's devices and fetches each status once.
// A device whose status cannot be read is reported offline; only a listing
// failure is returned as an error.
func CollectStatus(ctx context.Context, p Provider, log *logger.Logger) (map[string]models.LiveStatus, error) {
	devices, err := p.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s devices: %w", p.Family(), err)
	}
	out := make(map[string]models.LiveStatus, len(devices))
	for _, device := range devices {
		st, err := p.GetStatus(ctx, device)
		if err != nil {
			log.Warnw("device_status_failed", "family", p.Family(), "device", device, "err", err)
			out[device] = models.LiveStatus{Online: false}
			continue
		}
		log.Debugw("device_status", "family", p.Family(), "device", device, "status", st.Status, "online", st.Online)
		out[device] = st
	}
	return out, nil
}
