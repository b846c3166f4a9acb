// Package audio handles input-device discovery and microphone capture.
package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional fallback context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns available Pulse input sources.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("mistri"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pulse server: %v", ErrDeviceAccess, err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("%w: read default source: %v", ErrDeviceAccess, err)
	}
	defaultID := defaultSource.ID()

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("%w: list sources: %v", ErrDeviceAccess, err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves input/fallback preferences against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return pickDevice(devices, input, fallback)
}

// pickDevice applies selection policy: the preferred input when it is usable,
// otherwise the named fallback, otherwise the server default.
func pickDevice(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, fmt.Errorf("%w: no input devices found", ErrDeviceAccess)
	}

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	primary := matchDevice(devices, input)
	if input != "" && input != "default" && primary == nil {
		return Selection{}, fmt.Errorf("%w: input %q did not match any device", ErrDeviceAccess, input)
	}
	if primary == nil {
		primary = defaultDevice(devices)
	}
	if primary == nil {
		return Selection{}, fmt.Errorf("%w: default input source is unavailable", ErrDeviceAccess)
	}
	if primary.Available && !primary.Muted {
		return Selection{Device: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alternate := matchDevice(devices, fallback)
	if alternate == nil {
		alternate = defaultDevice(devices)
	}
	if alternate == nil || !alternate.Available || alternate.Muted {
		return Selection{}, fmt.Errorf("%w: input %q is %s and no usable fallback exists", ErrDeviceAccess, primary.ID, reason)
	}

	return Selection{
		Device:   *alternate,
		Warning:  fmt.Sprintf("input %q is %s; falling back to %q", primary.ID, reason, alternate.ID),
		Fallback: primary.ID != alternate.ID,
	}, nil
}

// matchDevice finds the first device whose id or description contains term.
func matchDevice(devices []Device, term string) *Device {
	if term == "" || term == "default" {
		return nil
	}
	for i := range devices {
		dev := &devices[i]
		if strings.Contains(strings.ToLower(dev.ID), term) ||
			strings.Contains(strings.ToLower(dev.Description), term) {
			return dev
		}
	}
	return nil
}

func defaultDevice(devices []Device) *Device {
	for i := range devices {
		if devices[i].Default {
			return &devices[i]
		}
	}
	return nil
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
