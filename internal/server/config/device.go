package config

import (
	"os"
	"strings"
)

// DeviceIDLength is the width device ids are left-padded to.
const DeviceIDLength = 16

// UnknownDeviceID is used when no id is configured and the host name
// cannot be read.
const UnknownDeviceID = "UNKNOWN"

// ResolveDeviceID returns the configured device id, or one derived from
// the host name, left-padded with '0' to DeviceIDLength.
func ResolveDeviceID(cfg *SecuritySection) string {
	id := cfg.DeviceID
	if id == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			return UnknownDeviceID
		}
		id = host
	}
	return padLeft(id, DeviceIDLength, '0')
}

func padLeft(s string, width int, pad byte) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(string(pad), width-len(s)) + s
}
