// Package useragent derives a coarse device snapshot from a User-Agent
// header: browser family, operating system and device class. It powers
// the "active devices" overview on the account page; it is not a full
// UA parser and deliberately ignores versions.
package useragent

import "strings"

// DeviceType classifies the requesting device.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceBot     DeviceType = "bot"
	DeviceUnknown DeviceType = "unknown"
)

// UserAgent is the parsed device snapshot.
type UserAgent struct {
	Browser string     `json:"browser"`
	OS      string     `json:"os"`
	Device  DeviceType `json:"device"`
	Raw     string     `json:"raw,omitempty"`
}

// Parse extracts a device snapshot from a User-Agent string.
func Parse(raw string) UserAgent {
	ua := UserAgent{
		Browser: "Unknown",
		OS:      "Unknown",
		Device:  DeviceUnknown,
		Raw:     raw,
	}
	if raw == "" {
		return ua
	}

	lower := strings.ToLower(raw)

	switch {
	case strings.Contains(lower, "bot"), strings.Contains(lower, "crawler"),
		strings.Contains(lower, "spider"), strings.Contains(lower, "curl"):
		ua.Device = DeviceBot
	case strings.Contains(lower, "ipad"),
		strings.Contains(lower, "tablet"):
		ua.Device = DeviceTablet
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "iphone"),
		strings.Contains(lower, "android"):
		ua.Device = DeviceMobile
	default:
		ua.Device = DeviceDesktop
	}

	// Order matters: Edge and Opera embed "chrome", Chrome and Safari
	// both carry "safari".
	switch {
	case strings.Contains(lower, "edg/"), strings.Contains(lower, "edge"):
		ua.Browser = "Edge"
	case strings.Contains(lower, "opr/"), strings.Contains(lower, "opera"):
		ua.Browser = "Opera"
	case strings.Contains(lower, "firefox"):
		ua.Browser = "Firefox"
	case strings.Contains(lower, "chrome"):
		ua.Browser = "Chrome"
	case strings.Contains(lower, "safari"):
		ua.Browser = "Safari"
	}

	switch {
	case strings.Contains(lower, "windows"):
		ua.OS = "Windows"
	case strings.Contains(lower, "android"):
		ua.OS = "Android"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipad"),
		strings.Contains(lower, "ios"):
		ua.OS = "iOS"
	case strings.Contains(lower, "mac os"), strings.Contains(lower, "macintosh"):
		ua.OS = "macOS"
	case strings.Contains(lower, "linux"):
		ua.OS = "Linux"
	}

	return ua
}
