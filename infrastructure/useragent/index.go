package useragent

import (
	"fmt"

	"github.com/mileusna/useragent"
)

func ParseUserAgent(userAgent string) *UserAgent {
	parsed := useragent.Parse(userAgent)
	return &UserAgent{
		Bot:       parsed.Bot,
		OS:        parsed.OS,
		OSVersion: parsed.VersionNoFull(),
		Device:    parsed.Device,
		Name:      parsed.Name,
	}
}

// DeviceLabel is the human readable name stored against a user's device.
func (ua *UserAgent) DeviceLabel() string {
	if ua.OS == "" {
		return ua.Name
	}
	return fmt.Sprintf("%s on %s %s", ua.Name, ua.OS, ua.OSVersion)
}
