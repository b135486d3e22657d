package tfa

import (
	"fmt"

	"github.com/pkg/errors"
)

type SendMode uint8

const (
	SendModeAuto SendMode = iota
	SendModeManual
)

func (m SendMode) String() string {
	switch m {
	case SendModeAuto:
		return "auto"
	case SendModeManual:
		return "manual"
	default:
		return fmt.Sprintf("SendMode(%d)", uint8(m))
	}
}

func (m SendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SendMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "auto":
		*m = SendModeAuto
	case "manual":
		*m = SendModeManual
	default:
		return errors.Errorf("unknown send mode %q", text)
	}
	return nil
}

type SensorValues struct {
	// random id, changes when the sensor loses power
	Address uint8 `json:"address"`

	// as shown on the sensor display, 1-3
	Channel uint8 `json:"channel"`

	// units: degrees Celsius
	Temperature float32 `json:"temperature"`

	// units: % of relative Humidity
	Humidity float32 `json:"humidity"`

	BatteryOK bool     `json:"battery_ok"`
	SendMode  SendMode `json:"send_mode"`

	// the same telegram was received twice in a row
	Verified bool `json:"verified"`
}
