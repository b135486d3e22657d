package tfa

import (
	"encoding/binary"
	"fmt"

	"github.com/alepar/tfasensor/tfa/lfsr"
)

// Telegram is one decoded transmission of a TFA 30.32xx sensor. All accessors
// are pure functions of the code it was created with.
type Telegram struct {
	code     uint64
	size     uint8
	protocol uint8
	verified bool
}

// NewTelegram wraps a code as delivered by the receiver. As a side effect the
// telegram is recorded in h, replacing whatever was recorded before, and is
// marked verified when the previous entry of h was the same telegram. A nil h
// disables verification.
func NewTelegram(h *History, protocol uint8, code uint64, size uint8) *Telegram {
	t := &Telegram{code: code, size: size, protocol: protocol}
	if h != nil {
		t.verified = h.Observe(code, size, protocol)
	}
	return t
}

func (t *Telegram) Code() uint64    { return t.code }
func (t *Telegram) Size() uint8     { return t.size }
func (t *Telegram) Protocol() uint8 { return t.protocol }

func (t *Telegram) Address() uint8 {
	return uint8(fieldAddress.extract(t.code))
}

// Checksum is the checksum as transmitted.
func (t *Telegram) Checksum() uint8 {
	return uint8(fieldChecksum.extract(t.code))
}

// Channel is the raw channel, 0-3. The sensor displays it as Channel()+1.
func (t *Telegram) Channel() uint8 {
	return uint8(fieldChannel.extract(t.code))
}

func (t *Telegram) DisplayChannel() uint8 {
	return t.Channel() + 1
}

// Temperature in degrees Celsius, -50.0 to 359.5.
func (t *Telegram) Temperature() float32 {
	raw := int(fieldTemperature.extract(t.code))
	return float32(raw-temperatureOffset) / temperatureScale
}

func (t *Telegram) Humidity() float32 {
	return float32(fieldHumidity.extract(t.code))
}

// BatteryOK reports the inverted battery bit: a cleared bit means the battery
// is fine.
func (t *Telegram) BatteryOK() bool {
	return fieldBattery.extract(t.code) == 0
}

func (t *Telegram) SendMode() SendMode {
	return SendMode(fieldSendMode.extract(t.code))
}

// ComputedChecksum is the digest over the address, flags, temperature and
// humidity bytes.
func (t *Telegram) ComputedChecksum() uint8 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(fieldDigest.extract(t.code)))
	return lfsr.Digest8Reflect(b[:], DigestGenerator, DigestKey)
}

func (t *Telegram) ChecksumOK() bool {
	return t.ComputedChecksum() == t.Checksum()
}

// Verified reports whether the telegram recorded just before this one was
// identical apart from the toggle bit.
func (t *Telegram) Verified() bool {
	return t.verified
}

func (t *Telegram) Values() SensorValues {
	return SensorValues{
		Address:     t.Address(),
		Channel:     t.DisplayChannel(),
		Temperature: t.Temperature(),
		Humidity:    t.Humidity(),
		BatteryOK:   t.BatteryOK(),
		SendMode:    t.SendMode(),
		Verified:    t.verified,
	}
}

func (t *Telegram) String() string {
	return fmt.Sprintf("{Proto:%d Bits:%d Code:0x%011X Addr:0x%02X Ch:%d Temp:%.1f Hum:%.0f Bat:%t Mode:%s Sum:0x%02X/0x%02X Verified:%t}",
		t.protocol, t.size, t.code, t.Address(), t.DisplayChannel(), t.Temperature(), t.Humidity(),
		t.BatteryOK(), t.SendMode(), t.Checksum(), t.ComputedChecksum(), t.verified)
}
