package tfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captured from a TFA 30.3221.02:
// 1011 0001 1000 0010 1000 0101 0010 1000 0100 0011 0
const sampleCode uint64 = 0x163050a5086

var telegrams = map[string]struct {
	code        uint64
	address     uint8
	channel     uint8
	temperature float32
	humidity    float32
	batteryOK   bool
	mode        SendMode
	checksum    uint8
}{
	"sample":       {sampleCode, 0xb1, 0, 14.5, 40, false, SendModeAuto, 0x43},
	"sample|1":     {sampleCode | 1, 0xb1, 0, 14.5, 40, false, SendModeAuto, 0x43},
	"21.6":         {0x162059850a8, 0xb1, 0, 21.6, 40, true, SendModeAuto, 0x54},
	"23.3":         {0x225ba6e9c, 0x01, 1, 23.3, 55, true, SendModeAuto, 0x4e},
	"min manual":   {0xb4c000c7f8, 0x5a, 2, -50, 99, true, SendModeManual, 0xfc},
	"max low batt": {0xb57ffe00d0, 0x5a, 3, 359.5, 0, false, SendModeAuto, 0x68},
}

func TestTelegramFields(t *testing.T) {
	for name, tc := range telegrams {
		tg := NewTelegram(nil, 1, tc.code, TelegramBits)
		assert.Equalf(t, tc.address, tg.Address(), "%s address", name)
		assert.Equalf(t, tc.channel, tg.Channel(), "%s channel", name)
		assert.Equalf(t, tc.channel+1, tg.DisplayChannel(), "%s display channel", name)
		assert.InDeltaf(t, tc.temperature, tg.Temperature(), 0.001, "%s temperature", name)
		assert.Equalf(t, tc.humidity, tg.Humidity(), "%s humidity", name)
		assert.Equalf(t, tc.batteryOK, tg.BatteryOK(), "%s battery", name)
		assert.Equalf(t, tc.mode, tg.SendMode(), "%s send mode", name)
		assert.Equalf(t, tc.checksum, tg.Checksum(), "%s checksum", name)
		assert.Equalf(t, tc.checksum, tg.ComputedChecksum(), "%s computed checksum", name)
		assert.Truef(t, tg.ChecksumOK(), "%s checksum ok", name)
		assert.Falsef(t, tg.Verified(), "%s verified without history", name)
	}
}

func TestTelegramTemperatureBounds(t *testing.T) {
	at := func(raw uint64) float32 {
		return NewTelegram(nil, 1, raw<<(ToggleBits+16), TelegramBits).Temperature()
	}
	assert.Equal(t, float32(-50), at(0))
	assert.Equal(t, float32(0), at(500))
	assert.InDelta(t, 23.3, at(733), 0.001)
	assert.Equal(t, float32(359.5), at(4095))
}

func TestTelegramBatteryPolarity(t *testing.T) {
	batteryBit := uint64(1) << (ToggleBits + 31)
	assert.True(t, NewTelegram(nil, 1, 0, TelegramBits).BatteryOK())
	assert.False(t, NewTelegram(nil, 1, batteryBit, TelegramBits).BatteryOK())
}

func TestTelegramFieldsIndependent(t *testing.T) {
	// one field set to all ones at a time must not leak into the others
	for _, f := range []field{fieldChecksum, fieldHumidity, fieldTemperature, fieldChannel, fieldSendMode, fieldBattery, fieldAddress} {
		code := uint64(1<<f.width-1) << (ToggleBits + f.offset)
		for _, other := range []field{fieldChecksum, fieldHumidity, fieldTemperature, fieldChannel, fieldSendMode, fieldBattery, fieldAddress} {
			want := uint64(0)
			if other == f {
				want = 1<<f.width - 1
			}
			assert.Equalf(t, want, other.extract(code), "field %+v set, reading %+v", f, other)
		}
	}
}

func TestTelegramToggleBitIgnored(t *testing.T) {
	a := NewTelegram(nil, 1, sampleCode, TelegramBits)
	b := NewTelegram(nil, 1, sampleCode|1, TelegramBits)
	assert.Equal(t, a.Values(), b.Values())
	assert.Equal(t, a.ComputedChecksum(), b.ComputedChecksum())
}

func TestTelegramBadChecksum(t *testing.T) {
	tg := NewTelegram(nil, 1, sampleCode^(1<<ToggleBits), TelegramBits)
	assert.Equal(t, uint8(0x42), tg.Checksum())
	assert.Equal(t, uint8(0x43), tg.ComputedChecksum())
	assert.False(t, tg.ChecksumOK())
}

func TestTelegramVerification(t *testing.T) {
	var h History

	a := NewTelegram(&h, 1, sampleCode, TelegramBits)
	assert.False(t, a.Verified(), "first telegram on a fresh history")

	b := NewTelegram(&h, 1, sampleCode|1, TelegramBits)
	assert.True(t, b.Verified(), "differs only in the toggle bit")

	c := NewTelegram(&h, 2, sampleCode, TelegramBits)
	assert.False(t, c.Verified(), "other protocol")

	d := NewTelegram(&h, 2, sampleCode, TelegramBits-1)
	assert.False(t, d.Verified(), "other size")

	e := NewTelegram(&h, 2, sampleCode, TelegramBits-1)
	assert.True(t, e.Verified())
}

func TestTelegramVerificationWindow(t *testing.T) {
	var h History
	NewTelegram(&h, 1, sampleCode, TelegramBits)
	c := NewTelegram(&h, 1, 0x162059850a8, TelegramBits)
	require.False(t, c.Verified())
	d := NewTelegram(&h, 1, sampleCode, TelegramBits)
	assert.False(t, d.Verified(), "the history only holds the last telegram")
}

func TestTelegramValues(t *testing.T) {
	var h History
	NewTelegram(&h, 1, 0x225ba6e9c, TelegramBits)
	v := NewTelegram(&h, 1, 0x225ba6e9d, TelegramBits).Values()
	assert.Equal(t, uint8(0x01), v.Address)
	assert.Equal(t, uint8(2), v.Channel)
	assert.InDelta(t, 23.3, v.Temperature, 0.001)
	assert.Equal(t, float32(55), v.Humidity)
	assert.True(t, v.BatteryOK)
	assert.Equal(t, SendModeAuto, v.SendMode)
	assert.True(t, v.Verified)
}

func TestTelegramString(t *testing.T) {
	s := NewTelegram(nil, 1, sampleCode, TelegramBits).String()
	assert.Contains(t, s, "Addr:0xB1")
	assert.Contains(t, s, "Temp:14.5")
	assert.Contains(t, s, "Sum:0x43/0x43")
}

func TestSendModeString(t *testing.T) {
	assert.Equal(t, "auto", SendModeAuto.String())
	assert.Equal(t, "manual", SendModeManual.String())
	assert.Equal(t, "SendMode(7)", SendMode(7).String())
}

func TestSendModeText(t *testing.T) {
	var m SendMode
	require.NoError(t, m.UnmarshalText([]byte("manual")))
	assert.Equal(t, SendModeManual, m)
	require.NoError(t, m.UnmarshalText([]byte("auto")))
	assert.Equal(t, SendModeAuto, m)
	assert.Error(t, m.UnmarshalText([]byte("sometimes")))
}
