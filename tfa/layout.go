package tfa

// TFA 30.32xx / LaCrosse TX141THBv2 telegram, 41 bits:
//
//	IIII IIII | BSCC TTTT | TTTT TTTT | HHHH HHHH | XXXX XXXX | ?
//
//	I:  8 bit random id (changes on power loss)
//	B:  1 bit battery indicator (0 => OK, 1 => LOW)
//	S:  1 bit send mode (0 => auto, 1 => manual)
//	C:  2 bit channel, valid channels are 0-2 (1-3)
//	T: 12 bit unsigned temperature, offset 500, scaled by 10
//	H:  8 bit relative humidity percentage
//	X:  8 bit checksum, lfsr digest gen 0x31 key 0xf4
//	?:  1 bit of unknown meaning, toggles on some sensors
//
// The sensor sends 3 repetitions at intervals of about 60 seconds.
const (
	// ToggleBits is the number of unreliable low bits preceding the checksum.
	ToggleBits = 1

	TelegramBits = 41

	DigestGenerator = 0x31
	DigestKey       = 0xf4

	temperatureOffset = 500
	temperatureScale  = 10
)

// field is a bit range of the telegram, offset counted from the right above
// the toggle bit.
type field struct {
	offset uint
	width  uint
}

var (
	fieldChecksum    = field{offset: 0, width: 8}
	fieldHumidity    = field{offset: 8, width: 8}
	fieldTemperature = field{offset: 16, width: 12}
	fieldChannel     = field{offset: 28, width: 2}
	fieldSendMode    = field{offset: 30, width: 1}
	fieldBattery     = field{offset: 31, width: 1}
	fieldAddress     = field{offset: 32, width: 8}

	// digest input: humidity up to and including the address
	fieldDigest = field{offset: 8, width: 32}
)

func (f field) extract(code uint64) uint64 {
	return (code >> (ToggleBits + f.offset)) & (1<<f.width - 1)
}
