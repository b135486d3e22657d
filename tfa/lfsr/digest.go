// Package lfsr implements the byte-oriented linear-feedback-shift-register
// digests used by 433 MHz weather sensors to protect their telegrams.
package lfsr

// Digest8Reflect computes an 8 bit LFSR digest over message.
//
// Bytes are consumed last to first and the bits of each byte LSB first, which
// mirrors the order the sensor shifts them out. For every set bit the current
// key is XORed into the sum; after every bit the key is rolled left one step
// and gen is applied when the dropped msb was set.
func Digest8Reflect(message []byte, gen, key byte) byte {
	var sum byte
	for k := len(message) - 1; k >= 0; k-- {
		data := message[k]
		for i := uint(0); i < 8; i++ {
			if (data>>i)&1 != 0 {
				sum ^= key
			}
			if key&0x80 != 0 {
				key = (key << 1) ^ gen
			} else {
				key <<= 1
			}
		}
	}
	return sum
}
