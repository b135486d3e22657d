package tfa

import "github.com/pkg/errors"

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrNotRepeated      = errors.New("telegram not repeated")
)

// Check applies the usual acceptance policy to a telegram: the checksum must
// match and, with requireRepeat, the telegram must have been verified. Use
// errors.Cause to compare the result with the Err values.
func Check(t *Telegram, requireRepeat bool) error {
	if sum, computed := t.Checksum(), t.ComputedChecksum(); sum != computed {
		return errors.Wrapf(ErrChecksumMismatch, "got 0x%02X, computed 0x%02X", sum, computed)
	}
	if requireRepeat && !t.Verified() {
		return errors.Wrapf(ErrNotRepeated, "code 0x%X", t.code)
	}
	return nil
}
