package receiver

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Frame is a telegram as delivered by the radio receiver: the demodulated bits
// right aligned in Code, their count and the receiver's protocol number.
type Frame struct {
	Protocol uint8
	Code     uint64
	Bits     uint8
}

// ParseLine parses one line of receiver output. Two forms are understood:
//
//	1 0x163050a5086 41
//	protocol=1 code=0x163050a5086 bits=41
//
// Codes may be decimal or carry a 0x/0b prefix. ok is false for blank lines
// and # comments.
func ParseLine(line string) (f Frame, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Frame{}, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Frame{}, false, errors.Errorf("expected 3 fields, got %d in %q", len(fields), line)
	}

	var protocol, code, bits string
	if strings.Contains(line, "=") {
		for _, kv := range fields {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return Frame{}, false, errors.Errorf("malformed field %q in %q", kv, line)
			}
			switch strings.ToLower(parts[0]) {
			case "protocol", "proto":
				protocol = parts[1]
			case "code":
				code = parts[1]
			case "bits", "size":
				bits = parts[1]
			default:
				return Frame{}, false, errors.Errorf("unknown field %q in %q", parts[0], line)
			}
		}
		if protocol == "" || code == "" || bits == "" {
			return Frame{}, false, errors.Errorf("missing field in %q", line)
		}
	} else {
		protocol, code, bits = fields[0], fields[1], fields[2]
	}

	p, err := strconv.ParseUint(protocol, 10, 8)
	if err != nil {
		return Frame{}, false, errors.Wrapf(err, "bad protocol in %q", line)
	}
	c, err := strconv.ParseUint(code, 0, 64)
	if err != nil {
		return Frame{}, false, errors.Wrapf(err, "bad code in %q", line)
	}
	b, err := strconv.ParseUint(bits, 10, 8)
	if err != nil {
		return Frame{}, false, errors.Wrapf(err, "bad bit count in %q", line)
	}

	return Frame{Protocol: uint8(p), Code: c, Bits: uint8(b)}, true, nil
}
