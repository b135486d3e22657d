package tfa

import "sync"

// History remembers the identity of the last telegram handed to NewTelegram.
// It holds exactly one entry and never expires it. The zero value is an empty
// History.
type History struct {
	mu       sync.Mutex
	filled   bool
	code     uint64
	size     uint8
	protocol uint8
}

// Observe reports whether the previous observation had the same code (toggle
// bit ignored), size and protocol, then replaces it with this one.
func (h *History) Observe(code uint64, size, protocol uint8) bool {
	code &^= 1<<ToggleBits - 1

	h.mu.Lock()
	defer h.mu.Unlock()
	same := h.filled && h.code == code && h.size == size && h.protocol == protocol
	h.filled = true
	h.code = code
	h.size = size
	h.protocol = protocol
	return same
}

// Reset empties the history, so the next telegram is not verified.
func (h *History) Reset() {
	h.mu.Lock()
	h.filled = false
	h.code, h.size, h.protocol = 0, 0, 0
	h.mu.Unlock()
}
