package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
)

// HMAC derives draws from HMAC-SHA256(serverSeed, "clientSeed:nonce:round").
// Anyone holding the seeds can replay every shuffle and roll of a match.
type HMAC struct {
	mu         sync.Mutex
	serverSeed []byte
	clientSeed string
	nonce      uint64
	round      uint64
	buf        [32]byte
	pos        int
}

func NewHMAC(serverSeed, clientSeed string, nonce uint64) *HMAC {
	return &HMAC{
		serverSeed: []byte(serverSeed),
		clientSeed: clientSeed,
		nonce:      nonce,
		pos:        32,
	}
}

func (h *HMAC) next32() uint32 {
	if h.pos+4 > len(h.buf) {
		mac := hmac.New(sha256.New, h.serverSeed)
		fmt.Fprintf(mac, "%s:%d:%d", h.clientSeed, h.nonce, h.round)
		copy(h.buf[:], mac.Sum(nil))
		h.round++
		h.pos = 0
	}
	v := binary.BigEndian.Uint32(h.buf[h.pos:])
	h.pos += 4
	return v
}

// Uniform maps four bytes onto [0,1) and scales into the range.
func (h *HMAC) Uniform(a, b int) int {
	if b < a {
		a, b = b, a
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	f := float64(h.next32()) / (1 << 32)
	return a + int(f*float64(b-a+1))
}
