package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48 bits of millisecond time followed by 80 bits of
// randomness, written as 26 Crockford base32 characters so they sort by
// creation time.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

type ulidSource struct {
	mu     sync.Mutex
	lastMs uint64
	seq    uint16
	now    func() time.Time
}

var jobIDs = &ulidSource{now: time.Now}

func generateULID() string {
	return jobIDs.next()
}

func (s *ulidSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := uint64(s.now().UnixMilli())
	if ms == s.lastMs {
		s.seq++
	} else {
		s.lastMs = ms
		s.seq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ms<<16)
	_, _ = rand.Read(b[6:])
	// Leading random bits carry a per-millisecond counter so IDs minted in
	// the same millisecond stay ordered.
	binary.BigEndian.PutUint16(b[6:8], s.seq)
	return encodeULID(b)
}

// encodeULID writes 128 bits as 26 base32 digits, most significant first.
// The first digit holds only the top 3 bits.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])

	var out [26]byte
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
