package engine

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	mathrand "math/rand"
	"time"
)

// InitRNG initializes the RNG. In deterministic mode (seeded=true) uses *seedOpt.
// In random mode, generates a seed (crypto/rand or time) and writes it to *seedOpt for reproducibility.
func InitRNG(seedOpt *int64, seeded bool) *mathrand.Rand {
	if seeded && seedOpt != nil {
		return mathrand.New(mathrand.NewSource(*seedOpt))
	}
	var seed int64
	var b [8]byte
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.BigEndian.Uint64(b[:]) >> 1)
	} else {
		seed = time.Now().UnixNano()
	}
	if seedOpt != nil {
		*seedOpt = seed
	}
	return mathrand.New(mathrand.NewSource(seed))
}

const (
	identFirst = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// Letters appear three times for every digit or underscore.
	identRest = identFirst + identFirst + identFirst + "0123456789_"
)

// RandIdent returns a random identifier whose length is drawn from
// [minLen, maxLen), or is exactly minLen when maxLen <= minLen.
// The first character is always a letter. Uniqueness is the caller's job.
func RandIdent(r *mathrand.Rand, minLen, maxLen int) string {
	n := minLen
	if maxLen > minLen {
		n = minLen + r.Intn(maxLen-minLen)
	}
	if n < 1 {
		n = 1
	}
	b := make([]byte, n)
	b[0] = identFirst[r.Intn(len(identFirst))]
	for i := 1; i < n; i++ {
		b[i] = identRest[r.Intn(len(identRest))]
	}
	return string(b)
}

// VariantSeed derives the seed of the i-th fuzz variant from the run seed, so
// each variant can be reproduced on its own with --seed.
func VariantSeed(seed int64, i int) int64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(i))
	sum := sha256.Sum256(buf[:])
	return int64(binary.LittleEndian.Uint64(sum[:8]) >> 1)
}
