package dmp

import (
	"encoding/hex"
	"strconv"
)

// User-code payloads are the only obfuscated traffic; everything else
// on the wire is plain text and never passes through here. The scheme
// is a weak LFSR keystream XOR, not a security boundary.
//
// Two keying modes exist, selected solely by whether the remote key
// parses as hexadecimal, never by configuration intent:
//
//   - remote-link: system seed = key[0:2] XOR key[6:8] (hex bytes)
//   - Entrée:      system seed = 0 (key absent or not hex)

// lfsrTaps is the feedback mask of the 8-bit Galois register.
const lfsrTaps = 0xB8

// lfsrFallbackSeed replaces a zero seed, which would freeze an
// XOR-feedback register and produce an identity keystream.
const lfsrFallbackSeed = 0x1D

// SystemSeed derives the remote-link system seed from a remote key.
// It returns false when the key does not parse as hexadecimal of at
// least eight characters, which selects Entrée mode (seed 0).
func SystemSeed(remoteKey string) (byte, bool) {
	if len(remoteKey) < 8 {
		return 0, false
	}
	b, err := hex.DecodeString(remoteKey)
	if err != nil {
		return 0, false
	}
	return b[0] ^ b[3], true
}

// Seed computes the final keystream seed for one user-code record.
// codePrefix is the numeric value of the record's first four digits.
func Seed(account, codePrefix int, remoteKey string) byte {
	base := byte((account + codePrefix) % 256)
	if sys, ok := SystemSeed(remoteKey); ok {
		return base ^ sys
	}
	return base
}

type lfsr struct {
	state byte
}

func newLFSR(seed byte) lfsr {
	if seed == 0 {
		seed = lfsrFallbackSeed
	}
	return lfsr{state: seed}
}

func (l *lfsr) next() byte {
	if l.state&1 != 0 {
		l.state = (l.state >> 1) ^ lfsrTaps
	} else {
		l.state >>= 1
	}
	return l.state
}

// Keystream XORs the keystream derived from seed into data, one unit
// per position. XOR is self-inverse, so the same call decrypts and
// re-encrypts. Identical (seed, data) inputs always yield identical
// output.
func Keystream(seed byte, data string) string {
	reg := newLFSR(seed)
	out := make([]byte, len(data))
	for i := 0; i < len(data); i++ {
		out[i] = data[i] ^ (reg.next() & 0x0F)
	}
	return string(out)
}

// DeobfuscateUserCode recovers the plaintext of one obfuscated
// user-code record. The leading four-digit record number travels in
// clear (it is also a seed input) and only the remainder is
// transformed. Records too short to carry a number pass through
// unchanged.
func DeobfuscateUserCode(account int, record, remoteKey string) string {
	if len(record) <= 4 {
		return record
	}
	prefix, err := strconv.Atoi(record[:4])
	if err != nil {
		prefix = 0
	}
	seed := Seed(account, prefix, remoteKey)
	return record[:4] + Keystream(seed, record[4:])
}
