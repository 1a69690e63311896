package dmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSeed(t *testing.T) {
	// 0x1A ^ 0x4D
	seed, ok := SystemSeed("1A2B3C4D")
	require.True(t, ok)
	assert.Equal(t, byte(0x57), seed)

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too short", "1A2B"},
		{"not hex", "NOTAHEX!"},
		{"odd length", "1A2B3C4D5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := SystemSeed(tt.key)
			assert.False(t, ok)
		})
	}
}

func TestSeed(t *testing.T) {
	// Entree mode: base seed only.
	assert.Equal(t, byte((1+1234)%256), Seed(1, 1234, ""))
	assert.Equal(t, byte((1+1234)%256), Seed(1, 1234, "apple"))

	// Remote-link mode folds the system seed in.
	assert.Equal(t, byte(0xD3^0x57), Seed(1, 1234, "1A2B3C4D"))

	// Seed wraps at a byte.
	assert.Equal(t, byte((91234+9999)%256), Seed(91234, 9999, ""))
}

func TestKeystreamRoundTrip(t *testing.T) {
	data := "0099FFFF123456  JANE DOE"
	for _, seed := range []byte{0, 1, 0x57, 0xD3, 0xFF} {
		enc := Keystream(seed, data)
		assert.Equal(t, data, Keystream(seed, enc), "seed %#x", seed)
	}
}

func TestKeystreamDeterministic(t *testing.T) {
	a := Keystream(0x42, "0042SOMETHING")
	b := Keystream(0x42, "0042SOMETHING")
	assert.Equal(t, a, b)
}

func TestKeystreamZeroSeedFallback(t *testing.T) {
	// A zero seed must not freeze the register into an identity stream.
	data := "00011234567890"
	assert.NotEqual(t, data, Keystream(0, data))
	assert.Equal(t, Keystream(lfsrFallbackSeed, data), Keystream(0, data))
}

func TestDeobfuscateUserCodeRoundTrip(t *testing.T) {
	plain := "00011234FFFFFFFF1234FF001002003004010100 JOHN DOE"
	account := 12345
	key := "1A2B3C4D"

	// The first four digits stay in clear either way.
	obfuscated := DeobfuscateUserCode(account, plain, key)
	assert.Equal(t, plain[:4], obfuscated[:4])
	assert.NotEqual(t, plain, obfuscated)

	assert.Equal(t, plain, DeobfuscateUserCode(account, obfuscated, key))
}

func TestDeobfuscateUserCodeShortRecord(t *testing.T) {
	assert.Equal(t, "", DeobfuscateUserCode(1, "", ""))
	assert.Equal(t, "0001", DeobfuscateUserCode(1, "0001", "1A2B3C4D"))
}

func TestDeobfuscateUserCodeNonNumericPrefix(t *testing.T) {
	// A record without a numeric prefix falls back to seed input 0 and
	// still round-trips.
	rec := "----MORE"
	enc := DeobfuscateUserCode(7, rec, "")
	assert.Equal(t, rec, DeobfuscateUserCode(7, enc, ""))
}
