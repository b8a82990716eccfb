package base62

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		num  uint64
		want string
	}{
		{"zero", 0, "0"},
		{"ten", 10, "a"},
		{"thirty-six", 36, "A"},
		{"sixty-one", 61, "Z"},
		{"sixty-two", 62, "10"},
		{"counter seed", 1024, "gw"},
		{"first allocated id", 1025, "gx"},
		{"million", 1000000, "4c92"},
		{"realistic id", 123456789, "8m0Kx"},
		{"max", math.MaxUint64, "lYGhA16ahyf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.num))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    uint64
		wantErr error
	}{
		{"empty", "", 0, nil},
		{"zero", "0", 0, nil},
		{"sixty-two", "10", 62, nil},
		{"first allocated id", "gx", 1025, nil},
		{"realistic id", "8m0Kx", 123456789, nil},
		{"max", "lYGhA16ahyf", math.MaxUint64, nil},
		{"invalid character", "ab-c", 0, ErrInvalidCharacter},
		{"overflow", "lYGhA16ahyg", 0, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.s)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, num := range []uint64{1, 61, 3843, 3844, 238327, 1 << 40} {
		got, err := Decode(Encode(num))
		assert.NoError(t, err)
		assert.Equal(t, num, got)
	}
}
