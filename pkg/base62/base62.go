// Package base62 converts numeric identifiers to URL-safe short codes and
// back.
package base62

import (
	"errors"
	"math"
	"strings"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	base     = uint64(len(alphabet))
)

var (
	ErrInvalidCharacter = errors.New("invalid base62 character")
	ErrOverflow         = errors.New("base62 value overflows uint64")
)

// Encode returns the base62 representation of num.
func Encode(num uint64) string {
	if num == 0 {
		return alphabet[:1]
	}

	var buf [11]byte
	i := len(buf)
	for num > 0 {
		i--
		buf[i] = alphabet[num%base]
		num /= base
	}

	return string(buf[i:])
}

// Decode parses a base62 string produced by Encode.
func Decode(s string) (uint64, error) {
	var num uint64

	for i := 0; i < len(s); i++ {
		d := strings.IndexByte(alphabet, s[i])
		if d < 0 {
			return 0, ErrInvalidCharacter
		}
		if num > (math.MaxUint64-uint64(d))/base {
			return 0, ErrOverflow
		}
		num = num*base + uint64(d)
	}

	return num, nil
}
