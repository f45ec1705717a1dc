package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the length of a raw SHA-1 digest in bytes.
const HashSize = sha1.Size

// HashObject computes the SHA-1 of the envelope "type len\0content".
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(envelopeHeader(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ParseHash validates a hex hash string. Surrounding whitespace is trimmed
// and upper-case digits are folded to lower case.
func ParseHash(s string) (Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != HashSize*2 {
		return "", fmt.Errorf("%w: hash %q: want %d hex characters", ErrMalformed, s, HashSize*2)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: hash %q: %v", ErrMalformed, s, err)
	}
	return Hash(s), nil
}

// Short returns the first seven characters of h.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h[:7])
}

func envelopeHeader(objType ObjectType, n int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, n))
}
