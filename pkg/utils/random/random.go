package random

import (
	"crypto/rand"
	"math/big"
)

const digits = "0123456789"
const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func Numeric(length int) string {
	return pickFromSet(digits, length)
}

// Base36 returns a lowercase alphanumeric code.
func Base36(length int) string {
	return pickFromSet(base36, length)
}

// Pick returns a uniformly chosen element of items, or "" when empty.
func Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(items))))
	if err != nil {
		return items[0]
	}
	return items[n.Int64()]
}

func pickFromSet(set string, length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(set)))
	runes := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			runes[i] = set[0]
			continue
		}
		runes[i] = set[n.Int64()]
	}
	return string(runes)
}
