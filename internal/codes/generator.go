package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultLength matches the code shape the router exports use ("5vfflm").
const DefaultLength = 6

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random lowercase alphanumeric code of length chars.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	size := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Batch returns quantity distinct codes of length chars.
func Batch(quantity, length int) ([]string, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	seen := make(map[string]struct{}, quantity)
	out := make([]string, 0, quantity)
	attempts := 0
	for len(out) < quantity {
		attempts++
		if attempts > quantity*100 {
			return nil, fmt.Errorf("could not generate %d distinct codes of length %d", quantity, length)
		}
		code, err := Generate(length)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}
