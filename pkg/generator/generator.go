package generator

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// IDLength fits the VARCHAR(32) id columns of users and sessions.
	IDLength = 24
)

var alphabetSize = big.NewInt(int64(len(alphabet)))

// RandomID returns a string of length characters drawn uniformly from
// [0-9A-Za-z] using crypto/rand.
func RandomID(length int) (string, error) {
	result := make([]byte, length)

	for i := range result {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		result[i] = alphabet[n.Int64()]
	}

	return string(result), nil
}

func NewID() (string, error) {
	return RandomID(IDLength)
}
