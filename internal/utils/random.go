package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const numberBytes = "0123456789"

func GenerateRandomNumericString(length int) (string, error) {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}
