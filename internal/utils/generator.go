package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	ShortCodeLength = 6
	// Alphanumeric without the look-alikes 0, O, 1, l and I.
	Alphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateShortCode draws ShortCodeLength symbols uniformly from Alphabet.
// Uniqueness is not checked here.
func GenerateShortCode() (string, error) {
	return GenerateShortCodeWithLength(ShortCodeLength)
}

func GenerateShortCodeWithLength(length int) (string, error) {
	return gonanoid.Generate(Alphabet, length)
}
