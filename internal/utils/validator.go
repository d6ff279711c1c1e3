package utils

import (
	"net/url"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/go-playground/validator/v10"
)

const MaxURLLength = 2048

var validate = validator.New()

func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return apperrors.NewValidationError("url", "URL cannot be empty")
	}

	if len(rawURL) > MaxURLLength {
		return apperrors.NewValidationError("url", "URL is too long (max 2048 characters)")
	}

	if err := validate.Var(rawURL, "url"); err != nil {
		return apperrors.NewValidationError("url", "Invalid URL format")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("url", "Invalid URL format")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.NewValidationError("url", "URL must start with http:// or https://")
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("url", "URL must contain a valid host")
	}

	return nil
}

// ValidateShortCode checks only the shape of a code; it never touches storage.
func ValidateShortCode(code string) error {
	if utf8.RuneCountInString(code) != ShortCodeLength {
		return apperrors.NewValidationError("short_code", "Invalid short code format")
	}
	return nil
}

func SanitizeInput(input string) string {
	// Удаляем управляющие символы и обрезаем пробелы
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
