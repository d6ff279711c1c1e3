package model

import "time"

// ShortURL is the persisted mapping from a short code to the original URL.
// Only Clicks changes after insert.
type ShortURL struct {
	ID          int64     `json:"id" db:"id"`
	ShortCode   string    `json:"short_code" db:"short_code"`
	OriginalURL string    `json:"original_url" db:"original_url"`
	Clicks      int64     `json:"clicks" db:"clicks"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (u *ShortURL) Clone() *ShortURL {
	c := *u
	return &c
}

// Target is a copy without the click counter, the only mutable field.
func (u *ShortURL) Target() *ShortURL {
	c := *u
	c.Clicks = 0
	return &c
}

type Stats struct {
	URL       string    `json:"url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateURLRequest struct {
	URL string `json:"url" binding:"required"`
}

type ShortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

// Envelope is the body shape of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func Failure(message string) Envelope {
	return Envelope{Success: false, Error: message}
}
