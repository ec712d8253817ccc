package models

import "time"

// Direction is the translation direction
type Direction string

const (
	DirectionToBraille Direction = "to_braille"
	DirectionToText    Direction = "to_text"
)

// TranslateRequest represents a translation request
type TranslateRequest struct {
	Text      string    `json:"text" validate:"required,max=5000"`
	Direction Direction `json:"direction" validate:"required,oneof=to_braille to_text"`
}

// TranslateResponse represents a translation result
type TranslateResponse struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Direction Direction `json:"direction"`
}

// Translation is a stored translation made by a signed-in account
type Translation struct {
	ID        int64     `json:"id"`
	AccountID string    `json:"-"`
	Direction Direction `json:"direction"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"createdAt"`
}
