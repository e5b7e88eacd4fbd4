package domain

import "time"

type MeetingID string

type Meeting struct {
	ID        MeetingID `json:"id"`
	ClientID  ClientID  `json:"client_id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}
