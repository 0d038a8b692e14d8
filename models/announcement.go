package models

import "time"

type Announcement struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsVisible   bool      `json:"is_visible"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

type AnnouncementsStruct struct {
	Announcements []Announcement `json:"announcements"`
	Total         int            `json:"total"`
}
