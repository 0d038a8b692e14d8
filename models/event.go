package models

import "time"

type Event struct {
	ID          int    `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// EventDate/EventTime come from the public calendar as plain
	// strings; EventTime may be empty ("Date TBA" events).
	EventDate string `json:"event_date"`
	EventTime string `json:"event_time,omitempty"`

	IsVisible bool      `json:"is_visible"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// DisplayDate renders the calendar label the dashboard shows for the
// event, matching the "<date> at <time>" shape.
func (event *Event) DisplayDate() string {
	if event.EventDate == "" {
		return "Date TBA"
	}
	if event.EventTime == "" {
		return event.EventDate
	}
	return event.EventDate + " at " + event.EventTime
}

type EventsStruct struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}
