package db

import (
	"database/sql"

	"bitbucket.org/skilr/backend/models"
)

type EventStorage interface {
	GetVisibleEvents() (*models.EventsStruct, error)
}

const (
	getVisibleEvents = `
	SELECT
		event.id,
		event.title,
		event.description,
		event.event_date,
		event.event_time,
		event.is_visible,
		event.created,
		event.updated
	FROM
		event
	WHERE
		event.is_visible = 1
	ORDER BY
		event.event_date ASC
	`
)

func (db *DB) GetVisibleEvents() (*models.EventsStruct, error) {
	stmt, err := db.PrepareNamed(getVisibleEvents)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		var eventTime sql.NullString

		if err := rows.Scan(
			&event.ID,
			&event.Title,
			&event.Description,
			&event.EventDate,
			&eventTime,
			&event.IsVisible,
			&event.Created,
			&event.Updated,
		); err != nil {
			return nil, err
		}

		event.EventTime = eventTime.String

		events = append(events, event)
	}

	return &models.EventsStruct{
		Events: events,
		Total:  len(events),
	}, nil
}
