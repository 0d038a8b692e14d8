package db

import (
	"bitbucket.org/skilr/backend/models"
)

type AnnouncementStorage interface {
	GetVisibleAnnouncements(limit int) (*models.AnnouncementsStruct, error)
}

const (
	// Hidden rows never leave the adapter; the dashboard shows the
	// newest `limit` visible announcements only.
	getVisibleAnnouncements = `
	SELECT
		announcement.id,
		announcement.title,
		announcement.description,
		announcement.is_visible,
		announcement.created,
		announcement.updated
	FROM
		announcement
	WHERE
		announcement.is_visible = 1
	ORDER BY
		announcement.created DESC
	LIMIT :limit_to
	`
)

func (db *DB) GetVisibleAnnouncements(limit int) (*models.AnnouncementsStruct, error) {
	stmt, err := db.PrepareNamed(getVisibleAnnouncements)
	if err != nil {
		return nil, err
	}

	args := map[string]interface{}{
		"limit_to": limit,
	}

	rows, err := stmt.Query(args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := []models.Announcement{}
	for rows.Next() {
		var announcement models.Announcement
		if err := rows.Scan(
			&announcement.ID,
			&announcement.Title,
			&announcement.Description,
			&announcement.IsVisible,
			&announcement.Created,
			&announcement.Updated,
		); err != nil {
			return nil, err
		}

		announcements = append(announcements, announcement)
	}

	return &models.AnnouncementsStruct{
		Announcements: announcements,
		Total:         len(announcements),
	}, nil
}
