package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ContentType distinguishes the two catalog item kinds.
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// IsValid reports whether t is one of the known content types.
func (t ContentType) IsValid() bool {
	return t == ContentTypeMovie || t == ContentTypeTV
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements driver.Valuer for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// ContentItem is a movie or TV show in the catalog. Records are written by
// the ingest pipeline and read-only during request handling.
type ContentItem struct {
	ID                string      `gorm:"type:text;primaryKey" json:"id"`
	Type              ContentType `gorm:"type:text;not null;index:idx_content_type" json:"type"`
	Title             string      `gorm:"type:text;not null" json:"title"`
	Overview          string      `gorm:"type:text" json:"overview,omitempty"`
	Genres            StringArray `gorm:"type:text" json:"genres"`
	DirectorOrCreator string      `gorm:"column:director_or_creator;type:text" json:"director_or_creator"`
	Actors            StringArray `gorm:"type:text" json:"actors"`
	PosterURL         string      `gorm:"column:poster_url;type:text" json:"poster_url"`
	Year              string      `gorm:"type:text" json:"year"`
	Rating            float64     `json:"rating"`
	Runtime           int         `json:"runtime"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName returns the database table name for ContentItem.
func (ContentItem) TableName() string {
	return "content"
}
