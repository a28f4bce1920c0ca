package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// InteractionKind classifies how a user interacted with a content item.
type InteractionKind string

const (
	InteractionFavorite    InteractionKind = "favorite"
	InteractionWatched     InteractionKind = "watched"
	InteractionWatchlisted InteractionKind = "watchlisted"
)

// InteractionEntry references one catalog item inside a user's lists.
// Entries missing either field are ignored when extracting IDs.
type InteractionEntry struct {
	ContentID string      `json:"id"`
	Type      ContentType `json:"type"`
}

// InteractionList stores a slice of entries as a JSON column.
type InteractionList []InteractionEntry

// Value implements driver.Valuer for database serialization.
func (l InteractionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (l *InteractionList) Scan(value interface{}) error {
	if value == nil {
		*l = InteractionList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan InteractionList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// IDs returns the content IDs of entries that carry both an ID and a type.
func (l InteractionList) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, e := range l {
		if e.ContentID != "" && e.Type != "" {
			ids = append(ids, e.ContentID)
		}
	}
	return ids
}

// UserProfile owns a user's three interaction lists. It is treated as a
// read-only snapshot during recommendation requests.
type UserProfile struct {
	ID               string          `gorm:"type:text;primaryKey" json:"id"`
	FavoriteEntries  InteractionList `gorm:"type:text" json:"favorites_entries"`
	WatchedEntries   InteractionList `gorm:"type:text" json:"watched_entries"`
	WatchlistEntries InteractionList `gorm:"type:text" json:"watchlist_entries"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string {
	return "users"
}

// InteractionIDs returns the deduplicated union of all three lists.
func (u *UserProfile) InteractionIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, list := range []InteractionList{u.FavoriteEntries, u.WatchedEntries, u.WatchlistEntries} {
		for _, id := range list.IDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// KindOf resolves the interaction kind for an ID. When an ID appears in more
// than one list, the strongest kind wins: favorite > watched > watchlisted.
func (u *UserProfile) KindOf(id string) (InteractionKind, bool) {
	for _, e := range u.FavoriteEntries {
		if e.ContentID == id {
			return InteractionFavorite, true
		}
	}
	for _, e := range u.WatchedEntries {
		if e.ContentID == id {
			return InteractionWatched, true
		}
	}
	for _, e := range u.WatchlistEntries {
		if e.ContentID == id {
			return InteractionWatchlisted, true
		}
	}
	return "", false
}

// StrongSignalIDs returns the deduplicated union of favorites and watched.
// Watchlist entries are excluded: they express intent, not confirmed taste.
func (u *UserProfile) StrongSignalIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, list := range []InteractionList{u.FavoriteEntries, u.WatchedEntries} {
		for _, id := range list.IDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
