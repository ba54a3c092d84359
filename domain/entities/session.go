package entities

import "time"

// SessionItem is one surfaced question together with the image file it
// produced, as persisted in the session history.
type SessionItem struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Question  string    `json:"question" bson:"question"`
	ImageFile string    `json:"image_file" bson:"image_file"`
}

// SessionRecord is the persisted history of one named session.
type SessionRecord struct {
	Name      string        `json:"name" bson:"name"`
	StartedAt time.Time     `json:"started_at" bson:"started_at"`
	Items     []SessionItem `json:"items" bson:"items"`
}
