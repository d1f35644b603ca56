package chat

import "time"

// Session captures a transient conversation bound to one application.
type Session struct {
	ID        string    `json:"id"`
	App       string    `json:"app"`
	CreatedAt time.Time `json:"createdAt"`
}
