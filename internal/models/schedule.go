package models

import (
	"fmt"
	"time"
)

// Schedule is a per-user recurring briefing subscription. At most one exists
// per UserID; re-registering replaces the previous one wholesale.
type Schedule struct {
	UserID     string    `json:"user_id"`
	Recipient  string    `json:"email"`
	Keywords   []string  `json:"keywords"`
	Hour       int       `json:"-"`
	Minute     int       `json:"-"`
	Weekdays   []int     `json:"weekdays"` // 0=Monday .. 6=Sunday
	MaxResults int       `json:"max_results"`
	Providers  []string  `json:"providers"`
	Paused     bool      `json:"paused"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobIDFor derives the trigger engine registration key for a user. The
// store and the engine join on this key.
func JobIDFor(userID string) string {
	return "briefing_" + userID
}

// JobID is the registration key for this schedule.
func (s *Schedule) JobID() string {
	return JobIDFor(s.UserID)
}

// TimeOfDay renders the firing time as "HH:MM".
func (s *Schedule) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Descriptor is the read-side view of a registered trigger.
type Descriptor struct {
	JobID    string     `json:"job_id"`
	UserID   string     `json:"user_id"`
	Trigger  string     `json:"trigger"`
	Paused   bool       `json:"paused"`
	NextRun  *time.Time `json:"next_run"`
	Keywords []string   `json:"keywords,omitempty"`
	Email    string     `json:"email,omitempty"`
}
