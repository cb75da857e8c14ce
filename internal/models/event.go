package models

import (
	"fmt"
	"sort"
	"time"
)

type EventType string

const (
	EventAlert  EventType = "alert"
	EventSystem EventType = "system"
	EventUser   EventType = "user"
)

type TimelineEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
}

func EventFromAlert(a Alert) TimelineEvent {
	return TimelineEvent{
		ID:          "event-" + a.ID,
		Title:       a.Title,
		Description: fmt.Sprintf("%s at %s", a.Description, a.Location),
		Timestamp:   a.Timestamp,
		Type:        EventAlert,
	}
}

// SortedEvents returns a copy ordered newest first. The input is not modified.
func SortedEvents(events []TimelineEvent) []TimelineEvent {
	out := make([]TimelineEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// UserEvent is the timeline entry for a sign-in or sign-out.
func UserEvent(title string, u User, at time.Time) TimelineEvent {
	return TimelineEvent{
		ID:          fmt.Sprintf("user-%s-%d", u.ID, at.UnixMilli()),
		Title:       title,
		Description: fmt.Sprintf("%s (%s)", u.Name, u.Role),
		Timestamp:   at,
		Type:        EventUser,
	}
}
