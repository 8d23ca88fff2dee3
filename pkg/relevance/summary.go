package relevance

import (
	"fmt"
	"time"

	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
)

// ReminderHour is the local hour trip reminders fire at.
const ReminderHour = 10

// ReminderOffsets are the days before a trip that get a reminder.
var ReminderOffsets = []int{7, 3, 1}

// TripReminder is one reach-out reminder ahead of a trip.
type TripReminder struct {
	At         time.Time `json:"at" yaml:"at"`
	DaysBefore int       `json:"days_before" yaml:"days_before"`
	Text       string    `json:"text" yaml:"text"`
}

// DailySummary renders the once-a-day summary line. trip may be nil.
func DailySummary(followUpsDueToday int, trip *people.Trip, pendingReachouts int) string {
	if trip == nil {
		return fmt.Sprintf("Follow-ups today: %d.", followUpsDueToday)
	}
	return fmt.Sprintf("Follow-ups today: %d. Trip reach-outs: %d.", followUpsDueToday, pendingReachouts)
}

// FollowUpsDueToday counts follow-ups falling within now's calendar day.
func (s *Scorer) FollowUpsDueToday(due []people.NoteWithPerson) int {
	now := s.clock.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	n := 0
	for _, item := range due {
		at := item.Note.FollowUpAt
		if !item.Note.NeedsFollowUp || at == nil {
			continue
		}
		if !at.Before(start) && at.Before(end) {
			n++
		}
	}
	return n
}

// PendingReachouts counts the people tied to a trip's city who have not been
// marked done.
func PendingReachouts(cityPeople []people.Person, reachouts []people.TripReachout) int {
	done := make(map[string]bool, len(reachouts))
	for _, r := range reachouts {
		if r.Status == people.ReachoutDone {
			done[r.PersonID] = true
		}
	}
	n := 0
	for _, p := range cityPeople {
		if !done[p.ID] {
			n++
		}
	}
	return n
}

// TripReminders lists the reminders still ahead of now for trip, earliest
// first.
func (s *Scorer) TripReminders(trip people.Trip, pending int) []TripReminder {
	now := s.clock.Now()
	start := trip.StartDate
	var out []TripReminder
	for _, d := range ReminderOffsets {
		before := start.AddDate(0, 0, -d)
		at := time.Date(before.Year(), before.Month(), before.Day(), ReminderHour, 0, 0, 0, start.Location())
		if !at.After(now) {
			continue
		}
		out = append(out, TripReminder{
			At:         at,
			DaysBefore: d,
			Text:       fmt.Sprintf("%s in %d days - reach out to %d people", trip.City, d, pending),
		})
	}
	return out
}
