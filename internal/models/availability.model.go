package models

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// DefaultSlot is one entry of a washer's recurring weekly template.
type DefaultSlot struct {
	ID        string `json:"id,omitempty"`
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (d DefaultSlot) Weekday() time.Weekday {
	return time.Weekday(d.DayOfWeek)
}

// WeeklySlot is availability on a concrete date. Blocked entries mark the
// whole date unavailable and carry no meaningful times.
type WeeklySlot struct {
	ID        string `json:"id,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsDefault bool   `json:"isDefault"`
	Blocked   bool   `json:"blocked,omitempty"`
}

type SlotKey struct {
	Date      string
	StartTime string
	EndTime   string
}

func (s WeeklySlot) Key() SlotKey {
	return SlotKey{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
}

type DayAvailability struct {
	Date    string       `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Blocked bool         `json:"blocked"`
	Slots   []WeeklySlot `json:"slots"`
}

// AvailabilityDraft buffers a washer's unsaved edits until an explicit save.
type AvailabilityDraft struct {
	SessionID      string       `json:"sessionId"`
	PendingCreates []WeeklySlot `json:"pendingCreates"`
	PendingDeletes []WeeklySlot `json:"pendingDeletes"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (d *AvailabilityDraft) IsEmpty() bool {
	return len(d.PendingCreates) == 0 && len(d.PendingDeletes) == 0
}

func (d *AvailabilityDraft) CreatesOn(date string) []WeeklySlot {
	var slots []WeeklySlot
	for _, slot := range d.PendingCreates {
		if slot.Date == date {
			slots = append(slots, slot)
		}
	}
	return slots
}

func (d *AvailabilityDraft) HasPendingDelete(key SlotKey) bool {
	for _, slot := range d.PendingDeletes {
		if slot.Key() == key {
			return true
		}
	}
	return false
}

// DropCreate removes a pending create and reports whether one was found.
func (d *AvailabilityDraft) DropCreate(key SlotKey) bool {
	for i, slot := range d.PendingCreates {
		if slot.Key() == key {
			d.PendingCreates = append(d.PendingCreates[:i], d.PendingCreates[i+1:]...)
			return true
		}
	}
	return false
}

// DropDelete cancels a pending delete and reports whether one was found.
func (d *AvailabilityDraft) DropDelete(key SlotKey) bool {
	for i, slot := range d.PendingDeletes {
		if slot.Key() == key {
			d.PendingDeletes = append(d.PendingDeletes[:i], d.PendingDeletes[i+1:]...)
			return true
		}
	}
	return false
}

// DropBefore discards pending edits for dates earlier than date.
func (d *AvailabilityDraft) DropBefore(date string) {
	keep := func(slots []WeeklySlot) []WeeklySlot {
		kept := slots[:0]
		for _, slot := range slots {
			if slot.Date >= date {
				kept = append(kept, slot)
			}
		}
		return kept
	}
	d.PendingCreates = keep(d.PendingCreates)
	d.PendingDeletes = keep(d.PendingDeletes)
}
