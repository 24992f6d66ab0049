package services

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"
	"washfamily/internal/models"
	"washfamily/internal/utils"

	"github.com/jinzhu/now"
)

const (
	AvailabilityWindowDays = 7
	MinSlotDuration        = 60 // minutes
)

var (
	ErrSlotTooShort      = errors.New("a slot must last at least one hour")
	ErrSlotOverlap       = errors.New("the slot overlaps an existing slot")
	ErrInvalidTime       = errors.New("invalid time, expected HH:mm")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidWeekday    = errors.New("day of week must be between 0 and 6")
	ErrDefaultSlotLocked = errors.New("default slots cannot be removed from a single day")
	ErrDateOutOfWindow   = errors.New("date is outside the editable week")
)

// WindowDates returns the dates of the availability window starting today.
func WindowDates(today time.Time) []time.Time {
	start := now.With(today).BeginningOfDay()
	dates := make([]time.Time, AvailabilityWindowDays)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// InWindow reports whether date (YYYY-MM-DD) falls in the window starting today.
func InWindow(today time.Time, date string) bool {
	for _, day := range WindowDates(today) {
		if day.Format(models.DateLayout) == date {
			return true
		}
	}
	return false
}

// MergeWeek builds the availability window starting today. Each day holds the
// weekday's default slots and that date's explicit slots, with the draft's
// pending creates added and its pending deletes removed. A blocked date with
// no explicit slots of its own shows nothing and is reported blocked; any
// blocked marker suppresses the defaults for that date. An explicit slot
// identical to a default replaces it.
func MergeWeek(
	today time.Time,
	defaults []models.DefaultSlot,
	explicit []models.WeeklySlot,
	draft *models.AvailabilityDraft,
) []models.DayAvailability {
	if draft == nil {
		draft = &models.AvailabilityDraft{}
	}

	days := make([]models.DayAvailability, 0, AvailabilityWindowDays)
	for _, day := range WindowDates(today) {
		date := day.Format(models.DateLayout)

		blocked := false
		var overrides []models.WeeklySlot
		for _, slot := range explicit {
			if slot.Date != date {
				continue
			}
			if slot.Blocked {
				blocked = true
				continue
			}
			slot.IsDefault = false
			overrides = append(overrides, slot)
		}
		for _, slot := range draft.CreatesOn(date) {
			slot.IsDefault = false
			overrides = append(overrides, slot)
		}

		seen := make(map[models.SlotKey]bool)
		slots := []models.WeeklySlot{}
		add := func(slot models.WeeklySlot) {
			key := slot.Key()
			if seen[key] || (!slot.IsDefault && draft.HasPendingDelete(key)) {
				return
			}
			seen[key] = true
			slots = append(slots, slot)
		}

		for _, slot := range overrides {
			add(slot)
		}
		if !blocked {
			for _, def := range defaults {
				if def.Weekday() != day.Weekday() {
					continue
				}
				add(models.WeeklySlot{
					ID:        def.ID,
					Date:      date,
					StartTime: def.StartTime,
					EndTime:   def.EndTime,
					IsDefault: true,
				})
			}
		}

		slices.SortFunc(slots, func(a, b models.WeeklySlot) int {
			return cmp.Or(cmp.Compare(a.StartTime, b.StartTime), cmp.Compare(a.EndTime, b.EndTime))
		})

		days = append(days, models.DayAvailability{
			Date:    date,
			Weekday: day.Weekday(),
			Blocked: blocked && len(overrides) == 0,
			Slots:   slots,
		})
	}

	return days
}

// ValidateSlot checks a proposed [start, end) range against the slots already
// shown for the same date. Touching ranges do not overlap.
func ValidateSlot(existing []models.WeeklySlot, start, end string) error {
	startMinutes, endMinutes, err := utils.ClockRange(start, end)
	if err != nil {
		return fmt.Errorf("%w: %s-%s", ErrInvalidTime, start, end)
	}

	if endMinutes-startMinutes < MinSlotDuration {
		return ErrSlotTooShort
	}

	for _, slot := range existing {
		if slot.Blocked {
			continue
		}
		otherStart, otherEnd, err := utils.ClockRange(slot.StartTime, slot.EndTime)
		if err != nil {
			continue
		}
		if startMinutes < otherEnd && otherStart < endMinutes {
			return fmt.Errorf("%w (%s-%s)", ErrSlotOverlap, slot.StartTime, slot.EndTime)
		}
	}

	return nil
}

// ValidateDefaultSlot checks a new template entry against the template
// entries already registered for the same weekday.
func ValidateDefaultSlot(existing []models.DefaultSlot, candidate models.DefaultSlot) error {
	if candidate.DayOfWeek < 0 || candidate.DayOfWeek > 6 {
		return ErrInvalidWeekday
	}

	sameDay := make([]models.WeeklySlot, 0, len(existing))
	for _, def := range existing {
		if def.DayOfWeek == candidate.DayOfWeek {
			sameDay = append(sameDay, models.WeeklySlot{StartTime: def.StartTime, EndTime: def.EndTime})
		}
	}

	return ValidateSlot(sameDay, candidate.StartTime, candidate.EndTime)
}

// HasDefault reports whether the washer has any recurring slot at all.
func HasDefault(defaults []models.DefaultSlot) bool {
	return len(defaults) > 0
}

// FindDay returns the merged day for date.
func FindDay(days []models.DayAvailability, date string) (models.DayAvailability, bool) {
	for _, day := range days {
		if day.Date == date {
			return day, true
		}
	}
	return models.DayAvailability{}, false
}

func ParseSlotDate(date string) (time.Time, error) {
	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return parsed, nil
}
