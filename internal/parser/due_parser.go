package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyRegex      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoRegex      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(h|hour|hours|d|day|days|w|week|weeks)$`)
)

// ParseDueDate parses a due date relative to now.
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2026")
// - yyyy-mm-dd (e.g., "2026-12-15")
// - today, tomorrow
// - X days, X hours, X weeks, also written "3days" or "3d"
func ParseDueDate(input string) (*time.Time, error) {
	return ParseDueDateAt(input, time.Now())
}

// ParseDueDateAt is ParseDueDate with an explicit clock
func ParseDueDateAt(input string, now time.Time) (*time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, nil
	}

	switch input {
	case "today":
		due := endOfDay(now, 0)
		return &due, nil
	case "tomorrow":
		due := endOfDay(now, 1)
		return &due, nil
	}

	if m := dmyRegex.FindStringSubmatch(input); m != nil {
		return calendarDate(m[3], m[2], m[1], now.Location())
	}
	if m := isoRegex.FindStringSubmatch(input); m != nil {
		return calendarDate(m[1], m[2], m[3], now.Location())
	}
	if dueDate, err := parseRelativeTime(input, now); err == nil {
		return dueDate, nil
	} else if relativeRegex.MatchString(input) {
		return nil, err
	}

	return nil, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X days, X hours, or X weeks")
}

// calendarDate builds the end of the given day, rejecting dates like 31/02
func calendarDate(yearStr, monthStr, dayStr string, loc *time.Location) (*time.Time, error) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)

	if day < 1 || day > 31 {
		return nil, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("year must be between 2000 and 2100")
	}

	dueDate := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)
	if dueDate.Day() != day || dueDate.Month() != time.Month(month) {
		return nil, fmt.Errorf("invalid date")
	}
	return &dueDate, nil
}

// parseRelativeTime parses "3 days", "24 hours", "2w" and friends
func parseRelativeTime(input string, now time.Time) (*time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "h", "hour", "hours":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return nil, fmt.Errorf("hours must be between 1 and 8760")
		}
		dueDate := now.Add(time.Duration(amount) * time.Hour)
		return &dueDate, nil

	case "d", "day", "days":
		if amount < 1 || amount > 365 {
			return nil, fmt.Errorf("days must be between 1 and 365")
		}
		dueDate := endOfDay(now, amount)
		return &dueDate, nil

	default:
		if amount < 1 || amount > 52 {
			return nil, fmt.Errorf("weeks must be between 1 and 52")
		}
		dueDate := endOfDay(now, amount*7)
		return &dueDate, nil
	}
}

func endOfDay(now time.Time, addDays int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location()).AddDate(0, 0, addDays)
}

// DueState classifies a due date against today
type DueState int

const (
	DueNone DueState = iota
	DueLater
	DueSoon // within a week
	DueTomorrow
	DueToday
	DueOverdue
)

// DueLabel returns a short card label for dueDate and how urgent it is
func DueLabel(dueDate *time.Time, now time.Time) (string, DueState) {
	if dueDate == nil {
		return "", DueNone
	}

	due := dueDate.In(now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
	daysDiff := int(dueDay.Sub(today).Hours() / 24)

	dateStr := due.Format("02 Jan")
	switch {
	case daysDiff < 0:
		return "overdue " + dateStr, DueOverdue
	case daysDiff == 0:
		return "due today", DueToday
	case daysDiff == 1:
		return "due tomorrow", DueTomorrow
	case daysDiff <= 7:
		return fmt.Sprintf("due %s (%dd)", dateStr, daysDiff), DueSoon
	}
	return "due " + dateStr, DueLater
}
