package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/balkashynov/taskboard/internal/models"
)

var (
	projectRegex  = regexp.MustCompile(`(?:^|\s)@([a-zA-Z0-9_-]+)`)
	priorityRegex = regexp.MustCompile(`(?:^|\s)\+([a-zA-Z0-9]+)`)
	dueRegex      = regexp.MustCompile(`(?:^|\s)due:([^\s]+)`)
)

// ParsedTask represents a task parsed from natural language
type ParsedTask struct {
	Title    string
	Project  string
	Priority models.Priority
	DueDate  *time.Time
	Errors   []string
}

// ParseTitle extracts metadata from a task title using natural syntax
// Syntax: "Task title @project +priority due:3days"
func ParseTitle(input string) ParsedTask {
	return ParseTitleAt(input, time.Now())
}

// ParseTitleAt is ParseTitle with an explicit clock for relative due dates
func ParseTitleAt(input string, now time.Time) ParsedTask {
	result := ParsedTask{Errors: []string{}}

	// @project-name
	if m := projectRegex.FindStringSubmatch(input); len(m) > 1 {
		result.Project = m[1]
		input = projectRegex.ReplaceAllString(input, " ")
	}

	// +high, +4, +urgent
	if m := priorityRegex.FindStringSubmatch(input); len(m) > 1 {
		priority, err := models.ParsePriority(m[1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid priority '"+m[1]+"'. Use: low, medium, high, urgent or 1-4")
		} else {
			result.Priority = priority
		}
		input = priorityRegex.ReplaceAllString(input, " ")
	}

	// due:3days, due:15/12/2026, due:tomorrow
	if m := dueRegex.FindStringSubmatch(input); len(m) > 1 {
		dueDate, err := ParseDueDateAt(m[1], now)
		if err != nil {
			result.Errors = append(result.Errors, "Invalid due date '"+m[1]+"': "+err.Error())
		} else {
			result.DueDate = dueDate
		}
		input = dueRegex.ReplaceAllString(input, " ")
	}

	result.Title = strings.Join(strings.Fields(input), " ")
	return result
}
