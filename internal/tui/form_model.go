package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldStatus
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Priority", "Due", "Status"}

// FormValues pre-fills the task form
type FormValues struct {
	Title       string
	Description string
	Priority    string
	Due         string
	Status      string
}

// ValuesFromTask fills the form from an existing task
func ValuesFromTask(task models.Task) FormValues {
	v := FormValues{
		Title:       task.Title,
		Description: task.DescriptionText(),
		Priority:    string(task.Priority),
		Status:      string(task.Status),
	}
	if task.DueDate != nil {
		v.Due = task.DueDate.Local().Format("2006-01-02")
	}
	return v
}

// FormResult is a validated form
type FormResult struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
	Status      models.Status
}

// Create turns the result into a POST body for projectID
func (r FormResult) Create(projectID string) models.TaskCreate {
	create := models.TaskCreate{
		Title:     r.Title,
		Status:    r.Status,
		Priority:  r.Priority,
		DueDate:   r.DueDate,
		ProjectID: projectID,
	}
	if r.Description != "" {
		desc := r.Description
		create.Description = &desc
	}
	return create
}

// Update turns the result into a PUT body. The description is always sent
// so it can be cleared.
func (r FormResult) Update() models.TaskUpdate {
	title, desc, priority, status := r.Title, r.Description, r.Priority, r.Status
	return models.TaskUpdate{
		Title:       &title,
		Description: &desc,
		Priority:    &priority,
		Status:      &status,
		DueDate:     r.DueDate,
	}
}

// FormModel edits one task. It runs inside the board or on its own.
type FormModel struct {
	heading   string
	inputs    []textinput.Model
	focus     int
	width     int
	err       string
	now       func() time.Time
	submitted bool
	cancelled bool
	result    FormResult
}

// NewFormModel creates a form with the given heading and initial values
func NewFormModel(heading string, initial FormValues) FormModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 48
		inputs[i].Prompt = ""
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}

	inputs[fieldTitle].Placeholder = "Enter task title... (required)"
	inputs[fieldTitle].CharLimit = 200
	inputs[fieldTitle].SetValue(initial.Title)

	inputs[fieldDescription].Placeholder = "Optional description"
	inputs[fieldDescription].CharLimit = 1000
	inputs[fieldDescription].SetValue(initial.Description)

	inputs[fieldPriority].Placeholder = "low/medium/high/urgent or 1-4 (default medium)"
	inputs[fieldPriority].CharLimit = 10
	inputs[fieldPriority].SetValue(initial.Priority)

	inputs[fieldDue].Placeholder = "dd/mm/yyyy, yyyy-mm-dd, tomorrow, 3 days"
	inputs[fieldDue].CharLimit = 30
	inputs[fieldDue].SetValue(initial.Due)

	inputs[fieldStatus].Placeholder = "todo/in_progress/done (default todo)"
	inputs[fieldStatus].CharLimit = 20
	inputs[fieldStatus].SetValue(initial.Status)

	inputs[fieldTitle].Focus()
	return FormModel{heading: heading, inputs: inputs, now: time.Now}
}

// Init starts the cursor blinking
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Done reports whether the form was submitted or cancelled
func (m FormModel) Done() bool {
	return m.submitted || m.cancelled
}

// Result returns the validated values and whether the form was submitted
func (m FormModel) Result() (FormResult, bool) {
	return m.result, m.submitted
}

// Update handles one message
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width/2 - 6
		if w < 30 {
			w = 30
		}
		if w > 72 {
			w = 72
		}
		for i := range m.inputs {
			m.inputs[i].Width = w
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, nil
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focus == fieldCount-1 {
				return m.submit()
			}
			return m.setFocus(m.focus + 1)
		case "tab", "down":
			return m.setFocus((m.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m FormModel) setFocus(i int) (FormModel, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m, textinput.Blink
}

func (m FormModel) submit() (FormModel, tea.Cmd) {
	result, field, err := m.validate()
	if err != nil {
		m.err = err.Error()
		return m.setFocus(field)
	}
	m.err = ""
	m.result = result
	m.submitted = true
	return m, nil
}

// validate returns the parsed values, or the first bad field and why
func (m FormModel) validate() (FormResult, int, error) {
	var r FormResult
	r.Title = strings.TrimSpace(m.inputs[fieldTitle].Value())
	if r.Title == "" {
		return r, fieldTitle, fmt.Errorf("task title is required")
	}
	r.Description = strings.TrimSpace(m.inputs[fieldDescription].Value())

	r.Priority = models.PriorityMedium
	if raw := m.inputs[fieldPriority].Value(); strings.TrimSpace(raw) != "" {
		p, err := models.ParsePriority(raw)
		if err != nil {
			return r, fieldPriority, err
		}
		r.Priority = p
	}

	due, err := parser.ParseDueDateAt(m.inputs[fieldDue].Value(), m.now())
	if err != nil {
		return r, fieldDue, fmt.Errorf("invalid due date: %w", err)
	}
	r.DueDate = due

	r.Status = models.StatusTodo
	if raw := m.inputs[fieldStatus].Value(); strings.TrimSpace(raw) != "" {
		s, err := models.ParseStatus(raw)
		if err != nil {
			return r, fieldStatus, err
		}
		r.Status = s
	}
	return r, 0, nil
}

// View renders the form as a bordered panel
func (m FormModel) View() string {
	var b strings.Builder

	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	b.WriteString(headingStyle.Render(m.heading))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(13).Foreground(lipgloss.Color(ColorSecondaryText))
	focusedLabel := labelStyle.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	for i, input := range m.inputs {
		style := labelStyle
		if i == m.focus {
			style = focusedLabel
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString(input.View())
		b.WriteString("\n")
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("✗ " + m.err))
		b.WriteString("\n")
	}

	help := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)
	b.WriteString("\n")
	b.WriteString(help.Render("tab/↑↓ move · enter next · ctrl+s save · esc cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 2).
		Render(b.String())
}

// standaloneForm runs a FormModel as its own program
type standaloneForm struct {
	form FormModel
}

func (s standaloneForm) Init() tea.Cmd {
	return s.form.Init()
}

func (s standaloneForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	if s.form.Done() {
		return s, tea.Quit
	}
	return s, cmd
}

func (s standaloneForm) View() string {
	if s.form.Done() {
		return ""
	}
	return s.form.View()
}
