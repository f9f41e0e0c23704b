package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/balkashynov/taskboard/internal/api"
	"github.com/balkashynov/taskboard/internal/auth"
	"github.com/balkashynov/taskboard/internal/board"
	"github.com/balkashynov/taskboard/internal/models"
	"github.com/balkashynov/taskboard/internal/parser"
	"github.com/balkashynov/taskboard/internal/reconcile"
)

const toastTTL = 4 * time.Second

type toastKind int

const (
	toastInfo toastKind = iota
	toastWarn
	toastError
)

type toast struct {
	text string
	kind toastKind
	seq  int
}

type tasksLoadedMsg struct {
	tasks []models.Task
	stale bool
	err   error
}

type persistedMsg struct {
	op      string
	outcome reconcile.Outcome
}

type createdMsg struct {
	task    models.Task
	outcome reconcile.Outcome
}

type updatedMsg struct {
	task    models.Task
	outcome reconcile.Outcome
}

type toastExpiredMsg struct{ seq int }

// BoardOptions configures the board view
type BoardOptions struct {
	ProjectID   string
	ProjectName string
	// DragDistance is how many cells a pressed pointer travels before dragging
	DragDistance float64
	Logger       *zap.Logger
	Now          func() time.Time
}

// BoardModel is the kanban view of one project
type BoardModel struct {
	ctx     context.Context
	sync    *reconcile.Synchronizer
	board   *board.Board
	tracker *board.Tracker
	shimmer *Shimmer
	logger  *zap.Logger
	now     func() time.Time

	projectID   string
	projectName string

	width  int
	height int
	layout layout

	// cursor
	col int
	row int

	keyboardDrag  bool
	loading       bool
	stale         bool
	inflight      int
	formOpen      bool
	form          FormModel
	editing       string
	confirmDelete string
	toast         toast
}

// NewBoardModel creates a board for opts.ProjectID backed by sync
func NewBoardModel(ctx context.Context, sync *reconcile.Synchronizer, opts BoardOptions) BoardModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	b := board.New()
	return BoardModel{
		ctx:         ctx,
		sync:        sync,
		board:       b,
		tracker:     board.NewTracker(b, opts.DragDistance),
		shimmer:     NewShimmer(),
		logger:      logger,
		now:         now,
		projectID:   opts.ProjectID,
		projectName: opts.ProjectName,
		loading:     true,
		layout:      newLayout(0, 0, [3]int{}),
	}
}

// Init loads the project's tasks
func (m BoardModel) Init() tea.Cmd {
	return m.fetch()
}

func (m BoardModel) fetch() tea.Cmd {
	ctx, sync, projectID := m.ctx, m.sync, m.projectID
	return func() tea.Msg {
		tasks, stale, err := sync.Fetch(ctx, projectID)
		return tasksLoadedMsg{tasks: tasks, stale: stale, err: err}
	}
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout = newLayout(m.width, m.height, m.layout.scroll)
		m.followCursor()
		if m.formOpen {
			m.form, _ = m.form.Update(msg)
		}
		return m, nil

	case tasksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("load tasks", zap.String("project_id", m.projectID), zap.Error(msg.err))
			return m.notify(toastError, "Could not load tasks: "+describe(msg.err))
		}
		if skipped := m.board.Load(msg.tasks); len(skipped) > 0 {
			m.logger.Debug("tasks outside the board columns", zap.Int("count", len(skipped)))
		}
		m.stale = msg.stale
		m.clampCursor()
		if msg.stale {
			return m.notify(toastWarn, "API unreachable, showing the last saved snapshot")
		}
		return m, nil

	case persistedMsg:
		m.inflight--
		return m.settle(msg.op, msg.outcome)

	case createdMsg:
		m.inflight--
		if msg.outcome.MoveErr != nil {
			return m.notify(toastError, "Create failed: "+describe(msg.outcome.MoveErr))
		}
		if !msg.outcome.Reloaded || msg.outcome.ReloadErr != nil {
			_ = m.board.Add(msg.task)
		}
		msg.outcome.Apply(m.board)
		m.cursorToTask(msg.task.ID)
		if msg.outcome.ReloadErr != nil {
			return m.notify(toastWarn, "Created, but reload failed: "+describe(msg.outcome.ReloadErr))
		}
		return m.notify(toastInfo, "Created "+msg.task.Title)

	case updatedMsg:
		m.inflight--
		if msg.outcome.MoveErr != nil {
			return m.settle("Update", msg.outcome)
		}
		if err := m.board.Upsert(msg.task); err != nil {
			m.board.Remove(msg.task.ID)
		}
		m.cursorToTask(msg.task.ID)
		return m.notify(toastInfo, "Saved "+msg.task.Title)

	case toastExpiredMsg:
		if msg.seq == m.toast.seq {
			m.toast = toast{seq: m.toast.seq}
		}
		return m, nil

	case shimmerTickMsg:
		return m, m.shimmer.Advance(msg)

	case tea.MouseMsg:
		if m.formOpen || m.confirmDelete != "" {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		switch {
		case m.formOpen:
			return m.updateForm(msg)
		case m.confirmDelete != "":
			return m.handleConfirm(msg)
		case m.keyboardDrag && m.tracker.State() != board.DragIdle:
			return m.handleDragKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.formOpen {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m BoardModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	pt := board.Point{X: msg.X, Y: msg.Y}
	target, onColumn := m.layout.hit(m.board, msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || m.tracker.State() != board.DragIdle {
			return m, nil
		}
		if onColumn && !target.IsColumn() {
			m.cursorToTask(target.TaskID)
			m.tracker.Press(target.TaskID, pt)
		}
		return m, nil

	case tea.MouseActionMotion:
		var cmd tea.Cmd
		if m.tracker.State() == board.DragIdle {
			if !m.tracker.Motion(pt) {
				return m, nil
			}
			m.keyboardDrag = false
			cmd = m.shimmer.Start()
		}
		if onColumn {
			m.tracker.Over(target)
			m.cursorToActive()
		}
		return m, cmd

	case tea.MouseActionRelease:
		dragging := m.tracker.State() != board.DragIdle
		var over *board.Target
		if onColumn {
			over = &target
		}
		drop, ok := m.tracker.Release(over)
		if !dragging {
			return m, nil
		}
		m.shimmer.Stop()
		if !ok {
			return m.notify(toastWarn, "Dropped outside the board, nothing saved. Press r to resync")
		}
		return m.persistDrop(drop)
	}
	return m, nil
}

func (m BoardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.shimmer.Stop()
		return m, tea.Quit

	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampCursor()
		}
	case "right", "l":
		if m.col < len(models.BoardStatuses)-1 {
			m.col++
			m.clampCursor()
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
			m.followCursor()
		}
	case "down", "j":
		if m.row < m.board.Len(m.status())-1 {
			m.row++
			m.followCursor()
		}

	case " ", "m":
		task, ok := m.selected()
		if !ok || !m.tracker.Pick(task.ID) {
			return m, nil
		}
		m.keyboardDrag = true
		cmd := m.shimmer.Start()
		next, toastCmd := m.notify(toastInfo, "Moving "+task.Title+": hjkl to move, enter to drop, esc to cancel")
		return next, tea.Batch(cmd, toastCmd)

	case "n":
		return m.openForm("New task", FormValues{Status: string(m.status())}, "")

	case "e", "enter":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.openForm("Edit task", ValuesFromTask(task), task.ID)

	case "D", "x":
		if task, ok := m.selected(); ok {
			m.confirmDelete = task.ID
		}

	case "r":
		m.loading = true
		return m, m.fetch()
	}
	return m, nil
}

func (m BoardModel) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, _ := m.tracker.Active()
	status, index, ok := m.board.Locate(active)
	if !ok {
		m.tracker.Release(nil)
		m.shimmer.Stop()
		return m, nil
	}
	col := columnIndex(status)

	switch msg.String() {
	case "ctrl+c":
		m.shimmer.Stop()
		return m, tea.Quit

	case "left", "h", "right", "l":
		next := col - 1
		if s := msg.String(); s == "right" || s == "l" {
			next = col + 1
		}
		if next < 0 || next >= len(models.BoardStatuses) {
			return m, nil
		}
		dest := models.BoardStatuses[next]
		target := board.Target{Column: dest}
		if task, found := m.board.At(dest, index); found {
			target.TaskID = task.ID
		}
		m.hover(target)

	case "up", "k":
		if task, found := m.board.At(status, index-1); found {
			m.hover(board.Target{Column: status, TaskID: task.ID})
		}
	case "down", "j":
		if task, found := m.board.At(status, index+1); found {
			m.hover(board.Target{Column: status, TaskID: task.ID})
		}

	case "enter", " ", "m":
		drop, dropped := m.tracker.Release(&board.Target{Column: status, TaskID: active})
		m.keyboardDrag = false
		m.shimmer.Stop()
		if !dropped {
			return m, nil
		}
		return m.persistDrop(drop)

	case "esc":
		m.tracker.Release(nil)
		m.keyboardDrag = false
		m.shimmer.Stop()
		m.loading = true
		next, cmd := m.notify(toastInfo, "Move cancelled")
		return next, tea.Batch(cmd, m.fetch())
	}
	return m, nil
}

// hover moves the dragged card onto target, then parks the pointer on the
// card itself so the next key press counts as a fresh crossing.
func (m *BoardModel) hover(target board.Target) {
	m.tracker.Over(target)
	if id, ok := m.tracker.Active(); ok {
		if status, _, found := m.board.Locate(id); found {
			m.tracker.Over(board.Target{Column: status, TaskID: id})
		}
	}
	m.cursorToActive()
}

func (m BoardModel) persistDrop(drop board.Drop) (tea.Model, tea.Cmd) {
	m.cursorToTask(drop.TaskID)
	plan := reconcile.NewPlan(m.board, m.projectID, drop)
	m.inflight++
	m.logger.Debug("drop",
		zap.String("task_id", drop.TaskID),
		zap.String("from", string(drop.SourceColumn)),
		zap.String("to", string(drop.Column)),
		zap.Int("index", drop.Index),
	)
	ctx, sync := m.ctx, m.sync
	return m, func() tea.Msg {
		return persistedMsg{op: "Move", outcome: sync.Persist(ctx, plan)}
	}
}

// settle mirrors a finished request into the board and reports failures
func (m BoardModel) settle(op string, outcome reconcile.Outcome) (tea.Model, tea.Cmd) {
	outcome.Apply(m.board)
	m.clampCursor()
	if outcome.Err() == nil {
		return m, nil
	}

	var text string
	switch {
	case outcome.MoveErr != nil:
		text = fmt.Sprintf("%s failed: %s.", op, describe(outcome.MoveErr))
	case outcome.FixupErr != nil:
		text = fmt.Sprintf("%d order updates failed.", len(outcome.FixupErrors()))
	}
	if outcome.Reloaded && outcome.ReloadErr == nil {
		text += " Board reloaded."
	}
	if outcome.ReloadErr != nil {
		text += " Reload failed: " + describe(outcome.ReloadErr)
	}
	return m.notify(toastError, strings.TrimSpace(text))
}

func (m BoardModel) openForm(heading string, values FormValues, editing string) (tea.Model, tea.Cmd) {
	m.form = NewFormModel(heading, values)
	m.form.now = m.now
	m.form, _ = m.form.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.formOpen = true
	m.editing = editing
	return m, m.form.Init()
}

func (m BoardModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	if !m.form.Done() {
		return m, cmd
	}
	m.formOpen = false
	result, ok := m.form.Result()
	if !ok {
		return m, nil
	}

	ctx, sync, projectID, editing := m.ctx, m.sync, m.projectID, m.editing
	m.inflight++
	if editing == "" {
		return m, func() tea.Msg {
			task, out := sync.Create(ctx, result.Create(projectID))
			return createdMsg{task: task, outcome: out}
		}
	}
	return m, func() tea.Msg {
		task, out := sync.Update(ctx, projectID, editing, result.Update())
		return updatedMsg{task: task, outcome: out}
	}
}

func (m BoardModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.confirmDelete
	m.confirmDelete = ""
	if s := msg.String(); s != "y" && s != "Y" {
		return m, nil
	}
	m.board.Remove(id)
	m.clampCursor()
	m.inflight++
	ctx, sync, projectID := m.ctx, m.sync, m.projectID
	return m, func() tea.Msg {
		return persistedMsg{op: "Delete", outcome: sync.Delete(ctx, projectID, id)}
	}
}

func (m BoardModel) notify(kind toastKind, text string) (tea.Model, tea.Cmd) {
	seq := m.toast.seq + 1
	m.toast = toast{text: text, kind: kind, seq: seq}
	return m, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

// describe turns API errors into a line for the status bar
func describe(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		return "not logged in, run `taskboard login`"
	case errors.Is(err, api.ErrUnauthorized):
		return "session expired, run `taskboard login`"
	}
	return err.Error()
}

func columnIndex(status models.Status) int {
	for i, s := range models.BoardStatuses {
		if s == status {
			return i
		}
	}
	return 0
}

func (m BoardModel) status() models.Status {
	return models.BoardStatuses[m.col]
}

func (m BoardModel) selected() (models.Task, bool) {
	return m.board.At(m.status(), m.row)
}

func (m *BoardModel) cursorToTask(id string) {
	if status, index, ok := m.board.Locate(id); ok {
		m.col = columnIndex(status)
		m.row = index
	}
	m.followCursor()
}

func (m *BoardModel) cursorToActive() {
	if id, ok := m.tracker.Active(); ok {
		m.cursorToTask(id)
	}
}

func (m *BoardModel) clampCursor() {
	n := m.board.Len(m.status())
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
	m.followCursor()
}

func (m *BoardModel) followCursor() {
	m.layout.follow(m.col, m.row, m.board.Len(m.status()))
}

// View renders the board
func (m BoardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.formOpen {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.View())
	}
	if m.confirmDelete != "" {
		return m.renderConfirm()
	}

	columns := make([]string, 0, 2*len(models.BoardStatuses)-1)
	gap := strings.Repeat(" ", columnGap)
	for c, status := range models.BoardStatuses {
		if c > 0 {
			columns = append(columns, gap)
		}
		columns = append(columns, m.renderColumn(c, status))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		m.renderFooter(),
	)
}

func (m BoardModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentMain)).Render("taskboard")
	name := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Render(" · " + m.projectName)
	line := ansi.Truncate(title+name, m.width, "…")

	var sub string
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true)
	switch {
	case m.loading:
		sub = dim.Render("Loading…")
	case m.stale:
		sub = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("offline: showing the last saved snapshot")
	case m.inflight > 0:
		sub = dim.Render("Saving…")
	default:
		if id, ok := m.tracker.Active(); ok {
			if task, found := m.board.Task(id); found {
				sub = dim.Render("Dragging " + task.Title)
			}
		}
	}
	return line + "\n" + ansi.Truncate(sub, m.width, "…")
}

func (m BoardModel) renderColumn(c int, status models.Status) string {
	active, dragging := m.tracker.Active()
	col := m.board.Column(status)
	inner := m.layout.colWidth - 2

	start := m.layout.scroll[c]
	end := start + m.layout.visible
	if end > len(col) {
		end = len(col)
	}
	heading := fmt.Sprintf("%s (%d)", status.Title(), len(col))
	if start > 0 {
		heading += fmt.Sprintf(" ↑%d", start)
	}
	if end < len(col) {
		heading += fmt.Sprintf(" ↓%d", len(col)-end)
	}
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(columnColor(status))
	lines := []string{headingStyle.Render(ansi.Truncate(heading, inner, "…")), ""}

	if len(col) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Italic(true)
		lines = append(lines, empty.Render(ansi.Truncate("Drop tasks here", inner, "…")))
	}
	for i := start; i < end; i++ {
		task := col[i]
		lines = append(lines, m.renderCard(task, inner, c == m.col && i == m.row, dragging && task.ID == active))
	}

	borderColor := lipgloss.Color(ColorBorder)
	if dragging && col.IndexOf(active) >= 0 {
		borderColor = lipgloss.Color(ColorAccentMain)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(inner).
		Height(m.layout.boxHeight - 2).
		MaxHeight(m.layout.boxHeight).
		Render(strings.Join(lines, "\n"))
}

// renderCard draws a card of exactly cardHeight rows and width outer cells
func (m BoardModel) renderCard(task models.Task, outer int, selected, dragged bool) string {
	textWidth := outer - 4
	if textWidth < 1 {
		textWidth = 1
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	title := ansi.Truncate(task.Title, textWidth, "…")
	if dragged {
		title = m.shimmer.Render(title, titleStyle)
	} else {
		title = titleStyle.Render(title)
	}

	meta := lipgloss.NewStyle().Foreground(priorityColor(task.Priority)).Render(string(task.Priority))
	if label, state := parser.DueLabel(task.DueDate, m.now()); state != parser.DueNone {
		meta += lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render(" · ")
		meta += lipgloss.NewStyle().Foreground(dueColor(state)).Render(label)
	}
	meta = ansi.Truncate(meta, textWidth, "…")

	borderColor := lipgloss.Color(ColorBorder)
	switch {
	case dragged:
		borderColor = lipgloss.Color(ColorAccentMain)
	case selected:
		borderColor = lipgloss.Color(ColorAccentBright)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(outer-2).
		Padding(0, 1).
		Render(title + "\n" + meta)
}

func (m BoardModel) renderFooter() string {
	var status string
	if m.toast.text != "" {
		color := ColorSecondaryText
		switch m.toast.kind {
		case toastWarn:
			color = ColorWarning
		case toastError:
			color = ColorError
		}
		status = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(m.toast.text)
	} else {
		total := len(m.board.Tasks())
		done := m.board.Len(models.StatusDone)
		status = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).
			Render(fmt.Sprintf("%d tasks · %d completed", total, done))
	}

	help := "←↓↑→/hjkl move · space pick · n new · e edit · D delete · r reload · q quit"
	if m.tracker.State() != board.DragIdle {
		help = "hjkl move card · enter drop · esc cancel"
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)
	return ansi.Truncate(status, m.width, "…") + "\n" + helpStyle.Render(ansi.Truncate(help, m.width, "…"))
}

func (m BoardModel) renderConfirm() string {
	task, _ := m.board.Task(m.confirmDelete)
	var b strings.Builder
	b.WriteString("Delete this task?\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(task.Title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Render("y to delete · any other key to keep"))

	modal := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorError)).
		Padding(1).
		Align(lipgloss.Center).
		Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
