package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/taskboard/internal/reconcile"
)

// RunBoard opens the interactive board for one project
func RunBoard(ctx context.Context, sync *reconcile.Synchronizer, opts BoardOptions) error {
	model := NewBoardModel(ctx, sync, opts)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}

// RunTaskForm shows the task form on its own. ok is false when the user
// cancelled.
func RunTaskForm(heading string, initial FormValues) (result FormResult, ok bool, err error) {
	p := tea.NewProgram(standaloneForm{form: NewFormModel(heading, initial)})
	final, err := p.Run()
	if err != nil {
		return FormResult{}, false, err
	}
	m, isForm := final.(standaloneForm)
	if !isForm {
		return FormResult{}, false, nil
	}
	result, ok = m.form.Result()
	return result, ok, nil
}
