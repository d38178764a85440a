package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/people-tui/internal/bulk"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/people"
)

// Messages
type storeEventMsg people.Event

type pageLoadedMsg struct {
	err error
}

type actionDoneMsg struct {
	notice string
	err    error
}

const actionTimeout = 30 * time.Second

func waitForEvent(ch <-chan people.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return storeEventMsg(ev)
	}
}

func goToPage(store *people.Store, n int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return pageLoadedMsg{err: store.GoToPage(ctx, n)}
	}
}

func reload(store *people.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := store.Load(ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: "Reloaded"}
	}
}

func editField(actions *bulk.Service, id, field, value string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := actions.EditField(ctx, id, field, value); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Updated %s", field)}
	}
}

func deleteSelected(actions *bulk.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		n, err := actions.DeleteSelected(ctx)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Deleted %d contacts", n)}
	}
}

func addSelectedTo(actions *bulk.Service, kind db.MembershipKind, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		n, err := actions.AddSelectedTo(ctx, kind, name)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Added %d to %s %q", n, kind, name)}
	}
}

// exportSelected writes the selection to a timestamped file in dir.
func exportSelected(actions *bulk.Service, dir, format string) tea.Cmd {
	return func() tea.Msg {
		exp, err := bulk.CreateExporter(format)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		name := filepath.Join(dir, "people-"+time.Now().Format("20060102-150405")+exp.Extension())
		f, err := os.Create(name)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("creating export file: %w", err)}
		}
		n, err := actions.ExportSelected(f, format)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(name)
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{notice: fmt.Sprintf("Exported %d to %s", n, name)}
	}
}
