package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slobbe/fruit-jam-store/internal/session"
)

const columns = 2

// Session is the controller surface the browser drives.
type Session interface {
	LoadCatalog(ctx context.Context) (session.View, error)
	SelectCategory(ctx context.Context, name string) (session.View, error)
	NextPage(ctx context.Context) (session.View, error)
	PreviousPage(ctx context.Context) (session.View, error)
	StageSlot(n int) (session.View, error)
	Cancel() (session.View, error)
	ConfirmInstall(ctx context.Context) (session.View, error)
	ConfirmRemove(ctx context.Context) (session.View, error)
}

// viewMsg carries the outcome of one session call back to Update.
type viewMsg struct {
	view  session.View
	err   error
	fatal bool
}

// StatusMsg delivers a live status line while a call is still running.
type StatusMsg string

type retryMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#888888"))
	activeTab     = tabStyle.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5B8DEF"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1).Width(36).Height(4)
	stagedCard    = cardStyle.BorderForeground(lipgloss.Color("#F5A623"))
	nameStyle     = lipgloss.NewStyle().Bold(true)
	authorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	installedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#7ED321")).Render("installed")
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).MarginTop(1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1)
)

// App is the bubbletea model for the interactive browser. Every session
// call runs as a tea.Cmd; while one is in flight only quit is accepted.
type App struct {
	session      Session
	ctx          context.Context
	restartDelay time.Duration

	view    session.View
	status  string
	err     error
	fatal   bool
	busy    bool
	spinner spinner.Model
}

func New(ctx context.Context, s Session, restartDelay time.Duration) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &App{
		session:      s,
		ctx:          ctx,
		restartDelay: restartDelay,
		spinner:      sp,
		busy:         true,
		status:       "Loading applications database...",
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.load())
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		view, err := a.session.LoadCatalog(a.ctx)
		return viewMsg{view: view, err: err, fatal: err != nil}
	}
}

func (a *App) call(fn func() (session.View, error)) tea.Cmd {
	a.busy = true
	a.err = nil
	return func() tea.Msg {
		view, err := fn()
		return viewMsg{view: view, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case viewMsg:
		a.busy = false
		a.view = msg.view
		a.status = msg.view.Status
		a.err = msg.err
		a.fatal = msg.fatal
		if msg.fatal {
			delay := a.restartDelay
			return a, tea.Tick(delay, func(time.Time) tea.Msg { return retryMsg{} })
		}
		return a, nil

	case retryMsg:
		a.busy = true
		a.fatal = false
		a.err = nil
		a.status = "Restarting..."
		return a, a.load()

	case StatusMsg:
		a.status = string(msg)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "q" || key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.busy || a.fatal {
		return a, nil
	}

	if a.view.State == session.Staged {
		switch key {
		case "i":
			return a, a.call(func() (session.View, error) { return a.session.ConfirmInstall(a.ctx) })
		case "r":
			return a, a.call(func() (session.View, error) { return a.session.ConfirmRemove(a.ctx) })
		case "esc":
			return a, a.call(a.session.Cancel)
		}
		return a, nil
	}

	switch key {
	case "right", "l":
		return a, a.call(func() (session.View, error) { return a.session.NextPage(a.ctx) })
	case "left", "h":
		return a, a.call(func() (session.View, error) { return a.session.PreviousPage(a.ctx) })
	case "tab":
		return a, a.switchCategory(1)
	case "shift+tab":
		return a, a.switchCategory(-1)
	case "esc":
		a.busy = true
		return a, a.load()
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		slot := int(key[0] - '1')
		return a, a.call(func() (session.View, error) { return a.session.StageSlot(slot) })
	}
	return a, nil
}

func (a *App) switchCategory(step int) tea.Cmd {
	categories := a.view.Categories
	if len(categories) < 2 {
		return nil
	}
	current := 0
	for i, name := range categories {
		if name == a.view.Category {
			current = i
			break
		}
	}
	next := categories[(current+step+len(categories))%len(categories)]
	return a.call(func() (session.View, error) { return a.session.SelectCategory(a.ctx, next) })
}

func (a *App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Fruit Jam Store"))
	b.WriteString("\n\n")

	if len(a.view.Categories) > 0 {
		tabs := make([]string, 0, len(a.view.Categories))
		for _, name := range a.view.Categories {
			if name == a.view.Category {
				tabs = append(tabs, activeTab.Render(name))
			} else {
				tabs = append(tabs, tabStyle.Render(name))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
		b.WriteString("\n")
		b.WriteString(a.renderGrid())
		b.WriteString("\n")
		if a.view.PageCount > 0 {
			b.WriteString(fmt.Sprintf("%d/%d", a.view.Page+1, a.view.PageCount))
		}
	}

	status := a.status
	if a.busy {
		status = a.spinner.View() + " " + status
	}
	b.WriteString(statusStyle.Render(status))
	if a.err != nil && !strings.Contains(status, a.err.Error()) {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(a.err.Error()))
	}
	if a.fatal {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Restarting in %s...", a.restartDelay)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(a.help()))
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderGrid() string {
	var rows []string
	var row []string
	for i, slot := range a.view.Slots {
		row = append(row, a.renderCard(i, slot))
		if len(row) == columns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) renderCard(i int, slot session.Slot) string {
	if slot.Hidden {
		return cardStyle.BorderForeground(lipgloss.Color("#222222")).Render("")
	}

	record := slot.Record
	icon := "□"
	if record.Icon != "" {
		icon = "▣"
	}
	lines := []string{
		fmt.Sprintf("%s %d %s", icon, i+1, nameStyle.Render(record.Title)),
		authorStyle.Render(record.Author),
		truncate(record.Description, 34),
	}
	if slot.Installed {
		lines = append(lines, installedMark)
	}

	style := cardStyle
	if a.view.Staged != nil && *a.view.Staged == record.Identifier {
		style = stagedCard
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (a *App) help() string {
	if a.view.State == session.Staged {
		return "i install · r remove · esc cancel · q quit"
	}
	return "←/→ page · tab category · 1-9 select · esc reload · q quit"
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
