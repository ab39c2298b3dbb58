package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slobbe/fruit-jam-store/internal/session"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

type fakeSession struct {
	calls   []string
	view    session.View
	loadErr error
	opErr   error
}

func (f *fakeSession) record(call string) (session.View, error) {
	f.calls = append(f.calls, call)
	return f.view, nil
}

func (f *fakeSession) LoadCatalog(context.Context) (session.View, error) {
	f.calls = append(f.calls, "load")
	return f.view, f.loadErr
}

func (f *fakeSession) SelectCategory(_ context.Context, name string) (session.View, error) {
	return f.record("category:" + name)
}

func (f *fakeSession) NextPage(context.Context) (session.View, error) { return f.record("next") }

func (f *fakeSession) PreviousPage(context.Context) (session.View, error) { return f.record("prev") }

func (f *fakeSession) StageSlot(n int) (session.View, error) {
	f.calls = append(f.calls, "stage:"+string(rune('0'+n)))
	if n >= len(f.view.Slots) {
		return f.view, session.ErrNoSuchSlot
	}
	staged := f.view.Slots[n].Record.Identifier
	f.view.State = session.Staged
	f.view.Staged = &staged
	return f.view, nil
}

func (f *fakeSession) Cancel() (session.View, error) {
	f.view.State = session.Browsing
	f.view.Staged = nil
	return f.record("cancel")
}

func (f *fakeSession) ConfirmInstall(context.Context) (session.View, error) {
	f.calls = append(f.calls, "install")
	f.view.State = session.Browsing
	f.view.Staged = nil
	return f.view, f.opErr
}

func (f *fakeSession) ConfirmRemove(context.Context) (session.View, error) {
	f.calls = append(f.calls, "remove")
	f.view.State = session.Browsing
	f.view.Staged = nil
	return f.view, f.opErr
}

func browsingView() session.View {
	return session.View{
		State:      session.Browsing,
		Categories: []string{"Games", "Tools", "Music"},
		Category:   "Games",
		PageCount:  2,
		Slots: []session.Slot{
			{Record: models.DisplayRecord{
				Identifier:  models.Identifier{Owner: "adafruit", Repo: "Fruit_Jam_Snake"},
				Title:       "Snake",
				Author:      "adafruit",
				Description: "Eat the apples.",
				Icon:        "/cache/Fruit_Jam_Snake_icon.bmp",
			}, Installed: true},
			{Hidden: true},
		},
		Status: "Page loaded!",
	}
}

// send delivers msg to the model and runs the resulting command chain.
func send(t *testing.T, app *App, msg tea.Msg) {
	t.Helper()
	_, cmd := app.Update(msg)
	runCommands(t, app, cmd)
}

func runCommands(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, cmd = app.Update(msg)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadedApp(t *testing.T, fake *fakeSession) *App {
	t.Helper()
	app := New(context.Background(), fake, time.Millisecond)
	runCommands(t, app, app.load())
	if app.busy {
		t.Fatal("app still busy after initial load")
	}
	fake.calls = nil
	return app
}

func TestInitialLoadRendersPage(t *testing.T) {
	fake := &fakeSession{view: browsingView()}
	app := New(context.Background(), fake, time.Millisecond)
	if app.Init() == nil {
		t.Fatal("Init must start the catalog load")
	}
	runCommands(t, app, app.load())

	out := app.View()
	for _, want := range []string{"Fruit Jam Store", "Games", "Snake", "installed", "1/2", "Page loaded!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestNavigationKeys(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"right", "next"},
		{"l", "next"},
		{"left", "prev"},
		{"h", "prev"},
		{"tab", "category:Tools"},
		{"shift+tab", "category:Music"},
		{"1", "stage:0"},
		{"esc", "load"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			fake := &fakeSession{view: browsingView()}
			app := loadedApp(t, fake)

			send(t, app, key(tt.key))

			if len(fake.calls) != 1 || fake.calls[0] != tt.want {
				t.Fatalf("calls = %v, want [%s]", fake.calls, tt.want)
			}
		})
	}
}

func TestStagedKeys(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"i", "install"},
		{"r", "remove"},
		{"esc", "cancel"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			fake := &fakeSession{view: browsingView()}
			app := loadedApp(t, fake)
			send(t, app, key("1"))
			if app.view.State != session.Staged {
				t.Fatalf("state = %s, want staged", app.view.State)
			}
			if !strings.Contains(app.View(), "i install") {
				t.Fatal("staged help line not shown")
			}
			fake.calls = nil

			send(t, app, key("right"))
			send(t, app, key(tt.key))

			if len(fake.calls) != 1 || fake.calls[0] != tt.want {
				t.Fatalf("calls = %v, want [%s]", fake.calls, tt.want)
			}
			if app.view.State != session.Browsing {
				t.Fatalf("state = %s, want browsing", app.view.State)
			}
		})
	}
}

func TestHiddenSlotShowsError(t *testing.T) {
	fake := &fakeSession{view: browsingView()}
	app := loadedApp(t, fake)

	send(t, app, key("5"))

	if !errors.Is(app.err, session.ErrNoSuchSlot) {
		t.Fatalf("err = %v, want ErrNoSuchSlot", app.err)
	}
	if !strings.Contains(app.View(), session.ErrNoSuchSlot.Error()) {
		t.Fatal("slot error not rendered")
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	fake := &fakeSession{view: browsingView()}
	app := loadedApp(t, fake)
	app.busy = true

	_, cmd := app.Update(key("right"))
	if cmd != nil {
		t.Fatal("busy app must not start another call")
	}

	_, cmd = app.Update(key("q"))
	if cmd == nil {
		t.Fatal("quit must work while busy")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q must quit")
	}
}

func TestFatalLoadRetries(t *testing.T) {
	fake := &fakeSession{view: session.View{Status: "Unable to fetch applications database! offline"}, loadErr: errors.New("offline")}
	app := New(context.Background(), fake, time.Millisecond)

	_, cmd := app.Update(app.load()())
	if !app.fatal {
		t.Fatal("load failure must be fatal")
	}
	if !strings.Contains(app.View(), "Restarting in") {
		t.Fatalf("restart notice missing:\n%s", app.View())
	}
	if _, retry := app.Update(key("1")); retry != nil {
		t.Fatal("keys are ignored while waiting to restart")
	}

	fake.loadErr = nil
	fake.view = browsingView()
	runCommands(t, app, cmd)

	if app.fatal || app.err != nil {
		t.Fatalf("app did not recover: fatal=%v err=%v", app.fatal, app.err)
	}
	if got := strings.Count(strings.Join(fake.calls, ","), "load"); got != 2 {
		t.Fatalf("load calls = %d, want 2", got)
	}
}

func TestStatusMsgUpdatesStatus(t *testing.T) {
	fake := &fakeSession{view: browsingView()}
	app := loadedApp(t, fake)

	app.Update(StatusMsg("Downloading icon from somewhere"))

	if !strings.Contains(app.View(), "Downloading icon from somewhere") {
		t.Fatal("status line not updated")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a very long description\nwith lines", 10); got != "a very lo…" {
		t.Fatalf("truncate = %q", got)
	}
}
