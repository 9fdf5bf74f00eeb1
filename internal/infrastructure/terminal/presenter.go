// Package terminal renders the session screens as plain text for the CLI.
package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

var screenTitles = map[domain.View]string{
	domain.ViewLogin:            "Log in",
	domain.ViewMain:             "Main",
	domain.ViewRegister:         "Create account",
	domain.ViewRegisterComplete: "Account created",
}

// Presenter implements ports.Navigator and ports.Display on an io.Writer.
// Error panels are buffered and printed when the screen changes or when Flush
// is called.
type Presenter struct {
	mu       sync.Mutex
	out      io.Writer
	view     domain.View
	loading  string
	panels   map[domain.Panel][]string
	username string
	tier     string
}

func NewPresenter(out io.Writer) *Presenter {
	return &Presenter{out: out, panels: make(map[domain.Panel][]string)}
}

func (p *Presenter) TransitionTo(view domain.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view = view
	title, ok := screenTitles[view]
	if !ok {
		title = string(view)
	}
	fmt.Fprintf(p.out, "== %s ==\n", title)
	if view == domain.ViewMain && p.username != "" {
		fmt.Fprintf(p.out, "Logged in as %s (%s)\n", p.username, p.tier)
	}
	p.flushLocked()
}

func (p *Presenter) ShowLoading(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = text
	fmt.Fprintln(p.out, text)
}

func (p *Presenter) HideLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = ""
}

func (p *Presenter) ClearErrors(panel domain.Panel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.panels, panel)
}

func (p *Presenter) AppendError(panel domain.Panel, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panels[panel] = append(p.panels[panel], msg)
}

func (p *Presenter) ReplaceErrors(panel domain.Panel, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panels[panel] = []string{msg}
}

func (p *Presenter) RenderProfile(username, tier string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.username, p.tier = username, tier
}

// Flush prints and empties every error panel.
func (p *Presenter) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

// View returns the last screen transitioned to.
func (p *Presenter) View() domain.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Loading reports whether the loading indicator is shown.
func (p *Presenter) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading != ""
}

func (p *Presenter) flushLocked() {
	for _, panel := range []domain.Panel{domain.PanelLogin, domain.PanelRegister} {
		for _, msg := range p.panels[panel] {
			fmt.Fprintf(p.out, "! %s\n", msg)
		}
		delete(p.panels, panel)
	}
}
