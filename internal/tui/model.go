package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinchart/internal/chart"
	"coinchart/internal/domain"
	"coinchart/internal/form"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxVisibleSuggestions = 6

type focus int

const (
	focusCrypto focus = iota
	focusInterval
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	fieldErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	chartStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bannerStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	emptyBanner   = bannerStyle.BorderForeground(lipgloss.Color("220"))
	errorBanner   = bannerStyle.BorderForeground(lipgloss.Color("203")).Foreground(lipgloss.Color("203"))
)

// Changes carries change signals from the orchestrator to the program. At
// most one signal is pending; the model re-reads the snapshot on wake-up.
type Changes chan struct{}

func NewChanges() Changes {
	return make(Changes, 1)
}

// Notify is meant to be used as form.Options.OnChange.
func (c Changes) Notify(form.Snapshot) {
	select {
	case c <- struct{}{}:
	default:
	}
}

type changedMsg struct{}

type submitDoneMsg struct {
	err error
}

// Model is the bubbletea model of the chart form.
type Model struct {
	form    *form.Orchestrator
	changes Changes

	input     textinput.Model
	spinner   spinner.Model
	intervals []string

	focus       focus
	interval    int
	highlighted int
	snap        form.Snapshot
	fieldErrs   map[string]string

	width  int
	height int
}

func New(f *form.Orchestrator, changes Changes) Model {
	ti := textinput.New()
	ti.Placeholder = "Start typing a cryptocurrency name"
	ti.CharLimit = 64
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		form:        f,
		changes:     changes,
		input:       ti,
		spinner:     sp,
		intervals:   f.Intervals(),
		interval:    -1,
		highlighted: -1,
		snap:        f.Snapshot(),
	}
}

// SetSize records the terminal size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if width > 4 {
		m.input.Width = width - 4
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listen())
}

func (m Model) listen() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case changedMsg:
		m.snap = m.form.Snapshot()
		if m.highlighted >= len(m.snap.Options) {
			m.highlighted = len(m.snap.Options) - 1
		}
		return m, m.listen()

	case submitDoneMsg:
		var verrs domain.ValidationErrors
		if errors.As(msg.err, &verrs) {
			m.fieldErrs = verrs.Fields()
		} else {
			m.fieldErrs = nil
		}
		m.snap = m.form.Snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		return m.toggleFocus(), nil
	}

	if m.focus == focusInterval {
		switch msg.String() {
		case "left", "up", "h", "k":
			if m.interval > 0 {
				m.interval--
			} else if m.interval < 0 && len(m.intervals) > 0 {
				m.interval = 0
			}
		case "right", "down", "l", "j":
			if m.interval < len(m.intervals)-1 {
				m.interval++
			}
		case "enter":
			return m, m.submit()
		}
		return m, nil
	}

	switch msg.String() {
	case "up":
		if m.highlighted > 0 {
			m.highlighted--
		}
		return m, nil
	case "down":
		if m.highlighted < min(len(m.snap.Options), maxVisibleSuggestions)-1 {
			m.highlighted++
		}
		return m, nil
	case "enter":
		if m.highlighted >= 0 && m.highlighted < len(m.snap.Options) {
			m.input.SetValue(m.snap.Options[m.highlighted].Name)
			m.input.CursorEnd()
		}
		return m.toggleFocus(), nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.highlighted = -1
		m.form.Search(value)
	}
	return m, cmd
}

func (m Model) toggleFocus() Model {
	if m.focus == focusCrypto {
		m.focus = focusInterval
		m.input.Blur()
		if m.interval < 0 && len(m.intervals) > 0 {
			m.interval = 0
		}
		return m
	}
	m.focus = focusCrypto
	m.input.Focus()
	return m
}

func (m Model) fields() form.Fields {
	f := form.Fields{Crypto: m.input.Value()}
	if m.interval >= 0 && m.interval < len(m.intervals) {
		f.Interval = m.intervals[m.interval]
	}
	return f
}

func (m Model) submit() tea.Cmd {
	f := m.form
	fields := m.fields()
	return func() tea.Msg {
		_, err := f.Submit(context.Background(), fields)
		return submitDoneMsg{err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Cryptocurrency price chart"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Cryptocurrency"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if msg := m.fieldErrs[form.FieldCrypto]; msg != "" {
		b.WriteString(fieldErrStyle.Render(msg))
		b.WriteString("\n")
	}
	if m.focus == focusCrypto {
		for i, a := range m.snap.Options {
			if i == maxVisibleSuggestions {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  +%d more", len(m.snap.Options)-maxVisibleSuggestions)))
				b.WriteString("\n")
				break
			}
			line := fmt.Sprintf("  %s (%s)", a.Name, a.Symbol)
			if i == m.highlighted {
				line = selectedStyle.Render("> " + a.Name + " (" + a.Symbol + ")")
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Interval"))
	b.WriteString("\n")
	labels := make([]string, len(m.intervals))
	for i, label := range m.intervals {
		if i == m.interval {
			labels[i] = selectedStyle.Render("[" + label + "]")
		} else {
			labels[i] = dimStyle.Render(" " + label + " ")
		}
	}
	b.WriteString(strings.Join(labels, " "))
	b.WriteString("\n")
	if msg := m.fieldErrs[form.FieldInterval]; msg != "" {
		b.WriteString(fieldErrStyle.Render(msg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.resultView())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("tab switch field • ↑/↓ choose • enter select/submit • esc quit"))
	return b.String()
}

func (m Model) resultView() string {
	v := m.snap.View
	switch v.Variant {
	case form.VariantLoading:
		return m.spinner.View() + " Loading..."
	case form.VariantEmpty:
		return emptyBanner.Render("no data")
	case form.VariantError:
		return errorBanner.Render(v.Message)
	case form.VariantChart:
		return m.chartView(v.Chart)
	default:
		return ""
	}
}

func (m Model) chartView(r *domain.QueryResult) string {
	width := m.width - 2
	if width < 20 {
		width = 60
	}
	s, _ := chart.Summarize(r.Prices)

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", labelStyle.Render(r.Name), r.Symbol)
	b.WriteString(chartStyle.Render(chart.Sparkline(r.Prices, width)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "$%.2f → $%.2f (%+.2f%%)  low $%.2f  high $%.2f\n", s.First, s.Last, s.ChangePct, s.Min, s.Max)
	b.WriteString(dimStyle.Render(r.Timestamps[0] + " to " + r.Timestamps[len(r.Timestamps)-1]))
	return b.String()
}
