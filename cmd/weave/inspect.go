package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/aspect-linker/ast"
	"github.com/wippyai/aspect-linker/linker"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectState int

const (
	stateBrowse inspectState = iota
	stateFilter
)

type inspectModel struct {
	res      *linker.Result
	filename string

	// visible indexes res.Decisions after filtering
	visible  []int
	selected int

	filter textinput.Model
	body   viewport.Model
	state  inspectState
	width  int
	height int
}

func newInspectModel(filename string, res *linker.Result) *inspectModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter bodies"
	ti.Width = 30

	m := &inspectModel{
		res:      res,
		filename: filename,
		filter:   ti,
		body:     viewport.New(60, 20),
	}
	m.applyFilter()
	return m
}

func (m *inspectModel) Init() tea.Cmd { return nil }

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.body.Width = max(msg.Width-m.listWidth()-6, 20)
		m.body.Height = max(msg.Height-6, 5)
		m.show()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateBrowse
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.show()
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.show()
			}
			return m, nil
		case "/":
			m.state = stateFilter
			return m, m.filter.Focus()
		case "esc":
			m.filter.SetValue("")
			m.applyFilter()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m *inspectModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, d := range m.res.Decisions {
		if q == "" || strings.Contains(strings.ToLower(d.Body), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.selected = min(m.selected, max(len(m.visible)-1, 0))
	m.show()
}

func (m *inspectModel) current() (linker.Decision, bool) {
	if len(m.visible) == 0 {
		return linker.Decision{}, false
	}
	return m.res.Decisions[m.visible[m.selected]], true
}

// show loads the member emitted for the selected body into the viewport.
func (m *inspectModel) show() {
	d, ok := m.current()
	if !ok {
		m.body.SetContent("no bodies match")
		return
	}
	m.body.SetContent(describe(m.res.Program, d))
	m.body.GotoTop()
}

// describe renders a decision and the member it became.
func describe(p *ast.Program, d linker.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n%s", d.Body, d.Semantic, d.Disposition)
	if d.Into != "" {
		fmt.Fprintf(&b, " into %s", d.Into)
	}
	if d.Retained {
		b.WriteString(" (retained)")
	}
	b.WriteString("\n\n")

	if d.Emitted == "" {
		b.WriteString("not emitted")
		return b.String()
	}
	if p == nil {
		return b.String()
	}
	typ, _, _ := strings.Cut(d.Body, ".")
	td := p.Type(typ)
	if td == nil {
		return b.String()
	}
	for _, mem := range td.FindMembers(d.Emitted) {
		b.WriteString(ast.FormatMember(mem))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *inspectModel) listWidth() int {
	w := 20
	for _, d := range m.res.Decisions {
		w = max(w, len(d.Body)+len(d.Semantic)+6)
	}
	return w
}

func (m *inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("weave inspect"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	var list strings.Builder
	for i, idx := range m.visible {
		d := m.res.Decisions[idx]
		line := fmt.Sprintf("%s [%s]", d.Body, d.Semantic)
		if i == m.selected {
			list.WriteString(selectedStyle.Render("> " + line))
		} else {
			marker := lipgloss.NewStyle().Foreground(dispositionColors[d.Disposition]).Render("●")
			list.WriteString(marker + " " + line)
		}
		list.WriteString("\n")
	}
	left := paneStyle.Width(m.listWidth()).Render(strings.TrimSuffix(list.String(), "\n"))
	right := paneStyle.Render(m.body.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")

	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • / filter • esc clear • pgup/pgdn scroll • q quit"))
	return b.String()
}

func runInspector(filename string, res *linker.Result) error {
	p := tea.NewProgram(newInspectModel(filename, res), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
