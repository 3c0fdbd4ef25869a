package main

// browser.go — interactive preview: a scrollable viewport over the
// rendered questionnaire with collapsible sections.

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qdesigner/internal/preview"
)

const browserHelp = "↑/↓ scroll · tab/shift+tab section · enter toggle · a expand all · c collapse all · q quit"

type browserModel struct {
	view   preview.View
	style  string
	cursor int
	vp     viewport.Model
	ready  bool
	err    error
}

func newBrowserModel(v preview.View, style string) browserModel {
	return browserModel{view: v, style: style}
}

func (m browserModel) Init() tea.Cmd { return nil }

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		header := lipgloss.Height(m.header())
		height := msg.Height - header - 2
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = height
		}
		m.render()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab":
			if n := len(m.view.Sections); n > 0 {
				m.cursor = (m.cursor + 1) % n
			}
			return m, nil
		case "shift+tab":
			if n := len(m.view.Sections); n > 0 {
				m.cursor = (m.cursor + n - 1) % n
			}
			return m, nil
		case "enter", " ":
			m.view = m.view.Toggle(m.cursor)
			m.render()
			return m, nil
		case "a":
			m.view = m.view.ExpandAll()
			m.render()
			return m, nil
		case "c":
			for i := range m.view.Sections {
				if !m.view.Sections[i].Collapsed {
					m.view = m.view.Toggle(i)
				}
			}
			m.render()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *browserModel) render() {
	if !m.ready {
		return
	}
	out, err := preview.Terminal(m.view, m.style, m.vp.Width-2)
	if err != nil {
		m.err = err
		out = preview.Markdown(m.view)
	}
	m.vp.SetContent(out)
}

func (m browserModel) header() string {
	var b strings.Builder
	b.WriteString(preview.StatsStrip(m.view.Stats))
	b.WriteString("\n")
	if n := len(m.view.Sections); n > 0 {
		s := m.view.Sections[m.cursor]
		state := "expanded"
		if s.Collapsed {
			state = "collapsed"
		}
		b.WriteString(preview.SelectedStyle.Render(fmt.Sprintf("[%d/%d] %s (%s)", m.cursor+1, n, s.Heading, state)))
	}
	return b.String()
}

func (m browserModel) View() string {
	if !m.ready {
		return "loading…"
	}
	footer := preview.MutedStyle.Render(browserHelp)
	if m.err != nil {
		footer = preview.WarnStyle.Render(m.err.Error())
	}
	return m.header() + "\n" + m.vp.View() + "\n" + footer
}

// browse runs the interactive preview.
func browse(v preview.View, style string) error {
	_, err := tea.NewProgram(newBrowserModel(v, style), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
