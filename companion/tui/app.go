// Package tui is the terminal chat view. It renders turns and notices as the
// orchestrator reports them and never touches the conversation log itself.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	internal "github.com/kali2026000/my-ai-companion/companion"
	"github.com/kali2026000/my-ai-companion/companion/chat"
)

// Chat is the part of the orchestrator the view drives.
type Chat interface {
	Submit(ctx context.Context, text string) (*chat.Result, error)
	Clear(ctx context.Context) error
	Export() ([]byte, error)
	IsBusy() bool
	Turns() []chat.Turn
	OnTurn(fn func(chat.Turn))
	OnNotice(fn func(chat.Notice))
}

// Vault is the part of the credential vault the /key command needs.
type Vault interface {
	Set(ctx context.Context, credential string) error
	Present(ctx context.Context) bool
}

type mode int

const (
	modeChat mode = iota
	modeConfirmClear
	modeKey
)

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
	entrySystem
)

type entry struct {
	kind entryKind
	text string
}

// turnMsg and noticeMsg carry orchestrator events into the update loop.
type turnMsg chat.Turn

type noticeMsg chat.Notice

type submitDoneMsg struct{ notice string }

type systemMsg string

type Model struct {
	ctx       context.Context
	chat      Chat
	vault     Vault
	commands  *commandTable
	events    chan tea.Msg
	exportDir string

	entries  []entry
	input    textinput.Model
	keyInput textinput.Model
	mode     mode
	waiting  bool // a submit is in flight
	offset   int  // lines scrolled up from the bottom
	width    int
	height   int
	quitting bool
}

// NewModel builds the view and subscribes it to c. Exports land in exportDir.
func NewModel(ctx context.Context, c Chat, vault Vault, exportDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, or /help"
	ti.CharLimit = 4000
	ti.Focus()

	ki := textinput.New()
	ki.Placeholder = "sk-ant-..."
	ki.EchoMode = textinput.EchoPassword
	ki.CharLimit = 500

	events := make(chan tea.Msg, 64)
	c.OnTurn(func(t chat.Turn) { events <- turnMsg(t) })
	c.OnNotice(func(n chat.Notice) { events <- noticeMsg(n) })

	m := Model{
		ctx:       ctx,
		chat:      c,
		vault:     vault,
		commands:  newCommandTable(),
		events:    events,
		exportDir: exportDir,
		input:     ti,
		keyInput:  ki,
		width:     100,
		height:    30,
	}

	for _, t := range c.Turns() {
		m.entries = append(m.entries, turnEntry(t))
	}
	m.entries = append(m.entries, entry{kind: entryAssistant, text: internal.DefaultGreeting})
	if !vault.Present(ctx) {
		m.entries = append(m.entries, entry{kind: entrySystem, text: "No API key set, replying offline. Use /key to add one."})
	}
	return m
}

func turnEntry(t chat.Turn) entry {
	if t.Role == chat.RoleUser {
		return entry{kind: entryUser, text: t.Content}
	}
	return entry{kind: entryAssistant, text: t.Content}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case turnMsg:
		m.entries = append(m.entries, turnEntry(chat.Turn(msg)))
		m.offset = 0
		return m, waitForEvent(m.events)

	case noticeMsg:
		text := msg.Message
		if msg.Detail != "" && !strings.Contains(text, msg.Detail) {
			text += " (" + msg.Detail + ")"
		}
		m.entries = append(m.entries, entry{kind: entryNotice, text: text})
		return m, waitForEvent(m.events)

	case submitDoneMsg:
		m.waiting = false
		if msg.notice != "" {
			m.entries = append(m.entries, entry{kind: entryNotice, text: msg.notice})
		}
		return m, nil

	case systemMsg:
		m.entries = append(m.entries, entry{kind: entrySystem, text: string(msg)})
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeConfirmClear:
			return m.updateConfirmClear(msg)
		case modeKey:
			return m.updateKey(msg)
		default:
			return m.updateChat(msg)
		}
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "pgup":
		m.offset += m.visibleRows() / 2
		return m, nil

	case "pgdown":
		m.offset = max(m.offset-m.visibleRows()/2, 0)
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")

		if name, args, ok := parseCommand(text); ok {
			return m.runCommand(name, args)
		}

		// Input stays usable but submits are not sent while a reply is pending
		if m.waiting || m.chat.IsBusy() {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Still thinking about your last message."})
			return m, nil
		}
		m.waiting = true
		return m, m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) tea.Cmd {
	ctx, c := m.ctx, m.chat
	return func() tea.Msg {
		_, err := c.Submit(ctx, text)
		switch {
		case err == nil:
			return submitDoneMsg{}
		case errors.Is(err, chat.ErrBusy):
			return submitDoneMsg{notice: "Still thinking about your last message."}
		default:
			return submitDoneMsg{notice: err.Error()}
		}
	}
}

func (m Model) runCommand(name, args string) (tea.Model, tea.Cmd) {
	resolved, err := m.commands.Resolve(name)
	if err != nil {
		m.entries = append(m.entries, entry{kind: entryNotice, text: err.Error()})
		return m, nil
	}

	switch resolved {
	case commandQuit:
		m.quitting = true
		return m, tea.Quit

	case commandHelp:
		m.entries = append(m.entries, entry{kind: entrySystem, text: m.commands.Help()})

	case commandClear:
		if m.waiting {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Wait for the reply before clearing."})
			return m, nil
		}
		m.mode = modeConfirmClear

	case commandKey:
		if args != "" {
			return m, m.setKey(args)
		}
		m.input.Blur()
		m.keyInput.SetValue("")
		m.keyInput.Focus()
		m.mode = modeKey

	case commandExport:
		return m, m.export()
	}
	return m, nil
}

func (m Model) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeChat
	switch strings.ToLower(msg.String()) {
	case "y":
		if err := m.chat.Clear(m.ctx); err != nil {
			m.entries = append(m.entries, entry{kind: entryNotice, text: "Could not clear: " + err.Error()})
			return m, nil
		}
		m.entries = []entry{{kind: entrySystem, text: "Conversation cleared."}}
		m.offset = 0
	default:
		m.entries = append(m.entries, entry{kind: entrySystem, text: "Clear cancelled."})
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.keyInput.Blur()
		m.input.Focus()
		m.mode = modeChat
		return m, nil

	case "enter":
		key := m.keyInput.Value()
		m.keyInput.SetValue("")
		m.keyInput.Blur()
		m.input.Focus()
		m.mode = modeChat
		return m, m.setKey(key)
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

func (m Model) setKey(key string) tea.Cmd {
	ctx, vault := m.ctx, m.vault
	return func() tea.Msg {
		if err := vault.Set(ctx, key); err != nil {
			return systemMsg("Could not save the key: " + err.Error())
		}
		return systemMsg("API key saved! You can now chat with me. I'll remember our conversation.")
	}
}

func (m Model) export() tea.Cmd {
	c, dir := m.chat, m.exportDir
	return func() tea.Msg {
		data, err := c.Export()
		if err != nil {
			return systemMsg("Export failed: " + err.Error())
		}
		path := filepath.Join(dir, chat.ExportFileName(time.Now()))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return systemMsg("Export failed: " + err.Error())
		}
		return systemMsg("Conversation exported to " + path)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := titleStyle.Render("Companion")
	info := dimStyle.Render(fmt.Sprintf("  %d turns", len(m.chat.Turns())))
	b.WriteString(title + info + "\n")

	lines := m.renderEntries()
	visible := m.visibleRows()
	end := max(len(lines)-m.offset, 0)
	start := max(end-visible, 0)
	for _, line := range lines[start:end] {
		b.WriteString(line + "\n")
	}
	for i := end - start; i < visible; i++ {
		b.WriteString("\n")
	}

	switch m.mode {
	case modeConfirmClear:
		b.WriteString(statusBarStyle.Render("Clear the whole conversation? This cannot be undone. (y/N)"))
	case modeKey:
		b.WriteString(statusBarStyle.Render("API key: ") + m.keyInput.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("  Enter: save  Esc: cancel"))
	default:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}

	return b.String()
}

func (m Model) renderEntries() []string {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 20))

	var lines []string
	for _, e := range m.entries {
		var block string
		switch e.kind {
		case entryUser:
			block = userRoleStyle.Render(" You ") + " " + e.text
		case entryAssistant:
			block = assistantRoleStyle.Render(" Companion ") + " " + e.text
		case entryNotice:
			block = noticeStyle.Render(e.text)
		case entrySystem:
			block = systemStyle.Render(e.text)
		}
		lines = append(lines, strings.Split(wrap.Render(block), "\n")...)
		lines = append(lines, "")
	}
	if m.waiting {
		lines = append(lines, thinkingStyle.Render("Thinking..."))
	}
	return lines
}

func (m Model) renderHelp() string {
	return helpStyle.Render("  Enter: send  PgUp/PgDn: scroll  /help: commands  Esc: quit")
}

func (m Model) visibleRows() int {
	// total height minus title, input and help lines
	rows := m.height - 3
	if m.mode == modeKey {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// Run starts the full-screen chat loop.
func Run(ctx context.Context, c Chat, vault Vault, exportDir string) error {
	p := tea.NewProgram(NewModel(ctx, c, vault, exportDir), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
