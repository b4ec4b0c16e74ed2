// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/ashutoshrp06/sow-assistant/internal/dispatcher"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AskFunc starts answering question in mode and returns the command that
// yields a dispatcher.ResponseMsg.
type AskFunc func(question string, mode types.Mode) tea.Cmd

// Model is the Bubble Tea model for the SOW assistant.
type Model struct {
	// UI Components
	textInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    Styles

	// State
	mode     types.Mode
	busy     bool
	messages []chatMessage
	pending  []types.ToolCall
	tools    []types.ToolInfo
	width    int
	height   int
	ready    bool
	quitting bool

	ask AskFunc
}

// chatMessage represents a message in the chat history.
type chatMessage struct {
	role    string // "user", "assistant", "system", "error", "tool"
	content string
	result  *types.ToolResult
	args    string
}

// NewModel creates a new UI model.
func NewModel(ask AskFunc, mode types.Mode, tools []types.ToolInfo) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your SOW documents... (e.g., 'What are the payment terms?')"
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 80

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(DefaultTheme().Primary)

	return Model{
		textInput: ti,
		spinner:   s,
		viewport:  viewport.New(0, 0),
		styles:    DefaultStyles(),
		mode:      mode,
		messages:  make([]chatMessage, 0),
		tools:     tools,
		ask:       ask,
	}
}

// Run starts the interactive form backed by d.
func Run(d *dispatcher.Dispatcher, mode types.Mode, tools []types.ToolInfo) error {
	var p *tea.Program
	ask := func(question string, mode types.Mode) tea.Cmd {
		return d.ProcessCmd(question, mode, func(e types.AgentEvent) { p.Send(e) })
	}
	p = tea.NewProgram(NewModel(ask, mode, tools), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Mode returns the selected answering mode.
func (m Model) Mode() types.Mode {
	return m.mode
}

// headerHeight is the banner line, the mode selector and a blank line.
func (m Model) headerHeight() int {
	return 3
}

// footerHeight is a blank line, the input line and the help bar.
func (m Model) footerHeight() int {
	return 4
}

// updateViewport rebuilds the viewport content and scrolls to the bottom.
func (m *Model) updateViewport() {
	var b strings.Builder

	for _, msg := range m.messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}

	for _, call := range m.pending {
		b.WriteString(m.renderToolInProgress(call))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.styles.StatusText.Render("Answering with "+m.mode.Label()+"...")))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyTab:
			if !m.busy {
				m.mode = toggle(m.mode)
			}
			return m, nil

		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}

			question := strings.TrimSpace(m.textInput.Value())
			if question == "" {
				return m, nil
			}
			m.textInput.SetValue("")

			if cmd, handled := m.handleCommand(question); handled {
				m.updateViewport()
				return m, cmd
			}

			m.messages = append(m.messages, chatMessage{role: "user", content: question})
			m.busy = true
			m.updateViewport()

			if m.ask != nil {
				cmds = append(cmds, m.ask(question, m.mode))
			}
			cmds = append(cmds, m.spinner.Tick)
			return m, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10

		vpHeight := msg.Height - m.headerHeight() - m.footerHeight()
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.ready = true
		m.updateViewport()

	case types.AgentEvent:
		m.handleAgentEvent(msg)
		m.updateViewport()
		return m, nil

	case dispatcher.ResponseMsg:
		m.busy = false
		m.pending = nil
		role := "assistant"
		if msg.Err != nil {
			role = "error"
		}
		m.messages = append(m.messages, chatMessage{role: role, content: msg.Answer})
		m.updateViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy {
			cmds = append(cmds, cmd)
			m.updateViewport()
		}
	}

	if !m.busy {
		var tiCmd tea.Cmd
		m.textInput, tiCmd = m.textInput.Update(msg)
		cmds = append(cmds, tiCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// handleCommand processes the built-in commands.
func (m *Model) handleCommand(input string) (tea.Cmd, bool) {
	switch strings.ToLower(input) {
	case "exit", "quit", "q":
		m.quitting = true
		return tea.Quit, true

	case "clear":
		m.messages = make([]chatMessage, 0)
		return nil, true

	case "help", "?":
		m.messages = append(m.messages, chatMessage{
			role: "system",
			content: `Commands:
  help, ?     Show this help
  tools       List the agent's tools
  clear       Clear chat history
  exit, quit  Exit

Press Tab to switch between Simple RAG and Contract Agent.

Example questions:
  "What are the payment terms?"
  "Check the Acme SOW for contractual risks"`,
		})
		return nil, true

	case "tools":
		var b strings.Builder
		b.WriteString("Agent tools:")
		for _, t := range m.tools {
			b.WriteString(fmt.Sprintf("\n  %s  %s", t.Name, t.Description))
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: b.String()})
		return nil, true
	}

	return nil, false
}

// handleAgentEvent tracks tool calls while the agent runs.
func (m *Model) handleAgentEvent(event types.AgentEvent) {
	switch event.State {
	case types.StateAgent:
		m.pending = event.ToolCalls

	case types.StateTools:
		args := make(map[string]string, len(m.pending))
		for _, c := range m.pending {
			args[c.ID] = c.Arguments
		}
		for i := range event.ToolResults {
			r := event.ToolResults[i]
			m.messages = append(m.messages, chatMessage{role: "tool", result: &r, args: args[r.CallID]})
		}
		m.pending = nil
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return m.styles.SystemMessage.Render("Goodbye!\n")
	}

	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder

	b.WriteString(m.styles.BannerTitle.Render(Banner()))
	b.WriteString("\n")
	b.WriteString(m.renderModeSelector())
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(m.styles.Prompt.Render("> "))
	if m.busy {
		b.WriteString(m.styles.StatusText.Render("(processing...)"))
	} else {
		b.WriteString(m.textInput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return m.styles.App.Render(b.String())
}

// renderModeSelector renders the mode radio buttons.
func (m Model) renderModeSelector() string {
	opts := make([]string, 0, 2)
	for _, mode := range []types.Mode{types.ModeSimpleRAG, types.ModeAgent} {
		if mode == m.mode {
			opts = append(opts, m.styles.ModeActive.Render("(•) "+mode.Label()))
		} else {
			opts = append(opts, m.styles.ModeInactive.Render("( ) "+mode.Label()))
		}
	}
	return strings.Join(opts, "   ")
}

// renderMessage renders a single chat message.
func (m Model) renderMessage(msg chatMessage) string {
	switch msg.role {
	case "user":
		return m.styles.UserMessage.Render("You: " + msg.content)
	case "assistant":
		return m.styles.AssistantMessage.Render("Assistant: " + msg.content)
	case "error":
		return m.styles.ErrorMessage.Render(msg.content)
	case "system":
		return m.styles.SystemMessage.Render(msg.content)
	case "tool":
		if msg.result != nil {
			return m.renderToolResult(msg.result, msg.args)
		}
	}
	return ""
}

// renderToolResult renders a completed tool execution.
func (m Model) renderToolResult(r *types.ToolResult, args string) string {
	var b strings.Builder

	b.WriteString(m.styles.ToolName.Render("Tool: " + r.ToolName))
	if args != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.ToolArgs.Render(truncate(args, 80)))
	}
	b.WriteString("\n")

	if r.Success {
		b.WriteString(m.styles.ToolSuccess.Render("  Success"))
		if r.Duration > 0 {
			b.WriteString(m.styles.ToolArgs.Render(fmt.Sprintf(" (%s)", r.Duration.Round(time.Millisecond))))
		}
		b.WriteString("\n")
		for _, line := range strings.Split(truncate(r.Output, 300), "\n") {
			if line != "" {
				b.WriteString(m.styles.ToolOutput.Render("  | " + line))
				b.WriteString("\n")
			}
		}
	} else {
		b.WriteString(m.styles.ToolError.Render("  Failed: " + r.Error))
		b.WriteString("\n")
	}

	return m.styles.ToolBox.Render(b.String())
}

// renderToolInProgress renders a requested tool call awaiting its result.
func (m Model) renderToolInProgress(call types.ToolCall) string {
	var b strings.Builder
	b.WriteString(m.styles.ToolName.Render("Tool: " + call.Name))
	if call.Arguments != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.ToolArgs.Render(truncate(call.Arguments, 80)))
	}
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.StatusText.Render("Executing..."))
	return m.styles.ToolBox.Render(b.String())
}

// renderHelpBar renders the bottom help bar.
func (m Model) renderHelpBar() string {
	help := []string{
		m.styles.HelpKey.Render("enter") + m.styles.HelpValue.Render(" ask"),
		m.styles.HelpKey.Render("tab") + m.styles.HelpValue.Render(" switch mode"),
		m.styles.HelpKey.Render("ctrl+c") + m.styles.HelpValue.Render(" quit"),
		m.styles.HelpKey.Render("help") + m.styles.HelpValue.Render(" commands"),
	}
	return m.styles.HelpBar.Render(strings.Join(help, "  |  "))
}

func toggle(mode types.Mode) types.Mode {
	if mode == types.ModeAgent {
		return types.ModeSimpleRAG
	}
	return types.ModeAgent
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
