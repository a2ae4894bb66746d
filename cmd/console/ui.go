package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/defcon/pkg/content"
	"github.com/jwebster45206/defcon/pkg/game"
	"github.com/jwebster45206/defcon/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "Type a choice number and press Enter..."
	refreshInterval = time.Second
)

// Session is the part of a running game the console talks to.
type Session interface {
	Choose(ctx context.Context, playerID, promptID, label string) error
	Snapshot() game.Snapshot
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx      context.Context
	session  Session
	playerID string
	inbox    <-chan game.Message
	done     <-chan error

	messages []game.Message
	prompt   *game.Message
	feedback string
	snapshot game.Snapshot
	over     bool
	err      error

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int

	showQuitModal bool
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(ctx context.Context, session Session, playerID string, inbox <-chan game.Message, done <-chan error) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		ctx:          ctx,
		session:      session,
		playerID:     playerID,
		inbox:        inbox,
		done:         done,
		snapshot:     session.Snapshot(),
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForMessage(m.inbox), waitForEnd(m.done), refresh())
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.snapshot, m.playerID, m.over))

	case incomingMsg:
		m.messages = append(m.messages, msg.message)
		if msg.message.Kind == game.MessageChoice {
			prompt := msg.message
			m.prompt = &prompt
			m.feedback = ""
		}
		m.refreshSnapshot()
		m.writeChatContent()
		return m, waitForMessage(m.inbox)

	case gameOverMsg:
		m.over = true
		m.prompt = nil
		if msg.err != nil {
			m.err = msg.err
		}
		m.refreshSnapshot()
		m.writeChatContent()
		return m, nil

	case choiceResultMsg:
		if msg.err != nil {
			m.feedback = errorStyle.Render(choiceFailure(msg.err))
		} else {
			m.feedback = userStyle.Render("You: ") + msg.label
			if m.prompt != nil && m.prompt.PromptID == msg.promptID {
				m.prompt = nil
			}
		}
		m.refreshSnapshot()
		m.writeChatContent()
		return m, nil

	case refreshMsg:
		m.refreshSnapshot()
		if m.over {
			return m, nil
		}
		return m, refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			return m.answer(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m *ConsoleUI) refreshSnapshot() {
	m.snapshot = m.session.Snapshot()
	m.metaViewport.SetContent(writeMetadata(m.snapshot, m.playerID, m.over))
}

// answer resolves input against the open prompt and submits the choice.
func (m ConsoleUI) answer(input string) (tea.Model, tea.Cmd) {
	if m.over {
		m.feedback = noticeStyle.Render("The game is over. Press Esc to leave.")
		m.writeChatContent()
		return m, nil
	}
	if m.prompt == nil {
		m.feedback = noticeStyle.Render("No decision is waiting on you.")
		m.writeChatContent()
		return m, nil
	}
	label, err := resolveChoice(input, m.prompt.Choices)
	if err != nil {
		m.feedback = errorStyle.Render(err.Error())
		m.writeChatContent()
		return m, nil
	}

	ctx, session, playerID, promptID := m.ctx, m.session, m.playerID, m.prompt.PromptID
	return m, func() tea.Msg {
		return choiceResultMsg{promptID: promptID, label: label, err: session.Choose(ctx, playerID, promptID, label)}
	}
}

// resolveChoice accepts a 1-based option number or the label itself.
func resolveChoice(input string, choices []string) (string, error) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(choices) {
			return "", fmt.Errorf("pick a number between 1 and %d", len(choices))
		}
		return choices[n-1], nil
	}
	for _, c := range choices {
		if strings.EqualFold(c, input) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the options", input)
}

func choiceFailure(err error) string {
	switch {
	case errors.Is(err, game.ErrPromptNotFound):
		return "That decision is no longer open."
	case errors.Is(err, game.ErrPlayerNotFound):
		return "Your nation has left the game."
	case errors.Is(err, game.ErrGameEnded):
		return "The game is over."
	default:
		return "Could not apply that decision: " + err.Error()
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/help":
		m.feedback = titleStyle.Render("Help:") + `
• Type the number of an option (or its label) and press Enter
• /status - Show your nation's attributes
• Esc or Ctrl+C - Quit
Keep every attribute at zero or above until the crisis is over.`
	case "/status":
		m.feedback = writeStatus(m.snapshot, m.playerID)
	default:
		m.feedback = errorStyle.Render("Unknown command " + input + ", try /help")
	}
	m.writeChatContent()
	return m, nil
}

// writeChatContent rebuilds the log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("DEFCON") + "\n\n")
	b.WriteString(wordwrap.String("Your advisers will report as the crisis unfolds. Answer their questions by number.", width) + "\n\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	last := m.lastPromptIndex()
	for i, msg := range m.messages {
		open := m.prompt != nil && i == last && msg.PromptID == m.prompt.PromptID
		b.WriteString(formatMessage(msg, width, open) + "\n\n")
	}
	if m.over {
		b.WriteString(noticeStyle.Render("The game has ended.") + "\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
		}
		b.WriteString("\n")
	}
	if m.feedback != "" {
		b.WriteString(m.feedback + "\n")
	}

	m.chatViewport.SetContent(b.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) lastPromptIndex() int {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Kind == game.MessageChoice {
			return i
		}
	}
	return -1
}

// formatMessage renders one delivered message. Options are numbered only
// while the prompt is still open.
func formatMessage(msg game.Message, width int, open bool) string {
	var b strings.Builder
	switch msg.Kind {
	case game.MessageNotice:
		b.WriteString(noticeStyle.Render(msg.Title) + "\n")
		b.WriteString(wordwrap.String(msg.Body, width))
		return b.String()
	case game.MessageError:
		b.WriteString(errorStyle.Render(msg.Title) + "\n")
		b.WriteString(wordwrap.String(msg.Body, width))
		return b.String()
	}

	if msg.Actor != "" {
		b.WriteString(speakerStyle.Render(msg.Actor+":") + " ")
	}
	if msg.Stage > 0 {
		b.WriteString(promptStyle.Render(fmt.Sprintf("[stage %d] ", msg.Stage)))
	}
	b.WriteString("\n" + wordwrap.String(msg.Body, width))

	if len(msg.Choices) > 0 {
		b.WriteString("\n")
		for i, c := range msg.Choices {
			line := fmt.Sprintf("  %d. %s", i+1, c)
			if open {
				b.WriteString("\n" + choiceStyle.Render(line))
			} else {
				b.WriteString("\n" + promptStyle.Render(line))
			}
		}
	}
	return b.String()
}

func findPlayer(snap game.Snapshot, playerID string) (game.PlayerView, bool) {
	for _, p := range snap.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return game.PlayerView{}, false
}

func writeStatus(snap game.Snapshot, playerID string) string {
	view, ok := findPlayer(snap, playerID)
	if !ok || view.State == nil {
		return noticeStyle.Render("Your nation is no longer in the game.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(view.State.NationName) + "\n")
	for _, attr := range state.TrackedAttributes() {
		v, ok := view.State.Get(attr)
		if !ok {
			continue
		}
		line := fmt.Sprintf("• %s: %d", state.DisplayName(attr), v)
		if v < 0 {
			line = errorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func writeMetadata(snap game.Snapshot, playerID string, over bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SITUATION ROOM") + "\n\n")

	b.WriteString("Game ID:\n")
	b.WriteString(snap.ID.String()[:8] + "...\n\n")

	b.WriteString("Stage:\n")
	b.WriteString(fmt.Sprintf("%d of %d\n\n", snap.Stage, content.MaxStage))

	b.WriteString("Time:\n")
	if over {
		b.WriteString("ended\n\n")
	} else {
		b.WriteString(fmt.Sprintf("%.1f / %.1f\n\n", min(snap.Elapsed, snap.Duration), snap.Duration))
	}

	b.WriteString("Nation:\n")
	b.WriteString(writeStatus(snap, playerID) + "\n")

	if view, ok := findPlayer(snap, playerID); ok {
		b.WriteString(fmt.Sprintf("Open decisions: %d\n\n", len(view.Pending)))
	}

	b.WriteString("Commands:\n")
	b.WriteString("• Esc: Quit\n")
	b.WriteString("• Enter: Answer\n")
	b.WriteString("• /help: Help\n")
	b.WriteString("• /status: Nation\n")

	return b.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(modalTitleStyle.Render("Leave the Situation Room?"))
	b.WriteString("\n\n")
	b.WriteString("Your nation will be left to fend for itself.")
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 0))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}
