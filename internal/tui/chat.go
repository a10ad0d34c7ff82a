package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"carecompanion/internal/api"
	"carecompanion/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChat
	focusSessions
)

type timerTickMsg struct{}
type spinMsg struct{}
type noticeExpireMsg struct{ id int }

type sendResultMsg struct {
	outcome app.SendOutcome
}

type sessionsLoadedMsg struct {
	sessions []api.ChatSession
	err      error
}

type sessionChangedMsg struct {
	label string
	err   error
}

type activeNotice struct {
	id     int
	level  app.NoticeLevel
	text   string
	posted time.Time
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type ChatModel struct {
	app   *app.Application
	theme Theme
	keys  keyMap

	width  int
	height int
	ready  bool
	focus  focusArea

	input  textarea.Model
	chatVP viewport.Model

	renderer *ReplyRenderer

	sending    bool
	spinnerPos int
	statusText string

	// Prompt history for up-arrow recall. historyPos == len(history)
	// means the live draft is showing.
	history       []string
	historyPos    int
	historyDraft  string
	historyLoaded bool

	notices  []activeNotice
	noticeID int

	pickerOpen bool
	sessions   []api.ChatSession
	sessionSel int
}

func NewChatModel(application *app.Application) *ChatModel {
	ta := textarea.New()
	ta.Placeholder = "Type a message, then press Enter."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()

	theme := NewTheme(application.Config.Theme)
	return &ChatModel{
		app:        application,
		theme:      theme,
		keys:       defaultKeyMap(),
		width:      100,
		height:     30,
		focus:      focusInput,
		input:      ta,
		renderer:   NewReplyRenderer(theme),
		statusText: "Ready",
	}
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.timerTick(), m.loadDailyTotalCmd())
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		layout := m.computeLayout()
		if !m.ready {
			m.chatVP = viewport.New(layout.chatW, layout.chatH)
			m.chatVP.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.chatVP.Width = layout.chatW
			m.chatVP.Height = layout.chatH
		}
		m.input.SetWidth(maxInt(10, layout.inputW))
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if m.pickerOpen {
			return m.updatePicker(msg)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stopTimerOnExit()
			return m, tea.Quit

		case key.Matches(msg, m.keys.FocusNext):
			if m.focus == focusInput {
				m.focus = focusChat
				m.input.Blur()
			} else {
				m.focus = focusInput
				m.input.Focus()
			}
			return m, nil

		case key.Matches(msg, m.keys.NewSession):
			return m, m.newSessionCmd()

		case key.Matches(msg, m.keys.Sessions):
			return m, m.loadSessionsCmd()

		case key.Matches(msg, m.keys.Timer):
			return m, m.toggleTimerCmd()

		case key.Matches(msg, m.keys.Speak):
			return m, m.speakLastCmd()

		case key.Matches(msg, m.keys.Suggestion1):
			return m, m.acceptSuggestionCmd(0)
		case key.Matches(msg, m.keys.Suggestion2):
			return m, m.acceptSuggestionCmd(1)
		case key.Matches(msg, m.keys.Suggestion3):
			return m, m.acceptSuggestionCmd(2)

		case key.Matches(msg, m.keys.Send):
			if m.focus == focusInput {
				return m, m.onEnter()
			}

		case msg.Type == tea.KeyUp:
			if m.focus == focusChat {
				m.chatVP.LineUp(1)
				return m, nil
			}
			if m.focus == focusInput {
				m.recallPrev()
				return m, nil
			}
		case msg.Type == tea.KeyDown:
			if m.focus == focusChat {
				m.chatVP.LineDown(1)
				return m, nil
			}
			if m.focus == focusInput {
				m.recallNext()
				return m, nil
			}
		case key.Matches(msg, m.keys.ScrollUp):
			m.chatVP.ViewUp()
			return m, nil
		case key.Matches(msg, m.keys.ScrollDown):
			m.chatVP.ViewDown()
			return m, nil
		}

	case timerTickMsg:
		if m.app.Timer.Running() {
			m.app.Timer.Tick()
		}
		return m, m.timerTick()

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.sending {
			return m, m.spinTick()
		}
		return m, nil

	case sendResultMsg:
		m.sending = false
		m.statusText = "Ready"
		var expiries []tea.Cmd
		for _, n := range msg.outcome.Notices {
			expiries = append(expiries, m.postNotice(n.Level, n.Text))
		}
		m.refreshTranscript()
		m.chatVP.GotoBottom()
		return m, tea.Batch(expiries...)

	case sessionsLoadedMsg:
		if msg.err != nil {
			return m, m.postNotice(app.NoticeError, "Could not load sessions.")
		}
		m.sessions = msg.sessions
		m.sessionSel = 0
		m.pickerOpen = true
		m.focus = focusSessions
		m.input.Blur()
		return m, nil

	case sessionChangedMsg:
		if msg.err != nil {
			appendTUIErrorLog("session", msg.err)
			return m, m.postNotice(app.NoticeError, "Something went wrong. Please try again later.")
		}
		m.refreshTranscript()
		m.chatVP.GotoBottom()
		if msg.label != "" {
			return m, m.postNotice(app.NoticeInfo, msg.label)
		}
		return m, nil

	case noticeExpireMsg:
		kept := m.notices[:0]
		for _, n := range m.notices {
			if n.id != msg.id {
				kept = append(kept, n)
			}
		}
		m.notices = kept
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Dismiss):
		m.closePicker()
		return m, nil
	case msg.Type == tea.KeyUp:
		if m.sessionSel > 0 {
			m.sessionSel--
		}
		return m, nil
	case msg.Type == tea.KeyDown:
		if m.sessionSel < len(m.sessions)-1 {
			m.sessionSel++
		}
		return m, nil
	case msg.Type == tea.KeyDelete, msg.String() == "d":
		if len(m.sessions) == 0 {
			return m, nil
		}
		target := m.sessions[m.sessionSel]
		m.closePicker()
		return m, m.deleteSessionCmd(target.ID)
	case key.Matches(msg, m.keys.Send):
		if len(m.sessions) == 0 {
			m.closePicker()
			return m, nil
		}
		target := m.sessions[m.sessionSel]
		m.closePicker()
		return m, m.openSessionCmd(target.ID)
	}
	return m, nil
}

func (m *ChatModel) closePicker() {
	m.pickerOpen = false
	m.focus = focusInput
	m.input.Focus()
}

func (m *ChatModel) onEnter() tea.Cmd {
	val := strings.TrimSpace(m.input.Value())
	if val == "" {
		return nil
	}
	if m.sending {
		return m.postNotice(app.NoticeWarning, "Still waiting on the previous message.")
	}

	entry, err := m.app.Conversation.AppendOptimistic(val)
	if err != nil {
		return nil
	}
	m.rememberPrompt(val)
	m.input.Reset()
	m.refreshTranscript()
	m.chatVP.GotoBottom()

	m.sending = true
	m.statusText = "Sending…"
	m.spinnerPos = 0
	return tea.Batch(m.sendCmd(entry.ID, val), m.spinTick())
}

// loadHistory pulls persisted prompts into memory the first time recall
// is used. The store is optional; without one only this run's prompts
// are recallable.
func (m *ChatModel) loadHistory() {
	if m.historyLoaded {
		return
	}
	m.historyLoaded = true
	if m.app == nil || m.app.Local == nil {
		return
	}
	entries, err := m.app.Local.PromptHistory(0)
	if err != nil {
		appendTUIErrorLog("history", err)
		return
	}
	m.history = entries
	m.historyPos = len(m.history)
}

func (m *ChatModel) rememberPrompt(text string) {
	m.loadHistory()
	m.history = append(m.history, text)
	m.historyPos = len(m.history)
	m.historyDraft = ""
}

// recallPrev steps back through sent prompts, stashing the live draft so
// recallNext can restore it.
func (m *ChatModel) recallPrev() {
	m.loadHistory()
	if len(m.history) == 0 || m.historyPos == 0 {
		return
	}
	if m.historyPos == len(m.history) {
		m.historyDraft = m.input.Value()
	}
	m.historyPos--
	m.input.SetValue(m.history[m.historyPos])
}

func (m *ChatModel) recallNext() {
	if m.historyPos >= len(m.history) {
		return
	}
	m.historyPos++
	if m.historyPos == len(m.history) {
		m.input.SetValue(m.historyDraft)
		return
	}
	m.input.SetValue(m.history[m.historyPos])
}

func (m *ChatModel) sendCmd(entryID, text string) tea.Cmd {
	return func() tea.Msg {
		outcome := m.app.Conversation.Send(context.Background(), entryID, text)
		return sendResultMsg{outcome: outcome}
	}
}

func (m *ChatModel) acceptSuggestionCmd(index int) tea.Cmd {
	text, ok := m.app.Conversation.AcceptSuggestion(index)
	if !ok {
		return nil
	}
	entry, err := m.app.Conversation.AppendOptimistic(text)
	if err != nil {
		return nil
	}
	m.rememberPrompt(text)
	m.refreshTranscript()
	m.chatVP.GotoBottom()
	m.sending = true
	m.statusText = "Sending…"
	return tea.Batch(m.sendCmd(entry.ID, text), m.spinTick())
}

func (m *ChatModel) loadSessionsCmd() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.app.Conversation.ListSessions(context.Background())
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (m *ChatModel) openSessionCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := m.app.Conversation.LoadSession(context.Background(), sessionID)
		return sessionChangedMsg{err: err}
	}
}

func (m *ChatModel) newSessionCmd() tea.Cmd {
	title := m.app.Config.SessionTitle
	return func() tea.Msg {
		err := m.app.Conversation.NewSession(context.Background(), title)
		return sessionChangedMsg{label: "Started a new session.", err: err}
	}
}

func (m *ChatModel) deleteSessionCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		err := m.app.Conversation.DeleteSession(context.Background(), sessionID)
		return sessionChangedMsg{label: "Session deleted.", err: err}
	}
}

func (m *ChatModel) toggleTimerCmd() tea.Cmd {
	session := m.app.Conversation.Session()
	if session == nil {
		return m.postNotice(app.NoticeWarning, "No open session yet.")
	}
	id := session.ID
	if m.app.Timer.Running() {
		return func() tea.Msg {
			m.app.Timer.Stop(context.Background(), id)
			return sessionChangedMsg{label: "Timer stopped."}
		}
	}
	return func() tea.Msg {
		if err := m.app.Timer.Start(context.Background(), id); err != nil {
			return sessionChangedMsg{err: err}
		}
		return sessionChangedMsg{label: "Timer started."}
	}
}

func (m *ChatModel) loadDailyTotalCmd() tea.Cmd {
	return func() tea.Msg {
		m.app.Timer.LoadDailyTotal(context.Background())
		return sessionChangedMsg{}
	}
}

func (m *ChatModel) speakLastCmd() tea.Cmd {
	if !m.app.Speaker.Available() {
		return m.postNotice(app.NoticeWarning, "No speech synthesizer found on this system.")
	}
	transcript := m.app.Conversation.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == "ai" {
			text, mood := transcript[i].Content, transcript[i].Mood
			return func() tea.Msg {
				err := m.app.Speaker.Speak(context.Background(), text, mood)
				return sessionChangedMsg{err: err}
			}
		}
	}
	return nil
}

func (m *ChatModel) stopTimerOnExit() {
	if !m.app.Timer.Running() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	m.app.Timer.Stop(ctx, m.app.Timer.SessionID())
}

func (m *ChatModel) postNotice(level app.NoticeLevel, text string) tea.Cmd {
	m.noticeID++
	id := m.noticeID
	m.notices = append(m.notices, activeNotice{id: id, level: level, text: text, posted: time.Now()})
	ttl := 5 * time.Second
	if level != app.NoticeInfo {
		ttl = 8 * time.Second
	}
	return tea.Tick(ttl, func(_ time.Time) tea.Msg { return noticeExpireMsg{id: id} })
}

func (m *ChatModel) timerTick() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg { return timerTickMsg{} })
}

func (m *ChatModel) spinTick() tea.Cmd {
	d := 90 * time.Millisecond
	if os.Getenv("CARE_REDUCE_MOTION") == "1" {
		d = 250 * time.Millisecond
	}
	return tea.Tick(d, func(_ time.Time) tea.Msg { return spinMsg{} })
}

func (m *ChatModel) refreshTranscript() {
	if !m.ready {
		return
	}
	layout := m.computeLayout()
	var b strings.Builder
	for i, msg := range m.app.Conversation.Transcript() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, layout.chatW))
		b.WriteString("\n")
	}
	m.chatVP.SetContent(b.String())
}

func (m *ChatModel) renderMessage(msg app.LocalMessage, width int) string {
	ts := m.theme.TopBarMeta.Render(msg.CreatedAt.Format("15:04"))
	switch msg.Role {
	case "user":
		label := m.theme.RoleYou.Render("You")
		if msg.Pending {
			label += m.theme.TopBarMeta.Render(" (sending)")
		}
		return fmt.Sprintf("%s %s\n%s", label, ts, msg.Content)
	case "ai":
		label := m.theme.RoleAI.Render("Companion")
		if msg.Mood != "" {
			label += " " + m.moodStyle(msg.Mood).Render("["+msg.Mood+"]")
		}
		return fmt.Sprintf("%s %s\n%s", label, ts, m.renderer.Render(msg.Content, width))
	default:
		return m.theme.RoleSys.Render(msg.Content)
	}
}

func (m *ChatModel) moodStyle(mood string) lipgloss.Style {
	switch app.NormalizeMood(mood) {
	case app.MoodHappy, app.MoodCurious:
		return m.theme.MoodPositive
	case app.MoodSad:
		return m.theme.MoodNegative
	case app.MoodSupportive:
		return m.theme.MoodPositive
	default:
		return m.theme.MoodNeutral
	}
}

type layoutInfo struct {
	chatW  int
	chatH  int
	inputW int
}

func (m *ChatModel) computeLayout() layoutInfo {
	chrome := 2 + 3 + 1 // top bar, input box, footer
	chrome += m.noticeLines() + m.suggestionLines()
	h := m.height - chrome
	if h < 4 {
		h = 4
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return layoutInfo{chatW: w, chatH: h, inputW: w}
}

func (m *ChatModel) noticeLines() int { return len(m.notices) }

func (m *ChatModel) suggestionLines() int {
	state, suggestions := m.app.Conversation.Redirect()
	if state != app.RedirectSuggesting {
		return 0
	}
	return len(suggestions) + 1
}

func (m *ChatModel) View() string {
	if !m.ready {
		return "…"
	}
	if m.pickerOpen {
		return m.renderPicker()
	}

	parts := []string{
		m.renderTopBar(),
		m.renderChatPane(),
	}
	if s := m.renderSuggestions(); s != "" {
		parts = append(parts, s)
	}
	if n := m.renderNotices(); n != "" {
		parts = append(parts, n)
	}
	parts = append(parts, m.renderInputArea(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *ChatModel) renderTopBar() string {
	title := m.theme.TopBarTitle.Render("CareCompanion")

	sessionName := "no session"
	if s := m.app.Conversation.Session(); s != nil {
		sessionName = truncate(s.Title, 28)
	}

	mood := m.app.Conversation.CurrentMood()
	badge := m.moodStyle(mood).Render("mood: " + mood)

	clock := fmtClock(m.app.Timer.Elapsed())
	if m.app.Timer.Running() {
		clock = "▶ " + clock
	}
	daily := fmtClock(m.app.Timer.DailySeconds())

	spin := " "
	if m.sending {
		spin = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos])
	}

	meta := m.theme.TopBarMeta.Render(fmt.Sprintf("%s · %s · today %s", sessionName, clock, daily))
	line := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", badge, "  ", meta, " ", spin)
	return m.theme.TopBar.Width(m.width).Render(line) + "\n"
}

func (m *ChatModel) renderChatPane() string {
	style := m.theme.Pane
	if m.focus == focusChat {
		style = m.theme.PaneFocused
	}
	return style.Width(maxInt(10, m.width-2)).Render(m.chatVP.View())
}

func (m *ChatModel) renderSuggestions() string {
	state, suggestions := m.app.Conversation.Redirect()
	if state != app.RedirectSuggesting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.theme.NoticeInfo.Render("Maybe try a different direction:"))
	for i, s := range suggestions {
		if i >= 3 {
			break
		}
		b.WriteString("\n")
		b.WriteString(m.theme.SuggestionKey.Render(fmt.Sprintf(" alt+%d ", i+1)))
		b.WriteString(m.theme.Suggestion.Render(truncate(s, maxInt(20, m.width-10))))
	}
	return b.String()
}

func (m *ChatModel) renderNotices() string {
	if len(m.notices) == 0 {
		return ""
	}
	var lines []string
	for _, n := range m.notices {
		style := m.theme.NoticeInfo
		switch n.level {
		case app.NoticeWarning:
			style = m.theme.NoticeWarn
		case app.NoticeError:
			style = m.theme.NoticeErr
		}
		lines = append(lines, style.Render(truncate(n.text, maxInt(20, m.width-2))))
	}
	return strings.Join(lines, "\n")
}

func (m *ChatModel) renderInputArea() string {
	style := m.theme.InputBox
	if m.focus == focusInput {
		style = m.theme.InputBoxF
	}
	return style.Width(maxInt(10, m.width-2)).Render(m.input.View())
}

func (m *ChatModel) renderFooter() string {
	hints := []string{
		"enter send",
		"ctrl+n new",
		"ctrl+s sessions",
		"ctrl+t timer",
	}
	if m.app.Speaker.Available() {
		hints = append(hints, "ctrl+o speak")
	}
	hints = append(hints, "tab focus", "ctrl+c quit")
	return m.theme.Footer.Width(m.width).Render(truncate(strings.Join(hints, " · "), m.width))
}

func (m *ChatModel) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.PaneTitleF.Render("Sessions"))
	b.WriteString("\n")
	if len(m.sessions) == 0 {
		b.WriteString(m.theme.TopBarMeta.Render("No sessions yet. Press esc to go back."))
	}
	for i, s := range m.sessions {
		cursor := "  "
		style := m.theme.Suggestion
		if i == m.sessionSel {
			cursor = m.theme.SuggestionKey.Render("> ")
			style = m.theme.PaneTitleF
		}
		line := fmt.Sprintf("%s%s", cursor, style.Render(truncate(s.Title, maxInt(20, m.width-20))))
		if !s.UpdatedAt.IsZero() {
			line += " " + m.theme.TopBarMeta.Render(s.UpdatedAt.Format("Jan 2 15:04"))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("enter open · d delete · esc back"))
	return m.theme.Pane.Width(maxInt(10, m.width-2)).Render(b.String())
}

func fmtClock(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
