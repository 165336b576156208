package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"palabre/internal/draft"
	"palabre/internal/element"
	"palabre/internal/models"
)

type ChatPanelModel struct {
	deps *Deps
	disc *models.Discussion

	viewport     viewport.Model
	textarea     textarea.Model
	binding      *draft.Binding
	err          error
	windowWidth  int
	windowHeight int
}

func NewChatPanelModel(deps *Deps, disc *models.Discussion) ChatPanelModel {
	vp := viewport.New(80, 18)

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	binding, saved := deps.Drafts.Bind(draft.TypeContact, disc.DisplayName())
	if saved != "" {
		ta.SetValue(saved)
	}
	if !disc.Blocked {
		ta.Focus()
	}

	m := ChatPanelModel{
		deps:         deps,
		disc:         disc,
		viewport:     vp,
		textarea:     ta,
		binding:      binding,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.updateViewportContent()
	m.viewport.GotoBottom()
	return m
}

func (m ChatPanelModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m ChatPanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 11
		m.textarea.SetWidth(msg.Width - 4)
		m.updateViewportContent()
		return m, nil

	case SessionExpiredMsg:
		m.binding.Blur(m.textarea.Value())
		return handleExpiry(m.deps)

	case ConversationsChangedMsg:
		m.updateViewportContent()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.binding.Blur(m.textarea.Value())
			return m, tea.Quit

		case "esc":
			m.binding.Blur(m.textarea.Value())
			next := NewDiscussionsModel(m.deps)
			return next, next.Init()

		case "ctrl+s":
			return m.send()

		case "ctrl+l":
			m.deps.Chats.ClearDiscussionMessages(m.disc)
			m.updateViewportContent()
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.disc.Blocked {
			return m, nil
		}

		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		m.binding.Input(m.textarea.Value())
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ChatPanelModel) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	send := m.binding.WrapSend(func() error {
		return m.deps.Chats.SendDirect(m.disc, text, models.SelfMember)
	})
	if err := send(); err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.textarea.Reset()
	m.updateViewportContent()
	m.viewport.GotoBottom()
	return m, nil
}

// updateViewportContent rebuilds the message transcript as an element tree
// and renders it into the viewport.
func (m *ChatPanelModel) updateViewportContent() {
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	items := make([]any, len(m.disc.Messages))
	for i, msg := range m.disc.Messages {
		items[i] = msg
	}

	tree, err := element.New("div", nil, element.Props{
		"forEach": element.ForEach{
			Items: items,
			Render: func(item any) *element.Node {
				msg, ok := item.(models.Message)
				if !ok {
					return nil
				}
				return messageBubble(msg, wrapWidth)
			},
		},
	})
	if err != nil {
		m.viewport.SetContent("")
		return
	}

	m.viewport.SetContent(tree.Render())
}

// messageBubble builds one message as a bubble node with a metadata line.
func messageBubble(msg models.Message, wrapWidth int) *element.Node {
	self := msg.Sender == "" || msg.Sender == models.SelfMember

	class := "bubble-other"
	align := "left"
	if self {
		class = "bubble-self"
		align = "right"
	}

	meta := msg.Time
	if self && msg.Status != "" {
		meta = fmt.Sprintf("%s %s", msg.Time, msg.Status)
	}

	bubble, err := element.New("div", nil, element.Props{
		"style": map[string]string{"width": fmt.Sprint(wrapWidth), "align": align},
	})
	if err != nil {
		return nil
	}
	bubble.AddElement("p", wordwrap.String(msg.Text, wrapWidth-10), element.Props{"class": class})
	bubble.AddElement("small", meta, element.Props{"class": "muted", "showIf": meta != ""})
	return bubble
}

func (m ChatPanelModel) View() string {
	s := titleStyle.Render(fmt.Sprintf("💬 %s", m.disc.DisplayName()))
	if m.disc.Online {
		s += statusStyle.Render("  🟢 online")
	}
	s += "\n\n"

	if len(m.disc.Messages) == 0 {
		s += normalStyle.Render("  No messages yet. Say hello!") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	if m.disc.Blocked {
		s += "\n" + blockedStyle.Render("🚫 This contact is blocked. Unblock them to send messages.") + "\n"
		s += helpStyle.Render("esc: back • ctrl+c: quit")
		return s
	}

	s += "\n" + m.textarea.View() + "\n"
	s += helpStyle.Render("ctrl+s: send • ctrl+l: clear history • pgup/pgdn: scroll • esc: back")
	return s
}
