package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"palabre/internal/chat"
	"palabre/internal/draft"
	"palabre/internal/element"
	"palabre/internal/models"
)

type GroupChatModel struct {
	deps  *Deps
	group *models.Group

	viewport viewport.Model
	textarea textarea.Model
	binding  *draft.Binding

	// messages is the rendered snapshot of the group history. The reply
	// timer appends from another goroutine, so the model never reads
	// group.Messages directly.
	messages []models.Message

	err          error
	windowWidth  int
	windowHeight int
}

func NewGroupChatModel(deps *Deps, group *models.Group) GroupChatModel {
	vp := viewport.New(80, 18)

	ta := textarea.New()
	ta.Placeholder = "Message the group..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	binding, saved := deps.Drafts.Bind(draft.TypeGroup, group.Name)
	if saved != "" {
		ta.SetValue(saved)
	}
	if !group.Blocked {
		ta.Focus()
	}

	m := GroupChatModel{
		deps:         deps,
		group:        group,
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

func (m GroupChatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m GroupChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 12
		m.textarea.SetWidth(msg.Width - 4)
		m.updateViewportContent()
		return m, nil

	case SessionExpiredMsg:
		m.binding.Blur(m.textarea.Value())
		return handleExpiry(m.deps)

	case ConversationsChangedMsg:
		// A synthesized reply may have landed.
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
			next := NewGroupsModel(m.deps)
			return next, next.Init()

		case "ctrl+s":
			return m.send()

		case "ctrl+l":
			m.deps.Chats.ClearGroupMessages(m.group)
			m.updateViewportContent()
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.group.Blocked {
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

func (m GroupChatModel) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	send := m.binding.WrapSend(func() error {
		return m.deps.Chats.SendGroup(m.group, text, models.SelfMember)
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

func (m *GroupChatModel) updateViewportContent() {
	m.messages = m.deps.Chats.GroupMessages(m.group)

	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	items := make([]any, len(m.messages))
	for i, msg := range m.messages {
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
				return m.groupBubble(msg, wrapWidth)
			},
		},
	})
	if err != nil {
		m.viewport.SetContent("")
		return
	}

	m.viewport.SetContent(tree.Render())
}

// groupBubble renders one group message. Synthesized member replies sit on
// the left in the other-party style; the user's own messages on the right.
func (m *GroupChatModel) groupBubble(msg models.Message, wrapWidth int) *element.Node {
	synthesized := chat.IsSynthesizedReply(m.group, msg)

	class := "bubble-self"
	align := "right"
	if synthesized {
		class = "bubble-other"
		align = "left"
	}

	meta := msg.Time
	if !synthesized && msg.Status != "" {
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

func (m GroupChatModel) View() string {
	s := titleStyle.Render(fmt.Sprintf("👥 %s", m.group.Name))
	s += statusStyle.Render(fmt.Sprintf("  %d members", m.group.Members))
	s += "\n"
	if m.group.Description != "" {
		s += normalStyle.Render(m.group.Description) + "\n"
	}
	s += "\n"

	if len(m.messages) == 0 {
		s += normalStyle.Render("  No messages yet.") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	if m.group.Blocked {
		s += "\n" + blockedStyle.Render("🚫 This group is blocked.") + "\n"
		s += helpStyle.Render("esc: back • ctrl+c: quit")
		return s
	}

	s += "\n" + m.textarea.View() + "\n"
	s += helpStyle.Render("ctrl+s: send • ctrl+l: clear history • pgup/pgdn: scroll • esc: back")
	return s
}
