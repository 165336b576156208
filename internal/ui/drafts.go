package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"palabre/internal/draft"
)

type draftItem struct {
	result draft.SearchResult
}

func (i draftItem) Title() string {
	icon := "💬"
	if i.result.Type == draft.TypeGroup {
		icon = "👥"
	}
	return fmt.Sprintf("%s %s", icon, i.result.Key)
}

func (i draftItem) Description() string {
	preview := i.result.Content
	if len(preview) > 60 {
		preview = preview[:57] + "..."
	}
	return fmt.Sprintf("%s • %s", i.result.Timestamp.Format("Jan 2 15:04"), preview)
}

func (i draftItem) FilterValue() string {
	return i.result.Key
}

// DraftsModel lists saved drafts with search, per-draft deletion, and a
// clear-all action. Opening a draft jumps to its conversation with the
// content preloaded.
type DraftsModel struct {
	deps *Deps

	list         list.Model
	search       textinput.Model
	searching    bool
	term         string
	status       string
	windowWidth  int
	windowHeight int
}

func NewDraftsModel(deps *Deps) DraftsModel {
	search := textinput.New()
	search.Placeholder = "Search drafts..."
	search.CharLimit = 60
	search.Width = 40

	m := DraftsModel{
		deps:         deps,
		search:       search,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.list = newConversationList("Drafts")
	m.list.SetFilteringEnabled(false)
	m.reload()
	return m
}

func (m *DraftsModel) reload() {
	results := m.deps.Drafts.Search(m.term)
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = draftItem{result: r}
	}
	m.list.SetItems(items)
	if m.term == "" {
		m.list.Title = fmt.Sprintf("Drafts - %d saved", len(results))
	} else {
		m.list.Title = fmt.Sprintf("Drafts - %d matching %q", len(results), m.term)
	}
}

func (m DraftsModel) Init() tea.Cmd {
	return nil
}

func (m DraftsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 6)
		return m, nil

	case SessionExpiredMsg:
		return handleExpiry(m.deps)

	case draftCountMsg:
		m.reload()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter", "esc":
				m.searching = false
				m.search.Blur()
				if msg.String() == "esc" {
					m.term = ""
					m.search.Reset()
					m.reload()
				}
				return m, nil
			default:
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				m.term = m.search.Value()
				m.reload()
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "q":
			menu := NewMenuModel(m.deps, "")
			return menu, menu.Init()

		case "/":
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink

		case "enter":
			if item, ok := m.list.SelectedItem().(draftItem); ok {
				return m.open(item.result)
			}
			return m, nil

		case "x":
			if item, ok := m.list.SelectedItem().(draftItem); ok {
				if m.deps.Drafts.Delete(item.result.Type, item.result.Key) {
					m.status = fmt.Sprintf("draft for %s deleted", item.result.Key)
				}
				m.reload()
			}
			return m, nil

		case "X":
			m.deps.Drafts.ClearAll()
			m.status = "all drafts deleted"
			m.reload()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// open navigates to the draft's conversation. The chat screens preload
// draft content themselves through their binding.
func (m DraftsModel) open(r draft.SearchResult) (tea.Model, tea.Cmd) {
	if replacement := requireAuth(m.deps); replacement != nil {
		return replacement, replacement.Init()
	}

	if r.Type == draft.TypeGroup {
		if g := m.deps.Chats.FindGroup(r.Key); g != nil {
			next := NewGroupChatModel(m.deps, g)
			return next, next.Init()
		}
	} else {
		if d := m.deps.Chats.FindDiscussion(r.Key); d != nil {
			next := NewChatPanelModel(m.deps, d)
			return next, next.Init()
		}
	}

	m.status = fmt.Sprintf("conversation %q no longer exists", r.Key)
	return m, nil
}

func (m DraftsModel) View() string {
	s := ""
	if m.searching {
		s += inputStyle.Render("Search: ") + m.search.View() + "\n\n"
	}

	if len(m.list.Items()) == 0 {
		s += titleStyle.Render("Drafts") + "\n\n"
		if m.term != "" {
			s += normalStyle.Render(fmt.Sprintf("  No drafts matching %q.", m.term)) + "\n"
		} else {
			s += normalStyle.Render("  No saved drafts.") + "\n"
		}
		s += "\n" + helpStyle.Render("/: search • esc: back • ctrl+c: quit")
		return s
	}

	s += m.list.View() + "\n"
	if m.status != "" {
		s += statusStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("enter: open • x: delete • X: delete all • /: search • esc: back")
	return s
}
