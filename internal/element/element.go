package element

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ErrSkipped is returned by New when a "visibleIf" prop is present and
// falsy. It is a control-flow signal meaning "this element should not be
// created"; callers skip rendering instead of propagating it.
var ErrSkipped = errors.New("visibleIf did not permit the creation of the element")

// Props configures a node. Reserved keys:
//
//	visibleIf  bool        false fails creation (ErrSkipped)
//	showIf     bool        false keeps the node but renders nothing
//	forEach    ForEach     list expansion into children
//	class      string or []string, resolved against the style registry
//	style      map[string]string, merged key-by-key onto the node style
//	on<Event>  func(), bound as an event handler
//
// Every other key becomes a generic attribute.
type Props map[string]any

// ForEach renders one child per item, appending each non-nil result.
type ForEach struct {
	Items  []any
	Render func(item any) *Node
}

// Node is one displayable element in a render tree.
type Node struct {
	Tag      string
	text     string
	children []*Node
	attrs    map[string]string
	handlers map[string]func()
	style    lipgloss.Style
	classes  []string
	show     bool
}

// New constructs a node from a tag, content and props. Content may be a
// string, a *Node, or a []any mixing strings and nodes appended in order.
func New(tag string, content any, props Props) (*Node, error) {
	if tag == "" {
		return nil, errors.New("tag must be a non-empty string")
	}

	if v, ok := props["visibleIf"]; ok && !truthy(v) {
		return nil, ErrSkipped
	}

	n := &Node{
		Tag:      tag,
		attrs:    make(map[string]string),
		handlers: make(map[string]func()),
		style:    lipgloss.NewStyle(),
		show:     true,
	}

	if fe, ok := props["forEach"].(ForEach); ok {
		for _, item := range fe.Items {
			if child := fe.Render(item); child != nil {
				n.children = append(n.children, child)
			}
		}
	}

	for key, value := range props {
		switch {
		case key == "class" || key == "className":
			n.applyClasses(value)
		case strings.HasPrefix(key, "on"):
			if handler, ok := value.(func()); ok {
				n.handlers[strings.ToLower(key[2:])] = handler
			}
		case key == "showIf":
			n.show = truthy(value)
		case key == "visibleIf" || key == "forEach":
			// consumed above
		case key == "style":
			if styles, ok := value.(map[string]string); ok {
				for prop, v := range styles {
					n.style = applyStyleProp(n.style, prop, v)
				}
			}
		default:
			n.attrs[key] = fmt.Sprint(value)
		}
	}

	switch c := content.(type) {
	case nil:
	case string:
		n.text = c
	case *Node:
		n.children = append(n.children, c)
	case []any:
		for _, item := range c {
			switch v := item.(type) {
			case string:
				n.children = append(n.children, textNode(v))
			case *Node:
				if v != nil {
					n.children = append(n.children, v)
				}
			}
		}
	default:
		return nil, fmt.Errorf("unsupported content type %T", content)
	}

	return n, nil
}

func textNode(s string) *Node {
	return &Node{Tag: "text", text: s, show: true, style: lipgloss.NewStyle()}
}

// AddElement builds a child from a tag/content/props triple and appends it,
// returning the receiver for chaining. A child whose creation fails
// (ErrSkipped included) is silently not appended.
func (n *Node) AddElement(tag string, content any, props Props) *Node {
	if child, err := New(tag, content, props); err == nil {
		n.children = append(n.children, child)
	}
	return n
}

// AddNode appends an existing node, returning the receiver for chaining.
func (n *Node) AddNode(child *Node) *Node {
	if child != nil {
		n.children = append(n.children, child)
	}
	return n
}

// SetShow toggles presentation-layer visibility without detaching the node.
func (n *Node) SetShow(show bool) { n.show = show }

// Attr returns the generic attribute stored under key.
func (n *Node) Attr(key string) string { return n.attrs[key] }

// Children returns the ordered child list.
func (n *Node) Children() []*Node { return n.children }

// Fire invokes the handler bound to the given event name, reporting whether
// one was bound.
func (n *Node) Fire(event string) bool {
	handler, ok := n.handlers[strings.ToLower(event)]
	if !ok {
		return false
	}
	handler()
	return true
}

// Render walks the tree depth-first and produces the node's visual form.
// Nodes hidden by showIf render to the empty string but stay in the tree.
// Row-like tags ("row", "span") join their children horizontally; everything
// else stacks them.
func (n *Node) Render() string {
	if !n.show {
		return ""
	}

	parts := make([]string, 0, len(n.children)+1)
	if n.text != "" {
		parts = append(parts, n.text)
	}
	for _, child := range n.children {
		if rendered := child.Render(); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	var content string
	switch n.Tag {
	case "row", "span":
		content = lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	default:
		content = strings.Join(parts, "\n")
	}

	return n.style.Render(content)
}

func (n *Node) applyClasses(value any) {
	var classes []string
	switch v := value.(type) {
	case string:
		classes = strings.Fields(v)
	case []string:
		classes = v
	}
	for _, class := range classes {
		n.classes = append(n.classes, class)
		if registered, ok := registry[class]; ok {
			n.style = n.style.Inherit(registered)
		}
	}
}

// HasClass reports whether class was applied to the node.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.classes {
		if c == class {
			return true
		}
	}
	return false
}

func applyStyleProp(s lipgloss.Style, prop, value string) lipgloss.Style {
	switch prop {
	case "foreground":
		return s.Foreground(lipgloss.Color(value))
	case "background":
		return s.Background(lipgloss.Color(value))
	case "bold":
		return s.Bold(value == "true")
	case "italic":
		return s.Italic(value == "true")
	case "underline":
		return s.Underline(value == "true")
	case "width":
		if w, err := strconv.Atoi(value); err == nil {
			return s.Width(w)
		}
	case "align":
		switch value {
		case "right":
			return s.Align(lipgloss.Right)
		case "center":
			return s.Align(lipgloss.Center)
		default:
			return s.Align(lipgloss.Left)
		}
	}
	return s
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case string:
		return t != ""
	case int:
		return t != 0
	default:
		return true
	}
}
