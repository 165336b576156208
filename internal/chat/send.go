package chat

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"palabre/internal/apperr"
	"palabre/internal/models"
)

const clockFormat = "15:04"

// cannedReplies is the fixed phrase set synthesized group replies draw from.
var cannedReplies = []string{
	"Ok !",
	"Bonne idée.",
	"Je suis d'accord.",
	"Merci pour l'info.",
	"😂",
	"👍",
	"Je regarde ça.",
	"Super !",
}

// SendDirect appends a message to a one-to-one discussion and updates its
// preview. Empty text is a silent no-op; a blocked contact refuses input.
func (s *Store) SendDirect(d *models.Discussion, text, sender string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Blocked {
		return apperr.Blocked("cannot send or receive messages with this contact")
	}

	now := time.Now().Format(clockFormat)
	d.Messages = append(d.Messages, models.Message{
		Text:   text,
		Time:   now,
		Status: models.StatusDelivered,
		Sender: sender,
	})
	d.LastMsg = text
	d.Time = now
	s.persistLocked()
	return nil
}

// SendGroup appends a message to a group and, when the group has at least
// one member besides the owning user, schedules a synthesized reply from a
// uniformly-chosen other member after a randomized delay. The reply timer is
// fire-and-forget: archiving or deleting the group first does not cancel it.
func (s *Store) SendGroup(g *models.Group, text, sender string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.Blocked {
		return apperr.Blocked("this group is blocked")
	}

	g.Messages = append(g.Messages, models.Message{
		Text:   text,
		Time:   time.Now().Format(clockFormat),
		Status: models.StatusDelivered,
		Sender: sender,
	})
	s.persistLocked()

	var others []models.GroupMember
	for _, m := range g.MembersList {
		if !m.IsSelf() {
			others = append(others, m)
		}
	}
	if len(others) == 0 {
		return nil
	}

	replier := others[rand.IntN(len(others))]
	delay := s.opts.ReplyDelayMin
	if jitter := s.opts.ReplyDelayMax - s.opts.ReplyDelayMin; jitter > 0 {
		delay += rand.N(jitter)
	}
	time.AfterFunc(delay, func() {
		s.appendSynthesizedReply(g, replier)
	})
	return nil
}

// appendSynthesizedReply fabricates the remote participant's response,
// prefixing a canned phrase with the replier's display name.
func (s *Store) appendSynthesizedReply(g *models.Group, replier models.GroupMember) {
	s.mu.Lock()
	reply := cannedReplies[rand.IntN(len(cannedReplies))]
	g.Messages = append(g.Messages, models.Message{
		Text: fmt.Sprintf("%s : %s", replier.DisplayName(), reply),
		Time: time.Now().Format(clockFormat),
	})
	s.persistLocked()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// IsSynthesizedReply reports whether a group message was fabricated for one
// of the members, using the "Name :" text-prefix heuristic of the original.
func IsSynthesizedReply(g *models.Group, msg models.Message) bool {
	for _, m := range g.MembersList {
		name := strings.TrimSpace(m.DisplayName())
		if name != "" && strings.HasPrefix(msg.Text, name+" :") {
			return true
		}
	}
	return false
}

// SendToMany appends the same message to every selected non-blocked
// contact, then persists once.
func (s *Store) SendToMany(targets []*models.Discussion, text, sender string) {
	text = strings.TrimSpace(text)
	if text == "" || len(targets) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Format(clockFormat)
	for _, d := range targets {
		if d.Blocked {
			continue
		}
		d.Messages = append(d.Messages, models.Message{
			Text:   text,
			Time:   now,
			Status: models.StatusDelivered,
			Sender: sender,
		})
		d.LastMsg = text
		d.Time = now
	}
	s.persistLocked()
}
