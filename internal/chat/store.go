package chat

import (
	"log/slog"
	"sync"
	"time"

	"palabre/internal/models"
	"palabre/internal/store"
)

const bundleKeyPrefix = "userData_"

// Options carries the tunables the store needs. Zero values fall back to
// the application defaults.
type Options struct {
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
	AdminCap      int
}

func (o Options) withDefaults() Options {
	if o.ReplyDelayMin == 0 {
		o.ReplyDelayMin = 1200 * time.Millisecond
	}
	if o.ReplyDelayMax == 0 {
		o.ReplyDelayMax = 3200 * time.Millisecond
	}
	if o.AdminCap == 0 {
		o.AdminCap = 3
	}
	return o
}

// Store owns one user's discussions and groups, mutated by UI actions and
// flushed to the blob store as the userData_<userId> bundle. Entries are
// held as pointers: a scheduled group reply keeps its target alive and still
// appends to it even if the group was archived or deleted before the timer
// fired. That asymmetry is intentional.
type Store struct {
	store  *store.Store
	userID string
	opts   Options

	mu          sync.Mutex
	discussions []*models.Discussion
	groups      []*models.Group

	// notify tells the UI that state changed outside an input event
	// (synthesized group replies). Optional.
	notify func()

	// unregister removes the bundle flush from the store on Close.
	unregister func()
}

// NewStore loads the user's bundle, seeding two example discussions when no
// stored state exists, and registers the bundle flush with the store.
func NewStore(st *store.Store, userID string, opts Options) *Store {
	s := &Store{store: st, userID: userID, opts: opts.withDefaults()}

	var bundle models.Bundle
	found, err := st.Load(bundleKeyPrefix+userID, &bundle)
	if err != nil {
		slog.Error("failed to load conversation bundle, starting empty", "user", userID, "err", err)
	}
	for i := range bundle.Discussions {
		s.discussions = append(s.discussions, &bundle.Discussions[i])
	}
	for i := range bundle.Groupes {
		g := &bundle.Groupes[i]
		if g.Admins == nil && g.Admin != "" {
			g.Admins = []string{g.Admin}
		}
		s.groups = append(s.groups, g)
	}

	if !found {
		s.seedExamples()
	}

	s.unregister = st.RegisterFlush(s.Persist)
	return s
}

// Close persists the bundle a final time and drops its flush registration.
// Without the unregistration every login would leave a stale flush behind,
// re-saving a logged-out user's bundle forever.
func (s *Store) Close() {
	s.Persist()
	if s.unregister != nil {
		s.unregister()
	}
}

// seedExamples mirrors the first-run sample data of the original app.
func (s *Store) seedExamples() {
	s.discussions = []*models.Discussion{
		{
			Name: "Toto", LastMsg: "Un exemple", Time: "12:08", Online: true,
			Messages: []models.Message{{Text: "Un exemple", Time: "12:08", Status: models.StatusDelivered}},
		},
		{
			Name: "MM", LastMsg: "Mon dernier message", Time: "12:09", Online: true,
			Messages: []models.Message{{Text: "Mon dernier message", Time: "12:09", Status: models.StatusDelivered}},
		},
	}
	s.persistLocked()
}

// SetNotify installs the refresh hook invoked after a synthesized reply.
func (s *Store) SetNotify(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Discussions returns the live discussion list. Callers must treat entries
// as read-only and route mutations through store methods.
func (s *Store) Discussions() []*models.Discussion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Discussion, len(s.discussions))
	copy(out, s.discussions)
	return out
}

// ActiveDiscussions returns the non-archived discussions.
func (s *Store) ActiveDiscussions() []*models.Discussion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Discussion
	for _, d := range s.discussions {
		if !d.Archived {
			out = append(out, d)
		}
	}
	return out
}

// ArchivedDiscussions returns the archived discussions.
func (s *Store) ArchivedDiscussions() []*models.Discussion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Discussion
	for _, d := range s.discussions {
		if d.Archived {
			out = append(out, d)
		}
	}
	return out
}

// Groups returns the live group list under the same read-only contract as
// Discussions.
func (s *Store) Groups() []*models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// ActiveGroups returns the non-archived groups.
func (s *Store) ActiveGroups() []*models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Group
	for _, g := range s.groups {
		if !g.Archived {
			out = append(out, g)
		}
	}
	return out
}

// GroupMessages returns a copy of the group's message history taken under
// the store lock. The synthesized-reply timer appends from its own
// goroutine, so renderers must read through this snapshot rather than
// touching g.Messages directly.
func (s *Store) GroupMessages(g *models.Group) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(g.Messages))
	copy(out, g.Messages)
	return out
}

// ArchivedGroups returns the archived groups.
func (s *Store) ArchivedGroups() []*models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Group
	for _, g := range s.groups {
		if g.Archived {
			out = append(out, g)
		}
	}
	return out
}

// FindDiscussion looks a discussion up by display name, case-insensitively.
func (s *Store) FindDiscussion(displayName string) *models.Discussion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findDiscussionLocked(displayName)
}

// FindGroup looks a group up by name, case-insensitively.
func (s *Store) FindGroup(name string) *models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findGroupLocked(name)
}

// ArchiveDiscussion sets the archived flag and persists.
func (s *Store) ArchiveDiscussion(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Archived = true
	s.persistLocked()
}

// UnarchiveDiscussion clears the archived flag and persists.
func (s *Store) UnarchiveDiscussion(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Archived = false
	s.persistLocked()
}

// BlockDiscussion sets the blocked flag and persists. A blocked contact
// refuses further input.
func (s *Store) BlockDiscussion(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Blocked = true
	s.persistLocked()
}

// UnblockDiscussion lifts the blocked flag and persists.
func (s *Store) UnblockDiscussion(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Blocked = false
	s.persistLocked()
}

// DeleteDiscussion removes the contact outright. No soft-delete recovery
// beyond the archived flag exists.
func (s *Store) DeleteDiscussion(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.discussions {
		if other == d {
			s.discussions = append(s.discussions[:i], s.discussions[i+1:]...)
			break
		}
	}
	s.persistLocked()
}

// ClearDiscussionMessages empties a discussion's history and preview.
func (s *Store) ClearDiscussionMessages(d *models.Discussion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Messages = nil
	d.LastMsg = ""
	d.Time = ""
	s.persistLocked()
}

// Persist flushes the full bundle. Also registered as the periodic flush.
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

func (s *Store) persistLocked() {
	bundle := models.Bundle{
		Discussions: make([]models.Discussion, len(s.discussions)),
		Groupes:     make([]models.Group, len(s.groups)),
		LastUpdated: time.Now(),
	}
	for i, d := range s.discussions {
		bundle.Discussions[i] = *d
	}
	for i, g := range s.groups {
		bundle.Groupes[i] = *g
	}
	if err := s.store.Save(bundleKeyPrefix+s.userID, bundle); err != nil {
		slog.Error("failed to persist conversation bundle", "user", s.userID, "err", err)
	}
}

func (s *Store) findDiscussionLocked(displayName string) *models.Discussion {
	for _, d := range s.discussions {
		if equalFold(d.DisplayName(), displayName) {
			return d
		}
	}
	return nil
}

func (s *Store) findGroupLocked(name string) *models.Group {
	for _, g := range s.groups {
		if equalFold(g.Name, name) {
			return g
		}
	}
	return nil
}
