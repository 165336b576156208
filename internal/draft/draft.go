package draft

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"palabre/internal/models"
	"palabre/internal/store"
)

const draftsKey = "drafts"

// Conversation types a draft can belong to.
const (
	TypeContact = "contact"
	TypeGroup   = "group"
)

// Manager maintains the conversation-type → conversation-key → draft
// mapping. Drafts are global, not scoped per authenticated user: this
// reproduces the original behavior and means drafts leak across accounts on
// a shared machine. Documented, not fixed.
type Manager struct {
	store     *store.Store
	debounce  time.Duration
	retention time.Duration

	mu        sync.Mutex
	drafts    map[string]map[string]models.Draft
	lastSaved string

	// indicator is the presentation hook fed the total draft count after
	// every mutation. The manager calls it but does not own the badge.
	indicator func(total int)
}

// NewManager loads stored drafts, normalizes any legacy bare-string entries
// and purges drafts older than the retention window.
func NewManager(st *store.Store, debounce, retention time.Duration) *Manager {
	m := &Manager{
		store:     st,
		debounce:  debounce,
		retention: retention,
		drafts:    make(map[string]map[string]models.Draft),
	}
	if m.load() {
		// Write the structured form back so legacy entries convert on disk
		// too; otherwise they would be re-normalized (and re-stamped) on
		// every startup and never age out of retention.
		m.saveLocked()
	}
	m.CleanupOld()
	m.updateHashLocked()
	return m
}

// load reads the raw draft map, accepting both the structured form and the
// legacy form where a draft was stored as a bare string. It reports whether
// any legacy entry was normalized, so that counts as a pending change.
func (m *Manager) load() bool {
	var raw map[string]map[string]json.RawMessage
	found, err := m.store.Load(draftsKey, &raw)
	if err != nil {
		slog.Error("failed to load drafts, starting empty", "err", err)
		return false
	}
	if !found {
		return false
	}

	normalized := false
	for typ, bucket := range raw {
		for key, entry := range bucket {
			var d models.Draft
			if err := json.Unmarshal(entry, &d); err == nil {
				m.put(typ, key, d)
				continue
			}
			var legacy string
			if err := json.Unmarshal(entry, &legacy); err == nil {
				m.put(typ, key, models.Draft{
					Content:      legacy,
					Timestamp:    time.Now(),
					LastModified: time.Now().UnixMilli(),
				})
				normalized = true
			}
		}
	}
	return normalized
}

func (m *Manager) put(typ, key string, d models.Draft) {
	if m.drafts[typ] == nil {
		m.drafts[typ] = make(map[string]models.Draft)
	}
	m.drafts[typ][key] = d
}

// SetIndicator installs the draft-count badge hook and feeds it the current
// total immediately.
func (m *Manager) SetIndicator(fn func(total int)) {
	m.mu.Lock()
	m.indicator = fn
	total := m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

// Get returns the stored draft for (typ, key), or a zero draft. Never fails.
func (m *Manager) Get(typ, key string) models.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.drafts[typ]; ok {
		return bucket[key]
	}
	return models.Draft{}
}

// Set trims value and upserts a draft stamped with the current time, or
// deletes any existing draft when the trimmed value is empty. Persists and
// refreshes the indicator either way.
func (m *Manager) Set(typ, key, value string) {
	if typ == "" || key == "" {
		return
	}

	m.mu.Lock()
	trimmed := strings.TrimSpace(value)
	if trimmed != "" {
		m.put(typ, key, models.Draft{
			Content:      trimmed,
			Timestamp:    time.Now(),
			LastModified: time.Now().UnixMilli(),
		})
	} else {
		// Unlike Delete, an emptied type bucket is left in place here: Set
		// runs on every debounced keystroke and the bucket will almost
		// always be refilled moments later.
		delete(m.drafts[typ], key)
	}
	m.saveLocked()
	fn, total := m.indicator, m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

// Delete removes the draft for (typ, key) and cleans up the type bucket if
// it became empty. Reports whether a deletion occurred.
func (m *Manager) Delete(typ, key string) bool {
	m.mu.Lock()
	bucket, ok := m.drafts[typ]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if _, ok := bucket[key]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(m.drafts, typ)
	}
	m.saveLocked()
	fn, total := m.indicator, m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
	return true
}

// Clear drops every draft of the given type.
func (m *Manager) Clear(typ string) {
	m.mu.Lock()
	if _, ok := m.drafts[typ]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.drafts, typ)
	m.saveLocked()
	fn, total := m.indicator, m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

// ClearAll drops every draft.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.drafts = make(map[string]map[string]models.Draft)
	m.saveLocked()
	fn, total := m.indicator, m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

// All returns a copy of the draft map for the two known types plus the
// total count.
func (m *Manager) All() (contact, group map[string]models.Draft, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact = copyBucket(m.drafts[TypeContact])
	group = copyBucket(m.drafts[TypeGroup])
	return contact, group, len(contact) + len(group)
}

func copyBucket(bucket map[string]models.Draft) map[string]models.Draft {
	out := make(map[string]models.Draft, len(bucket))
	for k, v := range bucket {
		out[k] = v
	}
	return out
}

// CleanupOld purges drafts whose LastModified is older than the retention
// window. Run once at startup; persists only when something changed.
func (m *Manager) CleanupOld() {
	cutoff := time.Now().Add(-m.retention).UnixMilli()

	m.mu.Lock()
	changed := false
	for typ, bucket := range m.drafts {
		for key, d := range bucket {
			if d.LastModified != 0 && d.LastModified < cutoff {
				delete(bucket, key)
				changed = true
			}
		}
		if len(bucket) == 0 {
			delete(m.drafts, typ)
			changed = true
		}
	}
	if !changed {
		m.mu.Unlock()
		return
	}
	m.saveLocked()
	fn, total := m.indicator, m.totalLocked()
	m.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}

// SearchResult is one match from Search.
type SearchResult struct {
	Type      string
	Key       string
	Content   string
	Timestamp time.Time
}

// Search scans all types and keys for a case-insensitive substring match
// against both the key and the content.
func (m *Manager) Search(term string) []SearchResult {
	term = strings.ToLower(term)

	m.mu.Lock()
	defer m.mu.Unlock()

	var results []SearchResult
	for typ, bucket := range m.drafts {
		for key, d := range bucket {
			if strings.Contains(strings.ToLower(key), term) ||
				strings.Contains(strings.ToLower(d.Content), term) {
				results = append(results, SearchResult{
					Type:      typ,
					Key:       key,
					Content:   d.Content,
					Timestamp: d.Timestamp,
				})
			}
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].Timestamp.Equal(results[j].Timestamp) {
			return results[i].Timestamp.After(results[j].Timestamp)
		}
		return results[i].Key < results[j].Key
	})
	return results
}

// Total returns the draft count across both known types.
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

func (m *Manager) totalLocked() int {
	return len(m.drafts[TypeContact]) + len(m.drafts[TypeGroup])
}

// HasChanges reports whether the in-memory drafts differ from the last
// persisted snapshot.
func (m *Manager) HasChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := json.Marshal(m.drafts)
	return m.lastSaved != string(data)
}

func (m *Manager) saveLocked() {
	if err := m.store.Save(draftsKey, m.drafts); err != nil {
		slog.Error("failed to persist drafts", "err", err)
		return
	}
	m.updateHashLocked()
}

func (m *Manager) updateHashLocked() {
	data, _ := json.Marshal(m.drafts)
	m.lastSaved = string(data)
}
