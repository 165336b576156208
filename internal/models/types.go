package models

import "time"

// User is an account in the local user list. Users are never hard-deleted.
type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone"`
	Online    bool       `json:"online"`
	Blocked   bool       `json:"blocked"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// FullName returns "First Last" with absent parts trimmed away.
func (u User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// Session is the time-bounded proof of an authenticated login. A session is
// valid only while now - Timestamp <= the configured timeout.
type Session struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is one entry in a conversation. Sender is set for direct
// discussions; synthesized group replies carry the replier inside Text as a
// "Name : text" prefix instead.
type Message struct {
	Text   string `json:"text"`
	Time   string `json:"time"`
	Status string `json:"status"`
	Sender string `json:"sender,omitempty"`
}

// Discussion is a one-to-one conversation with a contact, owned exclusively
// by one user's conversation store. Name is the optional surname and may
// carry a "(n) " disambiguation prefix.
type Discussion struct {
	FirstName string    `json:"firstName"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	LastMsg   string    `json:"lastMsg"`
	Time      string    `json:"time"`
	Online    bool      `json:"online"`
	Archived  bool      `json:"archived"`
	Blocked   bool      `json:"blocked"`
	Messages  []Message `json:"messages"`
}

// DisplayName returns "FirstName Name" or whichever part is present.
func (d Discussion) DisplayName() string {
	if d.FirstName != "" {
		return trimJoin(d.FirstName, d.Name)
	}
	return d.Name
}

// SelfMember is the first-name marker for the owning user inside a group
// member list.
const SelfMember = "Vous"

// GroupMember is one member descriptor inside a group. The owning user
// appears with FirstName "Vous".
type GroupMember struct {
	FirstName string `json:"firstName"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// DisplayName returns "FirstName Name" with absent parts trimmed away.
func (m GroupMember) DisplayName() string {
	return trimJoin(m.FirstName, m.Name)
}

// IsSelf reports whether the member stands for the owning user.
func (m GroupMember) IsSelf() bool { return m.FirstName == SelfMember }

// Group is a multi-member conversation. Invariants: at least two members at
// all times after creation or edit; at most the configured admin cap of
// admins with the primary admin always included.
type Group struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Admin       string        `json:"admin"`
	Admins      []string      `json:"admins"`
	Members     int           `json:"members"`
	MembersList []GroupMember `json:"membersList"`
	Archived    bool          `json:"archived"`
	Blocked     bool          `json:"blocked"`
	Messages    []Message     `json:"messages"`
}

// Draft is unsent message text auto-saved per conversation.
type Draft struct {
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	LastModified int64     `json:"lastModified"`
}

// Bundle is the per-user persisted conversation state
// (the userData_<userId> blob). The Groupes key is kept as-is for
// compatibility with existing stored data.
type Bundle struct {
	Discussions []Discussion `json:"discussions"`
	Groupes     []Group      `json:"groupes"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// StatusDelivered is the fixed status marker appended to sent messages.
const StatusDelivered = "✓"

func trimJoin(first, last string) string {
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}
