package chat

import (
	"palabre/internal/apperr"
	"palabre/internal/models"
)

// CreateGroup validates and appends a new group. The chosen admin is always
// part of the member list: picking "Vous" adds the owning user, picking a
// contact adds that contact. Group names are unique within the owner's
// list; no disambiguation is applied, unlike contacts.
func (s *Store) CreateGroup(name, description, admin string, members []models.GroupMember) (*models.Group, error) {
	if name == "" {
		return nil, apperr.Validation("the group name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findGroupLocked(name) != nil {
		return nil, apperr.Validation("a group with this name already exists")
	}

	members = s.ensureAdminMemberLocked(admin, members)
	if len(members) < 2 {
		return nil, apperr.CapacityExceeded("a group must have at least 2 members")
	}

	g := &models.Group{
		Name:        name,
		Description: description,
		Admin:       admin,
		Admins:      []string{admin},
		Members:     len(members),
		MembersList: members,
		Messages:    []models.Message{},
	}
	s.groups = append(s.groups, g)
	s.persistLocked()
	return g, nil
}

// UpdateGroup applies edited name, description, admin and member list. All
// validation happens before any mutation, so a failed edit leaves the group
// exactly as it was.
func (s *Store) UpdateGroup(g *models.Group, name, description, admin string, members []models.GroupMember) error {
	if name == "" {
		return apperr.Validation("the group name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findGroupLocked(name); existing != nil && existing != g {
		return apperr.Validation("a group with this name already exists")
	}

	members = s.ensureAdminMemberLocked(admin, members)
	if len(members) < 2 {
		return apperr.CapacityExceeded("a group must have at least 2 members")
	}

	g.Name = name
	g.Description = description
	g.Admin = admin
	g.Members = len(members)
	g.MembersList = members

	// Keep only admins that are still members; the primary always stays.
	admins := []string{admin}
	for _, a := range g.Admins {
		if a == admin {
			continue
		}
		if memberNamed(members, a) != nil {
			admins = append(admins, a)
		}
	}
	g.Admins = admins

	s.persistLocked()
	return nil
}

// PromoteAdmin marks the named member as a group admin. The admin set is
// capped; exceeding the cap fails and leaves the set unchanged.
func (s *Store) PromoteAdmin(g *models.Group, memberName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if memberNamed(g.MembersList, memberName) == nil {
		return apperr.NotFound("no such member in this group")
	}
	for _, a := range g.Admins {
		if equalFold(a, memberName) {
			return nil
		}
	}
	if len(g.Admins) >= s.opts.AdminCap {
		return apperr.CapacityExceeded("a group cannot have more than 3 admins")
	}

	g.Admins = append(g.Admins, memberName)
	s.persistLocked()
	return nil
}

// DemoteAdmin removes the named member from the admin set. The primary
// admin is immutable.
func (s *Store) DemoteAdmin(g *models.Group, memberName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if equalFold(memberName, g.Admin) {
		return apperr.Validation("the primary admin cannot be demoted")
	}
	for i, a := range g.Admins {
		if equalFold(a, memberName) {
			g.Admins = append(g.Admins[:i], g.Admins[i+1:]...)
			s.persistLocked()
			return nil
		}
	}
	return apperr.NotFound("this member is not an admin")
}

// IsAdmin reports whether the named member is in the group's admin set.
func IsAdmin(g *models.Group, memberName string) bool {
	for _, a := range g.Admins {
		if equalFold(a, memberName) {
			return true
		}
	}
	return false
}

// ArchiveGroup sets the archived flag and persists.
func (s *Store) ArchiveGroup(g *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Archived = true
	s.persistLocked()
}

// UnarchiveGroup clears the archived flag and persists.
func (s *Store) UnarchiveGroup(g *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Archived = false
	s.persistLocked()
}

// DeleteGroup removes the group from the list. A reply timer already
// scheduled against it will still append to the orphaned object.
func (s *Store) DeleteGroup(g *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.groups {
		if other == g {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
	s.persistLocked()
}

// ClearGroupMessages empties a group's history.
func (s *Store) ClearGroupMessages(g *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Messages = nil
	s.persistLocked()
}

// ensureAdminMemberLocked guarantees the chosen admin appears in the member
// list, adding the owning user or the matching contact when missing.
func (s *Store) ensureAdminMemberLocked(admin string, members []models.GroupMember) []models.GroupMember {
	if admin == models.SelfMember {
		for _, m := range members {
			if m.IsSelf() {
				return members
			}
		}
		return append(members, models.GroupMember{FirstName: models.SelfMember})
	}

	if memberNamed(members, admin) != nil {
		return members
	}
	for _, d := range s.discussions {
		if d.Name == admin {
			return append(members, models.GroupMember{
				FirstName: d.FirstName,
				Name:      d.Name,
				Phone:     d.Phone,
			})
		}
	}
	return members
}

// memberNamed finds a member by surname, full display name, or the self
// marker.
func memberNamed(members []models.GroupMember, name string) *models.GroupMember {
	for i := range members {
		m := &members[i]
		if equalFold(m.Name, name) && m.Name != "" {
			return m
		}
		if equalFold(m.DisplayName(), name) {
			return m
		}
	}
	return nil
}
