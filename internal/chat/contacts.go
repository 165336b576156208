package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"palabre/internal/apperr"
	"palabre/internal/models"
)

var (
	namePattern   = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\-'\s]+$`)
	phonePattern  = regexp.MustCompile(`^(\+?\d)[0-9]{8,}$`)
	suffixPattern = regexp.MustCompile(`^\((\d+)\)\s+(.*)$`)
)

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

// AddContact validates and prepends a new contact. When the first name and
// surname both collide with an existing contact, the surname is rewritten
// with a "(n) " disambiguation prefix so every (firstName, name) pair stays
// unique.
func (s *Store) AddContact(firstName, name, phone string) (*models.Discussion, error) {
	firstName = strings.TrimSpace(firstName)
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if firstName == "" {
		return nil, apperr.Validation("first name is required")
	}
	if !namePattern.MatchString(firstName) {
		return nil, apperr.Validation("first name may only contain letters")
	}
	if name != "" && !namePattern.MatchString(name) {
		return nil, apperr.Validation("surname may only contain letters")
	}
	if phone == "" {
		return nil, apperr.Validation("a phone number is required")
	}
	if !phonePattern.MatchString(phone) {
		return nil, apperr.Validation("invalid phone number: it must start with a digit or '+', contain only digits after that, and be at least 9 characters long")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	finalName := s.disambiguateLocked(firstName, name)

	d := &models.Discussion{
		FirstName: firstName,
		Name:      finalName,
		Phone:     phone,
		Messages:  []models.Message{},
	}
	s.discussions = append([]*models.Discussion{d}, s.discussions...)
	s.persistLocked()
	return d, nil
}

// disambiguateLocked computes the stored surname for a new contact. It
// scans existing contacts sharing the first name: an exact surname
// collision counts as index 1 and an already-disambiguated "(n) base"
// surname counts as n+1; the highest wins. The canonical disambiguated form
// is "(n) base", applied consistently for every pass.
func (s *Store) disambiguateLocked(firstName, base string) string {
	maxIndex := 0
	for _, d := range s.discussions {
		if !equalFold(d.FirstName, firstName) {
			continue
		}
		if equalFold(d.Name, base) {
			maxIndex = max(maxIndex, 1)
		}
		if m := suffixPattern.FindStringSubmatch(d.Name); m != nil && equalFold(m[2], base) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				maxIndex = max(maxIndex, n+1)
			}
		}
	}

	finalName := base
	if maxIndex > 0 {
		finalName = fmt.Sprintf("(%d) %s", maxIndex, base)
	}

	for s.hasExactContactLocked(firstName, finalName) {
		maxIndex++
		finalName = fmt.Sprintf("(%d) %s", maxIndex, base)
	}
	return finalName
}

func (s *Store) hasExactContactLocked(firstName, name string) bool {
	for _, d := range s.discussions {
		if equalFold(d.FirstName, firstName) && equalFold(d.Name, name) {
			return true
		}
	}
	return false
}
