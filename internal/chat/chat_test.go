package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palabre/internal/apperr"
	"palabre/internal/models"
	"palabre/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newTestChat(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestStore(t), "u1", Options{
		ReplyDelayMin: 5 * time.Millisecond,
		ReplyDelayMax: 10 * time.Millisecond,
		AdminCap:      3,
	})
}

func TestSeedExamplesOnFirstRun(t *testing.T) {
	s := newTestChat(t)

	discussions := s.Discussions()
	require.Len(t, discussions, 2)
	assert.Equal(t, "Toto", discussions[0].Name)
	assert.Equal(t, "MM", discussions[1].Name)
}

func TestNoReseedAfterDeletingEverything(t *testing.T) {
	st := newTestStore(t)

	s := NewStore(st, "u1", Options{})
	for _, d := range s.Discussions() {
		s.DeleteDiscussion(d)
	}

	s2 := NewStore(st, "u1", Options{})
	assert.Empty(t, s2.Discussions())
}

func TestBundleIsPerUser(t *testing.T) {
	st := newTestStore(t)

	s1 := NewStore(st, "u1", Options{})
	_, err := s1.AddContact("Jean", "Dupont", "770000001")
	require.NoError(t, err)

	s2 := NewStore(st, "u2", Options{})
	assert.Nil(t, s2.FindDiscussion("Jean Dupont"))
}

func TestAddContactValidation(t *testing.T) {
	s := newTestChat(t)

	cases := []struct {
		firstName, name, phone string
	}{
		{"", "Dupont", "770000001"},
		{"Jean2", "Dupont", "770000001"},
		{"Jean", "Dup0nt", "770000001"},
		{"Jean", "Dupont", ""},
		{"Jean", "Dupont", "12345"},
		{"Jean", "Dupont", "77-00-00-01"},
	}
	for _, tc := range cases {
		_, err := s.AddContact(tc.firstName, tc.name, tc.phone)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err),
			"%q %q %q should be rejected", tc.firstName, tc.name, tc.phone)
	}
}

func TestAddContactAcceptsAccentsAndPlusPhone(t *testing.T) {
	s := newTestChat(t)

	d, err := s.AddContact("Aïcha", "N'Diaye-Bâ", "+221770000001")
	require.NoError(t, err)
	assert.Equal(t, "Aïcha N'Diaye-Bâ", d.DisplayName())

	// New contacts are prepended.
	assert.Same(t, d, s.Discussions()[0])
}

func TestDisambiguation(t *testing.T) {
	s := newTestChat(t)

	d1, err := s.AddContact("Jean", "Dupont", "770000001")
	require.NoError(t, err)
	assert.Equal(t, "Dupont", d1.Name)

	d2, err := s.AddContact("Jean", "Dupont", "770000002")
	require.NoError(t, err)
	assert.Equal(t, "(1) Dupont", d2.Name)

	d3, err := s.AddContact("Jean", "Dupont", "770000003")
	require.NoError(t, err)
	assert.Equal(t, "(2) Dupont", d3.Name)

	// A different first name never gets a prefix.
	d4, err := s.AddContact("Marie", "Dupont", "770000004")
	require.NoError(t, err)
	assert.Equal(t, "Dupont", d4.Name)
}

func TestDisambiguationSurvivesDeletion(t *testing.T) {
	s := newTestChat(t)

	_, err := s.AddContact("Jean", "Dupont", "770000001")
	require.NoError(t, err)
	d2, err := s.AddContact("Jean", "Dupont", "770000002")
	require.NoError(t, err)

	// Remove the unprefixed one; the next add still picks an unused index.
	s.DeleteDiscussion(s.FindDiscussion("Jean Dupont"))

	d3, err := s.AddContact("Jean", "Dupont", "770000003")
	require.NoError(t, err)
	assert.Equal(t, "(1) Dupont", d2.Name)
	assert.Equal(t, "(2) Dupont", d3.Name)
}

func TestArchiveAndRestoreDiscussion(t *testing.T) {
	s := newTestChat(t)

	d := s.FindDiscussion("Toto")
	require.NotNil(t, d)

	s.ArchiveDiscussion(d)
	assert.Len(t, s.ActiveDiscussions(), 1)
	assert.Len(t, s.ArchivedDiscussions(), 1)

	s.UnarchiveDiscussion(d)
	assert.Len(t, s.ActiveDiscussions(), 2)
	assert.Empty(t, s.ArchivedDiscussions())
}

func TestBlockedDiscussionRefusesMessages(t *testing.T) {
	s := newTestChat(t)

	d := s.FindDiscussion("Toto")
	s.BlockDiscussion(d)

	err := s.SendDirect(d, "hello?", models.SelfMember)
	assert.Equal(t, apperr.CodeBlocked, apperr.CodeOf(err))
	assert.Len(t, d.Messages, 1)

	s.UnblockDiscussion(d)
	require.NoError(t, s.SendDirect(d, "hello!", models.SelfMember))
	assert.Len(t, d.Messages, 2)
}

func TestSendDirect(t *testing.T) {
	s := newTestChat(t)
	d := s.FindDiscussion("MM")

	require.NoError(t, s.SendDirect(d, "  salut  ", models.SelfMember))

	last := d.Messages[len(d.Messages)-1]
	assert.Equal(t, "salut", last.Text)
	assert.Equal(t, models.StatusDelivered, last.Status)
	assert.Equal(t, "salut", d.LastMsg)
	assert.NotEmpty(t, d.Time)

	// Whitespace-only input is a silent no-op.
	count := len(d.Messages)
	require.NoError(t, s.SendDirect(d, "   ", models.SelfMember))
	assert.Len(t, d.Messages, count)
}

func TestClearDiscussionMessages(t *testing.T) {
	s := newTestChat(t)
	d := s.FindDiscussion("Toto")

	s.ClearDiscussionMessages(d)
	assert.Empty(t, d.Messages)
	assert.Empty(t, d.LastMsg)
	assert.Empty(t, d.Time)
}

func TestSendToManySkipsBlocked(t *testing.T) {
	s := newTestChat(t)

	toto := s.FindDiscussion("Toto")
	mm := s.FindDiscussion("MM")
	s.BlockDiscussion(mm)

	s.SendToMany([]*models.Discussion{toto, mm}, "annonce", models.SelfMember)

	assert.Equal(t, "annonce", toto.LastMsg)
	assert.NotEqual(t, "annonce", mm.LastMsg)
}

func groupMembers(names ...string) []models.GroupMember {
	members := []models.GroupMember{{FirstName: models.SelfMember}}
	for _, n := range names {
		members = append(members, models.GroupMember{FirstName: n})
	}
	return members
}

func TestCreateGroup(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "le groupe", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)
	assert.Equal(t, 2, g.Members)
	assert.Equal(t, []string{models.SelfMember}, g.Admins)
	assert.True(t, IsAdmin(g, models.SelfMember))
}

func TestCreateGroupValidation(t *testing.T) {
	s := newTestChat(t)

	_, err := s.CreateGroup("", "", models.SelfMember, groupMembers("Fatou"))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = s.CreateGroup("Seul", "", models.SelfMember, nil)
	assert.Equal(t, apperr.CodeCapacityExceeded, apperr.CodeOf(err))

	_, err = s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)
	_, err = s.CreateGroup("les AMIS", "", models.SelfMember, groupMembers("Fatou"))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestCreateGroupAddsMissingAdmin(t *testing.T) {
	s := newTestChat(t)

	// The admin picked is not in the member list; the store pulls the
	// matching contact in.
	g, err := s.CreateGroup("Duo", "", "Toto", []models.GroupMember{{FirstName: "Fatou"}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Members)
	assert.NotNil(t, memberNamed(g.MembersList, "Toto"))
}

func TestUpdateGroupFailureLeavesGroupIntact(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "desc", models.SelfMember, groupMembers("Fatou", "Moussa"))
	require.NoError(t, err)

	// Shrinking below two members must fail without touching anything.
	err = s.UpdateGroup(g, "Renamed", "new desc", models.SelfMember, nil)
	assert.Equal(t, apperr.CodeCapacityExceeded, apperr.CodeOf(err))
	assert.Equal(t, "Les amis", g.Name)
	assert.Equal(t, "desc", g.Description)
	assert.Equal(t, 3, g.Members)
}

func TestUpdateGroupPrunesDemotedAdmins(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou", "Moussa"))
	require.NoError(t, err)
	require.NoError(t, s.PromoteAdmin(g, "Fatou"))

	// Fatou leaves: the admin set follows the member list.
	err = s.UpdateGroup(g, "Les amis", "", models.SelfMember, groupMembers("Moussa"))
	require.NoError(t, err)
	assert.Equal(t, []string{models.SelfMember}, g.Admins)
}

func TestPromoteAdminCap(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou", "Moussa", "Awa"))
	require.NoError(t, err)

	require.NoError(t, s.PromoteAdmin(g, "Fatou"))
	require.NoError(t, s.PromoteAdmin(g, "Moussa"))

	err = s.PromoteAdmin(g, "Awa")
	assert.Equal(t, apperr.CodeCapacityExceeded, apperr.CodeOf(err))
	assert.Len(t, g.Admins, 3)
	assert.False(t, IsAdmin(g, "Awa"))

	// Promoting an existing admin is a no-op, not a cap violation.
	require.NoError(t, s.PromoteAdmin(g, "Fatou"))
}

func TestPromoteAdminRequiresMembership(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)

	err = s.PromoteAdmin(g, "Inconnu")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestDemoteAdmin(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)
	require.NoError(t, s.PromoteAdmin(g, "Fatou"))

	require.NoError(t, s.DemoteAdmin(g, "Fatou"))
	assert.False(t, IsAdmin(g, "Fatou"))

	err = s.DemoteAdmin(g, "Fatou")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	// The primary admin can never be demoted.
	err = s.DemoteAdmin(g, models.SelfMember)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestSendGroupSynthesizesReply(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)

	notified := make(chan struct{}, 1)
	s.SetNotify(func() { notified <- struct{}{} })

	require.NoError(t, s.SendGroup(g, "salut tout le monde", models.SelfMember))

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("synthesized reply never arrived")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, g.Messages, 2)
	assert.False(t, IsSynthesizedReply(g, g.Messages[0]))
	assert.True(t, IsSynthesizedReply(g, g.Messages[1]))
	assert.Contains(t, g.Messages[1].Text, "Fatou : ")
	assert.Empty(t, g.Messages[1].Status)
}

func TestGroupMessagesSnapshotIsSafeDuringReplies(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)

	notified := make(chan struct{}, 16)
	s.SetNotify(func() { notified <- struct{}{} })

	// Render-style reads concurrent with the reply timers. Under -race this
	// fails if the history is read without the store lock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			msgs := s.GroupMessages(g)
			if len(msgs) > 0 {
				_ = msgs[len(msgs)-1].Text
			}
			time.Sleep(100 * time.Microsecond)
		}
	}()

	for i := range 5 {
		require.NoError(t, s.SendGroup(g, fmt.Sprintf("message %d", i), models.SelfMember))
	}
	for range 5 {
		select {
		case <-notified:
		case <-time.After(time.Second):
			t.Fatal("reply timer never fired")
		}
	}
	<-done

	snapshot := s.GroupMessages(g)
	assert.Len(t, snapshot, 10)

	// The snapshot is a copy: local mutation must not reach the group.
	snapshot[0].Text = "mutated locally"
	assert.Equal(t, "message 0", s.GroupMessages(g)[0].Text)
}

func TestSendGroupWithoutOtherMembersStaysSilent(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Duo", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)
	// Leave the user as the only member so no replier can be picked.
	g.MembersList = []models.GroupMember{{FirstName: models.SelfMember}}

	require.NoError(t, s.SendGroup(g, "echo", models.SelfMember))
	time.Sleep(50 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, g.Messages, 1)
}

func TestSendGroupBlocked(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)
	g.Blocked = true

	err = s.SendGroup(g, "allo", models.SelfMember)
	assert.Equal(t, apperr.CodeBlocked, apperr.CodeOf(err))
}

func TestReplyLandsInDeletedGroup(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Ephemere", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)

	notified := make(chan struct{}, 1)
	s.SetNotify(func() { notified <- struct{}{} })

	require.NoError(t, s.SendGroup(g, "dernier message", models.SelfMember))
	s.DeleteGroup(g)

	// The scheduled reply still fires and appends to the orphaned group.
	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("reply timer never fired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, g.Messages, 2)
	assert.Empty(t, s.groups)
}

func TestGroupArchiveLifecycle(t *testing.T) {
	s := newTestChat(t)

	g, err := s.CreateGroup("Les amis", "", models.SelfMember, groupMembers("Fatou"))
	require.NoError(t, err)

	s.ArchiveGroup(g)
	assert.Empty(t, s.ActiveGroups())
	assert.Len(t, s.ArchivedGroups(), 1)

	s.UnarchiveGroup(g)
	assert.Len(t, s.ActiveGroups(), 1)
}

func TestPersistenceRoundTrip(t *testing.T) {
	st := newTestStore(t)

	s := NewStore(st, "u1", Options{})
	_, err := s.AddContact("Jean", "Dupont", "770000001")
	require.NoError(t, err)
	_, err = s.CreateGroup("Les amis", "le groupe", models.SelfMember,
		[]models.GroupMember{{FirstName: models.SelfMember}, {FirstName: "Jean", Name: "Dupont"}})
	require.NoError(t, err)

	s2 := NewStore(st, "u1", Options{})
	require.NotNil(t, s2.FindDiscussion("Jean Dupont"))

	g := s2.FindGroup("les amis")
	require.NotNil(t, g)
	assert.Equal(t, "le groupe", g.Description)
	assert.Equal(t, []string{models.SelfMember}, g.Admins)
}

func TestCloseStopsFlushing(t *testing.T) {
	st := newTestStore(t)

	s := NewStore(st, "u1", Options{})
	_, err := s.AddContact("Jean", "Dupont", "770000001")
	require.NoError(t, err)
	s.Close()

	// After Close the store must no longer re-save its bundle: overwrite
	// the blob directly and check that a flush leaves it untouched.
	require.NoError(t, st.Save("userData_u1", models.Bundle{}))
	st.Flush()

	var bundle models.Bundle
	found, err := st.Load("userData_u1", &bundle)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, bundle.Discussions)
	assert.Empty(t, bundle.Groupes)
}

func TestLegacyBundleBackfillsAdmins(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.Save("userData_u1", models.Bundle{
		Groupes: []models.Group{{
			Name: "Ancien", Admin: "Vous", Members: 2,
			MembersList: []models.GroupMember{{FirstName: "Vous"}, {FirstName: "Fatou"}},
		}},
	}))

	s := NewStore(st, "u1", Options{})
	g := s.FindGroup("Ancien")
	require.NotNil(t, g)
	assert.Equal(t, []string{"Vous"}, g.Admins)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	s := newTestChat(t)

	assert.NotNil(t, s.FindDiscussion("toto"))
	assert.Nil(t, s.FindDiscussion("inconnu"))
}

func TestSendDirectManyMessagesKeepOrder(t *testing.T) {
	s := newTestChat(t)
	d := s.FindDiscussion("Toto")
	base := len(d.Messages)

	for i := range 5 {
		require.NoError(t, s.SendDirect(d, fmt.Sprintf("msg %d", i), models.SelfMember))
	}
	require.Len(t, d.Messages, base+5)
	for i := range 5 {
		assert.Equal(t, fmt.Sprintf("msg %d", i), d.Messages[base+i].Text)
	}
}
