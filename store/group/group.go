// Package group manages shared accounting groups: membership, invitations,
// and group lifecycle against the /groups and /invitations endpoints.
package group

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/Yahoo0976095579/accounting-go/core/apiclient"
	"github.com/Yahoo0976095579/accounting-go/core/logger"
	"github.com/Yahoo0976095579/accounting-go/core/notify"
)

// Member roles within a group.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Group is a shared accounting space.
type Group struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"created_at"`
	CreatorID   int64    `json:"creator_id"`
	Members     []Member `json:"members,omitempty"`
}

// Member links a user to a group with a role.
type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// Invitation is a pending membership offer addressed to the current user.
type Invitation struct {
	ID              int64  `json:"id"`
	GroupID         int64  `json:"group_id"`
	GroupName       string `json:"group_name"`
	InviterUsername string `json:"inviter_username"`
	CreatedAt       string `json:"created_at"`
}

// Input carries the writable group fields.
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Store keeps the user's groups, the currently opened group, and pending
// invitations in sync with the backend.
type Store struct {
	client   *apiclient.Client
	notifier *notify.Notifier
	log      *slog.Logger

	mu          sync.RWMutex
	groups      []Group
	current     *Group
	invitations []Invitation
	loading     bool
	errMsg      string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger configures structured logging for the store.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a group store over the shared API client.
func New(client *apiclient.Client, notifier *notify.Notifier, opts ...Option) *Store {
	s := &Store{
		client:   client,
		notifier: notifier,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch loads the groups the current user belongs to.
func (s *Store) Fetch(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var groups []Group
	if err := s.client.Get(ctx, "/groups", &groups); err != nil {
		s.fail("fetch groups failed", err)
		return err
	}

	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()
	return nil
}

// FetchDetails loads one group, including its member list, into Current.
// A failed fetch clears the current group so views never render stale
// membership.
func (s *Store) FetchDetails(ctx context.Context, groupID int64) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var g Group
	if err := s.client.Get(ctx, groupPath(groupID), &g); err != nil {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		s.fail("fetch group details failed", err)
		return err
	}

	s.mu.Lock()
	s.current = &g
	s.mu.Unlock()
	return nil
}

// Create makes a new group and appends it to the local list.
func (s *Store) Create(ctx context.Context, input Input) (Group, error) {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var result struct {
		Group Group `json:"group"`
	}
	if err := s.client.Post(ctx, "/groups", input, &result); err != nil {
		s.fail("create group failed", err)
		return Group{}, err
	}

	s.mu.Lock()
	s.groups = append(s.groups, result.Group)
	s.mu.Unlock()

	s.notifier.Show("Group created.", notify.KindSuccess)
	return result.Group, nil
}

// Delete disbands a group. Only the owner may do this; the backend enforces
// it and the error message is surfaced as a notification.
func (s *Store) Delete(ctx context.Context, groupID int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.Delete(ctx, groupPath(groupID), nil); err != nil {
		s.fail("delete group failed", err)
		return err
	}

	s.removeGroupLocally(groupID)
	s.notifier.Show("Group deleted.", notify.KindSuccess)
	return nil
}

// Invite sends a membership invitation by username. Failures are returned
// to the caller so the invite form can display them inline; they do not
// raise a notification.
func (s *Store) Invite(ctx context.Context, groupID int64, username string) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	body := map[string]string{"username": username}
	var result struct {
		Message string `json:"message"`
	}
	if err := s.client.Post(ctx, groupPath(groupID)+"/invite", body, &result); err != nil {
		s.setError(apiclient.Message(err))
		s.log.Warn("invite member failed",
			logger.Error(err),
			slog.Int64("group_id", groupID))
		return err
	}

	s.notifier.Show(result.Message, notify.KindSuccess)
	return nil
}

// FetchInvitations loads the invitations addressed to the current user.
func (s *Store) FetchInvitations(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)
	s.setError("")

	var invitations []Invitation
	if err := s.client.Get(ctx, "/invitations", &invitations); err != nil {
		s.fail("fetch invitations failed", err)
		return err
	}

	s.mu.Lock()
	s.invitations = invitations
	s.mu.Unlock()
	return nil
}

// AcceptInvitation joins the inviting group, drops the invitation locally,
// and reloads the group list so the new membership appears.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID int64) error {
	s.setLoading(true)
	var result struct {
		Message string `json:"message"`
	}
	err := s.client.Post(ctx, invitationPath(invitationID)+"/accept", struct{}{}, &result)
	s.setLoading(false)
	if err != nil {
		s.fail("accept invitation failed", err)
		return err
	}

	s.removeInvitationLocally(invitationID)
	if err := s.Fetch(ctx); err != nil {
		return err
	}
	s.notifier.Show(result.Message, notify.KindSuccess)
	return nil
}

// RejectInvitation declines an invitation and drops it locally.
func (s *Store) RejectInvitation(ctx context.Context, invitationID int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var result struct {
		Message string `json:"message"`
	}
	if err := s.client.Post(ctx, invitationPath(invitationID)+"/reject", struct{}{}, &result); err != nil {
		s.fail("reject invitation failed", err)
		return err
	}

	s.removeInvitationLocally(invitationID)
	s.notifier.Show(result.Message, notify.KindSuccess)
	return nil
}

// RemoveMember expels a member and refreshes the open group's details.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID int64) error {
	s.setLoading(true)
	err := s.client.Delete(ctx, memberPath(groupID, userID), nil)
	s.setLoading(false)
	if err != nil {
		s.fail("remove member failed", err)
		return err
	}

	s.notifier.Show("Member removed.", notify.KindSuccess)
	return s.FetchDetails(ctx, groupID)
}

// UpdateMemberRole changes a member's role and refreshes the open group.
func (s *Store) UpdateMemberRole(ctx context.Context, groupID, userID int64, role string) error {
	s.setLoading(true)
	err := s.client.Put(ctx, memberPath(groupID, userID)+"/role", map[string]string{"role": role}, nil)
	s.setLoading(false)
	if err != nil {
		s.fail("update member role failed", err)
		return err
	}

	s.notifier.Show("Member role updated.", notify.KindSuccess)
	return s.FetchDetails(ctx, groupID)
}

// Leave withdraws the current user from a group and removes it locally.
func (s *Store) Leave(ctx context.Context, groupID int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.Post(ctx, groupPath(groupID)+"/leave", struct{}{}, nil); err != nil {
		s.fail("leave group failed", err)
		return err
	}

	s.removeGroupLocally(groupID)
	s.notifier.Show("You left the group.", notify.KindSuccess)
	return nil
}

// Groups returns a copy of the user's group list.
func (s *Store) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Group(nil), s.groups...)
}

// Current returns a copy of the opened group, or nil when none is open.
func (s *Store) Current() *Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	g := *s.current
	g.Members = append([]Member(nil), s.current.Members...)
	return &g
}

// Invitations returns a copy of the pending invitations.
func (s *Store) Invitations() []Invitation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Invitation(nil), s.invitations...)
}

// IsLoading reports whether a store operation is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last operation's failure message, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *Store) removeGroupLocally(groupID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.groups[:0]
	for _, g := range s.groups {
		if g.ID != groupID {
			kept = append(kept, g)
		}
	}
	s.groups = kept
	if s.current != nil && s.current.ID == groupID {
		s.current = nil
	}
}

func (s *Store) removeInvitationLocally(invitationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.invitations[:0]
	for _, inv := range s.invitations {
		if inv.ID != invitationID {
			kept = append(kept, inv)
		}
	}
	s.invitations = kept
}

// fail records the error message, notifies, and logs.
func (s *Store) fail(msg string, err error) {
	text := apiclient.Message(err)
	s.setError(text)
	s.notifier.Show(text, notify.KindError)
	s.log.Warn(msg, logger.Error(err))
}

func groupPath(groupID int64) string {
	return "/groups/" + strconv.FormatInt(groupID, 10)
}

func invitationPath(invitationID int64) string {
	return "/invitations/" + strconv.FormatInt(invitationID, 10)
}

func memberPath(groupID, userID int64) string {
	return groupPath(groupID) + "/members/" + strconv.FormatInt(userID, 10)
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
