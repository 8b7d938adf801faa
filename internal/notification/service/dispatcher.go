package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/notification/domain"
	notificationrepo "afyabima/backend/internal/notification/repository"
	userdomain "afyabima/backend/internal/user/domain"
)

// RecipientResolver expands role targets to the current membership at send
// time. Targets are not re-evaluated after the send.
type RecipientResolver interface {
	ListIDsByRoles(ctx context.Context, roles []userdomain.Role) ([]string, error)
}

// SendInput targets either explicit user ids or roles; both may be given.
type SendInput struct {
	UserIDs  []string
	Roles    []userdomain.Role
	Title    string
	Message  string
	Type     domain.NotificationType
	Metadata map[string]string
}

// Dispatcher delivers targeted messages and tracks per-recipient read state.
type Dispatcher struct {
	repo  notificationrepo.Repository
	users RecipientResolver
	gate  authz.Gate
}

func NewDispatcher(repo notificationrepo.Repository, users RecipientResolver, gate authz.Gate) *Dispatcher {
	return &Dispatcher{repo: repo, users: users, gate: gate}
}

// Send delivers one notification row per resolved recipient and returns the
// shared batch id. Role targets and admin-typed messages are broadcasts and
// require the broadcast permission.
func (d *Dispatcher) Send(ctx context.Context, identity authz.Identity, in SendInput) (string, error) {
	if in.Title == "" || in.Message == "" {
		return "", apperr.Validation("notification title and message are required")
	}
	if in.Type == "" {
		in.Type = domain.TypeInfo
	}
	if !domain.ValidType(in.Type) {
		return "", apperr.Validation("unknown notification type %q", in.Type)
	}
	if len(in.UserIDs) == 0 && len(in.Roles) == 0 {
		return "", apperr.Validation("a notification needs at least one target")
	}
	if len(in.Roles) > 0 || in.Type == domain.TypeAdmin {
		if !d.gate.Permit(ctx, identity.Role, authz.OpSendBroadcast) {
			return "", apperr.Authorization("not permitted to send broadcast notifications")
		}
	}

	recipients := make(map[string]struct{}, len(in.UserIDs))
	for _, id := range in.UserIDs {
		recipients[id] = struct{}{}
	}
	if len(in.Roles) > 0 {
		ids, err := d.users.ListIDsByRoles(ctx, in.Roles)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			recipients[id] = struct{}{}
		}
	}
	if len(recipients) == 0 {
		return "", apperr.Validation("no recipients resolved for the given targets")
	}

	batchID := uuid.New().String()
	now := time.Now().UTC()
	rows := make([]*domain.Notification, 0, len(recipients))
	for id := range recipients {
		rows = append(rows, &domain.Notification{
			ID:          uuid.New().String(),
			BatchID:     batchID,
			RecipientID: id,
			Title:       in.Title,
			Message:     in.Message,
			Type:        in.Type,
			Metadata:    in.Metadata,
			CreatedAt:   now,
		})
	}
	if err := d.repo.CreateBatch(ctx, rows); err != nil {
		return "", err
	}
	return batchID, nil
}

// Notify sends a single system message to one recipient. It is the delivery
// hook the domain services call on lifecycle outcomes.
func (d *Dispatcher) Notify(ctx context.Context, recipientID, title, message, ntype string) error {
	t := domain.NotificationType(ntype)
	if !domain.ValidType(t) {
		t = domain.TypeInfo
	}
	rows := []*domain.Notification{{
		ID:          uuid.New().String(),
		BatchID:     uuid.New().String(),
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Type:        t,
		CreatedAt:   time.Now().UTC(),
	}}
	return d.repo.CreateBatch(ctx, rows)
}

// Fetch returns the user's notifications newest first and the unread count,
// recomputed from the rows on every call.
func (d *Dispatcher) Fetch(ctx context.Context, userID string) ([]*domain.Notification, int, error) {
	rows, err := d.repo.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	unread := 0
	for _, n := range rows {
		if !n.IsRead {
			unread++
		}
	}
	return rows, unread, nil
}

// MarkRead marks one notification read. Only the recipient may mark their
// own rows; an already-read or missing row is a no-op success.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) error {
	n, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil || n.IsRead {
		return nil
	}
	if n.RecipientID != userID {
		return apperr.Authorization("notification belongs to another user")
	}
	return d.repo.MarkRead(ctx, id)
}

// MarkAllRead marks every notification of the user read.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) error {
	return d.repo.MarkAllRead(ctx, userID)
}

// Delete removes one notification. An already-deleted row is a no-op success.
func (d *Dispatcher) Delete(ctx context.Context, userID, id string) error {
	n, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	if n.RecipientID != userID {
		return apperr.Authorization("notification belongs to another user")
	}
	return d.repo.Delete(ctx, id)
}
