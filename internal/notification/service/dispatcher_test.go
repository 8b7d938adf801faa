package service

import (
	"context"
	"testing"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/authz"
	"afyabima/backend/internal/notification/domain"
	notificationrepo "afyabima/backend/internal/notification/repository"
	userdomain "afyabima/backend/internal/user/domain"
)

type fakeGate struct {
	grants map[userdomain.Role][]string
}

func (g *fakeGate) Permit(ctx context.Context, role userdomain.Role, operation string) bool {
	for _, op := range g.grants[role] {
		if op == operation {
			return true
		}
	}
	return false
}

type fakeResolver struct {
	byRole map[userdomain.Role][]string
}

func (r *fakeResolver) ListIDsByRoles(ctx context.Context, roles []userdomain.Role) ([]string, error) {
	var out []string
	for _, role := range roles {
		out = append(out, r.byRole[role]...)
	}
	return out, nil
}

var (
	admin   = authz.Identity{UserID: "admin-1", Role: userdomain.RoleAdmin}
	patient = authz.Identity{UserID: "patient-1", Role: userdomain.RolePatient}
)

func newDispatcher() (*Dispatcher, *notificationrepo.MemoryRepository) {
	repo := notificationrepo.NewMemoryRepository()
	gate := &fakeGate{grants: map[userdomain.Role][]string{
		userdomain.RoleAdmin: {authz.OpSendBroadcast},
	}}
	resolver := &fakeResolver{byRole: map[userdomain.Role][]string{
		userdomain.RoleDoctor: {"doctor-1", "doctor-2"},
	}}
	return NewDispatcher(repo, resolver, gate), repo
}

func TestSend_RoleTargetsExpandAtSendTime(t *testing.T) {
	d, _ := newDispatcher()
	ctx := context.Background()

	batchID, err := d.Send(ctx, admin, SendInput{
		Roles:   []userdomain.Role{userdomain.RoleDoctor},
		Title:   "Maintenance window",
		Message: "The system goes down at midnight.",
		Type:    domain.TypeWarning,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	for _, id := range []string{"doctor-1", "doctor-2"} {
		rows, unread, err := d.Fetch(ctx, id)
		if err != nil {
			t.Fatalf("Fetch(%s): %v", id, err)
		}
		if len(rows) != 1 || unread != 1 {
			t.Errorf("Fetch(%s) = %d rows, %d unread, want 1/1", id, len(rows), unread)
		}
		if rows[0].BatchID != batchID {
			t.Errorf("batch id = %q, want %q", rows[0].BatchID, batchID)
		}
	}
}

func TestSend_BroadcastRequiresPermission(t *testing.T) {
	d, _ := newDispatcher()
	ctx := context.Background()

	_, err := d.Send(ctx, patient, SendInput{
		Roles:   []userdomain.Role{userdomain.RoleDoctor},
		Title:   "t",
		Message: "m",
	})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("role target: kind = %q, want authorization", apperr.KindOf(err))
	}

	_, err = d.Send(ctx, patient, SendInput{
		UserIDs: []string{"patient-2"},
		Title:   "t",
		Message: "m",
		Type:    domain.TypeAdmin,
	})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("admin type: kind = %q, want authorization", apperr.KindOf(err))
	}
}

func TestSend_NoTargets(t *testing.T) {
	d, _ := newDispatcher()

	_, err := d.Send(context.Background(), admin, SendInput{Title: "t", Message: "m"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestMarkAllRead_UnreadCountGoesToZero(t *testing.T) {
	d, _ := newDispatcher()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := d.Notify(ctx, "patient-1", "t", "m", "info"); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	_, unread, _ := d.Fetch(ctx, "patient-1")
	if unread != 3 {
		t.Fatalf("unread = %d, want 3", unread)
	}
	if err := d.MarkAllRead(ctx, "patient-1"); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	rows, unread, _ := d.Fetch(ctx, "patient-1")
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want 3 (mark-read keeps rows)", len(rows))
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	d, repo := newDispatcher()
	ctx := context.Background()

	if err := d.Notify(ctx, "patient-1", "t", "m", "info"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	rows, _ := repo.ListByRecipient(ctx, "patient-1")
	id := rows[0].ID

	for i := 0; i < 2; i++ {
		if err := d.MarkRead(ctx, "patient-1", id); err != nil {
			t.Fatalf("MarkRead #%d: %v", i+1, err)
		}
	}
	if err := d.MarkRead(ctx, "patient-1", "no-such-id"); err != nil {
		t.Errorf("MarkRead on missing id: %v, want nil", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	d, repo := newDispatcher()
	ctx := context.Background()

	if err := d.Notify(ctx, "patient-1", "t", "m", "info"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	rows, _ := repo.ListByRecipient(ctx, "patient-1")
	id := rows[0].ID

	if err := d.Delete(ctx, "patient-1", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Delete(ctx, "patient-1", id); err != nil {
		t.Errorf("second Delete: %v, want nil", err)
	}
	rows, unread, _ := d.Fetch(ctx, "patient-1")
	if len(rows) != 0 || unread != 0 {
		t.Errorf("after delete: %d rows, %d unread, want 0/0", len(rows), unread)
	}
}

func TestMarkRead_OtherUsersNotification(t *testing.T) {
	d, repo := newDispatcher()
	ctx := context.Background()

	if err := d.Notify(ctx, "patient-1", "t", "m", "info"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	rows, _ := repo.ListByRecipient(ctx, "patient-1")

	if err := d.MarkRead(ctx, "patient-2", rows[0].ID); apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("kind = %q, want authorization", apperr.KindOf(err))
	}
}

func TestFetch_NewestFirst(t *testing.T) {
	d, _ := newDispatcher()
	ctx := context.Background()

	d.Notify(ctx, "patient-1", "first", "m", "info")
	d.Notify(ctx, "patient-1", "second", "m", "info")

	rows, _, err := d.Fetch(ctx, "patient-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 || rows[0].Title != "second" {
		t.Errorf("order = [%s, %s], want newest first", rows[0].Title, rows[1].Title)
	}
}
