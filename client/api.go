package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Policy mirrors the server's policy representation.
type Policy struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"ownerId"`
	Tier          string      `json:"tier"`
	Status        string      `json:"status"`
	CoverageLimit int64       `json:"coverageLimit"`
	PremiumAmount int64       `json:"premiumAmount"`
	Dependents    []Dependent `json:"dependents"`
	StartDate     time.Time   `json:"startDate"`
	EndDate       time.Time   `json:"endDate"`
}

type Dependent struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// Enroll creates a policy for the logged-in member.
func (c *Client) Enroll(ctx context.Context, tier string, dependents []Dependent) (*Policy, error) {
	var p Policy
	err := c.do(ctx, http.MethodPost, "/insurance", map[string]interface{}{
		"tier":       tier,
		"dependents": dependents,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PolicyForUser returns a member's policy.
func (c *Client) PolicyForUser(ctx context.Context, userID string) (*Policy, error) {
	var p Policy
	if err := c.do(ctx, http.MethodGet, "/insurance/user/"+url.PathEscape(userID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePolicyStatus transitions a policy; admin only.
func (c *Client) UpdatePolicyStatus(ctx context.Context, policyID, status string) (*Policy, error) {
	var p Policy
	err := c.do(ctx, http.MethodPatch, "/insurance/"+url.PathEscape(policyID)+"/status",
		map[string]string{"status": status}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Claim mirrors the server's claim representation.
type Claim struct {
	ID               string   `json:"id"`
	PolicyID         string   `json:"policyId"`
	PatientID        string   `json:"patientId"`
	FacilityID       string   `json:"facilityId"`
	ClaimAmount      int64    `json:"claimAmount"`
	ServicesRendered []string `json:"servicesRendered"`
	Status           string   `json:"status"`
	RejectionReason  string   `json:"rejectionReason"`
	TransactionHash  string   `json:"transactionHash"`
}

// SubmitClaim files a claim against a policy.
func (c *Client) SubmitClaim(ctx context.Context, policyID, facilityID string, amount int64, services []string) (*Claim, error) {
	var cl Claim
	err := c.do(ctx, http.MethodPost, "/claims", map[string]interface{}{
		"policyId":         policyID,
		"facilityId":       facilityID,
		"claimAmount":      amount,
		"servicesRendered": services,
	}, &cl)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// ProcessClaim adjudicates a pending claim; admin only.
func (c *Client) ProcessClaim(ctx context.Context, claimID, status, rejectionReason string) (*Claim, error) {
	var cl Claim
	err := c.do(ctx, http.MethodPatch, "/claims/"+url.PathEscape(claimID)+"/process",
		map[string]string{"status": status, "rejectionReason": rejectionReason}, &cl)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// ClaimsForPatient returns a patient's claims, newest first.
func (c *Client) ClaimsForPatient(ctx context.Context, patientID string) ([]Claim, error) {
	var res struct {
		Claims []Claim `json:"claims"`
	}
	if err := c.do(ctx, http.MethodGet, "/claims/patient/"+url.PathEscape(patientID), nil, &res); err != nil {
		return nil, err
	}
	return res.Claims, nil
}

// AllClaims returns every claim, optionally filtered by status; admin only.
func (c *Client) AllClaims(ctx context.Context, status string) ([]Claim, error) {
	path := "/claims"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var res struct {
		Claims []Claim `json:"claims"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Claims, nil
}

// Notification mirrors the server's notification representation.
type Notification struct {
	ID        string            `json:"id"`
	BatchID   string            `json:"batchId"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      string            `json:"type"`
	IsRead    bool              `json:"isRead"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Inbox is one notification fetch: the rows plus the recomputed unread count.
type Inbox struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// FetchNotifications returns the logged-in user's inbox.
func (c *Client) FetchNotifications(ctx context.Context) (*Inbox, error) {
	sess, _ := c.sessions.current()
	if sess == nil {
		return nil, ErrNoSession
	}
	var inbox Inbox
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(sess.UserID)+"/notifications", nil, &inbox); err != nil {
		return nil, err
	}
	return &inbox, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", struct{}{}, nil)
}

// MarkAllNotificationsRead marks the whole inbox read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read-all", struct{}{}, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}
