package api

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var out AdminStats
	if err := c.Do(ctx, http.MethodGet, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminListUsers(ctx context.Context) ([]AdminUser, error) {
	var out struct {
		Users []AdminUser `json:"users"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) AdminSetUserStatus(ctx context.Context, userID, status string) error {
	body := map[string]string{"status": status}
	return c.Do(ctx, http.MethodPost, "/api/admin/users/"+pathEscape(userID)+"/status", body, nil)
}

func (c *Client) AdminSetUserRole(ctx context.Context, userID, role string) error {
	body := map[string]string{"role": role}
	return c.Do(ctx, http.MethodPost, "/api/admin/users/"+pathEscape(userID)+"/role", body, nil)
}

// AdminAuditLogs lists audit entries. Filters map to query parameters; the
// server applies them, the client does not re-filter.
func (c *Client) AdminAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLog, error) {
	q := url.Values{}
	if filter.User != "" {
		q.Set("user", filter.User)
	}
	if filter.ViolationType != "" {
		q.Set("violation_type", filter.ViolationType)
	}
	if filter.Severity != "" {
		q.Set("severity", filter.Severity)
	}
	if filter.From != "" {
		q.Set("from", filter.From)
	}
	if filter.To != "" {
		q.Set("to", filter.To)
	}
	endpoint := "/api/admin/audit-logs"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var out struct {
		Logs []AuditLog `json:"logs"`
	}
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// AdminSecurityAlerts lists security alerts, newest first. Filters map to
// query parameters; an empty filter returns the server's default page.
func (c *Client) AdminSecurityAlerts(ctx context.Context, filter AlertFilter) ([]SecurityAlert, error) {
	q := url.Values{}
	if filter.Severity != "" {
		q.Set("severity", filter.Severity)
	}
	if filter.Resolved != "" {
		q.Set("resolved", filter.Resolved)
	}
	endpoint := "/api/admin/security-alerts"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var out struct {
		Alerts []SecurityAlert `json:"alerts"`
	}
	if err := c.Do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

func (c *Client) AdminResolveSecurityAlert(ctx context.Context, alertID string) error {
	return c.Do(ctx, http.MethodPut, "/api/admin/security-alerts/"+pathEscape(alertID)+"/resolve", nil, nil)
}

func (c *Client) AdminSystemHealth(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/admin/system-health", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}
