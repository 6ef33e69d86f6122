// Package graphclient implements Component A (spec §4.A): per-tenant OAuth2
// token acquisition against Microsoft Entra ID, a thin Microsoft Graph query
// surface, and capability probing.
package graphclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

const (
	graphBaseURL  = "https://graph.microsoft.com/v1.0/"
	requestDeadline = 30 * time.Second
	maxRetries      = 3
)

// Client is a thin authenticated request surface over Microsoft Graph.
// It exposes only the resources the Catalog's checkers need (spec §6).
type Client struct {
	tenantID   string
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

// TokenSource supplies a valid bearer token for outbound Graph calls and
// can force a single refresh after observing a 401 (spec §4.A "Caching").
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

func newClient(tenantID string, tokens TokenSource) *Client {
	return &Client{
		tenantID:   tenantID,
		httpClient: &http.Client{Timeout: requestDeadline},
		tokens:     tokens,
		baseURL:    graphBaseURL,
	}
}

// get performs an authenticated GET against the Graph API with retry on
// 5xx/429 (honoring Retry-After) and a single forced token refresh on 401
// (spec §5, §7 RateLimited/TransientIO/TokenExpired).
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.getWithRetry(ctx, path, out, false)
}

func (c *Client) getWithRetry(ctx context.Context, path string, out any, refreshedOnce bool) error {
	op := func() (struct{}, error) {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: acquiring token: %v", apperr.ErrAuth, err))
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestDeadline)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("building request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %v", apperr.ErrTransientIO, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			if refreshedOnce {
				return struct{}{}, backoff.Permanent(fmt.Errorf("%w: 401 after forced refresh", apperr.ErrAuth))
			}
			if _, err := c.tokens.ForceRefresh(ctx); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("%w: forced refresh failed: %v", apperr.ErrAuth, err))
			}
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: 401, retrying once with refreshed token", apperr.ErrTokenExpired))

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			return struct{}{}, backoff.RetryAfter(int(retryAfter.Seconds()))

		case resp.StatusCode >= 500:
			return struct{}{}, fmt.Errorf("%w: graph returned %d", apperr.ErrTransientIO, resp.StatusCode)

		case resp.StatusCode >= 400:
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: graph returned %d", apperr.ErrCheckerError, resp.StatusCode))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return struct{}{}, backoff.Permanent(fmt.Errorf("decoding graph response: %w", err))
			}
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRetries),
	)
	if err != nil && !refreshedOnce && errors.Is(err, apperr.ErrTokenExpired) {
		return c.getWithRetry(ctx, path, out, true)
	}
	return err
}

// --- Graph resource surface (spec §6) ---

// Organization mirrors the subset of the Graph "organization" resource used
// by checkers.
type Organization struct {
	Value []struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		VerifiedDomains   []struct {
			Name      string `json:"name"`
			IsDefault bool   `json:"isDefault"`
		} `json:"verifiedDomains"`
	} `json:"value"`
}

// GetOrganization fetches the tenant's organization resource.
func (c *Client) GetOrganization(ctx context.Context) (*Organization, error) {
	var out Organization
	if err := c.get(ctx, "organization", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User is a minimal Graph user projection.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// UsersPage is a page of the Graph "users" collection.
type UsersPage struct {
	Value []User `json:"value"`
}

// ListUsers fetches up to top users with the given $select projection.
func (c *Client) ListUsers(ctx context.Context, selectFields string, top int) (*UsersPage, error) {
	path := fmt.Sprintf("users?$select=%s&$top=%d", selectFields, top)
	var out UsersPage
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthenticationMethod is one entry in a user's registered authentication methods.
type AuthenticationMethod struct {
	ODataType string `json:"@odata.type"`
	ID        string `json:"id"`
}

// AuthMethodsPage wraps a user's authentication/methods collection.
type AuthMethodsPage struct {
	Value []AuthenticationMethod `json:"value"`
}

// GetUserAuthenticationMethods fetches a user's registered auth methods.
func (c *Client) GetUserAuthenticationMethods(ctx context.Context, userID string) (*AuthMethodsPage, error) {
	var out AuthMethodsPage
	if err := c.get(ctx, fmt.Sprintf("users/%s/authentication/methods", userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DirectoryRole is a Graph directoryRole (e.g. Global Administrator).
type DirectoryRole struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	RoleTemplateID string `json:"roleTemplateId"`
}

// DirectoryRolesPage wraps the directoryRoles collection.
type DirectoryRolesPage struct {
	Value []DirectoryRole `json:"value"`
}

// ListDirectoryRoles fetches all activated directory roles.
func (c *Client) ListDirectoryRoles(ctx context.Context) (*DirectoryRolesPage, error) {
	var out DirectoryRolesPage
	if err := c.get(ctx, "directoryRoles", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DirectoryRoleMembersPage wraps a directory role's members collection.
type DirectoryRoleMembersPage struct {
	Value []User `json:"value"`
}

// ListDirectoryRoleMembers fetches the members of a directory role.
func (c *Client) ListDirectoryRoleMembers(ctx context.Context, roleID string) (*DirectoryRoleMembersPage, error) {
	var out DirectoryRoleMembersPage
	if err := c.get(ctx, fmt.Sprintf("directoryRoles/%s/members", roleID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConditionalAccessPolicy is a minimal projection of a CA policy.
type ConditionalAccessPolicy struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	State       string `json:"state"`
	Conditions  json.RawMessage `json:"conditions"`
	GrantControls json.RawMessage `json:"grantControls"`
}

// ConditionalAccessPoliciesPage wraps the CA policies collection.
type ConditionalAccessPoliciesPage struct {
	Value []ConditionalAccessPolicy `json:"value"`
}

// ListConditionalAccessPolicies fetches all conditional access policies.
func (c *Client) ListConditionalAccessPolicies(ctx context.Context) (*ConditionalAccessPoliciesPage, error) {
	var out ConditionalAccessPoliciesPage
	if err := c.get(ctx, "identity/conditionalAccess/policies", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Application is a minimal projection of a Graph application registration.
type Application struct {
	ID                    string          `json:"id"`
	DisplayName           string          `json:"displayName"`
	CreatedDateTime       time.Time       `json:"createdDateTime"`
	RequiredResourceAccess json.RawMessage `json:"requiredResourceAccess"`
}

// ApplicationsPage wraps the applications collection.
type ApplicationsPage struct {
	Value []Application `json:"value"`
}

// ListApplications fetches app registrations with the standard projection.
func (c *Client) ListApplications(ctx context.Context) (*ApplicationsPage, error) {
	const path = "applications?$select=id,displayName,createdDateTime,requiredResourceAccess"
	var out ApplicationsPage
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return time.Second
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs
	}
	return time.Second
}
