package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/clearbrook/screend/internal/events"
	"github.com/clearbrook/screend/internal/model"
)

// HTTPClient talks to a screend server over its HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g.
// "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every operator request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Capabilities ---

func (c *HTTPClient) IssueCapability(ctx context.Context, req *IssueCapabilityRequest) (*IssueCapabilityResult, error) {
	var out IssueCapabilityResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/capabilities", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListCapabilities(ctx context.Context, subjectID string) ([]*model.Capability, error) {
	var out struct {
		Capabilities []*model.Capability `json:"capabilities"`
	}
	path := "/v1/capabilities?subject_id=" + url.QueryEscape(subjectID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Capabilities, nil
}

func (c *HTTPClient) RevokeCapability(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/capabilities/"+url.PathEscape(id), nil, nil)
}

// --- Students and sessions ---

func (c *HTTPClient) CreateStudent(ctx context.Context, req *CreateStudentRequest) (*model.Student, error) {
	var student model.Student
	if err := c.doJSON(ctx, http.MethodPost, "/v1/students", req, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (c *HTTPClient) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	if err := c.doJSON(ctx, http.MethodGet, "/v1/students/"+url.PathEscape(id), nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, req *CreateSessionRequest) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	var detail SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *HTTPClient) BeginSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/begin", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) CompleteSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/complete", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) Navigate(ctx context.Context, id, unitID string) (*model.Session, error) {
	body := map[string]string{"unit_id": unitID}
	var sess model.Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/navigate", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) RecordResponse(ctx context.Context, id string, req *RecordResponseRequest) (*model.ResponseRecord, error) {
	var resp model.ResponseRecord
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/responses", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) PublishEphemeral(ctx context.Context, id string, patch events.EphemeralPatch) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(id)+"/ephemeral", patch, nil)
}

// --- Delegated-access gateways ---

// Portal calls the guardian portal gateway with a capability token. The
// result is the action-specific response object.
func (c *HTTPClient) Portal(ctx context.Context, req *GatewayRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/v1/portal", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionAccess calls the substitute-proctor gateway with a capability
// token.
func (c *HTTPClient) SessionAccess(ctx context.Context, req *GatewayRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/v1/session", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks the server.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/v1/health", nil, nil)
}

// doJSON performs an HTTP request with optional JSON body and decodes a
// JSON response into result (when result is non-nil).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
