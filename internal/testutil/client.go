// Package testutil provides helpers for integration tests against a running server.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Client talks to the HTTP API, optionally checking responses against the OpenAPI document.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Validator  *OpenAPIValidator
	t          *testing.T
}

// NewClient creates a client bound to t. validator may be nil.
func NewClient(t *testing.T, baseURL string, validator *OpenAPIValidator) *Client {
	t.Helper()
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Validator:  validator,
		t:          t,
	}
}

// GraphQLError is a single entry of the errors array.
type GraphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// GraphQLResponse is a decoded GraphQL response body.
type GraphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []GraphQLError             `json:"errors"`
}

// Field unmarshals data[name] into v, failing the test on GraphQL errors.
func (r *GraphQLResponse) Field(t *testing.T, name string, v interface{}) {
	t.Helper()
	if len(r.Errors) > 0 {
		t.Fatalf("graphql errors: %+v", r.Errors)
	}
	raw, ok := r.Data[name]
	if !ok {
		t.Fatalf("response has no field %q", name)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode field %q: %v", name, err)
	}
}

// Code returns the extensions code of the first error, or "" when there is none.
func (r *GraphQLResponse) Code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Extensions.Code
}

// GET performs a GET request.
func (c *Client) GET(path string) *http.Response {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil)
}

// GraphQL posts a query and decodes the response.
func (c *Client) GraphQL(query string, variables map[string]interface{}) *GraphQLResponse {
	c.t.Helper()

	resp := c.do(http.MethodPost, "/graphql", map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.t.Fatalf("graphql request failed: status=%d body=%s", resp.StatusCode, body)
	}

	var result GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.t.Fatalf("decode graphql response: %v", err)
	}
	return &result
}

// RegisterAndLogin creates a fresh user and stores its token on the client.
// It returns the username.
func (c *Client) RegisterAndLogin(password string) string {
	c.t.Helper()

	username := RandomUsername()
	c.GraphQL(`mutation($input: RegisterInput!) { register(input: $input) { id } }`,
		map[string]interface{}{"input": map[string]interface{}{
			"username": username,
			"email":    username + "@example.com",
			"password": password,
		}}).Field(c.t, "register", &struct{}{})

	var login struct {
		Token string `json:"token"`
	}
	c.GraphQL(`mutation($input: LoginInput!) { login(input: $input) { token } }`,
		map[string]interface{}{"input": map[string]interface{}{
			"username": username,
			"password": password,
		}}).Field(c.t, "login", &login)

	c.Token = login.Token
	return username
}

// RandomUsername returns a unique username that passes input validation.
func RandomUsername() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (c *Client) do(method, path string, body interface{}) *http.Response {
	c.t.Helper()

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		c.t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}

	if c.Validator != nil {
		validationReq, err := http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		if err != nil {
			c.t.Fatalf("create validation request: %v", err)
		}
		validationReq.Header = req.Header.Clone()
		c.Validator.ValidateResponse(c.t, validationReq, resp)
	}

	return resp
}

// ReadBody reads and closes the response body.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// DecodeJSON decodes and closes the response body.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", fmt.Errorf("%s: %w", resp.Request.URL.Path, err))
	}
}
