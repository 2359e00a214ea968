package mercury

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when no token is configured and login is not possible.
var ErrUnauthorized = errors.New("mercury: no credentials")

// Config holds the endpoints and credentials of a Mercury deployment.
type Config struct {
	GraphQLURL string
	BackendURL string
	Token      string
	Email      string
	Password   string
	Timeout    time.Duration
}

// Client talks to Mercury's GraphQL query endpoint and its REST subscription backend.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger

	mu    sync.Mutex
	token string
}

// NewClient validates cfg and returns a client. A missing token is obtained by
// logging in with Email/Password on first use.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.GraphQLURL) == "" {
		return nil, fmt.Errorf("mercury graphql endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		token:  cfg.Token,
	}, nil
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// Response is the outcome of a custom query. OK is false when the service answered
// with GraphQL errors or without data.
type Response struct {
	OK     bool
	Data   json.RawMessage
	Errors []GraphQLError
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Query runs a GraphQL request with variables. Transport and HTTP-level failures are
// returned as errors; GraphQL-level failures come back as a non-ok Response.
func (c *Client) Query(ctx context.Context, request string, variables map[string]any) (*Response, error) {
	token, err := c.authToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, status, err := c.postGraphQL(ctx, token, request, variables)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && c.canLogin() {
		c.logger.Info("mercury token rejected, logging in again")
		c.clearToken(token)
		if token, err = c.authToken(ctx); err != nil {
			return nil, err
		}
		if resp, status, err = c.postGraphQL(ctx, token, request, variables); err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("mercury query: status %d", status)
	}

	ok := len(resp.Errors) == 0 && len(resp.Data) > 0 && string(resp.Data) != "null"
	if !ok {
		c.logger.Warn("mercury query not ok", zap.Int("errors", len(resp.Errors)))
	}
	return &Response{OK: ok, Data: resp.Data, Errors: resp.Errors}, nil
}

func (c *Client) postGraphQL(ctx context.Context, token, request string, variables map[string]any) (graphQLResponse, int, error) {
	body, err := json.Marshal(graphQLRequest{Query: request, Variables: variables})
	if err != nil {
		return graphQLResponse{}, 0, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return graphQLResponse{}, 0, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return graphQLResponse{}, 0, fmt.Errorf("mercury query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return graphQLResponse{}, resp.StatusCode, nil
	}

	var out graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return graphQLResponse{}, resp.StatusCode, fmt.Errorf("decode query response: %w", err)
	}
	return out, resp.StatusCode, nil
}

func (c *Client) canLogin() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

func (c *Client) clearToken(stale string) {
	c.mu.Lock()
	if c.token == stale {
		c.token = ""
	}
	c.mu.Unlock()
}

func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	if !c.canLogin() {
		return "", ErrUnauthorized
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

const authenticateMutation = `mutation Authenticate($email: String!, $password: String!) {
  authenticate(input: {email: $email, password: $password}) {
    jwtToken
  }
}`

func (c *Client) login(ctx context.Context) (string, error) {
	resp, status, err := c.postGraphQL(ctx, "", authenticateMutation, map[string]any{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("mercury login: %w", err)
	}
	if status != http.StatusOK || len(resp.Errors) > 0 {
		return "", fmt.Errorf("mercury login: status %d, %d errors", status, len(resp.Errors))
	}

	var data struct {
		Authenticate *struct {
			JwtToken string `json:"jwtToken"`
		} `json:"authenticate"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if data.Authenticate == nil || data.Authenticate.JwtToken == "" {
		return "", fmt.Errorf("mercury login: empty token")
	}
	c.logger.Info("mercury login succeeded")
	return data.Authenticate.JwtToken, nil
}
