package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/penguin-judge/penguin-judge-go/logger"
)

// Client talks to the judge's REST API. It is stateless apart from the
// cookie jar that carries the session cookie; it never retries and never
// caches. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The replacement
// should carry a cookie jar, otherwise the session cookie set by Login is
// lost and every authenticated call yields a structured 401.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func NewClient(baseURL string, opts ...Option) *Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(fmt.Sprintf("cookiejar.New: %v", err))
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentUser fetches the account behind the session cookie. Yields a
// structured 401 when no valid session exists.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	return doJSON[User](ctx, c, http.MethodGet, "/api/user", nil, nil)
}

// ListContests lists visible contests, optionally narrowed by status.
// The problems field of every returned contest is left unloaded.
func (c *Client) ListContests(ctx context.Context, filter *ContestFilter) ([]Contest, error) {
	var q url.Values
	if filter != nil && filter.Status != "" {
		q = url.Values{"status": {string(filter.Status)}}
	}
	return doJSON[[]Contest](ctx, c, http.MethodGet, "/api/contests", q, nil)
}

// GetContest fetches one contest by id. Problems stay unloaded unless the
// server inlines them (it does so for begun contests).
func (c *Client) GetContest(ctx context.Context, id string) (Contest, error) {
	return doJSON[Contest](ctx, c, http.MethodGet, "/api/contests/"+url.PathEscape(id), nil, nil)
}

// ListProblems fetches the problem list of a contest, in server order.
func (c *Client) ListProblems(ctx context.Context, contestID string) ([]Problem, error) {
	path := "/api/contests/" + url.PathEscape(contestID) + "/problems"
	return doJSON[[]Problem](ctx, c, http.MethodGet, path, nil, nil)
}

// ListEnvironments fetches the judging environments in display order.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	return doJSON[[]Environment](ctx, c, http.MethodGet, "/api/environments", nil, nil)
}

// Submit posts code for judging and returns the stored submission with
// its server-assigned id and initial status. The caller's value is not
// modified; the contest id is only stripped from the wire body, where the
// URL already carries it.
func (c *Client) Submit(ctx context.Context, subm PartialSubmission) (Submission, error) {
	body := struct {
		ProblemID     string `json:"problem_id"`
		Code          string `json:"code"`
		EnvironmentID int    `json:"environment_id"`
	}{subm.ProblemID, subm.Code, subm.EnvironmentID}
	path := "/api/contests/" + url.PathEscape(subm.ContestID) + "/submissions"
	return doJSON[Submission](ctx, c, http.MethodPost, path, nil, body)
}

// ListSubmissions fetches the submissions of a contest. Ordering is
// whatever the server returns; newest-first is not guaranteed here.
func (c *Client) ListSubmissions(ctx context.Context, contestID string) ([]Submission, error) {
	path := "/api/contests/" + url.PathEscape(contestID) + "/submissions"
	return doJSON[[]Submission](ctx, c, http.MethodGet, path, nil, nil)
}

// Login authenticates with id and password. The session cookie lands in
// the cookie jar; the returned token matters only to callers that forward
// it elsewhere. Bad credentials yield a structured 401.
func (c *Client) Login(ctx context.Context, loginID, password string) (Token, error) {
	body := struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}{loginID, password}
	return doJSON[Token](ctx, c, http.MethodPost, "/api/auth", nil, body)
}

// Logout revokes the current session token.
func (c *Client) Logout(ctx context.Context) error {
	_, err := doRequest(ctx, c, http.MethodDelete, "/api/auth", nil, nil)
	return err
}

// doJSON performs a request and decodes the success body into T.
func doJSON[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T
	respBody, err := doRequest(ctx, c, method, path, query, body)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(respBody, &out); err != nil {
		return zero, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return out, nil
}

// doRequest performs a request and sorts the outcome into the three-way
// contract: (body, nil) on 2xx, (*Error, with the raw body attached when
// it is valid JSON) on any other status, and a plain wrapped error when
// the transport fails or the body cannot be read.
func doRequest(ctx context.Context, c *Client, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-Id", requestID)

	log := logger.FromContext(ctx)
	log.Debug("api request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Valid(respBody) {
			apiErr.Body = respBody
		}
		log.Debug("api server error",
			"method", method, "path", path,
			"request_id", requestID, "status", resp.StatusCode)
		return nil, apiErr
	}

	// 204 and other bodyless successes decode as null.
	if len(respBody) == 0 {
		respBody = []byte("null")
	}
	return respBody, nil
}
