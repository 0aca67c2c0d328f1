package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// ErrRateLimited is returned when a delivery exceeds the limiter's budget.
// Nothing is sent.
var ErrRateLimited = errors.New("webhook rate limit exceeded")

// StatusError is returned when the endpoint answers with a non-2xx status
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
}

// Client executes a single configured webhook
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout bounds each delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLimiter caps deliveries. Deliveries over budget fail immediately with
// ErrRateLimited. A nil limiter disables the cap.
func WithLimiter(l *rate.Limiter) Option {
	return func(cl *Client) {
		cl.limiter = l
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// New creates a client for the webhook at rawURL. The URL is validated once
// here and reused for every execution.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid webhook url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("webhook url has no host")
	}
	q := u.Query()
	q.Set("wait", "true")
	u.RawQuery = q.Encode()

	c := &Client{
		endpoint:   u.String(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// discord allows 30 executions per minute per webhook
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 5),
		userAgent: "oliviabot (https://github.com/RocketRace/oliviabot, 1.0)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute posts p. Any transport error or non-2xx status is returned. The
// limiter is never waited on.
func (c *Client) Execute(ctx context.Context, p Payload) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return ErrRateLimited
	}

	body, contentType, err := encode(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return errors.Wrap(err, "build webhook request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func encode(p Payload) (io.Reader, string, error) {
	if len(p.Attachments) == 0 {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, "", errors.Wrap(err, "marshal webhook payload")
		}
		return bytes.NewReader(b), "application/json", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	payloadJSON, err := json.Marshal(p.wire())
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal webhook payload")
	}
	if err := mw.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, "", errors.Wrap(err, "write payload_json")
	}

	for i, a := range p.Attachments {
		fw, err := mw.CreateFormFile(fmt.Sprintf("files[%d]", i), a.Filename)
		if err != nil {
			return nil, "", errors.Wrap(err, "create attachment part")
		}
		if _, err := fw.Write(a.Content); err != nil {
			return nil, "", errors.Wrap(err, "write attachment")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart body")
	}
	return &buf, mw.FormDataContentType(), nil
}
