package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultProbeTimeout = 5 * time.Second

	RequestIDHeader = "X-Request-ID"
)

// HeaderSource supplies the Authorization header for outbound calls.
type HeaderSource interface {
	BuildAuthHeader() http.Header
}

type Options struct {
	BaseURL      string
	Timeout      time.Duration
	ProbeTimeout time.Duration
	UserAgent    string
}

// Client talks to the travel API. Every call passes through resty
// middleware: request ids and credentials on the way out, the failure
// Interceptor on the way back.
type Client struct {
	rest         *resty.Client
	baseURL      string
	probeTimeout time.Duration
	headers      HeaderSource
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	c := &Client{
		rest:         resty.New().SetTimeout(timeout),
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		probeTimeout: probeTimeout,
	}

	if len(opts.UserAgent) > 0 {
		c.rest.SetHeader("User-Agent", opts.UserAgent)
	}

	c.rest.OnBeforeRequest(c.beforeRequest)

	return c
}

// Use installs the failure interceptor. It must be called before the
// first request is made.
func (c *Client) Use(interceptor *Interceptor) *Client {
	c.rest.OnAfterResponse(interceptor.AfterResponse)
	c.rest.OnError(interceptor.OnError)
	return c
}

// SetHeaderSource wires the session manager in after construction, the
// manager itself needs the client to log in.
func (c *Client) SetHeaderSource(source HeaderSource) *Client {
	c.headers = source
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimPrefix(path, "/"))
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

func (c *Client) beforeRequest(_ *resty.Client, req *resty.Request) error {
	if len(req.Header.Get(RequestIDHeader)) == 0 {
		req.SetHeader(RequestIDHeader, uuid.NewString())
	}

	if c.headers == nil || len(req.Header.Get("Authorization")) > 0 || isPublicPath(req.URL) {
		return nil
	}

	for key, values := range c.headers.BuildAuthHeader() {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return nil
}

// isPublicPath reports whether the endpoint is called without a credential.
func isPublicPath(target string) bool {
	path, _, _ := strings.Cut(target, "?")
	path = strings.TrimSuffix(path, "/")
	return strings.HasSuffix(path, TokenPath) || strings.HasSuffix(path, RegisterPath)
}

// execute runs the request and guarantees that a failure is returned as
// a classified *Error, whether or not an interceptor is installed.
func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	target := c.url(path)

	logrus.WithFields(logrus.Fields{
		"method": method,
		"url":    target,
	}).Debugln("Calling travel service")

	resp, err := req.Execute(method, target)

	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return resp, apiErr
		}
		if errors.Is(err, context.Canceled) {
			return resp, err
		}
		return resp, NewNetworkError(err)
	}

	if resp.IsError() {
		return resp, classifyResponse(resp, isLoginRequest(resp.Request))
	}

	return resp, nil
}

func decode[T any](resp *resty.Response) (*T, error) {
	var out T

	body := resp.Body()
	if len(body) == 0 {
		return &out, nil
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{
			Kind:    KindServerError,
			Status:  resp.StatusCode(),
			Message: "Unexpected response from the travel service",
			Err:     fmt.Errorf("failed to decode response: %w", err),
		}
	}

	return &out, nil
}
