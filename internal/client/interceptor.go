package client

import (
	"errors"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ForceLogout is published when the service rejects the stored credential
// outside of a login attempt. Whoever owns the session and the router
// consumes it; the interceptor itself never touches either.
type ForceLogout struct {
	// ReturnTo is the location the user was on when the call failed
	ReturnTo string
	Method   string
	URL      string
}

type Publisher interface {
	Publish(ForceLogout)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ForceLogout)

func (f PublisherFunc) Publish(cmd ForceLogout) {
	f(cmd)
}

// Interceptor inspects the outcome of every call made through a Client.
// HTTP failures are classified into *Error and returned to the caller;
// an authentication failure additionally publishes ForceLogout.
type Interceptor struct {
	publisher Publisher
	location  func() string
}

func NewInterceptor(publisher Publisher, location func() string) *Interceptor {
	return &Interceptor{
		publisher: publisher,
		location:  location,
	}
}

// AfterResponse is registered as resty response middleware. Returning a
// non-nil error makes resty hand that error back from Execute.
func (i *Interceptor) AfterResponse(_ *resty.Client, resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}

	loginCall := isLoginRequest(resp.Request)
	apiErr := classifyResponse(resp, loginCall)

	fields := logrus.Fields{
		"method": resp.Request.Method,
		"url":    resp.Request.URL,
		"status": apiErr.Status,
		"kind":   apiErr.Kind,
	}

	switch apiErr.Kind {
	case KindUnauthorized:
		logrus.WithFields(fields).Warnln("Credential rejected by travel service, forcing logout")
		i.forceLogout(resp.Request)
	case KindInvalidCredentials:
		logrus.WithFields(fields).Debugln("Login rejected")
	case KindForbidden:
		logrus.WithFields(fields).Warnln("Access to resource denied")
	case KindNotFound:
		logrus.WithFields(fields).Debugln("Requested resource does not exist")
	default:
		logrus.WithFields(fields).Errorln("Travel service returned an error")
	}

	return apiErr
}

// OnError is registered as a resty error hook. It only logs: transport
// failures say nothing about the validity of the session.
func (i *Interceptor) OnError(req *resty.Request, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return
	}

	logrus.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL,
	}).WithError(err).Errorln("Unable to reach the travel service")
}

func (i *Interceptor) forceLogout(req *resty.Request) {
	if i.publisher == nil {
		return
	}

	returnTo := ""
	if i.location != nil {
		returnTo = i.location()
	}

	i.publisher.Publish(ForceLogout{
		ReturnTo: returnTo,
		Method:   req.Method,
		URL:      req.URL,
	})
}

// isLoginRequest reports whether req is the token submission, whose 401
// is an ordinary "wrong password" answer.
func isLoginRequest(req *resty.Request) bool {
	if req == nil {
		return false
	}

	path := req.URL
	if req.RawRequest != nil && req.RawRequest.URL != nil {
		path = req.RawRequest.URL.Path
	}

	return strings.HasSuffix(strings.TrimSuffix(path, "/"), TokenPath)
}
