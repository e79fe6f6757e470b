package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// MaxRedirects bounds the redirects followed by a single Navigate call.
const MaxRedirects = 8

var ErrTooManyRedirects = errors.New("too many redirects")

// View renders a route. It may request a follow-up navigation through
// Router.RequestNavigation.
type View func(ctx context.Context, location Location) error

type Route struct {
	Path      string
	Protected bool
	View      View
	// RedirectTo, when set, sends the navigation elsewhere without
	// rendering anything.
	RedirectTo string
}

type Guard interface {
	CanActivate(target Location) (bool, string)
}

type Router struct {
	mu       sync.Mutex
	routes   map[string]Route
	fallback string
	guard    Guard
	current  Location
	pending  string
}

func New(guard Guard) *Router {
	return &Router{
		routes:  make(map[string]Route),
		guard:   guard,
		current: ParseLocation("/"),
	}
}

func (r *Router) Handle(route Route) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[ParseLocation(route.Path).Path] = route
	return r
}

// Fallback sets where unknown paths lead.
func (r *Router) Fallback(path string) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = path
	return r
}

// URL is the location of the view currently shown.
func (r *Router) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.String()
}

func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// RequestNavigation queues target to be followed once the running view
// returns. A later request replaces an earlier one.
func (r *Router) RequestNavigation(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = target
}

// Pending reports the queued navigation without consuming it.
func (r *Router) Pending() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, len(r.pending) > 0
}

// Discard drops the queued navigation and returns it.
func (r *Router) Discard() (string, bool) {
	return r.takePending()
}

func (r *Router) takePending() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target := r.pending
	r.pending = ""
	return target, len(target) > 0
}

func (r *Router) resolve(path string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if route, ok := r.routes[path]; ok {
		return route, true
	}

	if len(r.fallback) > 0 {
		return Route{Path: path, RedirectTo: r.fallback}, true
	}

	return Route{}, false
}

func (r *Router) setCurrent(location Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = location
}

// Navigate enters target, following redirects, guard denials and
// navigation requested by views until a view finishes without asking to go
// elsewhere. It returns the final location and the error of the last view
// rendered.
func (r *Router) Navigate(ctx context.Context, target string) (Location, error) {
	var viewErr error

	for hop := 0; hop <= MaxRedirects; hop++ {
		if err := ctx.Err(); err != nil {
			return r.Current(), err
		}

		location := ParseLocation(target)

		route, ok := r.resolve(location.Path)
		if !ok {
			return r.Current(), fmt.Errorf("no route for %s", location.Path)
		}

		if len(route.RedirectTo) > 0 {
			logrus.WithFields(logrus.Fields{
				"from": location.Path,
				"to":   route.RedirectTo,
			}).Debugln("Redirecting")
			target = route.RedirectTo
			continue
		}

		if route.Protected && r.guard != nil {
			if allowed, redirect := r.guard.CanActivate(location); !allowed {
				target = redirect
				continue
			}
		}

		r.setCurrent(location)

		logrus.WithField("location", location.String()).Debugln("Entering view")

		viewErr = nil
		if route.View != nil {
			viewErr = route.View(ctx, location)
		}

		next, ok := r.takePending()
		if !ok {
			return location, viewErr
		}

		if viewErr != nil {
			logrus.WithError(viewErr).WithField("next", next).Debugln("View failed, following requested navigation")
		}

		target = next
	}

	return r.Current(), errors.Join(ErrTooManyRedirects, viewErr)
}

// Resume follows a navigation queued outside any view, such as the login
// redirect requested when a direct call is rejected. It reports false when
// nothing was queued.
func (r *Router) Resume(ctx context.Context) (Location, bool, error) {
	target, ok := r.takePending()
	if !ok {
		return r.Current(), false, nil
	}

	location, err := r.Navigate(ctx, target)
	return location, true, err
}
