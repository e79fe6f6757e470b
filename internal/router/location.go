package router

import (
	"net/url"
	"strings"
)

// Location is a parsed navigation target such as "/login?returnUrl=/history".
type Location struct {
	Path  string
	Query url.Values
}

func ParseLocation(target string) Location {
	target = strings.TrimSpace(target)

	path, rawQuery, _ := strings.Cut(target, "?")
	path = "/" + strings.Trim(path, "/")

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}

	return Location{
		Path:  path,
		Query: query,
	}
}

func (l Location) String() string {
	path := l.Path
	if len(path) == 0 {
		path = "/"
	}
	if len(l.Query) == 0 {
		return path
	}
	return path + "?" + l.Query.Encode()
}

func (l Location) Param(key string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(key)
}

// WithQuery returns path with the given query parameters appended.
func WithQuery(path string, params map[string]string) string {
	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	return Location{Path: path, Query: query}.String()
}
