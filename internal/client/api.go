package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/travelrag/travel-cli/internal/models"
)

const (
	RegisterPath    = "/api/register"
	TokenPath       = "/api/token"
	CurrentUserPath = "/users/me"
	LogoutPath      = "/api/logout"
	SearchPath      = "/api/search"
	HistoryPath     = "/api/history"
)

func (c *Client) Register(ctx context.Context, user models.NewUser) error {
	_, err := c.execute(
		c.request(ctx).SetBody(user),
		http.MethodPost,
		RegisterPath,
	)
	return err
}

// RequestToken submits the login form.
func (c *Client) RequestToken(ctx context.Context, login models.LoginRequest) (*models.TokenResponse, error) {
	resp, err := c.execute(
		c.request(ctx).SetFormData(login.FormData()),
		http.MethodPost,
		TokenPath,
	)
	if err != nil {
		return nil, err
	}
	return decode[models.TokenResponse](resp)
}

func (c *Client) CurrentUser(ctx context.Context) (*models.Identity, error) {
	resp, err := c.execute(c.request(ctx), http.MethodGet, CurrentUserPath)
	if err != nil {
		return nil, err
	}
	return decode[models.Identity](resp)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.execute(
		c.request(ctx).SetBody(map[string]any{}),
		http.MethodPost,
		LogoutPath,
	)
	return err
}

func (c *Client) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	resp, err := c.execute(
		c.request(ctx).SetBody(models.SearchRequest{Content: query}),
		http.MethodPost,
		SearchPath,
	)
	if err != nil {
		return nil, err
	}
	return decode[models.SearchResponse](resp)
}

func (c *Client) History(ctx context.Context, skip, limit int) (*models.QueryHistory, error) {
	resp, err := c.execute(
		c.request(ctx).SetQueryParams(map[string]string{
			"skip":  strconv.Itoa(skip),
			"limit": strconv.Itoa(limit),
		}),
		http.MethodGet,
		HistoryPath,
	)
	if err != nil {
		return nil, err
	}
	return decode[models.QueryHistory](resp)
}

func (c *Client) HistoryRecord(ctx context.Context, id int) (*models.QueryRecord, error) {
	resp, err := c.execute(
		c.request(ctx),
		http.MethodGet,
		fmt.Sprintf("%s/%d", HistoryPath, id),
	)
	if err != nil {
		return nil, err
	}
	return decode[models.QueryRecord](resp)
}

func (c *Client) LatestHistory(ctx context.Context) (*models.QueryRecord, error) {
	resp, err := c.execute(
		c.request(ctx),
		http.MethodGet,
		HistoryPath+"/latest",
	)
	if err != nil {
		return nil, err
	}
	return decode[models.QueryRecord](resp)
}

func (c *Client) DeleteHistory(ctx context.Context, id int) (*models.DeleteResponse, error) {
	resp, err := c.execute(
		c.request(ctx),
		http.MethodDelete,
		fmt.Sprintf("%s/%d", HistoryPath, id),
	)
	if err != nil {
		return nil, err
	}
	return decode[models.DeleteResponse](resp)
}

// Probe checks that the service answers at all. Any HTTP status counts as
// available; only the absence of a response within the probe timeout is
// reported, as ErrNetworkUnavailable.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	_, err := c.execute(c.request(ctx), http.MethodOptions, TokenPath)
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status > 0 {
		logrus.WithFields(logrus.Fields{
			"status": apiErr.Status,
		}).Debugln("Travel service answered probe with an error status, treating as available")
		return nil
	}

	if errors.Is(err, ErrNetworkUnavailable) {
		return err
	}

	return NewNetworkError(err)
}
