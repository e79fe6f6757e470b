package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/travelrag/travel-cli/internal/models"
)

var (
	ErrEmptyQuery   = errors.New("please enter a travel question")
	ErrNoSuchPage   = errors.New("page out of range")
	ErrSearchFailed = errors.New("search failed")
)

// Search sends a travel question. A pipeline failure reported in the
// response body is returned as an error as well.
func (a *App) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		a.Notifier.Warning(ErrEmptyQuery.Error())
		return nil, ErrEmptyQuery
	}

	response, err := a.Client.Search(ctx, query)
	if err != nil {
		a.Report(err)
		return nil, err
	}

	if response.IsError() {
		a.Notifier.Error(response.Error)
		return response, fmt.Errorf("%w: %s", ErrSearchFailed, response.Error)
	}

	return response, nil
}

// HistoryPage is one page of the query history. Pages count from 1.
type HistoryPage struct {
	Page     int
	PageSize int
	models.QueryHistory
}

func (p HistoryPage) TotalPages() int {
	return p.QueryHistory.TotalPages(p.PageSize)
}

func (p HistoryPage) HasNext() bool {
	return p.Page < p.TotalPages()
}

func (p HistoryPage) HasPrevious() bool {
	return p.Page > 1
}

func (a *App) History(ctx context.Context, page, pageSize int) (*HistoryPage, error) {
	if pageSize <= 0 {
		pageSize = a.Config.GetPageSize()
	}
	if page <= 0 {
		page = 1
	}

	history, err := a.Client.History(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		a.Report(err)
		return nil, err
	}

	result := &HistoryPage{
		Page:         page,
		PageSize:     pageSize,
		QueryHistory: *history,
	}

	if page > 1 && !history.HasPage(page-1, pageSize) {
		a.Notifier.Warning(fmt.Sprintf("There is no history page %d", page))
		return result, ErrNoSuchPage
	}

	return result, nil
}

func (a *App) HistoryRecord(ctx context.Context, id int) (*models.QueryRecord, error) {
	record, err := a.Client.HistoryRecord(ctx, id)
	if err != nil {
		a.Report(err)
		return nil, err
	}
	return record, nil
}

func (a *App) LatestHistory(ctx context.Context) (*models.QueryRecord, error) {
	record, err := a.Client.LatestHistory(ctx)
	if err != nil {
		a.Report(err)
		return nil, err
	}
	return record, nil
}

func (a *App) DeleteHistory(ctx context.Context, id int) error {
	response, err := a.Client.DeleteHistory(ctx, id)
	if err != nil {
		a.Report(err)
		return err
	}

	message := "Record deleted"
	if response != nil && len(response.Message) > 0 {
		message = response.Message
	}
	a.Notifier.Success(message)

	return nil
}
