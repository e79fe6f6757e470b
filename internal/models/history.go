package models

// QueryRecord is a single stored question and its answer.
type QueryRecord struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt Timestamp `json:"created_at"`
}

// QueryHistory is one page of records plus the total count.
type QueryHistory struct {
	Records []QueryRecord `json:"records"`
	Total   int           `json:"total"`
}

// TotalPages returns the number of pages needed to show every record.
func (h QueryHistory) TotalPages(pageSize int) int {
	if pageSize <= 0 || h.Total <= 0 {
		return 0
	}
	return (h.Total + pageSize - 1) / pageSize
}

// HasPage reports whether the zero based page holds any records.
func (h QueryHistory) HasPage(page, pageSize int) bool {
	return page >= 0 && page*pageSize < h.Total
}

// DeleteResponse acknowledges a history deletion.
type DeleteResponse struct {
	Message string `json:"message"`
}
