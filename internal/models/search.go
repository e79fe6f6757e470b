package models

type SearchRequest struct {
	Content string `json:"content"`
}

// SearchResponse carries either the answer or the error reported by the
// retrieval pipeline.
type SearchResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s SearchResponse) IsError() bool {
	return len(s.Error) > 0
}
