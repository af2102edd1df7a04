package pagination

import (
	"net/http"
	"strconv"

	"github.com/tesseramedia/tessera/pkg/errors"
)

// Query parameters understood by list endpoints.
const (
	limitParam     = "limit"
	pageTokenParam = "page_token"
)

// Paginator parses list requests and assembles page envelopes.
type Paginator struct {
	encoder     *CursorEncoder
	defaultSize int
	maxSize     int
}

// NewPaginator creates a paginator with the given page size bounds.
func NewPaginator(encoder *CursorEncoder, defaultSize, maxSize int) *Paginator {
	return &Paginator{
		encoder:     encoder,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// ParseRequest extracts limit and offset from the request query.
func (p *Paginator) ParseRequest(r *http.Request) (Params, error) {
	limit := p.defaultSize
	if raw := r.URL.Query().Get(limitParam); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Params{}, errors.FieldError(limitParam, "limit must be a positive integer")
		}
		limit = parsed
	}
	if limit > p.maxSize {
		limit = p.maxSize
	}

	offset, err := CalculateOffset(p.encoder, r.URL.Query().Get(pageTokenParam), 0)
	if err != nil {
		return Params{}, errors.FieldError(pageTokenParam, "invalid page token")
	}

	return Params{Limit: limit, Offset: offset}, nil
}

// ListResponse is the page envelope for list endpoints.
type ListResponse struct {
	Count    int         `json:"count"`
	Next     string      `json:"next,omitempty"`
	Previous string      `json:"previous,omitempty"`
	Results  interface{} `json:"results"`
}

// NewListResponse assembles the page envelope around results.
func (p *Paginator) NewListResponse(params Params, total int64, results interface{}) (*ListResponse, error) {
	page, err := BuildPage(p.encoder, params.Offset, params.Limit, int(total))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInternal, "failed to build page tokens", err)
	}
	return &ListResponse{
		Count:    page.Count,
		Next:     page.Next,
		Previous: page.Previous,
		Results:  results,
	}, nil
}
