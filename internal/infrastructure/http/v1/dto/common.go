// Package dto holds the request and response bodies of the HTTP API.
package dto

import (
	"fmt"
	"time"

	"pharmacy/internal/core/id"
)

// ListResponse wraps a page of results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetDeletionMarkRequest marks or unmarks a catalog record.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// DocumentListQuery is the query string shared by document lists.
type DocumentListQuery struct {
	Search         string     `form:"search"`
	DateFrom       *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo         *time.Time `form:"dateTo" time_format:"2006-01-02"`
	CounterpartyID string     `form:"counterpartyId" binding:"omitempty,uuid"`
	LocationID     string     `form:"locationId" binding:"omitempty,uuid"`
	Status         string     `form:"status"`
	Posted         *bool      `form:"posted"`
	Kind           string     `form:"kind"`
	OrderBy        string     `form:"orderBy"`
	Limit          int        `form:"limit" binding:"min=0,max=1000"`
	Offset         int        `form:"offset" binding:"min=0"`
}

// ParseOptionalID parses an id that may be empty.
func ParseOptionalID(s string) (*id.ID, error) {
	if s == "" {
		return nil, nil
	}
	v, err := id.Parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DateOnly is a YYYY-MM-DD date in JSON bodies. RFC 3339 timestamps are
// accepted as well.
type DateOnly struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a string, got %s", s)
	}
	s = s[1 : len(s)-1]
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return err
		}
	}
	d.Time = t.UTC()
	return nil
}

// Ptr returns nil for a missing date.
func (d *DateOnly) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
