package handlers

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"house-price-api/repository"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var errInvalidCursor = errors.New("invalid cursor")

type PaginationParams struct {
	Limit int
	After *repository.Cursor
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// EncodeCursor packs a page position into an opaque URL-safe token.
func EncodeCursor(c repository.Cursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatUint(uint64(c.ID), 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(s string) (repository.Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return repository.Cursor{}, errInvalidCursor
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok {
		return repository.Cursor{}, errInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return repository.Cursor{}, errInvalidCursor
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return repository.Cursor{}, errInvalidCursor
	}
	return repository.Cursor{CreatedAt: createdAt, ID: uint(n)}, nil
}

// ParsePagination reads ?limit= and the ?cursor= token. A bad limit falls
// back to the default; a cursor that does not decode is an error.
func ParsePagination(c *gin.Context) (PaginationParams, error) {
	p := PaginationParams{Limit: DefaultLimit}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Limit = l
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if token := c.Query("cursor"); token != "" {
		cur, err := DecodeCursor(token)
		if err != nil {
			return PaginationParams{}, err
		}
		p.After = &cur
	}

	return p, nil
}
