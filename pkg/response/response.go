// Package response holds the JSON shapes shared by every HTTP handler.
package response

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"requestId,omitempty"`
}

type Paginated struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

type Message struct {
	Message string `json:"message"`
}

func NewPaginated(items interface{}, total, page, pageSize int) Paginated {
	return Paginated{Items: items, Total: total, Page: page, PageSize: pageSize}
}

// Pagination reads page and pageSize query params, falling back to defaults
// for missing or out-of-range values.
func Pagination(c echo.Context) (page, pageSize int) {
	page = QueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = QueryInt(c, "pageSize", DefaultPageSize)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func QueryInt(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// QueryBool returns nil when the param is absent or not a boolean.
func QueryBool(c echo.Context, name string) *bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return nil
	}
	return &v
}
