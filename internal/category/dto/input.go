package dto

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

type CreateCategoryRequest struct {
	ParentID    *string `json:"parentId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	SortOrder   int     `json:"sortOrder"`
}

func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	if r.ParentID != nil && strings.TrimSpace(*r.ParentID) == "" {
		r.ParentID = nil
	}
	return nil
}

// UpdateCategoryRequest carries only the fields the caller sent. An empty
// parentId moves the category to the root.
type UpdateCategoryRequest struct {
	ParentID    *string `json:"parentId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

func (r *UpdateCategoryRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperr.Validation("name must not be empty")
		}
		r.Name = &name
	}
	return nil
}
