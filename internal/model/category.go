package model

type Category struct {
	BaseModel
	ParentID    *string    `db:"parent_id" json:"parentId"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description"`
	SortOrder   int        `db:"sort_order" json:"sortOrder"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	Children    []Category `db:"-" json:"children,omitempty"`
}
