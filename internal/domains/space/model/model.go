package model

import "reserve/shared/model"

const (
	TableName  = "spaces"
	EntityName = "space"

	FieldID       = "id"
	FieldName     = "name"
	FieldIsActive = "is_active"
)

// Space is a bookable resource. Spaces are managed elsewhere and only read here.
type Space struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Location string `db:"location"`
	Capacity int    `db:"capacity"`
	IsActive bool   `db:"is_active"`
	model.Metadata
}
