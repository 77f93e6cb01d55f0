package models

import (
	"github.com/google/uuid"
)

// Base holds the document identity shared by all persisted models.
type Base struct {
	ID string `bson:"_id,omitempty" json:"id,omitempty"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID == "" {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = uuid.NewString()
}

func NewBase() Base {
	return Base{ID: uuid.NewString()}
}
