package models

import (
	"time"
)

// Role defines the account roles in the production workflow.
type Role string

const (
	RoleClient   Role = "client"
	RoleEditor   Role = "editor"
	RoleDesigner Role = "designer"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

// NotificationPreferences allows users to opt out of email notifications.
// Escalation emails (reminder / suspension warning) ignore these: a user
// cannot unsubscribe from billing consequences.
type NotificationPreferences struct {
	ProjectUpdates bool `bson:"project_updates" json:"project_updates"`
	InvoiceIssued  bool `bson:"invoice_issued" json:"invoice_issued"`
}

// User represents an account in the system.
type User struct {
	Base                    `bson:",inline"`
	Name                    string                   `bson:"name" json:"name"`
	Email                   string                   `bson:"email" json:"email"`
	PasswordHash            string                   `bson:"password" json:"-"`
	Role                    Role                     `bson:"role" json:"role"`
	GroupID                 string                   `bson:"group_id,omitempty" json:"group_id,omitempty"` // production group the account belongs to
	Suspended               bool                     `bson:"suspended" json:"suspended"`
	SuspendedAt             *time.Time               `bson:"suspended_at,omitempty" json:"suspended_at,omitempty"`
	SuspensionReason        string                   `bson:"suspension_reason,omitempty" json:"suspension_reason,omitempty"`
	NotificationPreferences *NotificationPreferences `bson:"notification_preferences,omitempty" json:"notification_preferences,omitempty"`
	CreatedAt               time.Time                `bson:"created_at" json:"created_at"`
	UpdatedAt               time.Time                `bson:"updated_at" json:"updated_at"`
	Deleted                 bool                     `bson:"deleted" json:"-"`
}

// IsStaff reports whether the user works on projects rather than owning them.
func (u *User) IsStaff() bool {
	switch u.Role {
	case RoleEditor, RoleDesigner, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}
