package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that owns tasks. It authenticates with a
// local password, a federated identity, or both once linked.
type User struct {
	ID           string    `json:"id" bson:"_id" gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" bson:"username" gorm:"size:30;not null"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty" gorm:"size:255"` // Never expose in JSON
	ExternalID   *string   `json:"externalId,omitempty" bson:"external_id,omitempty" gorm:"uniqueIndex;size:255"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty" gorm:"size:255"`
	Picture      string    `json:"picture,omitempty" bson:"picture,omitempty" gorm:"size:1024"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasExternalIdentity reports whether a federated identity is linked.
func (u *User) HasExternalIdentity() bool {
	return u.ExternalID != nil && *u.ExternalID != ""
}

// HasCredential reports whether the user has at least one way to sign in.
func (u *User) HasCredential() bool {
	return u.HasPassword() || u.HasExternalIdentity()
}

// ProfileUpdate is a partial profile change. Password, when set, is the new
// plaintext and is hashed by the service before it is stored.
type ProfileUpdate struct {
	Username *string
	Name     *string
	Picture  *string
	Password *string
}

// FederatedIdentity is the profile asserted by an external identity provider.
type FederatedIdentity struct {
	ExternalID string
	Email      string
	Name       string
	Picture    string
}
