package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the coarse permission tier of a user.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleArtisan    Role = "artisan"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleArtisan, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Language is a recipient's preferred storefront language.
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
)

type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	Name          string    `gorm:"size:120" json:"name"`
	Phone         string    `gorm:"size:20" json:"phone,omitempty"`
	Role          Role      `gorm:"size:20;not null;index" json:"role"`
	EmailVerified bool      `gorm:"not null" json:"email_verified"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	Language      Language  `gorm:"size:5;not null" json:"language"`
	PushToken     string    `gorm:"size:255" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	if u.Language == "" {
		u.Language = LangEnglish
	}
	return nil
}

// RefreshToken tracks an issued refresh token by its jti so it can be rotated
// or revoked before it expires.
type RefreshToken struct {
	JTI        string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID     string     `gorm:"size:36;index;not null" json:"user_id"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *string    `gorm:"size:64" json:"replaced_by,omitempty"`
	UserAgent  string     `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	Action    string    `gorm:"size:64;not null" json:"action"`
	Metadata  JSONB     `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &AuditLog{},
		&Category{}, &Artisan{}, &Product{}, &Banner{},
		&CartItem{}, &WishlistItem{},
		&Order{}, &OrderItem{}, &NotificationEvent{},
	}
}
