package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"haat/internal/apperr"
	"haat/internal/models"
)

type Users struct {
	db *gorm.DB
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *Users) Create(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email %s is already registered", user.Email)
		}
		return err
	}
	return nil
}

func (u *Users) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "LOWER(email) = ?", NormalizeEmail(email)).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

func (u *Users) List(ctx context.Context, role models.Role, limit, offset int) ([]models.User, error) {
	limit, offset = Page(limit, offset)
	q := u.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	return users, q.Find(&users).Error
}

func (u *Users) SetRole(ctx context.Context, id string, role models.Role) error {
	if !role.Valid() {
		return apperr.Validation("unknown role %q", role)
	}
	return u.update(ctx, id, map[string]any{"role": role})
}

func (u *Users) SetActive(ctx context.Context, id string, active bool) error {
	return u.update(ctx, id, map[string]any{"is_active": active})
}

func (u *Users) SetPasswordHash(ctx context.Context, id, hash string) error {
	return u.update(ctx, id, map[string]any{"password_hash": hash})
}

type ProfileUpdate struct {
	Name      *string
	Phone     *string
	Language  *models.Language
	PushToken *string
}

func (u *Users) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*models.User, error) {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Phone != nil {
		changes["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Language != nil {
		changes["language"] = *p.Language
	}
	if p.PushToken != nil {
		changes["push_token"] = *p.PushToken
	}
	if len(changes) > 0 {
		if err := u.update(ctx, id, changes); err != nil {
			return nil, err
		}
	}
	return u.Get(ctx, id)
}

func (u *Users) update(ctx context.Context, id string, changes map[string]any) error {
	res := u.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
