package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"haat/internal/apperr"
	"haat/internal/models"
)

const (
	typAccess  = "access"
	typRefresh = "refresh"
)

type accessClaims struct {
	Role models.Role `json:"role"`
	Typ  string      `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	Typ string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues stateless access tokens and database-tracked refresh
// tokens, both HS256 JWTs signed with the same server secret.
type TokenService struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(db *gorm.DB, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		db:         db,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// Pair is what login and refresh hand back to the client.
type Pair struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Role         models.Role
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) parse(raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now), jwt.WithIssuedAt())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(apperr.KindTokenExpired, err, "token expired")
	default:
		return apperr.Wrap(apperr.KindInvalidToken, err, "invalid token")
	}
}

func (s *TokenService) IssueAccessToken(userID string, role models.Role) (string, error) {
	now := s.now()
	return s.sign(accessClaims{
		Role: role,
		Typ:  typAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
}

// VerifyAccessToken checks signature and expiry before trusting any claim.
func (s *TokenService) VerifyAccessToken(raw string) (Identity, error) {
	var c accessClaims
	if err := s.parse(raw, &c); err != nil {
		return Identity{}, err
	}
	if c.Typ != typAccess || c.Subject == "" || !c.Role.Valid() {
		return Identity{}, apperr.New(apperr.KindInvalidToken, "invalid token")
	}
	return Identity{userID: c.Subject, role: c.Role}, nil
}

func (s *TokenService) newRefresh(userID string) (models.RefreshToken, string, error) {
	now := s.now()
	row := models.RefreshToken{
		JTI:       uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	tok, err := s.sign(refreshClaims{
		Typ: typRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        row.JTI,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
		},
	})
	return row, tok, err
}

func (s *TokenService) IssueRefreshToken(ctx context.Context, userID, userAgent string) (string, error) {
	row, tok, err := s.newRefresh(userID)
	if err != nil {
		return "", err
	}
	row.UserAgent = truncate(userAgent, 255)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return tok, nil
}

// IssuePair mints a fresh access/refresh pair for a successful login.
func (s *TokenService) IssuePair(ctx context.Context, user *models.User, userAgent string) (Pair, error) {
	access, err := s.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(ctx, user.ID, userAgent)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, UserID: user.ID, Role: user.Role}, nil
}

func (s *TokenService) verifyRefresh(raw string) (refreshClaims, error) {
	var c refreshClaims
	if err := s.parse(raw, &c); err != nil {
		return c, err
	}
	if c.Typ != typRefresh || c.ID == "" || c.Subject == "" {
		return c, apperr.New(apperr.KindInvalidToken, "invalid token")
	}
	return c, nil
}

// Rotate exchanges a refresh token for a new pair. The old token is revoked
// by a conditional update on its row, so of several concurrent rotations of
// the same token exactly one succeeds.
func (s *TokenService) Rotate(ctx context.Context, raw, userAgent string) (Pair, error) {
	c, err := s.verifyRefresh(raw)
	if err != nil {
		return Pair{}, apperr.Wrap(apperr.KindRevokedOrInvalid, err, "refresh token revoked or invalid")
	}
	var pair Pair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", c.Subject).Error; err != nil || !user.IsActive {
			return apperr.New(apperr.KindRevokedOrInvalid, "refresh token revoked or invalid")
		}
		next, tok, err := s.newRefresh(user.ID)
		if err != nil {
			return err
		}
		next.UserAgent = truncate(userAgent, 255)
		now := s.now()
		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", c.ID, c.Subject, now).
			Updates(map[string]any{"revoked_at": now, "replaced_by": next.JTI})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.New(apperr.KindRevokedOrInvalid, "refresh token revoked or invalid")
		}
		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		access, err := s.IssueAccessToken(user.ID, user.Role)
		if err != nil {
			return err
		}
		pair = Pair{AccessToken: access, RefreshToken: tok, UserID: user.ID, Role: user.Role}
		return nil
	})
	if err != nil {
		return Pair{}, err
	}
	return pair, nil
}

// Revoke marks a refresh token unusable. Revoking an already revoked, expired
// or unparseable token is not an error.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	c, err := s.verifyRefresh(raw)
	if err != nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ? AND revoked_at IS NULL", c.ID).
		Update("revoked_at", s.now()).Error
}

// RevokeAll ends every session of a user.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now()).Error
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
