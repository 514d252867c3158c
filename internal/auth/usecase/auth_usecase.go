package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authdomain "jobtrack-backend/internal/auth/domain"
	authdto "jobtrack-backend/internal/auth/dto"
)

// AuthUsecase issues and validates API tokens
type AuthUsecase interface {
	IssueToken(req *authdto.IssueTokenRequest) (*authdto.TokenResponse, error)
	ValidateToken(tokenString string) (*authdomain.Principal, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(secret string, defaultTTL time.Duration) AuthUsecase {
	return &authUsecase{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (u *authUsecase) IssueToken(req *authdto.IssueTokenRequest) (*authdto.TokenResponse, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, authdomain.ErrEmptySubject
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = u.defaultTTL
	}

	now := u.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":      subject,
		"token_id": uuid.New().String(),
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &authdto.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		Subject:     subject,
		ExpiresAt:   time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

func (u *authUsecase) ValidateToken(tokenString string) (*authdomain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(u.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, authdomain.ErrInvalidToken
	}
	tokenID, _ := claims["token_id"].(string)

	principal := &authdomain.Principal{Subject: subject, TokenID: tokenID}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		principal.IssuedAt = iat.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		principal.ExpiresAt = exp.UTC()
	}
	return principal, nil
}
