package services

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

const tokenIssuer = "cotizador"

// AuthService logs administrators in and verifies their bearer tokens.
type AuthService struct {
	store  storage.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(store storage.Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks the credentials and returns a signed HS256 token whose
// subject is the administrator id.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.store.GetAdministratorByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", errors.Wrap(err, "get administrator")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrUnauthorized
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   strconv.FormatUint(uint64(admin.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// VerifyToken returns the administrator id carried by a valid token.
func (s *AuthService) VerifyToken(tokenString string) (uint, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, errors.Wrap(ErrUnauthorized, err.Error())
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrap(ErrUnauthorized, "invalid subject")
	}
	return uint(id), nil
}
