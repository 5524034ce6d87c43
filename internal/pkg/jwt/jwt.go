// Package jwt issues and checks the HS256 bearer tokens that guard the admin API.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const Issuer = "villastay"

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims identify a staff member. There are no guest accounts.
type Claims struct {
	StaffID int64  `json:"staff_id"`
	Role    string `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken issues a token for staffID. Used by operators and tests; this
// service has no login endpoint.
func (s *Service) GenerateToken(staffID int64, role string) (string, error) {
	issued := s.now()
	claims := Claims{
		StaffID: staffID,
		Role:    role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwtlib.NewNumericDate(issued.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(issued),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken accepts only HS256 tokens from this issuer that carry an expiry.
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims,
		func(*jwtlib.Token) (any, error) { return s.secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
