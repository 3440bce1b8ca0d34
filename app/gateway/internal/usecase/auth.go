package usecase

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/iWorld-y/visit_report/app/gateway/internal/conf"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// AuthUseCase issues and checks the bearer tokens of submitters
type AuthUseCase struct {
	key []byte
	ttl time.Duration
	log *log.Helper
}

// NewAuthUseCase creates the auth use case. Without a key auth is off.
func NewAuthUseCase(auth *conf.Auth, logger log.Logger) *AuthUseCase {
	uc := &AuthUseCase{ttl: defaultTokenTTL, log: log.NewHelper(logger)}
	if auth == nil {
		return uc
	}
	uc.key = []byte(auth.JwtKey)
	if d, err := time.ParseDuration(auth.TokenTTL); err == nil && d > 0 {
		uc.ttl = d
	}
	return uc
}

// Enabled reports whether submissions need a token
func (uc *AuthUseCase) Enabled() bool {
	return len(uc.key) > 0
}

// KeyFunc HS256 verification key
func (uc *AuthUseCase) KeyFunc(*jwt.Token) (interface{}, error) {
	return uc.key, nil
}

// IssueToken signs a token for a submitter
func (uc *AuthUseCase) IssueToken(subject string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(uc.ttl)),
	})
	signed, err := token.SignedString(uc.key)
	if err != nil {
		return "", err
	}
	uc.log.Infof("token issued for %s, expires %s", subject, now.Add(uc.ttl).Format(time.RFC3339))
	return signed, nil
}
