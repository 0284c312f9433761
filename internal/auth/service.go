package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/db"
)

const (
	defaultAccessTTL = 12 * time.Hour

	// RoleCustomer accounts collect coins but may not sign in to the till.
	RoleCustomer = "Customer"

	claimUserName = "username"
	claimRole     = "role"
)

type queryProvider interface {
	GetUserByUserName(ctx context.Context, userName string) (db.User, error)
}

// Service authenticates staff accounts and issues access tokens.
type Service struct {
	queries   queryProvider
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        queryProvider
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// Claims are the identity facts carried by an access token.
type Claims struct {
	UserCode string
	UserName string
	Role     string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	UserCode    string    `json:"LUserCode"`
	UserName    string    `json:"UserName"`
	Name        string    `json:"Name"`
	UserRole    string    `json:"UserRole"`
	IsAdmin     bool      `json:"IsAdmin"`
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "omnipay-inventory"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "omnipay-pos"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func invalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "Invalid username or password", httpStatusUnauthorized, nil)
}

// Login verifies staff credentials and issues an access token. Customer
// accounts are rejected like unknown users.
func (s *Service) Login(ctx context.Context, userName, password string) (LoginResult, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return LoginResult{}, invalidCredentials()
	}

	u, err := s.queries.GetUserByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, invalidCredentials()
		}
		return LoginResult{}, fmt.Errorf("get user: %w", err)
	}
	if strings.EqualFold(u.UserRole, RoleCustomer) {
		return LoginResult{}, invalidCredentials()
	}

	ok, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials()
	}

	token, expiresAt, err := s.signAccessToken(Claims{UserCode: u.UserCode, UserName: u.UserName, Role: u.UserRole})
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{
		UserCode:    u.UserCode,
		UserName:    u.UserName,
		Name:        u.Name,
		UserRole:    u.UserRole,
		IsAdmin:     u.IsAdmin,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "missing token", httpStatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return Claims{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	claims := Claims{UserCode: parsed.Subject()}
	if v, ok := parsed.Get(claimUserName); ok {
		claims.UserName, _ = v.(string)
	}
	if v, ok := parsed.Get(claimRole); ok {
		claims.Role, _ = v.(string)
	}
	return claims, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(c Claims) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(c.UserCode).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(claimUserName, c.UserName).
		Claim(claimRole, c.Role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

const httpStatusUnauthorized = 401
