package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const streamTokenTTL = 5 * time.Minute

// Service verifies access tokens issued by the hosted auth platform and issues
// the short-lived tokens used by the attendance stream, which cannot send
// an Authorization header.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	PrincipalFromContext(ctx context.Context) (user.Principal, error)
	GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (user.Principal, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// PrincipalFromContext reads the principal from a token placed in the
// context by jwtauth.Verifier.
func (j *JWTService) PrincipalFromContext(ctx context.Context) (user.Principal, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Principal{}, err
	}
	return user.PrincipalFromClaims(claims)
}

// GenerateStreamToken generates a short-lived token for stream connections
func (j *JWTService) GenerateStreamToken(principal user.Principal) (token string, expiresIn int, err error) {
	expiresIn = int(streamTokenTTL.Seconds())
	expiresAt := time.Now().Add(streamTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":         principal.UserID,
		"email":       principal.Email,
		"employee_id": principal.EmployeeID,
		"role":        string(principal.Role),
		"type":        "stream",
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateStreamToken validates a stream token and returns its principal
func (j *JWTService) ValidateStreamToken(tokenString string) (user.Principal, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Principal{}, err
	}

	// Check token type
	tokenType, ok := token.Get("type")
	if !ok || tokenType != "stream" {
		return user.Principal{}, jwt.ErrInvalidJWT()
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return user.Principal{}, err
	}

	return user.PrincipalFromClaims(claims)
}
