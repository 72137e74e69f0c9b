package agentauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the AgentAuth bearer token's payload: the standard registered
// claims (sub, iss, iat, exp, jti) plus the capability vector, model family,
// and challenge bookkeeping fields from the token claims shape -- sub is the
// originating challenge id, challenge_ids carries it (and any future chained
// challenges) as a list, and agentauth_version pins the claims shape.
type Claims struct {
	jwt.RegisteredClaims
	Capabilities     CapabilityScore `json:"capabilities"`
	ModelFamily      string          `json:"model_family,omitempty"`
	ChallengeIDs     []string        `json:"challenge_ids,omitempty"`
	AgentAuthVersion string          `json:"agentauth_version"`
}

const (
	tokenIssuer      = "agentauth"
	agentAuthVersion = "1"
)

// TokenManager signs and verifies AgentAuth bearer tokens with HS256.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a TokenManager bound to the engine's HMAC secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Sign issues a bearer token for a successful verification of challengeID,
// valid for ttl. sub and the sole entry of challenge_ids are both set to
// challengeID.
func (tm *TokenManager) Sign(challengeID string, score CapabilityScore, modelFamily string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   challengeID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Capabilities:     score,
		ModelFamily:      modelFamily,
		ChallengeIDs:     []string{challengeID},
		AgentAuthVersion: agentAuthVersion,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning its check result.
// An expired or malformed token is reported as !Valid rather than as an
// error -- token validity is a value the caller branches on, not a fault.
func (tm *TokenManager) Verify(tokenString string) (TokenCheckResult, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		return TokenCheckResult{Valid: false}, nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return TokenCheckResult{Valid: false}, nil
	}

	return claimsToResult(claims, true), nil
}

// Decode returns a token's claims without verifying its signature or
// expiration, for observability (inspecting a token a caller didn't issue
// or no longer has the secret for). Valid is always false since no
// signature check took place -- callers must use Verify to trust the result.
func (tm *TokenManager) Decode(tokenString string) (TokenCheckResult, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return TokenCheckResult{}, fmt.Errorf("decoding token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return TokenCheckResult{}, fmt.Errorf("decoding token: unexpected claims type")
	}
	return claimsToResult(claims, false), nil
}

func claimsToResult(claims *Claims, valid bool) TokenCheckResult {
	result := TokenCheckResult{
		Valid:            valid,
		Subject:          claims.Subject,
		Capabilities:     &claims.Capabilities,
		ModelFamily:      claims.ModelFamily,
		ChallengeIDs:     claims.ChallengeIDs,
		AgentAuthVersion: claims.AgentAuthVersion,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return result
}
