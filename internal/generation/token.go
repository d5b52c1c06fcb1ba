package generation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"studyloop-generation/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid run access token")
	ErrTokenScope   = errors.New("run access token does not grant this action")
)

// Actions accordées par un jeton d'accès public
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// RunClaims sont les claims du jeton d'accès public d'une exécution
type RunClaims struct {
	RunID    string `json:"run_id"`
	CourseID string `json:"course_id"`
	WeekID   string `json:"week_id"`
	Scope    string `json:"scope"`
	jwt.RegisteredClaims
}

// Allows retourne true si le jeton couvre l'action sur cette exécution
func (c *RunClaims) Allows(action, runID string) bool {
	return c.RunID == runID && slices.Contains(strings.Fields(c.Scope), scopeFor(action, runID))
}

func scopeFor(action, runID string) string {
	return action + ":runs:" + runID
}

// TokenIssuer signe et vérifie les jetons HS256 des exécutions
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.TokenConfig) *TokenIssuer {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint crée un jeton limité à une exécution: lecture de son statut et annulation
func (ti *TokenIssuer) Mint(runID, courseID, weekID string) (string, error) {
	now := ti.now()
	claims := RunClaims{
		RunID:    runID,
		CourseID: courseID,
		WeekID:   weekID,
		Scope:    scopeFor(ActionRead, runID) + " " + scopeFor(ActionWrite, runID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   runID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign run token: %w", err)
	}
	return signed, nil
}

func (ti *TokenIssuer) Parse(token string) (*RunClaims, error) {
	claims := &RunClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Authorize vérifie le jeton et sa portée pour l'action demandée
func (ti *TokenIssuer) Authorize(token, action, runID string) (*RunClaims, error) {
	claims, err := ti.Parse(token)
	if err != nil {
		return nil, err
	}
	if !claims.Allows(action, runID) {
		return nil, ErrTokenScope
	}
	return claims, nil
}
