package alerts

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidActorToken is returned when a bearer token fails verification
// or carries no subject claim.
var ErrInvalidActorToken = errors.New("alerts: invalid actor token")

// ActorResolver decodes an optional bearer token into the actor string
// recorded on alert transition history. A nil secret disables
// verification entirely; callers fall back to treating the raw actor
// string as a plain identifier.
type ActorResolver struct {
	secret []byte
}

// NewActorResolver builds a resolver that verifies HS256 tokens signed
// with secret. An empty secret yields a resolver whose Resolve always
// returns ErrInvalidActorToken, signalling callers to use the plain
// actor string instead.
func NewActorResolver(secret string) *ActorResolver {
	return &ActorResolver{secret: []byte(secret)}
}

type actorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Resolve verifies bearerToken and returns the actor identity to record
// in history: the token's name claim if present, otherwise its subject.
func (r *ActorResolver) Resolve(bearerToken string) (string, error) {
	if r == nil || len(r.secret) == 0 {
		return "", ErrInvalidActorToken
	}
	bearerToken = strings.TrimPrefix(strings.TrimSpace(bearerToken), "Bearer ")
	if bearerToken == "" {
		return "", ErrInvalidActorToken
	}

	parsed, err := jwt.ParseWithClaims(bearerToken, &actorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidActorToken
		}
		return r.secret, nil
	})
	if err != nil {
		return "", ErrInvalidActorToken
	}
	claims, ok := parsed.Claims.(*actorClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidActorToken
	}
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name, nil
	}
	return claims.Subject, nil
}

// TransitionWithActorToken behaves like Transition, but resolves actor
// from bearerToken when the resolver is configured and the token is
// valid; it falls back to the plain actor string otherwise.
func (s *Store) TransitionWithActorToken(id int, to Status, resolver *ActorResolver, bearerToken, actor, note string) error {
	if resolver != nil {
		if resolved, err := resolver.Resolve(bearerToken); err == nil {
			actor = resolved
		}
	}
	return s.Transition(id, to, actor, note)
}
