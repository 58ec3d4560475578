package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"corkboard/domain"
)

const (
	defaultJWKSCacheTTL = 15 * time.Minute
	envTestMode         = "AUTH_TEST_MODE"
	envTestSecret       = "TEST_JWT_SECRET"
	envAudience         = "AUTH_AUDIENCE"
	envDomain           = "AUTH_DOMAIN"
	envJWKSCacheTTL     = "JWKS_CACHE_TTL"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

// Verifier validates sign-in tokens and resolves them to an identity.
// Production tokens are RS256, checked against the provider's JWKS; test
// mode accepts HS256 tokens signed with a shared secret.
type Verifier struct {
	jwks       *keyfunc.JWKS
	audience   string
	issuer     string
	testMode   bool
	testSecret []byte

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// New builds a JWKS-backed verifier.
func New(jwks *keyfunc.JWKS, audience, issuer string) *Verifier {
	return &Verifier{
		jwks:        jwks,
		audience:    audience,
		issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		keyCacheTTL: jwksCacheTTL(),
	}
}

// NewTest builds an HS256 verifier for local development and tests.
func NewTest(secret []byte) *Verifier {
	return &Verifier{
		testMode:   true,
		testSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// FromEnv builds a verifier from environment configuration. AUTH_TEST_MODE=1
// with TEST_JWT_SECRET selects the HS256 test verifier; otherwise
// AUTH_AUDIENCE and AUTH_DOMAIN are required and the provider's JWKS is
// fetched.
func FromEnv() (*Verifier, error) {
	if os.Getenv(envTestMode) == "1" {
		secret := os.Getenv(envTestSecret)
		if secret == "" {
			return nil, errors.New("TEST_JWT_SECRET must be set when AUTH_TEST_MODE=1")
		}
		return NewTest([]byte(secret)), nil
	}

	audience := os.Getenv(envAudience)
	authDomain := os.Getenv(envDomain)
	if audience == "" || authDomain == "" {
		return nil, errors.New("missing auth config")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", authDomain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return New(jwks, audience, "https://"+authDomain+"/"), nil
}

func jwksCacheTTL() time.Duration {
	ttl := defaultJWKSCacheTTL
	if raw := os.Getenv(envJWKSCacheTTL); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err == nil && parsed > 0 {
			ttl = parsed
		}
	}
	return ttl
}

// IdentityFromAuthHeader verifies the Authorization header and returns the
// signed-in identity.
func (v *Verifier) IdentityFromAuthHeader(h string) (domain.Identity, error) {
	token, err := bearerToken(h)
	if err != nil {
		return domain.Identity{}, err
	}
	return v.Verify(token)
}

// Verify checks a raw token and maps its claims onto an identity. Profile
// claims beyond sub are optional; a token without them still signs in.
func (v *Verifier) Verify(tokenStr string) (domain.Identity, error) {
	var parsed *jwt.Token
	var err error
	if v.testMode {
		parsed, err = v.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return v.testSecret, nil
		})
	} else {
		parsed, err = v.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return v.keyForToken(t)
		})
	}
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, errors.New("invalid claims")
	}

	// One minute of leeway for clock skew between client and provider.
	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return domain.Identity{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return domain.Identity{}, errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return domain.Identity{}, errors.New("token used before issued")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, false) {
		return domain.Identity{}, errors.New("invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, false) {
		return domain.Identity{}, errors.New("invalid issuer")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.Identity{}, errors.New("missing sub")
	}

	who := domain.Identity{UID: sub}
	if name, ok := claims["name"].(string); ok {
		who.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		who.Email = email
	}
	if picture, ok := claims["picture"].(string); ok {
		who.PhotoURL = picture
	}
	return who, nil
}

func (v *Verifier) keyForToken(token *jwt.Token) (any, error) {
	if v.jwks == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && v.keyCacheTTL > 0 {
		if cached, ok := v.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			v.keyCache.Delete(kid)
		}
	}

	key, err := v.jwks.Keyfunc(token)
	if err != nil {
		return nil, err
	}

	if kid != "" && v.keyCacheTTL > 0 {
		v.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(v.keyCacheTTL)})
	}
	return key, nil
}

func bearerToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || token == "" {
		return "", errBadAuthorization
	}
	if strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}
