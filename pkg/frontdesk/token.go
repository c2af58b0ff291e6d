package frontdesk

import (
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

const (
	tokenExpiryMs   = 10 * 60 * 1000
	apiKeyMinLength = 16
	apiKeyPrefix    = "fd_"
)

// ValidatedAPIKey is a type alias for string
type ValidatedAPIKey string

func ValidateAPIKeyFormat(apiKey string) Result[ValidatedAPIKey] {
	if len(apiKey) >= apiKeyMinLength && strings.HasPrefix(apiKey, apiKeyPrefix) {
		return Ok(ValidatedAPIKey(apiKey))
	}
	return Err[ValidatedAPIKey](NewSessionError("Invalid API key format", ErrCodeConfigInvalid))
}

func GetAPIKey() Result[string] {
	apiKey := os.Getenv("FRONTDESK_API_KEY")
	if apiKey != "" {
		return Ok(apiKey)
	}
	return Err[string](NewSessionError("FRONTDESK_API_KEY not set", ErrCodeConfigInvalid))
}

// GenerateSessionToken signs a short-lived HS256 token carrying the
// session identity, attached to the websocket handshake when token auth
// is enabled.
func GenerateSessionToken(identity SessionIdentity) Result[*SessionToken] {
	apiKeyResult := GetAPIKey()
	if !apiKeyResult.Success {
		return Err[*SessionToken](apiKeyResult.Error)
	}

	validatedResult := ValidateAPIKeyFormat(apiKeyResult.Data)
	if !validatedResult.Success {
		return Err[*SessionToken](validatedResult.Error)
	}

	return generateTokenWithKey(validatedResult.Data, identity)
}

func generateTokenWithKey(apiKey ValidatedAPIKey, identity SessionIdentity) Result[*SessionToken] {
	expiresAt := time.Now().UnixMilli() + tokenExpiryMs

	claims := jwt.MapClaims{
		"userId":    identity.UserID,
		"sessionId": identity.SessionID,
		"exp":       expiresAt / 1000, // JWT expects seconds
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(apiKey))
	if err != nil {
		return Err[*SessionToken](WrapError(err, ErrCodeTokenGeneration))
	}

	return Ok(&SessionToken{Token: tokenString, ExpiresAt: expiresAt})
}

func IsTokenExpired(token *SessionToken) bool {
	return time.Now().UnixMilli() > token.ExpiresAt
}

func TokenTTL(token *SessionToken) time.Duration {
	remaining := token.ExpiresAt - time.Now().UnixMilli()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// DecodeSessionToken verifies a token against the API key and returns
// its claims.
func DecodeSessionToken(token string, apiKey string) Result[map[string]interface{}] {
	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(apiKey), nil
	})
	if err != nil {
		return Err[map[string]interface{}](WrapError(err, ErrCodeTokenDecode))
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		return Ok(map[string]interface{}(claims))
	}

	return Err[map[string]interface{}](NewSessionError("Invalid token", ErrCodeTokenDecode))
}

func init() {
	_ = godotenv.Load()
}
