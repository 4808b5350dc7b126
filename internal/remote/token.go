package remote

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"botsift/internal/config"
)

const (
	tokenLifetime = time.Hour
	tokenAudience = "https://idproxy.bot-platform.com/authorize"
)

// TokenIssuer mints the short-lived signed assertions the platform expects
// in the auth header. A fresh token is issued per outbound call, never
// cached, so the expiry is always comfortably in the future.
type TokenIssuer struct {
	clientID string
	botID    string
	secret   []byte

	now func() time.Time
}

// NewTokenIssuer validates the credentials and returns an issuer.
func NewTokenIssuer(clientID, botID, secret string) (*TokenIssuer, error) {
	if clientID == "" || botID == "" || secret == "" {
		return nil, &config.ConfigurationError{Reason: "token issuer needs clientId, botId and clientSecret"}
	}
	return &TokenIssuer{
		clientID: clientID,
		botID:    botID,
		secret:   []byte(secret),
		now:      time.Now,
	}, nil
}

// Issue signs a one-hour assertion binding the client identity to the bot.
func (t *TokenIssuer) Issue() (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"iss": t.clientID,
		"sub": t.botID,
		"aud": tokenAudience,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}
