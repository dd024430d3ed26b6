package auth

import (
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
)

const MAX_TOKEN_LENGTH = 8192

// Claims are the parts of the bank-issued JWT payload the portal relies on.
// The signature is checked by the bank backend on every forwarded call.
type Claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Authorization header is required.",
		}
	}
	token := header
	if strings.EqualFold(header, "Bearer") {
		token = ""
	} else if scheme, rest, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Bearer token is empty.",
		}
	}
	if len(token) > MAX_TOKEN_LENGTH {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Bearer token is too long.",
		}
	}
	return token, nil
}
