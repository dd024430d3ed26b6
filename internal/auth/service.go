package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/banking_portal/customErrors"
)

// ParseClaims decodes the payload segment of a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token is not a JWT.",
		}
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token payload is not valid base64.",
		}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token payload is not valid JSON.",
		}
	}
	return claims, nil
}

// AccountFromToken returns the account number carried in the token subject.
func AccountFromToken(token string) (string, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return "", err
	}
	if claims.Expired(time.Now()) {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token has expired.",
		}
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", appErrors.ErrorResponse{
			Code:    appErrors.ErrAuth,
			Message: "Token has no subject.",
		}
	}
	return subject, nil
}
