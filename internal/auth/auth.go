// Package auth resolves bearer credentials into stable external identities.
// Production deployments point it at an external identity provider over HTTP;
// without one it validates locally issued JWTs so the stack runs standalone.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when the identity provider rejects the
// credential. The connection is refused, never the process.
var ErrInvalidToken = errors.New("auth: user token is invalid")

// ExternalUserInfo is the identity slice returned by the provider.
type ExternalUserInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// Provider authenticates a bearer credential.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*ExternalUserInfo, error)
}

// HTTPProvider asks an external identity service to resolve the token.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Authenticate(ctx context.Context, token string) (*ExternalUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: identity provider replied with status %d", resp.StatusCode)
	}

	var info ExternalUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// JWTProvider validates HS256 tokens issued by IssueToken. Dev mode only.
type JWTProvider struct {
	Secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{Secret: []byte(secret)}
}

func (p *JWTProvider) Authenticate(ctx context.Context, tokenString string) (*ExternalUserInfo, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	externalID, _ := claims["external_id"].(string)
	name, _ := claims["name"].(string)
	if externalID == "" || name == "" {
		return nil, ErrInvalidToken
	}
	info := &ExternalUserInfo{ID: externalID, Name: name}
	if email, ok := claims["email"].(string); ok && email != "" {
		info.Email = &email
	}
	return info, nil
}

// IssueToken signs a dev token carrying the external identity claims.
func (p *JWTProvider) IssueToken(externalID, name string) (string, error) {
	claims := jwt.MapClaims{
		"external_id": externalID,
		"name":        name,
		"exp":         time.Now().Add(time.Hour * 72).Unix(),
		"iss":         "chat-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.Secret)
}
