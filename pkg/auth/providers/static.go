package providers

import (
	"context"
	"crypto/subtle"
)

// StaticTokenProvider accepts a single preconfigured bearer token, used to
// guard the admin endpoints of the status API.
type StaticTokenProvider struct {
	token string
	uid   string
}

func NewStaticTokenProvider(token, uid string) *StaticTokenProvider {
	if uid == "" {
		uid = "admin"
	}
	return &StaticTokenProvider{token: token, uid: uid}
}

func (p *StaticTokenProvider) VerifyToken(_ context.Context, token string) (*TokenClaims, error) {
	if p.token == "" || subtle.ConstantTimeCompare([]byte(p.token), []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}
	return &TokenClaims{UID: p.uid}, nil
}
