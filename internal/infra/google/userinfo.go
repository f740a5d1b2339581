// Package google resolves OAuth access tokens against the userinfo endpoint.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"satprep-service/internal/app"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Verifier implements app.GoogleVerifier via the OAuth2 userinfo endpoint.
type Verifier struct {
	url   string
	httpc *http.Client
}

func NewVerifier() *Verifier {
	return NewVerifierWithURL(defaultUserInfoURL)
}

// NewVerifierWithURL is test-only for pointing at a fake endpoint.
func NewVerifierWithURL(url string) *Verifier {
	return &Verifier{
		url:   url,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) UserInfo(ctx context.Context, accessToken string) (app.GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return app.GoogleProfile{}, fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.httpc.Do(req)
	if err != nil {
		return app.GoogleProfile{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return app.GoogleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	profile := app.GoogleProfile{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return app.GoogleProfile{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if profile.Sub == "" {
		return app.GoogleProfile{}, fmt.Errorf("userinfo response missing subject")
	}
	return profile, nil
}
