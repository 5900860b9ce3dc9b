package watsonwork

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// NewTokenSource returns a cached, self-refreshing app token for the Watson Work
// API. hc is used for token requests; nil means http.DefaultClient.
func NewTokenSource(ctx context.Context, baseURL, appID, secret string, hc *http.Client) oauth2.TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     appID,
		ClientSecret: secret,
		TokenURL:     strings.TrimRight(baseURL, "/") + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	return cfg.TokenSource(ctx)
}
