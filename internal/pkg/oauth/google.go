package oauth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SheetsReadonlyScope grants read access to spreadsheet values.
const SheetsReadonlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// RequestTimeout bounds every API call and token exchange made by the client.
const RequestTimeout = 15 * time.Second

// NewServiceAccountClient returns an HTTP client that signs requests with a
// Google service account key. Tokens are fetched and refreshed lazily.
func NewServiceAccountClient(ctx context.Context, credentialsJSON []byte, scopes ...string) (*http.Client, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	// Token exchanges use the client stored in ctx
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: RequestTimeout})

	client := config.Client(ctx)
	client.Timeout = RequestTimeout
	return client, nil
}

// NewServiceAccountClientFromFile reads the key file and calls NewServiceAccountClient.
func NewServiceAccountClientFromFile(ctx context.Context, path string, scopes ...string) (*http.Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return NewServiceAccountClient(ctx, data, scopes...)
}
