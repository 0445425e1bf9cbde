// Package googleauth builds API client options from a service account key
// file. All three Google services (Slides, Drive, Sheets) authenticate the
// same way, differing only in scopes.
package googleauth

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// TokenSource reads the service account key file and returns a client
// option carrying a token source limited to the given scopes.
func TokenSource(ctx context.Context, credentialsFile string, scopes ...string) (option.ClientOption, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	return option.WithTokenSource(conf.TokenSource(ctx)), nil
}
