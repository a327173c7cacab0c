package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions turns a credentials value into client options. The value
// may be inline service-account JSON or a path to a key file; empty means
// application default credentials.
func ClientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func ClientOptionsFromEnv() []option.ClientOption {
	creds := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	if strings.TrimSpace(creds) == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return ClientOptions(creds)
}
