package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const (
	credentialsFile = "credentials.json"
	// OutOfBandRedirect is the redirect URL for the copy/paste desktop flow.
	OutOfBandRedirect = "urn:ietf:wg:oauth:2.0:oob"
)

// Scopes requested by the application: calendars are only read, invoices
// are written to Drive and Docs, and results can be pushed to Sheets.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	drive.DriveScope,
	docs.DocumentsScope,
	sheets.SpreadsheetsScope,
}

// Authenticator runs the OAuth flow and keeps one token file per account.
type Authenticator struct {
	config   *oauth2.Config
	tokenDir string
}

// NewAuthenticator builds the OAuth configuration.
// It prioritizes the client id/secret over a local credentials.json file.
func NewAuthenticator(clientID, clientSecret, redirectURL, tokenDir string) (*Authenticator, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, err
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}
	if tokenDir == "" {
		tokenDir = "."
	}
	return &Authenticator{config: config, tokenDir: tokenDir}, nil
}

func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  OutOfBandRedirect,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	if config.RedirectURL == "" {
		config.RedirectURL = OutOfBandRedirect
	}
	return config, nil
}

// AuthURL returns the consent page URL and the state it carries.
func (a *Authenticator) AuthURL() (authURL, state string) {
	state = uuid.NewString()
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), state
}

// Exchange trades an authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return token, nil
}

// SaveToken stores the token of account.
func (a *Authenticator) SaveToken(account string, token *oauth2.Token) error {
	f, err := os.OpenFile(a.tokenPath(account), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Client returns an HTTP client authorized for account. An expired token
// is refreshed and saved back.
func (a *Authenticator) Client(ctx context.Context, account string) (*http.Client, error) {
	token, err := tokenFromFile(a.tokenPath(account))
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", account, err)
	}

	ts := a.config.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("token for account %s is no longer valid, run 'auth' again: %w", account, err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := a.SaveToken(account, fresh); err != nil {
			return nil, err
		}
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Accounts lists the accounts with a saved token.
func (a *Authenticator) Accounts() ([]string, error) {
	files, err := os.ReadDir(a.tokenDir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		name := file.Name()
		if strings.HasPrefix(name, "token-") && strings.HasSuffix(name, ".json") {
			accounts = append(accounts, strings.TrimSuffix(strings.TrimPrefix(name, "token-"), ".json"))
		}
	}
	return accounts, nil
}

func (a *Authenticator) tokenPath(account string) string {
	return filepath.Join(a.tokenDir, "token-"+account+".json")
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
