// OAuth credential loading, refresh, and the interactive consent flow.
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// consentTimeout bounds how long the loopback listener waits for the browser
// callback before giving up.
const consentTimeout = 5 * time.Minute

// ConfigurationError reports a missing or unreadable OAuth client secrets
// descriptor. No session can start without one.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("client secrets %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(*oauth2.Token) error
}

// fileTokenStore keeps the token as JSON on disk, created on first consent.
type fileTokenStore struct {
	path string
}

func (s *fileTokenStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(b, token); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", s.path, err)
	}
	return token, nil
}

func (s *fileTokenStore) Save(token *oauth2.Token) error {
	b, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// CredentialProvider returns a valid, non-expired credential or fails. It
// loads the cached token, silently refreshes it when possible, and falls back
// to the interactive consent flow.
type CredentialProvider struct {
	oauth   *oauth2.Config
	store   TokenStore
	verbose bool

	// consent is swappable so tests can avoid the browser flow.
	consent func(ctx context.Context) (*oauth2.Token, error)
}

// NewCredentialProvider reads the client secrets descriptor and prepares a
// provider backed by the configured token file.
func NewCredentialProvider(config *Config) (*CredentialProvider, error) {
	b, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, &ConfigurationError{Path: config.CredentialsFile, Err: err}
	}

	oauthConfig, err := google.ConfigFromJSON(b, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, &ConfigurationError{Path: config.CredentialsFile, Err: err}
	}

	provider := &CredentialProvider{
		oauth:   oauthConfig,
		store:   &fileTokenStore{path: config.TokenFile},
		verbose: config.Verbose,
	}
	provider.consent = provider.consentFlow
	return provider, nil
}

// Token returns a usable token, refreshing or re-consenting as needed. The
// resulting token is persisted for the next run.
func (p *CredentialProvider) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := p.store.Load()
	if err == nil && token.Valid() {
		if p.verbose {
			log.Printf("[verbose] using cached token, expires %s", token.Expiry.Format(time.RFC3339))
		}
		return token, nil
	}

	if err == nil && token.RefreshToken != "" {
		refreshed, rerr := p.oauth.TokenSource(ctx, token).Token()
		if rerr == nil {
			if serr := p.store.Save(refreshed); serr != nil {
				return nil, fmt.Errorf("persist refreshed token: %w", serr)
			}
			if p.verbose {
				log.Printf("[verbose] token refreshed, expires %s", refreshed.Expiry.Format(time.RFC3339))
			}
			return refreshed, nil
		}
		if p.verbose {
			log.Printf("[verbose] token refresh failed, falling back to consent: %v", rerr)
		}
	}

	token, err = p.consent(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := p.store.Save(token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	return token, nil
}

// Client wraps the token in an auto-refreshing HTTP client for the Sheets API.
func (p *CredentialProvider) Client(ctx context.Context) (*http.Client, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, p.oauth.TokenSource(ctx, token)), nil
}

// consentFlow runs the browser-based authorization: a loopback listener
// receives the redirect, and the authorization code is exchanged with PKCE.
func (p *CredentialProvider) consentFlow(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	oauthConfig := *p.oauth
	oauthConfig.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())

	state, err := randomString(24)
	if err != nil {
		return nil, err
	}
	codeVerifier, err := randomString(64)
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- errors.New("state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- errors.New("missing auth code")
			return
		}
		_, _ = io.WriteString(w, "Authorization complete. You can close this tab.")
		codeCh <- code
	})

	srv := &http.Server{Handler: mux}
	go func() {
		_ = srv.Serve(ln)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", pkceChallenge(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	fmt.Println("Open this URL to authorize read access to the roster spreadsheet:")
	fmt.Println(authURL)
	if oerr := openBrowser(authURL); oerr != nil {
		fmt.Println("warning: could not open browser automatically:", oerr)
	}

	select {
	case code := <-codeCh:
		return oauthConfig.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(consentTimeout):
		return nil, fmt.Errorf("timed out waiting for browser callback after %s", consentTimeout)
	}
}

// openBrowser launches the platform browser for the authorization URL.
func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32.exe", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
