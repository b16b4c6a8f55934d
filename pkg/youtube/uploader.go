// Package youtube uploads finished assets to the hosting platform via the
// OAuth2 refresh grant and the two-phase resumable upload protocol.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

const (
	// DefaultTokenURL is the OAuth2 token endpoint.
	DefaultTokenURL = "https://oauth2.googleapis.com/token"

	// DefaultUploadURL initiates a resumable upload session.
	DefaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"

	// categoryEntertainment is the fixed upload category.
	categoryEntertainment = "24"
)

// Upload phases reported in errors.
const (
	PhaseConfig   = "config"
	PhaseToken    = "token"
	PhaseInitiate = "initiate"
	PhaseUpload   = "upload"
)

// Error is a publish failure carrying the phase it happened in, the HTTP
// status if one was received, and a truncated response body.
type Error struct {
	Phase      string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("youtube: %s: %v", e.Phase, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("youtube: %s: status %d: %s", e.Phase, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("youtube: %s: %s", e.Phase, e.Body)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Config configures an Uploader. Credentials are checked per upload, not at
// construction, so a partially configured process can still run the rest of
// the pipeline.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
	UploadURL    string
	HTTPClient   *http.Client
}

// Uploader performs resumable uploads.
type Uploader struct {
	cfg        Config
	httpClient *http.Client
}

// NewUploader creates an Uploader from cfg.
func NewUploader(cfg Config) *Uploader {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Uploader{cfg: cfg, httpClient: httpClient}
}

// Upload pushes the asset with its metadata and returns the platform's
// assigned content id. Metadata is sanitized to platform limits first.
func (u *Uploader) Upload(ctx context.Context, data []byte, m core.VideoMeta, privacy string) (string, error) {
	if u.cfg.ClientID == "" || u.cfg.ClientSecret == "" || u.cfg.RefreshToken == "" {
		return "", &Error{Phase: PhaseConfig, Body: "YouTube credentials not configured"}
	}

	accessToken, err := u.refreshAccessToken(ctx)
	if err != nil {
		return "", err
	}

	title, description, tags := SanitizeMeta(m)
	if privacy == "" {
		privacy = "unlisted"
	}

	snippetBody := map[string]any{
		"title":       title,
		"description": description,
		"categoryId":  categoryEntertainment,
	}
	if len(tags) > 0 {
		snippetBody["tags"] = tags
	}
	metadata := map[string]any{
		"snippet": snippetBody,
		"status":  map[string]string{"privacyStatus": privacy},
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", &Error{Phase: PhaseInitiate, Err: err}
	}

	sessionURL, err := u.initiateSession(ctx, accessToken, metadataJSON, len(data))
	if err != nil {
		return "", err
	}

	return u.putMedia(ctx, sessionURL, accessToken, data)
}

func (u *Uploader) refreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {u.cfg.ClientID},
		"client_secret": {u.cfg.ClientSecret},
		"refresh_token": {u.cfg.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Phase: PhaseToken, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &Error{Phase: PhaseToken, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Phase: PhaseToken, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", &Error{Phase: PhaseToken, Err: err}
	}
	if token.AccessToken == "" {
		return "", &Error{Phase: PhaseToken, Body: "no access token in response"}
	}
	return token.AccessToken, nil
}

func (u *Uploader) initiateSession(ctx context.Context, accessToken string, metadataJSON []byte, contentLength int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL,
		bytes.NewReader(metadataJSON))
	if err != nil {
		return "", &Error{Phase: PhaseInitiate, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", strconv.Itoa(contentLength))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &Error{Phase: PhaseInitiate, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Phase: PhaseInitiate, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	sessionURL := resp.Header.Get("Location")
	if sessionURL == "" {
		return "", &Error{Phase: PhaseInitiate, Body: "upload session URL not provided"}
	}
	return sessionURL, nil
}

func (u *Uploader) putMedia(ctx context.Context, sessionURL, accessToken string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(data))
	if err != nil {
		return "", &Error{Phase: PhaseUpload, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "video/mp4")
	req.ContentLength = int64(len(data))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &Error{Phase: PhaseUpload, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Phase: PhaseUpload, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", &Error{Phase: PhaseUpload, Err: err}
	}
	return uploaded.ID, nil
}

func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 200))
	return string(b)
}
