package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

func testMeta() core.VideoMeta {
	return core.VideoMeta{
		Title:       "Test Short",
		Description: "desc",
		Tags:        "AI generated, pop",
	}
}

// newTestServers stands up fake token, session, and media endpoints and
// returns an Uploader pointed at them.
func newTestServers(t *testing.T, tokenStatus int) (*Uploader, *recorded) {
	t.Helper()
	rec := &recorded{}

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mediaMethod = r.Method
		rec.mediaAuth = r.Header.Get("Authorization")
		rec.mediaBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "yt_final"})
	}))
	t.Cleanup(media.Close)

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.initAuth = r.Header.Get("Authorization")
		rec.initContentLength = r.Header.Get("X-Upload-Content-Length")
		rec.initContentType = r.Header.Get("X-Upload-Content-Type")
		rec.initBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Location", media.URL+"/session")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upload.Close)

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		rec.grantType = r.FormValue("grant_type")
		rec.refreshToken = r.FormValue("refresh_token")
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at_123"})
	}))
	t.Cleanup(token.Close)

	u := NewUploader(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "rt_456",
		TokenURL:     token.URL,
		UploadURL:    upload.URL,
	})
	return u, rec
}

type recorded struct {
	grantType         string
	refreshToken      string
	initAuth          string
	initContentLength string
	initContentType   string
	initBody          []byte
	mediaMethod       string
	mediaAuth         string
	mediaBody         []byte
}

func TestUploadResumableFlow(t *testing.T) {
	u, rec := newTestServers(t, http.StatusOK)

	data := []byte("mp4-bytes")
	id, err := u.Upload(context.Background(), data, testMeta(), "public")
	require.NoError(t, err)
	assert.Equal(t, "yt_final", id)

	// Token refresh used the refresh grant.
	assert.Equal(t, "refresh_token", rec.grantType)
	assert.Equal(t, "rt_456", rec.refreshToken)

	// Session initiation announced the binary ahead of time.
	assert.Equal(t, "Bearer at_123", rec.initAuth)
	assert.Equal(t, "video/mp4", rec.initContentType)
	assert.Equal(t, "9", rec.initContentLength)

	var metadata struct {
		Snippet struct {
			Title      string   `json:"title"`
			CategoryID string   `json:"categoryId"`
			Tags       []string `json:"tags"`
		} `json:"snippet"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.initBody, &metadata))
	assert.Equal(t, "Test Short", metadata.Snippet.Title)
	assert.Equal(t, "24", metadata.Snippet.CategoryID)
	assert.Equal(t, []string{"AI generated", "pop"}, metadata.Snippet.Tags)
	assert.Equal(t, "public", metadata.Status.PrivacyStatus)

	// The binary went to the session URL via PUT.
	assert.Equal(t, http.MethodPut, rec.mediaMethod)
	assert.Equal(t, "Bearer at_123", rec.mediaAuth)
	assert.Equal(t, data, rec.mediaBody)
}

func TestUploadDefaultsPrivacyToUnlisted(t *testing.T) {
	u, rec := newTestServers(t, http.StatusOK)

	_, err := u.Upload(context.Background(), []byte("x"), testMeta(), "")
	require.NoError(t, err)

	var metadata struct {
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.initBody, &metadata))
	assert.Equal(t, "unlisted", metadata.Status.PrivacyStatus)
}

func TestUploadMissingCredentials(t *testing.T) {
	u := NewUploader(Config{})
	_, err := u.Upload(context.Background(), []byte("x"), testMeta(), "public")
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, PhaseConfig, upErr.Phase)
}

func TestUploadTokenRefreshFailure(t *testing.T) {
	u, _ := newTestServers(t, http.StatusBadRequest)

	_, err := u.Upload(context.Background(), []byte("x"), testMeta(), "public")
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, PhaseToken, upErr.Phase)
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "invalid_grant")
}

func TestUploadMissingSessionURL(t *testing.T) {
	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // no Location header
	}))
	defer upload.Close()
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at"})
	}))
	defer token.Close()

	u := NewUploader(Config{
		ClientID: "c", ClientSecret: "s", RefreshToken: "r",
		TokenURL: token.URL, UploadURL: upload.URL,
	})
	_, err := u.Upload(context.Background(), []byte("x"), testMeta(), "public")
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, PhaseInitiate, upErr.Phase)
}
