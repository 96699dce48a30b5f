package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "code=abc&grant_type=authorization_code", string(body))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id_token":"jwt"}`))
	}))
	defer srv.Close()

	c := New(DefaultConfig())
	resp, err := c.Post(context.Background(), srv.URL, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}, "code=abc&grant_type=authorization_code")

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `{"id_token":"jwt"}`, string(resp.Body))
}

func TestPostNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(DefaultConfig())
	resp, err := c.Post(context.Background(), srv.URL, nil, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPostConnectionFailure(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Post(context.Background(), "http://127.0.0.1:1", nil, "")
	require.Error(t, err)
}

func TestPostRespectsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	c := New(DefaultConfig())
	_, err := c.Post(ctx, srv.URL, nil, "")
	require.Error(t, err)
}
