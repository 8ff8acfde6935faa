package intervals

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, ValidateDate("2026-08-26"))
	assert.Error(t, ValidateDate("26-08-2026"))
	assert.Error(t, ValidateDate("2026/08/26"))
	assert.Error(t, ValidateDate("2026-13-40"))
	assert.Error(t, ValidateDate(""))
}

func TestClient_BasicAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "my-api-key", testLogger())
	_, err := c.Activities(context.Background(), "i12345", "", "2026-01-01", "2026-01-31", 10)
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("API_KEY:my-api-key"))
	assert.Equal(t, want, gotAuth)
}

func TestClient_APIKeyOverride(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "default-key", testLogger())
	_, err := c.Activity(context.Background(), "a1", "override-key")
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("API_KEY:override-key"))
	assert.Equal(t, want, gotAuth)
}

func TestClient_NoAPIKey(t *testing.T) {
	c := NewClient("http://unused.example.com", "i12345", "", testLogger())
	_, err := c.Activity(context.Background(), "a1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestClient_FriendlyErrors(t *testing.T) {
	for status, want := range map[int]string{
		http.StatusUnauthorized:        "401 Unauthorized: Please check your API key.",
		http.StatusNotFound:            "404 Not Found: The requested endpoint or ID doesn't exist.",
		http.StatusTooManyRequests:     "429 Too Many Requests: Too many requests in a short time period.",
		http.StatusServiceUnavailable:  "503 Service Unavailable: The Intervals.icu server might be down or undergoing maintenance.",
		http.StatusInternalServerError: "500 Internal Server Error: The Intervals.icu server encountered an internal error.",
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(srv.URL, "i12345", "key", testLogger())
		_, err := c.Activity(context.Background(), "a1", "")
		srv.Close()

		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.StatusCode)
		assert.Equal(t, want, apiErr.Message)
	}
}

func TestClient_QueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "key", testLogger())
	_, err := c.Events(context.Background(), "i12345", "", "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "oldest=2026-08-01")
	assert.Contains(t, gotQuery, "newest=2026-08-31")
}

func TestClient_WellnessExtendedFallback(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if len(paths) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"date":"2026-08-26"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "key", testLogger())
	data, err := c.Wellness(context.Background(), "i12345", "", "2026-08-01", "2026-08-26", true)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "wellness-ext-")
	assert.Contains(t, paths[1], "/wellness")
	assert.True(t, gjson.ParseBytes(data).IsArray())
}

func TestClient_DeleteEvent(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "key", testLogger())
	_, err := c.DeleteEvent(context.Background(), "i12345", "e99", "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/athlete/i12345/events/e99", gotPath)
}

func TestClient_CreateEventBody(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"id":"e1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "i12345", "key", testLogger())
	_, err := c.CreateEvent(context.Background(), "i12345", "", map[string]any{
		"name":     "Morning Ride",
		"category": "WORKOUT",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	body := gjson.ParseBytes(gotBody)
	assert.Equal(t, "Morning Ride", body.Get("name").String())
	assert.Equal(t, "WORKOUT", body.Get("category").String())
}
