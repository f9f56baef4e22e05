package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type city struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type recordingObserver struct {
	endpoints []string
	statuses  []int
}

func (o *recordingObserver) ObserveBackendRequest(method, endpoint string, status int, elapsed time.Duration) {
	o.endpoints = append(o.endpoints, method+" "+endpoint)
	o.statuses = append(o.statuses, status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	client, err := NewClient(Config{BaseURL: srv.URL + "/api/v1", Observer: obs})
	require.NoError(t, err)
	return client, obs
}

func TestListSendsTokenLanguageAndQuery(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cities", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "pt", r.Header.Get("Accept-Language"))
		assert.Equal(t, "2", r.URL.Query().Get("page[number]"))
		_, _ = io.WriteString(w, `{"data":[{"type":"cities","id":"5","attributes":{"name":"Asunción"}}],"meta":{"total":31}}`)
	})

	ctx := WithLanguage(WithToken(context.Background(), "secret-token"), "pt")
	page, err := List[city](ctx, client, "/cities", url.Values{"page[number]": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, 31, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Asunción", page.Items[0].Name)
	assert.Equal(t, []string{"GET /cities"}, obs.endpoints)
}

func TestListFallsBackToItemCount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"type":"cities","id":"1","attributes":{"name":"A"}},{"type":"cities","id":"2","attributes":{"name":"B"}}]}`)
	})
	page, err := List[city](context.Background(), client, "cities", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
}

func TestCreateSendsJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Encarnación", body["name"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"type":"cities","id":"9","attributes":{"name":"Encarnación"}}}`)
	})
	created, err := Create[city](context.Background(), client, "/cities", map[string]any{"name": "Encarnación"})
	require.NoError(t, err)
	assert.Equal(t, "9", created.ID)
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, Delete(context.Background(), client, "/cities/12"))
	assert.Equal(t, []string{"DELETE /cities/:id"}, obs.endpoints)
}

func TestErrorDecoding(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"errors":[
			{"error_code":"taken","detail":"has already been taken","field":"username"},
			{"error_code":"quota_exceeded","detail":"too many teams"},
			{"code":"blank","title":"can't be blank","source":{"pointer":"/data/attributes/email"}}
		]}`)
	})
	_, err := Create[city](context.Background(), client, "/users", map[string]any{})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Len(t, apiErr.Items, 3)
	assert.Equal(t, ErrorItem{Code: "taken", Detail: "has already been taken", Field: "username"}, apiErr.Items[0])
	assert.Equal(t, "", apiErr.Items[1].Field)
	assert.Equal(t, ErrorItem{Code: "blank", Detail: "can't be blank", Field: "email"}, apiErr.Items[2])
	assert.Len(t, apiErr.FieldErrors(), 2)
}

func TestStatusSentinels(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:       ErrUnauthorized,
		http.StatusForbidden:          ErrForbidden,
		http.StatusNotFound:           ErrNotFound,
		http.StatusServiceUnavailable: ErrUnavailable,
	}
	for status, want := range cases {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := Get[city](context.Background(), client, "/cities/1", nil)
		assert.ErrorIs(t, err, want, "status %d", status)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)
	_, err = Get[city](context.Background(), client, "/cities/1", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestEndpointLabel(t *testing.T) {
	assert.Equal(t, "/cities/:id/neighborhoods", Endpoint("/cities/42/neighborhoods"))
	assert.Equal(t, "/users/:id", Endpoint("users/3f2504e0-4f89-11d3-9a0c-0305e82c3301"))
	assert.Equal(t, "/users/session", Endpoint("/users/session"))
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		claims := jwt.RegisteredClaims{Subject: "1"}
		if !exp.IsZero() {
			claims.ExpiresAt = jwt.NewNumericDate(exp)
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-key"))
		require.NoError(t, err)
		return token
	}

	assert.NoError(t, CheckToken(sign(now.Add(time.Hour)), now))
	assert.NoError(t, CheckToken(sign(time.Time{}), now))
	assert.ErrorIs(t, CheckToken(sign(now.Add(-time.Minute)), now), ErrTokenExpired)
	assert.ErrorIs(t, CheckToken("", now), ErrUnauthorized)
	assert.Error(t, CheckToken("not-a-jwt", now))
}
