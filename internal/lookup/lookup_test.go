package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denguechat/denguechat-admin/internal/form"
	"github.com/denguechat/denguechat-admin/internal/platform/api"
	"github.com/denguechat/denguechat-admin/internal/shared"
)

func adminCtx() context.Context {
	ctx := shared.ContextWithProfile(context.Background(), shared.Profile{
		ID: "1", Roles: []shared.ProfileRole{{Name: shared.RoleAdmin}},
	})
	return api.WithToken(ctx, "admin")
}

func memberCtx(id, org string) context.Context {
	ctx := shared.ContextWithProfile(context.Background(), shared.Profile{ID: id, OrganizationID: org})
	return api.WithToken(ctx, "member-"+id)
}

func newLookup(t *testing.T, handler http.HandlerFunc) (*Service, *Cache) {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)
	client, err := api.NewClient(api.Config{BaseURL: backend.URL})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := NewCache(rdb, time.Minute)
	return NewService(client, cache, nil), cache
}

func TestOptionsAreCachedUntilBumped(t *testing.T) {
	var hits atomic.Int32
	svc, cache := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/teams", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("filter[organization_id]"))
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = w.Write([]byte(`{"data":[
			{"type":"teams","id":"2","attributes":{"name":"zeta"}},
			{"type":"teams","id":"1","attributes":{"name":"Alfa"}}
		]}`))
	})
	ctx := memberCtx("7", "4")

	opts, err := svc.Options(ctx, Teams, "4")
	require.NoError(t, err)
	assert.Equal(t, []form.Option{{Value: "1", Label: "Alfa"}, {Value: "2", Label: "zeta"}}, opts)

	_, err = svc.Options(ctx, Teams, "4")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	svc.Bump(ctx, Teams)
	ver, err := cache.Version(ctx, Teams)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	_, err = svc.Options(ctx, Teams, "4")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	assert.Equal(t, "zeta", svc.Label(ctx, Teams, "4", "2"))
	assert.Equal(t, "99", svc.Label(ctx, Teams, "4", "99"))
}

func TestUnscopedKindsIgnoreScope(t *testing.T) {
	svc, _ := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("filter[organization_id]"))
		_, _ = w.Write([]byte(`{"data":[{"type":"users","id":"3","attributes":{"firstName":"Ana","lastName":"Souza"}}]}`))
	})
	opts, err := svc.Options(adminCtx(), Roles, "4")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", opts[0].Label)
}

func TestMustOptionsSwallowsErrors(t *testing.T) {
	svc, _ := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Empty(t, svc.MustOptions(context.Background(), Cities, ""))

	_, err := svc.Options(context.Background(), Kind("bogus"), "")
	assert.Error(t, err)
}

func TestListsAreNotSharedAcrossAudiences(t *testing.T) {
	var hits atomic.Int32
	svc, _ := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/vnd.api+json")
		if r.Header.Get("Authorization") == "Bearer admin" {
			_, _ = w.Write([]byte(`{"data":[{"type":"teams","id":"1","attributes":{"name":"SecretOrgTeam"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	opts, err := svc.Options(adminCtx(), Teams, "")
	require.NoError(t, err)
	require.Len(t, opts, 1)

	// A non-admin without an organization gets a list of their own.
	opts, err = svc.Options(memberCtx("9", ""), Teams, "")
	require.NoError(t, err)
	assert.Empty(t, opts)

	opts, err = svc.Options(memberCtx("8", "5"), Roles, "")
	require.NoError(t, err)
	assert.Empty(t, opts)

	// Members of one organization share the cached list.
	_, err = svc.Options(memberCtx("10", "5"), Roles, "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())

	// No profile, no cache.
	_, err = svc.Options(context.Background(), Roles, "")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestSharedLoadSurvivesLeaderCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	svc, _ := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		assert.Equal(t, "Bearer admin", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"type":"roles","id":"1","attributes":{"name":"admin"}}]}`))
	})

	leaderCtx, cancel := context.WithCancel(adminCtx())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Options(leaderCtx, Roles, "")
		leaderErr <- err
	}()
	<-started

	type result struct {
		opts []form.Option
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		opts, err := svc.Options(adminCtx(), Roles, "")
		follower <- result{opts, err}
	}()

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, []form.Option{{Value: "1", Label: "admin"}}, got.opts)
}
