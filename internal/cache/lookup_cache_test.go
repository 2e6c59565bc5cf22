package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netcopilot/api/internal/model"
)

func setupCache(t *testing.T) (*LookupCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLookupCache(rdb, 24*time.Hour, zaptest.NewLogger(t)), mr
}

func resultFor(url string) *model.LookupResult {
	return &model.LookupResult{Person: model.Person{URL: url, Name: "Ann Lee"}}
}

func TestKey_Normalizes(t *testing.T) {
	assert.Equal(t, Key("Ann", "Lee"), Key("  ann ", "LEE"))
	assert.NotEqual(t, Key("Ann", "Lee"), Key("Lee", "Ann"))
	assert.Len(t, Key("Ann", "Lee"), len(keyPrefix)+64)
}

func TestGet_Miss(t *testing.T) {
	c, _ := setupCache(t)
	assert.True(t, c.Get(context.Background(), "Ann", "Lee").IsAbsent())
}

func TestPutThenGet_OverwriteAndExpire(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Put(ctx, "Ann", "Lee", resultFor("https://www.linkedin.com/in/first"))
	c.Put(ctx, " ANN", "lee ", resultFor("https://www.linkedin.com/in/second"))

	got, ok := c.Get(ctx, "ann", "Lee").Get()
	require.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/second", got.Person.URL)

	mr.FastForward(24*time.Hour + time.Second)
	assert.True(t, c.Get(ctx, "Ann", "Lee").IsAbsent())
}

func TestGet_CorruptEntryIsMiss(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set(Key("Ann", "Lee"), "{not json"))

	assert.True(t, c.Get(context.Background(), "Ann", "Lee").IsAbsent())
}

func TestBackendOutageIsAbsorbed(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	ctx := context.Background()
	assert.NotPanics(t, func() { c.Put(ctx, "Ann", "Lee", resultFor("u")) })
	assert.True(t, c.Get(ctx, "Ann", "Lee").IsAbsent())
}
