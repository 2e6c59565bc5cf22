package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netcopilot/api/internal/model"
)

func sampleRecord(name string) *model.PersonRecord {
	return &model.PersonRecord{
		LookupResult: model.LookupResult{
			Person: model.Person{URL: "https://www.linkedin.com/in/" + name, Name: name},
		},
		Filename:  name + ".jpg",
		Markdown:  "# " + name,
		Extracted: model.Extracted{BasicInfo: model.BasicInfo{Names: name}},
	}
}

// exerciseStore runs the behavior every PersonStore must share.
func exerciseStore(t *testing.T, s PersonStore) {
	ctx := context.Background()

	first, err := s.Save(ctx, sampleRecord("grace"))
	require.NoError(t, err)
	second, err := s.Save(ctx, sampleRecord("grace"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	rec, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "grace.jpg", rec.Filename)
	assert.Equal(t, "https://www.linkedin.com/in/grace", rec.Person.URL)

	missing, err := s.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.True(t, missing.IsAbsent())

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	one, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	exerciseStore(t, NewRedisStore(rdb, zaptest.NewLogger(t)))
}

func TestRedisStore_SaveWritesDataAndIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, nil)
	saved, err := s.Save(context.Background(), sampleRecord("ada"))
	require.NoError(t, err)

	assert.True(t, mr.Exists(dataKeyPrefix+saved.ID))
	ids, err := mr.List(indexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{saved.ID}, ids)
}

func TestRedisStore_ListSkipsMissingAndCorrupt(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, zaptest.NewLogger(t))
	ctx := context.Background()
	saved, err := s.Save(ctx, sampleRecord("ada"))
	require.NoError(t, err)

	_, err = mr.Lpush(indexKey, "orphan")
	require.NoError(t, err)
	_, err = mr.Lpush(indexKey, "corrupt")
	require.NoError(t, err)
	require.NoError(t, mr.Set(dataKeyPrefix+"corrupt", "{"))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
}

func TestRedisStore_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	s := NewRedisStore(rdb, nil)
	_, err := s.Save(context.Background(), sampleRecord("ada"))
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.pool.Exec(ctx, `TRUNCATE people`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
