package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

func TestPutNormalizesAndCopies(t *testing.T) {
	r := New()
	src := []ingest.Row{{"a": "1", "extra": "x"}, {"b": "2"}}
	ds := r.Put("d1", []string{"a", "b"}, src)
	assert.Equal(t, 1, ds.Version)
	assert.Equal(t, []ingest.Row{{"a": "1", "b": ""}, {"a": "", "b": "2"}}, ds.Rows)

	src[0]["a"] = "changed"
	got, err := r.Get("d1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Rows[0]["a"], "registry owns its copy")

	got.Rows[0]["a"] = "local"
	again, _ := r.Get("d1")
	assert.Equal(t, "1", again.Rows[0]["a"], "snapshots are deep copies")

	ds = r.Put("d1", []string{"a"}, nil)
	assert.Equal(t, 2, ds.Version)
}

func TestUnknownIDIsNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("nope")
	assert.True(t, apperr.IsNotFound(err))
	_, err = r.Mutate("nope", func(*Dataset) (bool, error) { return true, nil })
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(r.Read("nope", func(Dataset) error { return nil })))
}

func TestMutateCommitsOnlyOnSuccess(t *testing.T) {
	r := New()
	r.Put("d", []string{"v"}, []ingest.Row{{"v": "1"}, {"v": "2"}})

	v, err := r.Mutate("d", func(ds *Dataset) (bool, error) {
		ds.Rows = ds.Rows[:1]
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	boom := errors.New("boom")
	v, err = r.Mutate("d", func(ds *Dataset) (bool, error) {
		ds.Rows = nil
		return true, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, v)

	v, err = r.Mutate("d", func(ds *Dataset) (bool, error) {
		ds.Rows[0]["v"] = "dry"
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	got, _ := r.Get("d")
	assert.Equal(t, []ingest.Row{{"v": "1"}}, got.Rows)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	r := New()
	r.Put("d", []string{"n"}, nil)
	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := r.Mutate("d", func(ds *Dataset) (bool, error) {
				ds.Rows = append(ds.Rows, ingest.Row{"n": fmt.Sprint(i)})
				return true, nil
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_ = r.Read("d", func(ds Dataset) error {
				for _, row := range ds.Rows {
					assert.Len(t, row, 1)
				}
				return nil
			})
		}()
	}
	wg.Wait()
	got, err := r.Get("d")
	require.NoError(t, err)
	assert.Len(t, got.Rows, writers)
	assert.Equal(t, writers+1, got.Version)
}

func TestNewEntryIsNeverSeenEmpty(t *testing.T) {
	r := New()
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("d%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Put(id, []string{"n"}, []ingest.Row{{"n": "1"}})
		}()
		go func() {
			defer wg.Done()
			for {
				ds, err := r.Get(id)
				if err != nil {
					continue
				}
				assert.Equal(t, 1, ds.Version)
				assert.Equal(t, []string{"n"}, ds.Headers)
				assert.Len(t, ds.Rows, 1)
				return
			}
		}()
	}
	wg.Wait()
}

func TestSavedViews(t *testing.T) {
	r := New()
	id := r.Create([]string{"a"}, nil)
	assert.Len(t, id, 36)
	require.NoError(t, r.SaveView(id, "west", map[string]string{"region": "west"}))
	require.NoError(t, r.SaveView(id, "east", nil))
	views, err := r.Views(id)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "east", views[0].Name)
	assert.True(t, apperr.IsValidation(r.SaveView(id, "", nil)))
	assert.Equal(t, []string{id}, r.IDs())
}
