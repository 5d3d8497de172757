package runner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apidiff/internal/client"
	"apidiff/internal/config"
	"apidiff/internal/model"
)

type nopLimiter struct{}

func (nopLimiter) Take(context.Context) error { return nil }

func newRunner(cfg *config.Config) *Runner {
	return New(cfg, client.New(nopLimiter{}, time.Second))
}

func jsonHandler(fn func(id string) (int, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := fn(r.URL.Query().Get("user_id"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func TestRun_MatchAndMismatchScenario(t *testing.T) {
	oldSrv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		return http.StatusOK, `{"name": "A"}`
	}))
	defer oldSrv.Close()
	newSrv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		if id == "2" {
			return http.StatusOK, `{"name": "B"}`
		}
		return http.StatusOK, `{"name": "A"}`
	}))
	defer newSrv.Close()

	cfg := &config.Config{
		OldAPI: config.APIConfig{URL: oldSrv.URL, Method: "GET"},
		NewAPI: config.APIConfig{URL: newSrv.URL, Method: "GET"},
		Params: []config.ParamSpec{{Name: "user_id", Values: []string{"1", "2"}}},
	}

	results, err := newRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, model.StatusMatch, results[0].Status)
	assert.Empty(t, results[0].Entries)
	assert.True(t, results[0].HasData)

	assert.Equal(t, model.StatusMismatch, results[1].Status)
	require.Len(t, results[1].Entries, 1)
	assert.Equal(t, model.DiffEntry{Path: "name", Kind: model.KindChanged, Old: "A", New: "B"}, results[1].Entries[0])
}

func TestRun_PartialFailureKeepsAllRows(t *testing.T) {
	oldSrv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		if id == "2" {
			return http.StatusInternalServerError, `oops`
		}
		return http.StatusOK, `{"ok": true}`
	}))
	defer oldSrv.Close()
	newSrv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		return http.StatusOK, `{"ok": true}`
	}))
	defer newSrv.Close()

	cfg := &config.Config{
		OldAPI: config.APIConfig{URL: oldSrv.URL, Method: "GET"},
		NewAPI: config.APIConfig{URL: newSrv.URL, Method: "GET"},
		Params: []config.ParamSpec{{Name: "user_id", Values: []string{"1", "2", "3"}}},
	}

	results, err := newRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, model.StatusMatch, results[0].Status)
	assert.Equal(t, model.StatusError, results[1].Status)
	assert.Contains(t, results[1].Detail, "old api")
	assert.Contains(t, results[1].Detail, "500")
	assert.Equal(t, model.StatusMatch, results[2].Status)
}

func TestRun_EmptyBodiesMatchWithoutData(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		return http.StatusOK, `{}`
	}))
	defer srv.Close()

	cfg := &config.Config{
		OldAPI: config.APIConfig{URL: srv.URL, Method: "GET"},
		NewAPI: config.APIConfig{URL: srv.URL, Method: "GET"},
		Params: []config.ParamSpec{{Name: "user_id", Value: "1"}},
	}

	results, err := newRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusMatch, results[0].Status)
	assert.False(t, results[0].HasData)
}

func TestRun_ZeroParamsRunsOneCase(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		return http.StatusOK, `{"version": 1}`
	}))
	defer srv.Close()

	cfg := &config.Config{
		OldAPI: config.APIConfig{URL: srv.URL, Method: "GET"},
		NewAPI: config.APIConfig{URL: srv.URL, Method: "GET"},
	}

	results, err := newRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusMatch, results[0].Status)
}

func TestRun_ResolveFailureAbortsBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	cfg := &config.Config{
		OldAPI:  config.APIConfig{URL: srv.URL, Method: "GET"},
		NewAPI:  config.APIConfig{URL: srv.URL, Method: "GET"},
		Params:  []config.ParamSpec{{Name: "id", File: "missing.csv", Column: "id"}},
		BaseDir: t.TempDir(),
	}

	_, err := newRunner(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestRun_FileColumnCasesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("user_id\n1\n2\n"), 0o600))

	srv := httptest.NewServer(jsonHandler(func(id string) (int, string) {
		return http.StatusOK, fmt.Sprintf(`{"id": %q}`, id)
	}))
	defer srv.Close()

	cfg := &config.Config{
		OldAPI:  config.APIConfig{URL: srv.URL, Method: "GET"},
		NewAPI:  config.APIConfig{URL: srv.URL, Method: "GET"},
		Params:  []config.ParamSpec{{Name: "user_id", File: "data.csv", Column: "user_id"}},
		BaseDir: dir,
	}

	results, err := newRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].Case["user_id"])
	assert.Equal(t, "2", results[1].Case["user_id"])
}
