package eventstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcdev12/raceboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `[
  {"id": "1", "name": "Churchill Downs Classic", "time": "2026-10-18T12:15:00Z", "stats": {"horses": 8, "track": "Dirt"}},
  {"id": "2", "name": "Belmont Stakes", "time": "2026-10-18T14:30:00Z"},
  {"id": "3", "name": "Belmont Stakes", "time": "2026-10-18T18:00:00Z"}
]`

func newTestService(t *testing.T, contents string) (*httptest.Server, *FileRepository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "public", "info.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	repo := NewFileRepository(path)
	mux := http.NewServeMux()
	NewService(NewApp(repo)).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doRequest(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func storedIDs(t *testing.T, repo *FileRepository) []string {
	t.Helper()
	items, err := repo.Load(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestListEvents(t *testing.T) {
	srv, _ := newTestService(t, seedJSON)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []models.TimerItem
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 3)
	assert.Equal(t, "Churchill Downs Classic", items[0].Name)
	assert.Equal(t, float64(8), items[0].Stats["horses"])
}

func TestListEvents_NonArrayFileIsEmpty(t *testing.T) {
	srv, _ := newTestService(t, `{"not":"a list"}`)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestListEvents_UnparseableFileIs500(t *testing.T) {
	srv, _ := newTestService(t, `not json`)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/events")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "error")
}

func TestGetEvent(t *testing.T) {
	srv, _ := newTestService(t, seedJSON)

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/events/2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var item models.TimerItem
	require.NoError(t, json.Unmarshal(body, &item))
	assert.Equal(t, "Belmont Stakes", item.Name)

	resp, body = doRequest(t, http.MethodGet, srv.URL+"/events/404")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Not found"}`, string(body))
}

func TestDeleteByID(t *testing.T) {
	srv, repo := newTestService(t, seedJSON)

	resp, body := doRequest(t, http.MethodDelete, srv.URL+"/events/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"removed":true}`, string(body))
	assert.Equal(t, []string{"2", "3"}, storedIDs(t, repo))

	resp, _ = doRequest(t, http.MethodDelete, srv.URL+"/events/1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDeleteByNameAndTime_MatchesBoth(t *testing.T) {
	srv, repo := newTestService(t, seedJSON)

	resp, body := doRequest(t, http.MethodDelete, srv.URL+"/events?name=Belmont+Stakes&time=2026-10-18T18:00:00Z")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"removed":true}`, string(body))
	assert.Equal(t, []string{"1", "2"}, storedIDs(t, repo))
}

func TestDeleteByNameAndTime_NoMatchIs204(t *testing.T) {
	srv, repo := newTestService(t, seedJSON)

	resp, _ := doRequest(t, http.MethodDelete, srv.URL+"/events?name=Belmont+Stakes&time=2026-10-18T19:00:00Z")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"1", "2", "3"}, storedIDs(t, repo))
}

func TestDeleteByNameAndTime_MissingParameterIs400(t *testing.T) {
	srv, repo := newTestService(t, seedJSON)

	for _, query := range []string{"?name=Belmont+Stakes", "?time=2026-10-18T18:00:00Z", ""} {
		resp, body := doRequest(t, http.MethodDelete, srv.URL+"/events"+query)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		assert.JSONEq(t, `{"error":"Missing name or time"}`, string(body))
	}
	assert.Equal(t, []string{"1", "2", "3"}, storedIDs(t, repo))
}

func TestFileRepository_SaveRewritesWholeList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "info.txt")
	repo := NewFileRepository(path)
	app := NewApp(repo)

	require.NoError(t, app.ReplaceEvents(context.Background(), []models.TimerItem{
		{ID: "a", Name: "A", Time: "2026-10-18T12:00:00Z"},
	}))
	require.NoError(t, app.ReplaceEvents(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestFileRepository_MissingFileIsError(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "absent.txt"))
	_, err := repo.Load(context.Background())
	require.Error(t, err)
}
