package gh

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchGistFile(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/gists/abc123", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"abc123","files":{"state.json":{"content":"{\"schemaVersion\":3}","truncated":false}}}`))
	})

	client := newTestClient(t, mux)

	content, err := client.FetchGistFile(context.Background(), "abc123", StateFileName)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemaVersion":3}`, string(content))
}

func TestFetchGistFile_StateMissing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/gists/abc123", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"abc123","files":{"notes.md":{"content":"hi","truncated":false}}}`))
	})

	client := newTestClient(t, mux)

	_, err := client.FetchGistFile(context.Background(), "abc123", StateFileName)
	require.ErrorIs(t, err, ErrStateMissing)
}

func TestFetchGistFile_TruncatedFallsBackToRawURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := newTestClient(t, mux)

	mux.HandleFunc("/gists/abc123", func(w http.ResponseWriter, _ *http.Request) {
		payload := `{"id":"abc123","files":{"state.json":{"content":"","truncated":true,"raw_url":"` +
			server.baseURL + `/raw/state.json"}}}`
		w.Write([]byte(payload))
	})
	mux.HandleFunc("/raw/state.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"schemaVersion":3,"totals":{}}`))
	})

	content, err := server.FetchGistFile(context.Background(), "abc123", StateFileName)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemaVersion":3,"totals":{}}`, string(content))
}

func TestUpdateGist_SinglePatchCarriesAllFiles(t *testing.T) {
	t.Parallel()

	var patches int
	var payload gistPayload

	mux := http.NewServeMux()
	mux.HandleFunc("/gists/abc123", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		patches++

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.Write([]byte(`{"id":"abc123"}`))
	})

	client := newTestClient(t, mux)

	err := client.UpdateGist(context.Background(), "abc123", map[string][]byte{
		"state.json":  []byte(`{"schemaVersion":3}`),
		"clones.json": []byte(`{"label":"clones"}`),
		"views.json":  []byte(`{"label":"views"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, patches, "state and badges must land in one revision")
	assert.Len(t, payload.Files, 3)
	assert.Equal(t, `{"schemaVersion":3}`, payload.Files["state.json"].Content)
}

func TestCreateGist(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload gistPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.False(t, payload.Public)
		assert.Equal(t, "traffic state", payload.Description)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new-gist-id"}`))
	})

	client := newTestClient(t, mux)

	id, err := client.CreateGist(context.Background(), "traffic state", map[string][]byte{
		"state.json": []byte(`{"schemaVersion":3}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "new-gist-id", id)
}
