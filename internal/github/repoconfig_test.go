package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRepoConfig(t *testing.T) {
	configYAML := "custom_instructions:\n  - Focus on error handling.\nexclude_dirs:\n  - vendor\nexclude_exts:\n  - .md\n"
	brokenYAML := "custom_instructions: [unclosed\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/widgets/contents/.gander.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("ref") {
		case "feature-sha":
			fmt.Fprintf(w, `{"type":"file","name":".gander.yml","path":".gander.yml","encoding":"base64","content":%q}`,
				base64.StdEncoding.EncodeToString([]byte(configYAML)))
		case "broken-sha":
			fmt.Fprintf(w, `{"type":"file","name":".gander.yml","path":".gander.yml","encoding":"base64","content":%q}`,
				base64.StdEncoding.EncodeToString([]byte(brokenYAML)))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv)

	t.Run("present config is parsed", func(t *testing.T) {
		cfg, err := client.FetchRepoConfig(context.Background(), "octo", "widgets", "feature-sha")
		require.NoError(t, err)
		assert.Equal(t, []string{"Focus on error handling."}, cfg.CustomInstructions)
		assert.True(t, cfg.Excludes("vendor/modules.txt"))
		assert.True(t, cfg.Excludes("docs/README.md"))
		assert.False(t, cfg.Excludes("cmd/main.go"))
	})

	t.Run("missing config returns defaults and sentinel", func(t *testing.T) {
		cfg, err := client.FetchRepoConfig(context.Background(), "octo", "widgets", "no-such-sha")
		assert.ErrorIs(t, err, ErrConfigNotFound)
		require.NotNil(t, cfg)
		assert.False(t, cfg.Excludes("cmd/main.go"))
	})

	t.Run("unparsable config returns parsing error", func(t *testing.T) {
		_, err := client.FetchRepoConfig(context.Background(), "octo", "widgets", "broken-sha")
		assert.True(t, errors.Is(err, ErrConfigParsing), "got %v", err)
	})
}
