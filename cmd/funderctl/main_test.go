package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	body := fmt.Sprintf("http:\n  port: 8080\ndatabase:\n  driver: bleve\n  bleve_dir: %s\n%s",
		filepath.Join(dir, "indexes"), extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"funderctl", "--env", "local"}, args...))
	return out.String(), errOut.String(), err
}

func TestIndexCreate_SkipsSemanticWhenEmbeddingDisabled(t *testing.T) {
	cfg := writeConfig(t, "")

	out, _, err := run(t, "--config", cfg, "index", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "funders\tfunders:idx\tcreated")
	assert.Contains(t, out, "funders-places\t")
	assert.NotContains(t, out, "semantic")

	out, _, err = run(t, "--config", cfg, "index", "create", "--collection", "funders")
	require.NoError(t, err)
	assert.Equal(t, "funders\tfunders:idx\texists\n", out)
}

func TestIndexCreate_UnknownCollection(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, "--config", cfg, "index", "create", "--collection", "grants")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown collection "grants"`)
}

func TestIndexDrop_RequiresSelection(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, "--config", cfg, "index", "drop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--all")
}

func TestLoad(t *testing.T) {
	cfg := writeConfig(t, "")
	_, _, err := run(t, "--config", cfg, "index", "create", "--collection", "funders")
	require.NoError(t, err)

	input := filepath.Join(t.TempDir(), "funders.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join([]string{
		`{"id":"gates","funderName":"Gates Foundation","issueAreas":["Global Health"],"geoLocation":{"states":["Washington"]}}`,
		`{"funderName":"Ford Foundation","overview":"Social justice grants"}`,
		`{"overview":"missing a name"}`,
	}, "\n")), 0o600))

	out, errOut, err := run(t, "--config", cfg, "load", "--collection", "funders", "--batch-size", "1", input)
	require.NoError(t, err)
	assert.Equal(t, "funders: loaded 2 of 3 records, 1 failed\n", out)
	assert.Contains(t, errOut, "record 3")
	assert.Contains(t, errOut, "funderName is required")
}

func TestLoad_RequiresCollectionAndFile(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, "--config", cfg, "load", "funders.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection")

	_, _, err = run(t, "--config", cfg, "load", "--collection", "funders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one input file")
}

func TestLoad_SemanticWithoutEmbedder(t *testing.T) {
	cfg := writeConfig(t, "")
	input := filepath.Join(t.TempDir(), "funders.json")
	require.NoError(t, os.WriteFile(input, []byte(`[{"funderName":"Gates Foundation"}]`), 0o600))

	_, _, err := run(t, "--config", cfg, "load", "--collection", "funders-semantic", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no embedder")
}

func TestLookup(t *testing.T) {
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/organizations/131684331.json":
			_, _ = w.Write([]byte(`{"organization": {"ein": 131684331, "name": "FORD FOUNDATION",
				"city": "NEW YORK", "state": "NY", "tax_period": 202212}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer registry.Close()

	cfg := writeConfig(t, "enrichment:\n  base_url: "+registry.URL+"\n")

	out, _, err := run(t, "--config", cfg, "lookup", "131684331")
	require.NoError(t, err)
	assert.Contains(t, out, `"orgName": "FORD FOUNDATION"`)
	assert.Contains(t, out, `"ein": "131684331"`)
	assert.Contains(t, out, `"filingYear": 2022`)
	assert.Contains(t, out, `"totalAssets": null`)
}

func TestLookup_RequiresQuery(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := run(t, "--config", cfg, "lookup")
	require.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "lookup", "x")
	require.Error(t, err)
}
