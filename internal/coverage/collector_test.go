package coverage

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testviewer/internal/archive"
	"testviewer/internal/discovery"
)

func openZip(t *testing.T, files map[string]string) *archive.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	r, err := archive.Open(buf.Bytes(), archive.Limits{})
	require.NoError(t, err)
	return r
}

func TestCollector_ManifestCoverage(t *testing.T) {
	r := openZip(t, map[string]string{
		discovery.ManifestName: `{"html_coverage": "cov/index.html"}`,
		"cov/index.html":       "<html>index</html>",
		"cov/style.css":        "body {}",
		"covered.txt":          "not part of the tree",
		"results.xml":          "<testsuites/>",
	})
	rules := discovery.NewResolver(zerolog.Nop()).Resolve("coverage-tests", r)

	tree := NewCollector(zerolog.Nop()).Collect("coverage-tests", r.Entries(), rules)

	assert.True(t, Publishable(tree))
	assert.Equal(t, "coverage-tests", tree.Name)
	assert.Equal(t, "cov/index.html", tree.IndexPath)
	assert.Equal(t, map[string]string{
		"cov/index.html": "<html>index</html>",
		"cov/style.css":  "body {}",
	}, tree.Files)
}

func TestCollector_NoCoverage(t *testing.T) {
	r := openZip(t, map[string]string{
		"cov/index.html": "<html/>",
		"results.xml":    "<testsuites/>",
	})
	rules := discovery.NewResolver(zerolog.Nop()).Resolve("tests", r)

	tree := NewCollector(zerolog.Nop()).Collect("tests", r.Entries(), rules)

	assert.False(t, Publishable(tree))
	assert.Empty(t, tree.Files)
}

func TestCollector_RootIndexCollectsEverything(t *testing.T) {
	r := openZip(t, map[string]string{
		discovery.ManifestName: `{"html_coverage": "index.html"}`,
		"index.html":           "<html/>",
		"src/file.html":        "<html/>",
	})
	rules := discovery.NewResolver(zerolog.Nop()).Resolve("tests", r)

	tree := NewCollector(zerolog.Nop()).Collect("tests", r.Entries(), rules)

	assert.Len(t, tree.Files, 3)
	assert.Contains(t, tree.Files, "src/file.html")
}
