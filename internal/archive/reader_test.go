package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if content, ok := files[name]; ok {
			_, err = w.Write([]byte(content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpen_ListsFileEntriesInOrder(t *testing.T) {
	blob := buildZip(t, map[string]string{
		"reports/a.xml": "<a/>",
		"b.txt":         "hello",
	}, "reports/", "reports/a.xml", "b.txt")

	r, err := Open(blob, Limits{})
	require.NoError(t, err)

	entries := r.Entries()
	require.Len(t, entries, 2, "directory entries are not listed")
	assert.Equal(t, "reports/a.xml", entries[0].Name())
	assert.Equal(t, "b.txt", entries[1].Name())
	assert.Equal(t, int64(5), entries[1].Size())

	text, err := entries[1].Text()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestOpen_CorruptBlob(t *testing.T) {
	_, err := Open([]byte("definitely not a zip"), Limits{})
	require.Error(t, err)

	var corrupt *CorruptArchiveError
	assert.True(t, errors.As(err, &corrupt))
}

func TestEntry_TextStripsBOM(t *testing.T) {
	blob := buildZip(t, map[string]string{"r.xml": "\ufeff<testsuites/>"}, "r.xml")
	r, err := Open(blob, Limits{})
	require.NoError(t, err)

	e, ok := r.Find("r.xml")
	require.True(t, ok)
	text, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "<testsuites/>", text)

	_, ok = r.Find("missing.xml")
	assert.False(t, ok)
}

func TestEntry_SizeLimit(t *testing.T) {
	blob := buildZip(t, map[string]string{"big.txt": "0123456789"}, "big.txt")
	r, err := Open(blob, Limits{MaxEntrySize: 4})
	require.NoError(t, err)

	_, err = r.Entries()[0].Text()
	assert.Error(t, err)
}

func TestEntry_TotalBudgetSharedAcrossEntries(t *testing.T) {
	blob := buildZip(t, map[string]string{
		"a.html": "0123456789",
		"b.html": "0123456789",
		"c.html": "0123456789",
	}, "a.html", "b.html", "c.html")
	r, err := Open(blob, Limits{MaxEntrySize: 100, MaxTotalSize: 25})
	require.NoError(t, err)

	entries := r.Entries()
	_, err = entries[0].Text()
	require.NoError(t, err)
	_, err = entries[1].Text()
	require.NoError(t, err)

	_, err = entries[2].Text()
	assert.ErrorIs(t, err, ErrInflateBudget, "third entry would inflate past the archive total")

	_, err = entries[0].Text()
	assert.ErrorIs(t, err, ErrInflateBudget, "the budget is spent for the rest of the archive")

	fresh, err := Open(blob, Limits{MaxEntrySize: 100, MaxTotalSize: 25})
	require.NoError(t, err)
	_, err = fresh.Entries()[2].Text()
	assert.NoError(t, err, "each Open starts with a full budget")
}
