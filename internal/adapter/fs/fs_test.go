package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnish/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWalkerFindsCatalogFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), "[]")
	writeFile(t, filepath.Join(root, "feeds", "b.jsonl"), "")
	writeFile(t, filepath.Join(root, "notes.txt"), "")
	writeFile(t, filepath.Join(root, "archive", "old.json"), "[]")

	files, err := NewWalker(nil, []string{"archive/**"}).Walk(root)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.json", "feeds/b.jsonl"}, names)
}

func TestWalkerSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.txt")
	writeFile(t, path, "")

	files, err := NewWalker(nil, nil).Walk(path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
}

func TestReadRecordsArrayAndLines(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "a.json")
	writeFile(t, arr, `[{"uniq_id":"1","title":"Grey Sofa","price":"$1,299.00","images":"['a.jpg', 'b.jpg']"}]`)
	lines := filepath.Join(dir, "b.jsonl")
	writeFile(t, lines, "{\"id\":\"2\",\"title\":\"Oak Table\",\"price\":89.5}\n\n{\"id\":\"3\",\"title\":\"Bed\",\"price\":\"N/A\"}\n")

	recs, err := ReadRecords(arr)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	it, err := recs[0].Item()
	require.NoError(t, err)
	assert.Equal(t, "1", it.ID)
	assert.Equal(t, 1299.0, it.Price)
	assert.Equal(t, "a.jpg", it.Image)

	recs, err = ReadRecords(lines)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	it, err = recs[0].Item()
	require.NoError(t, err)
	assert.Equal(t, 89.5, it.Price)
	it, err = recs[1].Item()
	require.NoError(t, err)
	assert.False(t, it.HasPrice())
}

func TestRecordItemAttributes(t *testing.T) {
	r := Record{
		ID:                "x",
		Title:             " Velvet Chair ",
		Brand:             "FANYE",
		Categories:        []byte(`["Home & Kitchen", "Chairs"]`),
		Color:             "Blue",
		PackageDimensions: "20 x 20 x 30 inches",
		Material:          "  ",
	}
	it, err := r.Item()
	require.NoError(t, err)
	assert.Equal(t, "Velvet Chair", it.Title)
	assert.Equal(t, "FANYE", it.Attributes[domain.AttrBrand])
	assert.Equal(t, "Chairs", it.Attributes[domain.AttrCategory])
	assert.Equal(t, "20 x 20 x 30 inches", it.Attributes[domain.AttrDimensions])
	_, ok := it.Attr(domain.AttrMaterial)
	assert.False(t, ok)
}

func TestRecordWithoutID(t *testing.T) {
	_, err := Record{Title: "Nameless"}.Item()
	assert.Error(t, err)
}
