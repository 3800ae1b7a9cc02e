package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
)

func sample() []domain.ResourceItem {
	a := domain.NewResourceItem(0, "https://cdn.example.com/a.mp4?x=1&y=2", domain.TypeVideo, "a.mp4")
	b := domain.NewResourceItem(1, "https://img.example.com/b,c.jpg", domain.TypeImage, "b,c.jpg")
	b.Selected = false
	return []domain.ResourceItem{a, b}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sample()))

	var back []domain.ResourceItem
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Contains(t, buf.String(), "a.mp4?x=1&y=2", "URLs are not HTML escaped")

	buf.Reset()
	require.NoError(t, JSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestTXT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTXT, sample()))
	assert.Equal(t, "https://cdn.example.com/a.mp4?x=1&y=2\nhttps://img.example.com/b,c.jpg\n", buf.String())
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"index", "type", "name", "url", "selected"}, rows[0])
	assert.Equal(t, []string{"1", "image", "b,c.jpg", "https://img.example.com/b,c.jpg", "false"}, rows[2])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), nil))
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "videos.zip", ArchiveName("videos.zip"))
	assert.Equal(t, DefaultArchiveName, ArchiveName(""))
	assert.Equal(t, DefaultArchiveName, ArchiveName("../../etc/passwd"))
}
