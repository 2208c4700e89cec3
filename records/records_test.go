package records

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	in := "\xEF\xBB\xBFname, email ,phone,event,url\n" +
		"John Doe,john@example.com,555-0101,Conference,https://x.test/a\n" +
		"\n" +
		"\"Smith, Jane\",jane@example.com,555-0102,Workshop,https://x.test/b\n"

	recs, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"name", "email", "phone", "event", "url"}, recs[0].Keys())
	assert.Equal(t, "John Doe", recs[0].Value("name"))
	assert.Equal(t, "john@example.com", recs[0].Value("email"))
	assert.Equal(t, "Smith, Jane", recs[1].Value("name"))
	assert.Equal(t, "https://x.test/b", recs[1].Value("url"))
}

func TestRead_RaggedRows(t *testing.T) {
	in := "name,email,phone,event,url\n" +
		"Short,short@example.com\n" +
		"Long,l@example.com,1,Gala,https://x.test,extra\n"

	recs, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, []string{"phone", "event", "url"}, recs[0].Missing("name", "phone", "event", "url"))
	assert.Empty(t, recs[1].Missing("name", "email", "phone", "event", "url"))
	assert.Len(t, recs[1].Keys(), 5)
}

func TestRead_HeaderOnly(t *testing.T) {
	recs, err := Read(strings.NewReader("name,email,phone,event,url\n"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRead_Empty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,name\nhttps://x.test,Ann\n"), 0o644))

	recs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Ann", recs[0].Value("name"))
}

func TestFromMaps(t *testing.T) {
	recs := FromMaps([]map[string]string{
		{"url": "https://x.test", "name": "Ann", "team": "blue", "email": "a@x.test"},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"name", "email", "url", "team"}, recs[0].Keys())
	assert.Equal(t, "Unknown", recs[0].Value("phone"))
}
