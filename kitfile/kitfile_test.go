package kitfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gedMatchesCSV = `PrimaryKit,MatchedKit,chr,B37Start,B37End,Segment cM,MatchedName,Matched Sex,MatchedEmail
A100,B200,5,1000,2000,12.5,Bea Smith,F,bea@example.com
A100,C300,X,500,1500,8.25,,,
`

const gedTrianglesCSV = `Kit1 Number,Kit1 Name,Kit1 Email,Kit2 Number,Kit2 Name,Kit2 Email,Chr,B37 Start,B37 End,cM
B200,Bea Smith,bea@example.com,C300,Cee Jones,cee@example.com,5,1200,1800,4.5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileTypeDetection(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	matches := writeFile(t, tempDir, "matches.csv", gedMatchesCSV)
	triangles := writeFile(t, tempDir, "triangles.csv", gedTrianglesCSV)
	other := writeFile(t, tempDir, "other.csv", "a,b,c\n1,2,3\n")

	assert.True(t, IsGedMatches(matches))
	assert.False(t, IsGedTriangles(matches))
	assert.True(t, IsGedTriangles(triangles))
	assert.False(t, IsGedMatches(triangles))
	assert.False(t, IsGedMatches(other))
	assert.False(t, IsGedTriangles(other))
	assert.False(t, IsGedMatches(filepath.Join(tempDir, "missing.csv")))
}

func TestReadGedMatches(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeFile(t, tempDir, "matches.csv", gedMatchesCSV)

	rows, err := ReadGedMatches(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "A100", r.Kit1)
	assert.Equal(t, "B200", r.Kit2)
	assert.Equal(t, "5", r.Chromosome)
	assert.Equal(t, int64(1000), r.Start)
	assert.Equal(t, int64(2000), r.End)
	require.NotNil(t, r.Length)
	assert.Equal(t, 12.5, *r.Length)
	require.NotNil(t, r.Name)
	assert.Equal(t, "Bea Smith", *r.Name)
	require.NotNil(t, r.Sex)
	assert.Equal(t, "F", *r.Sex)

	// Empty optional columns come through as nil, not empty strings.
	r = rows[1]
	assert.Equal(t, "X", r.Chromosome)
	assert.Nil(t, r.Name)
	assert.Nil(t, r.Sex)
	assert.Nil(t, r.Email)
}

func TestReadGedTriangles(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeFile(t, tempDir, "triangles.csv", gedTrianglesCSV)

	rows, err := ReadGedTriangles(path, "A100")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "A100", r.Kit1, "kit1 comes from the caller, not the file")
	assert.Equal(t, "B200", r.Kit2)
	assert.Equal(t, "C300", r.Kit3)
	assert.Equal(t, "5", r.Chromosome)
	assert.Equal(t, int64(1200), r.Start)
	assert.Equal(t, int64(1800), r.End)
	require.NotNil(t, r.Length)
	assert.Equal(t, 4.5, *r.Length)
	require.NotNil(t, r.Name2)
	assert.Equal(t, "Bea Smith", *r.Name2)
	require.NotNil(t, r.Name3)
	assert.Equal(t, "Cee Jones", *r.Name3)
}

func TestReadGedMatchesMissingColumn(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := writeFile(t, tempDir, "bad.csv", "PrimaryKit,MatchedKit\nA,B\n")

	_, err := ReadGedMatches(path)
	assert.Error(t, err)
}
