package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderFixture(t *testing.T, template string, vars map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "installer.cfg.in")
	out := filepath.Join(dir, "installer.cfg")
	require.NoError(t, os.WriteFile(in, []byte(template), 0644))
	require.NoError(t, RenderTemplate(in, out, vars, hclog.NewNullLogger()))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data)
}

func TestRenderTemplateSubstitutesPlaceholders(t *testing.T) {
	got := renderFixture(t, `[Application]
name=${APP_NAME}
version=${VERSION}
icon=${STAGING_DIR}/icon.ico
`, map[string]string{
		"APP_NAME":    "streamforge",
		"VERSION":     "7.1.3",
		"STAGING_DIR": "C:/build/staging",
	})

	assert.Contains(t, got, "name=streamforge")
	assert.Contains(t, got, "version=7.1.3")
	assert.Contains(t, got, "icon=C:/build/staging/icon.ico")
	assert.NotContains(t, got, "${")
}

func TestRenderTemplateLeavesUnresolvedPlaceholders(t *testing.T) {
	got := renderFixture(t, "value=${NOT_DEFINED}\n", map[string]string{})
	// Unresolved placeholders are warned about, not fatal.
	assert.Contains(t, got, "${NOT_DEFINED}")
}

func TestRenderTemplateNormalizesLineEndings(t *testing.T) {
	got := renderFixture(t, "a=1\r\nb=2\r\n", map[string]string{})
	assert.Equal(t, "a=1\nb=2\n", got)
}

func TestExciseSectionRemovesMarkerAndContinuations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "installer.cfg")
	content := `[Include]
pypi_wheels =
    requests==2.32.3
local_wheels =
    wheels/streamforge-7.1.3-py3-none-any.whl
    wheels/requests-2.32.3-py3-none-any.whl
files = licenses/
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, ExciseSection(path, "local_wheels"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	assert.NotContains(t, got, "local_wheels")
	assert.NotContains(t, got, "wheels/streamforge")
	assert.Contains(t, got, "pypi_wheels =")
	assert.Contains(t, got, "    requests==2.32.3")
	assert.Contains(t, got, "files = licenses/")
}

func TestExciseSectionPreservesFileWithoutMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "installer.cfg")
	content := "[Include]\npypi_wheels =\n    requests==2.32.3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, ExciseSection(path, "local_wheels"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestCheckRequiredFilesListsAllMissing(t *testing.T) {
	staging := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staging, "LICENSE.txt"), []byte("mit"), 0644))

	err := CheckRequiredFiles(staging)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icon.ico")
	assert.Contains(t, err.Error(), "config")
	assert.NotContains(t, err.Error(), "LICENSE.txt")
}

func TestCheckRequiredFilesAllPresent(t *testing.T) {
	staging := t.TempDir()
	for _, name := range RequiredFiles {
		require.NoError(t, os.WriteFile(filepath.Join(staging, name), []byte("x"), 0644))
	}
	assert.NoError(t, CheckRequiredFiles(staging))
}
