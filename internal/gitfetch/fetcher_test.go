package gitfetch

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGit installs a fake git binary that appends its arguments to a log
// file and echoes a fixed hash for rev-parse.
func stubGit(t *testing.T, exitCode int) string {
	t.Helper()
	binDir := t.TempDir()
	logFile := filepath.Join(binDir, "calls.log")
	script := `#!/bin/sh
echo "$@" >> "` + logFile + `"
case "$1" in
  clone) /bin/mkdir -p "$4" ;;
  rev-parse) echo "abc1234" ;;
esac
exit ` + strconv.Itoa(exitCode) + `
`
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "git"), []byte(script), 0755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logFile
}

func readCalls(t *testing.T, logFile string) []string {
	t.Helper()
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestCheckoutCommandSequence(t *testing.T) {
	logFile := stubGit(t, 0)

	f, err := NewFetcher(hclog.NewNullLogger())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "src")
	require.NoError(t, f.Checkout(context.Background(), "https://example.invalid/repo.git", "master", dir))

	calls := readCalls(t, logFile)
	require.Len(t, calls, 5)
	assert.Equal(t, "clone --depth=300 https://example.invalid/repo.git "+dir, calls[0])
	assert.Equal(t, "fetch --depth=300 origin +master:winstaller-build", calls[1])
	assert.Equal(t, "fetch --depth=300 --tags origin", calls[2])
	assert.Equal(t, "checkout --force winstaller-build", calls[3])
	assert.Equal(t, "fetch --update-shallow --tags origin", calls[4])
}

func TestCheckoutCloneFailure(t *testing.T) {
	stubGit(t, 1)

	f, err := NewFetcher(hclog.NewNullLogger())
	require.NoError(t, err)

	err = f.Checkout(context.Background(), "https://example.invalid/repo.git", "master", t.TempDir())
	require.Error(t, err)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "clone", fetchErr.Op)
}

func TestAbbrevHash(t *testing.T) {
	stubGit(t, 0)

	f, err := NewFetcher(hclog.NewNullLogger())
	require.NoError(t, err)

	hash, err := f.AbbrevHash(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "abc1234", hash)
}
