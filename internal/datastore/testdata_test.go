package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const csvHeader = "id,first_name,last_name,email,gender,ip_address\n"

var baseModTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// usersCSV renders n rows with ids 1..n.
func usersCSV(n int) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d,First%d,Last%d,user%d@example.com,Female,10.0.0.%d\n", i, i, i, i, i%255)
	}
	return b.String()
}

// writeSource atomically replaces path with content and pins its mtime to
// baseModTime plus offset, so tests never depend on filesystem timestamp
// granularity or observe a half-written file.
func writeSource(t *testing.T, path, content string, offset time.Duration) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	mod := baseModTime.Add(offset)
	require.NoError(t, os.Chtimes(tmp, mod, mod))
	require.NoError(t, os.Rename(tmp, path))
}

func newSourcePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "users.csv")
}
