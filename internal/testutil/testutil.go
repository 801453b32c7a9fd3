// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/penshort/usermcp/internal/model"
	"github.com/redis/go-redis/v9"
)

// UsersHeader is the canonical CSV header for the users dataset.
const UsersHeader = "id,first_name,last_name,email,gender,ip_address"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a user with sensible defaults derived from id.
func NewTestUser(id int64) model.User {
	return model.User{
		ID:        id,
		FirstName: fmt.Sprintf("First%d", id),
		LastName:  fmt.Sprintf("Last%d", id),
		Email:     fmt.Sprintf("user%d@example.com", id),
		Gender:    "Female",
		IPAddress: fmt.Sprintf("10.0.%d.%d", id/256, id%256),
	}
}

// NewTestUsers returns users with ids 1..n.
func NewTestUsers(n int) []model.User {
	users := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, NewTestUser(int64(i)))
	}
	return users
}

// UsersCSV renders users in the dataset's CSV layout.
func UsersCSV(users []model.User) string {
	var b strings.Builder
	b.WriteString(UsersHeader)
	b.WriteByte('\n')
	for _, u := range users {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%s\n", u.ID, u.FirstName, u.LastName, u.Email, u.Gender, u.IPAddress)
	}
	return b.String()
}

// WriteUsersCSV writes users to a fresh CSV file in a temp dir and
// returns its path.
func WriteUsersCSV(t testing.TB, users []model.User) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.csv")
	WriteFile(t, path, UsersCSV(users), time.Now().Add(-time.Minute))
	return path
}

// WriteFile atomically replaces path with content and sets its mtime.
func WriteFile(t testing.TB, path, content string, modTime time.Time) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := os.Chtimes(tmp, modTime, modTime); err != nil {
		t.Fatalf("set mtime: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}
}
