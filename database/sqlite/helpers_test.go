package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	_ "modernc.org/sqlite"

	"github.com/sagarc03/cabinet"
	"github.com/sagarc03/cabinet/database/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with unique table names for test isolation
func setupTestRepo(t *testing.T) (cabinet.MetadataRepo, func()) {
	t.Helper()

	ctx := context.Background()

	// Use unique table names for each test to avoid conflicts
	suffix := getRandomString(t)
	tables := cabinet.Tables{
		Folders: fmt.Sprintf("folders_%s", suffix),
		Files:   fmt.Sprintf("files_%s", suffix),
	}

	// Connect to in-memory database
	db, err := sql.Open("sqlite", ":memory:")
	assert.NoError(t, err, "failed to open")

	err = sqlite.Migrate(ctx, db, tables)
	assert.NoError(t, err, "failed to migrate")

	repo, err := sqlite.NewRepo(db, tables)
	assert.NoError(t, err, "failed to create repo")

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup
}
