package e2e_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	_ "modernc.org/sqlite"

	"github.com/sagarc03/cabinet"
	"github.com/sagarc03/cabinet/database/postgres"
	"github.com/sagarc03/cabinet/database/sqlite"
	cabinethttp "github.com/sagarc03/cabinet/http"
)

// memoryObjectStore is an in-process cabinet.ObjectStorage. It lets the full
// HTTP stack run without an S3 server; presigned URLs are fake but carry the
// object key so the two-phase flow can be driven by hand.
type memoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	bucket  string
}

func newMemoryObjectStore(bucket string) *memoryObjectStore {
	return &memoryObjectStore{
		objects: make(map[string][]byte),
		bucket:  bucket,
	}
}

func (m *memoryObjectStore) Put(ctx context.Context, key, _ string, content io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, cabinet.ErrObjectMissing)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryObjectStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjectStore) PresignPut(_ context.Context, key, _ string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://store.test/%s/%s?X-Amz-Expires=%d", m.bucket, key, int(ttl.Seconds())), nil
}

func (m *memoryObjectStore) PresignGet(_ context.Context, key, _, _ string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://store.test/%s/%s?X-Amz-Expires=%d", m.bucket, key, int(ttl.Seconds())), nil
}

func (m *memoryObjectStore) EnsureBucket(ctx context.Context) error {
	return ctx.Err()
}

func (m *memoryObjectStore) Bucket() string {
	return m.bucket
}

// putDirect plays the role of the client PUT against a presigned upload URL.
func (m *memoryObjectStore) putDirect(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *memoryObjectStore) objectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// startServer wires repo and storage through the real service and router and
// serves them over httptest.
func startServer(t *testing.T, repo cabinet.MetadataRepo, store *memoryObjectStore) string {
	t.Helper()

	service, err := cabinet.NewService(repo, store, cabinet.ServiceConfig{})
	require.NoError(t, err)
	require.NoError(t, service.InitBucket(context.Background()))

	handler := cabinethttp.NewHandler(&cabinethttp.HandlerConfig{MaxUploadSize: 50 << 20}, service)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return server.URL
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func uniqueTables(t *testing.T) cabinet.Tables {
	t.Helper()
	suffix := getRandomString(t)
	return cabinet.Tables{
		Folders: fmt.Sprintf("folders_%s", suffix),
		Files:   fmt.Sprintf("files_%s", suffix),
	}
}

func newSQLiteRepo(t *testing.T) cabinet.MetadataRepo {
	t.Helper()

	ctx := context.Background()
	tables := uniqueTables(t)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(ctx, db, tables))

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err)

	return repo
}

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
)

// getSharedPostgresPool starts one container for the whole package.
func getSharedPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			_ = testcontainers.TerminateContainer(pgContainer)
			t.Fatalf("could not connect to database: %v", err)
		}

		testPool = pool
	})

	return testPool
}

func newPostgresRepo(t *testing.T) cabinet.MetadataRepo {
	t.Helper()

	ctx := context.Background()
	pool := getSharedPostgresPool(t)
	tables := uniqueTables(t)

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	t.Cleanup(func() {
		_ = postgres.DropTables(ctx, pool, tables)
	})

	repo, err := postgres.NewRepo(pool, tables)
	require.NoError(t, err)

	return repo
}
