package source

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Backend tests run against real servers when the addresses are set:
//
//	DASHCACHE_TEST_PG_DSN=postgres://... DASHCACHE_TEST_REDIS_ADDR=localhost:6379 go test ./source
func TestPostgres_Contract(t *testing.T) {
	dsn := os.Getenv("DASHCACHE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DASHCACHE_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })

	testContract(ctx, t, pg, pg)
}

func TestRedis_Contract(t *testing.T) {
	addr := os.Getenv("DASHCACHE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DASHCACHE_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := DialRedis(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	testContract(ctx, t, r, r)
}

func TestMemory_Contract(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	testContract(context.Background(), t, m, m)
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	t.Parallel()
	_, err := NewPostgres(context.Background(), "")
	assert.Error(t, err)
}

func TestDialRedis_RequiresAddr(t *testing.T) {
	t.Parallel()
	_, err := DialRedis(context.Background(), "")
	assert.Error(t, err)
}

// testContract checks the behaviour every Source shares, on a fresh org.
func testContract(ctx context.Context, t *testing.T, src Source, w Writer) {
	t.Helper()
	org := "test-" + uuid.NewString()
	require.NoError(t, Seed(ctx, w, org))

	got, err := src.FetchByKey(ctx, org, Organizations, org)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Demo "+org, got.Text("name"))

	missing, err := src.FetchByKey(ctx, org, Organizations, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	emps, err := src.FetchByOrg(ctx, org, Employees)
	require.NoError(t, err)
	require.Len(t, emps, 4)
	for i := 1; i < len(emps); i++ {
		assert.Less(t, emps[i-1].ID, emps[i].ID, "results are ordered by id")
	}

	reports, err := src.Query(ctx, org, Employees, "managerId", "u-lead")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "e-1", reports[0].ID)

	none, err := src.FetchByOrg(ctx, "other-"+org, Employees)
	require.NoError(t, err)
	assert.Empty(t, none, "organizations are isolated")

	_, err = src.FetchByOrg(ctx, org, "payroll")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}
