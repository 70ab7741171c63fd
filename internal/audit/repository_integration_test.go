//go:build integration

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/healthassist/healthassist/internal/database"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "healthassist_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/healthassist_test?sslmode=disable", host, port.Port())
	require.NoError(t, database.RunMigrations(dsn, "../../migrations"))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewRepository(pool)
}

func TestRepository_Turns(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, agent := range []string{"defineObjective", "scanFood", "scanFood"} {
		require.NoError(t, repo.InsertTurn(ctx, &TurnRecord{
			ID:        uuid.New(),
			AgentType: agent,
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// redelivery of the same event is a no-op
	dup := &TurnRecord{ID: uuid.New(), AgentType: "collectHealthMetrics", Status: "error", CreatedAt: base}
	require.NoError(t, repo.InsertTurn(ctx, dup))
	require.NoError(t, repo.InsertTurn(ctx, dup))

	all, total, err := repo.ListTurns(ctx, DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, all, 4)
	assert.False(t, all[0].CreatedAt.Before(all[3].CreatedAt))

	scans, total, err := repo.ListTurns(ctx, ListParams{AgentType: "scanFood", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, scans, 1)
	assert.True(t, base.Add(2*time.Minute).Equal(scans[0].CreatedAt))
}

func TestRepository_Scans(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertScan(ctx, &ScanRecord{
		Endpoint:  "analyze",
		Status:    "error",
		Error:     "Invalid analysis format",
		CreatedAt: time.Now().UTC(),
	}))

	scans, total, err := repo.ListScans(ctx, ListParams{Status: "error"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, scans, 1)
	assert.Equal(t, "Invalid analysis format", scans[0].Error)
	assert.NotEqual(t, uuid.Nil, scans[0].ID)
}
