//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresSource_WhenQueried_ThenReturnsColumnsAndRows(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to cleanup postgres container: %v", err)
		}
	}()

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := OpenPostgres(ctx, url)
	require.NoError(t, err)
	source := NewPostgresSource(pool)
	defer source.Close()

	_, err = pool.Exec(ctx, `
		CREATE TABLE unified_verified_deal (provider_id TEXT, client_id TEXT, piece_size BIGINT);
		INSERT INTO unified_verified_deal VALUES ('f01', 'c1', 10), ('f01', 'c2', 5), ('f02', 'c1', 7);`)
	require.NoError(t, err)

	// Act
	data, err := source.Query(ctx, models.TableProvidersWeekly,
		`SELECT provider_id AS provider, SUM(piece_size) AS total FROM unified_verified_deal GROUP BY provider_id ORDER BY provider_id`)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.TableProvidersWeekly, data.Table)
	assert.Equal(t, []string{"provider", "total"}, data.Columns)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "f01", data.Rows[0][0])
	assert.NoError(t, source.Ping(ctx))
}
