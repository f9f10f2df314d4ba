package runners

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dhima/filplus-aggregator/internal/aggregation"
	"github.com/dhima/filplus-aggregator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `{
  "runners": [
    {
      "name": "WeeklyAccRunner",
      "depends": ["weekly"],
      "outputs": [{"table": "weekly_acc", "from": "derived", "query": "SELECT * FROM weekly"}]
    },
    {
      "name": "WeeklyRunner",
      "outputs": [{"table": "weekly", "query": "SELECT 1"}]
    }
  ]
}`

func TestParseManifest_WhenValid_ThenBuildsRunnersInOrder(t *testing.T) {
	// Act
	runners, err := ParseManifest([]byte(validManifest))

	// Assert
	require.NoError(t, err)
	require.Len(t, runners, 2)
	assert.Equal(t, "WeeklyAccRunner", aggregation.NameOf(runners[0]))
	assert.Equal(t, []models.LogicalTable{"weekly"}, runners[0].DependingTables())
	assert.Equal(t, []models.LogicalTable{"weekly_acc"}, runners[0].FilledTables())

	plan := aggregation.Plan(runners)
	require.Len(t, plan.Order, 2)
	assert.Equal(t, "WeeklyRunner", plan.Order[0].Name)
}

func TestParseManifest_WhenFromOmitted_ThenDefaultsToSource(t *testing.T) {
	// Act
	runners, err := ParseManifest([]byte(validManifest))

	// Assert
	require.NoError(t, err)
	qr, ok := runners[1].(*QueryRunner)
	require.True(t, ok)
	assert.Equal(t, OriginSource, qr.outputs[0].From)
}

func TestParseManifest_WhenSchemaViolated_ThenReturnsValidationError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing runners", raw: `{}`},
		{name: "missing outputs", raw: `{"runners":[{"name":"A"}]}`},
		{name: "empty outputs", raw: `{"runners":[{"name":"A","outputs":[]}]}`},
		{name: "bad table name", raw: `{"runners":[{"name":"A","outputs":[{"table":"Drop Table","query":"x"}]}]}`},
		{name: "unknown origin", raw: `{"runners":[{"name":"A","outputs":[{"table":"a","from":"cache","query":"x"}]}]}`},
		{name: "unknown field", raw: `{"runners":[{"name":"A","extra":1,"outputs":[{"table":"a","query":"x"}]}]}`},
		{name: "not json", raw: `runners:`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := ParseManifest([]byte(tt.raw))

			// Assert
			require.Error(t, err)
			assert.IsType(t, ValidationError{}, err)
		})
	}
}

func TestLoadManifest_WhenFileMissing_ThenReturnsError(t *testing.T) {
	// Act
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.json"))

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read runner manifest")
}

func TestBuild_WhenPathSet_ThenLoadsManifest(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "runners.json")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o600))

	// Act
	runners, err := Build(path)

	// Assert
	require.NoError(t, err)
	assert.Len(t, runners, 2)
}

func TestBuild_WhenPathEmpty_ThenReturnsCatalogue(t *testing.T) {
	// Act
	runners, err := Build("")

	// Assert
	require.NoError(t, err)
	assert.Len(t, runners, len(Catalogue()))
}
