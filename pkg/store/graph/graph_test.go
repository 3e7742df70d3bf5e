package graph

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hunter-local/newsgraph/pkg/store"
)

var entityColumns = []string{
	"id", "name", "type", "description", "attributes",
	"confidence_score", "created_at", "updated_at",
}

var relationshipRowColumns = []string{
	"id", "source_entity_id", "target_entity_id", "relationship_type",
	"strength", "context", "temporal_start", "temporal_end", "attributes",
	"created_at", "updated_at",
	"source_name", "source_type", "target_name", "target_type",
}

func TestCreateEntity_MissingNameOrType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	_, err = s.CreateEntity(context.Background(), CreateEntityParams{Type: "person"})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = s.CreateEntity(context.Background(), CreateEntityParams{Name: "Jane Doe"})
	assert.ErrorIs(t, err, store.ErrValidation)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEntity_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO kb_entities`).
		WithArgs("Hunter Library", "organization", "the local library", pgxmock.AnyArg(), pgxmock.AnyArg(), 0.9).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	confidence := 0.9
	entity, err := s.CreateEntity(context.Background(), CreateEntityParams{
		Name:            "Hunter Library",
		Type:            "organization",
		Description:     "the local library",
		ConfidenceScore: &confidence,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), entity.ID)
	assert.Equal(t, 0.9, entity.ConfidenceScore)
	assert.NotNil(t, entity.Attributes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEntity_ConfidenceClamped(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO kb_entities`).
		WithArgs("Main St Diner", "organization", "", pgxmock.AnyArg(), pgxmock.AnyArg(), 1.0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(8), now, now))

	confidence := 3.7
	entity, err := s.CreateEntity(context.Background(), CreateEntityParams{
		Name:            "Main St Diner",
		Type:            "organization",
		ConfidenceScore: &confidence,
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, entity.ConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntities_TypeAndSearchFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, name, type, description, attributes, confidence_score, created_at, updated_at FROM kb_entities WHERE type = \$1 AND name ILIKE \$2`).
		WithArgs("person", "%doe%").
		WillReturnRows(pgxmock.NewRows(entityColumns).
			AddRow(int64(1), "Jane Doe", "person", "", map[string]any{}, 0.8, now, now))

	entities, err := s.GetEntities(context.Background(), EntityFilter{Type: "person", Search: "doe"})

	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "Jane Doe", entities[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntities_SimilaritySearchDefaults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`WHERE embedding IS NOT NULL AND 1 - \(embedding <=> \$1\) >= \$2 ORDER BY embedding <=> \$1 LIMIT \$3`).
		WithArgs(pgxmock.AnyArg(), 0.8, 10).
		WillReturnRows(pgxmock.NewRows(entityColumns).
			AddRow(int64(2), "City Hall", "place", "", map[string]any{}, 0.7, now, now).
			AddRow(int64(3), "Town Hall", "place", "", map[string]any{}, 0.6, now, now))

	entities, err := s.GetEntities(context.Background(), EntityFilter{
		Embedding: []float32{0.1, 0.2, 0.3},
	})

	require.NoError(t, err)
	assert.Len(t, entities, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRelationship_TargetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`SELECT id FROM kb_entities WHERE id = ANY\(\$1\)`).
		WithArgs([]int64{1, 99}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err = s.CreateRelationship(context.Background(), CreateRelationshipParams{
		SourceEntityID:   1,
		TargetEntityID:   99,
		RelationshipType: "works_for",
	})

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRelationship_DefaultStrength(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT id FROM kb_entities WHERE id = ANY\(\$1\)`).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectQuery(`INSERT INTO kb_relationships`).
		WithArgs(int64(1), int64(2), "works_for", 0.5, "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))

	rel, err := s.CreateRelationship(context.Background(), CreateRelationshipParams{
		SourceEntityID:   1,
		TargetEntityID:   2,
		RelationshipType: "works_for",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), rel.ID)
	assert.Equal(t, 0.5, rel.Strength)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRelationshipsForEntity_SymmetricLookup(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)
	now := time.Now()

	// One edge where the entity is the source, one where it is the target.
	mock.ExpectQuery(`WHERE r\.source_entity_id = \$1 OR r\.target_entity_id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(relationshipRowColumns).
			AddRow(int64(1), int64(5), int64(9), "works_for", 0.8, "", nil, nil, map[string]any{}, now, now, "Jane Doe", "person", "City Hall", "organization").
			AddRow(int64(2), int64(3), int64(5), "located_in", 0.6, "", nil, nil, map[string]any{}, now, now, "Main St Diner", "organization", "Jane Doe", "person"))

	rels, err := s.GetRelationshipsForEntity(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, int64(5), rels[0].SourceEntityID)
	assert.Equal(t, int64(5), rels[1].TargetEntityID)
	assert.Equal(t, "City Hall", rels[0].TargetName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEntity_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := New(mock)

	mock.ExpectQuery(`UPDATE kb_entities SET`).
		WithArgs(pgxmock.AnyArg(), int64(404)).
		WillReturnRows(pgxmock.NewRows(entityColumns))

	desc := "updated"
	_, err = s.UpdateEntity(context.Background(), 404, UpdateEntityParams{Description: &desc})

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
