// Package graph persists the knowledge graph of entities and relationships
// backing article generation, with pgvector similarity search over entity
// embeddings.
package graph

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/util"
	"github.com/hunter-local/newsgraph/pkg/store"
)

const (
	defaultSimilarityThreshold = 0.8
	defaultSimilarityLimit     = 10
	defaultListLimit           = 20
)

// Store persists knowledge graph entities and relationships.
type Store struct {
	conn store.Conn
}

// New creates a graph store on the given connection tier.
func New(conn store.Conn) *Store {
	return &Store{conn: conn}
}

// CreateEntity inserts a new entity. Name and type are required; confidence
// defaults to 0 and is clamped into [0,1].
func (s *Store) CreateEntity(ctx context.Context, params CreateEntityParams) (*Entity, error) {
	if params.Name == "" || params.Type == "" {
		return nil, eris.Wrap(store.ErrValidation, "graph: entity name and type are required")
	}

	confidence := 0.0
	if params.ConfidenceScore != nil {
		confidence = util.Clamp01(*params.ConfidenceScore)
	}
	attributes := params.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	var embedding *pgvector.Vector
	if len(params.Embedding) > 0 {
		vec := pgvector.NewVector(params.Embedding)
		embedding = &vec
	}

	entity := Entity{
		Name:            params.Name,
		Type:            params.Type,
		Description:     params.Description,
		Attributes:      attributes,
		ConfidenceScore: confidence,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO kb_entities (name, type, description, attributes, embedding, confidence_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id, created_at, updated_at`,
		params.Name, params.Type, params.Description, attributes, embedding, confidence,
	).Scan(&entity.ID, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "graph: create entity")
	}

	return &entity, nil
}

// GetEntityByID returns a single entity.
func (s *Store) GetEntityByID(ctx context.Context, id int64) (*Entity, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT id, name, type, description, attributes, confidence_score, created_at, updated_at
		 FROM kb_entities WHERE id = $1`,
		id,
	)
	entity, err := scanEntity(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "graph: entity %d", id)
		}
		return nil, eris.Wrapf(err, "graph: get entity %d", id)
	}
	return entity, nil
}

// GetEntities lists entities. With an embedding set the query is delegated to
// the store's vector similarity operator; results come back ordered by
// descending similarity, bounded by threshold and limit.
func (s *Store) GetEntities(ctx context.Context, filter EntityFilter) ([]Entity, error) {
	if len(filter.Embedding) > 0 {
		return s.getSimilarEntities(ctx, filter)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := store.Builder.
		Select("id", "name", "type", "description", "attributes", "confidence_score", "created_at", "updated_at").
		From("kb_entities").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if filter.Type != "" {
		q = q.Where(sq.Eq{"type": filter.Type})
	}
	if filter.Search != "" {
		q = q.Where(sq.ILike{"name": "%" + filter.Search + "%"})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "graph: build entity query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "graph: list entities")
	}
	defer rows.Close()

	return collectEntities(rows)
}

func (s *Store) getSimilarEntities(ctx context.Context, filter EntityFilter) ([]Entity, error) {
	threshold := filter.Threshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSimilarityLimit
	}

	embedding := pgvector.NewVector(filter.Embedding)

	sql := `SELECT id, name, type, description, attributes, confidence_score, created_at, updated_at
		 FROM kb_entities
		 WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2`
	args := []any{embedding, threshold}
	if filter.Type != "" {
		sql += ` AND type = $3 ORDER BY embedding <=> $1 LIMIT $4`
		args = append(args, filter.Type, limit)
	} else {
		sql += ` ORDER BY embedding <=> $1 LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "graph: similarity search")
	}
	defer rows.Close()

	return collectEntities(rows)
}

// UpdateEntity applies re-scoring or attribute enrichment to an existing
// entity. Entities are never deleted.
func (s *Store) UpdateEntity(ctx context.Context, id int64, params UpdateEntityParams) (*Entity, error) {
	q := store.Builder.
		Update("kb_entities").
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, type, description, attributes, confidence_score, created_at, updated_at")

	if params.Description != nil {
		q = q.Set("description", *params.Description)
	}
	if params.Attributes != nil {
		q = q.Set("attributes", params.Attributes)
	}
	if len(params.Embedding) > 0 {
		q = q.Set("embedding", pgvector.NewVector(params.Embedding))
	}
	if params.ConfidenceScore != nil {
		q = q.Set("confidence_score", util.Clamp01(*params.ConfidenceScore))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "graph: build entity update")
	}

	entity, err := scanEntity(s.conn.QueryRow(ctx, sql, args...))
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "graph: entity %d", id)
		}
		return nil, eris.Wrapf(err, "graph: update entity %d", id)
	}
	return entity, nil
}

// CreateRelationship inserts a directed edge between two existing entities.
// Endpoint existence is verified here rather than left to the foreign keys,
// so the invariant holds even against a backing store without them.
func (s *Store) CreateRelationship(ctx context.Context, params CreateRelationshipParams) (*Relationship, error) {
	if params.SourceEntityID == 0 || params.TargetEntityID == 0 || params.RelationshipType == "" {
		return nil, eris.Wrap(store.ErrValidation, "graph: source, target and relationship type are required")
	}

	if err := s.verifyEntitiesExist(ctx, params.SourceEntityID, params.TargetEntityID); err != nil {
		return nil, err
	}

	strength := 0.5
	if params.Strength != nil {
		strength = util.Clamp01(*params.Strength)
	}
	attributes := params.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	rel := Relationship{
		SourceEntityID:   params.SourceEntityID,
		TargetEntityID:   params.TargetEntityID,
		RelationshipType: params.RelationshipType,
		Strength:         strength,
		Context:          params.Context,
		TemporalStart:    params.TemporalStart,
		TemporalEnd:      params.TemporalEnd,
		Attributes:       attributes,
	}
	err := s.conn.QueryRow(ctx,
		`INSERT INTO kb_relationships
		   (source_entity_id, target_entity_id, relationship_type, strength, context, temporal_start, temporal_end, attributes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		 RETURNING id, created_at, updated_at`,
		params.SourceEntityID, params.TargetEntityID, params.RelationshipType, strength,
		params.Context, params.TemporalStart, params.TemporalEnd, attributes,
	).Scan(&rel.ID, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, eris.Wrap(store.ErrNotFound, "graph: relationship endpoint vanished")
		}
		return nil, eris.Wrap(err, "graph: create relationship")
	}

	return &rel, nil
}

func (s *Store) verifyEntitiesExist(ctx context.Context, ids ...int64) error {
	rows, err := s.conn.Query(ctx,
		`SELECT id FROM kb_entities WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return eris.Wrap(err, "graph: verify entities")
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return eris.Wrap(err, "graph: scan entity id")
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "graph: verify entities")
	}

	for _, id := range ids {
		if !found[id] {
			return eris.Wrapf(store.ErrNotFound, "graph: entity %d", id)
		}
	}
	return nil
}

// GetRelationshipsForEntity returns every edge touching the entity, whether
// it is the source or the target.
func (s *Store) GetRelationshipsForEntity(ctx context.Context, entityID int64) ([]Relationship, error) {
	rows, err := s.conn.Query(ctx,
		relationshipSelect+` WHERE r.source_entity_id = $1 OR r.target_entity_id = $1
		 ORDER BY r.created_at DESC`,
		entityID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "graph: relationships for entity %d", entityID)
	}
	defer rows.Close()

	return collectRelationships(rows)
}

// ListRelationships returns edges matching the filter.
func (s *Store) ListRelationships(ctx context.Context, filter RelationshipFilter) ([]Relationship, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := store.Builder.
		Select(relationshipColumns...).
		From("kb_relationships r").
		Join("kb_entities s ON s.id = r.source_entity_id").
		Join("kb_entities t ON t.id = r.target_entity_id").
		OrderBy("r.created_at DESC").
		Limit(uint64(limit))
	if filter.SourceEntityID != nil {
		q = q.Where(sq.Eq{"r.source_entity_id": *filter.SourceEntityID})
	}
	if filter.TargetEntityID != nil {
		q = q.Where(sq.Eq{"r.target_entity_id": *filter.TargetEntityID})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"r.relationship_type": filter.Type})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "graph: build relationship query")
	}
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "graph: list relationships")
	}
	defer rows.Close()

	return collectRelationships(rows)
}

// CountEntities returns the total number of entities.
func (s *Store) CountEntities(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM kb_entities`).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "graph: count entities")
	}
	return count, nil
}

var relationshipColumns = []string{
	"r.id", "r.source_entity_id", "r.target_entity_id", "r.relationship_type",
	"r.strength", "r.context", "r.temporal_start", "r.temporal_end", "r.attributes",
	"r.created_at", "r.updated_at",
	"s.name", "s.type", "t.name", "t.type",
}

const relationshipSelect = `SELECT r.id, r.source_entity_id, r.target_entity_id, r.relationship_type,
		   r.strength, r.context, r.temporal_start, r.temporal_end, r.attributes,
		   r.created_at, r.updated_at,
		   s.name, s.type, t.name, t.type
		 FROM kb_relationships r
		 JOIN kb_entities s ON s.id = r.source_entity_id
		 JOIN kb_entities t ON t.id = r.target_entity_id`

func scanEntity(row pgx.Row) (*Entity, error) {
	var e Entity
	err := row.Scan(
		&e.ID, &e.Name, &e.Type, &e.Description, &e.Attributes,
		&e.ConfidenceScore, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEntities(rows pgx.Rows) ([]Entity, error) {
	entities := make([]Entity, 0)
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "graph: scan entity")
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "graph: iterate entities")
	}
	return entities, nil
}

func collectRelationships(rows pgx.Rows) ([]Relationship, error) {
	relationships := make([]Relationship, 0)
	for rows.Next() {
		var r Relationship
		err := rows.Scan(
			&r.ID, &r.SourceEntityID, &r.TargetEntityID, &r.RelationshipType,
			&r.Strength, &r.Context, &r.TemporalStart, &r.TemporalEnd, &r.Attributes,
			&r.CreatedAt, &r.UpdatedAt,
			&r.SourceName, &r.SourceType, &r.TargetName, &r.TargetType,
		)
		if err != nil {
			return nil, eris.Wrap(err, "graph: scan relationship")
		}
		relationships = append(relationships, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "graph: iterate relationships")
	}
	return relationships, nil
}
