package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pitchforge/pitchforge/internal/db"
	"github.com/pitchforge/pitchforge/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"update_item_analysis": `UPDATE raw_items SET analysis = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"update_opp_status":    `UPDATE opportunities SET status = $1, updated_at = $2 WHERE id = $3`,
	"next_doc_version":     `SELECT COALESCE(MAX(version), 0) FROM documents WHERE opportunity_id = $1 AND document_type = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS raw_items (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	external_id        TEXT NOT NULL UNIQUE,
	parent_external_id TEXT,
	permalink          TEXT,
	subreddit          TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	body               TEXT NOT NULL DEFAULT '',
	is_comment         BOOLEAN NOT NULL DEFAULT false,
	author             TEXT,
	score              INTEGER NOT NULL DEFAULT 0,
	num_comments       INTEGER NOT NULL DEFAULT 0,
	created_utc        BIGINT NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'new_raw_lead',
	session_id         TEXT,
	analysis           JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS opportunities (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	title                TEXT NOT NULL,
	problem_summary      TEXT NOT NULL DEFAULT '',
	description          TEXT NOT NULL DEFAULT '',
	target_user          TEXT NOT NULL DEFAULT '',
	value_proposition    TEXT NOT NULL DEFAULT '',
	based_on_lead_ids    JSONB NOT NULL,
	status               TEXT NOT NULL DEFAULT 'opportunity_defined',
	monetization_score   INTEGER,
	market_size_score    INTEGER,
	feasibility_score    INTEGER,
	recommendation       TEXT,
	justification        TEXT,
	evidence             JSONB,
	total_posts_analyzed INTEGER NOT NULL DEFAULT 0,
	pain_point_frequency INTEGER NOT NULL DEFAULT 0,
	session_id           TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS solution_concepts (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	concept_name   TEXT NOT NULL,
	core_features  JSONB NOT NULL,
	selected       BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	opportunity_id   TEXT NOT NULL REFERENCES opportunities(id),
	document_type    TEXT NOT NULL,
	content_markdown TEXT NOT NULL,
	version          INTEGER NOT NULL,
	local_file_path  TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (opportunity_id, document_type, version)
);

CREATE INDEX IF NOT EXISTS idx_raw_items_status ON raw_items(status);
CREATE INDEX IF NOT EXISTS idx_raw_items_session ON raw_items(session_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_session ON opportunities(session_id);
CREATE INDEX IF NOT EXISTS idx_solution_concepts_opp ON solution_concepts(opportunity_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertRawItem(ctx context.Context, item *model.RawItem) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = model.LeadStatusNew
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO raw_items (id, external_id, parent_external_id, permalink, subreddit, title, body,
			is_comment, author, score, num_comments, created_utc, status, session_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (external_id) DO NOTHING`,
		item.ID, item.ExternalID, item.ParentExternalID, item.Permalink, item.Subreddit,
		item.Title, item.Body, item.IsComment, item.Author, item.Score, item.NumComments,
		item.CreatedUTC, string(item.Status), item.SessionID, now, now,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: upsert raw item %s", item.ExternalID)
	}
	return tag.RowsAffected() > 0, nil
}

// rawItemUpsertColumns is the column order used by the bulk COPY path.
var rawItemUpsertColumns = []string{
	"id", "external_id", "parent_external_id", "permalink", "subreddit", "title", "body",
	"is_comment", "author", "score", "num_comments", "created_utc", "status", "session_id",
	"created_at", "updated_at",
}

// UpsertRawItems bulk-inserts a scraped batch via COPY into a temp table and
// INSERT ... ON CONFLICT DO NOTHING. Returns the number of newly created rows.
func (s *PostgresStore) UpsertRawItems(ctx context.Context, items []*model.RawItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if item.Status == "" {
			item.Status = model.LeadStatusNew
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		rows[i] = []any{
			item.ID, item.ExternalID, item.ParentExternalID, item.Permalink, item.Subreddit,
			item.Title, item.Body, item.IsComment, item.Author, item.Score, item.NumComments,
			item.CreatedUTC, string(item.Status), item.SessionID, now, now,
		}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "raw_items",
		Columns:      rawItemUpsertColumns,
		ConflictKeys: []string{"external_id"},
		DoNothing:    true,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk upsert raw items")
	}
	return int(n), nil
}

const pgRawItemColumns = `id, external_id, parent_external_id, permalink, subreddit, title, body,
	is_comment, author, score, num_comments, created_utc, status, session_id, analysis, created_at, updated_at`

func (s *PostgresStore) GetRawItem(ctx context.Context, id string) (*model.RawItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgRawItemColumns+` FROM raw_items WHERE id = $1`, id)
	item, err := scanPgRawItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("raw item not found: %s", id)
		}
		return nil, err
	}
	return item, nil
}

func (s *PostgresStore) ListRawItems(ctx context.Context, filter LeadFilter) ([]model.RawItem, error) {
	query := `SELECT ` + pgRawItemColumns + ` FROM raw_items WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.SessionID != "" {
		query += fmt.Sprintf(` AND session_id = $%d`, argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	query += ` ORDER BY created_at ASC, external_id ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list raw items")
	}
	defer rows.Close()

	var items []model.RawItem
	for rows.Next() {
		item, err := scanPgRawItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list raw items iterate")
}

func (s *PostgresStore) UpdateRawItemAnalysis(ctx context.Context, id string, analysis *model.LeadAnalysis, status model.LeadStatus) error {
	var analysisJSON []byte
	if analysis != nil {
		b, err := json.Marshal(analysis)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal analysis")
		}
		analysisJSON = b
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE raw_items SET analysis = $1, status = $2, updated_at = $3 WHERE id = $4`,
		analysisJSON, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update raw item analysis %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("raw item not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateRawItemStatus(ctx context.Context, ids []string, status model.LeadStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE raw_items SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		string(status), time.Now().UTC(), ids,
	)
	return eris.Wrap(err, "postgres: update raw item statuses")
}

func (s *PostgresStore) CountLeadsByStatus(ctx context.Context, sessionID string) (map[model.LeadStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM raw_items`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = $1`
		args = append(args, sessionID)
	}
	query += ` GROUP BY status`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count leads by status")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count leads iterate")
}

func (s *PostgresStore) CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, error) {
	if opp.ID == "" {
		opp.ID = uuid.New().String()
	}
	if opp.Status == "" {
		opp.Status = model.OpportunityStatusDefined
	}
	now := time.Now().UTC()
	opp.CreatedAt = now
	opp.UpdatedAt = now

	leadIDsJSON, err := json.Marshal(opp.BasedOnLeadIDs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal lead ids")
	}

	var evidenceJSON []byte
	if opp.Evidence != nil {
		evidenceJSON, err = json.Marshal(opp.Evidence)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal evidence")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO opportunities (id, title, problem_summary, description, target_user, value_proposition,
			based_on_lead_ids, status, evidence, total_posts_analyzed, pain_point_frequency, session_id,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		opp.ID, opp.Title, opp.ProblemSummary, opp.Description, opp.TargetUser, opp.ValueProposition,
		leadIDsJSON, string(opp.Status), evidenceJSON, opp.TotalPostsAnalyzed,
		opp.PainPointFrequency, opp.SessionID, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert opportunity")
	}
	return opp, nil
}

const pgOpportunityColumns = `id, title, problem_summary, description, target_user, value_proposition,
	based_on_lead_ids, status, monetization_score, market_size_score, feasibility_score,
	recommendation, justification, evidence, total_posts_analyzed, pain_point_frequency,
	session_id, created_at, updated_at`

func (s *PostgresStore) GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgOpportunityColumns+` FROM opportunities WHERE id = $1`, id)
	opp, err := scanPgOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("opportunity not found: %s", id)
		}
		return nil, err
	}

	concepts, err := s.ListSolutionConcepts(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range concepts {
		if concepts[i].Selected {
			opp.SelectedConcept = &concepts[i]
			break
		}
	}
	return opp, nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error) {
	query := `SELECT ` + pgOpportunityColumns + ` FROM opportunities WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.SessionID != "" {
		query += fmt.Sprintf(` AND session_id = $%d`, argIdx)
		args = append(args, filter.SessionID)
		argIdx++
	}
	query += ` ORDER BY created_at ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, argIdx)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var opps []model.Opportunity
	for rows.Next() {
		opp, err := scanPgOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	return opps, eris.Wrap(rows.Err(), "postgres: list opportunities iterate")
}

func (s *PostgresStore) UpdateOpportunityValidation(ctx context.Context, id string, v *model.Validation, status model.OpportunityStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE opportunities SET monetization_score = $1, market_size_score = $2, feasibility_score = $3,
			recommendation = $4, justification = $5, status = $6, updated_at = $7 WHERE id = $8`,
		v.MonetizationScore, v.MarketSizeScore, v.FeasibilityScore,
		v.Recommendation, v.Justification, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update opportunity validation %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("opportunity not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateOpportunityStatus(ctx context.Context, id string, status model.OpportunityStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE opportunities SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update opportunity status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("opportunity not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CountOpportunitiesByStatus(ctx context.Context, sessionID string) (map[model.OpportunityStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM opportunities`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = $1`
		args = append(args, sessionID)
	}
	query += ` GROUP BY status`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count opportunities by status")
	}
	defer rows.Close()

	counts := make(map[model.OpportunityStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity count")
		}
		counts[model.OpportunityStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count opportunities iterate")
}

// CreateSolutionConcepts bulk-inserts via COPY; concepts are write-once.
func (s *PostgresStore) CreateSolutionConcepts(ctx context.Context, opportunityID string, concepts []model.SolutionConcept) ([]model.SolutionConcept, error) {
	now := time.Now().UTC()
	out := make([]model.SolutionConcept, len(concepts))
	rows := make([][]any, len(concepts))
	for i, c := range concepts {
		c.ID = uuid.New().String()
		c.OpportunityID = opportunityID
		c.CreatedAt = now

		featuresJSON, err := json.Marshal(c.CoreFeatures)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal core features")
		}
		rows[i] = []any{c.ID, c.OpportunityID, c.Name, featuresJSON, c.Selected, now}
		out[i] = c
	}

	_, err := db.CopyFrom(ctx, s.pool, "solution_concepts",
		[]string{"id", "opportunity_id", "concept_name", "core_features", "selected", "created_at"},
		rows,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert solution concepts")
	}
	return out, nil
}

func (s *PostgresStore) ListSolutionConcepts(ctx context.Context, opportunityID string) ([]model.SolutionConcept, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, opportunity_id, concept_name, core_features, selected, created_at
		 FROM solution_concepts WHERE opportunity_id = $1 ORDER BY created_at ASC, id ASC`,
		opportunityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list solution concepts")
	}
	defer rows.Close()

	var concepts []model.SolutionConcept
	for rows.Next() {
		var c model.SolutionConcept
		var featuresJSON []byte
		if err := rows.Scan(&c.ID, &c.OpportunityID, &c.Name, &featuresJSON, &c.Selected, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan solution concept")
		}
		if err := json.Unmarshal(featuresJSON, &c.CoreFeatures); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal core features")
		}
		concepts = append(concepts, c)
	}
	return concepts, eris.Wrap(rows.Err(), "postgres: list solution concepts iterate")
}

func (s *PostgresStore) SelectSolutionConcept(ctx context.Context, opportunityID, conceptID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE solution_concepts SET selected = false WHERE opportunity_id = $1`, opportunityID,
	); err != nil {
		return eris.Wrap(err, "postgres: clear selected concepts")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE solution_concepts SET selected = true WHERE id = $1 AND opportunity_id = $2`,
		conceptID, opportunityID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: select concept %s", conceptID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("solution concept not found: %s", conceptID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit select concept")
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, opportunity_id, document_type, content_markdown, version, local_file_path, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.OpportunityID, string(doc.Type), doc.Markdown, doc.Version, doc.LocalPath, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert document")
	}
	return doc, nil
}

func (s *PostgresStore) NextDocumentVersion(ctx context.Context, opportunityID string, docType model.DocumentType) (int, error) {
	var maxVersion int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM documents WHERE opportunity_id = $1 AND document_type = $2`,
		opportunityID, string(docType),
	).Scan(&maxVersion)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: next document version")
	}
	return maxVersion + 1, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, opportunityID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, opportunity_id, document_type, content_markdown, version, local_file_path, created_at, updated_at
		 FROM documents WHERE opportunity_id = $1 ORDER BY document_type ASC, version ASC`,
		opportunityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var path *string
		if err := rows.Scan(&d.ID, &d.OpportunityID, &d.Type, &d.Markdown, &d.Version, &path, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if path != nil {
			d.LocalPath = *path
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) UpdateDocumentPath(ctx context.Context, docID, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET local_file_path = $1, updated_at = $2 WHERE id = $3`,
		path, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document path %s", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

// scan helpers

func scanPgRawItem(row pgx.Row) (*model.RawItem, error) {
	var item model.RawItem
	var parentID, permalink, author, sessionID *string
	var analysisJSON []byte

	err := row.Scan(&item.ID, &item.ExternalID, &parentID, &permalink, &item.Subreddit,
		&item.Title, &item.Body, &item.IsComment, &author, &item.Score, &item.NumComments,
		&item.CreatedUTC, &item.Status, &sessionID, &analysisJSON, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan raw item")
	}

	if parentID != nil {
		item.ParentExternalID = *parentID
	}
	if permalink != nil {
		item.Permalink = *permalink
	}
	if author != nil {
		item.Author = *author
	}
	if sessionID != nil {
		item.SessionID = *sessionID
	}
	if len(analysisJSON) > 0 {
		item.Analysis = &model.LeadAnalysis{}
		if err := json.Unmarshal(analysisJSON, item.Analysis); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal analysis")
		}
	}
	return &item, nil
}

func scanPgOpportunity(row pgx.Row) (*model.Opportunity, error) {
	var opp model.Opportunity
	var leadIDsJSON, evidenceJSON []byte
	var monetization, marketSize, feasibility *int
	var recommendation, justification, sessionID *string

	err := row.Scan(&opp.ID, &opp.Title, &opp.ProblemSummary, &opp.Description, &opp.TargetUser,
		&opp.ValueProposition, &leadIDsJSON, &opp.Status, &monetization, &marketSize, &feasibility,
		&recommendation, &justification, &evidenceJSON, &opp.TotalPostsAnalyzed,
		&opp.PainPointFrequency, &sessionID, &opp.CreatedAt, &opp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan opportunity")
	}

	if err := json.Unmarshal(leadIDsJSON, &opp.BasedOnLeadIDs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal lead ids")
	}
	if monetization != nil {
		opp.MonetizationScore = *monetization
	}
	if marketSize != nil {
		opp.MarketSizeScore = *marketSize
	}
	if feasibility != nil {
		opp.FeasibilityScore = *feasibility
	}
	if recommendation != nil {
		opp.Recommendation = *recommendation
	}
	if justification != nil {
		opp.Justification = *justification
	}
	if sessionID != nil {
		opp.SessionID = *sessionID
	}
	if len(evidenceJSON) > 0 {
		opp.Evidence = &model.Evidence{}
		if err := json.Unmarshal(evidenceJSON, opp.Evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence")
		}
	}
	return &opp, nil
}
