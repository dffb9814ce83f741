package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pitchforge/pitchforge/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS raw_items (
	id                 TEXT PRIMARY KEY,
	external_id        TEXT NOT NULL,
	parent_external_id TEXT,
	permalink          TEXT,
	subreddit          TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	body               TEXT NOT NULL DEFAULT '',
	is_comment         INTEGER NOT NULL DEFAULT 0,
	author             TEXT,
	score              INTEGER NOT NULL DEFAULT 0,
	num_comments       INTEGER NOT NULL DEFAULT 0,
	created_utc        INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'new_raw_lead',
	session_id         TEXT,
	analysis           TEXT,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS opportunities (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	problem_summary      TEXT NOT NULL DEFAULT '',
	description          TEXT NOT NULL DEFAULT '',
	target_user          TEXT NOT NULL DEFAULT '',
	value_proposition    TEXT NOT NULL DEFAULT '',
	based_on_lead_ids    TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'opportunity_defined',
	monetization_score   INTEGER,
	market_size_score    INTEGER,
	feasibility_score    INTEGER,
	recommendation       TEXT,
	justification        TEXT,
	evidence             TEXT,
	total_posts_analyzed INTEGER NOT NULL DEFAULT 0,
	pain_point_frequency INTEGER NOT NULL DEFAULT 0,
	session_id           TEXT,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS solution_concepts (
	id             TEXT PRIMARY KEY,
	opportunity_id TEXT NOT NULL REFERENCES opportunities(id),
	concept_name   TEXT NOT NULL,
	core_features  TEXT NOT NULL,
	selected       INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	opportunity_id   TEXT NOT NULL REFERENCES opportunities(id),
	document_type    TEXT NOT NULL,
	content_markdown TEXT NOT NULL,
	version          INTEGER NOT NULL,
	local_file_path  TEXT,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_raw_items_external_id ON raw_items(external_id);
CREATE INDEX IF NOT EXISTS idx_raw_items_status ON raw_items(status);
CREATE INDEX IF NOT EXISTS idx_raw_items_session ON raw_items(session_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_session ON opportunities(session_id);
CREATE INDEX IF NOT EXISTS idx_solution_concepts_opp ON solution_concepts(opportunity_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_opp_type_version ON documents(opportunity_id, document_type, version);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertRawItem inserts a raw item keyed by its external ID. Re-scraping the
// same post or comment is a no-op; the stored row and its status survive.
// Returns true when a new row was created.
func (s *SQLiteStore) UpsertRawItem(ctx context.Context, item *model.RawItem) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = model.LeadStatusNew
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_items (id, external_id, parent_external_id, permalink, subreddit, title, body,
			is_comment, author, score, num_comments, created_utc, status, session_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		item.ID, item.ExternalID, item.ParentExternalID, item.Permalink, item.Subreddit,
		item.Title, item.Body, item.IsComment, item.Author, item.Score, item.NumComments,
		item.CreatedUTC, string(item.Status), item.SessionID, now, now,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: upsert raw item %s", item.ExternalID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

// UpsertRawItems inserts a batch of raw items, skipping ones already stored.
// Returns the number of newly created rows.
func (s *SQLiteStore) UpsertRawItems(ctx context.Context, items []*model.RawItem) (int, error) {
	var created int
	for _, item := range items {
		ok, err := s.UpsertRawItem(ctx, item)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

const rawItemColumns = `id, external_id, parent_external_id, permalink, subreddit, title, body,
	is_comment, author, score, num_comments, created_utc, status, session_id, analysis, created_at, updated_at`

func (s *SQLiteStore) GetRawItem(ctx context.Context, id string) (*model.RawItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rawItemColumns+` FROM raw_items WHERE id = ?`, id)
	return scanRawItem(row)
}

func (s *SQLiteStore) ListRawItems(ctx context.Context, filter LeadFilter) ([]model.RawItem, error) {
	query := `SELECT ` + rawItemColumns + ` FROM raw_items WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	query += ` ORDER BY created_at ASC, external_id ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list raw items")
	}
	defer rows.Close()

	var items []model.RawItem
	for rows.Next() {
		item, err := scanRawItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list raw items iterate")
}

func (s *SQLiteStore) UpdateRawItemAnalysis(ctx context.Context, id string, analysis *model.LeadAnalysis, status model.LeadStatus) error {
	var analysisJSON any
	if analysis != nil {
		b, err := json.Marshal(analysis)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal analysis")
		}
		analysisJSON = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE raw_items SET analysis = ?, status = ?, updated_at = ? WHERE id = ?`,
		analysisJSON, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update raw item analysis %s", id)
	}
	return checkRowsAffected(res, "raw item", id)
}

func (s *SQLiteStore) UpdateRawItemStatus(ctx context.Context, ids []string, status model.LeadStatus) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+2)
	args = append(args, string(status), time.Now().UTC())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE raw_items SET status = ?, updated_at = ? WHERE id IN (`+placeholders+`)`,
		args...,
	)
	return eris.Wrap(err, "sqlite: update raw item statuses")
}

func (s *SQLiteStore) CountLeadsByStatus(ctx context.Context, sessionID string) (map[model.LeadStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM raw_items`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads by status")
	}
	defer rows.Close()

	counts := make(map[model.LeadStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead count")
		}
		counts[model.LeadStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count leads iterate")
}

func (s *SQLiteStore) CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal lead ids")
	}

	var evidenceJSON any
	if opp.Evidence != nil {
		b, err := json.Marshal(opp.Evidence)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal evidence")
		}
		evidenceJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO opportunities (id, title, problem_summary, description, target_user, value_proposition,
			based_on_lead_ids, status, evidence, total_posts_analyzed, pain_point_frequency, session_id,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		opp.ID, opp.Title, opp.ProblemSummary, opp.Description, opp.TargetUser, opp.ValueProposition,
		string(leadIDsJSON), string(opp.Status), evidenceJSON, opp.TotalPostsAnalyzed,
		opp.PainPointFrequency, opp.SessionID, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert opportunity")
	}
	return opp, nil
}

const opportunityColumns = `id, title, problem_summary, description, target_user, value_proposition,
	based_on_lead_ids, status, monetization_score, market_size_score, feasibility_score,
	recommendation, justification, evidence, total_posts_analyzed, pain_point_frequency,
	session_id, created_at, updated_at`

func (s *SQLiteStore) GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id)
	opp, err := scanOpportunity(row)
	if err != nil {
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

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	query += ` ORDER BY created_at ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var opps []model.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	return opps, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}

func (s *SQLiteStore) UpdateOpportunityValidation(ctx context.Context, id string, v *model.Validation, status model.OpportunityStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET monetization_score = ?, market_size_score = ?, feasibility_score = ?,
			recommendation = ?, justification = ?, status = ?, updated_at = ? WHERE id = ?`,
		v.MonetizationScore, v.MarketSizeScore, v.FeasibilityScore,
		v.Recommendation, v.Justification, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update opportunity validation %s", id)
	}
	return checkRowsAffected(res, "opportunity", id)
}

func (s *SQLiteStore) UpdateOpportunityStatus(ctx context.Context, id string, status model.OpportunityStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update opportunity status %s", id)
	}
	return checkRowsAffected(res, "opportunity", id)
}

func (s *SQLiteStore) CountOpportunitiesByStatus(ctx context.Context, sessionID string) (map[model.OpportunityStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM opportunities`
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count opportunities by status")
	}
	defer rows.Close()

	counts := make(map[model.OpportunityStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity count")
		}
		counts[model.OpportunityStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count opportunities iterate")
}

func (s *SQLiteStore) CreateSolutionConcepts(ctx context.Context, opportunityID string, concepts []model.SolutionConcept) ([]model.SolutionConcept, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	out := make([]model.SolutionConcept, len(concepts))
	for i, c := range concepts {
		c.ID = uuid.New().String()
		c.OpportunityID = opportunityID
		c.CreatedAt = now

		featuresJSON, err := json.Marshal(c.CoreFeatures)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal core features")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO solution_concepts (id, opportunity_id, concept_name, core_features, selected, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.OpportunityID, c.Name, string(featuresJSON), c.Selected, now,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert solution concept")
		}
		out[i] = c
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit solution concepts")
	}
	return out, nil
}

func (s *SQLiteStore) ListSolutionConcepts(ctx context.Context, opportunityID string) ([]model.SolutionConcept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, opportunity_id, concept_name, core_features, selected, created_at
		 FROM solution_concepts WHERE opportunity_id = ? ORDER BY created_at ASC, id ASC`,
		opportunityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list solution concepts")
	}
	defer rows.Close()

	var concepts []model.SolutionConcept
	for rows.Next() {
		var c model.SolutionConcept
		var featuresJSON string
		if err := rows.Scan(&c.ID, &c.OpportunityID, &c.Name, &featuresJSON, &c.Selected, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan solution concept")
		}
		if err := json.Unmarshal([]byte(featuresJSON), &c.CoreFeatures); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal core features")
		}
		concepts = append(concepts, c)
	}
	return concepts, eris.Wrap(rows.Err(), "sqlite: list solution concepts iterate")
}

// SelectSolutionConcept marks one concept selected and clears the flag on
// the opportunity's other concepts.
func (s *SQLiteStore) SelectSolutionConcept(ctx context.Context, opportunityID, conceptID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE solution_concepts SET selected = 0 WHERE opportunity_id = ?`, opportunityID,
	); err != nil {
		return eris.Wrap(err, "sqlite: clear selected concepts")
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE solution_concepts SET selected = 1 WHERE id = ? AND opportunity_id = ?`,
		conceptID, opportunityID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: select concept %s", conceptID)
	}
	if err := checkRowsAffected(res, "solution concept", conceptID); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit select concept")
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, opportunity_id, document_type, content_markdown, version, local_file_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.OpportunityID, string(doc.Type), doc.Markdown, doc.Version, doc.LocalPath, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert document")
	}
	return doc, nil
}

// NextDocumentVersion returns one past the highest stored version for the
// opportunity and document type, starting at 1.
func (s *SQLiteStore) NextDocumentVersion(ctx context.Context, opportunityID string, docType model.DocumentType) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM documents WHERE opportunity_id = ? AND document_type = ?`,
		opportunityID, string(docType),
	)
	var maxVersion int
	if err := row.Scan(&maxVersion); err != nil {
		return 0, eris.Wrap(err, "sqlite: next document version")
	}
	return maxVersion + 1, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, opportunityID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, opportunity_id, document_type, content_markdown, version, local_file_path, created_at, updated_at
		 FROM documents WHERE opportunity_id = ? ORDER BY document_type ASC, version ASC`,
		opportunityID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var path sql.NullString
		if err := rows.Scan(&d.ID, &d.OpportunityID, &d.Type, &d.Markdown, &d.Version, &path, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		d.LocalPath = path.String
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) UpdateDocumentPath(ctx context.Context, docID, path string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET local_file_path = ?, updated_at = ? WHERE id = ?`,
		path, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document path %s", docID)
	}
	return checkRowsAffected(res, "document", docID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRawItem(row scannable) (*model.RawItem, error) {
	var item model.RawItem
	var parentID, permalink, author, sessionID, analysisJSON sql.NullString

	err := row.Scan(&item.ID, &item.ExternalID, &parentID, &permalink, &item.Subreddit,
		&item.Title, &item.Body, &item.IsComment, &author, &item.Score, &item.NumComments,
		&item.CreatedUTC, &item.Status, &sessionID, &analysisJSON, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("raw item not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan raw item")
	}

	item.ParentExternalID = parentID.String
	item.Permalink = permalink.String
	item.Author = author.String
	item.SessionID = sessionID.String

	if analysisJSON.Valid && analysisJSON.String != "" {
		item.Analysis = &model.LeadAnalysis{}
		if err := json.Unmarshal([]byte(analysisJSON.String), item.Analysis); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
		}
	}
	return &item, nil
}

func scanOpportunity(row scannable) (*model.Opportunity, error) {
	var opp model.Opportunity
	var leadIDsJSON string
	var monetization, marketSize, feasibility sql.NullInt64
	var recommendation, justification, evidenceJSON, sessionID sql.NullString

	err := row.Scan(&opp.ID, &opp.Title, &opp.ProblemSummary, &opp.Description, &opp.TargetUser,
		&opp.ValueProposition, &leadIDsJSON, &opp.Status, &monetization, &marketSize, &feasibility,
		&recommendation, &justification, &evidenceJSON, &opp.TotalPostsAnalyzed,
		&opp.PainPointFrequency, &sessionID, &opp.CreatedAt, &opp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("opportunity not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan opportunity")
	}

	if err := json.Unmarshal([]byte(leadIDsJSON), &opp.BasedOnLeadIDs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal lead ids")
	}
	opp.MonetizationScore = int(monetization.Int64)
	opp.MarketSizeScore = int(marketSize.Int64)
	opp.FeasibilityScore = int(feasibility.Int64)
	opp.Recommendation = recommendation.String
	opp.Justification = justification.String
	opp.SessionID = sessionID.String

	if evidenceJSON.Valid && evidenceJSON.String != "" {
		opp.Evidence = &model.Evidence{}
		if err := json.Unmarshal([]byte(evidenceJSON.String), opp.Evidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal evidence")
		}
	}
	return &opp, nil
}
