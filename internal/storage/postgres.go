package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/casetrack/internal/config"
	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// --- Registered cases ---

func (s *PostgresStore) CreateRegisteredCase(ctx context.Context, c *models.RegisteredCase) (string, error) {
	if err := validateRegisteredCase(c); err != nil {
		return "", err
	}
	c.ID = uuid.NewString()
	c.SubmittedOn = time.Now().UTC()
	c.Status = models.StatusNotFound
	c.MatchedWith = nil

	_, err := s.pool.Exec(ctx,
		`INSERT INTO registered_cases (id, submitted_by, name, father_name, age, complainant_name, complainant_mobile,
			national_id, last_seen, address, face_mesh, submitted_on, status, birth_marks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.SubmittedBy, c.Name, c.FatherName, c.Age, c.ComplainantName, c.ComplainantMobile,
		c.NationalID, c.LastSeen, c.Address, c.FaceMesh, c.SubmittedOn, c.Status, c.BirthMarks)
	if err != nil {
		return "", persistenceErr("create registered case", err)
	}
	return c.ID, nil
}

func (s *PostgresStore) GetRegisteredCase(ctx context.Context, id string) (*models.RegisteredCase, error) {
	c, err := scanRegisteredCase(s.pool.QueryRow(ctx,
		`SELECT `+registeredCaseColumns+` FROM registered_cases WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get registered case", err)
	}
	return c, nil
}

func (s *PostgresStore) GetRegisteredCaseDetail(ctx context.Context, id string) (models.CaseDetail, error) {
	d, err := scanCaseDetail(s.pool.QueryRow(ctx,
		`SELECT `+caseDetailColumns+` FROM registered_cases WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CaseDetail{}, nil
		}
		return models.CaseDetail{}, persistenceErr("get registered case detail", err)
	}
	return d, nil
}

const pgSubmitterMatch = `(submitted_by = $1 OR strpos(lower(submitted_by), lower($1)) > 0)`

func (s *PostgresStore) ListRegisteredCases(ctx context.Context, submitter string, filter models.StatusFilter) ([]models.CaseSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+caseSummaryColumns+` FROM registered_cases
		 WHERE `+pgSubmitterMatch+` AND status = ANY($2)
		 ORDER BY seq`,
		submitter, statusStrings(filter))
	if err != nil {
		return nil, persistenceErr("list registered cases", err)
	}
	defer rows.Close()

	var cases []models.CaseSummary
	for rows.Next() {
		cs, err := scanCaseSummary(rows)
		if err != nil {
			return nil, persistenceErr("scan case summary", err)
		}
		cases = append(cases, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list registered cases", err)
	}
	return cases, nil
}

// ListTrainingCases returns face meshes of the submitter's open cases.
func (s *PostgresStore) ListTrainingCases(ctx context.Context, submitter string) ([]models.TrainingRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, face_mesh FROM registered_cases WHERE submitted_by = $1 AND status = $2 ORDER BY seq`,
		submitter, models.StatusNotFound)
	if err != nil {
		return nil, persistenceErr("list training cases", err)
	}
	defer rows.Close()

	var out []models.TrainingRow
	for rows.Next() {
		var r models.TrainingRow
		if err := rows.Scan(&r.ID, &r.FaceMesh); err != nil {
			return nil, persistenceErr("scan training row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list training cases", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, submitter string, status models.Status) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM registered_cases WHERE `+pgSubmitterMatch+` AND status = $2`,
		submitter, status,
	).Scan(&count)
	if err != nil {
		return 0, persistenceErr("count registered cases", err)
	}
	return count, nil
}

func (s *PostgresStore) WriteGeneratedField(ctx context.Context, id string, field models.GeneratedField, text string) error {
	if err := validateGeneratedField(field); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE registered_cases SET %s = $1 WHERE id = $2`, field), text, id)
	if err != nil {
		return persistenceErr("write "+string(field), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registered case %s", errs.ErrNotFound, id)
	}
	return nil
}

// --- Public submissions ---

func (s *PostgresStore) CreatePublicSubmission(ctx context.Context, p *models.PublicSubmission) (string, error) {
	if err := validatePublicSubmission(p); err != nil {
		return "", err
	}
	p.ID = uuid.NewString()
	p.SubmittedOn = time.Now().UTC()
	if p.Status == "" {
		p.Status = models.StatusNotFound
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO public_submissions (id, submitted_by, face_mesh, location, mobile, email, status, birth_marks, submitted_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.SubmittedBy, p.FaceMesh, p.Location, p.Mobile, p.Email, p.Status, p.BirthMarks, p.SubmittedOn)
	if err != nil {
		return "", persistenceErr("create public submission", err)
	}
	return p.ID, nil
}

func (s *PostgresStore) GetPublicSubmission(ctx context.Context, id string) (*models.PublicSubmission, error) {
	p, err := scanPublicSubmission(s.pool.QueryRow(ctx,
		`SELECT `+publicSubmissionColumns+` FROM public_submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get public submission", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPublicSubmissionDetail(ctx context.Context, id string) (models.SubmissionDetail, error) {
	d, err := scanSubmissionDetail(s.pool.QueryRow(ctx,
		`SELECT `+submissionDetailColumns+` FROM public_submissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SubmissionDetail{}, nil
		}
		return models.SubmissionDetail{}, persistenceErr("get public submission detail", err)
	}
	return d, nil
}

func (s *PostgresStore) ListPublicSubmissions(ctx context.Context, filter models.StatusFilter, mode models.ProjectionMode) ([]models.SubmissionRow, error) {
	columns := submissionDisplayColumns
	if mode == models.ProjectionTraining {
		columns = "id, face_mesh"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM public_submissions WHERE status = ANY($1) ORDER BY seq`,
		statusStrings(filter))
	if err != nil {
		return nil, persistenceErr("list public submissions", err)
	}
	defer rows.Close()

	var out []models.SubmissionRow
	for rows.Next() {
		r, err := scanSubmissionRow(rows, mode)
		if err != nil {
			return nil, persistenceErr("scan public submission", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list public submissions", err)
	}
	return out, nil
}

// --- Matching ---

func (s *PostgresStore) UpdateStatusAndMatch(ctx context.Context, registeredID, publicID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return persistenceErr("begin match", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE public_submissions SET status = $1 WHERE id = $2 AND status = $3`,
		models.StatusFound, publicID, models.StatusNotFound)
	if err != nil {
		return classifyPgError("mark submission found", err)
	}
	if tag.RowsAffected() == 0 {
		return pgMissingOrConflict(ctx, tx, "public_submissions", "public submission", publicID)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE registered_cases SET status = $1, matched_with = $2
		 WHERE id = $3 AND status = $4 AND matched_with IS NULL`,
		models.StatusFound, publicID, registeredID, models.StatusNotFound)
	if err != nil {
		return classifyPgError("mark case found", err)
	}
	if tag.RowsAffected() == 0 {
		return pgMissingOrConflict(ctx, tx, "registered_cases", "registered case", registeredID)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyPgError("commit match", err)
	}
	return nil
}

// pgMissingOrConflict explains why a conditional update touched no rows.
func pgMissingOrConflict(ctx context.Context, tx pgx.Tx, table, label, id string) error {
	var status string
	err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, table), id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", errs.ErrNotFound, label, id)
	}
	if err != nil {
		return persistenceErr("check "+label, err)
	}
	return fmt.Errorf("%w: %s %s is already %s", errs.ErrConflict, label, id, status)
}

func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgCheckViolation:
			return fmt.Errorf("%w: %s: %s", errs.ErrConflict, op, pgErr.Message)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s: %s", errs.ErrNotFound, op, pgErr.Message)
		}
	}
	return persistenceErr(op, err)
}
