package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/your-org/casetrack/internal/errs"
	"github.com/your-org/casetrack/internal/models"
)

const sqliteDriverName = "sqlite3_casetrack"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// lower() in SQLite folds ASCII only.
			return conn.RegisterFunc("casefold", strings.ToLower, true)
		},
	})
}

// SQLiteStore backs local single-node deployments and tests.
// Use ":memory:" for an ephemeral database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriverName, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: an in-memory database lives and dies with its
	// connection, and SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Registered cases ---

func (s *SQLiteStore) CreateRegisteredCase(ctx context.Context, c *models.RegisteredCase) (string, error) {
	if err := validateRegisteredCase(c); err != nil {
		return "", err
	}
	c.ID = uuid.NewString()
	c.SubmittedOn = time.Now().UTC()
	c.Status = models.StatusNotFound
	c.MatchedWith = nil

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registered_cases (id, submitted_by, name, father_name, age, complainant_name, complainant_mobile,
			national_id, last_seen, address, face_mesh, submitted_on, status, birth_marks)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SubmittedBy, c.Name, c.FatherName, c.Age, c.ComplainantName, c.ComplainantMobile,
		c.NationalID, c.LastSeen, c.Address, c.FaceMesh, c.SubmittedOn, string(c.Status), c.BirthMarks)
	if err != nil {
		return "", persistenceErr("create registered case", err)
	}
	return c.ID, nil
}

func (s *SQLiteStore) GetRegisteredCase(ctx context.Context, id string) (*models.RegisteredCase, error) {
	c, err := scanRegisteredCase(s.db.QueryRowContext(ctx,
		`SELECT `+registeredCaseColumns+` FROM registered_cases WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get registered case", err)
	}
	return c, nil
}

func (s *SQLiteStore) GetRegisteredCaseDetail(ctx context.Context, id string) (models.CaseDetail, error) {
	d, err := scanCaseDetail(s.db.QueryRowContext(ctx,
		`SELECT `+caseDetailColumns+` FROM registered_cases WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CaseDetail{}, nil
		}
		return models.CaseDetail{}, persistenceErr("get registered case detail", err)
	}
	return d, nil
}

const sqliteSubmitterMatch = `(submitted_by = ? OR instr(casefold(submitted_by), casefold(?)) > 0)`

// statusIn renders "status IN (?, ?)" and its arguments.
func statusIn(filter models.StatusFilter) (string, []any) {
	statuses := statusStrings(filter)
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}
	return "status IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ") + ")", args
}

func (s *SQLiteStore) ListRegisteredCases(ctx context.Context, submitter string, filter models.StatusFilter) ([]models.CaseSummary, error) {
	clause, statusArgs := statusIn(filter)
	args := append([]any{submitter, submitter}, statusArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+caseSummaryColumns+` FROM registered_cases
		 WHERE `+sqliteSubmitterMatch+` AND `+clause+`
		 ORDER BY rowid`, args...)
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

func (s *SQLiteStore) ListTrainingCases(ctx context.Context, submitter string) ([]models.TrainingRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, face_mesh FROM registered_cases WHERE submitted_by = ? AND status = ? ORDER BY rowid`,
		submitter, string(models.StatusNotFound))
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

func (s *SQLiteStore) CountByStatus(ctx context.Context, submitter string, status models.Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registered_cases WHERE `+sqliteSubmitterMatch+` AND status = ?`,
		submitter, submitter, string(status),
	).Scan(&count)
	if err != nil {
		return 0, persistenceErr("count registered cases", err)
	}
	return count, nil
}

func (s *SQLiteStore) WriteGeneratedField(ctx context.Context, id string, field models.GeneratedField, text string) error {
	if err := validateGeneratedField(field); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE registered_cases SET %s = ? WHERE id = ?`, field), text, id)
	if err != nil {
		return persistenceErr("write "+string(field), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("write "+string(field), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: registered case %s", errs.ErrNotFound, id)
	}
	return nil
}

// --- Public submissions ---

func (s *SQLiteStore) CreatePublicSubmission(ctx context.Context, p *models.PublicSubmission) (string, error) {
	if err := validatePublicSubmission(p); err != nil {
		return "", err
	}
	p.ID = uuid.NewString()
	p.SubmittedOn = time.Now().UTC()
	if p.Status == "" {
		p.Status = models.StatusNotFound
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO public_submissions (id, submitted_by, face_mesh, location, mobile, email, status, birth_marks, submitted_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SubmittedBy, p.FaceMesh, p.Location, p.Mobile, p.Email, string(p.Status), p.BirthMarks, p.SubmittedOn)
	if err != nil {
		return "", persistenceErr("create public submission", err)
	}
	return p.ID, nil
}

func (s *SQLiteStore) GetPublicSubmission(ctx context.Context, id string) (*models.PublicSubmission, error) {
	p, err := scanPublicSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+publicSubmissionColumns+` FROM public_submissions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceErr("get public submission", err)
	}
	return p, nil
}

func (s *SQLiteStore) GetPublicSubmissionDetail(ctx context.Context, id string) (models.SubmissionDetail, error) {
	d, err := scanSubmissionDetail(s.db.QueryRowContext(ctx,
		`SELECT `+submissionDetailColumns+` FROM public_submissions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SubmissionDetail{}, nil
		}
		return models.SubmissionDetail{}, persistenceErr("get public submission detail", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListPublicSubmissions(ctx context.Context, filter models.StatusFilter, mode models.ProjectionMode) ([]models.SubmissionRow, error) {
	columns := submissionDisplayColumns
	if mode == models.ProjectionTraining {
		columns = "id, face_mesh"
	}
	clause, args := statusIn(filter)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM public_submissions WHERE `+clause+` ORDER BY rowid`, args...)
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

func (s *SQLiteStore) UpdateStatusAndMatch(ctx context.Context, registeredID, publicID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceErr("begin match", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE public_submissions SET status = ? WHERE id = ? AND status = ?`,
		string(models.StatusFound), publicID, string(models.StatusNotFound))
	if err != nil {
		return classifySQLiteError("mark submission found", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("mark submission found", err)
	}
	if n == 0 {
		return sqliteMissingOrConflict(ctx, tx, "public_submissions", "public submission", publicID)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE registered_cases SET status = ?, matched_with = ?
		 WHERE id = ? AND status = ? AND matched_with IS NULL`,
		string(models.StatusFound), publicID, registeredID, string(models.StatusNotFound))
	if err != nil {
		return classifySQLiteError("mark case found", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return persistenceErr("mark case found", err)
	}
	if n == 0 {
		return sqliteMissingOrConflict(ctx, tx, "registered_cases", "registered case", registeredID)
	}

	if err := tx.Commit(); err != nil {
		return classifySQLiteError("commit match", err)
	}
	return nil
}

func sqliteMissingOrConflict(ctx context.Context, tx *sql.Tx, table, label, id string) error {
	var status string
	err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = ?`, table), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", errs.ErrNotFound, label, id)
	}
	if err != nil {
		return persistenceErr("check "+label, err)
	}
	return fmt.Errorf("%w: %s %s is already %s", errs.ErrConflict, label, id, status)
}

func classifySQLiteError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %s: %v", errs.ErrConflict, op, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s: %v", errs.ErrNotFound, op, err)
		}
	}
	return persistenceErr(op, err)
}
