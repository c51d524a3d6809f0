package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/NMsby/rotatechain-sub000/internal/domain"
)

// ─── Chain Operations ───────────────────────────────────────────────────────

// CreateChain inserts a chain with its seed members.
func (db *DB) CreateChain(ctx context.Context, c domain.Chain) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chains (id, name, type, start_date, round_seconds, total_rounds,
			current_round, currency, total_funds, current_funds, interest_rate, fine_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, string(c.Type), c.StartDate.UTC().Format(time.RFC3339),
		int64(c.RoundDuration/time.Second), c.TotalRounds, c.CurrentRound,
		c.Currency, c.TotalFunds, c.CurrentFunds, c.InterestRate, c.FineRate)
	if err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := insertMember(ctx, tx, c.ID, m); err != nil {
			return err
		}
	}
	for _, l := range c.Loans {
		if err := insertLoan(ctx, tx, c.ID, l); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetChain loads a chain with its members and loans.
func (db *DB) GetChain(ctx context.Context, id string) (domain.Chain, error) {
	var (
		c            domain.Chain
		typ          string
		startStr     string
		roundSeconds int64
	)
	err := db.db.QueryRowContext(ctx, `
		SELECT id, name, type, start_date, round_seconds, total_rounds,
			current_round, currency, total_funds, current_funds, interest_rate, fine_rate
		FROM chains WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &typ, &startStr, &roundSeconds, &c.TotalRounds,
		&c.CurrentRound, &c.Currency, &c.TotalFunds, &c.CurrentFunds, &c.InterestRate, &c.FineRate)
	if err == sql.ErrNoRows {
		return domain.Chain{}, domain.ErrChainNotFound
	}
	if err != nil {
		return domain.Chain{}, err
	}
	c.Type = domain.ChainType(typ)
	c.StartDate, _ = time.Parse(time.RFC3339, startStr)
	c.RoundDuration = time.Duration(roundSeconds) * time.Second

	if c.Members, err = db.chainMembers(ctx, id); err != nil {
		return domain.Chain{}, err
	}
	if c.Loans, err = db.chainLoans(ctx, id); err != nil {
		return domain.Chain{}, err
	}
	return c, nil
}

// ListChains returns every chain in the directory, fully assembled.
func (db *DB) ListChains(ctx context.Context) ([]domain.Chain, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT id FROM chains ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []domain.Chain
	for _, id := range ids {
		c, err := db.GetChain(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveChain writes back a full chain snapshot: scalar fields, member flags,
// and loan states. Members removed from the snapshot are removed from the
// directory.
func (db *DB) SaveChain(ctx context.Context, c domain.Chain) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE chains SET name = ?, type = ?, current_round = ?,
			current_funds = ?, interest_rate = ?, fine_rate = ?
		WHERE id = ?
	`, c.Name, string(c.Type), c.CurrentRound, c.CurrentFunds, c.InterestRate, c.FineRate, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrChainNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE chain_id = ?`, c.ID); err != nil {
		return err
	}
	for _, m := range c.Members {
		if err := insertMember(ctx, tx, c.ID, m); err != nil {
			return err
		}
	}
	for _, l := range c.Loans {
		if err := upsertLoan(ctx, tx, c.ID, l); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ─── Member Operations ──────────────────────────────────────────────────────

// AddMember appends a member to a chain.
func (db *DB) AddMember(ctx context.Context, chainID string, m domain.Member) error {
	var exists int
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chains WHERE id = ?`, chainID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrChainNotFound
	}
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertMember(ctx, tx, chainID, m); err != nil {
		return err
	}
	return tx.Commit()
}

func insertMember(ctx context.Context, tx *sql.Tx, chainID string, m domain.Member) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO members (chain_id, id, name, wallet, contributed, contribution_amount, is_lender)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chainID, m.ID, m.Name, m.Wallet, boolToInt(m.Contributed), m.ContributionAmount, boolToInt(m.IsLender))
	return err
}

func (db *DB) chainMembers(ctx context.Context, chainID string) ([]domain.Member, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, name, wallet, contributed, contribution_amount, is_lender
		FROM members WHERE chain_id = ? ORDER BY rowid
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var (
			m                     domain.Member
			contributed, isLender int
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Wallet, &contributed, &m.ContributionAmount, &isLender); err != nil {
			return nil, err
		}
		m.Contributed = contributed == 1
		m.IsLender = isLender == 1
		out = append(out, m)
	}
	return out, rows.Err()
}

// ─── Loan Operations ────────────────────────────────────────────────────────

// PutLoan registers a new loan against a chain.
func (db *DB) PutLoan(ctx context.Context, chainID string, l domain.Loan) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := insertLoan(ctx, tx, chainID, l); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateLoanStatus records a loan state transition.
func (db *DB) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, repaidAt *time.Time) error {
	var repaidStr *string
	if repaidAt != nil {
		s := repaidAt.UTC().Format(time.RFC3339)
		repaidStr = &s
	}
	res, err := db.db.ExecContext(ctx, `
		UPDATE loans SET status = ?, repayment_date = COALESCE(?, repayment_date)
		WHERE id = ?
	`, string(status), repaidStr, loanID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// MemberLoans returns the loans a member participates in, either side.
func (db *DB) MemberLoans(ctx context.Context, chainID, memberID string) ([]domain.Loan, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, borrower_id, lender_id, amount, interest_rate, due_date, status, repayment_date
		FROM loans WHERE chain_id = ? AND (borrower_id = ? OR lender_id = ?)
		ORDER BY rowid
	`, chainID, memberID, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func (db *DB) chainLoans(ctx context.Context, chainID string) ([]domain.Loan, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, borrower_id, lender_id, amount, interest_rate, due_date, status, repayment_date
		FROM loans WHERE chain_id = ? ORDER BY rowid
	`, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLoans(rows)
}

func insertLoan(ctx context.Context, tx *sql.Tx, chainID string, l domain.Loan) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loans (id, chain_id, borrower_id, lender_id, amount, interest_rate, due_date, status, repayment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, chainID, l.BorrowerID, l.LenderID, l.Amount, l.InterestRate,
		l.DueDate.UTC().Format(time.RFC3339), string(l.Status), repaymentStr(l))
	return err
}

func upsertLoan(ctx context.Context, tx *sql.Tx, chainID string, l domain.Loan) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loans (id, chain_id, borrower_id, lender_id, amount, interest_rate, due_date, status, repayment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lender_id      = excluded.lender_id,
			status         = excluded.status,
			repayment_date = excluded.repayment_date
	`, l.ID, chainID, l.BorrowerID, l.LenderID, l.Amount, l.InterestRate,
		l.DueDate.UTC().Format(time.RFC3339), string(l.Status), repaymentStr(l))
	return err
}

func scanLoans(rows *sql.Rows) ([]domain.Loan, error) {
	var out []domain.Loan
	for rows.Next() {
		var (
			l         domain.Loan
			status    string
			dueStr    string
			repaidStr sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.BorrowerID, &l.LenderID, &l.Amount, &l.InterestRate,
			&dueStr, &status, &repaidStr); err != nil {
			return nil, err
		}
		l.Status = domain.LoanStatus(status)
		l.DueDate, _ = time.Parse(time.RFC3339, dueStr)
		if repaidStr.Valid {
			t, err := time.Parse(time.RFC3339, repaidStr.String)
			if err == nil {
				l.RepaymentDate = &t
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func repaymentStr(l domain.Loan) *string {
	if l.RepaymentDate == nil {
		return nil
	}
	s := l.RepaymentDate.UTC().Format(time.RFC3339)
	return &s
}
