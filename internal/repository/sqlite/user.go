package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// Assigning a nil *DB to a repository.UserRepository variable fails the
// build as soon as a method is missing or has the wrong signature, instead
// of at the first call site that passes *DB as the interface.
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `u.id, u.name, u.surname, u.email, u.phone, u.date_of_birth,
	u.gender, u.company, u.salary, u.about_me, u.created_at`

// selectDetails joins each user with its (at most one) address and card.
//
// WHY LEFT JOIN?
// Address and card are optional. An INNER JOIN would drop every user who
// lacks either one; LEFT JOIN keeps the user and fills the child columns
// with NULL, which detailsRow scans into sql.NullString. The child columns
// are aliased (addr_*, card_*) because sqlx maps by column name and both
// child tables have a user_id column.
const selectDetails = `SELECT ` + userColumns + `,
	a.user_id AS addr_user_id, a.country AS addr_country, a.city AS addr_city,
	a.street AS addr_street, a.flat_house AS addr_flat_house,
	c.user_id AS card_user_id, c.num AS card_num, c.cvv AS card_cvv, c.exp_date AS card_exp_date
	FROM users u
	LEFT JOIN addresses a ON a.user_id = u.id
	LEFT JOIN credit_cards c ON c.user_id = u.id`

// insertion order; id breaks created_at ties
const orderByAge = ` ORDER BY u.created_at ASC, u.id ASC`

// detailsRow is one row of selectDetails. Child columns are NULL when the
// user has no address or card.
type detailsRow struct {
	model.User

	AddrUserID    sql.NullString `db:"addr_user_id"`
	AddrCountry   sql.NullString `db:"addr_country"`
	AddrCity      sql.NullString `db:"addr_city"`
	AddrStreet    sql.NullString `db:"addr_street"`
	AddrFlatHouse sql.NullString `db:"addr_flat_house"`

	CardUserID  sql.NullString `db:"card_user_id"`
	CardNum     sql.NullString `db:"card_num"`
	CardCVV     sql.NullString `db:"card_cvv"`
	CardExpDate sql.NullString `db:"card_exp_date"`
}

func (r detailsRow) toModel() model.UserDetails {
	d := model.UserDetails{User: r.User}
	if r.AddrUserID.Valid {
		d.Address = &model.Address{
			Country:   r.AddrCountry.String,
			City:      r.AddrCity.String,
			Street:    r.AddrStreet.String,
			FlatHouse: r.AddrFlatHouse.String,
		}
	}
	if r.CardUserID.Valid {
		d.CreditCard = &model.CreditCard{
			Num:     r.CardNum.String,
			CVV:     r.CardCVV.String,
			ExpDate: r.CardExpDate.String,
		}
	}
	return d
}

// Create inserts the user and any supplied address and card in one
// transaction, assigning ID and CreatedAt.
//
// Email uniqueness is checked before the insert. Two concurrent creates can
// both pass that check; the unique index on users.email then rejects the
// loser, which is reported as the same DuplicateEmail error.
func (db *DB) Create(ctx context.Context, user *model.UserDetails) error {
	id := xid.New().String()
	createdAt := db.now().UTC()

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := ensureEmailFree(ctx, tx, user.Email, ""); err != nil {
			return err
		}

		row := user.User
		row.ID = id
		row.CreatedAt = createdAt

		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO users (id, name, surname, email, phone, date_of_birth, gender,
				company, salary, about_me, created_at)
			 VALUES (:id, :name, :surname, :email, :phone, :date_of_birth, :gender,
				:company, :salary, :about_me, :created_at)`,
			&row,
		)
		if err != nil {
			if isUniqueViolation(err, "users.email") {
				return apperror.DuplicateEmail(user.Email)
			}
			return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
		}

		if user.Address != nil {
			if err := upsertAddress(ctx, tx, id, user.Address); err != nil {
				return err
			}
		}
		if user.CreditCard != nil {
			if err := upsertCard(ctx, tx, id, user.CreditCard); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

// GetByID returns the user aggregate or apperror.ErrNotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.UserDetails, error) {
	return getDetails(ctx, db.conn, id)
}

// List returns every user in insertion order.
func (db *DB) List(ctx context.Context) ([]model.UserDetails, error) {
	return selectMany(ctx, db.conn, selectDetails+orderByAge)
}

// Search applies filter and pagination. Text filters are case-insensitive
// substring matches (ASCII case folding, as SQLite's LIKE does).
//
// WHO OWNS THE PAGE SIZE?
// The caller. The service clamps opts against the configured limits before
// calling in, so Search takes opts.Limit as given and only fills in
// repository.DefaultLimit when it is unset. A second clamp here would
// silently cap a configured maximum above repository.MaxLimit.
func (db *DB) Search(ctx context.Context, filter model.UserFilter, opts repository.ListOptions) ([]model.UserDetails, error) {
	if opts.Limit <= 0 {
		opts.Limit = repository.DefaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var (
		conds []string
		args  []any
	)
	like := func(column, value string) {
		if value == "" {
			return
		}
		conds = append(conds, column+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(value)+"%")
	}
	equals := func(column, op, value string) {
		if value == "" {
			return
		}
		conds = append(conds, column+" "+op+" ?")
		args = append(args, value)
	}

	like("u.name", filter.Name)
	like("u.surname", filter.Surname)
	like("u.email", filter.Email)
	equals("u.gender", "=", filter.Gender)
	equals("u.date_of_birth", "=", filter.DateOfBirth)
	equals("u.date_of_birth", ">=", filter.DateOfBirthFrom)
	equals("u.date_of_birth", "<=", filter.DateOfBirthTo)

	var query strings.Builder
	query.WriteString(selectDetails)
	if len(conds) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(conds, " AND "))
	}
	query.WriteString(orderByAge)
	query.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, opts.Limit, opts.Offset)

	return selectMany(ctx, db.conn, query.String(), args...)
}

// Update applies patch to the user. Present scalar fields overwrite the
// stored value; a present Address or CreditCard replaces the stored child
// as a whole, inserting it if the user had none.
func (db *DB) Update(ctx context.Context, id string, patch model.UserPatch) (*model.UserDetails, error) {
	var updated *model.UserDetails

	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var current model.User
		err := tx.GetContext(ctx, &current,
			`SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("user", id)
			}
			return fmt.Errorf("sqlite: loading user %s: %w", id, err)
		}

		if patch.Email != nil && *patch.Email != current.Email {
			if err := ensureEmailFree(ctx, tx, *patch.Email, id); err != nil {
				return err
			}
		}

		patch.Apply(&current)

		_, err = tx.NamedExecContext(ctx,
			`UPDATE users
			 SET name = :name, surname = :surname, email = :email, phone = :phone,
				date_of_birth = :date_of_birth, gender = :gender, company = :company,
				salary = :salary, about_me = :about_me
			 WHERE id = :id`,
			&current,
		)
		if err != nil {
			if isUniqueViolation(err, "users.email") {
				return apperror.DuplicateEmail(current.Email)
			}
			return fmt.Errorf("sqlite: updating user %s: %w", id, err)
		}

		if patch.Address != nil {
			if err := upsertAddress(ctx, tx, id, patch.Address); err != nil {
				return err
			}
		}
		if patch.CreditCard != nil {
			if err := upsertCard(ctx, tx, id, patch.CreditCard); err != nil {
				return err
			}
		}

		updated, err = getDetails(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the user's address, card and the user row in one
// transaction. Nothing is removed when the user does not exist.
//
// The child tables also carry ON DELETE CASCADE, so deleting the user row
// alone would be enough. The explicit child deletes keep the order visible
// and make the transaction boundary matter: if the final DELETE fails,
// withTx rolls back and the address and card rows come back.
func (db *DB) Delete(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting address of user %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM credit_cards WHERE user_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting credit card of user %s: %w", id, err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("user", id)
		}
		return nil
	})
}

func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return n, nil
}

func (db *DB) CountByGender(ctx context.Context, gender string) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE gender = ?`, gender); err != nil {
		return 0, fmt.Errorf("sqlite: counting users by gender %s: %w", gender, err)
	}
	return n, nil
}

// OldestIDs returns up to n user ids, smallest created_at first.
func (db *DB) OldestIDs(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, max(n, 0))
	if n <= 0 {
		return ids, nil
	}
	err := db.conn.SelectContext(ctx, &ids,
		`SELECT u.id FROM users u`+orderByAge+` LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: selecting %d oldest users: %w", n, err)
	}
	return ids, nil
}

// =========================================================================
// HELPERS SHARED BY DB AND TX PATHS
// =========================================================================
//
// sqlx.QueryerContext is satisfied by both *sqlx.DB and *sqlx.Tx, so the
// same read helper serves plain reads (GetByID) and reads inside a
// transaction (Update re-reading the row it just wrote).

func getDetails(ctx context.Context, q sqlx.QueryerContext, id string) (*model.UserDetails, error) {
	var row detailsRow
	err := sqlx.GetContext(ctx, q, &row, selectDetails+` WHERE u.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	d := row.toModel()
	return &d, nil
}

func selectMany(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]model.UserDetails, error) {
	var rows []detailsRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}

	users := make([]model.UserDetails, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

// ensureEmailFree fails with DuplicateEmail when another user (other than
// exceptID) already has email.
func ensureEmailFree(ctx context.Context, tx *sqlx.Tx, email, exceptID string) error {
	var n int
	err := tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`, email, exceptID)
	if err != nil {
		return fmt.Errorf("sqlite: checking email %s: %w", email, err)
	}
	if n > 0 {
		return apperror.DuplicateEmail(email)
	}
	return nil
}

func upsertAddress(ctx context.Context, tx *sqlx.Tx, userID string, a *model.Address) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO addresses (user_id, country, city, street, flat_house)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			country = excluded.country, city = excluded.city,
			street = excluded.street, flat_house = excluded.flat_house`,
		userID, a.Country, a.City, a.Street, a.FlatHouse,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving address of user %s: %w", userID, err)
	}
	return nil
}

func upsertCard(ctx context.Context, tx *sqlx.Tx, userID string, c *model.CreditCard) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_cards (user_id, num, cvv, exp_date)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			num = excluded.num, cvv = excluded.cvv, exp_date = excluded.exp_date`,
		userID, c.Num, c.CVV, c.ExpDate,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving credit card of user %s: %w", userID, err)
	}
	return nil
}

// isUniqueViolation reports a UNIQUE constraint failure on column
// (e.g. "users.email").
func isUniqueViolation(err error, column string) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(se.Error(), "UNIQUE") && strings.Contains(se.Error(), column)
}

// LIKE treats % and _ as wildcards. A search for "a_b" must match the
// literal underscore, so both are escaped with a backslash, and the
// query declares ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
