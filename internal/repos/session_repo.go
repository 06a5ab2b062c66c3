package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"marketfront/internal/domain"
)

type SessionRepo struct {
	DB  *sqlx.DB
	box *TokenBox
}

func NewSessionRepo(db *sqlx.DB, box *TokenBox) *SessionRepo {
	return &SessionRepo{DB: db, box: box}
}

type sessionRow struct {
	ID         string         `db:"id"`
	UserID     sql.NullInt64  `db:"user_id"`
	Name       string         `db:"name"`
	Email      string         `db:"email"`
	ProfileImg string         `db:"profile_img"`
	Token      []byte         `db:"token"`
	ExpiresAt  sql.NullString `db:"expires_at"`
}

// Touch records that the browser session exists and was seen now.
func (r *SessionRepo) Touch(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO sessions(id,last_seen) VALUES(?,?)
                          ON CONFLICT(id) DO UPDATE SET last_seen=excluded.last_seen`, sid, stamp(time.Now()))
	return err
}

const bindSQL = `
      INSERT INTO sessions(id,user_id,name,email,profile_img,token,expires_at,last_seen)
      VALUES(?,?,?,?,?,?,?,?)
      ON CONFLICT(id) DO UPDATE SET
        user_id=excluded.user_id, name=excluded.name, email=excluded.email,
        profile_img=excluded.profile_img, token=excluded.token,
        expires_at=excluded.expires_at, last_seen=excluded.last_seen`

// Bind attaches an authenticated identity to sid, replacing any previous one.
func (r *SessionRepo) Bind(ctx context.Context, sid string, u domain.User, token string, expiresAt time.Time) error {
	sealed, err := r.box.Seal(token)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, bindSQL,
		sid, u.ID, u.Name, u.Email, u.ProfileImg, sealed, stamp(expiresAt), stamp(time.Now()))
	return err
}

// Rotate binds the identity to a fresh id and retires from. The draft and
// images held under from move to the new id, so signing in never reuses an
// id the browser had before.
func (r *SessionRepo) Rotate(ctx context.Context, from, to string, u domain.User, token string, expiresAt time.Time) error {
	sealed, err := r.box.Seal(token)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, bindSQL,
		to, u.ID, u.Name, u.Email, u.ProfileImg, sealed, stamp(expiresAt), stamp(time.Now())); err != nil {
		return err
	}
	if from != "" && from != to {
		for _, q := range []string{
			`UPDATE drafts SET sid=? WHERE sid=?`,
			`UPDATE draft_images SET sid=? WHERE sid=?`,
		} {
			if _, err := tx.ExecContext(ctx, q, to, from); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, from); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load returns the stored session. Unknown sids come back Anonymous.
func (r *SessionRepo) Load(ctx context.Context, sid string) (*domain.Session, error) {
	var row sessionRow
	err := r.DB.GetContext(ctx, &row, `
      SELECT id,user_id,name,email,profile_img,token,expires_at
      FROM sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Session{ID: sid}, nil
	}
	if err != nil {
		return nil, err
	}

	s := &domain.Session{ID: row.ID}
	if !row.UserID.Valid || len(row.Token) == 0 {
		return s, nil
	}
	token, err := r.box.Open(row.Token)
	if err != nil {
		// sealed under another secret; treat as signed out
		return s, nil
	}
	s.User = &domain.User{ID: row.UserID.Int64, Name: row.Name, Email: row.Email, ProfileImg: row.ProfileImg}
	s.Token = token
	if row.ExpiresAt.Valid {
		s.ExpiresAt = parseStamp(row.ExpiresAt.String)
	}
	return s, nil
}

// Unbind drops the identity but keeps the browser session.
func (r *SessionRepo) Unbind(ctx context.Context, sid string) error {
	_, err := r.DB.ExecContext(ctx, `
      UPDATE sessions SET user_id=NULL,name='',email='',profile_img='',token=NULL,expires_at=NULL,last_seen=?
      WHERE id=?`, stamp(time.Now()), sid)
	return err
}

// PurgeIdle deletes anonymous or expired sessions not seen since before.
func (r *SessionRepo) PurgeIdle(ctx context.Context, before time.Time) (int64, error) {
	cut := stamp(before)
	res, err := r.DB.ExecContext(ctx, `
      DELETE FROM sessions
      WHERE COALESCE(last_seen, created_at) < ?
        AND (user_id IS NULL OR expires_at < ?)`, cut, stamp(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
