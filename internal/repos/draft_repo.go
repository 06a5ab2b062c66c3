package repos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"marketfront/internal/domain"
)

// DraftRepo keeps one listing draft per session plus the image bytes its
// slots point at.
type DraftRepo struct{ db *sqlx.DB }

func NewDraftRepo(db *sqlx.DB) *DraftRepo { return &DraftRepo{db: db} }

// Load returns domain.ErrNoDraft when sid has no draft.
func (r *DraftRepo) Load(ctx context.Context, sid string) (*domain.Draft, error) {
	return loadDraft(ctx, r.db, sid)
}

func (r *DraftRepo) Save(ctx context.Context, sid string, d *domain.Draft) error {
	return saveDraft(ctx, r.db, sid, d)
}

// Delete removes the draft and every image stored for sid.
func (r *DraftRepo) Delete(ctx context.Context, sid string) error {
	return r.Update(ctx, sid, func(tx *DraftTx) error { return tx.Delete(ctx) })
}

// PutImage stores the bytes behind ref for sid.
func (r *DraftRepo) PutImage(ctx context.Context, sid string, ref domain.ImageRef, data []byte) error {
	return putImage(ctx, r.db, sid, ref, data)
}

// Update runs fn inside one transaction over sid's draft and images. Nothing
// fn wrote is kept if it returns an error. fn must only use tx: the pool has
// a single connection and any other query would wait on it forever.
func (r *DraftRepo) Update(ctx context.Context, sid string, fn func(tx *DraftTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&DraftTx{tx: tx, sid: sid}); err != nil {
		return err
	}
	return tx.Commit()
}

// DraftTx is one session's draft inside a DraftRepo.Update transaction.
type DraftTx struct {
	tx  *sqlx.Tx
	sid string
}

func (t *DraftTx) Load(ctx context.Context) (*domain.Draft, error) {
	return loadDraft(ctx, t.tx, t.sid)
}

func (t *DraftTx) Save(ctx context.Context, d *domain.Draft) error {
	return saveDraft(ctx, t.tx, t.sid, d)
}

func (t *DraftTx) PutImage(ctx context.Context, ref domain.ImageRef, data []byte) error {
	return putImage(ctx, t.tx, t.sid, ref, data)
}

func (t *DraftTx) ReleaseImages(ctx context.Context, handles ...string) error {
	return releaseImages(ctx, t.tx, t.sid, handles)
}

// Delete drops the draft row and all of the session's images.
func (t *DraftTx) Delete(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM draft_images WHERE sid=?`, t.sid); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `DELETE FROM drafts WHERE sid=?`, t.sid)
	return err
}

func loadDraft(ctx context.Context, q sqlx.QueryerContext, sid string) (*domain.Draft, error) {
	query, args, err := sq.Select("body").From("drafts").Where(squirrel.Eq{"sid": sid}).ToSql()
	if err != nil {
		return nil, err
	}
	var body string
	if err := sqlx.GetContext(ctx, q, &body, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoDraft
		}
		return nil, err
	}
	var d domain.Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", sid, err)
	}
	if d.Attributes == nil {
		d.Attributes = map[string]string{}
	}
	return &d, nil
}

func saveDraft(ctx context.Context, e sqlx.ExecerContext, sid string, d *domain.Draft) error {
	d.UpdatedAt = time.Now().UTC()
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	q, args, err := sq.Insert("drafts").
		Columns("sid", "body", "updated_at").
		Values(sid, string(body), stamp(d.UpdatedAt)).
		Suffix("ON CONFLICT(sid) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, q, args...)
	return err
}

func putImage(ctx context.Context, e sqlx.ExecerContext, sid string, ref domain.ImageRef, data []byte) error {
	q, args, err := sq.Insert("draft_images").
		Columns("handle", "sid", "filename", "content_type", "size", "data", "created_at").
		Values(ref.Handle, sid, ref.Filename, ref.ContentType, int64(len(data)), data, stamp(time.Now())).
		ToSql()
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, q, args...)
	return err
}

func releaseImages(ctx context.Context, e sqlx.ExecerContext, sid string, handles []string) error {
	if len(handles) == 0 {
		return nil
	}
	q, args, err := sq.Delete("draft_images").
		Where(squirrel.Eq{"sid": sid, "handle": handles}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx, q, args...)
	return err
}

type imageRow struct {
	Handle      string `db:"handle"`
	Filename    string `db:"filename"`
	ContentType string `db:"content_type"`
	Size        int64  `db:"size"`
	Data        []byte `db:"data"`
}

// Image returns the blob for handle if it belongs to sid.
func (r *DraftRepo) Image(ctx context.Context, sid, handle string) (domain.ImageRef, []byte, error) {
	q, args, err := sq.Select("handle", "filename", "content_type", "size", "data").
		From("draft_images").
		Where(squirrel.Eq{"handle": handle, "sid": sid}).
		ToSql()
	if err != nil {
		return domain.ImageRef{}, nil, err
	}
	var row imageRow
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ImageRef{}, nil, domain.ErrNotFound
		}
		return domain.ImageRef{}, nil, err
	}
	ref := domain.ImageRef{Handle: row.Handle, Filename: row.Filename, ContentType: row.ContentType, Size: row.Size}
	return ref, row.Data, nil
}

// ReleaseImages drops the blobs behind handles. Unknown handles are ignored.
func (r *DraftRepo) ReleaseImages(ctx context.Context, sid string, handles ...string) error {
	return releaseImages(ctx, r.db, sid, handles)
}

// CountImages is the number of blobs currently held for sid.
func (r *DraftRepo) CountImages(ctx context.Context, sid string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM draft_images WHERE sid=?`, sid)
	return n, err
}

// PurgeStale deletes drafts untouched since before, their images, and
// orphaned images older than before. It returns the number of drafts removed.
func (r *DraftRepo) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	cut := stamp(before)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	  DELETE FROM draft_images
	  WHERE sid IN (SELECT sid FROM drafts WHERE updated_at < ?)
	     OR (created_at < ? AND sid NOT IN (SELECT sid FROM drafts))
	`, cut, cut); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM drafts WHERE updated_at < ?`, cut)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
