package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketfront/internal/backend"
	"marketfront/internal/domain"
	"marketfront/internal/repos"
)

// ListingService drives the per-session listing draft: category choice,
// fields, image slots and the final submission.
type ListingService struct {
	Drafts        *repos.DraftRepo
	API           ProductAPI
	Slots         int
	MaxImageBytes int64
}

func NewListingService(drafts *repos.DraftRepo, api ProductAPI, slots int, maxImageBytes int64) *ListingService {
	if slots <= 0 {
		slots = domain.DefaultImageSlots
	}
	return &ListingService{Drafts: drafts, API: api, Slots: slots, MaxImageBytes: maxImageBytes}
}

// Draft returns the session's draft, or a fresh unsaved one.
func (s *ListingService) Draft(ctx context.Context, sid string) (*domain.Draft, error) {
	d, err := s.Drafts.Load(ctx, sid)
	if errors.Is(err, domain.ErrNoDraft) {
		return domain.NewDraft(s.Slots), nil
	}
	if err != nil {
		return nil, err
	}
	s.fit(d)
	return d, nil
}

// fit grows the slots to the configured capacity. Populated slots beyond it
// are kept.
func (s *ListingService) fit(d *domain.Draft) {
	if len(d.Images) < s.Slots {
		grown := domain.NewImageSlots(s.Slots)
		copy(grown, d.Images)
		d.Images = grown
	}
}

// edit loads the draft, applies fn and saves it, all in one transaction, so
// concurrent requests from the same session cannot lose each other's writes.
func (s *ListingService) edit(ctx context.Context, sid string, fn func(tx *repos.DraftTx, d *domain.Draft) error) (*domain.Draft, error) {
	var out *domain.Draft
	err := s.Drafts.Update(ctx, sid, func(tx *repos.DraftTx) error {
		d, err := tx.Load(ctx)
		if errors.Is(err, domain.ErrNoDraft) {
			d, err = domain.NewDraft(s.Slots), nil
		}
		if err != nil {
			return err
		}
		s.fit(d)
		if err := fn(tx, d); err != nil {
			return err
		}
		out = d
		return tx.Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ListingService) SelectCategory(ctx context.Context, sid, name string) (domain.FieldSchema, error) {
	var schema domain.FieldSchema
	_, err := s.edit(ctx, sid, func(_ *repos.DraftTx, d *domain.Draft) error {
		var err error
		schema, err = d.SelectCategory(name)
		return err
	})
	if err != nil {
		return domain.FieldSchema{}, err
	}
	return schema, nil
}

// SetFields writes every value through Draft.SetField.
func (s *ListingService) SetFields(ctx context.Context, sid string, values map[string]string) (*domain.Draft, error) {
	return s.edit(ctx, sid, func(_ *repos.DraftTx, d *domain.Draft) error {
		for name, v := range values {
			d.SetField(name, v)
		}
		return nil
	})
}

// AssignImage stores data and puts it in slot, releasing whatever the slot
// held before.
func (s *ListingService) AssignImage(ctx context.Context, sid string, slot int, filename, contentType string, data []byte) (domain.ImageRef, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return domain.ImageRef{}, domain.ErrNotAnImage
	}
	if s.MaxImageBytes > 0 && int64(len(data)) > s.MaxImageBytes {
		return domain.ImageRef{}, domain.ErrImageTooLarge
	}

	ref := domain.ImageRef{
		Handle:      uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	_, err := s.edit(ctx, sid, func(tx *repos.DraftTx, d *domain.Draft) error {
		old, err := d.SetImage(slot, &ref)
		if err != nil {
			return err
		}
		if err := tx.PutImage(ctx, ref, data); err != nil {
			return err
		}
		if old != nil {
			return tx.ReleaseImages(ctx, old.Handle)
		}
		return nil
	})
	if err != nil {
		return domain.ImageRef{}, err
	}
	return ref, nil
}

// ClearImage empties slot without moving the others.
func (s *ListingService) ClearImage(ctx context.Context, sid string, slot int) error {
	_, err := s.edit(ctx, sid, func(tx *repos.DraftTx, d *domain.Draft) error {
		old, err := d.Images.Clear(slot)
		if err != nil || old == nil {
			return err
		}
		return tx.ReleaseImages(ctx, old.Handle)
	})
	return err
}

// DropImageURL stops keeping one of an edited product's existing images.
func (s *ListingService) DropImageURL(ctx context.Context, sid string, i int) error {
	_, err := s.edit(ctx, sid, func(_ *repos.DraftTx, d *domain.Draft) error {
		return d.DropImageURL(i)
	})
	return err
}

// StartEdit replaces the session's draft with one seeded from p, which must
// be one of the seller's own products. Images held by the old draft are
// released.
func (s *ListingService) StartEdit(ctx context.Context, sid string, p domain.SavedProduct) (*domain.Draft, error) {
	d := domain.EditDraft(p, s.Slots)
	err := s.Drafts.Update(ctx, sid, func(tx *repos.DraftTx) error {
		old, err := tx.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrNoDraft):
		case err != nil:
			return err
		default:
			var handles []string
			for _, ref := range old.Images.ReleaseAll() {
				handles = append(handles, ref.Handle)
			}
			if err := tx.ReleaseImages(ctx, handles...); err != nil {
				return err
			}
		}
		return tx.Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Image serves a preview; only the owning session can read it.
func (s *ListingService) Image(ctx context.Context, sid, handle string) (domain.ImageRef, []byte, error) {
	return s.Drafts.Image(ctx, sid, handle)
}

// Submit sends the draft to the backend in one create-product call, or one
// edit-product call when the draft edits a saved product. On success the
// draft is torn down; on failure it is left as it was.
func (s *ListingService) Submit(ctx context.Context, sid, token string) (domain.SavedProduct, error) {
	if token == "" {
		return domain.SavedProduct{}, domain.ErrAuthRequired
	}
	d, err := s.Drafts.Load(ctx, sid)
	if err != nil {
		return domain.SavedProduct{}, err
	}

	refs := d.Images.Populated()
	uploads := make([]backend.Upload, 0, len(refs))
	for _, ref := range refs {
		_, data, err := s.Drafts.Image(ctx, sid, ref.Handle)
		if err != nil {
			return domain.SavedProduct{}, fmt.Errorf("load image %s: %w", ref.Filename, err)
		}
		uploads = append(uploads, backend.Upload{Filename: ref.Filename, ContentType: ref.ContentType, Data: data})
	}

	var p domain.SavedProduct
	if d.Editing() {
		p, err = s.API.EditProduct(ctx, token, d.EditingID, d.Listing(), uploads)
	} else {
		p, err = s.API.CreateProduct(ctx, token, d.Listing(), uploads)
	}
	if err != nil {
		return domain.SavedProduct{}, err
	}
	if err := s.Discard(ctx, sid); err != nil {
		return p, fmt.Errorf("discard submitted draft: %w", err)
	}
	return p, nil
}

// Discard drops the draft and releases every image handle it owns.
func (s *ListingService) Discard(ctx context.Context, sid string) error {
	return s.Drafts.Delete(ctx, sid)
}

// PurgeStale removes drafts idle for longer than ttl.
func (s *ListingService) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.Drafts.PurgeStale(ctx, time.Now().Add(-ttl))
}
