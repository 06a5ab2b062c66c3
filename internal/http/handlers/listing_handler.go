package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"marketfront/internal/backend"
	"marketfront/internal/domain"
	"marketfront/internal/log"
	"marketfront/internal/services"
	"marketfront/internal/validate"
)

const (
	msgSubmitRetry   = "We could not reach the marketplace. Your draft is saved, please try again."
	msgSubmitRefused = "The marketplace could not publish your listing right now. Your draft is saved, please try again later."
	msgImageFailed   = "That image could not be added."
	msgNoSlot        = "That image slot does not exist."
)

// ListingHandler serves the multi-step sell form.
type ListingHandler struct {
	Listings      *services.ListingService
	Profile       *services.ProfileService
	Auth          *services.AuthService
	MaxImageBytes int64
}

type slotView struct {
	Index int
	Ref   *domain.ImageRef
}

func (h *ListingHandler) renderForm(c *fiber.Ctx, status int, extra fiber.Map) error {
	d, err := h.Listings.Draft(c.UserContext(), sessionOf(c).ID)
	if err != nil {
		log.Error(c, "listing.draft.load.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load your draft")
	}
	slots := make([]slotView, len(d.Images))
	for i, ref := range d.Images {
		slots[i] = slotView{Index: i, Ref: ref}
	}
	data := fiber.Map{
		"Draft":      d,
		"Schemas":    domain.Schemas(),
		"Conditions": domain.ItemConditions,
		"Slots":      slots,
		"ImageCount": d.Images.Count(),
	}
	if s, ok := d.Schema(); ok {
		data["Schema"] = s
	}
	for k, v := range extra {
		data[k] = v
	}
	return render(c.Status(status), "sell", data)
}

func (h *ListingHandler) Form(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, nil)
}

func (h *ListingHandler) SelectCategory(c *fiber.Ctx) error {
	name := c.FormValue("category")
	schema, err := h.Listings.SelectCategory(c.UserContext(), sessionOf(c).ID, name)
	if errors.Is(err, domain.ErrUnknownCategory) {
		log.Security(c, "validation.fail", map[string]any{"field": "category", "value": validate.Text(name, 40)})
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": "Choose one of the listed categories."})
	}
	if err != nil {
		log.Error(c, "listing.category.fail", err, nil)
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not save your draft."})
	}
	log.Info(c, "listing.category", map[string]any{"category": schema.Name, "category_id": int(schema.Category)})
	return c.Redirect("/sell")
}

// fieldValues collects the scalar fields and the active schema's attributes
// from the posted form.
func (h *ListingHandler) fieldValues(c *fiber.Ctx, d *domain.Draft) map[string]string {
	values := map[string]string{
		domain.FieldTitle:             validate.Text(c.FormValue(domain.FieldTitle), 120),
		domain.FieldPrice:             validate.Text(c.FormValue(domain.FieldPrice), 20),
		domain.FieldDescription:       validate.Text(c.FormValue(domain.FieldDescription), 2000),
		domain.FieldShippingAvailable: c.FormValue(domain.FieldShippingAvailable, "false"),
	}
	if cond := c.FormValue(domain.FieldItemCondition); cond != "" {
		values[domain.FieldItemCondition] = cond
	}
	s, ok := d.Schema()
	if !ok {
		return values
	}
	for _, f := range s.Fields {
		if !validate.FieldName(f.Name) {
			continue
		}
		v := c.FormValue(f.Name)
		if f.Kind == domain.FieldBool && v == "" {
			v = "false"
		}
		values[f.Name] = validate.Text(v, 200)
	}
	return values
}

// SaveFields stores the posted values; with op=submit it also publishes.
func (h *ListingHandler) SaveFields(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	d, err := h.Listings.Draft(c.UserContext(), sid)
	if err == nil {
		_, err = h.Listings.SetFields(c.UserContext(), sid, h.fieldValues(c, d))
	}
	if err != nil {
		log.Error(c, "listing.fields.fail", err, nil)
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not save your draft."})
	}
	if c.FormValue("op") == "submit" {
		return h.Submit(c)
	}
	return c.Redirect("/sell")
}

func (h *ListingHandler) UploadImage(c *fiber.Ctx) error {
	sid := sessionOf(c).ID
	slot, ok := validate.Slot(c.Params("slot"), h.Listings.Slots)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "slot", "value": validate.Text(c.Params("slot"), 10)})
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": "Choose an image to upload."})
	}
	if h.MaxImageBytes > 0 && fh.Size > h.MaxImageBytes {
		log.Security(c, "listing.image.too_large", map[string]any{"size": fh.Size})
		return h.renderForm(c, fiber.StatusRequestEntityTooLarge, fiber.Map{"Err": "That image is too large."})
	}
	f, err := fh.Open()
	if err != nil {
		log.Error(c, "listing.image.open.fail", err, nil)
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgImageFailed})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		log.Error(c, "listing.image.read.fail", err, nil)
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgImageFailed})
	}
	// trust the bytes, not the browser's header
	contentType := http.DetectContentType(data)

	ref, err := h.Listings.AssignImage(c.UserContext(), sid, slot, validate.Text(fh.Filename, 120), contentType, data)
	switch {
	case errors.Is(err, domain.ErrSlotOutOfRange):
		log.Security(c, "validation.fail", map[string]any{"field": "slot", "value": slot})
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
	case errors.Is(err, domain.ErrNotAnImage):
		return h.renderForm(c, fiber.StatusUnsupportedMediaType, fiber.Map{"Err": "Only image files can be attached."})
	case errors.Is(err, domain.ErrImageTooLarge):
		return h.renderForm(c, fiber.StatusRequestEntityTooLarge, fiber.Map{"Err": "That image is too large."})
	case err != nil:
		log.Error(c, "listing.image.assign.fail", err, map[string]any{"slot": slot})
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": msgImageFailed})
	}
	log.Info(c, "listing.image.assign", map[string]any{"slot": slot, "handle": ref.Handle, "size": ref.Size})
	return c.Redirect("/sell")
}

func (h *ListingHandler) DeleteImage(c *fiber.Ctx) error {
	slot, ok := validate.Slot(c.Params("slot"), h.Listings.Slots)
	if !ok {
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
	}
	if err := h.Listings.ClearImage(c.UserContext(), sessionOf(c).ID, slot); err != nil {
		if errors.Is(err, domain.ErrSlotOutOfRange) {
			return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
		}
		log.Error(c, "listing.image.clear.fail", err, map[string]any{"slot": slot})
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not remove the image."})
	}
	log.Info(c, "listing.image.clear", map[string]any{"slot": slot})
	return c.Redirect("/sell")
}

// Edit loads one of the seller's products into the sell form. Whatever
// draft was in progress is replaced.
func (h *ListingHandler) Edit(c *fiber.Ctx) error {
	sess := sessionOf(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Profile.Find(c.UserContext(), sess.Token, id)
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return authLost(c, h.Auth)
	case errors.Is(err, domain.ErrNotFound):
		return notFound(c, fiber.StatusNotFound, "This item is no longer available")
	case err != nil:
		log.Error(c, "listing.edit.load.fail", err, map[string]any{"product": id})
		return notFound(c, fiber.StatusBadGateway, "Could not load your product. Please try again.")
	}
	if _, err := h.Listings.StartEdit(c.UserContext(), sess.ID, p); err != nil {
		log.Error(c, "listing.edit.start.fail", err, map[string]any{"product": id})
		return notFound(c, fiber.StatusInternalServerError, "Could not open the product for editing.")
	}
	log.Info(c, "listing.edit", map[string]any{"product": id})
	return c.Redirect("/sell")
}

// DropKept removes one of an edited product's existing images.
func (h *ListingHandler) DropKept(c *fiber.Ctx) error {
	i, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
	}
	if err := h.Listings.DropImageURL(c.UserContext(), sessionOf(c).ID, i); err != nil {
		if errors.Is(err, domain.ErrSlotOutOfRange) {
			return h.renderForm(c, fiber.StatusBadRequest, fiber.Map{"Err": msgNoSlot})
		}
		log.Error(c, "listing.kept.drop.fail", err, map[string]any{"index": i})
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not remove the image."})
	}
	log.Info(c, "listing.kept.drop", map[string]any{"index": i})
	return c.Redirect("/sell")
}

// Preview streams a draft image to the session that owns it.
func (h *ListingHandler) Preview(c *fiber.Ctx) error {
	ref, data, err := h.Listings.Image(c.UserContext(), sessionOf(c).ID, c.Params("handle"))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error(c, "listing.preview.fail", err, nil)
		}
		return c.SendStatus(fiber.StatusNotFound)
	}
	c.Set(fiber.HeaderContentType, ref.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(data)
}

func (h *ListingHandler) Submit(c *fiber.Ctx) error {
	sess := sessionOf(c)
	start := time.Now()
	p, err := h.Listings.Submit(c.UserContext(), sess.ID, sess.Token)
	if !errors.Is(err, domain.ErrNoDraft) {
		log.Backend(c, "create_product", time.Since(start), err)
	}
	if err != nil && p.ID != 0 {
		// published; only the local teardown failed and the janitor will finish it
		log.Error(c, "listing.teardown.fail", err, map[string]any{"product": p.ID})
		err = nil
	}
	if err != nil {
		var verr *backend.ValidationError
		var serr *backend.StatusError
		switch {
		case errors.Is(err, domain.ErrNoDraft):
			setFlash(c, "Start a listing before publishing.")
			return c.Redirect("/sell")
		case errors.Is(err, domain.ErrAuthRequired):
			return authLost(c, h.Auth)
		case errors.As(err, &serr) && serr.Status == http.StatusNotFound:
			// edited product was deleted meanwhile
			setFlash(c, "That product no longer exists.")
			return c.Redirect("/me/products")
		case errors.As(err, &verr):
			log.Info(c, "listing.submit.rejected", map[string]any{"status": verr.Status, "fields": verr.Fields})
			return h.renderForm(c, fiber.StatusUnprocessableEntity, fiber.Map{"Err": verr.Message, "Errors": verr.Fields})
		case errors.Is(err, backend.ErrNetwork):
			log.Error(c, "listing.submit.fail", err, nil)
			return h.renderForm(c, fiber.StatusBadGateway, fiber.Map{"Err": msgSubmitRetry})
		default:
			log.Error(c, "listing.submit.fail", err, nil)
			return h.renderForm(c, fiber.StatusBadGateway, fiber.Map{"Err": msgSubmitRefused})
		}
	}
	log.Audit(c, "listing.submit", map[string]any{"product": p.ID})
	return c.Redirect("/product/" + strconv.FormatInt(p.ID, 10))
}

func (h *ListingHandler) Discard(c *fiber.Ctx) error {
	if err := h.Listings.Discard(c.UserContext(), sessionOf(c).ID); err != nil {
		log.Error(c, "listing.discard.fail", err, nil)
		return h.renderForm(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not discard the draft."})
	}
	log.Info(c, "listing.discard", nil)
	return c.Redirect("/sell")
}
