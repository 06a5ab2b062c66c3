package handlers_test

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketfront/internal/domain"
)

var rePreview = regexp.MustCompile(`/sell/images/preview/([0-9a-f-]{36})`)

func TestSellCategoryUnknownIsReported(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.post("/sell/category", url.Values{"category": {"Boats"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Choose one of the listed categories")

	resp = h.post("/sell/category", url.Values{"category": {"Cars"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	page := body(t, h.get("/sell"))
	assert.Contains(t, page, `name="kilometers"`)
	assert.Contains(t, page, `value="Cars" selected`)
}

func TestSellFlowSubmitsSlotsInOrder(t *testing.T) {
	h := newHarness(t)
	h.login()

	require.Equal(t, http.StatusFound, h.post("/sell/category", url.Values{"category": {"Cars"}}).StatusCode)
	require.Equal(t, http.StatusFound, h.upload("/sell/images/3", "back.png", pngBytes).StatusCode)
	require.Equal(t, http.StatusFound, h.upload("/sell/images/1", "front.png", pngBytes).StatusCode)

	page := body(t, h.get("/sell"))
	handles := rePreview.FindAllStringSubmatch(page, -1)
	require.Len(t, handles, 2)

	preview := h.get("/sell/images/preview/" + handles[0][1])
	require.Equal(t, http.StatusOK, preview.StatusCode)
	assert.Equal(t, "image/png", preview.Header.Get("Content-Type"))

	resp := h.post("/sell/fields", url.Values{
		"op": {"submit"}, "title": {"Bike"}, "price": {"50"}, "itemCondition": {"GOOD"},
		"brand": {"Seat"}, "kilometers": {"120000"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/product/55", resp.Header.Get("Location"))

	require.Len(t, h.backend.uploads, 1)
	call := h.backend.uploads[0]
	assert.Equal(t, []string{"front.png", "back.png"}, call.images)
	assert.Equal(t, "Bearer tok-ana", call.auth)
	assert.Equal(t, domain.CategoryCars, call.product.CategoryID)
	assert.Equal(t, "Bike", call.product.Title)
	assert.Equal(t, "50", call.product.Price)
	assert.Equal(t, "Seat", call.product.Attributes["brand"])

	// draft and previews are gone
	assert.Equal(t, http.StatusNotFound, h.get("/sell/images/preview/"+handles[0][1]).StatusCode)
	assert.NotContains(t, body(t, h.get("/sell")), `value="Bike"`)
}

func TestSubmitRejectedKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.post("/sell/fields", url.Values{"op": {"submit"}, "title": {"bad"}, "price": {"-1"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Invalid product")
	assert.Contains(t, page, "must be positive")

	assert.Contains(t, body(t, h.get("/sell")), `value="bad"`)
}

func TestSubmitBackendDownKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.login()
	require.Equal(t, http.StatusFound, h.post("/sell/fields", url.Values{"title": {"Lamp"}}).StatusCode)

	h.backend.down = true
	resp := h.post("/sell/submit", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Your draft is saved")
	h.backend.down = false

	assert.Contains(t, body(t, h.get("/sell")), `value="Lamp"`)
}

func TestImageSlotRules(t *testing.T) {
	h := newHarness(t)
	h.login()

	assert.Equal(t, http.StatusBadRequest, h.upload("/sell/images/4", "a.png", pngBytes).StatusCode)
	assert.Equal(t, http.StatusUnsupportedMediaType, h.upload("/sell/images/0", "a.txt", []byte("plain text")).StatusCode)
	big := append(append([]byte{}, pngBytes...), make([]byte, 2048)...)
	assert.Equal(t, http.StatusRequestEntityTooLarge, h.upload("/sell/images/0", "big.png", big).StatusCode)

	require.Equal(t, http.StatusFound, h.upload("/sell/images/0", "a.png", pngBytes).StatusCode)
	require.Equal(t, http.StatusFound, h.upload("/sell/images/2", "c.png", pngBytes).StatusCode)
	first := rePreview.FindAllStringSubmatch(body(t, h.get("/sell")), -1)
	require.Len(t, first, 2)

	require.Equal(t, http.StatusFound, h.post("/sell/images/0/delete", nil).StatusCode)
	after := rePreview.FindAllStringSubmatch(body(t, h.get("/sell")), -1)
	require.Len(t, after, 1)
	assert.Equal(t, first[1][1], after[0][1], "slot 2 is untouched")
	assert.Equal(t, http.StatusNotFound, h.get("/sell/images/preview/"+first[0][1]).StatusCode)
}

func TestPreviewIsPrivateToSession(t *testing.T) {
	owner := newHarness(t)
	owner.login()
	require.Equal(t, http.StatusFound, owner.upload("/sell/images/0", "a.png", pngBytes).StatusCode)
	handle := rePreview.FindStringSubmatch(body(t, owner.get("/sell")))[1]

	// a second browser on the same app
	other := &harness{t: t, app: owner.app, deps: owner.deps, backend: owner.backend, jar: map[string]string{}}
	other.login()
	assert.Equal(t, http.StatusNotFound, other.get("/sell/images/preview/"+handle).StatusCode)
	assert.Equal(t, http.StatusOK, owner.get("/sell/images/preview/"+handle).StatusCode)
}

func TestDiscardReleasesDraft(t *testing.T) {
	h := newHarness(t)
	h.login()
	require.Equal(t, http.StatusFound, h.upload("/sell/images/0", "a.png", pngBytes).StatusCode)
	handle := rePreview.FindStringSubmatch(body(t, h.get("/sell")))[1]

	require.Equal(t, http.StatusFound, h.post("/sell/discard", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, h.get("/sell/images/preview/"+handle).StatusCode)
}

func TestSubmitBackendFailureIsNotReportedAsUnreachable(t *testing.T) {
	h := newHarness(t)
	h.login()
	require.Equal(t, http.StatusFound, h.post("/sell/fields", url.Values{"title": {"Lamp"}}).StatusCode)

	h.backend.failCreate = true
	resp := h.post("/sell/submit", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "could not publish your listing")
	assert.NotContains(t, page, "could not reach")
	assert.Contains(t, page, "Your draft is saved")
}

func TestMalformedSlotIsRejected(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.upload("/sell/images/abc", "a.png", pngBytes)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "That image slot does not exist")

	assert.Equal(t, http.StatusBadRequest, h.upload("/sell/images/-1", "a.png", pngBytes).StatusCode)
	assert.Equal(t, http.StatusBadRequest, h.post("/sell/images/x/delete", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, h.post("/sell/images/4/delete", nil).StatusCode)
}

func TestEditOwnProduct(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp := h.get("/me/products/1/edit")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/sell", resp.Header.Get("Location"))

	page := body(t, h.get("/sell"))
	assert.Contains(t, page, "Edit your product")
	assert.Contains(t, page, `value="Vintage bike"`)
	assert.Contains(t, page, `value="120.5"`)
	assert.Contains(t, page, "img.example/Vintage")

	require.Equal(t, http.StatusFound, h.upload("/sell/images/0", "extra.png", pngBytes).StatusCode)
	resp = h.post("/sell/fields", url.Values{
		"op": {"submit"}, "title": {"Vintage bike v2"}, "price": {"99"},
		"brand": {"Seat"}, "year": {"2012"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/product/1", resp.Header.Get("Location"))

	require.Len(t, h.backend.uploads, 1)
	call := h.backend.uploads[0]
	assert.Equal(t, "/api/products/edit-product/1", call.path)
	assert.Equal(t, "Vintage bike v2", call.product.Title)
	assert.Equal(t, "99", call.product.Price)
	assert.Equal(t, []string{"https://img.example/Vintage bike.jpg"}, call.product.ImageURLs)
	assert.Equal(t, domain.StatusOnSell, call.product.Status)
	assert.Equal(t, "Seat", call.product.Attributes["brand"])
	assert.Equal(t, []string{"extra.png"}, call.images)

	assert.NotContains(t, body(t, h.get("/sell")), "Edit your product", "draft is cleared after saving")
}

func TestEditDropsKeptImage(t *testing.T) {
	h := newHarness(t)
	h.login()
	require.Equal(t, http.StatusFound, h.get("/me/products/1/edit").StatusCode)

	assert.Equal(t, http.StatusBadRequest, h.post("/sell/kept/5/delete", nil).StatusCode)
	require.Equal(t, http.StatusFound, h.post("/sell/kept/0/delete", nil).StatusCode)
	assert.NotContains(t, body(t, h.get("/sell")), "Current photos")
}

func TestEditSomeoneElsesProduct(t *testing.T) {
	h := newHarness(t)
	h.login()

	assert.Equal(t, http.StatusNotFound, h.get("/me/products/77/edit").StatusCode)
	assert.Equal(t, http.StatusNotFound, h.get("/me/products/abc/edit").StatusCode)
	assert.NotContains(t, body(t, h.get("/sell")), "Edit your product")
}
