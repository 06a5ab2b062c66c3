package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"marketfront/internal/domain"
)

// Upload is one image part of a create-product request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// EncodeListing builds the create-product multipart body: one "images" part
// per upload, in the given order, followed by the "product" JSON part.
func EncodeListing(listing domain.Listing, uploads []Upload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for i, u := range uploads {
		ct := u.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		name := u.Filename
		if name == "" {
			name = fmt.Sprintf("image-%d", i+1)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="images"; filename="%s"`, quoteEscaper.Replace(name)))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("multipart: image %d: %w", i, err)
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, "", fmt.Errorf("multipart: image %d: %w", i, err)
		}
	}

	product, err := json.Marshal(listing)
	if err != nil {
		return nil, "", fmt.Errorf("multipart: product json: %w", err)
	}
	if err := w.WriteField("product", string(product)); err != nil {
		return nil, "", fmt.Errorf("multipart: product: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart: close: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
