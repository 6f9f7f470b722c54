package server

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/alexanderramin/miru/internal/validate"
)

const maxUploadBody = (validate.MaxScreenshotMB + 1) << 20

// importSource reads either a multipart "screenshot" upload or a JSON body
// with pasted text.
func (h *APIHandlers) importSource(w http.ResponseWriter, r *http.Request) (domain.Provider, service.ImportSource, error) {
	var (
		providerName string
		src          service.ImportSource
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
		if err := r.ParseMultipartForm(maxUploadBody); err != nil {
			return "", src, badFields(map[string]string{"screenshot": "画像を読み込めませんでした"})
		}
		f, hdr, err := r.FormFile("screenshot")
		if err != nil {
			return "", src, badFields(map[string]string{"screenshot": "画像を選択してください"})
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", src, err
		}
		mimeType := hdr.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		providerName = r.FormValue("provider")
		src.Image = &llm.Image{Data: data, MimeType: mimeType}
	} else {
		var req importTextRequest
		if err := decodeJSON(r, &req); err != nil {
			return "", src, err
		}
		providerName = req.Provider
		src.Text = req.Text
	}
	p, err := domain.ParseProvider(providerName)
	if err != nil {
		return "", src, llm.ErrUnknownProvider
	}
	return p, src, nil
}

// importNew extracts a profile. With ?create=true it also saves a new
// connection from it.
func (h *APIHandlers) importNew(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID
	p, src, err := h.importSource(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	prof, err := h.svc.Import.Extract(r.Context(), userID, p, src)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := extractedResponse{Profile: prof}
	status := http.StatusOK
	if create, _ := strconv.ParseBool(r.URL.Query().Get("create")); create {
		c, err := h.svc.Import.CreateFrom(r.Context(), userID, prof)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		cr := newConnectionResponse(c)
		out.Connection = &cr
		status = http.StatusCreated
	}
	respondJSON(w, status, out)
}

// importInto extracts a profile and merges it into an existing connection.
func (h *APIHandlers) importInto(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID
	id := r.PathValue("id")
	if _, err := h.svc.Connections.Get(r.Context(), userID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, src, err := h.importSource(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	prof, err := h.svc.Import.Extract(r.Context(), userID, p, src)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.svc.Import.Apply(r.Context(), userID, id, prof)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cr := newConnectionResponse(c)
	respondJSON(w, http.StatusOK, extractedResponse{Profile: prof, Connection: &cr})
}
