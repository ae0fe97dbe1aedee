package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"Musga/core/catalog"
	"Musga/errs"
	"Musga/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func vocalIDFromRequest(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errs.E(errs.InvalidArgument, "invalid vocal id")
	}
	return id, nil
}

// UploadVocalHandler handles vocal uploads.
// Expected multipart form fields:
// - audio: the audio file (mp3, wav, flac, aac)
// - title, description, genre, bpm, key, tone, price, licensingType
func (h *APIHandler) UploadVocalHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	maxBytes := h.cfg.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, errs.Wrap(errs.InvalidArgument, "failed to parse multipart form", err))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "audio file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	allowed := false
	for _, e := range h.cfg.AllowedExts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, errs.Ef(errs.InvalidArgument, "unsupported audio format %q", ext))
		return
	}

	bpm, err := strconv.Atoi(r.FormValue("bpm"))
	if err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "bpm must be an integer"))
		return
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "price must be a number"))
		return
	}

	// Store the master under a collision-free name before touching the DB.
	storedName := fmt.Sprintf("%s-%s.%s", uuid.NewString(), sanitizeFilename(strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))), ext)
	destPath := filepath.Join(h.cfg.UploadDir, storedName)

	dest, err := os.Create(destPath)
	if err != nil {
		writeError(w, errs.Wrap(errs.Internal, "failed to store uploaded file", err))
		return
	}
	written, err := io.Copy(dest, file)
	dest.Close()
	if err != nil {
		os.Remove(destPath)
		writeError(w, errs.Wrap(errs.Internal, "failed to store uploaded file", err))
		return
	}

	in := catalog.UploadInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Genre:         model.Genre(r.FormValue("genre")),
		Bpm:           bpm,
		Key:           r.FormValue("key"),
		Tone:          r.FormValue("tone"),
		Price:         price,
		LicensingType: model.LicensingType(r.FormValue("licensingType")),
		FilePath:      destPath,
		FileSize:      written,
	}

	vocal, err := h.catalog.Upload(user, in)
	if err != nil {
		os.Remove(destPath)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, vocal)
}

// SearchVocalsHandler lists purchasable vocals with optional filters.
func (h *APIHandler) SearchVocalsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filters := model.SearchFilters{
		Genre:         model.Genre(q.Get("genre")),
		Key:           q.Get("key"),
		LicensingType: model.LicensingType(q.Get("licensingType")),
		Search:        q.Get("search"),
	}

	for name, target := range map[string]**float64{"minPrice": &filters.MinPrice, "maxPrice": &filters.MaxPrice} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeError(w, errs.Ef(errs.InvalidArgument, "%s must be a number", name))
				return
			}
			*target = &v
		}
	}
	for name, target := range map[string]**int{"minBpm": &filters.MinBpm, "maxBpm": &filters.MaxBpm} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, errs.Ef(errs.InvalidArgument, "%s must be an integer", name))
				return
			}
			*target = &v
		}
	}

	result, err := h.catalog.Search(filters, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MyVocalsHandler lists the calling singer's own vocals.
func (h *APIHandler) MyVocalsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.catalog.ListBySinger(user.ID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetVocalHandler fetches one vocal; each successful fetch counts a view.
func (h *APIHandler) GetVocalHandler(w http.ResponseWriter, r *http.Request) {
	id, err := vocalIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	vocal, err := h.catalog.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vocal)
}

// PreviewHandler streams the preview clip with byte-range support.
func (h *APIHandler) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := vocalIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	vocal, err := h.catalog.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if vocal.PreviewPath == "" || vocal.Status != model.VocalCompleted {
		writeError(w, errs.E(errs.NotFound, "preview not available yet"))
		return
	}

	f, err := os.Open(vocal.PreviewPath)
	if err != nil {
		writeError(w, errs.E(errs.NotFound, "preview file missing"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	// ServeContent handles Range and conditional requests.
	http.ServeContent(w, r, filepath.Base(vocal.PreviewPath), vocal.UpdatedAt, f)
}

// UpdateVocalHandler applies a partial patch to an owned vocal.
func (h *APIHandler) UpdateVocalHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := vocalIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch model.VocalPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "invalid request body"))
		return
	}

	vocal, err := h.catalog.Update(id, patch, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vocal)
}

// DeleteVocalHandler soft-deletes an owned vocal.
func (h *APIHandler) DeleteVocalHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := vocalIDFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.catalog.Retire(id, user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
