package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"Musga/errs"
	"Musga/model"

	"github.com/gorilla/mux"
)

// CreatePaymentIntentRequest is the purchase initiation body.
type CreatePaymentIntentRequest struct {
	TrackID int64 `json:"trackId"`
}

// CreatePaymentIntentHandler starts a purchase for the calling DJ.
func (h *APIHandler) CreatePaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.E(errs.InvalidArgument, "invalid request body"))
		return
	}
	if req.TrackID < 1 {
		writeError(w, errs.E(errs.InvalidArgument, "trackId is required"))
		return
	}

	intent, err := h.ledger.InitiatePurchase(r.Context(), req.TrackID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

// ConfirmPaymentHandler settles a pending transaction by its gateway reference.
func (h *APIHandler) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	if ref == "" {
		writeError(w, errs.E(errs.InvalidArgument, "payment reference is required"))
		return
	}

	tx, err := h.ledger.ConfirmPurchase(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     tx.Status == model.TransactionCompleted,
		"transaction": tx,
	})
}

// PurchasesHandler lists the caller's completed purchases.
func (h *APIHandler) PurchasesHandler(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.ledger.ListPurchases(user.ID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SalesHandler lists the calling singer's completed sales, optionally filtered
// to one track via ?trackId=.
func (h *APIHandler) SalesHandler(w http.ResponseWriter, r *http.Request) {
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

	var trackID int64
	if raw := r.URL.Query().Get("trackId"); raw != "" {
		trackID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, errs.E(errs.InvalidArgument, "trackId must be an integer"))
			return
		}
	}

	result, err := h.ledger.ListSales(user.ID, trackID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// EarningsHandler summarizes the calling singer's completed sales.
func (h *APIHandler) EarningsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.ledger.Earnings(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// DownloadHandler serves the master file to a buyer with a completed purchase.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	raw := mux.Vars(r)["trackId"]
	trackID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || trackID < 1 {
		writeError(w, errs.E(errs.InvalidArgument, "invalid track id"))
		return
	}

	path, err := h.ledger.ResolveDownloadPath(trackID, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(w, errs.E(errs.NotFound, "audio file missing"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), time.Time{}, f)
}
