package server

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"Musga/config"
	"Musga/core/catalog"
	"Musga/core/identity"
	"Musga/core/ledger"
	"Musga/errs"
	"Musga/model"
)

// APIHandler routes HTTP requests into the core services.
type APIHandler struct {
	identity *identity.Service
	catalog  *catalog.Service
	ledger   *ledger.Service
	cfg      *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	identitySvc *identity.Service,
	catalogSvc *catalog.Service,
	ledgerSvc *ledger.Service,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		identity: identitySvc,
		catalog:  catalogSvc,
		ledger:   ledgerSvc,
		cfg:      cfg,
	}
}

var nonAlphaNumeric = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var multipleSpaces = regexp.MustCompile(`\s+`)

// sanitizeFilename strips anything that should not land on disk.
func sanitizeFilename(name string) string {
	base := strings.TrimSpace(name)
	base = multipleSpaces.ReplaceAllString(base, "_")
	base = nonAlphaNumeric.ReplaceAllString(base, "")

	maxLength := 150
	if len(base) > maxLength {
		base = base[:maxLength]
	}
	if base == "" {
		base = "upload"
	}
	return base
}

// parsePage reads page/limit query parameters with the standard defaults.
func parsePage(r *http.Request) (model.Page, error) {
	pageNum := 1
	limit := 20

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Page{}, errs.E(errs.InvalidArgument, "invalid page number")
		}
		pageNum = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.Page{}, errs.E(errs.InvalidArgument, "invalid limit")
		}
		limit = n
	}

	return model.NewPage(pageNum, limit)
}
