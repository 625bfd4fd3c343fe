package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/term"
	"github.com/munigov/munigov-sdk/modules/roster/domain/entities/unit"
	"github.com/munigov/munigov-sdk/modules/roster/services"
	"github.com/munigov/munigov-sdk/pkg/application"
	"github.com/munigov/munigov-sdk/pkg/configuration"
)

type RosterImportAPIController struct {
	app      application.Application
	imports  *services.RosterImportService
	basePath string
}

func NewRosterImportAPIController(app application.Application) application.Controller {
	return &RosterImportAPIController{
		app:      app,
		imports:  app.Service(services.RosterImportService{}).(*services.RosterImportService),
		basePath: "/roster/api",
	}
}

func (c *RosterImportAPIController) Key() string {
	return c.basePath
}

func (c *RosterImportAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/imports:validate", c.Validate).Methods(http.MethodPost)
	router.HandleFunc("/imports", c.Import).Methods(http.MethodPost)
}

// uploadedInput extracts the roster file and term from a multipart request.
func (c *RosterImportAPIController) uploadedInput(w http.ResponseWriter, r *http.Request) (services.ImportInput, multipart.File, bool) {
	var input services.ImportInput

	maxUpload := configuration.Use().MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ROSTER_INVALID_UPLOAD", "expected a multipart form with a roster file")
		return input, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "ROSTER_FILE_REQUIRED", "form field \"file\" is required")
		return input, nil, false
	}

	format, ok := services.DetectFormat(header.Header.Get("Content-Type"), header.Filename)
	if !ok {
		file.Close()
		writeAPIError(w, r, http.StatusUnsupportedMediaType, "ROSTER_UNSUPPORTED_FORMAT", "only csv and xlsx files are accepted")
		return input, nil, false
	}

	termID, err := uuid.Parse(strings.TrimSpace(r.FormValue("term_id")))
	if err != nil {
		file.Close()
		writeAPIError(w, r, http.StatusBadRequest, "ROSTER_INVALID_TERM", "form field \"term_id\" must be a uuid")
		return input, nil, false
	}

	input.File = file
	input.Format = format
	input.TermID = termID
	return input, file, true
}

func (c *RosterImportAPIController) Validate(w http.ResponseWriter, r *http.Request) {
	input, file, ok := c.uploadedInput(w, r)
	if !ok {
		return
	}
	defer file.Close()

	report, err := c.imports.Validate(r.Context(), input)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (c *RosterImportAPIController) Import(w http.ResponseWriter, r *http.Request) {
	input, file, ok := c.uploadedInput(w, r)
	if !ok {
		return
	}
	defer file.Close()

	strategy, ok := services.ParseStrategy(r.FormValue("strategy"))
	if !ok {
		writeAPIError(w, r, http.StatusBadRequest, "ROSTER_INVALID_STRATEGY", "strategy must be one of skip, update, restore")
		return
	}
	opts := services.ImportOptions{
		Strategy:     strategy,
		AllowPartial: r.FormValue("allow_partial") == "true",
	}

	report, err := c.imports.Import(r.Context(), input, opts)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (c *RosterImportAPIController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrMalformedInput):
		writeAPIError(w, r, http.StatusBadRequest, "ROSTER_MALFORMED_FILE", err.Error())
	case errors.Is(err, services.ErrSchemaMismatch):
		writeAPIError(w, r, http.StatusUnprocessableEntity, "ROSTER_SCHEMA_MISMATCH", err.Error())
	case errors.Is(err, services.ErrTooManyRows):
		writeAPIError(w, r, http.StatusRequestEntityTooLarge, "ROSTER_TOO_MANY_ROWS", err.Error())
	case errors.Is(err, services.ErrBatchNotClean):
		writeAPIError(w, r, http.StatusConflict, "ROSTER_BATCH_NOT_CLEAN", err.Error())
	case errors.Is(err, services.ErrImportConflict):
		writeAPIError(w, r, http.StatusConflict, "ROSTER_IMPORT_CONFLICT", "a concurrent import changed the roster, please retry")
	case errors.Is(err, term.ErrNotFound):
		writeAPIError(w, r, http.StatusNotFound, "ROSTER_TERM_NOT_FOUND", "unknown governing term")
	case errors.Is(err, unit.ErrNotFound):
		writeAPIError(w, r, http.StatusNotFound, "ROSTER_UNIT_NOT_FOUND", "unknown unit")
	default:
		c.app.Logger().WithError(err).Error("roster import request failed")
		writeAPIError(w, r, http.StatusInternalServerError, "ROSTER_INTERNAL", "internal error")
	}
}
