package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/clean"
	"github.com/KaramelBytes/dataprep-cli/internal/ingest"
	"github.com/KaramelBytes/dataprep-cli/internal/profile"
	"github.com/KaramelBytes/dataprep-cli/internal/snapshot"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

const sessionExpired = "session expired, please upload again"

var validate = validator.New()

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// ProfileResponse is returned by POST /api/v1/profile.
type ProfileResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Rows      int              `json:"rows"`
	Columns   int              `json:"columns"`
	Report    *profile.Report  `json:"report"`
	Visuals   *profile.Visuals `json:"visuals"`
	Warnings  []string         `json:"warnings"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(middleware.GetReqID(r.Context()))
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			s.uploadFailed(w, r, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
		case errors.Is(err, http.ErrMissingFile):
			s.uploadFailed(w, r, http.StatusBadRequest, "no file selected")
		default:
			s.uploadFailed(w, r, http.StatusBadRequest, "invalid upload: "+err.Error())
		}
		return
	}
	defer file.Close()
	if hdr.Filename == "" {
		s.uploadFailed(w, r, http.StatusBadRequest, "no file selected")
		return
	}

	res, err := ingest.Read(file, hdr.Filename, s.ingestOpt)
	if err != nil {
		var malformed *ingest.MalformedInputError
		var tooBig *http.MaxBytesError
		switch {
		case errors.Is(err, ingest.ErrTooLarge), errors.As(err, &tooBig):
			s.uploadFailed(w, r, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
		case errors.As(err, &malformed):
			s.uploadFailed(w, r, http.StatusUnprocessableEntity, "cannot read table: "+malformed.Error())
		default:
			log.Error("ingest failed", zap.Error(err))
			s.uploadFailed(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	ds := res.Data
	for _, warn := range res.Warnings {
		log.Warn("upload warning", zap.String("file", hdr.Filename), zap.String("warning", warn))
	}

	start := time.Now()
	rep := profile.Profile(ds)
	rep.Warnings = res.Warnings
	vis := profile.Visualize(ds, s.profileOpt)
	s.metrics.ProfileDuration.Observe(time.Since(start).Seconds())

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	ticket, err := s.store.Put(ctx, ds)
	if err != nil {
		log.Error("snapshot store failed", zap.Error(err))
		s.uploadFailed(w, r, http.StatusServiceUnavailable, "could not store dataset")
		return
	}

	s.metrics.Uploads.WithLabelValues("ok").Inc()
	s.metrics.UploadRows.Observe(float64(ds.NumRows()))
	log.Info("dataset profiled",
		zap.String("file", hdr.Filename),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumCols()),
		zap.Time("expires_at", ticket.ExpiresAt),
	)

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	render.JSON(w, r, ProfileResponse{
		Token:     ticket.Token,
		ExpiresAt: ticket.ExpiresAt,
		Rows:      ds.NumRows(),
		Columns:   ds.NumCols(),
		Report:    rep,
		Visuals:   vis,
		Warnings:  warnings,
	})
}

func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, code int, msg string) {
	s.metrics.Uploads.WithLabelValues(strconv.Itoa(code)).Inc()
	_ = render.Render(w, r, errResponse(r, code, msg))
}

// CleanRequest is the JSON body of POST /api/v1/clean.
type CleanRequest struct {
	Token string `json:"token" validate:"required"`
	clean.Options
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(middleware.GetReqID(r.Context()))
	r.Body = http.MaxBytesReader(w, r.Body, multipartOverhead)

	req, err := decodeCleanRequest(r)
	if err != nil {
		s.cleanFailed(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		s.cleanFailed(w, r, http.StatusGone, sessionExpired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	ds, err := s.store.Take(ctx, req.Token)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			s.cleanFailed(w, r, http.StatusGone, sessionExpired)
			return
		}
		log.Error("snapshot lookup failed", zap.Error(err))
		s.cleanFailed(w, r, http.StatusServiceUnavailable, "could not load dataset")
		return
	}

	out, sum := clean.Clean(ds, req.Options)
	steps := make([]string, len(sum.Steps))
	for i, st := range sum.Steps {
		steps[i] = st.Step
		s.metrics.RowsRemoved.Add(float64(st.RowsRemoved))
		s.metrics.CellsFilled.Add(float64(st.CellsFilled))
		if len(st.IgnoredColumns) > 0 {
			log.Info("ignored unknown columns", zap.Strings("columns", st.IgnoredColumns))
		}
	}
	s.metrics.Cleans.WithLabelValues("ok").Inc()
	log.Info("dataset cleaned",
		zap.Int("rows_before", sum.RowsBefore),
		zap.Int("rows_after", sum.RowsAfter),
		zap.Int("cols_before", sum.ColsBefore),
		zap.Int("cols_after", sum.ColsAfter),
		zap.Strings("steps", steps),
	)

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "cleaned_data.csv"}))
	h.Set("X-Rows-Before", strconv.Itoa(sum.RowsBefore))
	h.Set("X-Rows-After", strconv.Itoa(sum.RowsAfter))
	h.Set("X-Columns-Before", strconv.Itoa(sum.ColsBefore))
	h.Set("X-Columns-After", strconv.Itoa(sum.ColsAfter))
	h.Set("X-Clean-Steps", strings.Join(steps, ","))
	w.WriteHeader(http.StatusOK)
	if err := ingest.WriteCSV(w, out); err != nil {
		log.Error("write cleaned csv", zap.Error(err))
	}
}

func (s *Server) cleanFailed(w http.ResponseWriter, r *http.Request, code int, msg string) {
	s.metrics.Cleans.WithLabelValues(strconv.Itoa(code)).Inc()
	_ = render.Render(w, r, errResponse(r, code, msg))
}

// decodeCleanRequest reads a JSON body, or falls back to the HTML form
// fields: temp_csv (or token), drop_cols, drop_duplicates, drop_empty_cols,
// fill_numeric_mean and fill_categorical_mode. Checkbox fields are true
// when present.
func decodeCleanRequest(r *http.Request) (*CleanRequest, error) {
	req := &CleanRequest{}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, errors.New("invalid JSON body: " + err.Error())
		}
		return req, nil
	}

	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartOverhead)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, errors.New("invalid form body: " + err.Error())
	}
	req.Token = r.FormValue("token")
	if req.Token == "" {
		req.Token = r.FormValue("temp_csv")
	}
	for _, key := range []string{"drop_cols", "drop_columns"} {
		req.DropColumns = append(req.DropColumns, r.Form[key]...)
	}
	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := r.Form[k]; ok {
				return true
			}
		}
		return false
	}
	req.DropDuplicateRows = has("drop_duplicates")
	req.DropSparseColumns = has("drop_empty_cols", "drop_sparse_columns")
	req.FillNumericMean = has("fill_numeric_mean")
	req.FillCategoricalMode = has("fill_categorical_mode")
	return req, nil
}
