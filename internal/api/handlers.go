package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"clinicbook/internal/metrics"
	"clinicbook/internal/models"
	"clinicbook/internal/notify"
)

// resultStatus maps a repository result to an HTTP status code.
func resultStatus(res models.Result, successCode int) int {
	if res.Success {
		return successCode
	}
	switch res.Kind {
	case models.FailureConflict:
		return http.StatusConflict
	case models.FailureNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// writeResult answers with the result body, or 500 when the repository failed unexpectedly.
func (s *HTTPServer) writeResult(w http.ResponseWriter, op string, res models.Result, err error, successCode int) bool {
	metrics.ObserveResult(op, res, err)
	if err != nil {
		s.log.Error().Err(err).Str("operation", op).Msg("Repository failure")
		writeError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	writeJSON(w, resultStatus(res, successCode), res)
	return res.Success
}

func (s *HTTPServer) internalError(w http.ResponseWriter, op string, err error) {
	metrics.ObserveResult(op, models.Result{}, err)
	s.log.Error().Err(err).Str("operation", op).Msg("Repository failure")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Result{Kind: models.FailureParse, Message: "invalid JSON body"})
		return false
	}
	return true
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var candidate models.Booking
	if !decodeBody(w, r, &candidate, false) {
		return
	}

	res, err := s.deps.Bookings.Create(r.Context(), candidate)
	if s.writeResult(w, "create", res, err, http.StatusCreated) {
		s.notify(notify.KindBooking, *res.Booking)
	}
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Bookings.List(r.Context())
	if err != nil {
		s.internalError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGet(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.internalError(w, "get", err)
		return
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, models.Result{Kind: models.FailureNotFound, Message: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.BookingPatch
	if !decodeBody(w, r, &patch, true) {
		return
	}

	res, err := s.deps.Bookings.Update(r.Context(), r.PathValue("id"), patch)
	if s.writeResult(w, "update", res, err, http.StatusOK) && res.Became(models.StatusConfirmed) {
		s.notify(notify.KindConfirmation, *res.Booking)
	}
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.Status `json:"status"`
	}
	if !decodeBody(w, r, &body, true) {
		return
	}

	res, err := s.deps.Bookings.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
	if s.writeResult(w, "update_status", res, err, http.StatusOK) && res.Became(models.StatusConfirmed) {
		s.notify(notify.KindConfirmation, *res.Booking)
	}
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Bookings.Cancel(r.Context(), r.PathValue("id"))
	s.writeResult(w, "cancel", res, err, http.StatusOK)
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Bookings.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.internalError(w, "delete", err)
		return
	}
	metrics.ObserveResult("delete", models.Result{Success: true}, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Bookings.Stats(r.Context())
	if err != nil {
		s.internalError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Bookings.ExportCSV(r.Context())
	if err != nil {
		s.internalError(w, "export_csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func (s *HTTPServer) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.deps.Bookings.ExportXLSX(r.Context(), &buf); err != nil {
		s.internalError(w, "export_xlsx", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	mode := models.ImportMode(r.URL.Query().Get("mode"))
	res, err := s.deps.Bookings.ImportJSON(r.Context(), string(body), mode)
	s.writeResult(w, "import", res, err, http.StatusOK)
}

// deliveryLog is implemented by dispatchers that keep a delivery history.
type deliveryLog interface {
	Recent(n int) []notify.Delivery
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	history, ok := s.deps.Dispatcher.(deliveryLog)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"deliveries": []notify.Delivery{}})
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": history.Recent(n)})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	body := map[string]any{"status": "ok"}
	if d, ok := s.deps.Store.(interface{ Degraded() bool }); ok {
		degraded := d.Degraded()
		metrics.SetStoreDegraded(degraded)
		if degraded {
			body["status"] = "degraded"
		}
	}

	if err := s.deps.Store.Ping(r.Context()); err != nil {
		body["error"] = err.Error()
		if body["status"] != "degraded" {
			body["status"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}
