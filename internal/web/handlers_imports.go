package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	"github.com/JonMunkholm/cardadmin/internal/web/templates"
)

// selectUpload parses the upload form and feeds its set_id and file, when
// present, into the session. The set goes first so it is kept even when
// the file is rejected. requireFile makes a missing file an error.
func (s *Server) selectUpload(w http.ResponseWriter, r *http.Request, id string, requireFile bool) error {
	if err := parseUpload(w, r, s.service.Options().MaxFileSize); err != nil {
		return err
	}

	setID, err := formSetID(r.FormValue("set_id"))
	if err != nil {
		return err
	}
	if setID != uuid.Nil {
		if _, err := s.service.SelectImportSet(r.Context(), id, setID); err != nil {
			return err
		}
	}

	if !hasUpload(r) && !requireFile {
		return nil
	}
	file, name, err := uploadedFile(r)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = s.service.SelectImportFile(r.Context(), id, name, file)
	return err
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// API

// handleCreateImport opens a session. A multipart body may carry the
// file and set_id right away; failures there still return the session ID
// so the client can fix the input.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.NewImport(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if isMultipart(r) {
		if err := s.selectUpload(w, r, id, false); err != nil {
			respondImportError(w, r, id, err)
			return
		}
	}

	view, err := s.service.Import(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/imports/"+id)
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Import(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleImportFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	if err := parseUpload(w, r, s.service.Options().MaxFileSize); err != nil {
		respondImportError(w, r, id, err)
		return
	}
	file, name, err := uploadedFile(r)
	if err != nil {
		respondImportError(w, r, id, err)
		return
	}
	defer file.Close()

	view, err := s.service.SelectImportFile(r.Context(), id, name, file)
	if err != nil {
		respondImportError(w, r, id, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// importSetRequest is the body of PUT /api/imports/{id}/set.
type importSetRequest struct {
	SetID uuid.UUID `json:"set_id"`
}

func (s *Server) handleImportSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	var req importSetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondImportError(w, r, id, err)
		return
	}
	view, err := s.service.SelectImportSet(r.Context(), id, req.SetID)
	if err != nil {
		respondImportError(w, r, id, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	view, err := s.service.StartImport(r.Context(), id)
	if err != nil {
		respondImportError(w, r, id, err)
		return
	}
	w.Header().Set("Location", "/api/imports/"+id)
	writeJSON(w, r, http.StatusAccepted, view)
}

// handleImportProgress streams progress as server-sent events. The
// current progress is sent first; a "complete" event ends the stream when
// the run finishes, or right away when nothing is running.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	updates, unsubscribe, err := s.service.SubscribeImport(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	logger := logging.WithFields(r.Context(), "import_id", id)

	var eventID int
	for {
		select {
		case progress, ok := <-updates:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				rc.Flush()
				return
			}

			data, err := json.Marshal(progress)
			if err != nil {
				logger.Error("encode progress", "error", err)
				return
			}
			eventID++
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			if err := rc.Flush(); err != nil {
				logger.Debug("progress stream closed", "error", err)
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

// Pages

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	sets, err := s.service.ListSets(r.Context(), catalog.SetsByName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	selected, _ := uuid.Parse(r.URL.Query().Get("set"))
	render(w, r, http.StatusOK, templates.ImportPage(templates.ImportParams{
		Sets:        sets,
		SelectedSet: selected,
	}))
}

func (s *Server) handleCreateImportForm(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.NewImport(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.selectUpload(w, r, id, true); err != nil {
		s.renderImportDetail(w, r, id, err)
		return
	}
	redirect(w, r, "/import/"+id)
}

func (s *Server) handleImportDetail(w http.ResponseWriter, r *http.Request) {
	s.renderImportDetail(w, r, chi.URLParam(r, "importID"), nil)
}

func (s *Server) handleImportFileForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	if err := s.selectUpload(w, r, id, true); err != nil {
		s.renderImportDetail(w, r, id, err)
		return
	}
	redirect(w, r, "/import/"+id)
}

func (s *Server) handleImportSetForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")

	setID, err := formSetID(r.PostFormValue("set_id"))
	if err == nil {
		_, err = s.service.SelectImportSet(r.Context(), id, setID)
	}
	if err != nil {
		s.renderImportDetail(w, r, id, err)
		return
	}
	redirect(w, r, "/import/"+id)
}

func (s *Server) handleStartImportForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	if _, err := s.service.StartImport(r.Context(), id); err != nil {
		s.renderImportDetail(w, r, id, err)
		return
	}
	redirect(w, r, "/import/"+id)
}

// renderImportDetail shows the session page, with cause as an inline
// error when a form step failed. Unknown sessions get the error page.
func (s *Server) renderImportDetail(w http.ResponseWriter, r *http.Request, id string, cause error) {
	view, err := s.service.Import(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sets, err := s.service.ListSets(r.Context(), catalog.SetsByName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusOK
	params := templates.ImportDetailParams{View: view, Sets: sets}
	if cause != nil {
		status = errorStatus(cause)
		params.Error = mapError(cause).Message
		logging.FromContext(r.Context()).Info("import step rejected",
			"import_id", id,
			"error", cause,
		)
	}
	render(w, r, status, templates.ImportDetail(params))
}
