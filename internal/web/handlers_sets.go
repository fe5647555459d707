package web

import (
	"net/http"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	"github.com/JonMunkholm/cardadmin/internal/web/templates"
)

// API

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.service.ListSets(r.Context(), setOrder(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if sets == nil {
		sets = []catalog.Set{}
	}
	writeJSON(w, r, http.StatusOK, sets)
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	in, err := readSetInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	set, err := s.service.CreateSet(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("set created", "set_id", set.ID, "set_name", set.Name)
	writeJSON(w, r, http.StatusCreated, set)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	set, err := s.service.GetSet(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, set)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := readSetInput(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	set, err := s.service.UpdateSet(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteSet(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("set deleted", "set_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Pages

func (s *Server) handleSetsPage(w http.ResponseWriter, r *http.Request) {
	s.renderSetsPage(w, r, http.StatusOK, catalog.SetInput{}, nil, notice(r))
}

func (s *Server) renderSetsPage(w http.ResponseWriter, r *http.Request, status int, form catalog.SetInput, errs map[string]string, msg string) {
	sets, err := s.service.ListSets(r.Context(), catalog.SetsNewestFirst)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, status, templates.SetsPage(templates.SetsParams{
		Sets:    sets,
		Form:    form,
		Errors:  errs,
		Message: msg,
	}))
}

func (s *Server) handleCreateSetForm(w http.ResponseWriter, r *http.Request) {
	in, err := readSetInput(w, r)
	if err == nil {
		var set catalog.Set
		set, err = s.service.CreateSet(r.Context(), in)
		if err == nil {
			logging.FromContext(r.Context()).Info("set created", "set_id", set.ID, "set_name", set.Name)
			redirect(w, r, withNotice("/sets/"+set.ID.String(), "set-created"))
			return
		}
	}

	if fields := validationFields(err); fields != nil {
		s.renderSetsPage(w, r, http.StatusUnprocessableEntity, in, fields, "")
		return
	}
	respondError(w, r, err)
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	set, err := s.service.GetSet(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.renderSetDetail(w, r, http.StatusOK, set, templates.SetFormFromSet(set), nil, notice(r))
}

func (s *Server) renderSetDetail(w http.ResponseWriter, r *http.Request, status int, set catalog.Set, form catalog.SetInput, errs map[string]string, msg string) {
	cards, err := s.service.ListCards(r.Context(), catalog.CardQuery{SetID: set.ID, Sort: catalog.SortNumber})
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, status, templates.SetDetail(templates.SetDetailParams{
		Set:     set,
		Cards:   cards,
		Form:    form,
		Errors:  errs,
		Message: msg,
	}))
}

func (s *Server) handleUpdateSetForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	set, err := s.service.GetSet(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	in, err := readSetInput(w, r)
	if err == nil {
		if _, err = s.service.UpdateSet(r.Context(), id, in); err == nil {
			redirect(w, r, withNotice("/sets/"+id.String(), "set-updated"))
			return
		}
	}

	if fields := validationFields(err); fields != nil {
		s.renderSetDetail(w, r, http.StatusUnprocessableEntity, set, in, fields, "")
		return
	}
	respondError(w, r, err)
}

func (s *Server) handleDeleteSetForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "setID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteSet(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("set deleted", "set_id", id)
	redirect(w, r, withNotice("/sets", "set-deleted"))
}
