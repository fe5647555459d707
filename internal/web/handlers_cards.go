package web

import (
	"net/http"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/logging"
	"github.com/JonMunkholm/cardadmin/internal/web/templates"
)

// API

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	q, err := cardQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cards, err := s.service.ListCards(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if cards == nil {
		cards = []catalog.CardWithSet{}
	}
	writeJSON(w, r, http.StatusOK, cards)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var in catalog.NewCard
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	card, err := s.service.CreateCard(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("card created", "set_id", card.SetID, "slug", card.Slug)
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cardID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	card, err := s.service.GetCard(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cardID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteCard(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pages

func (s *Server) handleCardsPage(w http.ResponseWriter, r *http.Request) {
	q, err := cardQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cards, err := s.service.ListCards(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sets, err := s.service.ListSets(r.Context(), catalog.SetsByName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.CardsPage(templates.CardsParams{
		Cards:   cards,
		Sets:    sets,
		Query:   q,
		Message: notice(r),
	}))
}

func (s *Server) handleDeleteCardForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "cardID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.service.DeleteCard(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("card deleted", "card_id", id)
	redirect(w, r, withNotice(localPath(r.PostFormValue("return_to"), "/cards"), "card-deleted"))
}
