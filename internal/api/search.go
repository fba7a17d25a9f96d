package api

import (
	"errors"
	"net/http"

	"camcam/internal/search"
	"camcam/internal/view"
)

// Suggest answers 204 when a later keystroke superseded this query.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	s, err := sess.Suggester.OnQueryChange(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if !errors.Is(err, search.ErrSuperseded) {
			h.logger.Debug().Err(err).Msg("suggestion request dropped")
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, view.TplSuggestions, view.NewSuggestions(s, false))
}

// SuggestMore returns only the newly appended items. X-Has-More tells the
// script whether to keep listening for scroll.
func (h *Handler) SuggestMore(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	s := sess.Suggester.NextPage(r.Context())
	if s.HasMore {
		w.Header().Set("X-Has-More", "1")
	} else {
		w.Header().Set("X-Has-More", "0")
	}
	if len(s.Items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, view.TplSuggestions, view.NewSuggestions(s, true))
}

func (h *Handler) DismissSuggestions(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	sess.Suggester.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SuggestActors(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	h.render(w, view.TplActors, view.NewActors(q, sess.Actors.Suggest(r.Context(), q)))
}
