package api

import (
	"fmt"
	"net/http"
	"strconv"

	"camcam/internal/player"
	"camcam/internal/streaming"
	"camcam/internal/view"
)

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}

func (h *Handler) OpenPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	panel := sess.Player.Open(r.Context(), r.FormValue("embed"), r.FormValue("name"), formInt(r, "server"), formInt(r, "episode"))
	h.render(w, view.TplPlayer, panel)
}

func (h *Handler) SwitchServer(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	panel := sess.Player.SwitchServer(r.Context(), formInt(r, "server"), formInt(r, "episode"))
	h.render(w, view.TplPlayer, panel)
}

func (h *Handler) SwitchEpisode(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	panel := sess.Player.SwitchEpisode(r.Context(), formInt(r, "server"), formInt(r, "episode"))
	h.render(w, view.TplPlayer, panel)
}

func (h *Handler) SetPlayerMode(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	panel := sess.Player.SetMode(r.Context(), player.ParseMode(r.FormValue("mode")))
	h.render(w, view.TplPlayer, panel)
}

// CurrentPlayer re-renders the panel for the current selection.
func (h *Handler) CurrentPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	h.render(w, view.TplPlayer, sess.Player.Current())
}

// FallbackPlayer records an unrecoverable adaptive error reported by the
// browser and answers with the embedded panel.
func (h *Handler) FallbackPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	reason := r.FormValue("reason")
	if reason == "" {
		reason = "unknown"
	}
	panel := sess.Player.Fallback(fmt.Errorf("browser playback: %s", reason))
	h.render(w, view.TplPlayer, panel)
}

func (h *Handler) ClosePlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	sess.Player.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StreamManifest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	stream, _ := sess.Player.Stream().(*streaming.HLSStream)
	h.streamer.ServeManifest(w, r, stream)
}
