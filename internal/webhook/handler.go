package webhook

import (
	"net/http"

	"vallet-go/internal/logger"

	"go.uber.org/zap"
)

// Handler returns the inbound POST handler for the gateway's callbacks.
// Receipt is always acknowledged with a fixed success body regardless of
// parsing or verification outcome; acknowledgement is a transport concern.
func (d *Dispatcher) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			logger.FromCtx(r.Context()).Warn("unreadable callback body", zap.Error(err))
		} else {
			d.Parse(r.Context(), r.PostForm)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
