package serialmux

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes attaches admin debugging endpoints to the given HTTP mux
// served at /debug/. These routes are accessible only over localhost/via
// Tailscale and are not publicly accessible.
func (t *Transport) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// Write a raw command line to the controller and return every reply
	// line received before the read timeout.
	debug.HandleSilentFunc("send-command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		lines, err := t.ExchangeAll([]byte(command))
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to exchange command: %v", err), http.StatusInternalServerError)
			return
		}
		if len(lines) == 0 {
			io.WriteString(w, fmt.Sprintf("Wrote command %q; no reply before timeout\n", command))
			return
		}
		for _, line := range lines {
			w.Write(line)
			w.Write([]byte("\n"))
		}
	})
}
