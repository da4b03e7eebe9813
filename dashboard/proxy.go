package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
)

// Proxy relays the backend dashboard state to browsers with permissive CORS
type Proxy struct {
	Backend string
	Client  *http.Client
}

// NewProxy creates a proxy for backend. An empty backend means DefaultEndpoint.
func NewProxy(backend string, client *http.Client) *Proxy {
	if backend == "" {
		backend = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{Backend: backend, Client: client}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, p.Backend, nil)
	if err != nil {
		p.fail(w, err)
		return
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		p.fail(w, err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (p *Proxy) fail(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":  "Failed to fetch backend state",
		"detail": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
