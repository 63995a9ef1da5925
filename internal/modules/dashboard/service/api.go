package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

// Действия /manage_list.
const (
	ActionAddMonitor    = "add_mon"
	ActionRemoveMonitor = "rem_mon"
	ActionAddIgnore     = "add_ign"
	ActionRemoveIgnore  = "rem_ign"
)

// Admin - то, что дашборд умеет делать с движком.
type Admin interface {
	GetConfig() models.FilterConfig
	UpdateConfig(raw map[string]string) error
	Lists() models.SymbolLists
	AddToMonitor(ctx context.Context, sym string) error
	RemoveFromMonitor(ctx context.Context, sym string) error
	AddToIgnore(ctx context.Context, sym string) error
	RemoveFromIgnore(ctx context.Context, sym string) error
	ResetSession(ctx context.Context)
	CoverageSnapshot() models.CoverageSnapshot
	History() []models.SignalEvent
	Anchor(symbol string) (models.AnchorState, bool)
}

type API struct {
	admin    Admin
	hub      *Hub
	upgrader websocket.Upgrader
}

type configResponse struct {
	Filters models.FilterConfig `json:"filters"`
	Lists   models.SymbolLists  `json:"lists"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewAPI(admin Admin, hub *Hub) *API {
	return &API{
		admin: admin,
		hub:   hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// дашборд открывают с любого хоста
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/coverage", a.handleCoverage)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.HandleFunc("/api/anchor", a.handleAnchor)
	mux.HandleFunc("/update_params", a.handleUpdateParams)
	mux.HandleFunc("/manage_list", a.handleManageList)
	mux.HandleFunc("/clear_session", a.handleClearSession)
	mux.HandleFunc("/ws", a.handleWS)
}

func (a *API) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Filters: a.admin.GetConfig(),
		Lists:   a.admin.Lists(),
	})
}

func (a *API) handleCoverage(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, a.admin.CoverageSnapshot())
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	h := a.admin.History()
	if h == nil {
		h = []models.SignalEvent{}
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *API) handleAnchor(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	sym := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	st, ok := a.admin.Anchor(sym)
	if !ok {
		writeJSON(w, http.StatusNotFound, statusResponse{Status: "error", Message: "unknown symbol"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleUpdateParams(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
		return
	}

	raw := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		raw[k] = r.PostForm.Get(k)
	}
	if err := a.admin.UpdateConfig(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Filters: a.admin.GetConfig(),
		Lists:   a.admin.Lists(),
	})
}

func (a *API) handleManageList(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: err.Error()})
		return
	}

	action := r.PostForm.Get("action")
	sym := r.PostForm.Get("symbol")
	ctx := r.Context()

	var err error
	switch action {
	case ActionAddMonitor:
		err = a.admin.AddToMonitor(ctx, sym)
	case ActionRemoveMonitor:
		err = a.admin.RemoveFromMonitor(ctx, sym)
	case ActionAddIgnore:
		err = a.admin.AddToIgnore(ctx, sym)
	case ActionRemoveIgnore:
		err = a.admin.RemoveFromIgnore(ctx, sym)
	default:
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "unknown action: " + action})
		return
	}
	if err != nil {
		// в памяти изменение уже применено, не сохранился только файл
		logger.Error("[DASH] manage_list %s %s: %v", action, sym, err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Filters: a.admin.GetConfig(),
		Lists:   a.admin.Lists(),
	})
}

func (a *API) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	a.admin.ResetSession(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.Debug("[DASH] upgrade: %v", err)
		return
	}
	logger.Debug("[DASH] client connected %s", conn.RemoteAddr())
	a.hub.Attach(conn, a.admin.History)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, statusResponse{Status: "error", Message: "method not allowed"})
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("[DASH] encode response: %v", err)
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
