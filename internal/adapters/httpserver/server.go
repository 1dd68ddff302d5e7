package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/licores/internal/adapters/notify"
	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

type Server struct {
	mux       *http.ServeMux
	products  *usecase.ProductUC
	customers *usecase.CustomerUC
	orders    *usecase.OrderUC
	invoices  *usecase.InvoiceUC
	sales     *usecase.SalesUC
	events    *notify.Broker
	oauthCfg  *oauth2.Config
	auth      AuthOptions
}

// AuthOptions configura la sesión del tablero.
type AuthOptions struct {
	Secret       []byte
	DemoPassword string
	// Staff asocia email con rol; el resto de los usuarios entra como cliente.
	Staff  map[string]string
	Secure bool
}

func New(p *usecase.ProductUC, c *usecase.CustomerUC, o *usecase.OrderUC, inv *usecase.InvoiceUC, sales *usecase.SalesUC, events *notify.Broker, auth AuthOptions, oauthCfg *oauth2.Config) http.Handler {
	if len(auth.Secret) == 0 {
		auth.Secret = []byte("dev-session-secret")
	}
	if auth.Staff == nil {
		auth.Staff = map[string]string{}
	}
	s := &Server{
		mux:       http.NewServeMux(),
		products:  p,
		customers: c,
		orders:    o,
		invoices:  inv,
		sales:     sales,
		events:    events,
		oauthCfg:  oauthCfg,
		auth:      auth,
	}
	s.routes()
	return Chain(s.mux,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/me", s.handleMe)
	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)

	s.mux.HandleFunc("/api/products", s.apiProducts)
	s.mux.HandleFunc("/api/products/", s.apiProductByID)
	s.mux.HandleFunc("/api/products/low-stock", s.apiLowStock)
	s.mux.HandleFunc("/api/products/import", s.apiProductsImport)
	s.mux.HandleFunc("/api/categories", s.apiCategories)
	s.mux.HandleFunc("/api/transfers", s.apiTransfers)

	s.mux.HandleFunc("/api/customers", s.apiCustomers)
	s.mux.HandleFunc("/api/customers/", s.apiCustomerByID)

	s.mux.HandleFunc("/api/orders", s.apiOrders)
	s.mux.HandleFunc("/api/orders/", s.apiOrderByID)

	s.mux.HandleFunc("/api/invoices", s.apiInvoices)
	s.mux.HandleFunc("/api/invoices/", s.apiInvoiceByID)

	s.mux.HandleFunc("/api/reports/sales", s.apiSalesReport)
	s.mux.HandleFunc("/api/reports/stock.xlsx", s.apiStockReport)

	s.mux.HandleFunc("/api/events", s.apiEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError traduce errores de dominio; los demás se registran y se ocultan.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("error interno")
		writeMsg(w, code, "error interno")
		return
	}
	writeMsg(w, code, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMsg(w, 400, "json inválido")
		return false
	}
	return true
}

// splitPath devuelve los segmentos que siguen a prefix.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeMsg(w, 400, "id inválido")
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}

func methodNotAllowed(w http.ResponseWriter) {
	writeMsg(w, 405, "método no permitido")
}
