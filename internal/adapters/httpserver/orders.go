package httpserver

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

func (s *Server) apiOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		page, size := pageParams(r)
		f := domain.OrderFilter{
			Status:           domain.OrderStatus(q.Get("status")),
			DeliveryPersonID: q.Get("driver"),
			Page:             page,
			PageSize:         size,
		}
		if raw := q.Get("customer"); raw != "" {
			id, ok := parseID(w, raw)
			if !ok {
				return
			}
			f.CustomerID = &id
		}
		list, total, err := s.orders.List(r.Context(), f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, map[string]any{"items": list, "total": total, "page": page, "page_size": size})
	case http.MethodPost:
		var in usecase.PlaceOrderInput
		if !decode(w, r, &in) {
			return
		}
		o, inv, err := s.orders.Place(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 201, map[string]any{"order": o, "invoice": inv})
	default:
		methodNotAllowed(w)
	}
}

// apiOrderByID atiende /api/orders/{id}, /invoice y /status.
func (s *Server) apiOrderByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	parts := splitPath(r.URL.Path, "/api/orders/")
	if len(parts) == 0 || len(parts) > 2 {
		writeMsg(w, 404, "ruta no encontrada")
		return
	}
	id, ok := parseID(w, parts[0])
	if !ok {
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		o, err := s.orders.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, o)
	case action == "invoice" && r.Method == http.MethodGet:
		inv, err := s.invoices.GetByOrder(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, inv)
	case action == "status" && (r.Method == http.MethodPost || r.Method == http.MethodPatch):
		var in usecase.StatusInput
		if !decode(w, r, &in) {
			return
		}
		o, err := s.orders.UpdateStatus(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, o)
	case action == "" || action == "invoice" || action == "status":
		methodNotAllowed(w)
	default:
		writeMsg(w, 404, "ruta no encontrada")
	}
}

func (s *Server) apiCustomers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := s.customers.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
	case http.MethodPost:
		var in usecase.CustomerInput
		if !decode(w, r, &in) {
			return
		}
		c, err := s.customers.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 201, c)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) apiCustomerByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	parts := splitPath(r.URL.Path, "/api/customers/")
	if len(parts) != 1 {
		writeMsg(w, 404, "ruta no encontrada")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeMsg(w, 400, "id inválido")
		return
	}
	c, err := s.customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, c)
}
