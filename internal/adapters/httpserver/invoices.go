package httpserver

import (
	"bytes"
	"net/http"
	"time"

	"github.com/phenrril/licores/internal/adapters/export/xlsx"
	"github.com/phenrril/licores/internal/domain"
)

func (s *Server) apiInvoices(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	page, size := pageParams(r)
	list, total, err := s.invoices.List(r.Context(), domain.InvoiceFilter{
		Status:   domain.InvoiceStatus(r.URL.Query().Get("status")),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"items": list, "total": total, "page": page, "page_size": size})
}

// apiInvoiceByID atiende /api/invoices/{id}, /xlsx y /status.
func (s *Server) apiInvoiceByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	parts := splitPath(r.URL.Path, "/api/invoices/")
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
		inv, err := s.invoices.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, inv)
	case action == "xlsx" && r.Method == http.MethodGet:
		inv, err := s.invoices.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var buf bytes.Buffer
		if err := xlsx.WriteInvoice(&buf, inv); err != nil {
			writeError(w, r, err)
			return
		}
		writeXLSX(w, inv.Number+".xlsx", buf.Bytes())
	case action == "status" && (r.Method == http.MethodPost || r.Method == http.MethodPatch):
		var req struct {
			Status domain.InvoiceStatus `json:"status"`
		}
		if !decode(w, r, &req) {
			return
		}
		inv, err := s.invoices.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, inv)
	case action == "" || action == "xlsx" || action == "status":
		methodNotAllowed(w)
	default:
		writeMsg(w, 404, "ruta no encontrada")
	}
}

const dayLayout = "2006-01-02"

// salesRange interpreta from/to como días completos; por defecto los últimos 30.
func salesRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	to := now
	if ds := q.Get("to"); ds != "" {
		d, err := time.ParseInLocation(dayLayout, ds, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d.Add(24*time.Hour - time.Nanosecond)
	}
	from := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, -29)
	if ds := q.Get("from"); ds != "" {
		d, err := time.ParseInLocation(dayLayout, ds, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}
	return from, to, nil
}

func (s *Server) apiSalesReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	from, to, err := salesRange(r, time.Now())
	if err != nil {
		writeMsg(w, 400, "fecha inválida, usar AAAA-MM-DD")
		return
	}
	sum, err := s.sales.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "xlsx" {
		var buf bytes.Buffer
		if err := xlsx.WriteSales(&buf, sum); err != nil {
			writeError(w, r, err)
			return
		}
		writeXLSX(w, "ventas_"+from.Format(dayLayout)+"_"+to.Format(dayLayout)+".xlsx", buf.Bytes())
		return
	}
	writeJSON(w, 200, sum)
}
