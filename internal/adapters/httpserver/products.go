package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/phenrril/licores/internal/adapters/export/xlsx"
	"github.com/phenrril/licores/internal/domain"
	"github.com/phenrril/licores/internal/usecase"
)

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		page, size := pageParams(r)
		low, _ := strconv.ParseBool(q.Get("low_stock"))
		list, total, err := s.products.List(r.Context(), domain.ProductFilter{
			Query:    q.Get("q"),
			Category: q.Get("category"),
			LowStock: low,
			Sort:     q.Get("sort"),
			Page:     page,
			PageSize: size,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, map[string]any{"items": list, "total": total, "page": page, "page_size": size})
	case http.MethodPost:
		var in usecase.ProductInput
		if !decode(w, r, &in) {
			return
		}
		p, err := s.products.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 201, p)
	default:
		methodNotAllowed(w)
	}
}

// apiProductByID atiende /api/products/{id}, /movements y /adjust.
func (s *Server) apiProductByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	parts := splitPath(r.URL.Path, "/api/products/")
	if len(parts) == 0 || len(parts) > 2 {
		writeMsg(w, 404, "ruta no encontrada")
		return
	}
	id, ok := parseID(w, parts[0])
	if !ok {
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "movements":
			if r.Method != http.MethodGet {
				methodNotAllowed(w)
				return
			}
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			list, err := s.products.Movements(r.Context(), id, limit)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, 200, map[string]any{"items": list})
		case "adjust":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			var in usecase.AdjustInput
			if !decode(w, r, &in) {
				return
			}
			p, err := s.products.Adjust(r.Context(), id, in)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, 200, p)
		default:
			writeMsg(w, 404, "ruta no encontrada")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.products.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, p)
	case http.MethodPut:
		var in usecase.ProductInput
		if !decode(w, r, &in) {
			return
		}
		p, err := s.products.Update(r.Context(), id, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, p)
	case http.MethodDelete:
		if err := s.products.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) apiLowStock(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	list, err := s.products.LowStock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	cats, err := s.products.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"items": cats})
}

func (s *Server) apiTransfers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in usecase.TransferInput
	if !decode(w, r, &in) {
		return
	}
	p, err := s.products.Transfer(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, p)
}

// apiProductsImport recibe la planilla de stock como multipart (campo file) o
// como cuerpo crudo.
func (s *Server) apiProductsImport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var src io.Reader = io.LimitReader(r.Body, 16<<20)
	if err := r.ParseMultipartForm(16 << 20); err == nil {
		fh := r.MultipartForm.File["file"]
		if len(fh) == 0 {
			writeMsg(w, 400, "falta el archivo")
			return
		}
		f, err := fh[0].Open()
		if err != nil {
			writeMsg(w, 400, "archivo ilegible")
			return
		}
		defer f.Close()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil || len(data) == 0 {
		writeMsg(w, 400, "archivo vacío")
		return
	}
	rows, err := xlsx.ReadStock(bytes.NewReader(data))
	if err != nil {
		writeMsg(w, 400, err.Error())
		return
	}
	rep, err := s.products.Import(r.Context(), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, rep)
}

func (s *Server) apiStockReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSession(w, r); !ok {
		return
	}
	list, _, err := s.products.List(r.Context(), domain.ProductFilter{PageSize: -1})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WriteStock(&buf, list); err != nil {
		writeError(w, r, err)
		return
	}
	writeXLSX(w, "stock.xlsx", buf.Bytes())
}

func writeXLSX(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(200)
	_, _ = w.Write(data)
}
