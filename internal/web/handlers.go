package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abfoods/orderdesk/internal/inventory"
	"github.com/abfoods/orderdesk/internal/logging"
	"github.com/abfoods/orderdesk/internal/order"
)

// handleIndex serves the single embedded application page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.session(w, r)

	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleUploadInventory ingests a CSV or XLSX inventory export and
// replaces the session's inventory set with the parsed rows. A failed
// parse leaves the previous inventory in place.
func (s *Server) handleUploadInventory(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Parsing is CPU and memory bound, so concurrent parses are
	// bounded by a semaphore rather than letting them pile up.
	if err := s.limiter.acquire(r.Context()); err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.release()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("failed to read file: %w", err), http.StatusInternalServerError)
		return
	}

	items, err := inventory.ParseFile(header.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, inventory.ErrEmptyFile) {
			status = http.StatusUnprocessableEntity
		}
		respondError(w, r, err, status)
		return
	}

	count := sess.Ingest(items)
	logging.FromContext(r.Context()).Info("inventory ingested",
		"filename", header.Filename,
		"items", count,
	)

	writeJSON(w, map[string]any{
		"itemCount":  count,
		"categories": sess.Categories(),
	})
}

// handleListItems returns the filtered inventory view. Optional search
// and category query parameters update the session's view state before
// filtering, so a page reload sees the same view.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	q := r.URL.Query()
	if q.Has("search") {
		sess.SetSearch(q.Get("search"))
	}
	if q.Has("category") {
		sess.SetCategory(q.Get("category"))
	}

	items := sess.FilteredItems()
	writeJSON(w, map[string]any{
		"items": items,
		"count": len(items),
		"total": sess.InventoryLen(),
	})
}

// handleCategories returns the distinct category filter options drawn
// from the full inventory.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, map[string]any{"categories": sess.Categories()})
}

type viewRequest struct {
	Search   *string `json:"search"`
	Category *string `json:"category"`
	QtyInput *struct {
		ItemNumber string `json:"itemNumber"`
		Text       string `json:"text"`
	} `json:"qtyInput"`
}

// handleUpdateView applies partial updates to the transient view state:
// search text, category filter, or one item's pending quantity text.
// Absent fields are left unchanged.
func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	if req.Search != nil {
		sess.SetSearch(*req.Search)
	}
	if req.Category != nil {
		sess.SetCategory(*req.Category)
	}
	if req.QtyInput != nil {
		sess.SetQtyInput(req.QtyInput.ItemNumber, req.QtyInput.Text)
	}

	writeJSON(w, sess.View())
}

// handleCart returns the current cart lines in insertion order.
func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	lines := sess.CartLines()
	writeJSON(w, map[string]any{
		"lines": lines,
		"count": len(lines),
	})
}

type addToCartRequest struct {
	ItemNumber string `json:"itemNumber"`
}

// handleAddToCart appends a cart line for the named inventory item,
// consuming its pending quantity text.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	line, err := sess.AddToCart(req.ItemNumber)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"line":  line,
		"count": len(sess.CartLines()),
	})
}

// handleRemoveFromCart drops the cart line at the given index.
// Out-of-range indices succeed as a no-op, matching remove buttons that
// race a cart change.
func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, r, fmt.Errorf("invalid cart index: %w", err), http.StatusBadRequest)
		return
	}

	sess.RemoveFromCart(index)

	lines := sess.CartLines()
	writeJSON(w, map[string]any{
		"lines": lines,
		"count": len(lines),
	})
}

// handleOrderInfo replaces the purchase order metadata. All fields are
// free text; blanks are allowed and emitted as-is in the email.
func (s *Server) handleOrderInfo(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var info order.Context
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	sess.SetOrderInfo(info)
	writeJSON(w, sess.OrderInfo())
}

// handleOrderEmail renders the purchase order email draft for the
// current cart and order metadata, plus the mailto URL handed to the
// browser.
func (s *Server) handleOrderEmail(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	email := sess.BuildEmail(s.cfg.Order.Recipient)
	writeJSON(w, map[string]any{
		"subject":   email.Subject,
		"body":      email.Body,
		"recipient": email.Recipient,
		"mailto":    email.MailtoURL(),
	})
}
