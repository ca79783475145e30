package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/command"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/query"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

// StockHandler handles HTTP requests for the stock ledger
type StockHandler struct {
	deduct        *command.DeductHandler
	reservations  *command.ReservationHandler
	receive       *command.ReceiveStockHandler
	adjust        *command.AdjustStockHandler
	getStock      *query.GetStockHandler
	listStock     *query.ListStockHandler
	listMovements *query.ListMovementsHandler
	reconcile     *query.ReconcileHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	lineOutcomes   *prometheus.CounterVec
}

// NewStockHandler creates a new stock handler with Prometheus metrics
func NewStockHandler(
	deduct *command.DeductHandler,
	reservations *command.ReservationHandler,
	receive *command.ReceiveStockHandler,
	adjust *command.AdjustStockHandler,
	getStock *query.GetStockHandler,
	listStock *query.ListStockHandler,
	listMovements *query.ListMovementsHandler,
	reconcile *query.ReconcileHandler,
) *StockHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_requests_total",
			Help: "Total number of requests to the stock ledger service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stock_ledger_request_duration_seconds",
			Help:    "Duration of stock ledger requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	lineOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_ledger_line_outcomes_total",
			Help: "Per-line deduction outcomes (deducted, skipped, error)",
		},
		[]string{"outcome"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(lineOutcomes)

	return &StockHandler{
		deduct:         deduct,
		reservations:   reservations,
		receive:        receive,
		adjust:         adjust,
		getStock:       getStock,
		listStock:      listStock,
		listMovements:  listMovements,
		reconcile:      reconcile,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		lineOutcomes:   lineOutcomes,
	}
}

var errBothTargets = errors.New("exactly one of product_id and package_id must be set")

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// lineRequest is the wire shape of a fulfillable line. Exactly one of
// product_id / package_id must be set.
type lineRequest struct {
	ReferenceType     string `json:"reference_type"`
	ReferenceID       uint   `json:"reference_id"`
	ProductID         *uint  `json:"product_id,omitempty"`
	PackageID         *uint  `json:"package_id,omitempty"`
	Quantity          int    `json:"quantity"`
	WarehouseID       *uint  `json:"warehouse_id,omitempty"`
	Channel           string `json:"channel,omitempty"`
	FulfillmentStatus string `json:"fulfillment_status"`
}

func (r lineRequest) toDomain() (domain.FulfillableLine, error) {
	refType, err := domain.ParseReferenceType(r.ReferenceType)
	if err != nil {
		return domain.FulfillableLine{}, err
	}

	var target domain.Target
	switch {
	case r.ProductID != nil && r.PackageID != nil:
		return domain.FulfillableLine{}, errBothTargets
	case r.ProductID != nil:
		target = domain.ProductTarget(*r.ProductID)
	case r.PackageID != nil:
		target = domain.PackageTarget(*r.PackageID)
	}

	line, err := domain.NewFulfillableLine(
		domain.Reference{Type: refType, ID: r.ReferenceID},
		target,
		r.Quantity,
		r.FulfillmentStatus,
	)
	if err != nil {
		return domain.FulfillableLine{}, err
	}

	if r.WarehouseID != nil {
		line.WarehouseID = *r.WarehouseID
	}
	line.Channel = r.Channel
	return line, nil
}

// DeductStock handles POST /api/stock/deduct
// @Summary Deduct stock for one fulfillable line
// @Description Applies one order/shipment line to the ledger; repeat calls for the same reference are skipped
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Router /api/stock/deduct [post]
func (h *StockHandler) DeductStock(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	line, err := req.toDomain()
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result := h.deduct.Deduct(r.Context(), line)
	h.observeResult(result)

	respondJSON(w, http.StatusOK, Response{Success: len(result.Errors) == 0, Data: result})
}

// DeductStockBatch handles POST /api/stock/deduct/batch
// @Summary Deduct stock for a batch of lines
// @Description Never aborts early; per-line failures are reported in the aggregate result
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Router /api/stock/deduct/batch [post]
func (h *StockHandler) DeductStockBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines []lineRequest `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	var aggregate domain.DeductionResult
	lines := make([]domain.FulfillableLine, 0, len(req.Lines))
	for _, lr := range req.Lines {
		line, err := lr.toDomain()
		if err != nil {
			// A malformed row is recorded and the batch continues.
			aggregate.AddError(lr.ReferenceID, err.Error())
			continue
		}
		lines = append(lines, line)
	}

	aggregate.Merge(h.deduct.DeductAll(r.Context(), lines))
	h.observeResult(aggregate)

	respondJSON(w, http.StatusOK, Response{Success: len(aggregate.Errors) == 0, Data: aggregate})
}

// ReserveStock handles POST /api/stock/reserve
// @Summary Reserve stock for a batch of lines
// @Description All-or-nothing: on any failure no partial reservation remains
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Failure 409 {object} Response
// @Router /api/stock/reserve [post]
func (h *StockHandler) ReserveStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines []lineRequest `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	lines, err := toDomainLines(req.Lines)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	ok, err := h.reservations.ReserveAll(r.Context(), lines)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to reserve stock")
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if !ok {
		respondJSON(w, http.StatusConflict, Response{Success: false, Error: domain.ErrInsufficientStock.Error()})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Stock reserved"})
}

// CommitReservation handles POST /api/stock/commit
// @Summary Commit a batch reservation into deductions
// @Description Records one batch-level movement for the quantity not already deducted by finer-grained commits
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Router /api/stock/commit [post]
func (h *StockHandler) CommitReservation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferenceType string        `json:"reference_type"`
		ReferenceID   uint          `json:"reference_id"`
		Lines         []lineRequest `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	refType, err := domain.ParseReferenceType(req.ReferenceType)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if req.ReferenceID == 0 {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "reference_id is required"})
		return
	}

	lines, err := toDomainLines(req.Lines)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result, err := h.reservations.Commit(r.Context(), domain.Reference{Type: refType, ID: req.ReferenceID}, lines)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to commit reservation")
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	h.observeResult(result)

	respondJSON(w, http.StatusOK, Response{Success: len(result.Errors) == 0, Data: result})
}

// ReceiveStock handles POST /api/stock/receive
// @Summary Record an inbound goods receipt
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Router /api/stock/receive [post]
func (h *StockHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferenceType string `json:"reference_type"`
		ReferenceID   uint   `json:"reference_id"`
		ProductID     uint   `json:"product_id"`
		WarehouseID   uint   `json:"warehouse_id"`
		Quantity      int    `json:"quantity"`
		Note          string `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	refType, err := domain.ParseReferenceType(req.ReferenceType)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	applied, err := h.receive.Handle(r.Context(), command.ReceiveStockCommand{
		Reference:   domain.Reference{Type: refType, ID: req.ReferenceID},
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Note:        req.Note,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	message := "Stock received"
	if !applied {
		message = "Receipt already recorded"
	}
	respondJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// AdjustStock handles POST /api/stock/adjust
// @Summary Append a compensating adjustment movement
// @Tags Stock
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} Response
// @Router /api/stock/adjust [post]
func (h *StockHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   uint   `json:"product_id"`
		WarehouseID uint   `json:"warehouse_id"`
		Delta       int    `json:"delta"`
		ReferenceID uint   `json:"reference_id,omitempty"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	movement, err := h.adjust.Handle(r.Context(), command.AdjustStockCommand{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Delta:       req.Delta,
		ReferenceID: req.ReferenceID,
		Reason:      req.Reason,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Adjustment recorded", Data: movement})
}

// GetStock handles GET /api/stock/{product_id}
// @Summary Get stock levels for a product
// @Tags Stock
// @Produce json
// @Param product_id path int true "Product ID"
// @Param warehouse_id query int false "Warehouse ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/stock/{product_id} [get]
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["product_id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid product ID"})
		return
	}

	warehouseID, _ := strconv.ParseUint(r.URL.Query().Get("warehouse_id"), 10, 32)

	levels, err := h.getStock.Handle(query.GetStockQuery{
		ProductID:   uint(productID),
		WarehouseID: uint(warehouseID),
	})
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{Success: false, Error: "Stock level not found"})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: levels})
}

// ListStock handles GET /api/stock
// @Summary List stock levels
// @Tags Stock
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} Response
// @Router /api/stock [get]
func (h *StockHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	levels, err := h.listStock.Handle(query.ListStockQuery{Limit: limit, Offset: offset})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list stock levels")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to list stock levels"})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: levels})
}

// ListMovements handles GET /api/stock/{product_id}/movements
// @Summary List ledger movements for a product
// @Tags Stock
// @Produce json
// @Param product_id path int true "Product ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} Response
// @Router /api/stock/{product_id}/movements [get]
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	productID, err := strconv.ParseUint(vars["product_id"], 10, 32)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid product ID"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	movements, err := h.listMovements.Handle(r.Context(), query.ListMovementsQuery{
		ProductID: uint(productID),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Data: movements})
}

// Reconcile handles GET /api/stock/reconcile
// @Summary Report ledger integrity violations
// @Description Stock levels whose quantity disagrees with the sum of their movements
// @Tags Stock
// @Produce json
// @Success 200 {object} Response
// @Router /api/stock/reconcile [get]
func (h *StockHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	violations, err := h.reconcile.Handle(r.Context())
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to reconcile ledger")
		respondJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "Failed to reconcile ledger"})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: len(violations) == 0,
		Data:    violations,
	})
}

// RegisterRoutes registers all stock ledger routes. Mutating routes require
// an admin token.
func (h *StockHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/stock/deduct", h.metricsMiddleware("/api/stock/deduct", AdminMiddleware(h.DeductStock))).Methods("POST")
	router.HandleFunc("/api/stock/deduct/batch", h.metricsMiddleware("/api/stock/deduct/batch", AdminMiddleware(h.DeductStockBatch))).Methods("POST")
	router.HandleFunc("/api/stock/reserve", h.metricsMiddleware("/api/stock/reserve", AdminMiddleware(h.ReserveStock))).Methods("POST")
	router.HandleFunc("/api/stock/commit", h.metricsMiddleware("/api/stock/commit", AdminMiddleware(h.CommitReservation))).Methods("POST")
	router.HandleFunc("/api/stock/receive", h.metricsMiddleware("/api/stock/receive", AdminMiddleware(h.ReceiveStock))).Methods("POST")
	router.HandleFunc("/api/stock/adjust", h.metricsMiddleware("/api/stock/adjust", AdminMiddleware(h.AdjustStock))).Methods("POST")
	router.HandleFunc("/api/stock/reconcile", h.metricsMiddleware("/api/stock/reconcile", h.Reconcile)).Methods("GET")
	router.HandleFunc("/api/stock", h.metricsMiddleware("/api/stock", h.ListStock)).Methods("GET")
	router.HandleFunc("/api/stock/{product_id}", h.metricsMiddleware("/api/stock/{product_id}", h.GetStock)).Methods("GET")
	router.HandleFunc("/api/stock/{product_id}/movements", h.metricsMiddleware("/api/stock/{product_id}/movements", h.ListMovements)).Methods("GET")
}

// RegisterHealthCheck registers the health check endpoint
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *StockHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Database unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, Response{Success: true, Message: "Stock ledger service is healthy"})
	}).Methods("GET")
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *StockHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

func (h *StockHandler) observeResult(result domain.DeductionResult) {
	h.lineOutcomes.WithLabelValues("deducted").Add(float64(result.Deducted))
	h.lineOutcomes.WithLabelValues("skipped").Add(float64(result.Skipped))
	h.lineOutcomes.WithLabelValues("error").Add(float64(len(result.Errors)))
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func toDomainLines(requests []lineRequest) ([]domain.FulfillableLine, error) {
	lines := make([]domain.FulfillableLine, 0, len(requests))
	for _, lr := range requests {
		line, err := lr.toDomain()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
