// Package httpapi exposes the batchpay HTTP surface.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/R3E-Network/batchpay/internal/batch"
	"github.com/R3E-Network/batchpay/internal/chain"
	"github.com/R3E-Network/batchpay/internal/httputil"
	"github.com/R3E-Network/batchpay/internal/invoice"
	"github.com/R3E-Network/batchpay/internal/metrics"
	"github.com/R3E-Network/batchpay/internal/middleware"
	"github.com/R3E-Network/batchpay/pkg/logger"
)

// Handler serves the batchpay API.
type Handler struct {
	store        invoice.Store
	orchestrator *batch.Orchestrator
	verifier     *batch.Verifier
	refresher    *batch.Refresher
	fees         chain.FeeOracle
	tokens       []invoice.Token
	log          *logger.Logger
}

// Config wires the handler's collaborators.
type Config struct {
	Store        invoice.Store
	Orchestrator *batch.Orchestrator
	Verifier     *batch.Verifier
	Refresher    *batch.Refresher
	Fees         chain.FeeOracle
	Tokens       []invoice.Token // known-token registry served to clients
	Logger       *logger.Logger
}

// New creates the API handler.
func New(cfg Config) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	return &Handler{
		store:        cfg.Store,
		orchestrator: cfg.Orchestrator,
		verifier:     cfg.Verifier,
		refresher:    cfg.Refresher,
		fees:         cfg.Fees,
		tokens:       cfg.Tokens,
		log:          log,
	}
}

// Router builds the mux router with middleware attached.
func (h *Handler) Router(corsOrigins []string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())
	if len(corsOrigins) > 0 {
		r.Use(middleware.NewCORSMiddleware(corsOrigins).Handler)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/invoices", h.handleListInvoices).Methods(http.MethodGet)
	api.HandleFunc("/invoices", h.handleCreateInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}", h.handleGetInvoice).Methods(http.MethodGet)
	api.HandleFunc("/batch/classify", h.handleClassify).Methods(http.MethodPost)
	api.HandleFunc("/batch/verify", h.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/batch/pay", h.handlePay).Methods(http.MethodPost)
	api.HandleFunc("/suggestions", h.handleSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/tokens", h.handleListTokens).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list invoices failed")
		httputil.InternalError(w, "failed to load invoices")
		return
	}
	if invoices == nil {
		invoices = []invoice.Invoice{}
	}
	httputil.WriteJSON(w, http.StatusOK, invoices)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inv, err := h.store.GetInvoice(r.Context(), id)
	if err != nil {
		httputil.NotFound(w, "invoice not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, inv)
}

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv invoice.Invoice
	if !httputil.DecodeJSON(w, r, &inv) {
		return
	}
	if inv.Sender == "" || inv.Recipient == "" || inv.AmountDue == "" {
		httputil.BadRequest(w, "sender, recipient and amount_due required")
		return
	}
	// The payment contract addresses invoices by numeric id; anything else
	// would pass classification and verification and then fail at submission.
	if !batch.ValidContractID(inv.ID) {
		httputil.BadRequest(w, "id must be the invoice's numeric contract id")
		return
	}

	created, err := h.store.CreateInvoice(r.Context(), inv)
	if err != nil {
		h.log.WithError(err).Error("create invoice failed")
		httputil.InternalError(w, "failed to create invoice")
		return
	}

	// New invoice changes the suggestion input set.
	if h.refresher != nil {
		if err := h.refresher.RefreshNow(r.Context()); err != nil {
			h.log.WithError(err).Warn("suggestion refresh after create failed")
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

// selectionRequest is the body for classify/verify/pay.
type selectionRequest struct {
	InvoiceIDs []string `json:"invoice_ids"`
}

func (h *Handler) classifySelection(w http.ResponseWriter, r *http.Request) (*batch.Grouping, bool) {
	var req selectionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return nil, false
	}
	if len(req.InvoiceIDs) == 0 {
		httputil.BadRequest(w, "invoice_ids required")
		return nil, false
	}

	invoices, err := h.store.ListInvoices(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list invoices failed")
		httputil.InternalError(w, "failed to load invoices")
		return nil, false
	}

	return batch.GroupByToken(batch.SelectionSet(req.InvoiceIDs), invoices), true
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	grouping, ok := h.classifySelection(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"groups": grouping.Groups()})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	grouping, ok := h.classifySelection(w, r)
	if !ok {
		return
	}
	if grouping.Len() == 0 {
		httputil.BadRequest(w, "selection matches no payable invoices")
		return
	}

	fee, err := h.fees.FeePerInvoice(r.Context())
	if err != nil {
		h.log.WithError(err).Error("fee query failed")
		httputil.InternalError(w, "failed to query network fee")
		return
	}

	problems, err := h.verifier.VerifyAll(r.Context(), grouping.Groups(), fee)
	if err != nil {
		h.log.WithError(err).Error("verification failed")
		httputil.InternalError(w, "verification failed")
		return
	}

	type problemBody struct {
		Category string `json:"category"`
		Detail   string `json:"detail"`
	}
	out := make([]problemBody, 0, len(problems))
	for _, p := range problems {
		out = append(out, problemBody{Category: batch.Categorize(p), Detail: p.Error()})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"problems": out})
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	grouping, ok := h.classifySelection(w, r)
	if !ok {
		return
	}
	if grouping.Len() == 0 {
		httputil.BadRequest(w, "selection matches no payable invoices")
		return
	}

	result, err := h.orchestrator.RunBatch(r.Context(), grouping)
	if err != nil {
		if errors.Is(err, batch.ErrRunInProgress) {
			httputil.Conflict(w, "a batch payment is already running")
			return
		}
		h.log.WithError(err).Error("batch run failed")
		httputil.InternalError(w, "batch run failed")
		return
	}

	// Paid invoices change the suggestion input set.
	if h.refresher != nil && len(result.Succeeded) > 0 {
		if err := h.refresher.RefreshNow(r.Context()); err != nil {
			h.log.WithError(err).Warn("suggestion refresh after pay failed")
		}
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := h.tokens
	if tokens == nil {
		tokens = []invoice.Token{}
	}
	httputil.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := h.refresher.Suggestions()
	if suggestions == nil {
		suggestions = []batch.Suggestion{}
	}
	httputil.WriteJSON(w, http.StatusOK, suggestions)
}
