package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/beaver/internal/app"
	assetsQueries "github.com/felixgeelhaar/beaver/internal/assets/application/queries"
	catalogCommands "github.com/felixgeelhaar/beaver/internal/catalog/application/commands"
	catalogQueries "github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	paymentCommands "github.com/felixgeelhaar/beaver/internal/payments/application/commands"
	paymentQueries "github.com/felixgeelhaar/beaver/internal/payments/application/queries"
	paymentsDomain "github.com/felixgeelhaar/beaver/internal/payments/domain"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	subscriptionCommands "github.com/felixgeelhaar/beaver/internal/subscriptions/application/commands"
	subscriptionQueries "github.com/felixgeelhaar/beaver/internal/subscriptions/application/queries"
	"github.com/gorilla/mux"
)

// RouterHandler serves the product, subscription and payment endpoints.
type RouterHandler struct {
	c      *app.Container
	logger *slog.Logger
}

// NewRouterHandler creates a new router handler.
func NewRouterHandler(c *app.Container, logger *slog.Logger) *RouterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouterHandler{c: c, logger: logger}
}

type productRequest struct {
	Merchant     sharedDomain.Address `json:"merchant"`
	MetadataHash sharedDomain.Hash    `json:"metadata_hash"`
	Token        sharedDomain.Address `json:"token"`
	Amount       sharedDomain.Amount  `json:"amount"`
	Period       uint64               `json:"period"`
	FreeTrial    uint64               `json:"free_trial_length"`
	Grace        uint64               `json:"payment_period"`
}

type productResponse struct {
	ProductHash sharedDomain.Hash `json:"product_hash"`
	Created     bool              `json:"created"`
}

type subscribeRequest struct {
	ProductHash  sharedDomain.Hash    `json:"product_hash"`
	Initiator    sharedDomain.Address `json:"initiator"`
	MetadataHash sharedDomain.Hash    `json:"subscription_metadata_hash"`
}

type setupRequest struct {
	productRequest
	Initiator            sharedDomain.Address `json:"initiator"`
	SubscriptionMetadata sharedDomain.Hash    `json:"subscription_metadata_hash"`
}

type subscriptionResponse struct {
	ProductHash      *sharedDomain.Hash     `json:"product_hash,omitempty"`
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	NextChargeAt     sharedDomain.Timestamp `json:"next_charge_at"`
	Created          bool                   `json:"created"`
}

type paymentRequest struct {
	Compensation sharedDomain.Amount `json:"compensation"`
}

type paymentResponse struct {
	SubscriptionHash sharedDomain.Hash      `json:"subscription_hash"`
	DueAt            sharedDomain.Timestamp `json:"due_at"`
	NextChargeAt     sharedDomain.Timestamp `json:"next_charge_at"`
	paymentsDomain.Split
}

type initiatorRequest struct {
	OldInitiator sharedDomain.Address `json:"old_initiator"`
	NewInitiator sharedDomain.Address `json:"new_initiator"`
}

type initiatorResponse struct {
	SubscriptionHashes []sharedDomain.Hash `json:"subscription_hashes"`
}

// RouterInfo handles GET /router
func (h *RouterHandler) RouterInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Params)
}

// CreateProduct handles POST /products
func (h *RouterHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req productRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.c.CreateProduct.Handle(r.Context(), catalogCommands.CreateProductCommand{
		Caller:       caller,
		Merchant:     req.Merchant,
		MetadataHash: req.MetadataHash,
		Token:        req.Token,
		Amount:       req.Amount,
		Period:       req.Period,
		FreeTrial:    req.FreeTrial,
		Grace:        req.Grace,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, createdStatus(res.Created), productResponse{ProductHash: res.ProductHash, Created: res.Created})
}

// GetProduct handles GET /products/{hash}
func (h *RouterHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	dto, err := h.c.GetProduct.Handle(r.Context(), catalogQueries.GetProductQuery{ProductHash: hash})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListProducts handles GET /products?merchant=
func (h *RouterHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	merchant, ok := queryAddress(w, r, "merchant")
	if !ok {
		return
	}
	dtos, err := h.c.ListProducts.Handle(r.Context(), catalogQueries.ListProductsQuery{Merchant: merchant})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StartSubscription handles POST /subscriptions
func (h *RouterHandler) StartSubscription(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.c.StartSubscription.Handle(r.Context(), subscriptionCommands.StartSubscriptionCommand{
		Caller:       caller,
		ProductHash:  req.ProductHash,
		Initiator:    req.Initiator,
		MetadataHash: req.MetadataHash,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, createdStatus(res.Created), subscriptionResponse{
		SubscriptionHash: res.SubscriptionHash,
		NextChargeAt:     res.NextChargeAt,
		Created:          res.Created,
	})
}

// SetupSubscription handles POST /subscriptions/setup
func (h *RouterHandler) SetupSubscription(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req setupRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.c.CreateProductAndStartSubscription.Handle(r.Context(), subscriptionCommands.CreateProductAndStartSubscriptionCommand{
		Caller:               caller,
		Merchant:             req.Merchant,
		Token:                req.Token,
		Amount:               req.Amount,
		Period:               req.Period,
		FreeTrial:            req.FreeTrial,
		Grace:                req.Grace,
		ProductMetadata:      req.MetadataHash,
		SubscriptionMetadata: req.SubscriptionMetadata,
		Initiator:            req.Initiator,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subscriptionResponse{
		ProductHash:      &res.ProductHash,
		SubscriptionHash: res.SubscriptionHash,
		NextChargeAt:     res.NextChargeAt,
		Created:          true,
	})
}

// GetSubscription handles GET /subscriptions/{hash}
func (h *RouterHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	dto, err := h.c.GetSubscription.Handle(r.Context(), subscriptionQueries.GetSubscriptionQuery{SubscriptionHash: hash})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListSubscriptions handles GET /subscriptions?subscriber=&active=
func (h *RouterHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subscriber, ok := queryAddress(w, r, "subscriber")
	if !ok {
		return
	}
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	dtos, err := h.c.ListSubscriptions.Handle(r.Context(), subscriptionQueries.ListSubscriptionsQuery{
		Subscriber: subscriber,
		ActiveOnly: active,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListDue handles GET /subscriptions/due?initiator=&at=&limit=
func (h *RouterHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	q := subscriptionQueries.ListDueQuery{Limit: parseIntParam(r, "limit", 100)}
	if raw := r.URL.Query().Get("initiator"); raw != "" {
		initiator, err := sharedDomain.ParseAddress(raw)
		if err != nil {
			writeError(w, badRequest("invalid initiator: "+err.Error()))
			return
		}
		q.Initiator = initiator
	}
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, badRequest("invalid at: "+err.Error()))
			return
		}
		q.At = sharedDomain.Timestamp(at)
	}
	dtos, err := h.c.ListDue.Handle(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MakePayment handles POST /subscriptions/{hash}/payments
func (h *RouterHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	res, err := h.c.MakePayment.Handle(r.Context(), paymentCommands.MakePaymentCommand{
		Caller:           caller,
		SubscriptionHash: hash,
		Compensation:     req.Compensation,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		SubscriptionHash: res.SubscriptionHash,
		DueAt:            res.DueAt,
		NextChargeAt:     res.NextChargeAt,
		Split:            res.Split,
	})
}

// ListPayments handles GET /subscriptions/{hash}/payments
func (h *RouterHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	dtos, err := h.c.ListPayments.Handle(r.Context(), paymentQueries.ListPaymentsQuery{SubscriptionHash: hash})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TerminateSubscription handles POST /subscriptions/{hash}/terminate
func (h *RouterHandler) TerminateSubscription(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	res, err := h.c.TerminateSubscription.Handle(r.Context(), subscriptionCommands.TerminateSubscriptionCommand{
		Caller:           caller,
		SubscriptionHash: hash,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscription_hash": hash, "terminated": res.Terminated})
}

// ChangeInitiator handles POST /subscriptions/{hash}/initiator
func (h *RouterHandler) ChangeInitiator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	hash, ok := pathHash(w, r)
	if !ok {
		return
	}
	var req initiatorRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.c.ChangeInitiator.Handle(r.Context(), subscriptionCommands.ChangeInitiatorCommand{
		Caller:           caller,
		SubscriptionHash: hash,
		OldInitiator:     req.OldInitiator,
		NewInitiator:     req.NewInitiator,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, initiatorResponse{SubscriptionHashes: res.SubscriptionHashes})
}

// ChangeInitiatorForAll handles POST /subscriptions/initiator
func (h *RouterHandler) ChangeInitiatorForAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req initiatorRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.c.ChangeInitiatorForAll.Handle(r.Context(), subscriptionCommands.ChangeInitiatorForAllCommand{
		Caller:       caller,
		OldInitiator: req.OldInitiator,
		NewInitiator: req.NewInitiator,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, initiatorResponse{SubscriptionHashes: res.SubscriptionHashes})
}

// GetBalance handles GET /tokens/{token}/balances/{account}?spender=
func (h *RouterHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	token, err := sharedDomain.ParseAddress(vars["token"])
	if err != nil {
		writeError(w, badRequest("invalid token: "+err.Error()))
		return
	}
	account, err := sharedDomain.ParseAddress(vars["account"])
	if err != nil {
		writeError(w, badRequest("invalid account: "+err.Error()))
		return
	}
	q := assetsQueries.GetBalanceQuery{Token: token, Account: account}
	if raw := r.URL.Query().Get("spender"); raw != "" {
		if q.Spender, err = sharedDomain.ParseAddress(raw); err != nil {
			writeError(w, badRequest("invalid spender: "+err.Error()))
			return
		}
	}
	dto, err := h.c.GetBalance.Handle(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *RouterHandler) caller(w http.ResponseWriter, r *http.Request) (sharedDomain.Address, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		writeError(w, ErrMissingCaller)
		return sharedDomain.ZeroAddress, false
	}
	caller, err := sharedDomain.ParseAddress(raw)
	if err != nil {
		writeError(w, badRequest("invalid "+CallerHeader+": "+err.Error()))
		return sharedDomain.ZeroAddress, false
	}
	return caller, true
}

func (h *RouterHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := errorFor(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, apiErr)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, badRequest("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func pathHash(w http.ResponseWriter, r *http.Request) (sharedDomain.Hash, bool) {
	hash, err := sharedDomain.ParseHash(mux.Vars(r)["hash"])
	if err != nil {
		writeError(w, badRequest("invalid hash: "+err.Error()))
		return sharedDomain.ZeroHash, false
	}
	return hash, true
}

func queryAddress(w http.ResponseWriter, r *http.Request, name string) (sharedDomain.Address, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, badRequest(name+" is required"))
		return sharedDomain.ZeroAddress, false
	}
	addr, err := sharedDomain.ParseAddress(raw)
	if err != nil {
		writeError(w, badRequest("invalid "+name+": "+err.Error()))
		return sharedDomain.ZeroAddress, false
	}
	return addr, true
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func badRequest(msg string) *APIError {
	return &APIError{Status: ErrBadRequest.Status, Code: ErrBadRequest.Code, Message: msg}
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
