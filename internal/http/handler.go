package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kylabear/dv-tracking/internal/model"
	"github.com/kylabear/dv-tracking/internal/service"
	"github.com/kylabear/dv-tracking/internal/workflow"
)

type Handler struct {
	dvs *service.DVService
	log zerolog.Logger
}

func NewHandler(dvs *service.DVService, log zerolog.Logger) *Handler {
	return &Handler{dvs: dvs, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/dvs")
	api.POST("", h.createDV)
	api.GET("", h.listDVs)
	api.GET("/counts", h.tabCounts)
	api.GET("/tabs/:tab", h.tabView)
	api.GET("/:id", h.getDV)
	api.GET("/:id/duration", h.duration)
	api.GET("/:id/history", h.history)
	api.PUT("/:id/status", h.updateStatus)
	api.POST("/:id/rts", h.issueRTS)
	api.POST("/:id/rts/resolve", h.resolveRTS)
	api.POST("/:id/norsa", h.issueNORSA)
	api.POST("/:id/norsa/resolve", h.resolveNORSA)
	api.POST("/:id/cash-allocation", h.allocateCash)
	api.POST("/:id/box-c", h.certifyBoxC)
	api.POST("/:id/approval/out", h.sendForApproval)
	api.POST("/:id/approval/in", h.returnFromApproval)
	api.POST("/:id/indexing", h.recordIndexing)
	api.POST("/:id/payment-method", h.setPaymentMethod)
	api.POST("/:id/cashiering/return", h.returnFromCashiering)
	api.POST("/:id/engas", h.recordEngas)
	api.POST("/:id/cdj", h.recordCDJ)
	api.POST("/:id/lddap-certify", h.certifyLDDAP)
	api.POST("/:id/reallocate", h.reallocateCash)
}

// actor identifies the acting user for the audit trail. Authentication is
// handled upstream; the gateway forwards the user name in a header.
func actor(c *gin.Context) string {
	if name := strings.TrimSpace(c.GetHeader("X-Actor")); name != "" {
		return name
	}
	return "system"
}

func (h *Handler) dvID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dv id"})
		return uuid.Nil, false
	}
	return id, true
}

type orsEntryRequest struct {
	ORSNumber  string `json:"ors_number" binding:"required,orsnumber"`
	FundSource string `json:"fund_source"`
	UACS       string `json:"uacs" binding:"required,uacs"`
}

type createDVRequest struct {
	DVNumber         string            `json:"dv_number" binding:"required,dvnumber"`
	TransactionType  string            `json:"transaction_type"`
	ImplementingUnit string            `json:"implementing_unit"`
	Payee            string            `json:"payee" binding:"required"`
	AccountNumber    string            `json:"account_number"`
	Amount           decimal.Decimal   `json:"amount"`
	Particulars      string            `json:"particulars"`
	ReceivedDate     string            `json:"received_date" binding:"required"`
	ORSEntries       []orsEntryRequest `json:"ors_entries" binding:"dive"`
}

func (h *Handler) createDV(c *gin.Context) {
	var req createDVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	received, err := parseDate(req.ReceivedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid received_date"})
		return
	}

	entries := make([]model.ORSEntry, 0, len(req.ORSEntries))
	for _, entry := range req.ORSEntries {
		entries = append(entries, model.ORSEntry{
			ORSNumber:  entry.ORSNumber,
			FundSource: entry.FundSource,
			UACS:       entry.UACS,
		})
	}

	dv, err := h.dvs.Create(c.Request.Context(), service.CreateInput{
		DVNumber:         req.DVNumber,
		TransactionType:  req.TransactionType,
		ImplementingUnit: req.ImplementingUnit,
		Payee:            req.Payee,
		AccountNumber:    req.AccountNumber,
		Amount:           req.Amount,
		Particulars:      req.Particulars,
		ReceivedDate:     received,
		ORSEntries:       entries,
	}, actor(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dv)
}

func (h *Handler) listDVs(c *gin.Context) {
	dvs, err := h.dvs.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dvs, "total": len(dvs)})
}

func (h *Handler) getDV(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	dv, err := h.dvs.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dv)
}

func (h *Handler) tabView(c *gin.Context) {
	tab := workflow.Tab(strings.TrimSpace(c.Param("tab")))
	view, err := h.dvs.Tab(c.Request.Context(), tab, c.Query("search"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) tabCounts(c *gin.Context) {
	counts, err := h.dvs.Counts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) duration(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	d, err := h.dvs.Duration(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) history(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	entries, err := h.dvs.History(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "total": len(entries)})
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) issueRTS(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dv, err := h.dvs.IssueRTS(c.Request.Context(), id, req.Reason, actor(c))
	h.respond(c, dv, err)
}

func (h *Handler) resolveRTS(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	dv, err := h.dvs.ResolveRTS(c.Request.Context(), id, actor(c))
	h.respond(c, dv, err)
}

func (h *Handler) issueNORSA(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dv, err := h.dvs.IssueNORSA(c.Request.Context(), id, req.Reason, actor(c))
	h.respond(c, dv, err)
}

func (h *Handler) resolveNORSA(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	dv, err := h.dvs.ResolveNORSA(c.Request.Context(), id, actor(c))
	h.respond(c, dv, err)
}

type allocateCashRequest struct {
	CashAllocationNumber string          `json:"cash_allocation_number" binding:"required"`
	CashAllocationDate   string          `json:"cash_allocation_date" binding:"required"`
	NetAmount            decimal.Decimal `json:"net_amount"`
}

func (h *Handler) allocateCash(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req allocateCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseDate(req.CashAllocationDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cash_allocation_date"})
		return
	}
	dv, err := h.dvs.AllocateCash(c.Request.Context(), id, req.CashAllocationNumber, date, req.NetAmount, actor(c))
	h.respond(c, dv, err)
}

type certifyBoxCRequest struct {
	BoxCDate          string `json:"box_c_date" binding:"required"`
	CertificationDate string `json:"certification_date" binding:"required"`
}

func (h *Handler) certifyBoxC(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req certifyBoxCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	boxCDate, err := parseDate(req.BoxCDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid box_c_date"})
		return
	}
	certDate, err := parseDate(req.CertificationDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certification_date"})
		return
	}
	dv, err := h.dvs.CertifyBoxC(c.Request.Context(), id, boxCDate, certDate, actor(c))
	h.respond(c, dv, err)
}

type approvalOutRequest struct {
	OutDate string `json:"out_date"`
}

func (h *Handler) sendForApproval(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req approvalOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outDate, err := parseOptionalDate(req.OutDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid out_date"})
		return
	}
	dv, err := h.dvs.SendForApproval(c.Request.Context(), id, deref(outDate), actor(c))
	h.respond(c, dv, err)
}

type approvalInRequest struct {
	InDate         string `json:"in_date"`
	ApprovalStatus string `json:"approval_status" binding:"required"`
}

func (h *Handler) returnFromApproval(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req approvalInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inDate, err := parseOptionalDate(req.InDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid in_date"})
		return
	}
	dv, err := h.dvs.ReturnFromApproval(c.Request.Context(), id, deref(inDate), req.ApprovalStatus, actor(c))
	h.respond(c, dv, err)
}

type indexingRequest struct {
	IndexedBy    string `json:"indexed_by" binding:"required"`
	IndexingDate string `json:"indexing_date"`
}

func (h *Handler) recordIndexing(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req indexingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseOptionalDate(req.IndexingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid indexing_date"})
		return
	}
	dv, err := h.dvs.RecordIndexing(c.Request.Context(), id, req.IndexedBy, deref(date), actor(c))
	h.respond(c, dv, err)
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	CheckNumber   string `json:"check_number"`
	CheckDate     string `json:"check_date"`
	LDDAPNumber   string `json:"lddap_number"`
	LDDAPDate     string `json:"lddap_date"`
	PRNumber      string `json:"pr_number"`
	PROutDate     string `json:"pr_out_date"`
	PRInDate      string `json:"pr_in_date"`
}

func (h *Handler) setPaymentMethod(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := workflow.PaymentFields{
		CheckNumber: req.CheckNumber,
		LDDAPNumber: req.LDDAPNumber,
		PRNumber:    req.PRNumber,
	}
	var err error
	if fields.CheckDate, err = parseOptionalDate(req.CheckDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid check_date"})
		return
	}
	if fields.LDDAPDate, err = parseOptionalDate(req.LDDAPDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lddap_date"})
		return
	}
	if fields.PROutDate, err = parseOptionalDate(req.PROutDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pr_out_date"})
		return
	}
	if fields.PRInDate, err = parseOptionalDate(req.PRInDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pr_in_date"})
		return
	}

	dv, err := h.dvs.SetPaymentMethod(c.Request.Context(), id, model.PaymentMethod(strings.ToLower(req.PaymentMethod)), fields, actor(c))
	h.respond(c, dv, err)
}

func (h *Handler) returnFromCashiering(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	dv, err := h.dvs.ReturnFromCashiering(c.Request.Context(), id, actor(c))
	h.respond(c, dv, err)
}

type engasRequest struct {
	EngasNumber string `json:"engas_number" binding:"required"`
	EngasDate   string `json:"engas_date"`
}

func (h *Handler) recordEngas(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req engasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseOptionalDate(req.EngasDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid engas_date"})
		return
	}
	dv, err := h.dvs.RecordEngas(c.Request.Context(), id, req.EngasNumber, deref(date), actor(c))
	h.respond(c, dv, err)
}

type cdjRequest struct {
	CDJDate       string `json:"cdj_date"`
	CDJRecordedBy string `json:"cdj_recorded_by" binding:"required"`
}

func (h *Handler) recordCDJ(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req cdjRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseOptionalDate(req.CDJDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cdj_date"})
		return
	}
	dv, err := h.dvs.RecordCDJ(c.Request.Context(), id, deref(date), req.CDJRecordedBy, actor(c))
	h.respond(c, dv, err)
}

type lddapCertifyRequest struct {
	LDDAPDate   string `json:"lddap_date"`
	CertifiedBy string `json:"certified_by"`
}

func (h *Handler) certifyLDDAP(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req lddapCertifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parseOptionalDate(req.LDDAPDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lddap_date"})
		return
	}
	dv, err := h.dvs.CertifyLDDAP(c.Request.Context(), id, deref(date), req.CertifiedBy, actor(c))
	h.respond(c, dv, err)
}

type reallocateRequest struct {
	ReallocationReason string `json:"reallocation_reason" binding:"required"`
}

func (h *Handler) reallocateCash(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req reallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dv, err := h.dvs.ReallocateCash(c.Request.Context(), id, req.ReallocationReason, actor(c))
	h.respond(c, dv, err)
}

type updateStatusRequest struct {
	Status               string          `json:"status" binding:"required"`
	Reason               string          `json:"reason"`
	CashAllocationNumber string          `json:"cash_allocation_number"`
	CashAllocationDate   string          `json:"cash_allocation_date"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	BoxCDate             string          `json:"box_c_date"`
	CertificationDate    string          `json:"certification_date"`
	InDate               string          `json:"in_date"`
	ApprovalStatus       string          `json:"approval_status"`
	IndexedBy            string          `json:"indexed_by"`
	IndexingDate         string          `json:"indexing_date"`
	PaymentMethod        string          `json:"payment_method"`
	CheckNumber          string          `json:"check_number"`
	CheckDate            string          `json:"check_date"`
	LDDAPNumber          string          `json:"lddap_number"`
	LDDAPDate            string          `json:"lddap_date"`
	PRNumber             string          `json:"pr_number"`
	PROutDate            string          `json:"pr_out_date"`
	PRInDate             string          `json:"pr_in_date"`
	EngasNumber          string          `json:"engas_number"`
	EngasDate            string          `json:"engas_date"`
	CDJDate              string          `json:"cdj_date"`
	CDJRecordedBy        string          `json:"cdj_recorded_by"`
	CertifiedBy          string          `json:"certified_by"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := h.dvID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.UpdateStatusInput{
		Status:               model.DVStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Reason:               req.Reason,
		CashAllocationNumber: req.CashAllocationNumber,
		ApprovalStatus:       req.ApprovalStatus,
		IndexedBy:            req.IndexedBy,
		PaymentMethod:        model.PaymentMethod(strings.ToLower(req.PaymentMethod)),
		EngasNumber:          req.EngasNumber,
		CDJRecordedBy:        req.CDJRecordedBy,
		LDDAPCertifiedBy:     req.CertifiedBy,
		Payment: workflow.PaymentFields{
			CheckNumber: req.CheckNumber,
			LDDAPNumber: req.LDDAPNumber,
			PRNumber:    req.PRNumber,
		},
	}
	if !req.NetAmount.IsZero() {
		net := req.NetAmount
		in.NetAmount = &net
	}

	dates := []struct {
		raw    string
		target **time.Time
		name   string
	}{
		{req.CashAllocationDate, &in.CashAllocationDate, "cash_allocation_date"},
		{req.BoxCDate, &in.BoxCDate, "box_c_date"},
		{req.CertificationDate, &in.CertificationDate, "certification_date"},
		{req.InDate, &in.ApprovalInDate, "in_date"},
		{req.IndexingDate, &in.IndexingDate, "indexing_date"},
		{req.CheckDate, &in.Payment.CheckDate, "check_date"},
		{req.LDDAPDate, &in.Payment.LDDAPDate, "lddap_date"},
		{req.PROutDate, &in.Payment.PROutDate, "pr_out_date"},
		{req.PRInDate, &in.Payment.PRInDate, "pr_in_date"},
		{req.EngasDate, &in.EngasDate, "engas_date"},
		{req.CDJDate, &in.CDJDate, "cdj_date"},
	}
	for _, d := range dates {
		parsed, err := parseOptionalDate(d.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + d.name})
			return
		}
		*d.target = parsed
	}
	// lddap_date doubles as the certification date when the target status is
	// processed.
	in.LDDAPDate = in.Payment.LDDAPDate

	dv, err := h.dvs.UpdateStatus(c.Request.Context(), id, in, actor(c))
	h.respond(c, dv, err)
}

func (h *Handler) respond(c *gin.Context, dv *model.DisbursementVoucher, err error) {
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dv)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var transition *workflow.InvalidTransitionError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": validation.Fields})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error(), "current_status": transition.Current})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("dv operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
