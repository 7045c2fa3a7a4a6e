package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/application/service"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/fleetops/tms/internal/report"
)

const (
	actorContextKey = "actor"
	actorHeader     = "X-Actor-ID"
	dayLayout       = "2006-01-02"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	workflows       service.WorkflowService
	requests        service.RequestService
	allocator       service.AllocatorService
	vehicles        service.VehicleService
	notifications   service.NotificationService
	reports         *report.KilometerReportGenerator
	directory       port.ActorDirectory
	reportOutputDir string
	logger          Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	workflows service.WorkflowService,
	requests service.RequestService,
	allocator service.AllocatorService,
	vehicles service.VehicleService,
	notifications service.NotificationService,
	reports *report.KilometerReportGenerator,
	directory port.ActorDirectory,
	reportOutputDir string,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflows:       workflows,
		requests:        requests,
		allocator:       allocator,
		vehicles:        vehicles,
		notifications:   notifications,
		reports:         reports,
		directory:       directory,
		reportOutputDir: reportOutputDir,
		logger:          logger,
	}
}

// Response is the standard API response format
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// ResolveActor resolves the acting user from the X-Actor-ID header. Identity
// management lives outside this system; the header names an already
// authenticated user.
func (h *Handlers) ResolveActor(c *gin.Context) {
	raw := c.GetHeader(actorHeader)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "missing " + actorHeader + " header"})
		return
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid " + actorHeader + " header"})
		return
	}

	actor, err := h.directory.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to resolve actor", "actor_id", id, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to resolve actor"})
		return
	}
	if actor == nil || !actor.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: "unknown or inactive actor"})
		return
	}

	c.Set(actorContextKey, actor)
	c.Next()
}

func (h *Handlers) actor(c *gin.Context) *entity.User {
	return c.MustGet(actorContextKey).(*entity.User)
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateTripRequest is the payload for trip and high-cost trip intake
type CreateTripRequest struct {
	Destination string `json:"destination" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	StartDay    string `json:"start_day" binding:"required"`
	ReturnDay   string `json:"return_day" binding:"required"`
}

// CreateMaintenanceRequest is the payload for maintenance intake
type CreateMaintenanceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateRefuelingRequest is the payload for refueling intake
type CreateRefuelingRequest struct {
	Destination string `json:"destination" binding:"required"`
	StartDay    string `json:"start_day" binding:"required"`
}

// CreateRequest handles POST /api/requests/:kind
func (h *Handlers) CreateRequest(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	actor := h.actor(c)

	var (
		created  *entity.Request
		warnings []string
		err      error
	)

	switch kind {
	case workflow.KindTrip, workflow.KindHighCostTrip:
		var body CreateTripRequest
		if !h.bind(c, &body) {
			return
		}
		input := service.TripInput{Requester: actor, Destination: body.Destination, Reason: body.Reason}
		if input.StartDay, ok = h.parseDay(c, "start_day", body.StartDay); !ok {
			return
		}
		if input.ReturnDay, ok = h.parseDay(c, "return_day", body.ReturnDay); !ok {
			return
		}
		if kind == workflow.KindTrip {
			created, warnings, err = h.requests.CreateTrip(c.Request.Context(), input)
		} else {
			created, warnings, err = h.requests.CreateHighCostTrip(c.Request.Context(), input)
		}
	case workflow.KindMaintenance:
		var body CreateMaintenanceRequest
		if !h.bind(c, &body) {
			return
		}
		created, warnings, err = h.requests.CreateMaintenance(c.Request.Context(), actor, body.Reason)
	case workflow.KindRefueling:
		var body CreateRefuelingRequest
		if !h.bind(c, &body) {
			return
		}
		var startDay time.Time
		if startDay, ok = h.parseDay(c, "start_day", body.StartDay); !ok {
			return
		}
		created, warnings, err = h.requests.CreateRefueling(c.Request.Context(), actor, body.Destination, startDay)
	}

	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created, Warnings: warnings})
}

// ListRequests handles GET /api/requests/:kind
func (h *Handlers) ListRequests(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}

	requests, err := h.workflows.ListForActor(c.Request.Context(), kind, h.actor(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:kind/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	req, err := h.workflows.GetRequest(c.Request.Context(), kind, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// GetAuditTrail handles GET /api/requests/:kind/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	trail, err := h.workflows.AuditTrail(c.Request.Context(), kind, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: trail})
}

// Forward handles POST /api/requests/:kind/:id/forward
func (h *Handlers) Forward(c *gin.Context) {
	h.act(c, service.ActionInput{Action: workflow.TriggerForward})
}

// ApproveRequest is the payload for the approve action. VehicleID is
// required for ordinary trips and ignored for the other kinds.
type ApproveRequest struct {
	VehicleID *int64 `json:"vehicle_id"`
}

// Approve handles POST /api/requests/:kind/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	var body ApproveRequest
	if c.Request.ContentLength > 0 {
		if !h.bind(c, &body) {
			return
		}
	}
	h.act(c, service.ActionInput{Action: workflow.TriggerApprove, VehicleID: body.VehicleID})
}

// RejectRequest is the payload for the reject action
type RejectRequest struct {
	Message string `json:"message" binding:"required"`
}

// Reject handles POST /api/requests/:kind/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	var body RejectRequest
	if !h.bind(c, &body) {
		return
	}
	h.act(c, service.ActionInput{Action: workflow.TriggerReject, RejectionMessage: body.Message})
}

func (h *Handlers) act(c *gin.Context, input service.ActionInput) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	input.Kind = kind
	input.RequestID = id
	input.Actor = h.actor(c)

	result, err := h.workflows.Act(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result.Request, Warnings: result.Warnings})
}

// EstimateRequest is the payload for the transport manager's cost estimation
type EstimateRequest struct {
	DistanceKm         float64 `json:"distance_km" binding:"required"`
	FuelPricePerLiter  float64 `json:"fuel_price_per_liter" binding:"required"`
	EstimatedVehicleID *int64  `json:"estimated_vehicle_id"`
}

// Estimate handles POST /api/requests/:kind/:id/estimate
func (h *Handlers) Estimate(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var body EstimateRequest
	if !h.bind(c, &body) {
		return
	}

	req, err := h.requests.Estimate(c.Request.Context(), service.EstimateInput{
		Kind:               kind,
		RequestID:          id,
		Actor:              h.actor(c),
		DistanceKm:         body.DistanceKm,
		FuelPricePerLiter:  body.FuelPricePerLiter,
		EstimatedVehicleID: body.EstimatedVehicleID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// SubmitMaintenanceDocs handles POST /api/requests/:kind/:id/documents.
// Only maintenance requests carry documents. The body is multipart form
// data with "letter" and "receipt" files plus a "total_cost" field.
func (h *Handlers) SubmitMaintenanceDocs(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	if kind != workflow.KindMaintenance {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "only maintenance requests carry documents"})
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	totalCost, err := strconv.ParseFloat(c.PostForm("total_cost"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid total_cost"})
		return
	}

	letterName, letterContent, ok := h.formFile(c, "letter")
	if !ok {
		return
	}
	receiptName, receiptContent, ok := h.formFile(c, "receipt")
	if !ok {
		return
	}

	req, err := h.requests.SubmitMaintenanceDocs(c.Request.Context(), service.MaintenanceDocsInput{
		RequestID:      id,
		Actor:          h.actor(c),
		LetterName:     letterName,
		LetterContent:  letterContent,
		ReceiptName:    receiptName,
		ReceiptContent: receiptContent,
		TotalCost:      totalCost,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// AssignVehicleRequest is the payload for post-approval vehicle dispatch.
// Without a vehicle id, the vehicle recorded during estimation is used.
type AssignVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id"`
}

// AssignVehicle handles POST /api/requests/:kind/:id/vehicle. Deferred
// dispatch applies to high-cost trips only.
func (h *Handlers) AssignVehicle(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	if kind != workflow.KindHighCostTrip {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "only high-cost trips use deferred vehicle dispatch"})
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var body AssignVehicleRequest
	if c.Request.ContentLength > 0 {
		if !h.bind(c, &body) {
			return
		}
	}

	req, warnings, err := h.allocator.AssignToApprovedTrip(c.Request.Context(), id, h.actor(c), body.VehicleID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req, Warnings: warnings})
}

// CompleteTripRequest is the payload for trip completion
type CompleteTripRequest struct {
	KilometersDriven float64 `json:"kilometers_driven" binding:"required"`
}

// CompleteTrip handles POST /api/requests/:kind/:id/complete
func (h *Handlers) CompleteTrip(c *gin.Context) {
	kind, ok := h.kindParam(c)
	if !ok {
		return
	}
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var body CompleteTripRequest
	if !h.bind(c, &body) {
		return
	}

	req, warnings, err := h.allocator.CompleteTrip(c.Request.Context(), kind, id, h.actor(c), body.KilometersDriven)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req, Warnings: warnings})
}

// RegisterVehicleRequest is the payload for vehicle registration
type RegisterVehicleRequest struct {
	LicensePlate   string  `json:"license_plate" binding:"required"`
	Model          string  `json:"model" binding:"required"`
	Capacity       int     `json:"capacity"`
	Source         string  `json:"source" binding:"required"`
	RentalCompany  string  `json:"rental_company"`
	FuelType       string  `json:"fuel_type"`
	FuelEfficiency float64 `json:"fuel_efficiency" binding:"required"`
}

// RegisterVehicle handles POST /api/vehicles
func (h *Handlers) RegisterVehicle(c *gin.Context) {
	var body RegisterVehicleRequest
	if !h.bind(c, &body) {
		return
	}

	vehicle, err := h.vehicles.Register(c.Request.Context(), h.actor(c), service.VehicleInput{
		LicensePlate:   body.LicensePlate,
		Model:          body.Model,
		Capacity:       body.Capacity,
		Source:         body.Source,
		RentalCompany:  body.RentalCompany,
		FuelType:       body.FuelType,
		FuelEfficiency: body.FuelEfficiency,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: vehicle})
}

// GetVehicle handles GET /api/vehicles/:id
func (h *Handlers) GetVehicle(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vehicle})
}

// ListAvailableVehicles handles GET /api/vehicles
func (h *Handlers) ListAvailableVehicles(c *gin.Context) {
	vehicles, err := h.allocator.ListAvailableVehicles(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vehicles})
}

// AssignDriverRequest is the payload for binding a driver to a vehicle
type AssignDriverRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// AssignDriver handles PUT /api/vehicles/:id/driver
func (h *Handlers) AssignDriver(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var body AssignDriverRequest
	if !h.bind(c, &body) {
		return
	}

	if err := h.vehicles.AssignDriver(c.Request.Context(), h.actor(c), id, body.DriverID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// UnassignDriver handles DELETE /api/vehicles/:id/driver
func (h *Handlers) UnassignDriver(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	if err := h.vehicles.UnassignDriver(c.Request.Context(), h.actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RecordKilometersRequest is the payload for a monthly kilometer log entry
type RecordKilometersRequest struct {
	Month            string  `json:"month" binding:"required"`
	KilometersDriven float64 `json:"kilometers_driven" binding:"required"`
}

// RecordKilometers handles POST /api/vehicles/:id/kilometers
func (h *Handlers) RecordKilometers(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var body RecordKilometersRequest
	if !h.bind(c, &body) {
		return
	}

	log, warnings, err := h.vehicles.RecordMonthlyKilometers(c.Request.Context(), service.KilometerLogInput{
		VehicleID:        id,
		Month:            body.Month,
		KilometersDriven: body.KilometersDriven,
		RecordedBy:       h.actor(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: log, Warnings: warnings})
}

// ListKilometers handles GET /api/vehicles/:id/kilometers
func (h *Handlers) ListKilometers(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	logs, err := h.vehicles.ListVehicleLogs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

// MarkServiced handles POST /api/vehicles/:id/serviced
func (h *Handlers) MarkServiced(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	if err := h.vehicles.MarkServiced(c.Request.Context(), h.actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, err := h.notifications.ListByRecipient(c.Request.Context(), h.actor(c).ID, unreadOnly, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: notifications})
}

// CountUnread handles GET /api/notifications/unread-count
func (h *Handlers) CountUnread(c *gin.Context) {
	count, err := h.notifications.CountUnread(c.Request.Context(), h.actor(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"unread_count": count}})
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, h.actor(c).ID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), h.actor(c).ID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// KilometerReport handles GET /api/reports/kilometers. It generates the
// Excel workbook server-side and returns the file path.
func (h *Handlers) KilometerReport(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "from and to months are required"})
		return
	}

	outputPath := filepath.Join(h.reportOutputDir, fmt.Sprintf("kilometers_%s_%s_%s.xlsx", from, to, uuid.New().String()[:8]))
	if err := h.reports.Generate(c.Request.Context(), from, to, outputPath); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"report_path": outputPath}})
}

func (h *Handlers) kindParam(c *gin.Context) (workflow.Kind, bool) {
	kind := workflow.Kind(c.Param("kind"))
	if !kind.IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown request kind: " + c.Param("kind")})
		return "", false
	}
	return kind, true
}

func (h *Handlers) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) bind(c *gin.Context, body interface{}) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *Handlers) parseDay(c *gin.Context, field, value string) (time.Time, bool) {
	day, err := time.Parse(dayLayout, value)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: fmt.Sprintf("invalid %s: expected YYYY-MM-DD", field)})
		return time.Time{}, false
	}
	return day, true
}

func (h *Handlers) formFile(c *gin.Context, field string) (string, []byte, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing " + field + " file"})
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "cannot read " + field + " file"})
		return "", nil, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "cannot read " + field + " file"})
		return "", nil, false
	}

	return header.Filename, content, true
}

// respondError maps application errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, workflow.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrAlreadyTerminal),
		errors.Is(err, workflow.ErrConflict),
		errors.Is(err, workflow.ErrResourceUnavailable):
		status = http.StatusConflict
	case errors.Is(err, workflow.ErrPreconditionMissing),
		errors.Is(err, workflow.ErrNoFurtherApprover),
		errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Success: false, Error: "internal server error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
