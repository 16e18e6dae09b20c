package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"smartgate-service/internal/cache"
	"smartgate-service/internal/http/middleware"
	"smartgate-service/internal/model"
	"smartgate-service/internal/ratelimit"
	"smartgate-service/internal/service"
	"smartgate-service/internal/store"
)

type Handler struct {
	accessService  *service.AccessService
	guestService   *service.GuestService
	walletService  *service.WalletService
	parkingService *service.ParkingService
	reviewService  *service.ReviewService
	accountService *service.AccountService
	adminService   *service.AdminService
	throttle       *gateThrottle
	log            zerolog.Logger
}

func NewHandler(
	accessService *service.AccessService,
	guestService *service.GuestService,
	walletService *service.WalletService,
	parkingService *service.ParkingService,
	reviewService *service.ReviewService,
	accountService *service.AccountService,
	adminService *service.AdminService,
	ch *cache.Cache,
	limit int,
	window time.Duration,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		accessService:  accessService,
		guestService:   guestService,
		walletService:  walletService,
		parkingService: parkingService,
		reviewService:  reviewService,
		accountService: accountService,
		adminService:   adminService,
		throttle: &gateThrottle{
			cache:    ch,
			fallback: ratelimit.New(limit, window),
			limit:    limit,
			window:   window,
		},
		log: log,
	}
}

// gateThrottle prefers the shared redis window and falls back to the
// in-process limiter when redis is unavailable.
type gateThrottle struct {
	cache    *cache.Cache
	fallback *ratelimit.Limiter
	limit    int
	window   time.Duration
}

func (t *gateThrottle) allow(c *gin.Context, gateSlug string) bool {
	key := cache.RateLimitKey(gateSlug)
	if count, ok := t.cache.HitRateLimit(c.Request.Context(), key, t.window); ok {
		return count <= int64(t.limit)
	}
	return t.fallback.Allow(key)
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/infer", h.runInference)
	api.GET("/access-events", h.listAccessEvents)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.GET("/users/:id", h.getUser)
		admin.PATCH("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)

		admin.GET("/vehicles", h.listVehicles)
		admin.POST("/vehicles", h.createVehicle)
		admin.PATCH("/vehicles/:id", h.updateVehicle)
		admin.DELETE("/vehicles/:id", h.deleteVehicle)

		admin.GET("/passes", h.listPasses)
		admin.GET("/passes/plans", h.listPassPlans)
		admin.POST("/passes", h.createPass)
		admin.PATCH("/passes/:id", h.updatePass)
		admin.DELETE("/passes/:id", h.deletePass)

		admin.GET("/gates", h.listGates)
		admin.POST("/gates", h.createGate)
		admin.GET("/gates/:id", h.getGate)
		admin.PATCH("/gates/:id", h.updateGate)
		admin.DELETE("/gates/:id", h.deleteGate)

		admin.GET("/pass-applications", h.listPassApplications)
		admin.POST("/pass-applications/:id/decision", h.reviewPassApplication)

		admin.GET("/role-upgrades", h.listRoleUpgrades)
		admin.POST("/role-upgrades/:id/decision", h.reviewRoleUpgrade)

		admin.GET("/payments", h.listPayments)
	}

	guest := api.Group("/guest")
	{
		guest.GET("/sessions", h.listGuestSessions)
		guest.POST("/session/open", h.openGuestSession)
		guest.POST("/session/close", h.closeGuestSession)
		guest.POST("/session/pay", h.payGuestSession)
		guest.GET("/rate", h.getGuestRate)
		guest.PATCH("/rate", h.updateGuestRate)
	}

	parking := api.Group("/parking")
	{
		parking.GET("/overview", h.parkingOverview)
		parking.GET("/venues", h.listParkingVenues)
		parking.POST("/venues", h.createParkingVenue)
		parking.PATCH("/venues/:id", h.updateParkingVenue)
		parking.DELETE("/venues/:id", h.deleteParkingVenue)
		parking.POST("/event", h.recordParkingEvent)
	}

	api.POST("/client/register", h.registerClient)

	client := api.Group("/client")
	client.Use(authMiddleware)
	{
		client.GET("/summary", h.clientSummary)
		client.GET("/wallet", h.walletActivity)
		client.POST("/wallet/top-up", h.walletTopUp)
		client.POST("/role-upgrade", h.submitRoleUpgrade)
		client.GET("/guest/lookup", h.lookupGuestSession)
		client.POST("/guest/pay", h.clientPayGuestSession)
		client.POST("/pass/pay", h.payPassInvoice)
		client.GET("/notifications", h.listNotifications)
		client.POST("/notifications/:id/ack", h.acknowledgeNotification)
		client.GET("/parking", h.parkingOverview)
	}
}

// ---------------------------------------------------------------------------
// Inference and access events
// ---------------------------------------------------------------------------

func (h *Handler) runInference(c *gin.Context) {
	var req struct {
		Gate          string  `json:"gate"`
		PlateOverride string  `json:"plate_override"`
		ImageBase64   string  `json:"image_base64"`
		SnapshotURL   *string `json:"snapshot_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if !h.throttle.allow(c, strings.ToLower(req.Gate)) {
		c.JSON(http.StatusTooManyRequests, errorResponse("Gate capture throttled. Please wait a few seconds."))
		return
	}

	var snapshot []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid image_base64"))
			return
		}
		snapshot = decoded
	}

	result, err := h.accessService.Infer(c.Request.Context(), service.InferInput{
		Gate:          req.Gate,
		PlateOverride: req.PlateOverride,
		Snapshot:      snapshot,
		SnapshotURL:   req.SnapshotURL,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listAccessEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.accessService.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(events))
}

// ---------------------------------------------------------------------------
// Portal auth
// ---------------------------------------------------------------------------

func (h *Handler) signup(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Phone     string `json:"phone"`
		Programme string `json:"programme"`
		Password  string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	result, err := h.accountService.Signup(c.Request.Context(), service.SignupInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Programme: req.Programme,
		Password:  req.Password,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	result, err := h.accountService.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			c.JSON(http.StatusUnauthorized, errorResponse("invalid credentials"))
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Admin: users
// ---------------------------------------------------------------------------

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(users))
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.adminService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(user))
}

func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		ID        string     `json:"id"`
		Name      string     `json:"name" binding:"required"`
		Email     string     `json:"email"`
		Phone     string     `json:"phone"`
		Role      model.Role `json:"role"`
		Programme string     `json:"programme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	user, err := h.adminService.CreateUser(c.Request.Context(), service.UserInput{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		Programme: req.Programme,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(user))
}

func (h *Handler) updateUser(c *gin.Context) {
	var req struct {
		Name      *string     `json:"name"`
		Email     *string     `json:"email"`
		Phone     *string     `json:"phone"`
		Role      *model.Role `json:"role"`
		Programme *string     `json:"programme"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	user, err := h.adminService.UpdateUser(c.Request.Context(), c.Param("id"), service.UserUpdate{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		Programme: req.Programme,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.adminService.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: vehicles
// ---------------------------------------------------------------------------

func (h *Handler) listVehicles(c *gin.Context) {
	vehicles, err := h.adminService.ListVehicles(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) createVehicle(c *gin.Context) {
	var req struct {
		ID        string `json:"id"`
		PlateText string `json:"plate_text" binding:"required"`
		UserID    string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	vehicle, err := h.adminService.CreateVehicle(c.Request.Context(), service.VehicleInput{
		ID:        req.ID,
		PlateText: req.PlateText,
		UserID:    req.UserID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(vehicle))
}

func (h *Handler) updateVehicle(c *gin.Context) {
	var req struct {
		PlateText *string `json:"plate_text"`
		UserID    *string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	vehicle, err := h.adminService.UpdateVehicle(c.Request.Context(), c.Param("id"), service.VehicleUpdate{
		PlateText: req.PlateText,
		UserID:    req.UserID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(vehicle))
}

func (h *Handler) deleteVehicle(c *gin.Context) {
	if err := h.adminService.DeleteVehicle(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: passes
// ---------------------------------------------------------------------------

func (h *Handler) listPasses(c *gin.Context) {
	result, err := h.adminService.ListPasses(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listPassPlans(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.adminService.PassPlans()))
}

func (h *Handler) createPass(c *gin.Context) {
	var req struct {
		UserID   string     `json:"user_id" binding:"required"`
		Role     model.Role `json:"role" binding:"required"`
		PlanType string     `json:"plan_type" binding:"required"`
		StartsAt *time.Time `json:"starts_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	input := service.PassInput{UserID: req.UserID, Role: req.Role, PlanType: req.PlanType}
	if req.StartsAt != nil {
		input.StartsAt = *req.StartsAt
	}
	pass, err := h.adminService.CreatePass(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(pass))
}

func (h *Handler) updatePass(c *gin.Context) {
	var req struct {
		Role     *model.Role `json:"role"`
		PlanType *string     `json:"plan_type"`
		StartsAt *time.Time  `json:"starts_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	pass, err := h.adminService.UpdatePass(c.Request.Context(), c.Param("id"), service.PassUpdate{
		Role:     req.Role,
		PlanType: req.PlanType,
		StartsAt: req.StartsAt,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(pass))
}

func (h *Handler) deletePass(c *gin.Context) {
	if err := h.adminService.DeletePass(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: gates
// ---------------------------------------------------------------------------

func (h *Handler) listGates(c *gin.Context) {
	gates, err := h.adminService.ListGates(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gates))
}

func (h *Handler) getGate(c *gin.Context) {
	gate, err := h.adminService.GetGate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gate))
}

type gateRequest struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name" binding:"required"`
	Slug             string                  `json:"slug" binding:"required"`
	MinRole          model.Role              `json:"min_role" binding:"required"`
	Location         string                  `json:"location"`
	IsActive         *bool                   `json:"is_active"`
	ParkingVenueID   *string                 `json:"parking_venue_id"`
	ParkingDirection *model.ParkingDirection `json:"parking_direction"`
}

func (h *Handler) createGate(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	gate, err := h.adminService.CreateGate(c.Request.Context(), service.GateInput{
		ID:               req.ID,
		Name:             req.Name,
		Slug:             req.Slug,
		MinRole:          req.MinRole,
		Location:         req.Location,
		IsActive:         isActive,
		ParkingVenueID:   req.ParkingVenueID,
		ParkingDirection: req.ParkingDirection,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(gate))
}

func (h *Handler) updateGate(c *gin.Context) {
	var req struct {
		Name             *string                 `json:"name"`
		Slug             *string                 `json:"slug"`
		MinRole          *model.Role             `json:"min_role"`
		Location         *string                 `json:"location"`
		IsActive         *bool                   `json:"is_active"`
		ParkingVenueID   *string                 `json:"parking_venue_id"`
		ParkingDirection *model.ParkingDirection `json:"parking_direction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	gate, err := h.adminService.UpdateGate(c.Request.Context(), c.Param("id"), service.GateUpdate{
		Name:             req.Name,
		Slug:             req.Slug,
		MinRole:          req.MinRole,
		Location:         req.Location,
		IsActive:         req.IsActive,
		ParkingVenueID:   req.ParkingVenueID,
		ParkingDirection: req.ParkingDirection,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gate))
}

func (h *Handler) deleteGate(c *gin.Context) {
	if err := h.adminService.DeleteGate(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Admin: reviews and payments
// ---------------------------------------------------------------------------

func (h *Handler) listPassApplications(c *gin.Context) {
	status := model.ReviewStatus(c.Query("status"))
	applications, err := h.reviewService.ListPassApplications(c.Request.Context(), status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(applications))
}

func (h *Handler) reviewPassApplication(c *gin.Context) {
	var req struct {
		Status     model.ReviewStatus `json:"status" binding:"required"`
		ReviewerID string             `json:"reviewer_id"`
		Note       string             `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	application, err := h.reviewService.ReviewPassApplication(c.Request.Context(), c.Param("id"), service.ReviewDecision{
		Status:     req.Status,
		ReviewerID: req.ReviewerID,
		Note:       req.Note,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(application))
}

func (h *Handler) listRoleUpgrades(c *gin.Context) {
	status := model.ReviewStatus(c.Query("status"))
	requests, err := h.reviewService.ListRoleUpgrades(c.Request.Context(), status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(requests))
}

func (h *Handler) reviewRoleUpgrade(c *gin.Context) {
	var req struct {
		Status     model.ReviewStatus `json:"status" binding:"required"`
		ReviewerID string             `json:"reviewer_id"`
		Note       string             `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	request, err := h.reviewService.ReviewRoleUpgrade(c.Request.Context(), c.Param("id"), service.ReviewDecision{
		Status:     req.Status,
		ReviewerID: req.ReviewerID,
		Note:       req.Note,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(request))
}

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := h.adminService.ListPayments(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(payments))
}

// ---------------------------------------------------------------------------
// Guest sessions
// ---------------------------------------------------------------------------

func (h *Handler) listGuestSessions(c *gin.Context) {
	sessions, err := h.guestService.ListSessions(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(sessions))
}

func (h *Handler) openGuestSession(c *gin.Context) {
	var req struct {
		PlateText string `json:"plate_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	session, err := h.guestService.OpenSession(c.Request.Context(), req.PlateText)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(session))
}

func (h *Handler) closeGuestSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	session, err := h.guestService.CloseSession(c.Request.Context(), req.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(session))
}

func (h *Handler) payGuestSession(c *gin.Context) {
	var req struct {
		SessionID     string   `json:"session_id" binding:"required"`
		Amount        *float64 `json:"amount"`
		PaymentSource string   `json:"payment_source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	payment, err := h.guestService.PaySession(c.Request.Context(), service.GuestPaymentInput{
		SessionID:     req.SessionID,
		Amount:        req.Amount,
		PaymentSource: req.PaymentSource,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(payment))
}

func (h *Handler) getGuestRate(c *gin.Context) {
	rate, err := h.guestService.Rate(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(rate))
}

func (h *Handler) updateGuestRate(c *gin.Context) {
	var req struct {
		BaseRate      float64 `json:"base_rate"`
		PerMinuteRate float64 `json:"per_minute_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	rate, err := h.guestService.UpdateRate(c.Request.Context(), req.BaseRate, req.PerMinuteRate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(rate))
}

// ---------------------------------------------------------------------------
// Parking
// ---------------------------------------------------------------------------

func (h *Handler) parkingOverview(c *gin.Context) {
	overview, err := h.parkingService.Overview(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) listParkingVenues(c *gin.Context) {
	venues, err := h.parkingService.ListVenues(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(venues))
}

func (h *Handler) createParkingVenue(c *gin.Context) {
	var req struct {
		ID       string `json:"id"`
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity"`
		Occupied int    `json:"occupied"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	venue, err := h.parkingService.CreateVenue(c.Request.Context(), service.VenueInput{
		ID:       req.ID,
		Name:     req.Name,
		Capacity: req.Capacity,
		Occupied: req.Occupied,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(venue))
}

func (h *Handler) updateParkingVenue(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Capacity *int    `json:"capacity"`
		Occupied *int    `json:"occupied"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	venue, err := h.parkingService.UpdateVenue(c.Request.Context(), c.Param("id"), service.VenueUpdate{
		Name:     req.Name,
		Capacity: req.Capacity,
		Occupied: req.Occupied,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(venue))
}

func (h *Handler) deleteParkingVenue(c *gin.Context) {
	if err := h.parkingService.DeleteVenue(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) recordParkingEvent(c *gin.Context) {
	var req struct {
		VenueID   string                 `json:"venue_id" binding:"required"`
		Direction model.ParkingDirection `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	venue, err := h.parkingService.RecordEvent(c.Request.Context(), req.VenueID, req.Direction)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(venue))
}

// ---------------------------------------------------------------------------
// Client portal
// ---------------------------------------------------------------------------

func (h *Handler) registerClient(c *gin.Context) {
	var req struct {
		Name      string     `json:"name" binding:"required"`
		Email     string     `json:"email" binding:"required"`
		Phone     string     `json:"phone"`
		Role      model.Role `json:"role" binding:"required"`
		Programme string     `json:"programme"`
		PlanType  string     `json:"plan_type" binding:"required"`
		Vehicles  []string   `json:"vehicles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	result, err := h.accountService.RegisterClient(c.Request.Context(), service.RegistrationInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
		Programme: req.Programme,
		PlanType:  req.PlanType,
		Vehicles:  req.Vehicles,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) clientSummary(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	summary, err := h.accountService.Summary(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) walletActivity(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	activity, err := h.walletService.Activity(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *Handler) walletTopUp(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	var req struct {
		Amount float64 `json:"amount" binding:"required"`
		Source string  `json:"source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if req.Source == "" {
		req.Source = "touchngo"
	}
	activity, err := h.walletService.TopUp(c.Request.Context(), principal.UserID, req.Amount, req.Source)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *Handler) submitRoleUpgrade(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	var req struct {
		TargetRole  model.Role `json:"target_role" binding:"required"`
		Reason      string     `json:"reason"`
		Attachments []string   `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	request, err := h.reviewService.SubmitRoleUpgrade(c.Request.Context(), principal.UserID, service.RoleUpgradeInput{
		TargetRole:  req.TargetRole,
		Reason:      req.Reason,
		Attachments: req.Attachments,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(request))
}

func (h *Handler) lookupGuestSession(c *gin.Context) {
	lookup, err := h.guestService.Lookup(c.Request.Context(), c.Query("session_id"), c.Query("plate_text"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

func (h *Handler) clientPayGuestSession(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	var req struct {
		SessionID     string   `json:"session_id" binding:"required"`
		Amount        *float64 `json:"amount"`
		PaymentSource string   `json:"payment_source"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	if req.PaymentSource == "" {
		req.PaymentSource = "wallet"
	}
	payment, err := h.guestService.PaySession(c.Request.Context(), service.GuestPaymentInput{
		SessionID:     req.SessionID,
		Amount:        req.Amount,
		PaymentSource: req.PaymentSource,
		UserID:        principal.UserID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(payment))
}

func (h *Handler) payPassInvoice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	var req struct {
		PassID string `json:"pass_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	pass, err := h.walletService.PayPassInvoice(c.Request.Context(), principal.UserID, req.PassID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(pass))
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	notes, err := h.accountService.Notifications(c.Request.Context(), principal.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(notes))
}

func (h *Handler) acknowledgeNotification(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}
	note, err := h.accountService.AcknowledgeNotification(c.Request.Context(), principal.UserID, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(note))
}

// ---------------------------------------------------------------------------
// Shared plumbing
// ---------------------------------------------------------------------------

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, store.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
