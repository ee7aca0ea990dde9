package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/rongwang/pioneer-fleet/internal/service"
)

// Handler holds the HTTP handlers
type Handler struct {
	service service.Service
	metrics *metrics.Registry
	limiter *RateLimiter
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, m *metrics.Registry, limiter *RateLimiter) *Handler {
	return &Handler{
		service: svc,
		metrics: m,
		limiter: limiter,
	}
}

// SetupRoutes registers every route on router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(MetricsMiddleware(h.metrics))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	throttled := RateLimitMiddleware(h.limiter, h.metrics)

	// Public routes
	api.POST("/auth/login", throttled, h.Login)
	api.GET("/catalog", h.BrowseCatalog)

	// Pilot routes
	authorized := api.Group("")
	authorized.Use(AuthMiddleware())
	{
		authorized.GET("/hangar", h.GetHangar)
		authorized.POST("/hangar/ships", h.AcquireShips)
		authorized.PATCH("/hangar/ships", h.UpdateShips)
		authorized.DELETE("/hangar/ships", h.DeleteShip)

		authorized.GET("/profile", h.GetProfile)
		authorized.PUT("/profile", h.UpdateProfile)

		authorized.GET("/crew", h.GetCrewOffers)
		authorized.POST("/crew/:id/toggle", h.ToggleCrew)

		authorized.GET("/corpo/stats", h.GetCorpoStats)
		authorized.GET("/corpo/fleet", h.GetCorpoFleet)
		authorized.GET("/corpo/registry", h.GetRegistry)
		authorized.GET("/corpo/members", h.GetMembers)

		authorized.POST("/admin/unlock", throttled, h.UnlockAdmin)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(AuthMiddleware(), AdminOnly(), ActivePilot(h.service))
	{
		admin.DELETE("/pilots/:pilot", h.DeletePilot)
		admin.PUT("/corpo-code", h.UpdateCorpoCode)
		admin.GET("/document", h.ExportDocument)
	}
}

// Authentication handlers
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Registered {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *Handler) UnlockAdmin(c *gin.Context) {
	var req models.AdminUnlockRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UnlockAdmin(c.Request.Context(), currentSession(c).Pilot, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Catalog handlers
func (h *Handler) BrowseCatalog(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	q := catalog.Query{
		Brand: c.Query("brand"),
		Role:  c.Query("role"),
		Names: c.QueryArray("ship"),
		Page:  page,
	}
	c.JSON(http.StatusOK, h.service.BrowseCatalog(c.Query("source"), q))
}

// Hangar handlers
func (h *Handler) GetHangar(c *gin.Context) {
	resp, err := h.service.Hangar(c.Request.Context(), currentSession(c).Pilot, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AcquireShips(c *gin.Context) {
	var req models.AcquireShipsRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.AcquireShips(c.Request.Context(), currentSession(c).Pilot, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) UpdateShips(c *gin.Context) {
	var req models.UpdateShipsRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Match.ShipName == "" || req.Match.Source == "" || req.Match.Insurance == "" {
		respondInvalid(c, "match requires shipName, source and insurance")
		return
	}

	resp, err := h.service.UpdateShips(c.Request.Context(), currentSession(c).Pilot, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteShip(c *gin.Context) {
	var req models.DeleteShipRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.DeleteShip(c.Request.Context(), currentSession(c).Pilot, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile handlers
func (h *Handler) GetProfile(c *gin.Context) {
	resp, err := h.service.GetProfile(c.Request.Context(), currentSession(c).Pilot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateProfile(c.Request.Context(), currentSession(c).Pilot, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crew handlers
func (h *Handler) GetCrewOffers(c *gin.Context) {
	offers, err := h.service.CrewOffers(c.Request.Context(), currentSession(c).Pilot)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "offers": offers})
}

func (h *Handler) ToggleCrew(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondInvalid(c, "Invalid ship id")
		return
	}

	resp, err := h.service.ToggleCrew(c.Request.Context(), currentSession(c).Pilot, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Corporation handlers
func (h *Handler) GetCorpoStats(c *gin.Context) {
	stats, err := h.service.CorpoStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "stats": stats})
}

func (h *Handler) GetCorpoFleet(c *gin.Context) {
	overview, err := h.service.CorpoFleet(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "fleet": overview})
}

func (h *Handler) GetRegistry(c *gin.Context) {
	rows, err := h.service.Registry(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "rows": rows})
}

func (h *Handler) GetMembers(c *gin.Context) {
	members, err := h.service.Members(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "members": members})
}

// Admin handlers
func (h *Handler) DeletePilot(c *gin.Context) {
	resp, err := h.service.DeletePilot(c.Request.Context(), c.Param("pilot"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateCorpoCode(c *gin.Context) {
	var req models.UpdateCorpoCodeRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.UpdateCorpoCode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ExportDocument(c *gin.Context) {
	data, digest, err := h.service.ExportDocument(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	etag := `"` + digest + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondInvalid(c, err.Error())
		return false
	}
	return true
}

func respondInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: message,
	})
}

// errorStatus maps domain errors to an HTTP status and error code
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{fleet.ErrInvalidCorpoCode, http.StatusUnauthorized, "INVALID_CORPO_CODE"},
	{fleet.ErrMalformedCredentials, http.StatusBadRequest, "MALFORMED_CREDENTIALS"},
	{fleet.ErrWrongPin, http.StatusUnauthorized, "WRONG_PIN"},
	{fleet.ErrInvalidAdminCode, http.StatusForbidden, "INVALID_ADMIN_CODE"},
	{fleet.ErrCrewFull, http.StatusConflict, "CREW_FULL"},
	{fleet.ErrShipNotFound, http.StatusNotFound, "SHIP_NOT_FOUND"},
	{fleet.ErrNoMatchingShips, http.StatusNotFound, "NO_MATCHING_SHIPS"},
	{fleet.ErrPilotNotFound, http.StatusNotFound, "PILOT_NOT_FOUND"},
	{fleet.ErrUnknownTarget, http.StatusBadRequest, "UNKNOWN_TARGET"},
	{fleet.ErrEmptyCorpoCode, http.StatusBadRequest, "INVALID_REQUEST"},
	{fleet.ErrInvalidCriteria, http.StatusBadRequest, "INVALID_REQUEST"},
	{service.ErrStoreUnavailable, http.StatusBadGateway, "STORE_UNAVAILABLE"},
}

func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, models.ErrorResponse{
				Status:  "error",
				Code:    e.code,
				Message: err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	})
}
