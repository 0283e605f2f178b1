package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gate-service/internal/http/middleware"
	"gate-service/internal/model"
	"gate-service/internal/service"
	"gate-service/internal/upload"
)

// sentinel sent to clients when text extraction yields nothing usable
const unknownPlate = "UNKNOWN"

type Handler struct {
	authService   *service.AuthService
	entryService  *service.EntryService
	reportService *service.ReportService
	uploads       *upload.Saver
	cookieSecure  bool
	cookieMaxAge  time.Duration
	log           zerolog.Logger
}

func NewHandler(
	authService *service.AuthService,
	entryService *service.EntryService,
	reportService *service.ReportService,
	uploads *upload.Saver,
	env string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		authService:   authService,
		entryService:  entryService,
		reportService: reportService,
		uploads:       uploads,
		cookieSecure:  env == "production",
		cookieMaxAge:  tokenTTL,
		log:           log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", h.login)
		authRoutes.POST("/logout", h.logout)
		authRoutes.POST("/create-sewadar", authMiddleware, middleware.RequireRoles(model.RoleAdmin), h.registerUser)
		authRoutes.PUT("/profile", authMiddleware, h.updateProfile)
	}

	vehicles := api.Group("/vehicles")
	vehicles.Use(authMiddleware, middleware.RequireRoles(model.RoleAdmin, model.RoleSewadar))
	{
		vehicles.POST("/scan", h.scanPlate)
		vehicles.POST("/entry", h.createEntry)
	}

	reports := api.Group("/reports")
	reports.Use(authMiddleware, middleware.RequireRoles(model.RoleAdmin))
	{
		reports.GET("", h.getReports)
		reports.GET("/dashboard", h.getDashboard)
	}
}

// Auth handlers

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.cookieMaxAge.Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"_id":      user.ID,
		"username": user.Username,
		"fullName": user.FullName,
		"role":     user.Role,
		"token":    token,
	})
}

func (h *Handler) logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out successfully"})
}

func (h *Handler) registerUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "user created successfully",
		"user": gin.H{
			"_id":      user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

func (h *Handler) updateProfile(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Username string `json:"username"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), principal, service.UpdateProfileInput{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "profile updated",
		"user": gin.H{
			"_id":      user.ID,
			"username": user.Username,
			"fullName": user.FullName,
			"role":     user.Role,
		},
	})
}

// Vehicle handlers

func (h *Handler) scanPlate(c *gin.Context) {
	fileHeader, err := c.FormFile("platePhoto")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("no image uploaded"))
		return
	}

	localPath, err := h.uploads.Save(c, fileHeader)
	if err != nil {
		if errors.Is(err, upload.ErrInvalidFileType) || errors.Is(err, upload.ErrFileTooLarge) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, errorResponse("server error during scan"))
		return
	}
	// the image must never outlive the request, whatever path we exit on
	defer h.removeUpload(localPath)

	extraction := h.entryService.ExtractPlate(c.Request.Context(), localPath)

	// the image is only needed for extraction, drop it before the lookup
	h.removeUpload(localPath)

	suggestions := h.entryService.Suggest(c.Request.Context(), extraction)

	plate := unknownPlate
	if extraction.Available {
		plate = extraction.Text
	}

	c.JSON(http.StatusOK, successResponse(gin.H{
		"plateNumber":    plate,
		"suggestedPhone": suggestions.Phone,
		"suggestedType":  suggestions.VehicleType,
	}))
}

func (h *Handler) createEntry(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		PlateNumber string `json:"plateNumber"`
		VehicleType string `json:"vehicleType"`
		PhoneNumber string `json:"phoneNumber"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.entryService.CreateEntry(c.Request.Context(), principal, service.CreateEntryInput{
		PlateNumber: req.PlateNumber,
		VehicleType: req.VehicleType,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "vehicle entry saved successfully",
		"data": entryWithOriginal{
			VehicleEntry:  entry,
			OriginalInput: req.PlateNumber,
		},
	})
}

// entryWithOriginal echoes the unnormalized input next to the stored record
// so the client can show what was cleaned.
type entryWithOriginal struct {
	*model.VehicleEntry
	OriginalInput string `json:"originalInput"`
}

// Report handlers

func (h *Handler) getReports(c *gin.Context) {
	page, err := h.reportService.ListReports(c.Request.Context(), service.ReportQuery{
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
		VehicleType: c.Query("vehicleType"),
		Page:        c.Query("page"),
		Limit:       c.Query("limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       page.Records,
		"pagination": page.Pagination,
	})
}

func (h *Handler) getDashboard(c *gin.Context) {
	dashboard, err := h.reportService.GetDashboard(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"selectedDate": dashboard.SelectedDate,
		"stats":        dashboard.Stats,
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("jwt", token, maxAge, "/", "", h.cookieSecure, true)
}

func (h *Handler) removeUpload(path string) {
	if err := upload.Remove(path); err != nil {
		h.log.Warn().Err(err).Str("path", path).Msg("failed to delete temp image")
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
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
		"success": true,
		"data":    data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
	}
}
