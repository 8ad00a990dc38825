package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pdvcaixa/internal/access"
	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/logger"
	"pdvcaixa/internal/receipt"
	"pdvcaixa/internal/service"
	"pdvcaixa/internal/suggestion"
)

const (
	maxBodyBytes = 1 << 20
	actorKey     = "pdv.operator"
)

var errTooManyAttempts = errors.New("too many login attempts")

type Options struct {
	AllowedOrigin string
	Suggestions   *suggestion.Engine
	Receipt       receipt.Header
	Logger        *logger.Logger
}

// API exposes the till over HTTP for the local front end.
type API struct {
	service       *service.Service
	auth          *AuthManager
	suggestions   *suggestion.Engine
	receiptHeader receipt.Header
	allowedOrigin string
	loginLimiter  *attemptLimiter
	log           *logger.Logger
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &API{
		service:       svc,
		auth:          auth,
		suggestions:   opts.Suggestions,
		receiptHeader: opts.Receipt,
		allowedOrigin: opts.AllowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		log:           log.WithComponent("httpapi"),
	}
}

func (a *API) Handler() http.Handler {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), a.requestLog(), securityHeaders(), limitBody())
	if c := a.corsMiddleware(); c != nil {
		r.Use(c)
	}

	r.GET("/healthz", a.handleHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", a.handleLogin)

	authed := v1.Group("", a.requireAuth())
	authed.POST("/auth/logout", a.handleLogout)
	authed.GET("/auth/me", a.handleMe)
	authed.GET("/settings/theme", a.handleGetTheme)
	authed.GET("/products", a.handleListProducts)
	authed.GET("/products/by-cod/:cod", a.handleProductByCod)
	authed.GET("/roles", a.handleListRoles)

	products := authed.Group("", requireArea(access.AreaProducts))
	products.GET("/products/next-code", a.handleNextProductCode)
	products.POST("/products", a.handleCreateProduct)
	products.PUT("/products/:id", a.handleUpdateProduct)
	products.DELETE("/products/:id", a.handleDeleteProduct)

	suppliers := authed.Group("", requireArea(access.AreaSuppliers))
	suppliers.GET("/suppliers", a.handleListSuppliers)
	suppliers.GET("/suppliers/next-code", a.handleNextSupplierCode)
	suppliers.POST("/suppliers", a.handleCreateSupplier)
	suppliers.PUT("/suppliers/:id", a.handleUpdateSupplier)
	suppliers.DELETE("/suppliers/:id", a.handleDeleteSupplier)

	staff := authed.Group("", requireArea(access.AreaEmployees))
	staff.GET("/employees", a.handleListEmployees)
	staff.GET("/employees/next-code", a.handleNextEmployeeCode)
	staff.POST("/employees", a.handleCreateEmployee)
	staff.PUT("/employees/:id", a.handleUpdateEmployee)
	staff.DELETE("/employees/:id", a.handleDeleteEmployee)
	staff.POST("/roles", a.handleCreateRole)
	staff.PUT("/roles/:id", a.handleUpdateRole)
	staff.DELETE("/roles/:id", a.handleDeleteRole)

	till := authed.Group("", requireArea(access.AreaCashier))
	till.POST("/register/open", a.handleOpenRegister)
	till.POST("/register/close", a.handleCloseRegister)
	till.GET("/register/current", a.handleCurrentRegister)
	till.GET("/cart", a.handleGetCart)
	till.POST("/cart/items", a.handleAddCartItem)
	till.PATCH("/cart/items/:productId", a.handleUpdateCartItem)
	till.DELETE("/cart/items/:productId", a.handleRemoveCartItem)
	till.DELETE("/cart", a.handleClearCart)
	till.GET("/suggestions", a.handleSuggestions)
	till.POST("/sales", a.handleFinalizeSale)
	till.GET("/sales/last", a.handleLastSale)
	till.GET("/sales/:id/receipt", a.handleReceipt)
	till.POST("/hardware/cash-drawer/open", a.handleCashDrawerOpen)

	reports := authed.Group("", requireArea(access.AreaReports))
	reports.GET("/sales", a.handleSalesHistory)
	reports.GET("/sales/:id", a.handleGetSale)
	reports.GET("/register/history", a.handleRegisterHistory)
	reports.GET("/reports/sessions", a.handleSessionReports)
	reports.GET("/reports/daily", a.handleDailySales)

	authed.PUT("/settings/theme", requireArea(access.AreaSettings), a.handleSetTheme)

	return r
}

func (a *API) corsMiddleware() gin.HandlerFunc {
	origin := strings.TrimSpace(a.allowedOrigin)
	if origin == "" {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if origin == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = strings.Split(origin, ",")
	}
	return cors.New(cfg)
}

func (a *API) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()
		a.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(startedAt))
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}

func limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}
		c.Next()
	}
}

// requireAuth accepts a bearer token only if it was issued for the login
// currently open. A new login or a logout invalidates older tokens, also
// when the same operator logs in again.
func (a *API) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			abortError(c, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}
		actor, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
		if err != nil {
			abortError(c, http.StatusUnauthorized, err)
			return
		}

		user, ok := a.service.CurrentUser()
		if !ok || !strings.EqualFold(user.Cod, actor.Cod) || actor.SessionID == "" || user.SessionID != actor.SessionID {
			abortError(c, http.StatusUnauthorized, errors.New("operator session ended"))
			return
		}
		c.Set(actorKey, user)
		c.Next()
	}
}

func requireArea(area access.Area) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !access.Allowed(currentOperator(c).RoleName, area) {
			abortError(c, http.StatusForbidden, errors.New("role not allowed"))
			return
		}
		c.Next()
	}
}

func currentOperator(c *gin.Context) domain.CurrentUser {
	v, _ := c.Get(actorKey)
	user, _ := v.(domain.CurrentUser)
	return user
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

// Allow records an attempt for key and reports whether it is within the
// limit for the sliding window.
func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[key][:0]
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPayment):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDuplicateCode),
		errors.Is(err, service.ErrEmployeeActive),
		errors.Is(err, service.ErrRoleInUse),
		errors.Is(err, service.ErrRegisterOpen),
		errors.Is(err, service.ErrRegisterClosed),
		errors.Is(err, service.ErrEmptyCart):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (a *API) writeServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.log.Errorw("request failed", "path", c.FullPath(), "error", err)
	}
	writeError(c, status, err)
}

func (a *API) writeBindError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeError(c, status, err)
}

// writeError hides the cause of 5xx responses.
func writeError(c *gin.Context, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func abortError(c *gin.Context, status int, err error) {
	writeError(c, status, err)
	c.Abort()
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
