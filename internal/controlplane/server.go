package controlplane

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/models"
)

// Version is reported by /health.
var Version = "dev"

// Server provides the HTTP API.
type Server struct {
	service *Service
	metrics http.Handler
	addr    string
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server. metrics may be nil.
func NewServer(service *Service, metrics http.Handler, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{service: service, metrics: metrics, addr: addr}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger.GetDefault()))
	s.routes(r)
	s.router = r
	return s
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/task-types", s.handleTaskTypes)

	r.GET("/statuses/:status/tasks", s.getTaskList)
	r.PUT("/statuses/:status/tasks", s.putTaskList)

	r.GET("/orders", s.listOrders)
	r.POST("/orders", s.createOrder)
	r.GET("/orders/:id", s.getOrder)
	r.POST("/orders/:id/status", s.setOrderStatus)
	r.GET("/orders/:id/audit", s.getOrderAudit)

	r.GET("/log", s.getLog)
	r.GET("/categories", s.getCategories)
	r.POST("/categories", s.addCategory)
	r.GET("/users", s.getUsers)
	r.POST("/users", s.addUser)
	r.GET("/shipping-methods", s.getShippingMethods)
	r.GET("/posts", s.getPosts)
	r.GET("/mail", s.getMail)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.GetDefault().Info("Starting ordertasks daemon", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))
		c.Next()
		log.Debug("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, fmt.Errorf("%w: order id must be a positive integer", ErrInvalidInput))
		return 0, false
	}
	return id, true
}

// --- Health ---

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{OK: true, DB: "ok", Version: Version, Time: time.Now().UTC().Format(time.RFC3339)}
	code := http.StatusOK
	if err := s.service.Ping(c.Request.Context()); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	s.metrics.ServeHTTP(c.Writer, c.Request)
}

// --- Task lists ---

func (s *Server) handleTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.TaskTypes())
}

func (s *Server) getTaskList(c *gin.Context) {
	display := c.Query("view") == "display"
	list, err := s.service.TaskList(c.Request.Context(), c.Param("status"), display)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) putTaskList(c *gin.Context) {
	var list []models.TaskDescriptor
	if err := c.ShouldBindJSON(&list); err != nil {
		fail(c, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	saved, err := s.service.SaveTaskList(c.Request.Context(), c.Param("status"), list)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// --- Orders ---

func (s *Server) listOrders(c *gin.Context) {
	list, err := s.service.ListOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		fail(c, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	created, err := s.service.CreateOrder(c.Request.Context(), &order)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := s.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// setOrderStatus answers 200 with the transition even when tasks failed;
// failures are listed in the report.
func (s *Server) setOrderStatus(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	tr, err := s.service.SetOrderStatus(c.Request.Context(), id, req.Status)
	if tr == nil {
		fail(c, err)
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("Tasks failed", "order_id", id, "error", err)
	}
	c.JSON(http.StatusOK, tr)
}

func (s *Server) getOrderAudit(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	entries, err := s.service.OrderAudit(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if entries == nil {
		entries = []models.PDREntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// --- Settings ---

func (s *Server) getLog(c *gin.Context) {
	content, err := s.service.ReadLog(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, content)
}

func (s *Server) getCategories(c *gin.Context) {
	list, err := s.service.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getUsers(c *gin.Context) {
	list, err := s.service.Users(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) addCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	category, err := s.service.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

type userRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
}

func (s *Server) addUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}
	user, err := s.service.AddUser(c.Request.Context(), req.DisplayName, req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) getShippingMethods(c *gin.Context) {
	methods := s.service.ShippingMethods()
	if methods == nil {
		methods = []models.ShippingMethod{}
	}
	c.JSON(http.StatusOK, methods)
}

func (s *Server) getPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := s.service.Posts(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []models.Post{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getMail(c *gin.Context) {
	list, err := s.service.Outbox(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []models.MailMessage{}
	}
	c.JSON(http.StatusOK, list)
}
