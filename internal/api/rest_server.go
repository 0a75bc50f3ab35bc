// Package api административный REST API движка блоков.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/block-engine/internal/block"
	"github.com/annel0/block-engine/internal/eventbus"
	"github.com/annel0/block-engine/internal/logging"
	"github.com/annel0/block-engine/internal/middleware"
	"github.com/annel0/block-engine/internal/support"
	"github.com/annel0/block-engine/internal/vec"
	"github.com/annel0/block-engine/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	registry *block.Registry
	world    *world.Store
	bus      eventbus.EventBus
	http     *http.Server
	metrics  *ServerMetrics
	logger   *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     int
	Registry *block.Registry
	// World необязателен; без него проверка установки недоступна
	World *world.Store
	// Bus необязательна; без неё поток событий /api/events/ws недоступен
	Bus eventbus.EventBus
	// Registerer/Gatherer метрик, nil означает дефолтный регистр
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == 0 {
		config.Port = 8088
	}
	if config.Logger == nil {
		config.Logger = logging.GetComponentLogger("api")
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("block-api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("block_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:   router,
		registry: config.Registry,
		world:    config.World,
		bus:      config.Bus,
		metrics:  NewServerMetrics(),
		logger:   config.Logger,
	}
	rs.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes()
	return rs
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/blocks/id/:id", rs.handleBlockByID)
		api.GET("/blocks/uri", rs.handleBlockByURI)
		api.GET("/families", rs.handleFamilies)
		api.GET("/mapping", rs.handleMapping)
		api.POST("/placement/validate", rs.handleValidatePlacement)
		api.GET("/events/ws", rs.handleEventStream)
	}
}

// Handler http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler { return rs.router }

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.http.Addr)
	if err := rs.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop graceful shutdown
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.http.Shutdown(ctx)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"time":          time.Now().Unix(),
		"uptime":        rs.metrics.Uptime(),
		"authoritative": rs.registry.IsAuthoritative(),
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	data := gin.H{
		"registry": rs.registry.Stats(),
		"server":   rs.metrics.Snapshot(),
	}
	if rs.world != nil {
		data["world"] = rs.world.Stats()
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: data})
}

func (rs *RestServer) handleBlockByID(c *gin.Context) {
	raw, err := strconv.ParseUint(c.Param("id"), 10, 16)
	if err != nil {
		fail(c, http.StatusBadRequest, "id должен быть числом 0..65535")
		return
	}
	id := block.BlockID(raw)
	b := rs.registry.BlockByID(id)
	if id != block.AirID && b.IsAir() {
		fail(c, http.StatusNotFound, fmt.Sprintf("блок с id %d не зарегистрирован", id))
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: newBlockView(b)})
}

func (rs *RestServer) handleBlockByURI(c *gin.Context) {
	b, status, err := rs.resolve(c.Query("uri"))
	if err != nil {
		fail(c, status, err.Error())
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: newBlockView(b)})
}

func (rs *RestServer) handleFamilies(c *gin.Context) {
	families := rs.registry.Families()
	views := make([]familyView, 0, len(families))
	for _, f := range families {
		views = append(views, newFamilyView(f))
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: views})
}

func (rs *RestServer) handleMapping(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "ok", Data: rs.registry.Export()})
}

// PlacementRequest пакет блоков для проверки опоры
type PlacementRequest struct {
	Blocks []PlacementEntry `json:"blocks" binding:"required,min=1,dive"`
}

type PlacementEntry struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Z   int    `json:"z"`
	URI string `json:"uri" binding:"required"`
}

func (rs *RestServer) handleValidatePlacement(c *gin.Context) {
	if rs.world == nil {
		fail(c, http.StatusServiceUnavailable, "мир не подключен")
		return
	}
	var req PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	batch := make(support.Overrides, len(req.Blocks))
	for _, e := range req.Blocks {
		b, status, err := rs.resolve(e.URI)
		if err != nil {
			fail(c, status, err.Error())
			return
		}
		batch[vec.Vec3{X: e.X, Y: e.Y, Z: e.Z}] = b
	}

	err := rs.world.Controller().ValidatePlacement(batch)
	var perr *support.PlacementError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "установка допустима"})
	case errors.As(err, &perr):
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: err.Error(),
			Data: gin.H{
				"position": perr.Position,
				"rule":     perr.Rule,
				"block":    perr.Block,
			},
		})
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// resolve ищет блок по строковому URI и подбирает HTTP статус ошибки
func (rs *RestServer) resolve(name string) (*block.Block, int, error) {
	if name == "" {
		return nil, http.StatusBadRequest, errors.New("не указан uri")
	}
	b, err := rs.registry.BlockByName(name)
	switch {
	case err == nil:
		return b, http.StatusOK, nil
	case errors.Is(err, block.ErrInvalidURI):
		return nil, http.StatusBadRequest, err
	case errors.Is(err, block.ErrNotFound):
		return nil, http.StatusNotFound, err
	default:
		return nil, http.StatusInternalServerError, err
	}
}
