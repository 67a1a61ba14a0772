package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-world/internal/app"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/middleware"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Version - версия сервера, отдаётся в /api/server
const Version = "v0.1.0"

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	session *app.Session
	port    string
	metrics *ServerMetrics
	logger  *logging.Logger
	httpSrv *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string                // порт для запуска сервера
	Session    *app.Session          // сессия мира
	Registerer prometheus.Registerer // куда регистрировать HTTP метрики (nil - не регистрировать)
	Gatherer   prometheus.Gatherer   // источник для /metrics (nil - DefaultGatherer)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("rest_api"))

	logger := logging.GetAPILogger()
	loggerMw := middleware.NewRequestLogger(logger)
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:  router,
		session: config.Session,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  logger,
	}
	server.httpSrv = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Настраиваем маршруты
	server.setupRoutes()

	return server
}

// Handler возвращает http.Handler сервера (удобно для httptest)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/server", rs.handleServerInfo)
		api.GET("/chunks", rs.handleChunks)
		api.GET("/block-types", rs.handleBlockTypes)

		api.GET("/observer", rs.handleGetObserver)
		api.POST("/observer", rs.handleMoveObserver)

		worldGroup := api.Group("/world")
		worldGroup.GET("/params", rs.handleGetParams)
		worldGroup.PUT("/params", rs.handleSetParams)
		worldGroup.POST("/generate", rs.handleGenerate)
		worldGroup.POST("/save", rs.handleSave)
		worldGroup.POST("/load", rs.handleLoad)

		api.GET("/blocks", rs.handleGetBlock)
		api.PUT("/blocks", rs.handlePutBlock)
		api.DELETE("/blocks", rs.handleDeleteBlock)
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockRequest - тело PUT /api/blocks. Block принимает имя ("stone") или числовой ID.
type BlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block" binding:"required"`
}

// BlockResponse описывает клетку мира
type BlockResponse struct {
	Pos      vec.Vec3      `json:"pos"`
	ID       block.BlockID `json:"id"`
	Name     string        `json:"name"`
	Instance int           `json:"instance"`
}

// statusForError переводит ошибку мира в HTTP статус
func statusForError(err error) int {
	switch {
	case errors.Is(err, world.ErrInvalidParams),
		errors.Is(err, world.ErrInvalidBlock),
		errors.Is(err, world.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, world.ErrChunkNotLoaded):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, world.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *RestServer) fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{
		Success: false,
		Message: message,
	})
}

func (rs *RestServer) failErr(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error("Ошибка обработки %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	rs.fail(c, status, err.Error())
}

// parseBlockCoords читает x, y, z из query
func parseBlockCoords(c *gin.Context) (int, int, int, error) {
	var out [3]int
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(name))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("неверная координата %s: %q", name, c.Query(name))
		}
		out[i] = v
	}
	return out[0], out[1], out[2], nil
}

// parseBlockID принимает имя блока или его числовой ID
func parseBlockID(s string) (block.BlockID, bool) {
	if id, ok := block.ByName(s); ok {
		return id, true
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return block.Empty, false
	}
	return block.BlockID(n), true
}

// handleStats возвращает статистику мира и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: map[string]interface{}{
			"world":       rs.session.Stats(),
			"process":     rs.metrics.Snapshot(),
			"ticks":       rs.session.Ticks(),
			"server_time": time.Now().Unix(),
		},
	})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data: map[string]interface{}{
			"version": Version,
			"name":    "Voxel World Server",
			"status":  "running",
			"uptime":  rs.metrics.GetUptime(),
		},
	})
}

// handleChunks перечисляет загруженные и ожидающие чанки
func (rs *RestServer) handleChunks(c *gin.Context) {
	chunks := rs.session.Chunks()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанки получены",
		Data: map[string]interface{}{
			"chunks": chunks,
			"total":  len(chunks),
		},
	})
}

// handleBlockTypes возвращает регистр блоков
func (rs *RestServer) handleBlockTypes(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Типы блоков",
		Data:    block.All(),
	})
}

func (rs *RestServer) handleGetObserver(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Позиция наблюдателя",
		Data:    rs.session.Observer(),
	})
}

// ObserverRequest - тело POST /api/observer.
// Mode: "fly" (по умолчанию) без столкновений, "walk" с проверкой столкновений,
// "ground" ставит наблюдателя на поверхность колонки (Y игнорируется).
type ObserverRequest struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Mode string  `json:"mode"`
}

// handleMoveObserver перемещает наблюдателя и возвращает изменения набора чанков
func (rs *RestServer) handleMoveObserver(c *gin.Context) {
	var req ObserverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	pos := vec.Vec3Float{X: req.X, Y: req.Y, Z: req.Z}
	if !pos.IsFinite() {
		rs.fail(c, http.StatusBadRequest, "Координаты наблюдателя должны быть конечными")
		return
	}

	var diff world.StreamDiff
	switch req.Mode {
	case "", "fly":
		diff = rs.session.MoveObserver(pos)
	case "walk":
		var err error
		if diff, err = rs.session.WalkObserver(pos); err != nil {
			rs.fail(c, http.StatusConflict, err.Error())
			return
		}
	case "ground":
		pos, diff = rs.session.DropObserver(pos.X, pos.Z)
	default:
		rs.fail(c, http.StatusBadRequest, fmt.Sprintf("Неизвестный режим %q", req.Mode))
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Наблюдатель перемещён",
		Data: map[string]interface{}{
			"observer": pos,
			"added":    diff.Added,
			"removed":  diff.Removed,
			"stats":    rs.session.Stats(),
		},
	})
}

func (rs *RestServer) handleGetParams(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Параметры мира",
		Data:    rs.session.Params(),
	})
}

// handleSetParams применяет параметры целиком; отсутствующие поля берутся из текущих
func (rs *RestServer) handleSetParams(c *gin.Context) {
	params := rs.session.Params()
	if err := c.ShouldBindJSON(&params); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	if err := rs.session.SetParams(params); err != nil {
		rs.failErr(c, err)
		return
	}

	rs.logger.Info("⚙️ Параметры мира обновлены через API: seed=%d", params.Seed)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Параметры применены",
		Data:    rs.session.Stats(),
	})
}

func (rs *RestServer) handleGenerate(c *gin.Context) {
	stats := rs.session.Generate()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир сгенерирован",
		Data:    stats,
	})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	if err := rs.session.Save(c.Request.Context()); err != nil {
		rs.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир сохранён",
		Data:    rs.session.Stats(),
	})
}

func (rs *RestServer) handleLoad(c *gin.Context) {
	if err := rs.session.Load(c.Request.Context()); err != nil {
		rs.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир загружен",
		Data:    rs.session.Stats(),
	})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	x, y, z, err := parseBlockCoords(c)
	if err != nil {
		rs.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b, ok := rs.session.GetBlock(x, y, z)
	if !ok {
		rs.fail(c, http.StatusNotFound, "Клетка вне загруженных чанков")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок получен",
		Data: BlockResponse{
			Pos:      vec.Vec3{X: x, Y: y, Z: z},
			ID:       b.ID,
			Name:     b.ID.String(),
			Instance: b.Slot,
		},
	})
}

func (rs *RestServer) handlePutBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
		return
	}
	id, ok := parseBlockID(req.Block)
	if !ok {
		rs.fail(c, http.StatusBadRequest, fmt.Sprintf("Неизвестный блок %q", req.Block))
		return
	}

	if err := rs.session.AddBlock(req.X, req.Y, req.Z, id); err != nil {
		rs.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок установлен",
	})
}

func (rs *RestServer) handleDeleteBlock(c *gin.Context) {
	x, y, z, err := parseBlockCoords(c)
	if err != nil {
		rs.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := rs.session.RemoveBlock(x, y, z); err != nil {
		rs.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок удалён",
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop останавливает REST сервер, дожидаясь активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpSrv.Shutdown(ctx)
}
