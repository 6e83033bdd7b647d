package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/storage"
	"github.com/langchou/fleetdesk/pkg/ws"
)

// UserStore 用户数据访问
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role, search string, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context, role, search string) (int64, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role string) (int64, error)
	FindByVehicle(ctx context.Context, vehicleID, excludeUserID int64) (*models.User, error)
	AssignVehicle(ctx context.Context, userID, vehicleID int64) error
}

// TokenStore 访问令牌数据访问
type TokenStore interface {
	Create(ctx context.Context, id string, userID int64, expiresAt time.Time) error
	Exists(ctx context.Context, id string, userID int64) (bool, error)
	Delete(ctx context.Context, id string) error
}

// VehicleStore 车辆数据访问
type VehicleStore interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)
	List(ctx context.Context, status, search string, limit, offset int) ([]*models.Vehicle, error)
	Count(ctx context.Context, status, search string) (int64, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Archive(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}

// DocumentStore 车辆证件数据访问
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.Document, error)
	CountByVehicle(ctx context.Context, vehicleID int64) (int64, error)
	AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Document, error)
	ExpiringSoon(ctx context.Context, vehicleID int64, days int) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id int64) error
}

// MaintenanceStore 维保记录数据访问
type MaintenanceStore interface {
	Create(ctx context.Context, m *models.Maintenance) error
	GetByID(ctx context.Context, id int64) (*models.Maintenance, error)
	ListByVehicle(ctx context.Context, vehicleID int64, limit, offset int) ([]*models.Maintenance, error)
	CountByVehicle(ctx context.Context, vehicleID int64) (int64, error)
	AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Maintenance, error)
	Upcoming(ctx context.Context, vehicleID int64, days int) ([]*models.Maintenance, error)
	Update(ctx context.Context, m *models.Maintenance) error
	Delete(ctx context.Context, id int64) error
}

// ExchangeStore 交接单数据访问
type ExchangeStore interface {
	Create(ctx context.Context, e *models.Exchange) error
	GetByID(ctx context.Context, id int64) (*models.Exchange, error)
	List(ctx context.Context, status string, partyID int64, limit, offset int) ([]*models.Exchange, error)
	Count(ctx context.Context, status string, partyID int64) (int64, error)
	AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Exchange, error)
	AllByDriver(ctx context.Context, driverID int64, initiated bool) ([]*models.Exchange, error)
	Update(ctx context.Context, e *models.Exchange) error
	Decide(ctx context.Context, id int64, to string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// Handler HTTP 处理器
type Handler struct {
	logger       *zap.Logger
	users        UserStore
	tokens       TokenStore
	vehicles     VehicleStore
	documents    DocumentStore
	maintenances MaintenanceStore
	exchanges    ExchangeStore
	store        storage.Store
	wsHub        *ws.Hub
	jwtSecret    string
	tokenTTL     time.Duration
	upgrader     websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	users UserStore,
	tokens TokenStore,
	vehicles VehicleStore,
	documents DocumentStore,
	maintenances MaintenanceStore,
	exchanges ExchangeStore,
	store storage.Store,
	wsHub *ws.Hub,
	jwtSecret string,
	tokenTTL time.Duration,
) *Handler {
	return &Handler{
		logger:       logger,
		users:        users,
		tokens:       tokens,
		vehicles:     vehicles,
		documents:    documents,
		maintenances: maintenances,
		exchanges:    exchanges,
		store:        store,
		wsHub:        wsHub,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// pageParam 解析分页页码
func pageParam(c *gin.Context) int {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	return page
}

// idParam 解析路径中的数字 ID
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
