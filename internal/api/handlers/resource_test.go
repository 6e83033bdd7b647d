package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetdesk/internal/models"
	"github.com/langchou/fleetdesk/internal/state"
	"github.com/langchou/fleetdesk/pkg/ws"
)

var errStoreNotFound = errors.New("not found")

// fakeUserStore 内存用户存储，只实现被测路径用到的方法
type fakeUserStore struct {
	UserStore
	byID       map[int64]*models.User
	adminCount int64
	holder     *models.User
	deleted    []int64
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errStoreNotFound
	}
	return u, nil
}

func (f *fakeUserStore) CountByRole(ctx context.Context, role string) (int64, error) {
	return f.adminCount, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserStore) FindByVehicle(ctx context.Context, vehicleID, excludeUserID int64) (*models.User, error) {
	if f.holder != nil {
		return f.holder, nil
	}
	return nil, errStoreNotFound
}

func (f *fakeUserStore) AssignVehicle(ctx context.Context, userID, vehicleID int64) error {
	return nil
}

type fakeVehicleStore struct {
	VehicleStore
	byID map[int64]*models.Vehicle
}

func (f *fakeVehicleStore) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, errStoreNotFound
	}
	return v, nil
}

func (f *fakeVehicleStore) Create(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.ID = int64(len(f.byID) + 1)
	if f.byID == nil {
		f.byID = make(map[int64]*models.Vehicle)
	}
	f.byID[vehicle.ID] = vehicle
	return nil
}

type fakeDocumentStore struct {
	DocumentStore
	byID map[int64]*models.Document
}

func (f *fakeDocumentStore) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, errStoreNotFound
	}
	return d, nil
}

func (f *fakeDocumentStore) AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Document, error) {
	return nil, nil
}

type fakeMaintenanceStore struct {
	MaintenanceStore
	byID map[int64]*models.Maintenance
}

func (f *fakeMaintenanceStore) GetByID(ctx context.Context, id int64) (*models.Maintenance, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, errStoreNotFound
	}
	return m, nil
}

func (f *fakeMaintenanceStore) AllByVehicle(ctx context.Context, vehicleID int64) ([]*models.Maintenance, error) {
	return nil, nil
}

type fakeExchangeStore struct {
	ExchangeStore
	byID    map[int64]*models.Exchange
	updated *models.Exchange
}

func (f *fakeExchangeStore) GetByID(ctx context.Context, id int64) (*models.Exchange, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, errStoreNotFound
	}
	return e, nil
}

func (f *fakeExchangeStore) Update(ctx context.Context, e *models.Exchange) error {
	f.updated = e
	return nil
}

func (f *fakeExchangeStore) Decide(ctx context.Context, id int64, to string) (bool, error) {
	e, ok := f.byID[id]
	if !ok || e.Status != state.StatusPending {
		return false, nil
	}
	e.Status = to
	return true, nil
}

func newTestHandler(users UserStore, vehicles VehicleStore, documents DocumentStore, maintenances MaintenanceStore, exchanges ExchangeStore) *Handler {
	return NewHandler(zap.NewNop(), users, nil, vehicles, documents, maintenances, exchanges, nil, ws.NewHub(zap.NewNop()), "test-secret", time.Hour)
}

// authedContext 构造已认证的测试上下文
func authedContext(t *testing.T, method, url string, body []byte, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Set(ctxUserKey, user)
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	return body
}

func bodyMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var msg string
	if raw, ok := decodeBody(t, w)["message"]; ok {
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal message: %v", err)
		}
	}
	return msg
}

func TestDestroyUserKeepsLastAdmin(t *testing.T) {
	admin := &models.User{ID: 1, Name: "Admin", Role: models.RoleAdmin}
	users := &fakeUserStore{byID: map[int64]*models.User{1: admin}, adminCount: 1}
	h := newTestHandler(users, &fakeVehicleStore{}, &fakeDocumentStore{}, &fakeMaintenanceStore{}, &fakeExchangeStore{})

	c, w := authedContext(t, http.MethodDelete, "/users/1", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.DestroyUser(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for last admin, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Cannot delete the last admin user" {
		t.Fatalf("unexpected message: %s", msg)
	}
	if len(users.deleted) != 0 {
		t.Fatalf("last admin must not be deleted, got %v", users.deleted)
	}

	// 还有其他管理员时允许删除
	users.adminCount = 2
	c, w = authedContext(t, http.MethodDelete, "/users/1", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.DestroyUser(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with a second admin, got %d", w.Code)
	}
	if len(users.deleted) != 1 || users.deleted[0] != 1 {
		t.Fatalf("expected user 1 deleted, got %v", users.deleted)
	}
}

func TestShowDocumentRejectsWrongVehicle(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	vehicles := &fakeVehicleStore{byID: map[int64]*models.Vehicle{1: {ID: 1}}}
	// 证件属于另一辆车
	documents := &fakeDocumentStore{byID: map[int64]*models.Document{5: {ID: 5, VehicleID: 2}}}
	h := newTestHandler(&fakeUserStore{}, vehicles, documents, &fakeMaintenanceStore{}, &fakeExchangeStore{})

	c, w := authedContext(t, http.MethodGet, "/vehicles/1/documents/5", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "documentId", Value: "5"}}
	h.ShowDocument(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-vehicle document, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Document not found" {
		t.Fatalf("unexpected message: %s", msg)
	}

	// 归属正确时返回 document 信封
	documents.byID[5].VehicleID = 1
	c, w = authedContext(t, http.MethodGet, "/vehicles/1/documents/5", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "documentId", Value: "5"}}
	h.ShowDocument(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := decodeBody(t, w)["document"]; !ok {
		t.Fatalf("expected document key in body: %s", w.Body.String())
	}
}

func TestShowMaintenanceRejectsWrongVehicle(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	vehicles := &fakeVehicleStore{byID: map[int64]*models.Vehicle{1: {ID: 1}}}
	maintenances := &fakeMaintenanceStore{byID: map[int64]*models.Maintenance{8: {ID: 8, VehicleID: 3}}}
	h := newTestHandler(&fakeUserStore{}, vehicles, &fakeDocumentStore{}, maintenances, &fakeExchangeStore{})

	c, w := authedContext(t, http.MethodGet, "/vehicles/1/maintenances/8", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "1"}, {Key: "maintenanceId", Value: "8"}}
	h.ShowMaintenance(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-vehicle maintenance, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Maintenance record not found" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestAssignVehicleConflictNamesHolder(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	target := &models.User{ID: 2, Name: "Marie Martin", Role: models.RoleChauffeur}
	holder := &models.User{ID: 3, Name: "Jean Dupont", Role: models.RoleChauffeur}
	users := &fakeUserStore{byID: map[int64]*models.User{2: target}, holder: holder}
	vehicles := &fakeVehicleStore{byID: map[int64]*models.Vehicle{3: {ID: 3}}}
	h := newTestHandler(users, vehicles, &fakeDocumentStore{}, &fakeMaintenanceStore{}, &fakeExchangeStore{})

	c, w := authedContext(t, http.MethodPost, "/users/2/assign-vehicle", []byte(`{"vehicle_id":3}`), admin)
	c.Params = gin.Params{{Key: "id", Value: "2"}}
	h.AssignVehicle(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for already assigned vehicle, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if msg := bodyMessage(t, w); msg != "Vehicle is already assigned to another user" {
		t.Fatalf("unexpected message: %s", msg)
	}
	var assignedTo string
	if err := json.Unmarshal(body["assigned_to"], &assignedTo); err != nil {
		t.Fatalf("unmarshal assigned_to: %v", err)
	}
	if assignedTo != "Jean Dupont" {
		t.Fatalf("expected holder name in assigned_to, got %s", assignedTo)
	}
}

func TestUpdateExchangeClearsNoteWhenOmitted(t *testing.T) {
	driver := &models.User{ID: 7, Role: models.RoleChauffeur}
	note := "ras"
	exchanges := &fakeExchangeStore{byID: map[int64]*models.Exchange{
		4: {ID: 4, FromDriverID: 7, ToDriverID: 8, VehicleID: 1, Status: state.StatusPending, Note: &note},
	}}
	h := newTestHandler(&fakeUserStore{}, &fakeVehicleStore{}, &fakeDocumentStore{}, &fakeMaintenanceStore{}, exchanges)

	c, w := authedContext(t, http.MethodPut, "/exchanges/4", nil, driver)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.UpdateExchange(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if exchanges.updated == nil {
		t.Fatalf("expected exchange update to be persisted")
	}
	if exchanges.updated.Note != nil {
		t.Fatalf("expected note cleared when omitted, got %q", *exchanges.updated.Note)
	}
	if msg := bodyMessage(t, w); msg != "Exchange updated successfully" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestApproveExchangePermissions(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	driver := &models.User{ID: 7, Role: models.RoleChauffeur}
	exchanges := &fakeExchangeStore{byID: map[int64]*models.Exchange{
		4: {ID: 4, FromDriverID: 7, ToDriverID: 8, VehicleID: 1, Status: state.StatusPending},
	}}
	h := newTestHandler(&fakeUserStore{}, &fakeVehicleStore{}, &fakeDocumentStore{}, &fakeMaintenanceStore{}, exchanges)

	// 非管理员不能审批
	c, w := authedContext(t, http.MethodPost, "/exchanges/4/approve", nil, driver)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.ApproveExchange(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for chauffeur, got %d", w.Code)
	}

	// 管理员审批待审批的交接单
	c, w = authedContext(t, http.MethodPost, "/exchanges/4/approve", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.ApproveExchange(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
	if msg := bodyMessage(t, w); msg != "Exchange approved successfully" {
		t.Fatalf("unexpected message: %s", msg)
	}
	if exchanges.byID[4].Status != state.StatusApproved {
		t.Fatalf("expected status approved, got %s", exchanges.byID[4].Status)
	}

	// 已审批的交接单不可再审批
	c, w = authedContext(t, http.MethodPost, "/exchanges/4/approve", nil, admin)
	c.Params = gin.Params{{Key: "id", Value: "4"}}
	h.ApproveExchange(c)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for decided exchange, got %d", w.Code)
	}
	if msg := bodyMessage(t, w); msg != "Exchange is not pending" {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestStoreVehicleEnvelope(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	vehicles := &fakeVehicleStore{}
	h := newTestHandler(&fakeUserStore{}, vehicles, &fakeDocumentStore{}, &fakeMaintenanceStore{}, &fakeExchangeStore{})

	payload := []byte(`{"registration_number":"AB-123-CD","model":"Mercedes-Benz Classe E","year":2022}`)
	c, w := authedContext(t, http.MethodPost, "/vehicles", payload, admin)
	h.StoreVehicle(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if msg := bodyMessage(t, w); msg != "Vehicle created successfully" {
		t.Fatalf("unexpected message: %s", msg)
	}
	var vehicle models.Vehicle
	if err := json.Unmarshal(body["vehicle"], &vehicle); err != nil {
		t.Fatalf("unmarshal vehicle: %v", err)
	}
	if vehicle.RegistrationNumber != "AB-123-CD" || vehicle.Status != models.VehicleActive {
		t.Fatalf("unexpected vehicle payload: %+v", vehicle)
	}
}
