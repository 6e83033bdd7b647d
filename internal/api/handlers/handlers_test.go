package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T, url string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	c.Request = req
	return c, w
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Name":                 "name",
		"Email":                "email",
		"ToDriverID":           "to_driver_id",
		"VehicleID":            "vehicle_id",
		"PasswordConfirmation": "password_confirmation",
		"RegistrationNumber":   "registration_number",
	}
	for in, want := range cases {
		if got := snakeCase(in); got != want {
			t.Fatalf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPageParam(t *testing.T) {
	c, _ := testContext(t, "/vehicles?page=3")
	if got := pageParam(c); got != 3 {
		t.Fatalf("expected page 3, got %d", got)
	}

	c, _ = testContext(t, "/vehicles")
	if got := pageParam(c); got != 1 {
		t.Fatalf("expected default page 1, got %d", got)
	}

	// 非法页码回落到第一页
	c, _ = testContext(t, "/vehicles?page=-2")
	if got := pageParam(c); got != 1 {
		t.Fatalf("expected page 1 for negative input, got %d", got)
	}
	c, _ = testContext(t, "/vehicles?page=abc")
	if got := pageParam(c); got != 1 {
		t.Fatalf("expected page 1 for garbage input, got %d", got)
	}
}

func TestDaysParam(t *testing.T) {
	c, _ := testContext(t, "/documents/expiring")
	days, ok := daysParam(c, 30, 365)
	if !ok || days != 30 {
		t.Fatalf("expected default 30, got %d ok=%v", days, ok)
	}

	c, _ = testContext(t, "/documents/expiring?days=90")
	days, ok = daysParam(c, 30, 365)
	if !ok || days != 90 {
		t.Fatalf("expected 90, got %d ok=%v", days, ok)
	}

	c, w := testContext(t, "/documents/expiring?days=400")
	if _, ok := daysParam(c, 30, 365); ok {
		t.Fatalf("expected out-of-range days rejected")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	c, _ = testContext(t, "/documents/expiring?days=0")
	if _, ok := daysParam(c, 30, 365); ok {
		t.Fatalf("expected zero days rejected")
	}
}

func TestRespondValidationShape(t *testing.T) {
	c, w := testContext(t, "/register")
	fieldError(c, "email", "The email has already been taken.")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Message != "The given data was invalid." {
		t.Fatalf("unexpected message: %s", body.Message)
	}
	if len(body.Errors["email"]) != 1 || body.Errors["email"][0] != "The email has already been taken." {
		t.Fatalf("unexpected errors: %v", body.Errors)
	}
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.GET("/admin-only", RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// 未设置用户时直接拒绝
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin-only", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without user, got %d", w.Code)
	}
}
