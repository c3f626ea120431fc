package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/printshop-manager/internal/app"
	"github.com/yukikurage/printshop-manager/internal/constants"
	"github.com/yukikurage/printshop-manager/internal/database"
	"github.com/yukikurage/printshop-manager/internal/dto"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/repository"
	"github.com/yukikurage/printshop-manager/internal/services"
	"github.com/yukikurage/printshop-manager/internal/session"
	"github.com/yukikurage/printshop-manager/internal/store"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "s3cret"

// BackofficeTestSuite runs the back-office API against a real sheet service
// served from an in-memory database.
type BackofficeTestSuite struct {
	suite.Suite
	db        *gorm.DB
	rows      *repository.Store
	backend   *httptest.Server
	workspace *app.Workspace
	router    *gin.Engine
}

// SetupTest runs before each test
func (suite *BackofficeTestSuite) SetupTest() {
	var err error
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(database.Migrate(suite.db, zap.NewNop()))
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.rows = repository.NewGormStore(suite.db)
	suite.Require().NoError(suite.rows.Users.Append(ctx, &models.User{ID: "user-1", Name: "manager", Role: models.RoleAdmin, Password: "pw"}))
	suite.Require().NoError(suite.rows.Users.Append(ctx, &models.User{ID: "user-2", Name: "staff", Role: models.RoleStaff, Password: "pw"}))

	svc := services.NewSheetService(suite.rows, testSecret, services.NewWriteLock(time.Second), zap.NewNop())
	backendRouter := gin.New()
	RegisterScriptRoutes(backendRouter, NewScriptHandler(svc, zap.NewNop()))
	suite.backend = httptest.NewServer(backendRouter)

	suite.workspace, err = app.New(ctx, kvstore.NewMemoryStore(), zap.NewNop(), app.Options{
		RequestTimeout:  5 * time.Second,
		PollInterval:    time.Hour,
		SampleDataDelay: time.Millisecond,
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.workspace.Settings.Save(ctx, suite.backend.URL+"/exec", testSecret))

	suite.router = gin.New()
	suite.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterBackofficeRoutes(suite.router, suite.workspace, nil, zap.NewNop())
}

// TearDownTest runs after each test
func (suite *BackofficeTestSuite) TearDownTest() {
	suite.workspace.Close()
	suite.backend.Close()
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *BackofficeTestSuite) do(method, path string, body any, c *http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c != nil {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *BackofficeTestSuite) login(username, password string) *http.Cookie {
	w := suite.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	suite.FailNow("no session cookie")
	return nil
}

func (suite *BackofficeTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func orderPayload() map[string]any {
	return map[string]any{
		"customerName":   "Kasun Perera",
		"contactNo":      "0771234567",
		"jobDescription": "500 business cards",
		"jobUrgency":     "High",
		"quantity":       500,
		"unitPrice":      12.5,
		"advanceAmount":  1000,
	}
}

func (suite *BackofficeTestSuite) TestLogin_InvalidCredentials() {
	w := suite.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "staff",
		"password": "wrong",
	}, nil)

	suite.Equal(http.StatusUnauthorized, w.Code)
	var resp apierrors.APIError
	suite.decode(w, &resp)
	suite.Equal(apierrors.ErrCodeInvalidCredentials, resp.Code)
}

func (suite *BackofficeTestSuite) TestLogin_MissingFields() {
	w := suite.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "staff"}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *BackofficeTestSuite) TestLoginMeLogout() {
	c := suite.login("staff", "pw")

	w := suite.do(http.MethodGet, "/api/auth/me", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var me dto.UserDTO
	suite.decode(w, &me)
	suite.Equal(dto.UserDTO{ID: "user-2", Name: "staff", Role: models.RoleStaff}, me)

	w = suite.do(http.MethodPost, "/api/auth/logout", nil, c)
	suite.Equal(http.StatusOK, w.Code)
	suite.False(suite.workspace.Session.IsLoggedIn())

	w = suite.do(http.MethodGet, "/api/auth/me", nil, c)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *BackofficeTestSuite) TestProtectedRoutesRequireSession() {
	for _, path := range []string{"/api/orders", "/api/tasks", "/api/dashboard", "/api/users", "/api/settings"} {
		w := suite.do(http.MethodGet, path, nil, nil)
		suite.Equal(http.StatusUnauthorized, w.Code, path)
	}
}

func (suite *BackofficeTestSuite) TestNewLoginInvalidatesOlderCookie() {
	first := suite.login("staff", "pw")
	suite.login("manager", "pw")

	w := suite.do(http.MethodGet, "/api/auth/me", nil, first)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *BackofficeTestSuite) TestOrderLifecycle() {
	c := suite.login("manager", "pw")

	w := suite.do(http.MethodGet, "/api/orders/draft", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var draft models.Order
	suite.decode(w, &draft)
	suite.Equal(1, draft.OrderNo)
	suite.Regexp(`^SDP-\d{4}$`, draft.OrderToken)

	w = suite.do(http.MethodPost, "/api/orders", orderPayload(), c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.OrderDTO
	suite.decode(w, &created)
	suite.NotEmpty(created.ID)
	suite.Equal(1, created.OrderNo)
	suite.Equal(6250.0, created.TotalAmount)
	suite.Equal(5250.0, created.BalanceDue)
	suite.Equal(models.OrderStatusPending, created.Status)
	suite.Equal("Unassigned", created.AssignedToName)

	w = suite.do(http.MethodGet, "/api/orders", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.OrderListResponse
	suite.decode(w, &list)
	suite.Equal(int64(1), list.Pagination.Total)

	w = suite.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", map[string]string{"status": "Completed"}, c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var completed dto.OrderDTO
	suite.decode(w, &completed)
	suite.Equal(models.OrderStatusCompleted, completed.Status)
	suite.NotNil(completed.CompletedAt)

	w = suite.do(http.MethodGet, "/api/orders", nil, c)
	suite.decode(w, &list)
	suite.Equal(int64(0), list.Pagination.Total)

	w = suite.do(http.MethodGet, "/api/orders?view=completed", nil, c)
	suite.decode(w, &list)
	suite.Equal(int64(1), list.Pagination.Total)

	w = suite.do(http.MethodGet, "/api/customers", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var customers dto.CustomerListResponse
	suite.decode(w, &customers)
	suite.Require().Len(customers.Customers, 1)
	suite.Equal("Kasun Perera", customers.Customers[0].Name)

	w = suite.do(http.MethodDelete, "/api/orders/"+created.ID, nil, c)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.do(http.MethodGet, "/api/orders/"+created.ID, nil, c)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *BackofficeTestSuite) TestOrder_StaffCannotComplete() {
	c := suite.login("staff", "pw")

	w := suite.do(http.MethodPost, "/api/orders", orderPayload(), c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.OrderDTO
	suite.decode(w, &created)

	w = suite.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", map[string]string{"status": "Completed"}, c)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPatch, "/api/orders/"+created.ID+"/status", map[string]string{"status": "Done"}, c)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *BackofficeTestSuite) TestOrder_ValidationAndMissing() {
	c := suite.login("manager", "pw")

	payload := orderPayload()
	delete(payload, "customerName")
	w := suite.do(http.MethodPost, "/api/orders", payload, c)
	suite.Equal(http.StatusBadRequest, w.Code)
	var apiErr apierrors.APIError
	suite.decode(w, &apiErr)
	suite.Equal(apierrors.ErrCodeInvalidInput, apiErr.Code)

	w = suite.do(http.MethodPut, "/api/orders/missing", orderPayload(), c)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodDelete, "/api/orders/missing", nil, c)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/orders?view=bogus", nil, c)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *BackofficeTestSuite) TestTasks() {
	c := suite.login("manager", "pw")

	due := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)
	w := suite.do(http.MethodPost, "/api/tasks", map[string]any{
		"description":      "Call supplier",
		"assignedToUserId": "user-2",
		"dueDate":          due,
		"priority":         "High",
	}, c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/tasks?open=true", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.TaskListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Tasks, 1)
	task := list.Tasks[0]
	suite.Equal("staff", task.AssignedToName)
	suite.Equal(models.TaskStatusOpen, task.Status)
	suite.False(task.Overdue)

	w = suite.do(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{
		"description":      "Call supplier",
		"assignedToUserId": "user-2",
		"dueDate":          due,
		"priority":         "High",
		"status":           "Done",
	}, c)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/tasks?open=true", nil, c)
	suite.decode(w, &list)
	suite.Empty(list.Tasks)

	w = suite.do(http.MethodPost, "/api/tasks", map[string]any{"description": "No due date"}, c)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/tasks/generate", map[string]string{"text": "print 100 flyers"}, c)
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *BackofficeTestSuite) TestDashboard() {
	c := suite.login("staff", "pw")

	w := suite.do(http.MethodPost, "/api/orders", func() map[string]any {
		p := orderPayload()
		p["assignedToUserId"] = "user-2"
		return p
	}(), c)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.do(http.MethodGet, "/api/dashboard", nil, c)
	suite.Require().Equal(http.StatusOK, w.Code)
	var dash dto.DashboardDTO
	suite.decode(w, &dash)
	suite.Equal(1, dash.PendingOrders)
	suite.Len(dash.MyPendingOrders, 1)
	suite.Zero(dash.TotalRevenue)
	suite.NotNil(dash.UsersLastUpdated)
}

func (suite *BackofficeTestSuite) TestUsers_AdminOnly() {
	staff := suite.login("staff", "pw")
	w := suite.do(http.MethodGet, "/api/users", nil, staff)
	suite.Equal(http.StatusForbidden, w.Code)

	admin := suite.login("manager", "pw")
	w = suite.do(http.MethodPost, "/api/users", map[string]string{"name": "printer", "role": "Staff"}, admin)
	suite.Equal(http.StatusBadRequest, w.Code, "password is required for new users")

	w = suite.do(http.MethodPost, "/api/users", map[string]string{"name": "printer", "role": "Staff", "password": "pw"}, admin)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.UserDTO
	suite.decode(w, &created)
	suite.NotEmpty(created.ID)

	w = suite.do(http.MethodGet, "/api/users", nil, admin)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp struct {
		Users []dto.UserDTO `json:"users"`
	}
	suite.decode(w, &resp)
	suite.Require().Len(resp.Users, 4)
	suite.Equal(constants.SuperUserID, resp.Users[0].ID)
	suite.True(resp.Users[0].IsSuperAdmin)
	suite.NotContains(w.Body.String(), "password")

	w = suite.do(http.MethodPut, "/api/users/"+created.ID, map[string]string{"name": "printer", "role": "Admin"}, admin)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	stored, ok := suite.workspace.Store.UserByID(created.ID)
	suite.Require().True(ok)
	suite.Equal(models.RoleAdmin, stored.Role)
	suite.Equal("pw", stored.Password)

	w = suite.do(http.MethodDelete, "/api/users/"+constants.SuperUserID, nil, admin)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodDelete, "/api/users/"+created.ID, nil, admin)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *BackofficeTestSuite) TestSettings_SuperAdminOnly() {
	admin := suite.login("manager", "pw")
	w := suite.do(http.MethodGet, "/api/settings", nil, admin)
	suite.Equal(http.StatusForbidden, w.Code)

	super := suite.login(constants.SuperUserLogin, constants.SuperUserPassword)
	w = suite.do(http.MethodGet, "/api/settings", nil, super)
	suite.Require().Equal(http.StatusOK, w.Code)
	var got dto.SettingsDTO
	suite.decode(w, &got)
	suite.Equal(suite.backend.URL+"/exec", got.ScriptURL)
	suite.Equal(testSecret, got.SecurityToken)
	suite.True(got.Configured)

	w = suite.do(http.MethodPut, "/api/settings", map[string]string{"scriptUrl": suite.backend.URL}, super)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/settings", map[string]string{
		"scriptUrl":     suite.backend.URL + "/",
		"securityToken": testSecret,
	}, super)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal(suite.backend.URL+"/", suite.workspace.Settings.Get().Endpoint)
}

func (suite *BackofficeTestSuite) TestForcedLogoutWhenAccountRemoved() {
	c := suite.login("staff", "pw")
	ctx := context.Background()

	suite.Require().NoError(suite.rows.Users.Delete(ctx, "user-2"))
	suite.Require().NoError(suite.workspace.Store.LoadUsers(ctx, store.Silent))

	w := suite.do(http.MethodGet, "/api/auth/me", nil, c)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Contains(w.Body.String(), session.ForcedLogoutMessage)
}

// TestBackofficeTestSuite runs the test suite
func TestBackofficeTestSuite(t *testing.T) {
	suite.Run(t, new(BackofficeTestSuite))
}
