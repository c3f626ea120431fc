package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/printshop-manager/internal/database"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"github.com/yukikurage/printshop-manager/internal/repository"
	"github.com/yukikurage/printshop-manager/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const secret = "s3cret"

// newBackend serves the sheet service from an in-memory database.
func newBackend(t *testing.T) (*httptest.Server, *repository.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	rows := repository.NewGormStore(db)
	svc := services.NewSheetService(rows, secret, services.NewWriteLock(time.Second), zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req protocol.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(svc.Handle(r.Context(), req))
	}))
	t.Cleanup(srv.Close)
	return srv, rows
}

func newWorkspace(t *testing.T, url, token string) *Workspace {
	t.Helper()
	ctx := context.Background()

	w, err := New(ctx, kvstore.NewMemoryStore(), zap.NewNop(), Options{
		RequestTimeout: 5 * time.Second,
		PollInterval:   20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, w.Settings.Save(ctx, url, token))
	t.Cleanup(w.Close)
	return w
}

func orderInput() models.Order {
	return models.Order{
		CustomerName:   "Kasun Perera",
		ContactNo:      "0771234567",
		JobDescription: "500 business cards",
		JobUrgency:     models.JobUrgencyHigh,
		Quantity:       500,
		UnitPrice:      12.5,
		AdvanceAmount:  1000,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
	}
}

func loginAdmin(t *testing.T, w *Workspace) {
	t.Helper()
	_, err := w.Session.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
}

func TestWorkspace_AddOrderRoundTrip(t *testing.T) {
	srv, _ := newBackend(t)
	w := newWorkspace(t, srv.URL, secret)
	ctx := context.Background()

	draft, err := w.NewOrderDraft()
	require.NoError(t, err)
	assert.Equal(t, 1, draft.OrderNo)

	input := orderInput()
	input.OrderNo = draft.OrderNo
	input.OrderToken = draft.OrderToken
	require.NoError(t, w.SaveOrder(ctx, input))
	require.NoError(t, w.Store.LoadOrders(ctx))

	orders := w.Store.Orders()
	require.Len(t, orders, 1)
	got := orders[0]
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	input.TotalAmount = 6250
	got.ID, got.CreatedAt = "", time.Time{}
	assert.Equal(t, input, got)

	next, err := w.NewOrderDraft()
	require.NoError(t, err)
	assert.Equal(t, 2, next.OrderNo)
}

func TestWorkspace_StaffCannotCompleteOrder(t *testing.T) {
	srv, _ := newBackend(t)
	w := newWorkspace(t, srv.URL, secret)
	ctx := context.Background()
	loginAdmin(t, w)

	require.NoError(t, w.SaveUser(ctx, models.User{Name: "Kamala", Role: models.RoleStaff, Password: "pw"}))
	require.NoError(t, w.SaveOrder(ctx, orderInput()))
	w.Session.Logout(ctx)

	_, err := w.Session.Login(ctx, "kamala", "pw")
	require.NoError(t, err)
	id := w.Store.Orders()[0].ID

	_, err = w.ChangeOrderStatus(ctx, id, models.OrderStatusCompleted)

	assert.ErrorIs(t, err, apierrors.ErrForbidden)
	order, ok := w.Store.OrderByID(id)
	require.True(t, ok)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.CompletedAt)

	updated, err := w.ChangeOrderStatus(ctx, id, models.OrderStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, updated.Status)
}

func TestWorkspace_CompletedAtIsStampedOnce(t *testing.T) {
	srv, _ := newBackend(t)
	w := newWorkspace(t, srv.URL, secret)
	ctx := context.Background()
	loginAdmin(t, w)
	require.NoError(t, w.SaveOrder(ctx, orderInput()))
	id := w.Store.Orders()[0].ID

	completed, err := w.ChangeOrderStatus(ctx, id, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
	stamp := *completed.CompletedAt

	reopened, err := w.ChangeOrderStatus(ctx, id, models.OrderStatusHold)
	require.NoError(t, err)
	require.NotNil(t, reopened.CompletedAt)
	assert.True(t, stamp.Equal(*reopened.CompletedAt))

	again, err := w.ChangeOrderStatus(ctx, id, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(*again.CompletedAt))
}

func TestWorkspace_WrongTokenIsRejectedWithoutMutation(t *testing.T) {
	srv, rows := newBackend(t)
	w := newWorkspace(t, srv.URL, "not-the-secret")
	ctx := context.Background()

	err := w.Store.AddOrder(ctx, func() models.Order {
		o := orderInput()
		o.OrderNo, o.OrderToken = 1, "SDP-1000"
		return o
	}())
	assert.ErrorIs(t, err, apierrors.ErrAuthRejected)

	assert.ErrorIs(t, w.Store.LoadOrders(ctx), apierrors.ErrAuthRejected)

	orders, err := rows.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestWorkspace_UserManagement(t *testing.T) {
	srv, _ := newBackend(t)
	w := newWorkspace(t, srv.URL, secret)
	ctx := context.Background()
	loginAdmin(t, w)

	require.NoError(t, w.SaveUser(ctx, models.User{Name: "Nimal", Role: models.RoleStaff, Password: "pw"}))
	stored := w.Store.Users()
	require.Len(t, stored, 1)

	require.NoError(t, w.SaveUser(ctx, models.User{ID: stored[0].ID, Name: "Nimal", Role: models.RoleAdmin}))
	updated, ok := w.Store.UserByID(stored[0].ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, "pw", updated.Password)

	listed := w.Users()
	require.Len(t, listed, 2)
	assert.Equal(t, "admin-superuser", listed[0].ID)
	assert.Empty(t, listed[1].Password)

	assert.ErrorIs(t, w.DeleteUser(ctx, "admin-superuser"), apierrors.ErrForbidden)
	assert.ErrorIs(t, w.DeleteUser(ctx, "ghost"), apierrors.ErrNotFound)
	require.NoError(t, w.DeleteUser(ctx, stored[0].ID))
	assert.Empty(t, w.Store.Users())

	assert.Equal(t, "Unassigned", w.UserName(""))
	assert.Equal(t, "Super Admin", w.UserName("admin-superuser"))
	assert.Equal(t, "N/A", w.UserName("ghost"))
}

func TestWorkspace_RemovedUserIsLoggedOutByPolling(t *testing.T) {
	srv, rows := newBackend(t)
	w := newWorkspace(t, srv.URL, secret)
	ctx := context.Background()
	loginAdmin(t, w)
	require.NoError(t, w.SaveUser(ctx, models.User{Name: "Kamala", Role: models.RoleStaff, Password: "pw"}))
	w.Session.Logout(ctx)

	user, err := w.Session.Login(ctx, "Kamala", "pw")
	require.NoError(t, err)

	require.NoError(t, rows.Users.Delete(ctx, user.ID))

	assert.Eventually(t, func() bool { return !w.Session.IsLoggedIn() }, 2*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, w.Session.ForcedLogoutReason())
}
