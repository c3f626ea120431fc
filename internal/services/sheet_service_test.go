package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/printshop-manager/internal/database"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"github.com/yukikurage/printshop-manager/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "s3cret"

func setupSheetService(t *testing.T) (*SheetService, *repository.Store) {
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

	store := repository.NewGormStore(db)
	svc := NewSheetService(store, testSecret, NewWriteLock(time.Second), zap.NewNop())

	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	svc.now = func() time.Time { return time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func write(t *testing.T, svc *SheetService, action protocol.Action, entity protocol.Entity, data any) protocol.Response {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return svc.Handle(context.Background(), protocol.Request{
		AppToken: testSecret,
		DataType: protocol.WriteDataType(action, entity),
		Data:     raw,
	})
}

func read(t *testing.T, svc *SheetService, dataType string, out any) protocol.Response {
	t.Helper()
	resp := svc.Handle(context.Background(), protocol.Request{
		AppToken: testSecret,
		Action:   protocol.ActionGetData,
		DataType: dataType,
	})
	if resp.OK() && out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp
}

func newOrderPayload() models.Order {
	return models.Order{
		OrderNo:        1,
		OrderToken:     "SDP-4821",
		CustomerName:   "Kasun Perera",
		ContactNo:      "0771234567",
		JobDescription: "500 business cards",
		JobUrgency:     models.JobUrgencyNormal,
		Quantity:       500,
		UnitPrice:      12.5,
		TotalAmount:    1,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
	}
}

func TestSheetService_RejectsWrongToken(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := svc.Handle(context.Background(), protocol.Request{
		AppToken: "wrong",
		Action:   protocol.ActionGetData,
		DataType: protocol.DataTypeJobQueue,
	})

	assert.False(t, resp.OK())
	assert.Equal(t, "Invalid security token.", resp.Error)
	assert.Equal(t, apierrors.ErrCodeAuthRejected, resp.Code)
}

func TestSheetService_EmptySecretRejectsEverything(t *testing.T) {
	svc, _ := setupSheetService(t)
	svc.secret = ""

	resp := svc.Handle(context.Background(), protocol.Request{
		Action:   protocol.ActionGetData,
		DataType: protocol.DataTypeTaskList,
	})

	assert.Equal(t, apierrors.ErrCodeAuthRejected, resp.Code)
}

func TestSheetService_ReadEmptySheetReturnsEmptyArray(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := read(t, svc, protocol.DataTypeTaskList, nil)

	require.True(t, resp.OK())
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestSheetService_ReadUnknownDataType(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := read(t, svc, "INVOICES", nil)

	assert.False(t, resp.OK())
	assert.Equal(t, "Invalid data type for getData.", resp.Error)
}

func TestSheetService_AddOrderAssignsIdentityAndTotal(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := write(t, svc, protocol.ActionAdd, protocol.EntityOrder, newOrderPayload())
	require.True(t, resp.OK(), resp.Error)

	var orders []models.Order
	require.True(t, read(t, svc, protocol.DataTypeJobQueue, &orders).OK())
	require.Len(t, orders, 1)
	assert.Equal(t, "id-1", orders[0].ID)
	assert.Equal(t, 6250.0, orders[0].TotalAmount)
	assert.True(t, orders[0].CreatedAt.Equal(time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC)))
}

func TestSheetService_AddUserRequiresPassword(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := write(t, svc, protocol.ActionAdd, protocol.EntityUser, models.User{Name: "nimal", Role: models.RoleStaff})

	assert.False(t, resp.OK())
	assert.Equal(t, apierrors.ErrCodeInvalidInput, resp.Code)
	assert.Contains(t, resp.Error, "password")
}

func TestSheetService_UpdateReplacesWholeRow(t *testing.T) {
	svc, _ := setupSheetService(t)
	require.True(t, write(t, svc, protocol.ActionAdd, protocol.EntityUser,
		models.User{Name: "nimal", Role: models.RoleStaff, Password: "pw"}).OK())

	resp := write(t, svc, protocol.ActionUpdate, protocol.EntityUser,
		models.User{ID: "id-1", Name: "nimal", Role: models.RoleAdmin})
	require.True(t, resp.OK(), resp.Error)

	var users []models.User
	require.True(t, read(t, svc, protocol.DataTypeUserCredentials, &users).OK())
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Empty(t, users[0].Password)
}

func TestSheetService_UpdateAndDeleteMissingRow(t *testing.T) {
	svc, _ := setupSheetService(t)

	task := models.Task{
		ID:          "ghost",
		Description: "Laminate posters",
		DueDate:     time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		Status:      models.TaskStatusOpen,
		Priority:    models.TaskPriorityHigh,
	}
	resp := write(t, svc, protocol.ActionUpdate, protocol.EntityTask, task)
	assert.Equal(t, apierrors.ErrCodeNotFound, resp.Code)
	assert.Equal(t, "Row with ID ghost not found for update.", resp.Error)

	resp = write(t, svc, protocol.ActionDelete, protocol.EntityTask, protocol.IDPayload{ID: "ghost"})
	assert.Equal(t, apierrors.ErrCodeNotFound, resp.Code)
	assert.Equal(t, "Row with ID ghost not found for deletion.", resp.Error)
}

func TestSheetService_DeleteRemovesRow(t *testing.T) {
	svc, _ := setupSheetService(t)
	require.True(t, write(t, svc, protocol.ActionAdd, protocol.EntityOrder, newOrderPayload()).OK())

	resp := write(t, svc, protocol.ActionDelete, protocol.EntityOrder, protocol.IDPayload{ID: "id-1"})
	require.True(t, resp.OK(), resp.Error)

	var orders []models.Order
	require.True(t, read(t, svc, protocol.DataTypeJobQueue, &orders).OK())
	assert.Empty(t, orders)
}

func TestSheetService_InvalidWriteNames(t *testing.T) {
	svc, _ := setupSheetService(t)

	resp := write(t, svc, protocol.ActionAdd, protocol.Entity("INVOICE"), map[string]string{})
	assert.Equal(t, "Invalid entity type for modification.", resp.Error)

	resp = write(t, svc, protocol.Action("UPSERT"), protocol.EntityOrder, newOrderPayload())
	assert.Equal(t, "Invalid action type.", resp.Error)

	resp = svc.Handle(context.Background(), protocol.Request{AppToken: testSecret, DataType: "ORDERS"})
	assert.Equal(t, "Invalid entity type for modification.", resp.Error)
}

func TestSheetService_WriteLockTimeout(t *testing.T) {
	svc, _ := setupSheetService(t)
	svc.lock = NewWriteLock(20 * time.Millisecond)

	release, err := svc.lock.Acquire(context.Background())
	require.NoError(t, err)

	resp := write(t, svc, protocol.ActionAdd, protocol.EntityOrder, newOrderPayload())

	assert.Equal(t, protocol.ResultError, resp.Result)
	assert.Equal(t, apierrors.ErrCodeLockTimeout, resp.Code)
	assert.Equal(t, "Could not obtain lock after 20ms.", resp.Error)

	release()
	resp = write(t, svc, protocol.ActionAdd, protocol.EntityOrder, newOrderPayload())
	assert.Equal(t, protocol.ResultSuccess, resp.Result, resp.Error)
}
