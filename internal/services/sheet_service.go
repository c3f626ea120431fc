package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"github.com/yukikurage/printshop-manager/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidDataType   = errors.New("Invalid data type for getData.")
	ErrInvalidEntityType = errors.New("Invalid entity type for modification.")
	ErrInvalidActionType = errors.New("Invalid action type.")
	ErrMissingPayload    = errors.New("request data is required")
	ErrMissingID         = errors.New("record id is required")
)

// SheetService is the remote endpoint: it checks the shared secret, routes
// reads and writes to the sheets, and serializes writes with a WriteLock.
type SheetService struct {
	store  *repository.Store
	secret string
	lock   *WriteLock
	log    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewSheetService creates a new SheetService. An empty secret rejects every request.
func NewSheetService(store *repository.Store, secret string, lock *WriteLock, log *zap.Logger) *SheetService {
	return &SheetService{
		store:  store,
		secret: secret,
		lock:   lock,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Handle executes one request. Failures are reported in the response, never as a Go error.
func (s *SheetService) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(req.AppToken), []byte(s.secret)) != 1 {
		s.log.Warn("rejected request with invalid token", zap.String("data_type", req.DataType))
		return failure(apierrors.ErrAuthRejected)
	}

	if req.IsRead() {
		return s.handleRead(ctx, req.DataType)
	}
	return s.handleWrite(ctx, req.DataType, req.Data)
}

func (s *SheetService) handleRead(ctx context.Context, dataType string) protocol.Response {
	var (
		rows any
		err  error
	)
	switch dataType {
	case protocol.DataTypeJobQueue:
		rows, err = s.store.Orders.List(ctx)
	case protocol.DataTypeTaskList:
		rows, err = s.store.Tasks.List(ctx)
	case protocol.DataTypeUserCredentials:
		rows, err = s.store.Users.List(ctx)
	default:
		return failure(apierrors.WithMessage(apierrors.ErrInvalidInput, ErrInvalidDataType.Error()))
	}
	if err != nil {
		s.log.Error("read failed", zap.String("data_type", dataType), zap.Error(err))
		return failure(apierrors.WithMessage(apierrors.ErrInternalError, "Failed to retrieve data: "+err.Error()))
	}

	resp, err := protocol.Success(rows)
	if err != nil {
		return failure(apierrors.WithMessage(apierrors.ErrInternalError, "Failed to retrieve data: "+err.Error()))
	}
	return resp
}

func (s *SheetService) handleWrite(ctx context.Context, dataType string, data json.RawMessage) protocol.Response {
	action, entity, err := protocol.ParseDataType(dataType)
	if err != nil {
		return failure(apierrors.WithMessage(apierrors.ErrInvalidInput, ErrInvalidEntityType.Error()))
	}

	var write func(context.Context) error
	switch entity {
	case protocol.EntityOrder:
		write = func(ctx context.Context) error { return applyWrite(ctx, s, s.orderSpec(), action, data) }
	case protocol.EntityTask:
		write = func(ctx context.Context) error { return applyWrite(ctx, s, s.taskSpec(), action, data) }
	case protocol.EntityUser:
		write = func(ctx context.Context) error { return applyWrite(ctx, s, s.userSpec(), action, data) }
	default:
		return failure(apierrors.WithMessage(apierrors.ErrInvalidInput, ErrInvalidEntityType.Error()))
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		s.log.Warn("write lock timeout", zap.String("data_type", dataType))
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			return failure(apiErr)
		}
		return failure(apierrors.WithMessage(apierrors.ErrLockTimeout, err.Error()))
	}
	err = write(ctx)
	release()

	if err != nil {
		s.log.Warn("write failed", zap.String("data_type", dataType), zap.Error(err))
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			return failure(apiErr)
		}
		return failure(apierrors.WithMessage(apierrors.ErrInternalError, "Failed to modify data: "+err.Error()))
	}

	s.log.Info("write applied", zap.String("data_type", dataType))
	return protocol.Response{Result: protocol.ResultSuccess}
}

// entitySpec adapts one sheet to the generic write path.
type entitySpec[T any] struct {
	table    repository.Table[T]
	id       func(*T) string
	stamp    func(row *T, id string, now time.Time)
	validate func(row *T, action protocol.Action) error
}

func (s *SheetService) orderSpec() entitySpec[models.Order] {
	return entitySpec[models.Order]{
		table: s.store.Orders,
		id:    func(o *models.Order) string { return o.ID },
		stamp: func(o *models.Order, id string, now time.Time) {
			o.ID = id
			o.CreatedAt = now
		},
		validate: func(o *models.Order, _ protocol.Action) error {
			o.RecomputeTotal()
			return models.Validate(o)
		},
	}
}

func (s *SheetService) taskSpec() entitySpec[models.Task] {
	return entitySpec[models.Task]{
		table: s.store.Tasks,
		id:    func(t *models.Task) string { return t.ID },
		stamp: func(t *models.Task, id string, now time.Time) {
			t.ID = id
			t.CreatedAt = now
		},
		validate: func(t *models.Task, _ protocol.Action) error {
			return models.Validate(t)
		},
	}
}

func (s *SheetService) userSpec() entitySpec[models.User] {
	return entitySpec[models.User]{
		table: s.store.Users,
		id:    func(u *models.User) string { return u.ID },
		stamp: func(u *models.User, id string, _ time.Time) {
			u.ID = id
		},
		validate: func(u *models.User, action protocol.Action) error {
			if action == protocol.ActionAdd {
				return models.ValidateNewUser(*u)
			}
			return models.Validate(u)
		},
	}
}

func applyWrite[T any](ctx context.Context, s *SheetService, spec entitySpec[T], action protocol.Action, data json.RawMessage) error {
	if len(data) == 0 || string(data) == "null" {
		return apierrors.WithMessage(apierrors.ErrInvalidInput, ErrMissingPayload.Error())
	}

	switch action {
	case protocol.ActionAdd:
		var row T
		if err := json.Unmarshal(data, &row); err != nil {
			return invalidInput(err)
		}
		spec.stamp(&row, s.newID(), s.now())
		if err := spec.validate(&row, action); err != nil {
			return invalidInput(err)
		}
		return spec.table.Append(ctx, &row)

	case protocol.ActionUpdate:
		var row T
		if err := json.Unmarshal(data, &row); err != nil {
			return invalidInput(err)
		}
		id := spec.id(&row)
		if id == "" {
			return invalidInput(ErrMissingID)
		}
		if err := spec.validate(&row, action); err != nil {
			return invalidInput(err)
		}
		err := spec.table.Replace(ctx, id, &row)
		if errors.Is(err, repository.ErrRowNotFound) {
			return apierrors.WithMessage(apierrors.ErrNotFound, fmt.Sprintf("Row with ID %s not found for update.", id))
		}
		return err

	case protocol.ActionDelete:
		var payload protocol.IDPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return invalidInput(err)
		}
		if payload.ID == "" {
			return invalidInput(ErrMissingID)
		}
		err := spec.table.Delete(ctx, payload.ID)
		if errors.Is(err, repository.ErrRowNotFound) {
			return apierrors.WithMessage(apierrors.ErrNotFound, fmt.Sprintf("Row with ID %s not found for deletion.", payload.ID))
		}
		return err

	default:
		return apierrors.WithMessage(apierrors.ErrInvalidInput, ErrInvalidActionType.Error())
	}
}

func invalidInput(err error) error {
	return apierrors.WithMessage(apierrors.ErrInvalidInput, "Failed to modify data: "+err.Error())
}

func failure(err *apierrors.APIError) protocol.Response {
	return protocol.Failure(err.Code, err.Message)
}
