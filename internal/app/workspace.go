// Package app wires settings, the sheet client, the store and the session
// into one Workspace that lives for the whole process.
package app

import (
	"context"
	"time"

	"github.com/yukikurage/printshop-manager/internal/constants"
	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/kvstore"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/session"
	"github.com/yukikurage/printshop-manager/internal/settings"
	"github.com/yukikurage/printshop-manager/internal/sheetclient"
	"github.com/yukikurage/printshop-manager/internal/store"
	"github.com/yukikurage/printshop-manager/internal/utils"
	"go.uber.org/zap"
)

var (
	ErrCompletePermission = apierrors.WithMessage(apierrors.ErrForbidden,
		"You do not have permission to mark orders as completed. Please contact an administrator.")
	ErrSuperUserImmutable = apierrors.WithMessage(apierrors.ErrForbidden,
		"The Super Admin account is built-in and cannot be deleted.")
)

type Options struct {
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	SampleDataDelay time.Duration
	Notifier        store.Notifier
}

// Workspace is the root object of the back office.
type Workspace struct {
	Settings *settings.Provider
	Client   *sheetclient.Client
	Store    *store.Store
	Session  *session.Manager

	log *zap.Logger
	now func() time.Time
}

// New builds a Workspace on kv. It does not restore a previous session.
func New(ctx context.Context, kv kvstore.Store, log *zap.Logger, opts Options) (*Workspace, error) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = store.NewLogNotifier(log)
	}

	provider, err := settings.NewProvider(ctx, kv)
	if err != nil {
		return nil, err
	}
	client := sheetclient.New(provider, opts.RequestTimeout, log.Named("sheetclient"))
	data := store.New(client, provider, log.Named("store"), store.Options{
		PollInterval:    opts.PollInterval,
		SampleDataDelay: opts.SampleDataDelay,
		Notifier:        opts.Notifier,
	})
	sessions := session.NewManager(kv, data, opts.Notifier, log.Named("session"))

	return &Workspace{
		Settings: provider,
		Client:   client,
		Store:    data,
		Session:  sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close stops background polling.
func (w *Workspace) Close() {
	w.Store.StopUserPolling()
}

// NewOrderDraft returns an order form prefilled with the next order number
// and a fresh token.
func (w *Workspace) NewOrderDraft() (models.Order, error) {
	token, err := utils.GenerateOrderToken()
	if err != nil {
		return models.Order{}, apierrors.WithMessage(apierrors.ErrInternalError, err.Error())
	}
	return models.Order{
		OrderNo:       w.Store.NextOrderNo(),
		OrderToken:    token,
		JobUrgency:    models.JobUrgencyNormal,
		Quantity:      1,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}, nil
}

// SaveOrder adds the order when it has no id and replaces it otherwise.
// Only admins may complete an order; completedAt is stamped once.
func (w *Workspace) SaveOrder(ctx context.Context, order models.Order) error {
	order.RecomputeTotal()

	var previous *models.Order
	if order.ID != "" {
		if existing, ok := w.Store.OrderByID(order.ID); ok {
			previous = &existing
		}
	}

	if err := w.applyStatusRules(&order, previous); err != nil {
		return err
	}

	if order.ID == "" {
		if order.OrderNo == 0 {
			order.OrderNo = w.Store.NextOrderNo()
		}
		if order.OrderToken == "" {
			token, err := utils.GenerateOrderToken()
			if err != nil {
				return apierrors.WithMessage(apierrors.ErrInternalError, err.Error())
			}
			order.OrderToken = token
		}
		return w.Store.AddOrder(ctx, order)
	}
	return w.Store.UpdateOrder(ctx, order)
}

// ChangeOrderStatus moves a cached order to status.
func (w *Workspace) ChangeOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	order, ok := w.Store.OrderByID(id)
	if !ok {
		return models.Order{}, apierrors.WithMessage(apierrors.ErrNotFound, "Order not found")
	}
	if order.Status == status {
		return order, nil
	}
	order.Status = status
	if err := w.SaveOrder(ctx, order); err != nil {
		return models.Order{}, err
	}
	if updated, ok := w.Store.OrderByID(id); ok {
		return updated, nil
	}
	return order, nil
}

func (w *Workspace) applyStatusRules(order *models.Order, previous *models.Order) error {
	if previous != nil && previous.CompletedAt != nil {
		order.CompletedAt = previous.CompletedAt
	}

	if !order.IsCompleted() {
		return nil
	}
	wasCompleted := previous != nil && previous.IsCompleted()
	if !wasCompleted && !w.Session.IsAdmin() {
		return ErrCompletePermission
	}
	if order.CompletedAt == nil {
		now := w.now()
		order.CompletedAt = &now
	}
	return nil
}

// SaveTask adds the task when it has no id and replaces it otherwise.
func (w *Workspace) SaveTask(ctx context.Context, task models.Task) error {
	if task.ID == "" {
		return w.Store.AddTask(ctx, task)
	}
	return w.Store.UpdateTask(ctx, task)
}

// SaveUser adds the user when it has no id and replaces it otherwise. An
// empty password on update keeps the stored one.
func (w *Workspace) SaveUser(ctx context.Context, user models.User) error {
	if user.ID == constants.SuperUserID {
		return apierrors.WithMessage(apierrors.ErrForbidden, "The Super Admin account is built-in and cannot be modified.")
	}
	if user.ID == "" {
		return w.Store.AddUser(ctx, user)
	}
	if user.Password == "" {
		if existing, ok := w.Store.UserByID(user.ID); ok {
			user.Password = existing.Password
		}
	}
	return w.Store.UpdateUser(ctx, user)
}

func (w *Workspace) DeleteUser(ctx context.Context, id string) error {
	if id == constants.SuperUserID {
		return ErrSuperUserImmutable
	}
	return w.Store.DeleteUser(ctx, id)
}

// Users lists the built-in administrator followed by the stored accounts,
// without passwords.
func (w *Workspace) Users() []models.User {
	stored := w.Store.Users()
	users := make([]models.User, 0, len(stored)+1)
	users = append(users, session.SuperUser())
	for _, u := range stored {
		users = append(users, u.WithoutPassword())
	}
	return users
}

// UserName resolves an assignee id for display.
func (w *Workspace) UserName(id string) string {
	if id == "" {
		return "Unassigned"
	}
	if id == constants.SuperUserID {
		return constants.SuperUserName
	}
	if u, ok := w.Store.UserByID(id); ok {
		return u.Name
	}
	return "N/A"
}
