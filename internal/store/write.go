package store

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/printshop-manager/internal/errors"
	"github.com/yukikurage/printshop-manager/internal/models"
	"github.com/yukikurage/printshop-manager/internal/protocol"
	"go.uber.org/zap"
)

// AddOrder creates an order. The sheet service assigns id and createdAt.
func (s *Store) AddOrder(ctx context.Context, order models.Order) error {
	order.RecomputeTotal()
	if err := models.Validate(order); err != nil {
		return invalid(err)
	}
	return s.write(ctx, protocol.ActionAdd, protocol.EntityOrder, order, s.LoadOrders)
}

// UpdateOrder replaces the full order row.
func (s *Store) UpdateOrder(ctx context.Context, order models.Order) error {
	order.RecomputeTotal()
	if err := requireID(order.ID); err != nil {
		return err
	}
	if err := models.Validate(order); err != nil {
		return invalid(err)
	}
	if err := s.requireCached(s.hasOrder(order.ID), "order", order.ID); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionUpdate, protocol.EntityOrder, order, s.LoadOrders)
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if err := s.requireCached(s.hasOrder(id), "order", id); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionDelete, protocol.EntityOrder, protocol.IDPayload{ID: id}, s.LoadOrders)
}

// AddTask creates a task. The sheet service assigns id and createdAt.
func (s *Store) AddTask(ctx context.Context, task models.Task) error {
	if err := models.Validate(task); err != nil {
		return invalid(err)
	}
	return s.write(ctx, protocol.ActionAdd, protocol.EntityTask, task, s.LoadTasks)
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	if err := requireID(task.ID); err != nil {
		return err
	}
	if err := models.Validate(task); err != nil {
		return invalid(err)
	}
	if err := s.requireCached(s.hasTask(task.ID), "task", task.ID); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionUpdate, protocol.EntityTask, task, s.LoadTasks)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.requireCached(s.hasTask(id), "task", id); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionDelete, protocol.EntityTask, protocol.IDPayload{ID: id}, s.LoadTasks)
}

// AddUser creates an account. A password is required.
func (s *Store) AddUser(ctx context.Context, user models.User) error {
	if err := models.ValidateNewUser(user); err != nil {
		return invalid(err)
	}
	return s.write(ctx, protocol.ActionAdd, protocol.EntityUser, user, s.loadUsersForeground)
}

// UpdateUser replaces the full user row, password included.
func (s *Store) UpdateUser(ctx context.Context, user models.User) error {
	if err := requireID(user.ID); err != nil {
		return err
	}
	if err := models.Validate(user); err != nil {
		return invalid(err)
	}
	if err := s.requireCached(s.hasUser(user.ID), "user", user.ID); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionUpdate, protocol.EntityUser, user, s.loadUsersForeground)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.requireCached(s.hasUser(id), "user", id); err != nil {
		return err
	}
	return s.write(ctx, protocol.ActionDelete, protocol.EntityUser, protocol.IDPayload{ID: id}, s.loadUsersForeground)
}

// write sends one write and, on success, re-fetches the owning collection.
// The cache is never patched locally.
func (s *Store) write(ctx context.Context, action protocol.Action, entity protocol.Entity, data any, reload func(context.Context) error) error {
	dataType := protocol.WriteDataType(action, entity)

	if !s.config.IsConfigured() {
		s.notifier.Alert(apierrors.ErrNotConfigured.Message)
		return apierrors.ErrNotConfigured
	}
	if err := s.remote.Send(ctx, dataType, data); err != nil {
		s.log.Error("write failed", zap.String("data_type", dataType), zap.Error(err))
		s.notifier.Alert(writeFailureMessage(err))
		return err
	}
	s.log.Info("write accepted", zap.String("data_type", dataType))

	// The write itself succeeded. A failed refresh is already reported by fetch.
	if err := reload(ctx); err != nil {
		s.log.Warn("refresh after write failed", zap.String("data_type", dataType), zap.Error(err))
	}
	return nil
}

func (s *Store) loadUsersForeground(ctx context.Context) error {
	return s.LoadUsers(ctx, Foreground)
}

// requireCached rejects updates and deletes of ids the cache does not hold.
// Settings are checked first so an unconfigured store reports that instead.
func (s *Store) requireCached(found bool, kind, id string) error {
	if !s.config.IsConfigured() {
		s.notifier.Alert(apierrors.ErrNotConfigured.Message)
		return apierrors.ErrNotConfigured
	}
	if found {
		return nil
	}
	return apierrors.WithMessage(apierrors.ErrNotFound, fmt.Sprintf("No %s with ID %s.", kind, id))
}

func (s *Store) hasOrder(id string) bool {
	_, ok := s.OrderByID(id)
	return ok
}

func (s *Store) hasTask(id string) bool {
	_, ok := s.TaskByID(id)
	return ok
}

func (s *Store) hasUser(id string) bool {
	_, ok := s.UserByID(id)
	return ok
}

func requireID(id string) error {
	if id == "" {
		return apierrors.WithMessage(apierrors.ErrInvalidInput, "invalid fields: id (required)")
	}
	return nil
}

func invalid(err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return apierrors.NewAPIErrorWithDetails(apierrors.ErrCodeInvalidInput, verr.Error(), verr.Fields)
	}
	return apierrors.WithMessage(apierrors.ErrInvalidInput, err.Error())
}

func writeFailureMessage(err error) string {
	if errors.Is(err, apierrors.ErrNotConfigured) {
		return err.Error()
	}
	if isRemoteResult(err) {
		return "Submission failed! The server responded with: " + err.Error()
	}
	return "Could not send data: " + err.Error()
}
