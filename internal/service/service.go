package service

import (
	"context"
	"errors"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/model"

	"gorm.io/gorm"
)

// Actor is the authenticated employee on whose behalf an operation runs.
type Actor struct {
	EmployeeID uint
	Role       string
}

func (a Actor) IsManager() bool { return a.Role == model.RoleManager }

func requireManager(a Actor, op string) error {
	if !a.IsManager() {
		return apierror.Forbidden(op + " requires the manager role")
	}
	return nil
}

// runTx executes fn inside a GORM transaction. Every write made through tx is
// rolled back when fn returns an error.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	if _, ok := apierror.As(err); ok {
		return err
	}
	return apierror.Storage("transaction", err)
}

// lookupErr maps a failed single-row lookup.
func lookupErr(err error, entity string, id uint, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(entity, id)
	}
	return storageErr(op, err)
}

// storageErr leaves typed errors untouched and wraps everything else.
func storageErr(op string, err error) error {
	if _, ok := apierror.As(err); ok {
		return err
	}
	return apierror.Storage(op, err)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}
