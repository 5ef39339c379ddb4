package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/id"
	"pharmacy/pkg/notify"
)

// GenericErrorMessage is shown when the backend gives no message.
const GenericErrorMessage = "Something went wrong. Please try again."

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(ctx context.Context, message string) bool

// ControllerConfig configures a Controller.
type ControllerConfig[T any] struct {
	// Resource is the collection path, e.g. "/items"
	Resource string
	// Entity is the display name used in notices, e.g. "Item"
	Entity string

	// Validate checks required fields before any request is sent
	Validate func(T) error
	// ID returns the record id used by Update and Delete lookups
	ID func(T) id.ID

	Notifier notify.Notifier
	Confirm  ConfirmFunc
}

// Controller manages one master-data collection the way a page does:
// load everything, mutate, reload.
type Controller[T any] struct {
	client *Client
	cfg    ControllerConfig[T]

	mu      sync.RWMutex
	items   []T
	loading bool
}

// NewController creates a controller.
func NewController[T any](c *Client, cfg ControllerConfig[T]) *Controller[T] {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewCenter()
	}
	if cfg.Confirm == nil {
		cfg.Confirm = func(context.Context, string) bool { return true }
	}
	return &Controller[T]{client: c, cfg: cfg}
}

// Items returns the last loaded collection.
func (c *Controller[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Loading reports whether a request is in flight.
func (c *Controller[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// Load fetches the full collection.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	var page listEnvelope[T]
	if err := c.client.do(ctx, http.MethodGet, c.cfg.Resource+"?limit=0", nil, &page); err != nil {
		c.fail(ctx, err)
		return err
	}

	c.mu.Lock()
	c.items = page.Items
	c.mu.Unlock()
	return nil
}

// Create validates, POSTs and reloads.
func (c *Controller[T]) Create(ctx context.Context, v T) (T, error) {
	var created T
	if err := c.validate(ctx, v); err != nil {
		return created, err
	}
	if err := c.mutate(ctx, http.MethodPost, c.cfg.Resource, v, &created); err != nil {
		return created, err
	}
	notify.Success(ctx, c.cfg.Notifier, c.cfg.Entity+" created")
	return created, c.Load(ctx)
}

// Update validates, PUTs and reloads.
func (c *Controller[T]) Update(ctx context.Context, entityID id.ID, v T) (T, error) {
	var updated T
	if err := c.validate(ctx, v); err != nil {
		return updated, err
	}
	if err := c.mutate(ctx, http.MethodPut, c.path(entityID), v, &updated); err != nil {
		return updated, err
	}
	notify.Success(ctx, c.cfg.Notifier, c.cfg.Entity+" updated")
	return updated, c.Load(ctx)
}

// Delete confirms, DELETEs and reloads.
func (c *Controller[T]) Delete(ctx context.Context, entityID id.ID) error {
	if !c.cfg.Confirm(ctx, fmt.Sprintf("Delete this %s?", c.cfg.Entity)) {
		return ErrCancelled
	}
	if err := c.mutate(ctx, http.MethodDelete, c.path(entityID), nil, nil); err != nil {
		return err
	}
	notify.Success(ctx, c.cfg.Notifier, c.cfg.Entity+" deleted")
	return c.Load(ctx)
}

// Find returns the loaded record with the given id.
func (c *Controller[T]) Find(entityID id.ID) (T, bool) {
	var zero T
	if c.cfg.ID == nil {
		return zero, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.cfg.ID(it) == entityID {
			return it, true
		}
	}
	return zero, false
}

func (c *Controller[T]) path(entityID id.ID) string {
	return c.cfg.Resource + "/" + entityID.String()
}

func (c *Controller[T]) validate(ctx context.Context, v T) error {
	if c.cfg.Validate == nil {
		return nil
	}
	if err := c.cfg.Validate(v); err != nil {
		notify.Error(ctx, c.cfg.Notifier, err.Error())
		return err
	}
	return nil
}

func (c *Controller[T]) mutate(ctx context.Context, method, path string, body, out any) error {
	c.setLoading(true)
	defer c.setLoading(false)
	if err := c.client.do(ctx, method, path, body, out); err != nil {
		c.fail(ctx, err)
		return err
	}
	return nil
}

func (c *Controller[T]) fail(ctx context.Context, err error) {
	notify.Error(ctx, c.cfg.Notifier, ErrorMessage(err))
}

func (c *Controller[T]) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// ErrorMessage is the text shown for err: the backend or validation
// message when there is one.
func ErrorMessage(err error) string {
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return GenericErrorMessage
}
