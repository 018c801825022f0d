// Package trigger loads and stores flow triggers.
package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound indicates no store holds the trigger.
	ErrNotFound = errors.New("flow trigger not found")

	// ErrInvalidTrigger indicates a trigger failed validation.
	ErrInvalidTrigger = errors.New("invalid flow trigger")
)

type Repository struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Get returns the trigger or ErrNotFound.
func (r *Repository) Get(ctx context.Context, flowTriggerID string) (*models.FlowTrigger, error) {
	trigger, err := persistence.GetJSON[models.FlowTrigger](ctx, r.persistence, persistence.FlowTriggerKey(flowTriggerID))
	if persistence.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, flowTriggerID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read flow trigger %s: %w", flowTriggerID, err)
	}

	return trigger, nil
}

// Save validates and writes trigger.
func (r *Repository) Save(ctx context.Context, trigger *models.FlowTrigger) error {
	if err := r.Validate(trigger); err != nil {
		return err
	}

	err := persistence.PutJSON(ctx, r.persistence, persistence.FlowTriggerKey(trigger.ID), trigger)
	if err != nil {
		return fmt.Errorf("failed to write flow trigger %s: %w", trigger.ID, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, flowTriggerID string) error {
	err := r.persistence.Delete(ctx, persistence.FlowTriggerKey(flowTriggerID))
	if persistence.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, flowTriggerID)
	}

	return err
}

// Validate checks the struct constraints of trigger, including its conditions.
func (r *Repository) Validate(trigger *models.FlowTrigger) error {
	if trigger == nil {
		return fmt.Errorf("%w: trigger is nil", ErrInvalidTrigger)
	}

	if err := r.validate.Struct(trigger); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTrigger, err)
	}

	if trigger.Configuration.Provider != models.ProviderGitHub {
		return nil
	}

	if trigger.Configuration.Event == nil {
		return fmt.Errorf("%w: github trigger has no event", ErrInvalidTrigger)
	}

	if conditions := models.Conditions(trigger.Configuration.Event); conditions != nil {
		if err := r.validate.Struct(conditions); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidTrigger, trigger.Configuration.Event.EventID(), err)
		}
	}

	return nil
}

// IsNotFound checks if an error indicates a missing trigger.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
