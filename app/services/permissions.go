package services

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
)

func requireCapability(ctx context.Context, perms repositories.PermissionRepositoryImpl, actor *models.User, capability models.Capability) error {
	if actor == nil {
		return ErrPermissionDenied
	}
	ok, err := perms.Has(ctx, actor, capability)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// checkReference fails with a ReferenceError when id is set but missing.
func checkReference(ctx context.Context, field string, id *uint, exists func(context.Context, uint) (bool, error)) error {
	if id == nil {
		return nil
	}
	ok, err := exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferenceError{Field: field, ID: *id}
	}
	return nil
}
