package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/core/numerator"
	"pharmacy/internal/core/tx"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/catalogs/vendor"
	"pharmacy/internal/domain/domaintest"
)

func newVendorService() (*vendor.Service, *domaintest.VendorRepo) {
	repo := domaintest.NewVendorRepo()
	return vendor.NewService(repo, tx.Nop{}, &numerator.MockGenerator{}), repo
}

func TestCatalogService_GeneratesCode(t *testing.T) {
	svc, _ := newVendorService()
	ctx := context.Background()

	a := vendor.NewVendor("", "Medico Distributors")
	b := vendor.NewVendor("", "Sun Pharma Agency")
	require.NoError(t, svc.Create(ctx, a))
	require.NoError(t, svc.Create(ctx, b))

	assert.Equal(t, "VEN-00001", a.Code)
	assert.Equal(t, "VEN-00002", b.Code)
}

func TestCatalogService_RejectsDuplicateCode(t *testing.T) {
	svc, repo := newVendorService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, vendor.NewVendor("V1", "First")))
	err := svc.Create(ctx, vendor.NewVendor("V1", "Second"))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, 1, repo.Len())
}

func TestCatalogService_ValidationStopsCreate(t *testing.T) {
	svc, repo := newVendorService()

	v := vendor.NewVendor("V1", "Medico")
	v.Phone = "12"
	err := svc.Create(context.Background(), v)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 0, repo.Len())
}

func TestCatalogService_RejectsDuplicateGSTIN(t *testing.T) {
	svc, repo := newVendorService()
	ctx := context.Background()

	a := vendor.NewVendor("", "Medico")
	a.GSTIN = "27AAPFU0939F1ZV"
	require.NoError(t, svc.Create(ctx, a))

	b := vendor.NewVendor("", "Medico Again")
	b.GSTIN = "27aapfu0939f1zv"
	err := svc.Create(ctx, b)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, 1, repo.Len())
}

func TestCatalogService_BeforeCreateHookVetoes(t *testing.T) {
	svc, repo := newVendorService()
	veto := errors.New("blocked")
	svc.Hooks().OnBeforeCreate(func(context.Context, *vendor.Vendor) error { return veto })

	err := svc.Create(context.Background(), vendor.NewVendor("", "Medico"))
	assert.ErrorIs(t, err, veto)
	assert.Equal(t, 0, repo.Len())
}

func TestCatalogService_DeleteMarksAndHidesFromList(t *testing.T) {
	svc, _ := newVendorService()
	ctx := context.Background()

	v := vendor.NewVendor("", "Medico")
	require.NoError(t, svc.Create(ctx, v))
	require.NoError(t, svc.Delete(ctx, v.ID))

	got, err := svc.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, got.DeletionMark)

	page, err := svc.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	f := domain.DefaultListFilter()
	f.IncludeDeleted = true
	page, err = svc.List(ctx, f)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestCatalogService_GetMissingIsNotFound(t *testing.T) {
	svc, _ := newVendorService()

	_, err := svc.GetByCode(context.Background(), "NOPE")
	assert.True(t, apperror.IsNotFound(err))
}
