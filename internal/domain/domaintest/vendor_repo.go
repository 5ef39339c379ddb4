package domaintest

import (
	"context"

	"pharmacy/internal/core/apperror"
	"pharmacy/internal/domain"
	"pharmacy/internal/domain/catalogs/vendor"
)

// VendorRepo is a map-backed vendor.Repository.
type VendorRepo struct {
	*CatalogRepo[*vendor.Vendor]
}

// NewVendorRepo creates an empty repository.
func NewVendorRepo() *VendorRepo {
	return &VendorRepo{CatalogRepo: NewCatalogRepo[*vendor.Vendor]()}
}

func (r *VendorRepo) FindByGSTIN(ctx context.Context, gstin string) (*vendor.Vendor, error) {
	res, _ := r.List(ctx, domain.ListFilter{IncludeDeleted: true})
	for _, v := range res.Items {
		if v.GSTIN == gstin {
			return v, nil
		}
	}
	return nil, apperror.NewNotFound("vendor", gstin)
}

var _ vendor.Repository = (*VendorRepo)(nil)
