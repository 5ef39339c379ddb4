package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"pharmacy/internal/domain/catalogs/customer"
	"pharmacy/internal/domain/catalogs/department"
	"pharmacy/internal/domain/catalogs/item"
	"pharmacy/internal/domain/catalogs/location"
	"pharmacy/internal/domain/catalogs/taxcode"
	"pharmacy/internal/domain/catalogs/uom"
	"pharmacy/internal/domain/catalogs/vendor"
	"pharmacy/internal/infrastructure/storage/postgres"
)

// Compile-time interface checks.
var (
	_ item.Repository       = (*ItemRepo)(nil)
	_ vendor.Repository     = (*VendorRepo)(nil)
	_ customer.Repository   = (*CustomerRepo)(nil)
	_ uom.Repository        = (*UOMRepo)(nil)
	_ taxcode.Repository    = (*TaxCodeRepo)(nil)
	_ location.Repository   = (*LocationRepo)(nil)
	_ department.Repository = (*DepartmentRepo)(nil)
)

// ItemRepo stores medicines and consumables in cat_items.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_items",
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} }),
	}
}

// FindByBarcode retrieves an item by its barcode.
func (r *ItemRepo) FindByBarcode(ctx context.Context, barcode string) (*item.Item, error) {
	return r.FindOne(ctx, r.baseSelect(ctx).
		Where(squirrel.Eq{"barcode": barcode, "deletion_mark": false}).
		Limit(1))
}

// FindByName retrieves a non-deleted item by exact name, ignoring case.
func (r *ItemRepo) FindByName(ctx context.Context, name string) (*item.Item, error) {
	return r.FindOne(ctx, r.baseSelect(ctx).
		Where(squirrel.Expr("LOWER(name) = LOWER(?)", name)).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1))
}

type VendorRepo struct {
	*BaseCatalogRepo[*vendor.Vendor]
}

func NewVendorRepo(txm *postgres.TxManager) *VendorRepo {
	return &VendorRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_vendors",
			postgres.ExtractDBColumns[vendor.Vendor](),
			func() *vendor.Vendor { return &vendor.Vendor{} }),
	}
}

// FindByGSTIN retrieves a vendor by GST number.
func (r *VendorRepo) FindByGSTIN(ctx context.Context, gstin string) (*vendor.Vendor, error) {
	return r.FindOne(ctx, r.baseSelect(ctx).
		Where(squirrel.Eq{"gstin": gstin}).
		Limit(1))
}

type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_customers",
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} }),
	}
}

// FindByPhone retrieves a customer by E.164 phone.
func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	return r.FindOne(ctx, r.baseSelect(ctx).
		Where(squirrel.Eq{"phone": phone, "deletion_mark": false}).
		Limit(1))
}

type UOMRepo struct {
	*BaseCatalogRepo[*uom.UOM]
}

func NewUOMRepo(txm *postgres.TxManager) *UOMRepo {
	return &UOMRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_uoms",
			postgres.ExtractDBColumns[uom.UOM](),
			func() *uom.UOM { return &uom.UOM{} }),
	}
}

func (r *UOMRepo) FindBySymbol(ctx context.Context, symbol string) (*uom.UOM, error) {
	return r.FindOne(ctx, r.baseSelect(ctx).
		Where(squirrel.Eq{"symbol": symbol}).
		Limit(1))
}

type TaxCodeRepo struct {
	*BaseCatalogRepo[*taxcode.TaxCode]
}

func NewTaxCodeRepo(txm *postgres.TxManager) *TaxCodeRepo {
	return &TaxCodeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_tax_codes",
			postgres.ExtractDBColumns[taxcode.TaxCode](),
			func() *taxcode.TaxCode { return &taxcode.TaxCode{} }),
	}
}

type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
}

func NewLocationRepo(txm *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_locations",
			postgres.ExtractDBColumns[location.Location](),
			func() *location.Location { return &location.Location{} }),
	}
}

type DepartmentRepo struct {
	*BaseCatalogRepo[*department.Department]
}

func NewDepartmentRepo(txm *postgres.TxManager) *DepartmentRepo {
	return &DepartmentRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_departments",
			postgres.ExtractDBColumns[department.Department](),
			func() *department.Department { return &department.Department{} }),
	}
}
