package dto

import (
	"github.com/shopspring/decimal"

	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/catalogs/customer"
	"pharmacy/internal/domain/catalogs/department"
	"pharmacy/internal/domain/catalogs/item"
	"pharmacy/internal/domain/catalogs/location"
	"pharmacy/internal/domain/catalogs/taxcode"
	"pharmacy/internal/domain/catalogs/uom"
	"pharmacy/internal/domain/catalogs/vendor"
)

// --- Item ---

// ItemRequest is the body of item create and update.
type ItemRequest struct {
	Code         string          `json:"code"`
	Name         string          `json:"name" binding:"required,max=200"`
	HSNCode      string          `json:"hsnCode" binding:"omitempty,numeric"`
	Category     string          `json:"category"`
	UOMID        *id.ID          `json:"uomId"`
	TaxCodeID    *id.ID          `json:"taxCodeId"`
	TaxRate      decimal.Decimal `json:"taxRate"`
	MRP          decimal.Decimal `json:"mrp"`
	SaleRate     decimal.Decimal `json:"saleRate"`
	PurchaseRate decimal.Decimal `json:"purchaseRate"`
	ReorderLevel int64           `json:"reorderLevel" binding:"min=0"`
	BatchTracked *bool           `json:"batchTracked"`
	Barcode      string          `json:"barcode"`
	Version      int             `json:"version"`
}

// ToItem builds a new item.
func (r ItemRequest) ToItem() *item.Item {
	it := item.NewItem(r.Code, r.Name)
	r.ApplyToItem(it)
	return it
}

// ApplyToItem copies the request onto an item.
func (r ItemRequest) ApplyToItem(it *item.Item) *item.Item {
	if r.Code != "" {
		it.Code = r.Code
	}
	it.Name = r.Name
	it.HSNCode = r.HSNCode
	it.Category = r.Category
	it.UOMID = r.UOMID
	it.TaxCodeID = r.TaxCodeID
	it.TaxRate = r.TaxRate
	it.MRP = r.MRP
	it.SaleRate = r.SaleRate
	it.PurchaseRate = r.PurchaseRate
	it.ReorderLevel = r.ReorderLevel
	if r.BatchTracked != nil {
		it.BatchTracked = *r.BatchTracked
	}
	it.Barcode = r.Barcode
	if r.Version > 0 {
		it.Version = r.Version
	}
	return it
}

// --- Vendor ---

// VendorRequest is the body of vendor create and update.
type VendorRequest struct {
	Code             string `json:"code"`
	Name             string `json:"name" binding:"required,max=200"`
	ContactPerson    string `json:"contactPerson"`
	Phone            string `json:"phone" binding:"omitempty,phone"`
	Email            string `json:"email" binding:"omitempty,email"`
	GSTIN            string `json:"gstin" binding:"omitempty,gstin"`
	Address          string `json:"address"`
	PaymentTermsDays int    `json:"paymentTermsDays" binding:"min=0,max=365"`
	Version          int    `json:"version"`
}

// ToVendor builds a new vendor.
func (r VendorRequest) ToVendor() *vendor.Vendor {
	v := vendor.NewVendor(r.Code, r.Name)
	r.ApplyToVendor(v)
	return v
}

// ApplyToVendor copies the request onto a vendor.
func (r VendorRequest) ApplyToVendor(v *vendor.Vendor) *vendor.Vendor {
	if r.Code != "" {
		v.Code = r.Code
	}
	v.Name = r.Name
	v.ContactPerson = r.ContactPerson
	v.Phone = r.Phone
	v.Email = r.Email
	v.GSTIN = r.GSTIN
	v.Address = r.Address
	v.PaymentTermsDays = r.PaymentTermsDays
	if r.Version > 0 {
		v.Version = r.Version
	}
	return v
}

// --- Customer ---

// CustomerRequest is the body of customer create and update.
type CustomerRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name" binding:"required,max=200"`
	Phone       string          `json:"phone" binding:"omitempty,phone"`
	Email       string          `json:"email" binding:"omitempty,email"`
	Address     string          `json:"address"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	Version     int             `json:"version"`
}

// ToCustomer builds a new customer.
func (r CustomerRequest) ToCustomer() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	r.ApplyToCustomer(c)
	return c
}

// ApplyToCustomer copies the request onto a customer. Status has its own endpoint.
func (r CustomerRequest) ApplyToCustomer(c *customer.Customer) *customer.Customer {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.CreditLimit = r.CreditLimit
	if r.Version > 0 {
		c.Version = r.Version
	}
	return c
}

// CustomerStatusRequest activates or deactivates a customer.
type CustomerStatusRequest struct {
	Status customer.Status `json:"status" binding:"required,oneof=active inactive"`
}

// --- Tax code ---

// TaxCodeRequest is the body of tax create and update.
type TaxCodeRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name" binding:"required"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
	Version     int             `json:"version"`
}

// ToTaxCode builds a new tax code.
func (r TaxCodeRequest) ToTaxCode() *taxcode.TaxCode {
	return r.ApplyToTaxCode(taxcode.NewTaxCode(r.Code, r.Name, r.Rate))
}

// ApplyToTaxCode copies the request onto a tax code.
func (r TaxCodeRequest) ApplyToTaxCode(t *taxcode.TaxCode) *taxcode.TaxCode {
	if r.Code != "" {
		t.Code = r.Code
	}
	t.Name = r.Name
	t.Rate = r.Rate
	t.Description = r.Description
	if r.Version > 0 {
		t.Version = r.Version
	}
	return t
}

// --- Unit of measure ---

// UOMRequest is the body of unit create and update.
type UOMRequest struct {
	Code             string          `json:"code"`
	Name             string          `json:"name" binding:"required"`
	Symbol           string          `json:"symbol" binding:"required,max=16"`
	ConversionFactor decimal.Decimal `json:"conversionFactor"`
	BaseUOMID        *id.ID          `json:"baseUomId"`
	Version          int             `json:"version"`
}

// ToUOM builds a new unit.
func (r UOMRequest) ToUOM() *uom.UOM {
	return r.ApplyToUOM(uom.NewUOM(r.Code, r.Name, r.Symbol))
}

// ApplyToUOM copies the request onto a unit. A zero factor keeps the current one.
func (r UOMRequest) ApplyToUOM(u *uom.UOM) *uom.UOM {
	if r.Code != "" {
		u.Code = r.Code
	}
	u.Name = r.Name
	u.Symbol = r.Symbol
	if !r.ConversionFactor.IsZero() {
		u.ConversionFactor = r.ConversionFactor
	}
	u.BaseUOMID = r.BaseUOMID
	if r.Version > 0 {
		u.Version = r.Version
	}
	return u
}

// --- Location ---

// LocationRequest is the body of location create and update.
type LocationRequest struct {
	Code    string        `json:"code"`
	Name    string        `json:"name" binding:"required"`
	Kind    location.Kind `json:"kind" binding:"omitempty,oneof=store warehouse counter"`
	Address string        `json:"address"`
	Version int           `json:"version"`
}

// ToLocation builds a new location. The kind defaults to store.
func (r LocationRequest) ToLocation() *location.Location {
	kind := r.Kind
	if kind == "" {
		kind = location.KindStore
	}
	return r.ApplyToLocation(location.NewLocation(r.Code, r.Name, kind))
}

// ApplyToLocation copies the request onto a location.
func (r LocationRequest) ApplyToLocation(l *location.Location) *location.Location {
	if r.Code != "" {
		l.Code = r.Code
	}
	l.Name = r.Name
	if r.Kind != "" {
		l.Kind = r.Kind
	}
	l.Address = r.Address
	if r.Version > 0 {
		l.Version = r.Version
	}
	return l
}

// --- Department ---

// DepartmentRequest is the body of department create and update.
type DepartmentRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	HeadName string `json:"headName"`
	Version  int    `json:"version"`
}

// ToDepartment builds a new department.
func (r DepartmentRequest) ToDepartment() *department.Department {
	return r.ApplyToDepartment(department.NewDepartment(r.Code, r.Name))
}

// ApplyToDepartment copies the request onto a department.
func (r DepartmentRequest) ApplyToDepartment(d *department.Department) *department.Department {
	if r.Code != "" {
		d.Code = r.Code
	}
	d.Name = r.Name
	d.HeadName = r.HeadName
	if r.Version > 0 {
		d.Version = r.Version
	}
	return d
}
