// Package department provides the Department catalog (wards, OT, OPD) used by
// purchase requests and consumption issues.
package department

import (
	"pharmacy/internal/core/entity"
)

// Department consumes stock and raises purchase requests.
type Department struct {
	entity.Catalog

	HeadName string `db:"head_name" json:"headName,omitempty"`
}

// NewDepartment creates a department.
func NewDepartment(code, name string) *Department {
	return &Department{Catalog: entity.NewCatalog(code, name)}
}
