package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmacy/internal/core/entity"
	"pharmacy/internal/core/id"
)

type mockItem struct {
	entity.Catalog
	Barcode string `db:"barcode"`
	Notes   string `db:"-"`
	Scratch string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockItem]()

	assert.Equal(t, []string{"id", "deletion_mark", "version", "code", "name", "barcode"}, cols)
	assert.NotContains(t, cols, "-")
}

func TestStructToMap_Embedded(t *testing.T) {
	it := &mockItem{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{ID: id.New(), DeletionMark: true, Version: 5},
			},
			Code: "PARA500",
			Name: "Paracetamol 500",
		},
		Barcode: "8901234567890",
		Notes:   "ignored",
	}

	m := StructToMap(it)

	assert.Equal(t, it.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PARA500", m["code"])
	assert.Equal(t, "8901234567890", m["barcode"])
	assert.Len(t, m, 6)
}
