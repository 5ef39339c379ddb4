// Package filter describes ad-hoc list filters sent by clients as JSON.
package filter

// ComparisonType is the comparison applied to a field.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%

	IsNull    ComparisonType = "null"
	IsNotNull ComparisonType = "not_null"
)

// Item is one filter row.
type Item struct {
	Field    string         `json:"field"` // snake_case column name
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}
