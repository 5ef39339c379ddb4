package item

import "pharmacy/internal/domain"

func domainFilterAll() domain.ListFilter {
	return domain.ListFilter{IncludeDeleted: true}
}
