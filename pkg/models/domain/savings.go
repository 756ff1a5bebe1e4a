package domain

type Category string

const (
	CategoryGrants    Category = "grants"
	CategoryLeases    Category = "leases"
	CategoryContracts Category = "contracts"
)

// DefaultCategories lists the savings categories in merge order.
var DefaultCategories = []Category{CategoryGrants, CategoryLeases, CategoryContracts}

// CategorySavings is the outcome of fetching one category. A failed fetch carries
// Err and no records.
type CategorySavings struct {
	Category Category
	Records  []Record
	Err      error
}
