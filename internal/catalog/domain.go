// internal/catalog/domain.go
package catalog

// Category is an entry of the static merchant-category table.
type Category struct {
	ID   string `json:"id_categoria"`
	Name string `json:"nom_categoria"`
}

// Defaults seeded at startup when absent.
var Defaults = []Category{
	{ID: "cat001", Name: "Alimentação"},
	{ID: "cat002", Name: "Vestuário"},
	{ID: "cat003", Name: "Eletrônicos"},
	{ID: "cat004", Name: "Saúde e Beleza"},
	{ID: "cat005", Name: "Serviços"},
	{ID: "cat006", Name: "Outros"},
}
