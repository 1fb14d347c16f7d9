package repositories

import (
	"github.com/brunomedeirosisi/pos/db/models"

	bleveindex "github.com/brunomedeirosisi/pos/bleve/services"
)

type CatalogIndexRepository struct {
	indexer *bleveindex.IndexingService
}

type CatalogIndexRepositoryInterface interface {
	// ==== Product Indexing ====
	IndexSingleProduct(product models.Product) error
	IndexExistingProducts(products []models.Product) error

	// ==== Customer Indexing ====
	IndexSingleCustomer(customer models.Customer) error
	IndexExistingCustomers(customers []models.Customer) error
}

// Constructor returning both the struct and the interface
func NewCatalogIndexRepository(indexer *bleveindex.IndexingService) (*CatalogIndexRepository, CatalogIndexRepositoryInterface) {
	repo := &CatalogIndexRepository{indexer: indexer}
	return repo, repo
}

type productDocument struct {
	Name       string `json:"name"`
	LegacyCode string `json:"legacy_code"`
	Status     string `json:"status"`
}

type customerDocument struct {
	Name       string `json:"name"`
	City       string `json:"city"`
	TaxID      string `json:"tax_id"`
	LegacyCode string `json:"legacy_code"`
	Status     string `json:"status"`
}

func (r *CatalogIndexRepository) IndexSingleProduct(product models.Product) error {
	return r.indexer.IndexDocument("products", product.ID.String(), newProductDocument(product))
}

func (r *CatalogIndexRepository) IndexExistingProducts(products []models.Product) error {
	documents := make(map[string]interface{}, len(products))
	for _, product := range products {
		documents[product.ID.String()] = newProductDocument(product)
	}
	return r.indexer.BulkIndexDocuments("products", documents)
}

func (r *CatalogIndexRepository) IndexSingleCustomer(customer models.Customer) error {
	return r.indexer.IndexDocument("customers", customer.ID.String(), newCustomerDocument(customer))
}

func (r *CatalogIndexRepository) IndexExistingCustomers(customers []models.Customer) error {
	documents := make(map[string]interface{}, len(customers))
	for _, customer := range customers {
		documents[customer.ID.String()] = newCustomerDocument(customer)
	}
	return r.indexer.BulkIndexDocuments("customers", documents)
}

func newProductDocument(product models.Product) productDocument {
	doc := productDocument{
		Name:   product.Name,
		Status: product.Status,
	}
	if product.LegacyCode != nil {
		doc.LegacyCode = *product.LegacyCode
	}
	return doc
}

func newCustomerDocument(customer models.Customer) customerDocument {
	doc := customerDocument{
		Name:   customer.Name,
		Status: customer.Status,
	}
	if customer.City != nil {
		doc.City = *customer.City
	}
	if customer.TaxID != nil {
		doc.TaxID = *customer.TaxID
	}
	if customer.LegacyCode != nil {
		doc.LegacyCode = *customer.LegacyCode
	}
	return doc
}
