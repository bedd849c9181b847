package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// LineItem is a product reference from a checkout request.
type LineItem struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, translateProductError(err)
	}
	return product, nil
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return translateProductError(s.repo.Update(product))
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return translateProductError(s.repo.Delete(id))
}

// SnapshotItems copies the current name and price of every referenced product
// into order items. The copies are what the order keeps; later catalog edits
// do not reach them.
func (s *ProductService) SnapshotItems(lines []LineItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %s must be positive", ErrValidation, line.ProductID)
		}
		product, err := s.repo.GetByID(line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %s does not exist", ErrValidation, line.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}
	return items, nil
}

func translateProductError(err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
