// Package services содержит бизнес-логику каталога продуктов.
// Каталог минимален: подписки ссылаются на продукты по идентификатору.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// ProductRepository определяет методы для работы с продуктами в хранилище.
type ProductRepository interface {
	// CreateProduct добавляет новый продукт и возвращает его ID.
	CreateProduct(ctx context.Context, product models.Product) (int, error)
	// ListProducts возвращает все активные продукты.
	ListProducts(ctx context.Context) ([]*models.Product, error)
}

// ProductService реализует операции каталога продуктов.
type ProductService struct {
	repo ProductRepository
	log  *slog.Logger
}

// NewProductService создает новый экземпляр ProductService.
func NewProductService(repo ProductRepository, log *slog.Logger) *ProductService {
	return &ProductService{
		repo: repo,
		log:  log,
	}
}

// Create добавляет продукт в каталог и возвращает его ID.
func (s *ProductService) Create(ctx context.Context, req models.DummyProduct) (int, error) {
	const op = "services.product.Create"

	product := models.Product{
		Name:     req.Name,
		Price:    req.Price,
		IsActive: true,
	}
	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new product", slog.Int("id", id))
	return id, nil
}

// List возвращает все активные продукты каталога.
func (s *ProductService) List(ctx context.Context) ([]*models.Product, error) {
	const op = "services.product.List"
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}
