package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// cacheFillTimeout ограничивает фоновое заполнение кэша после чтения из хранилища.
const cacheFillTimeout = 500 * time.Millisecond

// ProductUseCase реализует CRUD над продуктами поверх key-value хранилища.
// Собственной блокировки нет: атомарность отдельной операции обеспечивает хранилище.
type ProductUseCase struct {
	productRepo ProductRepository
	cacheRepo   CacheRepository
	publisher   EventPublisher
	logger      logger.Logger
	validate    *validator.Validate
	now         func() time.Time
}

// NewProductUC создаёт usecase. cacheRepo и publisher могут быть nil, тогда кэш и события отключены.
func NewProductUC(
	productRepo ProductRepository,
	cacheRepo CacheRepository,
	publisher EventPublisher,
	logger logger.Logger,
) *ProductUseCase {
	if cacheRepo == nil {
		cacheRepo = nopCache{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &ProductUseCase{
		productRepo: productRepo,
		cacheRepo:   cacheRepo,
		publisher:   publisher,
		logger:      logger,
		validate:    validator.New(),
		now: func() time.Time {
			return domain.NormalizeTime(time.Now())
		},
	}
}

// ListProducts возвращает всю коллекцию, отсортированную по ID.
func (p *ProductUseCase) ListProducts(ctx context.Context) (*ListProductsRes, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.ScanAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})

	return NewListProductsRes(products), nil
}

// GetProduct возвращает продукт по ID, сначала заглядывая в кэш.
func (p *ProductUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := p.cacheRepo.GetProduct(ctx, id)
	if err != nil {
		p.logger.Warnf("cache lookup failed, product_id: %s: %v", id, e.Wrap(op, err))
	} else if cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Фоновое добавление продукта в кэш. Таймаут отсчитывается от момента чтения:
	// кэш хранит метку инвалидации дольше cacheFillTimeout, поэтому устаревшая
	// запись не переживёт конкурентное удаление или обновление.
	fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheFillTimeout)
	go func(product domain.Product) {
		defer cancel()

		if err := p.cacheRepo.SetProduct(fillCtx, &product); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}(*product)

	return product, nil
}

// CreateProduct создаёт продукт. Существующая запись с тем же ID перезаписывается.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateCreate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	product := domain.NewProduct(req.ID, req.Name, req.Description, req.Price, req.Stock, p.now())
	if err := p.productRepo.Put(ctx, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, op, product.ID)
	p.publish(ctx, op, NewProductEvent(ProductCreated, product.ID, product, product.UpdatedAt))

	return product, nil
}

// UpdateProduct меняет только переданные поля и всегда обновляет updated_at.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := p.validateUpdate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	existing, err := p.productRepo.Get(ctx, req.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// updated_at строго возрастает даже при совпадении часов
	now := p.now()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(domain.TimestampPrecision)
	}

	patch := &domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		UpdatedAt:   now,
	}

	updated, err := p.productRepo.ConditionalUpdate(ctx, req.ID, patch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, op, req.ID)
	p.publish(ctx, op, NewProductEvent(ProductUpdated, updated.ID, updated, updated.UpdatedAt))

	return updated, nil
}

// DeleteProduct удаляет продукт без tombstone'ов.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	if _, err := p.productRepo.Get(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	if err := p.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidate(ctx, op, id)
	p.publish(ctx, op, NewProductEvent(ProductDeleted, id, nil, p.now()))

	return nil
}

// validateCreate проверяет обязательные поля запроса на создание.
// Непустые ID и name сохраняются как есть, без обрезки пробелов.
func (p *ProductUseCase) validateCreate(req *CreateProductReq) error {
	if isBlank(req.ID) || isBlank(req.Name) {
		return e.ErrMissingFields
	}

	if err := p.validate.Struct(req); err != nil {
		return validationError(err)
	}

	if req.Price.IsNegative() {
		return e.ErrNegativePrice
	}

	return nil
}

// validateUpdate проверяет только переданные поля.
func (p *ProductUseCase) validateUpdate(req *UpdateProductReq) error {
	if req.Name != nil && isBlank(*req.Name) {
		return e.ErrProductNameRequired
	}

	if err := p.validate.Struct(req); err != nil {
		return validationError(err)
	}

	if req.Price != nil && req.Price.IsNegative() {
		return e.ErrNegativePrice
	}

	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validationError переводит ошибки validator'а в закрытый набор ошибок пакета e.
func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return e.Wrap(err.Error(), e.ErrValidation)
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "ID", "Name":
			if fe.Tag() == "required" {
				return e.ErrMissingFields
			}
			return e.ErrProductNameRequired
		case "Stock":
			return e.ErrNegativeStock
		}
	}

	return e.Wrap(verrs.Error(), e.ErrValidation)
}

func (p *ProductUseCase) invalidate(ctx context.Context, op, id string) {
	if err := p.cacheRepo.DeleteProduct(ctx, id); err != nil {
		p.logger.Warnf("Failed to delete product from cache: %v", e.Wrap(op, err))
	}
}

// publish отправляет событие. Ошибка публикации не отменяет уже выполненную запись.
func (p *ProductUseCase) publish(ctx context.Context, op string, event *ProductEvent) {
	if err := p.publisher.PublishProductEvent(ctx, event); err != nil {
		p.logger.Warnf("Failed to publish %s event, product_id: %s: %v", event.Type, event.ProductID, e.Wrap(op, err))
	}
}

type nopCache struct{}

func (nopCache) GetProduct(context.Context, string) (*domain.Product, error) { return nil, nil }
func (nopCache) SetProduct(context.Context, *domain.Product) error           { return nil }
func (nopCache) DeleteProduct(context.Context, string) error                 { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishProductEvent(context.Context, *ProductEvent) error { return nil }
