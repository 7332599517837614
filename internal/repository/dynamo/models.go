package dynamo

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// ProductItem — представление продукта в таблице DynamoDB.
// Таймстемпы хранятся строками RFC3339 с микросекундами.
type ProductItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description"`
	Price       Price  `dynamodbav:"price"`
	Stock       int64  `dynamodbav:"stock"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Price хранит decimal как DynamoDB Number (N) без промежуточного float64.
type Price decimal.Decimal

func (p Price) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: decimal.Decimal(p).String()}, nil
}

func (p *Price) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var raw string
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		raw = v.Value
	case *types.AttributeValueMemberS:
		raw = v.Value
	case *types.AttributeValueMemberNULL:
		*p = Price(decimal.Zero)
		return nil
	default:
		return fmt.Errorf("unexpected price attribute type %T", av)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*p = Price(d)
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return domain.NormalizeTime(t), nil
}

func toItem(p *domain.Product) *ProductItem {
	return &ProductItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Price(p.Price),
		Stock:       p.Stock,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toEntity(item *ProductItem) (*domain.Product, error) {
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at of %s: %w", item.ID, err)
	}
	updatedAt, err := parseTime(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updated_at of %s: %w", item.ID, err)
	}

	return &domain.Product{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       decimal.Decimal(item.Price),
		Stock:       item.Stock,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
