package dynamo

import (
	"context"
	"errors"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jimlawless/whereami"
)

// API — подмножество *dynamodb.Client, которое использует репозиторий.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ProductRepo реализует репозиторий продуктов поверх таблицы DynamoDB с ключом id.
type ProductRepo struct {
	client API
	table  string
}

func NewProductRepo(client API, table string) *ProductRepo {
	return &ProductRepo{client: client, table: table}
}

func (r *ProductRepo) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// Get читает продукт строго согласованным чтением.
func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	if len(out.Item) == 0 {
		return nil, e.ErrProductNotFound
	}

	return r.unmarshal(out.Item)
}

// Put безусловно записывает продукт целиком.
func (r *ProductRepo) Put(ctx context.Context, product *domain.Product) error {
	item, err := attributevalue.MarshalMap(toItem(product))
	if err != nil {
		return e.Storage(whereami.WhereAmI(), err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return e.Storage(whereami.WhereAmI(), err)
	}

	return nil
}

// ConditionalUpdate обновляет только поля из patch при условии, что запись существует.
func (r *ProductRepo) ConditionalUpdate(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	expr, err := buildUpdateExpression(patch)
	if err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       r.key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	return r.unmarshal(out.Attributes)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       r.key(id),
	}); err != nil {
		return e.Storage(whereami.WhereAmI(), err)
	}

	return nil
}

// ScanAll проходит все страницы Scan. Без пагинации для клиента: вся таблица в памяти.
func (r *ProductRepo) ScanAll(ctx context.Context) ([]domain.Product, error) {
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})

	result := make([]domain.Product, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, e.Storage(whereami.WhereAmI(), err)
		}

		for _, raw := range page.Items {
			product, err := r.unmarshal(raw)
			if err != nil {
				return nil, err
			}
			result = append(result, *product)
		}
	}

	return result, nil
}

func (r *ProductRepo) unmarshal(raw map[string]types.AttributeValue) (*domain.Product, error) {
	var item ProductItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	product, err := toEntity(&item)
	if err != nil {
		return nil, e.Storage(whereami.WhereAmI(), err)
	}

	return product, nil
}

// buildUpdateExpression собирает SET-выражение: updated_at всегда, остальные поля — только переданные.
func buildUpdateExpression(patch *domain.ProductPatch) (expression.Expression, error) {
	update := expression.Set(expression.Name("updated_at"), expression.Value(formatTime(patch.UpdatedAt)))

	if patch.Name != nil {
		update = update.Set(expression.Name("name"), expression.Value(*patch.Name))
	}
	if patch.Description != nil {
		update = update.Set(expression.Name("description"), expression.Value(*patch.Description))
	}
	if patch.Price != nil {
		update = update.Set(expression.Name("price"), expression.Value(Price(*patch.Price)))
	}
	if patch.Stock != nil {
		update = update.Set(expression.Name("stock"), expression.Value(*patch.Stock))
	}

	return expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
}
