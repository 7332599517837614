package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo хранит элементы в map и отдаёт Scan страницами по pageSize.
type fakeDynamo struct {
	items     map[string]map[string]types.AttributeValue
	order     []string
	pageSize  int
	lastPut   *dynamodb.PutItemInput
	lastUpd   *dynamodb.UpdateItemInput
	updateOut *dynamodb.UpdateItemOutput
	updateErr error
	scanCalls int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 100}
}

func keyOf(k map[string]types.AttributeValue) string {
	return k["id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	id := keyOf(in.Item)
	if _, ok := f.items[id]; !ok {
		f.order = append(f.order, id)
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpd = in
	return f.updateOut, f.updateErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scanCalls++
	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		for i, id := range f.order {
			if id == last {
				start = i + 1
			}
		}
	}
	end := min(start+f.pageSize, len(f.order))

	out := &dynamodb.ScanOutput{}
	for _, id := range f.order[start:end] {
		out.Items = append(out.Items, f.items[id])
	}
	if end < len(f.order) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: f.order[end-1]},
		}
	}
	return out, nil
}

func sampleProduct(id string) *domain.Product {
	now := domain.NormalizeTime(time.Date(2024, 3, 4, 5, 6, 7, 891011000, time.UTC))
	return domain.NewProduct(id, "Widget", "desc", decimal.RequireFromString("19.99"), 4, now)
}

func TestProductRepo_PutGetRoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewProductRepo(fake, "ProductsTable")
	ctx := context.Background()
	in := sampleProduct("p1")

	require.NoError(t, repo.Put(ctx, in))

	price, ok := fake.lastPut.Item["price"].(*types.AttributeValueMemberN)
	require.True(t, ok, "price must be stored as a number")
	assert.Equal(t, "19.99", price.Value)
	assert.Equal(t, "ProductsTable", aws.ToString(fake.lastPut.TableName))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, "19.99", got.Price.String())
	assert.True(t, in.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, in.UpdatedAt.Equal(got.UpdatedAt))
}

func TestProductRepo_GetMissing(t *testing.T) {
	repo := NewProductRepo(newFakeDynamo(), "t")

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestBuildUpdateExpression_OnlySuppliedFields(t *testing.T) {
	stock := int64(5)
	expr, err := buildUpdateExpression(&domain.ProductPatch{Stock: &stock, UpdatedAt: time.Now()})
	require.NoError(t, err)

	names := make([]string, 0)
	for _, n := range expr.Names() {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"updated_at", "stock", "id"}, names)
	assert.NotNil(t, expr.Condition())
	assert.Contains(t, aws.ToString(expr.Condition()), "attribute_exists")
}

func TestProductRepo_ConditionalUpdate(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewProductRepo(fake, "t")
	updated := sampleProduct("p1")
	updated.Stock = 5
	attrs, err := attributevalue.MarshalMap(toItem(updated))
	require.NoError(t, err)
	fake.updateOut = &dynamodb.UpdateItemOutput{Attributes: attrs}

	stock := int64(5)
	got, err := repo.ConditionalUpdate(context.Background(), "p1", &domain.ProductPatch{Stock: &stock, UpdatedAt: updated.UpdatedAt})
	require.NoError(t, err)

	assert.Equal(t, int64(5), got.Stock)
	assert.Equal(t, types.ReturnValueAllNew, fake.lastUpd.ReturnValues)
	assert.NotNil(t, fake.lastUpd.ConditionExpression)
}

func TestProductRepo_ConditionalUpdateErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind e.Kind
	}{
		{"condition failed", &types.ConditionalCheckFailedException{Message: aws.String("gone")}, e.KindNotFound},
		{"throttled", &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}, e.KindStorage},
		{"generic", errors.New("connection reset"), e.KindStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeDynamo()
			fake.updateErr = tt.err
			repo := NewProductRepo(fake, "t")

			_, err := repo.ConditionalUpdate(context.Background(), "p1", &domain.ProductPatch{UpdatedAt: time.Now()})
			assert.Equal(t, tt.kind, e.KindOf(err))
		})
	}
}

func TestProductRepo_ScanAllFollowsPages(t *testing.T) {
	fake := newFakeDynamo()
	fake.pageSize = 2
	repo := NewProductRepo(fake, "t")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repo.Put(ctx, sampleProduct(id)))
	}

	all, err := repo.ScanAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 3, fake.scanCalls)
}

func TestProductRepo_Delete(t *testing.T) {
	fake := newFakeDynamo()
	repo := NewProductRepo(fake, "t")
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, sampleProduct("p1")))
	require.NoError(t, repo.Delete(ctx, "p1"))

	_, err := repo.Get(ctx, "p1")
	assert.ErrorIs(t, err, e.ErrNotFound)
}
