package clients

import (
	"context"

	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jimlawless/whereami"
)

// NewDynamoDBClient создаёт клиент DynamoDB. Регион и ключи берутся из cfg, остальное
// из стандартной цепочки AWS (env, shared config, IAM role).
// Если задан Endpoint (DynamoDB Local), запросы идут на него.
func NewDynamoDBClient(ctx context.Context, cfg *cfg.DynamoCfg) (*dynamodb.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// PingDynamoDB проверяет, что таблица существует и доступна.
func PingDynamoDB(ctx context.Context, client *dynamodb.Client, table string) error {
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
