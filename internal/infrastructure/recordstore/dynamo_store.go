package recordstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/pkg/logger"
)

// DynamoAPI is the slice of the DynamoDB client the store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps records in DynamoDB tables keyed by a string "id" attribute
type DynamoStore struct {
	api DynamoAPI
}

// NewDynamoStore creates a DynamoDB-backed record store
func NewDynamoStore(api DynamoAPI) *DynamoStore {
	return &DynamoStore{api: api}
}

func primaryKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		entities.RecordIDField: &types.AttributeValueMemberS{Value: id},
	}
}

// Get fetches one record by primary key
func (s *DynamoStore) Get(ctx context.Context, table, id string) (entities.Record, error) {
	if err := validateKey("dynamodb.get", table, id); err != nil {
		return nil, err
	}

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       primaryKey(id),
	})
	if err != nil {
		return nil, domainerrors.Transport("dynamodb.get", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, domainerrors.ErrNotFound
	}

	var record entities.Record
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, domainerrors.Transport("dynamodb.get", err)
	}
	return record, nil
}

// Put upserts a record; the record must already carry its id
func (s *DynamoStore) Put(ctx context.Context, table string, record entities.Record) (*entities.WriteAck, error) {
	id := record.ID()
	if err := validateKey("dynamodb.put", table, id); err != nil {
		return nil, err
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, domainerrors.Validation("dynamodb.put", err.Error())
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}); err != nil {
		return nil, domainerrors.Transport("dynamodb.put", err)
	}
	return &entities.WriteAck{Table: table, ID: id}, nil
}

// Scan returns the items of a single unpaginated Scan call. DynamoDB caps one page at
// 1 MB; a truncated result is logged and the first page is returned as is.
func (s *DynamoStore) Scan(ctx context.Context, table string) ([]entities.Record, error) {
	if table == "" {
		return nil, domainerrors.Validation("dynamodb.scan", "table is required")
	}

	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(table)})
	if err != nil {
		return nil, domainerrors.Transport("dynamodb.scan", err)
	}
	if out == nil || len(out.Items) == 0 {
		return []entities.Record{}, nil
	}
	if len(out.LastEvaluatedKey) > 0 {
		logger.Warn(ctx, "DynamoDB scan truncated, returning first page only",
			zap.String("table", table),
			zap.Int("items", len(out.Items)),
		)
	}

	records := make([]entities.Record, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, domainerrors.Transport("dynamodb.scan", err)
	}
	return records, nil
}

func validateKey(op, table, id string) error {
	if table == "" {
		return domainerrors.Validation(op, "table is required")
	}
	if id == "" {
		return domainerrors.Validation(op, "id is required")
	}
	return nil
}
