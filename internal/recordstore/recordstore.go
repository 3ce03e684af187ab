// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package recordstore mirrors posts into a DynamoDB table.
//
// The table has a fixed partition key "qut-username" and the post UUID as
// sort key "postId". Every item written by this process uses the same
// partition value.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tomtom215/coffeechat/internal/logging"
	"github.com/tomtom215/coffeechat/internal/metrics"
	"github.com/tomtom215/coffeechat/internal/models"
)

// Key attribute names.
const (
	PartitionKey = "qut-username"
	SortKey      = "postId"
)

// ErrNotFound is returned by Get when no item matches.
var ErrNotFound = errors.New("record not found")

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// Store reads and writes post records in one table under one partition.
type Store struct {
	client    DynamoDBAPI
	table     string
	partition string
}

// New creates a Store for table with the fixed partition value.
func New(client DynamoDBAPI, table, partition string) *Store {
	return &Store{client: client, table: table, partition: partition}
}

// Partition returns the partition value written on every item.
func (s *Store) Partition() string {
	return s.partition
}

func (s *Store) key(postID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKey: &types.AttributeValueMemberS{Value: s.partition},
		SortKey:      &types.AttributeValueMemberS{Value: postID},
	}
}

// Put writes rec, replacing any item with the same key. The partition is
// always the store's own.
func (s *Store) Put(ctx context.Context, rec models.PostRecord) error {
	rec.Partition = s.partition
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.PostID, err)
	}

	done := metrics.ObserveExternalCall("dynamodb", "PutItem")
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to put record %s: %w", rec.PostID, err)
	}
	return nil
}

// Get returns the record for postID or ErrNotFound.
func (s *Store) Get(ctx context.Context, postID string) (*models.PostRecord, error) {
	done := metrics.ObserveExternalCall("dynamodb", "GetItem")
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(postID),
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", postID, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var rec models.PostRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", postID, err)
	}
	return &rec, nil
}

// Scan returns every item of one Scan page. An empty table yields an empty,
// non-nil slice.
func (s *Store) Scan(ctx context.Context) ([]models.PostRecord, error) {
	done := metrics.ObserveExternalCall("dynamodb", "Scan")
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
	}

	records := make([]models.PostRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scan of %s: %w", s.table, err)
	}
	if out.LastEvaluatedKey != nil {
		logging.Debug().Str("table", s.table).Int("items", len(records)).Msg("Scan returned a partial page")
	}
	return records, nil
}

// Delete removes the record for postID. Deleting a missing item succeeds.
func (s *Store) Delete(ctx context.Context, postID string) error {
	done := metrics.ObserveExternalCall("dynamodb", "DeleteItem")
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(postID),
	})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", postID, err)
	}
	return nil
}

// EnsureTable creates the table with its key schema when it does not
// exist and waits until it is active.
func (s *Store) EnsureTable(ctx context.Context, wait time.Duration) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", s.table, err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(SortKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(SortKey), KeyType: types.KeyTypeRange},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	logging.Info().Str("table", s.table).Msg("Created record table")

	if wait <= 0 {
		return nil
	}
	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, wait); err != nil {
		return fmt.Errorf("table %s did not become active: %w", s.table, err)
	}
	return nil
}
