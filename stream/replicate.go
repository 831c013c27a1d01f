// Package stream provides DynamoDB Streams handlers that replicate changes
// of the general tables into another store.
package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/jacentio/generaldb/internal/vkey"
	"github.com/jacentio/generaldb/store"
)

// ErrMissingImage is returned for an INSERT or MODIFY record without a new
// image, which happens when the stream view type is KEYS_ONLY.
var ErrMissingImage = errors.New("generaldb: stream record has no new image")

// Handler applies DynamoDB stream records of the general tables to a target store.
type Handler struct {
	target *store.Store
	logger zerolog.Logger
}

// NewHandler creates a new stream handler writing into target.
func NewHandler(target *store.Store, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handler{
		target: target,
		logger: *logger,
	}
}

// HandleReplication processes DynamoDB stream events from either general
// table and mirrors each change into the target store. The source table is
// taken from the event source ARN; its environment prefix is ignored.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleReplication(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error().
				Str("eventID", record.EventID).
				Err(err).
				Msg("failed to process record")
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord applies a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	source := TableFromARN(record.EventSourceArn)
	table, ok := generalTable(source)
	if !ok {
		h.logger.Warn().
			Str("eventID", record.EventID).
			Str("table", source).
			Msg("skipping record from unknown table")
		return nil
	}

	switch record.EventName {
	case "INSERT", "MODIFY":
		if len(record.Change.NewImage) == 0 {
			return fmt.Errorf("%s %s: %w", record.EventName, record.EventID, ErrMissingImage)
		}
		item, err := ConvertImage(record.Change.NewImage)
		if err != nil {
			return fmt.Errorf("convert new image: %w", err)
		}
		if err := h.target.PutRaw(ctx, table, item); err != nil {
			return err
		}

	case "REMOVE":
		key, err := ConvertImage(record.Change.Keys)
		if err != nil {
			return fmt.Errorf("convert keys: %w", err)
		}
		if err := h.target.DeleteRaw(ctx, table, key); err != nil {
			return err
		}

	default:
		return nil
	}

	sourceEnv, _ := vkey.Environment(source)
	h.logger.Debug().
		Str("event", record.EventName).
		Str("source", source).
		Str("sourceEnv", sourceEnv).
		Str("target", h.target.TableName(table)).
		Str("key", describeKeys(record.Change.Keys)).
		Msg("record replicated")
	return nil
}

// TableFromARN extracts the table name from a table or stream ARN such as
// "arn:aws:dynamodb:us-east-1:123456789012:table/TEST-generalsk/stream/2024-01-01T00:00:00.000".
func TableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

func generalTable(physical string) (store.Table, bool) {
	base, ok := vkey.BaseTable(physical)
	if !ok {
		return 0, false
	}
	if base == vkey.CompositeKeyTable {
		return store.GeneralDK, true
	}
	return store.GeneralSK, true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// describeKeys renders the general key attributes of a stream key for logging.
func describeKeys(keys map[string]events.DynamoDBAttributeValue) string {
	if k := getStringAttr(keys, vkey.SingleKeyAttr); k != "" {
		return k
	}
	return getStringAttr(keys, vkey.PartitionKeyAttr) + " / " + getStringAttr(keys, vkey.RangeKeyAttr)
}

// ConvertImage converts a DynamoDB stream image or key into SDK attribute values.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := ConvertAttribute(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		result[k] = av
	}
	return result, nil
}

// ConvertAttribute converts a single stream attribute value, recursing into
// lists and maps.
func ConvertAttribute(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, elem := range v.List() {
			av, err := ConvertAttribute(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case events.DataTypeMap:
		m, err := ConvertImage(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, fmt.Errorf("unsupported stream data type %d", v.DataType())
}
