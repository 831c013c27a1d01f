package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CopyReport counts the items written by CopyAll.
type CopyReport struct {
	SingleKey    int
	CompositeKey int
}

// Total returns the number of items copied across both tables.
func (r CopyReport) Total() int {
	return r.SingleKey + r.CompositeKey
}

// CopySingleKeyTable copies every item of this store's single-key table into
// target's, overwriting items with equal keys. Items only present in target
// are kept. The number of items written is returned even on error.
func (s *Store) CopySingleKeyTable(ctx context.Context, target *Store) (int, error) {
	return s.copyTable(ctx, target, GeneralSK)
}

// CopyCompositeKeyTable copies every item of this store's composite-key table
// into target's. See CopySingleKeyTable.
func (s *Store) CopyCompositeKeyTable(ctx context.Context, target *Store) (int, error) {
	return s.copyTable(ctx, target, GeneralDK)
}

// CopyAll copies both tables into target, single-key table first.
func (s *Store) CopyAll(ctx context.Context, target *Store) (CopyReport, error) {
	var report CopyReport
	var err error

	report.SingleKey, err = s.CopySingleKeyTable(ctx, target)
	if err != nil {
		return report, err
	}
	report.CompositeKey, err = s.CopyCompositeKeyTable(ctx, target)
	return report, err
}

func (s *Store) copyTable(ctx context.Context, target *Store, t Table) (int, error) {
	if target == nil {
		return 0, ErrNilTarget
	}
	if target == s || (target.env == s.env && sameClient(target.client, s.client)) {
		return 0, ErrSameStore
	}

	src, dst := s.TableName(t), target.TableName(t)
	s.log.Info().Str("source", src).Str("target", dst).Msg("copy started")

	copied := 0
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(src),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return copied, fmt.Errorf("scan %s: %w", src, err)
		}
		for _, item := range page.Items {
			if err := target.PutRaw(ctx, t, item); err != nil {
				return copied, err
			}
			copied++
			s.trace().
				Str("target", dst).
				Str("key", describeKey(t, item)).
				Msg("item copied")
		}
	}

	s.log.Info().
		Str("source", src).
		Str("target", dst).
		Int("items", copied).
		Msg("copy finished")
	return copied, nil
}

// sameClient reports whether a and b are the same client. Clients whose
// dynamic values cannot be compared are treated as distinct.
func sameClient(a, b Client) bool {
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

// describeKey renders the key attributes of item for logging.
func describeKey(t Table, item map[string]types.AttributeValue) string {
	parts := make([]string, 0, 2)
	for _, name := range t.KeyAttributes() {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			parts = append(parts, v.Value)
		}
	}
	return strings.Join(parts, " / ")
}
