package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Kind identifies the representation of an attribute value.
type Kind int

const (
	// KindChar is a plain string stored as a DynamoDB string.
	KindChar Kind = iota
	// KindInt is a 32-bit integer stored as a DynamoDB number.
	KindInt
	// KindJSON is a JSON document stored as a native DynamoDB map or list.
	KindJSON
	// KindShort is a 16-bit integer stored as a DynamoDB number.
	KindShort
)

var kindNames = [...]string{
	KindChar:  "CHAR",
	KindInt:   "INT",
	KindJSON:  "JSON",
	KindShort: "SHORT",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind parses a kind name such as "CHAR" or "json".
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrTypeMismatch, s)
}

// Value is an attribute value of one of the four supported kinds.
// It is implemented only by Char, Int, Short and JSON.
type Value interface {
	Kind() Kind
	String() string
	marshal() (types.AttributeValue, error)
}

// Char is a string value.
type Char string

// Int is a 32-bit integer value.
type Int int32

// Short is a 16-bit integer value.
type Short int16

// JSON is a serialized JSON document.
type JSON string

func (Char) Kind() Kind  { return KindChar }
func (Int) Kind() Kind   { return KindInt }
func (Short) Kind() Kind { return KindShort }
func (JSON) Kind() Kind  { return KindJSON }

func (v Char) String() string  { return string(v) }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Short) String() string { return strconv.FormatInt(int64(v), 10) }
func (v JSON) String() string  { return string(v) }

func (v Char) marshal() (types.AttributeValue, error)  { return attributevalue.Marshal(string(v)) }
func (v Int) marshal() (types.AttributeValue, error)   { return attributevalue.Marshal(int32(v)) }
func (v Short) marshal() (types.AttributeValue, error) { return attributevalue.Marshal(int16(v)) }

func (v JSON) marshal() (types.AttributeValue, error) {
	dec := json.NewDecoder(strings.NewReader(string(v)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return documentToAttributeValue(doc)
}

// Attribute is a named value written to a record.
type Attribute struct {
	Name  string
	Value Value
}

// Attr returns an Attribute with the given name and value.
func Attr(name string, value Value) Attribute {
	return Attribute{Name: name, Value: value}
}

func (a Attribute) String() string {
	if a.Value == nil {
		return "Attribute [name=" + a.Name + ", Type=<nil>, value=<nil>]"
	}
	return fmt.Sprintf("Attribute [name=%s, Type=%s, value=%s]", a.Name, a.Value.Kind(), a.Value)
}

// Field names an attribute to read and the kind it is expected to hold.
type Field struct {
	Name string
	Kind Kind
}

// FieldOf returns a Field with the given name and kind.
func FieldOf(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

func (f Field) String() string {
	return fmt.Sprintf("Attribute [name=%s, Type=%s, value=null]", f.Name, f.Kind)
}

// marshalAttributes writes attrs into item. Later attributes with the same
// name overwrite earlier ones.
func marshalAttributes(item map[string]types.AttributeValue, attrs []Attribute) error {
	for _, a := range attrs {
		if a.Name == "" {
			return ErrEmptyAttributeName
		}
		if a.Value == nil {
			return fmt.Errorf("attribute %s: %w", a.Name, ErrNilValue)
		}
		av, err := a.Value.marshal()
		if err != nil {
			return fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		item[a.Name] = av
	}
	return nil
}

// unmarshalField extracts f from item according to f.Kind.
func unmarshalField(item map[string]types.AttributeValue, f Field) (Value, error) {
	av, ok := item[f.Name]
	if !ok {
		return nil, fmt.Errorf("attribute %s: %w", f.Name, ErrAttributeNotFound)
	}

	switch f.Kind {
	case KindChar:
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return nil, mismatch(f, av)
		}
		return Char(s.Value), nil

	case KindInt:
		var n int32
		if err := unmarshalNumber(av, &n); err != nil {
			return nil, mismatchErr(f, err)
		}
		return Int(n), nil

	case KindShort:
		var n int16
		if err := unmarshalNumber(av, &n); err != nil {
			return nil, mismatchErr(f, err)
		}
		return Short(n), nil

	case KindJSON:
		doc, err := attributeValueToDocument(av)
		if err != nil {
			return nil, mismatchErr(f, err)
		}
		text, err := encodeDocument(doc)
		if err != nil {
			return nil, mismatchErr(f, err)
		}
		return JSON(fixEmptyStrings(text)), nil
	}

	return nil, fmt.Errorf("attribute %s: %w: unknown kind %d", f.Name, ErrTypeMismatch, int(f.Kind))
}

func unmarshalNumber(av types.AttributeValue, out any) error {
	if _, ok := av.(*types.AttributeValueMemberN); !ok {
		return fmt.Errorf("stored value is %T, not a number", av)
	}
	return attributevalue.Unmarshal(av, out)
}

func mismatch(f Field, av types.AttributeValue) error {
	return fmt.Errorf("attribute %s: %w: want %s, stored %T", f.Name, ErrTypeMismatch, f.Kind, av)
}

func mismatchErr(f Field, err error) error {
	return fmt.Errorf("attribute %s: %w: want %s: %v", f.Name, ErrTypeMismatch, f.Kind, err)
}

// fixEmptyStrings rewrites `" "` as `""`. Records written by older clients
// hold a single space where an empty JSON string was intended.
func fixEmptyStrings(text string) string {
	return strings.ReplaceAll(text, `" "`, `""`)
}

// documentToAttributeValue converts a decoded JSON document (as produced by
// a json.Decoder with UseNumber) into a native DynamoDB value.
func documentToAttributeValue(doc any) (types.AttributeValue, error) {
	switch v := doc.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: v.String()}, nil
	case []any:
		list := make([]types.AttributeValue, 0, len(v))
		for _, elem := range v {
			av, err := documentToAttributeValue(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case map[string]any:
		m := make(map[string]types.AttributeValue, len(v))
		for k, elem := range v {
			av, err := documentToAttributeValue(elem)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	}
	return nil, fmt.Errorf("%w: unsupported document value %T", ErrInvalidJSON, doc)
}

// attributeValueToDocument converts a stored DynamoDB value back into a
// JSON-encodable document.
func attributeValueToDocument(av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return json.Number(v.Value), nil
	case *types.AttributeValueMemberSS:
		return v.Value, nil
	case *types.AttributeValueMemberNS:
		nums := make([]json.Number, len(v.Value))
		for i, n := range v.Value {
			nums[i] = json.Number(n)
		}
		return nums, nil
	case *types.AttributeValueMemberL:
		list := make([]any, 0, len(v.Value))
		for _, elem := range v.Value {
			doc, err := attributeValueToDocument(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, doc)
		}
		return list, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(v.Value))
		for k, elem := range v.Value {
			doc, err := attributeValueToDocument(elem)
			if err != nil {
				return nil, err
			}
			m[k] = doc
		}
		return m, nil
	}
	return nil, errors.New("stored value has no JSON representation")
}

// encodeDocument serializes doc as compact JSON without HTML escaping.
func encodeDocument(doc any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
