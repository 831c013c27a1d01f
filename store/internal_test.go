package store

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- fixEmptyStrings Tests ---

func TestFixEmptyStrings(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"no change", `{"a":"b"}`, `{"a":"b"}`},
		{"space value", `{"a":" "}`, `{"a":""}`},
		{"space in list", `[" "," "]`, `["",""]`},
		{"inner spaces kept", `{"a":"x y"}`, `{"a":"x y"}`},
		{"two spaces kept", `{"a":"  "}`, `{"a":"  "}`},
		{"empty", ``, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fixEmptyStrings(tt.in)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

// --- Kind Tests ---

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindChar:  "CHAR",
		KindInt:   "INT",
		KindJSON:  "JSON",
		KindShort: "SHORT",
		Kind(9):   "Kind(9)",
	}
	for k, expected := range tests {
		if k.String() != expected {
			t.Errorf("expected %q, got %q", expected, k.String())
		}
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != KindJSON {
		t.Errorf("expected JSON, got %s", k)
	}

	if _, err := ParseKind("BLOB"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestAttribute_String(t *testing.T) {
	a := Attr("age", Int(29))
	if a.String() != "Attribute [name=age, Type=INT, value=29]" {
		t.Errorf("unexpected form %q", a.String())
	}

	f := FieldOf("name", KindChar)
	if f.String() != "Attribute [name=name, Type=CHAR, value=null]" {
		t.Errorf("unexpected form %q", f.String())
	}
}

// --- marshalAttributes Tests ---

func TestMarshalAttributes_NativeTypes(t *testing.T) {
	item := map[string]types.AttributeValue{}
	err := marshalAttributes(item, []Attribute{
		Attr("name", Char("John")),
		Attr("age", Int(29)),
		Attr("qty", Short(-3)),
		Attr("doc", JSON(`{"n":1.50,"ok":true,"none":null,"list":["x"]}`)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s, ok := item["name"].(*types.AttributeValueMemberS); !ok || s.Value != "John" {
		t.Errorf("expected S John, got %#v", item["name"])
	}
	if n, ok := item["age"].(*types.AttributeValueMemberN); !ok || n.Value != "29" {
		t.Errorf("expected N 29, got %#v", item["age"])
	}
	if n, ok := item["qty"].(*types.AttributeValueMemberN); !ok || n.Value != "-3" {
		t.Errorf("expected N -3, got %#v", item["qty"])
	}

	doc, ok := item["doc"].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("expected M, got %T", item["doc"])
	}
	if n, ok := doc.Value["n"].(*types.AttributeValueMemberN); !ok || n.Value != "1.50" {
		t.Errorf("expected exact decimal text 1.50, got %#v", doc.Value["n"])
	}
	if b, ok := doc.Value["ok"].(*types.AttributeValueMemberBOOL); !ok || !b.Value {
		t.Errorf("expected BOOL true, got %#v", doc.Value["ok"])
	}
	if _, ok := doc.Value["none"].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("expected NULL, got %#v", doc.Value["none"])
	}
	if _, ok := doc.Value["list"].(*types.AttributeValueMemberL); !ok {
		t.Errorf("expected L, got %#v", doc.Value["list"])
	}
}

func TestMarshalAttributes_LaterWins(t *testing.T) {
	item := map[string]types.AttributeValue{}
	err := marshalAttributes(item, []Attribute{Attr("a", Char("1")), Attr("a", Char("2"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := item["a"].(*types.AttributeValueMemberS); s.Value != "2" {
		t.Errorf("expected 2, got %q", s.Value)
	}
}

func TestMarshalAttributes_TrailingJSON(t *testing.T) {
	err := marshalAttributes(map[string]types.AttributeValue{}, []Attribute{Attr("doc", JSON(`{} {}`))})
	if !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}
}

// --- unmarshalField Tests ---

func TestUnmarshalField_Missing(t *testing.T) {
	_, err := unmarshalField(map[string]types.AttributeValue{}, FieldOf("x", KindChar))
	if !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("expected ErrAttributeNotFound, got %v", err)
	}
}

func TestUnmarshalField_IntOverflow(t *testing.T) {
	item := map[string]types.AttributeValue{
		"n": &types.AttributeValueMemberN{Value: "4294967296"},
	}
	if _, err := unmarshalField(item, FieldOf("n", KindInt)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestUnmarshalField_NumberFromString(t *testing.T) {
	item := map[string]types.AttributeValue{
		"n": &types.AttributeValueMemberS{Value: "12"},
	}
	if _, err := unmarshalField(item, FieldOf("n", KindInt)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestUnmarshalField_JSONFromBinary(t *testing.T) {
	item := map[string]types.AttributeValue{
		"b": &types.AttributeValueMemberB{Value: []byte{1}},
	}
	if _, err := unmarshalField(item, FieldOf("b", KindJSON)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestUnmarshalField_JSONFromSets(t *testing.T) {
	item := map[string]types.AttributeValue{
		"ss": &types.AttributeValueMemberSS{Value: []string{"a", " "}},
		"ns": &types.AttributeValueMemberNS{Value: []string{"1", "2.0"}},
	}

	v, err := unmarshalField(item, FieldOf("ss", KindJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != JSON(`["a",""]`) {
		t.Errorf("expected corrected set, got %q", v)
	}

	v, err = unmarshalField(item, FieldOf("ns", KindJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != JSON(`[1,2.0]`) {
		t.Errorf("expected [1,2.0], got %q", v)
	}
}

func TestUnmarshalField_UnknownKind(t *testing.T) {
	item := map[string]types.AttributeValue{"x": &types.AttributeValueMemberS{Value: "x"}}
	if _, err := unmarshalField(item, Field{Name: "x", Kind: Kind(42)}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

// --- document conversion Tests ---

func TestDocumentRoundTrip(t *testing.T) {
	text := `{"a":[1,{"b":null}],"c":"<d>","e":false}`

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	av, err := documentToAttributeValue(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := attributeValueToDocument(av)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := encodeDocument(back)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != text {
		t.Errorf("expected %s, got %s", text, out)
	}
}

func TestDocumentToAttributeValue_Unsupported(t *testing.T) {
	if _, err := documentToAttributeValue(struct{}{}); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}
}

// --- Config Tests ---

func TestConfigValidate_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.validate()

	if cfg.Logger == nil {
		t.Fatal("expected a logger to be set")
	}
	if cfg.Environment != "" {
		t.Errorf("expected empty environment, got %q", cfg.Environment)
	}
}

func TestStore_TraceDisabled(t *testing.T) {
	s := New(nil, Config{})
	if s.trace() != nil {
		t.Error("expected nil event when debug is off")
	}
	// Nil events are safe to use.
	s.trace().Str("k", "v").Msg("ignored")
}

// --- Expression helper Tests ---

func TestProjection_DedupesKeyAttributes(t *testing.T) {
	proj, ok := projection(GeneralSK, "generalkey", "name", "name")
	if !ok {
		t.Fatal("expected a projection")
	}
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := expr.Names()
	if len(names) != 2 {
		t.Errorf("expected 2 projected names, got %d: %v", len(names), names)
	}
	if got := aws.ToString(expr.Projection()); got != "#0, #1" {
		t.Errorf("expected '#0, #1', got %q", got)
	}
}

func TestProjection_CompositeKeyOnly(t *testing.T) {
	proj, ok := projection(GeneralDK)
	if !ok {
		t.Fatal("expected a projection")
	}
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, name := range expr.Names() {
		seen[name] = true
	}
	if !seen["generalpk"] || !seen["generalrk"] || len(seen) != 2 {
		t.Errorf("expected generalpk and generalrk, got %v", expr.Names())
	}
}

func TestProjection_DottedNameIsTopLevel(t *testing.T) {
	proj, ok := projection(GeneralSK, "address.city")
	if !ok {
		t.Fatal("expected a projection")
	}
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := aws.ToString(expr.Projection()); got != "#0, #1" {
		t.Errorf("expected '#0, #1', got %q", got)
	}
	if got := expr.Names()["#1"]; got != "address.city" {
		t.Errorf("expected '#1' to name 'address.city', got %q", got)
	}
}

func TestProjection_BracketNameReadsWholeItem(t *testing.T) {
	for _, name := range []string{"x[0]", "a]b", "[", "tags[1].name"} {
		if _, ok := projection(GeneralDK, "plain", name); ok {
			t.Errorf("expected no projection for %q", name)
		}

		input := &dynamodb.GetItemInput{}
		if err := projectGet(input, GeneralSK, name); err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
		if input.ProjectionExpression != nil || input.ExpressionAttributeNames != nil {
			t.Errorf("expected %q to leave the input unprojected, got %q", name, aws.ToString(input.ProjectionExpression))
		}
	}
}

func TestProjectGet(t *testing.T) {
	input := &dynamodb.GetItemInput{}
	if err := projectGet(input, GeneralDK, "PhoneType"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(input.ProjectionExpression); got != "#0, #1, #2" {
		t.Errorf("expected '#0, #1, #2', got %q", got)
	}
	if got := input.ExpressionAttributeNames["#2"]; got != "PhoneType" {
		t.Errorf("expected '#2' to name 'PhoneType', got %q", got)
	}
}

func TestKeyEqual(t *testing.T) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(keyEqual("generalpk", "T-1")).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(expr.KeyCondition()); got != "#0 = :0" {
		t.Errorf("unexpected key condition %q", got)
	}
	if got := expr.Values()[":0"]; !reflect.DeepEqual(got, &types.AttributeValueMemberS{Value: "T-1"}) {
		t.Errorf("unexpected key value %#v", got)
	}
}

// --- describeKey Tests ---

func TestDescribeKey(t *testing.T) {
	item := map[string]types.AttributeValue{
		"generalpk": &types.AttributeValueMemberS{Value: "T-1"},
		"generalrk": &types.AttributeValueMemberS{Value: "T-a"},
		"other":     &types.AttributeValueMemberS{Value: "x"},
	}
	if got := describeKey(GeneralDK, item); got != "T-1 / T-a" {
		t.Errorf("expected 'T-1 / T-a', got %q", got)
	}
	if got := describeKey(GeneralSK, item); got != "" {
		t.Errorf("expected empty description, got %q", got)
	}
}

// --- sameClient Tests ---

type stubClient struct {
	Client
	id int
}

type funcClient struct {
	Client
	onCall func()
}

func TestSameClient(t *testing.T) {
	var a, b Client = &stubClient{id: 1}, &stubClient{id: 2}
	if !sameClient(a, a) {
		t.Error("expected a client to equal itself")
	}
	if sameClient(a, b) {
		t.Error("expected distinct pointers to differ")
	}

	v := funcClient{Client: a}
	if sameClient(v, v) {
		t.Error("expected non-comparable clients to be treated as distinct")
	}
	if sameClient(v, a) {
		t.Error("expected clients of different types to differ")
	}
}
