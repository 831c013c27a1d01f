package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/generaldb/store"
)

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		arg      string
		expected store.Attribute
	}{
		{"name=CHAR:John Smith", store.Attr("name", store.Char("John Smith"))},
		{"name=char:", store.Attr("name", store.Char(""))},
		{"age=INT:29", store.Attr("age", store.Int(29))},
		{"qty=SHORT:-7", store.Attr("qty", store.Short(-7))},
		{`doc=JSON:{"a":"b:c"}`, store.Attr("doc", store.JSON(`{"a":"b:c"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseAttribute(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAttribute_Invalid(t *testing.T) {
	for _, arg := range []string{
		"noequals",
		"=CHAR:x",
		"name=CHARx",
		"name=BLOB:x",
		"age=INT:abc",
		"age=INT:4294967296",
		"qty=SHORT:40000",
	} {
		_, err := parseAttribute(arg)
		assert.Error(t, err, arg)
	}
}

func TestParseField(t *testing.T) {
	f, err := parseField("age:INT")
	require.NoError(t, err)
	assert.Equal(t, store.FieldOf("age", store.KindInt), f)

	f, err = parseField("name")
	require.NoError(t, err)
	assert.Equal(t, store.FieldOf("name", store.KindChar), f)

	_, err = parseField(":INT")
	assert.Error(t, err)

	_, err = parseField("age:DATE")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "generaldb v"+version+"\n", out.String())
}

func TestPutCommand_RequiresRegion(t *testing.T) {
	t.Setenv("GENERALDB_REGION", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"put", "Customer", "1", "name=CHAR:x"})

	err := root.Execute()
	assert.ErrorIs(t, err, store.ErrNoRegion)
}

func TestCopyCommand_InvalidTables(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"copy", "--region", "us-east-1", "--endpoint", "http://localhost:1", "--to-env", "TEST-", "--tables", "xx"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --tables")
}
