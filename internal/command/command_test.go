package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/schemaprobe/pkg/types"
)

func doubleQuote(s string) string { return `"` + s + `"` }

func TestParseCreateProperty(t *testing.T) {
	stmt, err := Parse("CREATE PROPERTY TestClass_1_0.prop_1_3 STRING UNSAFE")
	require.NoError(t, err)

	cp, ok := stmt.(*CreateProperty)
	require.True(t, ok, "expected *CreateProperty, got %T", stmt)
	assert.Equal(t, "TestClass_1_0", cp.Class)
	assert.Equal(t, "prop_1_3", cp.Name)
	assert.Equal(t, types.TypeString, cp.Type)
	assert.True(t, cp.Unsafe)
	assert.Equal(t, "CREATE PROPERTY TestClass_1_0.prop_1_3 STRING UNSAFE", cp.String())
}

func TestParseCreatePropertyLowercase(t *testing.T) {
	stmt, err := Parse("create property Person.age integer;")
	require.NoError(t, err)

	cp := stmt.(*CreateProperty)
	assert.Equal(t, types.TypeInteger, cp.Type)
	assert.False(t, cp.Unsafe)
}

func TestParseCreateClass(t *testing.T) {
	stmt, err := Parse("CREATE CLASS Knows EXTENDS E CLUSTERS 4")
	require.NoError(t, err)

	cc, ok := stmt.(*CreateClass)
	require.True(t, ok)
	assert.Equal(t, "Knows", cc.Name)
	assert.Equal(t, "E", cc.SuperClass)
	assert.Equal(t, 4, cc.Clusters)
	assert.Equal(t, "CREATE CLASS Knows EXTENDS E CLUSTERS 4", cc.String())

	stmt, err = Parse("CREATE CLASS Plain")
	require.NoError(t, err)
	assert.Equal(t, &CreateClass{Name: "Plain"}, stmt)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty", "   ", ErrSyntax},
		{"create nothing", "CREATE", ErrSyntax},
		{"create index", "CREATE INDEX foo", ErrUnsupported},
		{"drop", "DROP CLASS Foo", ErrUnsupported},
		{"unqualified property", "CREATE PROPERTY prop STRING", ErrSyntax},
		{"bad type", "CREATE PROPERTY A.b EMBEDDEDMAP", ErrSyntax},
		{"bad option", "CREATE PROPERTY A.b STRING MANDATORY", ErrSyntax},
		{"missing type", "CREATE PROPERTY A.b", ErrSyntax},
		{"bad class name", `CREATE CLASS "Quoted"`, ErrSyntax},
		{"dangling extends", "CREATE CLASS A EXTENDS", ErrSyntax},
		{"bad clusters", "CREATE CLASS A CLUSTERS zero", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSelectRewrite(t *testing.T) {
	stmt, err := Parse("SELECT @class FROM V LIMIT 20")
	require.NoError(t, err)

	sel, ok := stmt.(*Select)
	require.True(t, ok)

	sql, err := sel.Rewrite(doubleQuote)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "_class" FROM "V" LIMIT 20`, sql)
}

func TestSelectRewriteKeepsLiterals(t *testing.T) {
	sel := &Select{Text: "SELECT @rid, '@class from x' FROM Person WHERE name = 'it''s'"}

	sql, err := sel.Rewrite(doubleQuote)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "_rid", '@class from x' FROM "Person" WHERE name = 'it''s'`, sql)
}

func TestSelectRewriteErrors(t *testing.T) {
	_, err := (&Select{Text: "SELECT @version FROM V"}).Rewrite(doubleQuote)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = (&Select{Text: "SELECT 'open FROM V"}).Rewrite(doubleQuote)
	assert.ErrorIs(t, err, ErrSyntax)
}
