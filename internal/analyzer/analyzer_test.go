package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func analyzeOne(t *testing.T, path, src string) *FileRecord {
	t.Helper()
	rec, err := New(zap.NewNop()).AnalyzeFile(context.Background(), SourceFile{Path: path, Content: []byte(src)})
	require.NoError(t, err)
	return rec
}

func TestAnalyzeFunctionDeclaration(t *testing.T) {
	rec := analyzeOne(t, "math.js", "function add(a,b){return a+b;}")

	require.Len(t, rec.Defs, 1)
	assert.Equal(t, FunctionDef{
		FilePath: "math.js",
		Name:     "add",
		Params:   []string{"a", "b"},
		Code:     "function add(a,b){return a+b;}",
	}, rec.Defs[0])
	assert.Empty(t, rec.Calls)
}

func TestAnalyzeCallInsideFunction(t *testing.T) {
	rec := analyzeOne(t, "math.js", "function calc(a,b){ return add(a,b); }")

	require.Len(t, rec.Defs, 1)
	assert.Equal(t, "calc", rec.Defs[0].Name)

	require.Len(t, rec.Calls, 1)
	assert.Equal(t, FunctionCall{
		FilePath:   "math.js",
		ParentFunc: "calc",
		Name:       "add",
		Args:       []string{"a", "b"},
	}, rec.Calls[0])
}

func TestAnalyzeModuleLevelCall(t *testing.T) {
	rec := analyzeOne(t, "main.js", "setup(1, 2);")

	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "", rec.Calls[0].ParentFunc)
	assert.Equal(t, "setup", rec.Calls[0].Name)
	assert.Equal(t, []string{"1", "2"}, rec.Calls[0].Args)
}

func TestAnalyzeDefinitionShapes(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		defs   []string
		params []string
	}{
		{
			name:   "arrow in declarator",
			src:    "const mul = (a, b) => a * b;",
			defs:   []string{"mul"},
			params: []string{"a", "b"},
		},
		{
			name:   "function expression in declarator",
			src:    "var fetchAll = function(url){ return url; };",
			defs:   []string{"fetchAll"},
			params: []string{"url"},
		},
		{
			name:   "assignment to identifier",
			src:    "handler = function(evt){ return evt; };",
			defs:   []string{"handler"},
			params: []string{"evt"},
		},
		{
			name:   "object literal property",
			src:    "const api = { greet: function(who){ return who; } };",
			defs:   []string{"greet"},
			params: []string{"who"},
		},
		{
			name:   "class method",
			src:    "class Greeter { greet(name){ return name; } }",
			defs:   []string{"greet"},
			params: []string{"name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := analyzeOne(t, "a.js", tt.src)
			require.Len(t, rec.Defs, len(tt.defs))
			for i, want := range tt.defs {
				assert.Equal(t, want, rec.Defs[i].Name)
			}
			assert.Equal(t, tt.params, rec.Defs[0].Params)
		})
	}
}

func TestAnalyzeAnonymousCallbackKeepsNamedAncestor(t *testing.T) {
	src := `function outer(){
	items.forEach(function(it){
		record(it);
	});
}`
	rec := analyzeOne(t, "a.js", src)

	// The anonymous callback yields no definition.
	require.Len(t, rec.Defs, 1)
	assert.Equal(t, "outer", rec.Defs[0].Name)

	// forEach has a member callee and is not recorded; record() attributes
	// to the previous named ancestor.
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "record", rec.Calls[0].Name)
	assert.Equal(t, "outer", rec.Calls[0].ParentFunc)
}

func TestAnalyzeMemberCalleeIgnored(t *testing.T) {
	rec := analyzeOne(t, "a.js", "console.log(1); run(2);")

	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "run", rec.Calls[0].Name)
}

func TestAnalyzeNormalizesParamsAndArgs(t *testing.T) {
	rec := analyzeOne(t, "a.js", "function f( a,\n\tb ){ g( a ,\n b ); }")

	require.Len(t, rec.Defs, 1)
	assert.Equal(t, []string{"a", "b"}, rec.Defs[0].Params)
	require.Len(t, rec.Calls, 1)
	assert.Equal(t, []string{"a", "b"}, rec.Calls[0].Args)
}

func TestAnalyzeSameNameAcrossFiles(t *testing.T) {
	files := []SourceFile{
		{Path: "a.js", Content: []byte("function init(){}")},
		{Path: "b.js", Content: []byte("function init(){}")},
	}
	records := New(zap.NewNop()).Analyze(context.Background(), files)

	require.Len(t, records, 2)
	assert.Equal(t, "a.js", records[0].Defs[0].FilePath)
	assert.Equal(t, "b.js", records[1].Defs[0].FilePath)
	assert.Equal(t, records[0].Defs[0].Name, records[1].Defs[0].Name)
}

func TestAnalyzeSkipsUnparseableFile(t *testing.T) {
	files := []SourceFile{
		{Path: "bad.js", Content: []byte("function (")},
		{Path: "good.js", Content: []byte("function ok(){}")},
	}
	records := New(zap.NewNop()).Analyze(context.Background(), files)

	require.Len(t, records, 1)
	assert.Equal(t, "good.js", records[0].FilePath)
}

func TestAnalyzeFileEmptyContent(t *testing.T) {
	_, err := New(zap.NewNop()).AnalyzeFile(context.Background(), SourceFile{Path: "e.js"})
	assert.ErrorIs(t, err, ErrParse)
}
