package analyzer

// SourceFile is one candidate file handed to the analyzer, already filtered
// by extension and ignore rules.
type SourceFile struct {
	Path    string
	Content []byte
}

// FunctionDef is a named function definition discovered in a source file.
// Names are not unique, neither within a file nor across files.
type FunctionDef struct {
	FilePath string   `json:"filePath"`
	Name     string   `json:"name"`
	Params   []string `json:"params"`
	Code     string   `json:"code"`
}

// FunctionCall is a call expression with a simple identifier callee.
// ParentFunc is the name of the nearest enclosing named function, or ""
// for calls at module scope.
type FunctionCall struct {
	FilePath   string   `json:"filePath"`
	ParentFunc string   `json:"parentFunc"`
	Name       string   `json:"name"`
	Args       []string `json:"args"`
}

// FileRecord is the structural model of one analyzed file. Defs and Calls
// are rebuilt from scratch on every analysis run.
type FileRecord struct {
	FilePath string         `json:"filePath"`
	Content  string         `json:"content"`
	Defs     []FunctionDef  `json:"defs"`
	Calls    []FunctionCall `json:"calls"`
}
