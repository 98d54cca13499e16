package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docassist/pkg/types"
)

func findSymbol(t *testing.T, table *types.SymbolTable, name string) *types.Symbol {
	t.Helper()
	for i := range table.Symbols {
		if table.Symbols[i].Name == name {
			return &table.Symbols[i]
		}
	}
	t.Fatalf("symbol %q not found", name)
	return nil
}

func TestCanonicalLanguage(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"py", "python"},
		{".PY", "python"},
		{"main.go", "go"},
		{"app.tsx", "typescript"},
		{"handler.cc", "cpp"},
		{"RS", "rust"},
		{"notes.xyz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalLanguage(tt.hint), "hint %q", tt.hint)
	}
}

func TestAnalyzePython_EndpointAndTest(t *testing.T) {
	source := `from flask import Flask

app = Flask(__name__)

@app.route("/users/<id>", methods=["GET"])
def get_user(id):
    """Fetch a single user by id."""
    return find_user(id)

def test_login():
    assert login("bob")
`

	table := New().Analyze(source, "api.py", "python")

	require.Equal(t, types.ParseFull, table.Status)
	assert.Equal(t, "python", table.Language)

	ep := findSymbol(t, table, "get_user")
	assert.Equal(t, types.KindEndpoint, ep.Kind)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/users/<id>", ep.Route)
	assert.Equal(t, "Fetch a single user by id.", ep.DocComment)

	tst := findSymbol(t, table, "test_login")
	assert.Equal(t, types.KindTest, tst.Kind)

	assert.Equal(t, 1, table.CountKind(types.KindEndpoint))
	assert.Equal(t, 1, table.CountKind(types.KindTest))
	assert.Equal(t, 1, table.CountKind(types.KindImport))
}

func TestAnalyzePython_FastAPIVerbDecorator(t *testing.T) {
	source := `@router.post("/items")
async def create_item(item: Item):
    return save(item)
`

	table := New().Analyze(source, "items.py", "py")

	sym := findSymbol(t, table, "create_item")
	assert.Equal(t, types.KindEndpoint, sym.Kind)
	assert.Equal(t, "POST", sym.HTTPMethod)
	assert.Equal(t, "/items", sym.Route)
}

func TestAnalyzePython_ClassWithDocstring(t *testing.T) {
	source := `class UserRepo:
    """Persists users."""

    def save(self, user):
        self.db.put(user)
`

	table := New().Analyze(source, "repo.py", "python")

	cls := findSymbol(t, table, "UserRepo")
	assert.Equal(t, types.KindClass, cls.Kind)
	assert.Equal(t, "Persists users.", cls.DocComment)
	assert.Equal(t, 1, cls.Lines.Start)
	assert.GreaterOrEqual(t, cls.Lines.End, 5)

	save := findSymbol(t, table, "save")
	assert.Equal(t, types.KindFunction, save.Kind)
}

func TestAnalyzeGo_SymbolsAndDocs(t *testing.T) {
	source := `package store

import "database/sql"

// Store wraps a database handle.
type Store struct {
	db *sql.DB
}

// Open connects to the database at path.
func Open(path string) (*Store, error) {
	return nil, nil
}

func (s *Store) Close() error { return nil }
`

	table := New().Analyze(source, "store.go", "go")

	require.Equal(t, types.ParseFull, table.Status)

	cls := findSymbol(t, table, "Store")
	assert.Equal(t, types.KindClass, cls.Kind)
	assert.Equal(t, "Store wraps a database handle.", cls.DocComment)

	open := findSymbol(t, table, "Open")
	assert.Equal(t, types.KindFunction, open.Kind)
	assert.Equal(t, "func Open(path string) (*Store, error)", open.Signature)
	assert.Equal(t, "Open connects to the database at path.", open.DocComment)

	closeFn := findSymbol(t, table, "Close")
	assert.Contains(t, closeFn.Signature, "(*Store)")

	imp := findSymbol(t, table, "database/sql")
	assert.Equal(t, types.KindImport, imp.Kind)
}

func TestAnalyzeGo_RouteRegistration(t *testing.T) {
	source := `package main

func getUser(c *gin.Context) {}

func main() {
	r := gin.Default()
	r.GET("/users/:id", getUser)
	http.HandleFunc("/health", healthCheck)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {}
`

	table := New().Analyze(source, "main.go", "go")

	ep := findSymbol(t, table, "getUser")
	assert.Equal(t, types.KindEndpoint, ep.Kind)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/users/:id", ep.Route)

	health := findSymbol(t, table, "healthCheck")
	assert.Equal(t, types.KindEndpoint, health.Kind)
	assert.Equal(t, "ANY", health.HTTPMethod)
}

func TestAnalyzeGo_BrokenSyntaxStillExtracts(t *testing.T) {
	source := `package main

// Valid survives the syntax error below.
func Valid() int { return 1 }

func Broken( {
`

	table := New().Analyze(source, "main.go", "go")

	assert.Contains(t, []types.ParseStatus{types.ParsePartial, types.ParseHeuristic}, table.Status)
	assert.NotEmpty(t, table.Symbols)
	assert.NotEmpty(t, table.Warnings)
	findSymbol(t, table, "Valid")
}

func TestAnalyzePython_BrokenSyntaxReportsPartial(t *testing.T) {
	source := `def get_user(id:
    return find_user(id

def helper():
    pass
`

	table := New().Analyze(source, "api.py", "python")

	assert.Contains(t, []types.ParseStatus{types.ParsePartial, types.ParseHeuristic}, table.Status)
	assert.NotEmpty(t, table.Symbols)
	assert.NotEmpty(t, table.Warnings)
	findSymbol(t, table, "helper")
}

func TestAnalyzePython_MissingColonReportsPartial(t *testing.T) {
	source := `class Config
    path = "/etc/app"
    debug = False
    retries = 3
    timeout = 30
`

	table := New().Analyze(source, "config.py", "python")

	assert.Contains(t, []types.ParseStatus{types.ParsePartial, types.ParseHeuristic}, table.Status)
	assert.NotEmpty(t, table.Warnings)
}

func TestAnalyzeJavaScript_BrokenSyntaxReportsPartial(t *testing.T) {
	source := `function getUser(req, res {
  res.json(db.user);

function helper() {
  return 1;
}
`

	table := New().Analyze(source, "server.js", "javascript")

	assert.Equal(t, types.ParsePartial, table.Status)
	assert.NotEmpty(t, table.Warnings)
	findSymbol(t, table, "getUser")
	findSymbol(t, table, "helper")
}

func TestStructuralErrors_CleanSources(t *testing.T) {
	tests := []struct {
		lang   string
		source string
	}{
		{"python", "def f(x):\n    \"\"\"Args (x): value.\"\"\"\n    return {x: [1, 2]}\n"},
		{"rust", "fn get<'a>(x: &'a str) -> &'a str {\n    x\n}\n"},
		{"javascript", "const s = `a { b (`;\nfunction f() {}\n"},
		{"c", "char open = '{';\nint main(void) { return 0; }\n"},
		{"java", "// don't trip on apostrophes\npublic class A { }\n"},
	}

	for _, tt := range tests {
		assert.Empty(t, structuralErrors(tt.source, tt.lang), "lang %s", tt.lang)
	}
}

func TestAnalyzeJavaScript_ExpressRoutes(t *testing.T) {
	source := `const express = require('express');

// Fetch one user by id.
async function getUser(req, res) {
  res.json(await db.user(req.params.id));
}

function formatName(user) {
  return user.name;
}

app.get('/users/:id', getUser);
`

	table := New().Analyze(source, "server.js", "javascript")

	require.Equal(t, types.ParseFull, table.Status)

	ep := findSymbol(t, table, "getUser")
	assert.Equal(t, types.KindEndpoint, ep.Kind)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/users/:id", ep.Route)
	assert.Equal(t, "Fetch one user by id.", ep.DocComment)

	fn := findSymbol(t, table, "formatName")
	assert.Equal(t, types.KindFunction, fn.Kind)

	imp := findSymbol(t, table, "express")
	assert.Equal(t, types.KindImport, imp.Kind)
}

func TestAnalyzeTypeScript_InterfaceAndArrow(t *testing.T) {
	source := `import { Request } from 'express';

export interface User {
  id: string;
  name: string;
}

export const listUsers = async (req: Request, res: Response) => {
  res.json(users);
};
`

	table := New().Analyze(source, "users.ts", "typescript")

	iface := findSymbol(t, table, "User")
	assert.Equal(t, types.KindClass, iface.Kind)

	fn := findSymbol(t, table, "listUsers")
	assert.Equal(t, types.KindFunction, fn.Kind)
}

func TestAnalyzeJavaScript_TestBlocks(t *testing.T) {
	source := `describe('users', () => {
  it('returns a user by id', async () => {
    expect(await getUser('1')).toBeDefined();
  });

  test('rejects missing ids', () => {
    expect(() => getUser()).toThrow();
  });
});
`

	table := New().Analyze(source, "users.spec.js", "javascript")

	assert.Equal(t, 2, table.CountKind(types.KindTest))
	findSymbol(t, table, "returns a user by id")
	findSymbol(t, table, "rejects missing ids")
}

func TestAnalyzeJava_SpringAnnotations(t *testing.T) {
	source := `import org.springframework.web.bind.annotation.GetMapping;

public class UserController {

    @GetMapping("/users/{id}")
    public User getUser(Long id) {
        return repo.find(id);
    }

    @Test
    public void testLoginRejectsBadPassword() {
        fail();
    }
}
`

	table := New().Analyze(source, "UserController.java", "java")

	cls := findSymbol(t, table, "UserController")
	assert.Equal(t, types.KindClass, cls.Kind)

	ep := findSymbol(t, table, "getUser")
	assert.Equal(t, types.KindEndpoint, ep.Kind)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/users/{id}", ep.Route)

	tst := findSymbol(t, table, "testLoginRejectsBadPassword")
	assert.Equal(t, types.KindTest, tst.Kind)
}

func TestAnalyzeRust_AttributesAndItems(t *testing.T) {
	source := `use actix_web::Responder;

pub struct Config {
    pub path: String,
}

#[get("/health")]
async fn health() -> impl Responder {
    "ok"
}

#[test]
fn test_parse_config() {
    assert!(true);
}
`

	table := New().Analyze(source, "main.rs", "rust")

	cls := findSymbol(t, table, "Config")
	assert.Equal(t, types.KindClass, cls.Kind)

	ep := findSymbol(t, table, "health")
	assert.Equal(t, types.KindEndpoint, ep.Kind)
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/health", ep.Route)

	tst := findSymbol(t, table, "test_parse_config")
	assert.Equal(t, types.KindTest, tst.Kind)
}

func TestAnalyzeC_FunctionsAndIncludes(t *testing.T) {
	source := `#include <stdio.h>

int add(int a, int b) {
    return a + b;
}

static void print_usage(void) {
    printf("usage\n");
}
`

	table := New().Analyze(source, "util.c", "c")

	findSymbol(t, table, "add")
	findSymbol(t, table, "print_usage")
	imp := findSymbol(t, table, "stdio.h")
	assert.Equal(t, types.KindImport, imp.Kind)
}

func TestAnalyzePHP_RouteCallAndClass(t *testing.T) {
	source := `<?php

use App\Models\User;

class UserController {
    public function show($id) {
        return User::find($id);
    }
}

Route::get('/users/{id}', [UserController::class, 'show']);
`

	table := New().Analyze(source, "routes.php", "php")

	cls := findSymbol(t, table, "UserController")
	assert.Equal(t, types.KindClass, cls.Kind)

	findSymbol(t, table, "show")

	assert.Equal(t, 1, table.CountKind(types.KindEndpoint))
	ep := table.OfKind(types.KindEndpoint)[0]
	assert.Equal(t, "GET", ep.HTTPMethod)
	assert.Equal(t, "/users/{id}", ep.Route)
}

func TestAnalyzeUnknownLanguage(t *testing.T) {
	table := New().Analyze("some opaque content", "diagram.xyz", "")

	assert.Equal(t, "unknown", table.Language)
	assert.Equal(t, types.ParseHeuristic, table.Status)
	assert.Empty(t, table.Symbols)
	assert.NotEmpty(t, table.Warnings)
}

func TestAnalyzeTestFilePath(t *testing.T) {
	source := `def helper():
    pass
`

	table := New().Analyze(source, "tests/test_api.py", "python")

	sym := findSymbol(t, table, "helper")
	assert.Equal(t, types.KindTest, sym.Kind)
}

func TestHeuristicExtract(t *testing.T) {
	source := `class Widget {
  render() {}
}

function draw(ctx) {
}

int main(void) {
`

	symbols := heuristicExtract(source, "unknown")

	names := make(map[string]types.SymbolKind)
	for _, s := range symbols {
		names[s.Name] = s.Kind
	}
	assert.Equal(t, types.KindClass, names["Widget"])
	assert.Equal(t, types.KindFunction, names["draw"])
	assert.Equal(t, types.KindFunction, names["main"])
}
