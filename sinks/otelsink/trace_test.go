package otelsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanName(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name     string
		args     args
		wantName string
	}{
		{
			name:     "given SELECT query, then returns SELECT",
			args:     args{query: "SELECT * FROM accounts WHERE id = 1"},
			wantName: "SELECT",
		},
		{
			name:     "given INSERT query, then returns INSERT",
			args:     args{query: "INSERT INTO accounts (name) VALUES ('test')"},
			wantName: "INSERT",
		},
		{
			name:     "given DELETE query, then returns DELETE",
			args:     args{query: "DELETE FROM accounts WHERE id = 1"},
			wantName: "DELETE",
		},
		{
			name:     "given empty query, then returns SQL default",
			args:     args{query: ""},
			wantName: "SQL",
		},
		{
			name:     "given whitespace only, then returns SQL default",
			args:     args{query: "   "},
			wantName: "SQL",
		},
		{
			name:     "given lowercase query with leading whitespace, then returns uppercase operation",
			args:     args{query: "  select * from accounts"},
			wantName: "SELECT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spanName(tt.args.query)
			assert.Equal(t, tt.wantName, got)
		})
	}
}

func TestExtractOperation(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name          string
		args          args
		wantOperation string
	}{
		{
			name:          "given SELECT statement, then returns SELECT",
			args:          args{query: "SELECT id FROM accounts"},
			wantOperation: "SELECT",
		},
		{
			name:          "given UPDATE statement, then returns UPDATE",
			args:          args{query: "UPDATE accounts SET name = 'test'"},
			wantOperation: "UPDATE",
		},
		{
			name:          "given CREATE statement, then returns CREATE",
			args:          args{query: "CREATE TABLE accounts (id INT)"},
			wantOperation: "CREATE",
		},
		{
			name:          "given empty string, then returns empty string",
			args:          args{query: ""},
			wantOperation: "",
		},
		{
			name:          "given single word command, then returns that word uppercased",
			args:          args{query: "commit"},
			wantOperation: "COMMIT",
		},
		{
			name:          "given query with newline after operation, then returns operation",
			args:          args{query: "SELECT\nid FROM accounts"},
			wantOperation: "SELECT",
		},
		{
			name:          "given query with tab after operation, then returns operation",
			args:          args{query: "SELECT\tid FROM accounts"},
			wantOperation: "SELECT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractOperation(tt.args.query)
			assert.Equal(t, tt.wantOperation, got)
		})
	}
}

func TestDefaultQuerySanitizer(t *testing.T) {
	type args struct {
		query string
	}

	tests := []struct {
		name      string
		args      args
		wantQuery string
	}{
		{
			name:      "given query with string literal, then replaces with placeholder",
			args:      args{query: "SELECT * FROM accounts WHERE name = 'ada'"},
			wantQuery: "SELECT * FROM accounts WHERE name = '?'",
		},
		{
			name:      "given query with numeric literal, then replaces with placeholder",
			args:      args{query: "SELECT * FROM accounts WHERE id = 42"},
			wantQuery: "SELECT * FROM accounts WHERE id = ?",
		},
		{
			name:      "given query with multiple literals, then replaces all",
			args:      args{query: "SELECT * FROM accounts WHERE id = 1 AND name = 'test'"},
			wantQuery: "SELECT * FROM accounts WHERE id = ? AND name = '?'",
		},
		{
			name:      "given query with escaped quote, then handles correctly",
			args:      args{query: "SELECT * FROM accounts WHERE name = 'it\\'s'"},
			wantQuery: "SELECT * FROM accounts WHERE name = '?'",
		},
		{
			name:      "given query with hex literal, then replaces with placeholder",
			args:      args{query: "SELECT * FROM blobs WHERE tag = 0xCAFE"},
			wantQuery: "SELECT * FROM blobs WHERE tag = ?",
		},
		{
			name:      "given query with float literal, then replaces with placeholder",
			args:      args{query: "SELECT * FROM products WHERE price = 19.99"},
			wantQuery: "SELECT * FROM products WHERE price = ?",
		},
		{
			name:      "given query without literals, then returns unchanged",
			args:      args{query: "SELECT * FROM accounts"},
			wantQuery: "SELECT * FROM accounts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultQuerySanitizer(tt.args.query)
			assert.Equal(t, tt.wantQuery, got)
		})
	}
}

func TestNewConfig(t *testing.T) {
	type args struct {
		opts []Option
	}

	tests := []struct {
		name       string
		args       args
		wantAssert func(*config) bool
	}{
		{
			name: "given no options, then uses global providers",
			args: args{opts: nil},
			wantAssert: func(cfg *config) bool {
				return cfg.TracerProvider != nil && cfg.MeterProvider != nil &&
					cfg.Tracer != nil && cfg.Meter != nil
			},
		},
		{
			name: "given WithDBSystem, then sets DBSystem",
			args: args{opts: []Option{WithDBSystem("postgresql")}},
			wantAssert: func(cfg *config) bool {
				return cfg.DBSystem == "postgresql"
			},
		},
		{
			name: "given WithDBName, then sets DBName",
			args: args{opts: []Option{WithDBName("mydb")}},
			wantAssert: func(cfg *config) bool {
				return cfg.DBName == "mydb"
			},
		},
		{
			name: "given WithInstanceName, then sets InstanceName",
			args: args{opts: []Option{WithInstanceName("replica")}},
			wantAssert: func(cfg *config) bool {
				return cfg.InstanceName == "replica"
			},
		},
		{
			name: "given WithDisableQuery, then sets DisableQuery",
			args: args{opts: []Option{WithDisableQuery()}},
			wantAssert: func(cfg *config) bool {
				return cfg.DisableQuery
			},
		},
		{
			name: "given WithQuerySanitizer, then sets sanitizer",
			args: args{opts: []Option{WithQuerySanitizer(DefaultQuerySanitizer)}},
			wantAssert: func(cfg *config) bool {
				return cfg.QuerySanitizer != nil
			},
		},
		{
			name: "given multiple options, then applies all",
			args: args{
				opts: []Option{
					WithDBSystem("postgresql"),
					WithDBName("ledger"),
					WithInstanceName("primary"),
				},
			},
			wantAssert: func(cfg *config) bool {
				return cfg.DBSystem == "postgresql" &&
					cfg.DBName == "ledger" &&
					cfg.InstanceName == "primary"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.args.opts...)
			require.NotNil(t, cfg)
			assert.True(t, tt.wantAssert(cfg))
		})
	}
}
