// Package inventory extracts schema object inventories from source
// warehouses over the Postgres wire protocol.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dwporter/dwporter/pkg/models"
)

var (
	// ErrUnsupportedSource indicates a source type with no metadata catalog.
	ErrUnsupportedSource = errors.New("unsupported source type")
	// ErrSourceUnreachable indicates the source could not be connected.
	ErrSourceUnreachable = errors.New("source system unreachable")
)

// metadataQueries holds the catalog queries for one source type. Redshift is
// close enough to Postgres that the same shapes work; the entries stay
// separate because their information_schema coverage differs.
type metadataQueries struct {
	tables     string
	views      string
	procedures string
	columns    string
}

var sourceCatalog = map[string]metadataQueries{
	"postgres": {
		tables: `SELECT tablename FROM pg_tables
			WHERE schemaname = $1 ORDER BY tablename`,
		views: `SELECT viewname, definition FROM pg_views
			WHERE schemaname = $1 ORDER BY viewname`,
		procedures: `SELECT routine_name, routine_definition
			FROM information_schema.routines
			WHERE routine_schema = $1 ORDER BY routine_name`,
		columns: `SELECT column_name, data_type, character_maximum_length,
			numeric_precision, numeric_scale, is_nullable
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`,
	},
	"redshift": {
		tables: `SELECT tablename FROM pg_tables
			WHERE schemaname = $1 ORDER BY tablename`,
		views: `SELECT viewname, definition FROM pg_views
			WHERE schemaname = $1 ORDER BY viewname`,
		procedures: `SELECT routine_name, routine_definition
			FROM information_schema.routines
			WHERE routine_schema = $1 ORDER BY routine_name`,
		columns: `SELECT column_name, data_type, character_maximum_length,
			numeric_precision, numeric_scale, is_nullable
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`,
	},
}

// SupportedSources lists the source types the extractor can connect to.
func SupportedSources() []string {
	return []string{"postgres", "redshift"}
}

// ConnectionParams identify one source system.
type ConnectionParams struct {
	SourceType string `json:"source_type"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Database   string `json:"database"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (p ConnectionParams) dsn() string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.Username, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, port),
		Path:   "/" + p.Database,
	}
	return u.String()
}

// Inventory is the extracted object set for one schema.
type Inventory struct {
	Tables     []models.SchemaObject `json:"tables"`
	Views      []models.SchemaObject `json:"views"`
	Procedures []models.SchemaObject `json:"procedures"`
}

// TotalObjects counts every object in the inventory.
func (inv *Inventory) TotalObjects() int {
	return len(inv.Tables) + len(inv.Views) + len(inv.Procedures)
}

// Objects flattens the inventory in migration order.
func (inv *Inventory) Objects() []models.SchemaObject {
	objects := make([]models.SchemaObject, 0, inv.TotalObjects())
	objects = append(objects, inv.Tables...)
	objects = append(objects, inv.Views...)
	objects = append(objects, inv.Procedures...)
	return objects
}

// Extractor reads object metadata from one connected source.
type Extractor struct {
	pool    *pgxpool.Pool
	queries metadataQueries
}

// Connect validates the source type, opens a pool, and verifies it.
func Connect(ctx context.Context, params ConnectionParams) (*Extractor, error) {
	queries, ok := sourceCatalog[params.SourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, params.SourceType)
	}

	cfg, err := pgxpool.ParseConfig(params.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to parse source connection params: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	return &Extractor{pool: pool, queries: queries}, nil
}

// Close releases the source connection pool.
func (e *Extractor) Close() {
	e.pool.Close()
}

// Extract lists every table, view, and procedure in the schema. Table DDL is
// synthesized from column metadata; views and procedures carry the stored
// definition. Missing view or procedure metadata is tolerated since not every
// source grants access to it.
func (e *Extractor) Extract(ctx context.Context, schema string) (*Inventory, error) {
	inv := &Inventory{
		Tables:     []models.SchemaObject{},
		Views:      []models.SchemaObject{},
		Procedures: []models.SchemaObject{},
	}

	tables, err := e.listTables(ctx, schema)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		ddl, err := e.tableDDL(ctx, schema, table)
		if err != nil {
			return nil, err
		}
		inv.Tables = append(inv.Tables, models.SchemaObject{
			Type:      models.ObjectTypeTable,
			Schema:    schema,
			Name:      table,
			SourceSQL: ddl,
		})
	}

	views, err := e.listDefinitions(ctx, e.queries.views, schema)
	if err != nil {
		slog.Warn("could not list views, continuing without them", "schema", schema, "error", err)
	} else {
		for _, v := range views {
			sql := ""
			if v.definition != "" {
				sql = fmt.Sprintf("CREATE VIEW %s.%s AS\n%s", schema, v.name, v.definition)
			}
			inv.Views = append(inv.Views, models.SchemaObject{
				Type:      models.ObjectTypeView,
				Schema:    schema,
				Name:      v.name,
				SourceSQL: sql,
			})
		}
	}

	procedures, err := e.listDefinitions(ctx, e.queries.procedures, schema)
	if err != nil {
		slog.Warn("could not list procedures, continuing without them", "schema", schema, "error", err)
	} else {
		for _, p := range procedures {
			inv.Procedures = append(inv.Procedures, models.SchemaObject{
				Type:      models.ObjectTypeProcedure,
				Schema:    schema,
				Name:      p.name,
				SourceSQL: p.definition,
			})
		}
	}

	return inv, nil
}

func (e *Extractor) listTables(ctx context.Context, schema string) ([]string, error) {
	rows, err := e.pool.Query(ctx, e.queries.tables, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

type namedDefinition struct {
	name       string
	definition string
}

func (e *Extractor) listDefinitions(ctx context.Context, query, schema string) ([]namedDefinition, error) {
	rows, err := e.pool.Query(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []namedDefinition
	for rows.Next() {
		var name string
		var definition *string
		if err := rows.Scan(&name, &definition); err != nil {
			return nil, err
		}
		d := namedDefinition{name: name}
		if definition != nil {
			d.definition = *definition
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (e *Extractor) tableDDL(ctx context.Context, schema, table string) (string, error) {
	rows, err := e.pool.Query(ctx, e.queries.columns, schema, table)
	if err != nil {
		return "", fmt.Errorf("failed to read columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var c column
		if err := rows.Scan(&c.name, &c.dataType, &c.maxLength, &c.precision, &c.scale, &c.nullable); err != nil {
			return "", fmt.Errorf("failed to scan column of %s.%s: %w", schema, table, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return buildTableDDL(schema, table, cols), nil
}
