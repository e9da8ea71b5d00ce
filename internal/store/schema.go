package store

import (
	"fmt"
	"strings"

	"github.com/Chasungsoo/querydsl/internal/ir"
	"github.com/Chasungsoo/querydsl/internal/metamodel"
	"github.com/Chasungsoo/querydsl/internal/querysql"
)

// columnTypes maps semantic types to column declarations per dialect.
// SQLite declarations keep the affinities the drivers recognize, so
// TIMESTAMP columns scan back as time.Time.
var columnTypes = map[string]map[ir.Type]string{
	"sqlite": {
		ir.TypeInt: "INTEGER", ir.TypeFloat: "REAL", ir.TypeString: "TEXT",
		ir.TypeBool: "BOOLEAN", ir.TypeTime: "TIMESTAMP",
	},
	"postgres": {
		ir.TypeInt: "BIGINT", ir.TypeFloat: "DOUBLE PRECISION", ir.TypeString: "TEXT",
		ir.TypeBool: "BOOLEAN", ir.TypeTime: "TIMESTAMP",
	},
	"mysql": {
		ir.TypeInt: "BIGINT", ir.TypeFloat: "DOUBLE", ir.TypeString: "VARCHAR(255)",
		ir.TypeBool: "BOOLEAN", ir.TypeTime: "DATETIME(6)",
	},
}

// CreateTable renders the DDL for one entity:
//
//	CREATE TABLE IF NOT EXISTS <table> (
//	    <id> <type> PRIMARY KEY,
//	    <column> <type> [NOT NULL], ...
//	    <join column> <target id type>, ...
//	)
//
// Join columns are nullable and carry no foreign key constraint, so tables
// can be created and seeded in any order.
func CreateTable(d *querysql.Dialect, reg *metamodel.Registry, e *metamodel.Entity) (string, error) {
	types, ok := columnTypes[d.Name()]
	if !ok {
		return "", fmt.Errorf("no column types for dialect %s", d.Name())
	}

	id := e.IDColumn()
	defs := make([]string, 0, len(e.Columns)+len(e.Relations))
	for _, attr := range reg.Attributes(e) {
		typ, ok := types[attr.Type]
		if !ok {
			return "", fmt.Errorf("column %s: no %s type for %s", attr.Column, d.Name(), attr.Type)
		}
		def := d.Quote(attr.Column) + " " + typ
		switch {
		case attr.Relation == "" && attr.Column == id.Column:
			def += " PRIMARY KEY"
		case !attr.Nullable:
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.Quote(e.Table), strings.Join(defs, ", ")), nil
}
