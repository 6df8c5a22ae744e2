package schema

import (
	"fmt"
	"strings"
)

// DOT renders the snapshot as a Graphviz digraph for the schema visualizer.
// Relationships are inferred by convention: a column named x_id pointing at
// another table whose first column is x_id. Purely presentational.
func (s *Snapshot) DOT() string {
	var sb strings.Builder

	sb.WriteString("digraph schema {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=record, fontsize=10];\n")

	for _, table := range s.Tables {
		sb.WriteString(fmt.Sprintf("  %q [label=\"%s\"];\n", table.Name, nodeLabel(table)))
	}

	for _, edge := range s.edges() {
		sb.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", edge.from, edge.to, edge.column))
	}

	sb.WriteString("}\n")

	return sb.String()
}

type relation struct {
	from   string
	to     string
	column string
}

// edges infers foreign-key style relations from column naming
func (s *Snapshot) edges() []relation {
	keyOwner := make(map[string]string)

	for _, table := range s.Tables {
		if len(table.Columns) > 0 && strings.HasSuffix(table.Columns[0], "_id") {
			keyOwner[table.Columns[0]] = table.Name
		}
	}

	var relations []relation

	for _, table := range s.Tables {
		for i, column := range table.Columns {
			if !strings.HasSuffix(column, "_id") {
				continue
			}

			// The leading column is the table's own key, not a reference
			if i == 0 {
				continue
			}

			if owner, ok := keyOwner[column]; ok && owner != table.Name {
				relations = append(relations, relation{from: table.Name, to: owner, column: column})
			}
		}
	}

	return relations
}

// nodeLabel renders a record-shaped label with the table name and columns
func nodeLabel(table Table) string {
	return table.Name + "|" + strings.Join(table.Columns, "\\l") + "\\l"
}
