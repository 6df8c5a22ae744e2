package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTables() []Table {
	return []Table{
		{Name: "departments", Columns: []string{"department_id", "department_name", "manager"}},
		{Name: "employees", Columns: []string{"employee_id", "name", "department_id"}},
		{Name: "sales", Columns: []string{"sale_id", "amount", "employee_id"}},
	}
}

func TestBuildSchemaString(t *testing.T) {
	got := BuildSchemaString(sampleTables())

	want := "departments(department_id, department_name, manager)\n" +
		"employees(employee_id, name, department_id)\n" +
		"sales(sale_id, amount, employee_id)\n"

	assert.Equal(t, want, got)
}

func TestBuildSchemaString_Empty(t *testing.T) {
	assert.Equal(t, "", BuildSchemaString(nil))
}

func TestBuildHintsString(t *testing.T) {
	hints := []Hint{
		{Table: "departments", Column: "department_name", Values: []string{"Engineering", "Sales"}},
		{Table: "employees", Column: "name", Values: []string{"Ada"}},
	}

	want := "departments.department_name: Engineering, Sales\n" +
		"employees.name: Ada\n"

	assert.Equal(t, want, BuildHintsString(hints))
}

func TestComputeHash(t *testing.T) {
	schemaString := BuildSchemaString(sampleTables())
	hintsString := "departments.department_name: Engineering, Sales\n"

	first := ComputeHash(schemaString, hintsString)
	second := ComputeHash(schemaString, hintsString)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	assert.NotEqual(t, first, ComputeHash(schemaString+"x", hintsString))
	assert.NotEqual(t, first, ComputeHash(schemaString, hintsString+"x"))
}
