package repositories

import "strings"

// prefixColumns qualifies a comma-separated column list with a table alias,
// for queries that join the base entity against aggregate subselects.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
