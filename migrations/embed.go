// Package migrations embeds the SQL schema migrations and the sensitive field
// registry that is versioned alongside them.
package migrations

import "embed"

// RegistryFile is the name of the sensitive field registry inside FS.
const RegistryFile = "sensitive_fields.yaml"

// FS holds the per-driver SQL migrations and the sensitive field registry.
//
//go:embed postgresql/*.sql mysql/*.sql sensitive_fields.yaml
var FS embed.FS

// DriverDir returns the migrations directory inside FS for a database driver.
func DriverDir(driver string) string {
	if driver == "mysql" {
		return "mysql"
	}
	return "postgresql"
}
