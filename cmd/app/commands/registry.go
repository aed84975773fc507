package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/allisson/fieldvault/internal/registry"
)

// RunShowRegistry prints the sensitive field registry the application loads, with its
// version and fingerprint. Every process sharing a database must report the same
// fingerprint.
func RunShowRegistry(reg *registry.Registry, writer io.Writer, format string) error {
	if format == "json" {
		type entityOutput struct {
			EntityType   string   `json:"entity_type"`
			Table        string   `json:"table"`
			IDColumn     string   `json:"id_column"`
			TenantColumn string   `json:"tenant_column"`
			Fields       []string `json:"fields"`
		}
		entities := make([]entityOutput, 0, len(reg.EntityTypes()))
		for _, et := range reg.EntityTypes() {
			e, _ := reg.Entity(et)
			entities = append(entities, entityOutput(e))
		}
		return writeJSON(writer, map[string]any{
			"version":     reg.Version(),
			"fingerprint": reg.Fingerprint(),
			"entities":    entities,
		})
	}

	_, _ = fmt.Fprintf(writer, "Registry version: %d\n", reg.Version())
	_, _ = fmt.Fprintf(writer, "Fingerprint:      %s\n\n", reg.Fingerprint())
	for _, et := range reg.EntityTypes() {
		e, _ := reg.Entity(et)
		_, _ = fmt.Fprintf(writer, "%s (table %s)\n", e.EntityType, e.Table)
		_, _ = fmt.Fprintf(writer, "  %s\n", strings.Join(e.Fields, ", "))
	}
	return nil
}
