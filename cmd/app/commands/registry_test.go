package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShowRegistry(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunShowRegistry(reg, &out, "text"))
		assert.Contains(t, out.String(), "Registry version: 1")
		assert.Contains(t, out.String(), reg.Fingerprint())
		assert.Contains(t, out.String(), "clients (table clients)\n  full_name, email")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunShowRegistry(reg, &out, "json"))

		var result struct {
			Version     int    `json:"version"`
			Fingerprint string `json:"fingerprint"`
			Entities    []struct {
				EntityType string   `json:"entity_type"`
				Fields     []string `json:"fields"`
			} `json:"entities"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Equal(t, 1, result.Version)
		assert.Equal(t, reg.Fingerprint(), result.Fingerprint)
		require.Len(t, result.Entities, 2)
		assert.Equal(t, []string{"full_name", "email"}, result.Entities[0].Fields)
	})
}
