package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
	"github.com/allisson/fieldvault/internal/registry"
)

// RunRewrapFields re-seals stored envelopes under the active data key version. With an
// empty entityType every entity in the registry is processed. Returns an error when any
// envelope could not be opened so the run can be investigated and repeated.
func RunRewrapFields(
	ctx context.Context,
	rewrapUseCase cryptoUseCase.FieldRewrapUseCase,
	reg *registry.Registry,
	logger *slog.Logger,
	writer io.Writer,
	entityType string,
	batchSize int,
	format string,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	entityTypes := reg.EntityTypes()
	if entityType != "" {
		if !reg.Known(entityType) {
			return fmt.Errorf("unknown entity type: %s", entityType)
		}
		entityTypes = []string{entityType}
	}

	results := make([]*cryptoDomain.RewrapResult, 0, len(entityTypes))
	failed := 0
	for _, et := range entityTypes {
		logger.Info("re-sealing fields",
			slog.String("entity_type", et),
			slog.Int("batch_size", batchSize),
		)

		result, err := rewrapUseCase.RewrapFields(ctx, et, batchSize)
		if err != nil {
			return fmt.Errorf("failed to rewrap %s: %w", et, err)
		}
		results = append(results, result)
		failed += result.Failed

		logger.Info("fields re-sealed",
			slog.String("entity_type", et),
			slog.Int("scanned", result.Scanned),
			slog.Int("rewrapped", result.Rewrapped),
			slog.Int("sealed", result.Sealed),
			slog.Int("failed", result.Failed),
		)
	}

	if format == "json" {
		type resultOutput struct {
			EntityType string `json:"entity_type"`
			Scanned    int    `json:"scanned"`
			Rewrapped  int    `json:"rewrapped"`
			Sealed     int    `json:"sealed"`
			Failed     int    `json:"failed"`
		}
		out := make([]resultOutput, 0, len(results))
		for _, r := range results {
			out = append(out, resultOutput(*r))
		}
		if err := writeJSON(writer, out); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "%-20s %10s %10s %10s %10s\n", "ENTITY", "SCANNED", "REWRAPPED", "SEALED", "FAILED")
		for _, r := range results {
			_, _ = fmt.Fprintf(writer, "%-20s %10d %10d %10d %10d\n",
				r.EntityType, r.Scanned, r.Rewrapped, r.Sealed, r.Failed)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d envelope(s) could not be opened and were left untouched", failed)
	}
	return nil
}
