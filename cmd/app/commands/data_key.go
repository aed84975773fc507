package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// RunCreateKey creates data key version 1. Should only be run once during initial
// setup; afterwards use RunRotateKey.
//
// Requirements: Database must be migrated, MASTER_KEYS and ACTIVE_MASTER_KEY_ID must be set.
func RunCreateKey(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	logger *slog.Logger,
	algorithmStr string,
) error {
	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	logger.Info("creating data key",
		slog.String("algorithm", string(algorithm)),
		slog.String("master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	key, err := keyUseCase.Create(ctx, masterKeyChain, algorithm)
	if err != nil {
		return fmt.Errorf("failed to create data key: %w", err)
	}

	logger.Info("data key created",
		slog.Int("version", int(key.Version)),
		slog.String("algorithm", string(key.Algorithm)),
		slog.String("master_key_id", key.MasterKeyID),
	)
	return nil
}

// RunRotateKey stores a new data key version. Running servers pick it up on their next
// key reload; run rewrap-fields afterwards to re-seal stored values.
func RunRotateKey(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	logger *slog.Logger,
	algorithmStr string,
) error {
	algorithm, err := parseAlgorithm(algorithmStr)
	if err != nil {
		return err
	}

	logger.Info("rotating data key", slog.String("algorithm", string(algorithm)))

	key, err := keyUseCase.Rotate(ctx, masterKeyChain, algorithm)
	if err != nil {
		return fmt.Errorf("failed to rotate data key: %w", err)
	}

	logger.Info("data key rotated",
		slog.Int("version", int(key.Version)),
		slog.String("algorithm", string(key.Algorithm)),
		slog.String("master_key_id", key.MasterKeyID),
	)
	return nil
}

// RunRewrapMasterKey re-wraps every data key under the active master key. Envelopes
// in entity tables are untouched since the data keys themselves do not change.
func RunRewrapMasterKey(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	masterKeyChain *cryptoDomain.MasterKeyChain,
	logger *slog.Logger,
) error {
	logger.Info("re-wrapping data keys",
		slog.String("active_master_key_id", masterKeyChain.ActiveMasterKeyID()),
	)

	count, err := keyUseCase.RewrapMasterKey(ctx, masterKeyChain)
	if err != nil {
		return fmt.Errorf("failed to rewrap data keys: %w", err)
	}

	logger.Info("data keys re-wrapped", slog.Int("rewrapped", count))
	return nil
}

// RunListKeys prints the stored data key metadata, newest first.
func RunListKeys(
	ctx context.Context,
	keyUseCase cryptoUseCase.KeyUseCase,
	writer io.Writer,
	format string,
) error {
	keys, err := keyUseCase.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list data keys: %w", err)
	}

	if format == "json" {
		type keyOutput struct {
			Version     uint16    `json:"version"`
			Algorithm   string    `json:"algorithm"`
			MasterKeyID string    `json:"master_key_id"`
			CreatedAt   time.Time `json:"created_at"`
		}
		out := make([]keyOutput, 0, len(keys))
		for _, k := range keys {
			out = append(out, keyOutput{
				Version:     k.Version,
				Algorithm:   string(k.Algorithm),
				MasterKeyID: k.MasterKeyID,
				CreatedAt:   k.CreatedAt.UTC(),
			})
		}
		return writeJSON(writer, out)
	}

	if len(keys) == 0 {
		_, _ = fmt.Fprintln(writer, "No data keys found. Run create-key first.")
		return nil
	}

	_, _ = fmt.Fprintf(writer, "%-8s %-20s %-24s %s\n", "VERSION", "ALGORITHM", "MASTER KEY", "CREATED AT")
	for i, k := range keys {
		marker := ""
		if i == 0 {
			marker = " (active)"
		}
		_, _ = fmt.Fprintf(writer, "%-8d %-20s %-24s %s%s\n",
			k.Version, k.Algorithm, k.MasterKeyID, k.CreatedAt.UTC().Format(time.RFC3339), marker)
	}
	return nil
}
