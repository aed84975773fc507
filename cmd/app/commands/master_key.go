package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
)

// RunCreateMasterKey generates a 32-byte master key and prints the environment
// variables that configure it.
//
// Without KMS parameters the raw key is printed base64 encoded. With kmsProvider and
// kmsKeyURI the key is encrypted by the KMS first and only the ciphertext is printed.
// If keyID is empty a default ID in format "master-key-YYYY-MM-DD" is used.
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI string,
) error {
	entry, err := newMasterKeyEntry(ctx, kmsService, keyID, kmsProvider, kmsKeyURI)
	if err != nil {
		return err
	}

	printMasterKeyConfig(writer, kmsProvider, kmsKeyURI, entry.id, entry.encoded)
	logger.Info("master key generated",
		slog.String("master_key_id", entry.id),
		slog.Bool("kms", kmsKeyURI != ""),
	)
	return nil
}

// RunRotateMasterKey generates a new master key and prints MASTER_KEYS with the new
// entry appended to existingKeys and marked active. Run rewrap-master-key after the
// new configuration is deployed.
func RunRotateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	keyID, kmsProvider, kmsKeyURI, existingKeys string,
) error {
	existingKeys = strings.TrimSpace(existingKeys)
	if existingKeys == "" {
		return errors.New("MASTER_KEYS is not set; use create-master-key for the first master key")
	}

	entry, err := newMasterKeyEntry(ctx, kmsService, keyID, kmsProvider, kmsKeyURI)
	if err != nil {
		return err
	}

	for part := range strings.SplitSeq(existingKeys, ",") {
		id, _, _ := strings.Cut(strings.TrimSpace(part), ":")
		if id == entry.id {
			return fmt.Errorf("master key id %s already exists in MASTER_KEYS", entry.id)
		}
	}

	printMasterKeyConfig(writer, kmsProvider, kmsKeyURI, entry.id, existingKeys+","+entry.id+":"+entry.encoded)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintln(writer, "# After deploying, re-wrap the stored data keys with:")
	_, _ = fmt.Fprintln(writer, "#   app rewrap-master-key")

	logger.Info("master key rotated", slog.String("master_key_id", entry.id))
	return nil
}

type masterKeyEntry struct {
	id      string
	encoded string
}

func newMasterKeyEntry(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	keyID, kmsProvider, kmsKeyURI string,
) (*masterKeyEntry, error) {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return nil, errors.New(
			"--kms-provider and --kms-key-uri are required together\n\n" +
				"For local development, use:\n" +
				"  --kms-provider=localsecrets --kms-key-uri=\"base64key://<32-byte-base64-key>\"\n\n" +
				"For production, use cloud KMS providers:\n" +
				"  --kms-provider=gcpkms --kms-key-uri=\"gcpkms://projects/.../cryptoKeys/...\"\n" +
				"  --kms-provider=awskms --kms-key-uri=\"awskms:///alias/...\"\n" +
				"  --kms-provider=azurekeyvault --kms-key-uri=\"azurekeyvault://...\"",
		)
	}

	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().UTC().Format("2006-01-02"))
	}
	if strings.ContainsAny(keyID, ":,") {
		return nil, fmt.Errorf("invalid master key id %q: must not contain ':' or ','", keyID)
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	defer cryptoDomain.Zero(masterKey)
	if _, err := rand.Read(masterKey); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	if kmsKeyURI == "" {
		return &masterKeyEntry{id: keyID, encoded: base64.StdEncoding.EncodeToString(masterKey)}, nil
	}
	if err := cryptoService.CheckProvider(kmsProvider, kmsKeyURI); err != nil {
		return nil, err
	}

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() { _ = keeper.Close() }()

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	return &masterKeyEntry{id: keyID, encoded: base64.StdEncoding.EncodeToString(ciphertext)}, nil
}

func printMasterKeyConfig(writer io.Writer, kmsProvider, kmsKeyURI, activeID, masterKeys string) {
	_, _ = fmt.Fprintln(writer, "# Master Key Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	} else {
		_, _ = fmt.Fprintln(writer, "# WARNING: plaintext master key, use a KMS provider in production")
	}
	_, _ = fmt.Fprintf(writer, "MASTER_KEYS=\"%s\"\n", masterKeys)
	_, _ = fmt.Fprintf(writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", activeID)
}
