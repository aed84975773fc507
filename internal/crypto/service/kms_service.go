package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// ErrUnsupportedKMSProvider is returned for key URIs whose scheme has no registered driver.
var ErrUnsupportedKMSProvider = errors.New("unsupported KMS provider")

// kmsProviders maps key URI schemes to the KMS_PROVIDER value that names them.
var kmsProviders = map[string]string{
	"gcpkms":        "gcpkms",
	"awskms":        "awskms",
	"azurekeyvault": "azurekeyvault",
	"hashivault":    "hashivault",
	"base64key":     "localsecrets",
}

// KMSService opens keepers used to unwrap KMS-protected master keys.
type KMSService interface {
	// OpenKeeper opens a keeper for keyURI (gcpkms://, awskms://, azurekeyvault://,
	// hashivault:// or base64key:// for local testing).
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	if _, err := ProviderForURI(keyURI); err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// ProviderForURI returns the provider name for keyURI's scheme.
func ProviderForURI(keyURI string) (string, error) {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("%w: malformed key URI", ErrUnsupportedKMSProvider)
	}
	provider, ok := kmsProviders[u.Scheme]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKMSProvider, u.Scheme)
	}
	return provider, nil
}

// CheckProvider verifies that provider names the driver keyURI resolves to.
func CheckProvider(provider, keyURI string) error {
	expected, err := ProviderForURI(keyURI)
	if err != nil {
		return err
	}
	if provider != expected {
		return fmt.Errorf("KMS provider %q does not match key URI scheme (expected %q)", provider, expected)
	}
	return nil
}
