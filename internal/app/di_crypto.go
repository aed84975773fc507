package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoRepository "github.com/allisson/fieldvault/internal/crypto/repository"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	cryptoUseCase "github.com/allisson/fieldvault/internal/crypto/usecase"
)

// KMSService returns the service opening KMS keepers.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterKeyChain returns the master keys loaded from MASTER_KEYS, unwrapped by the
// KMS keeper at KMS_KEY_URI when one is configured.
func (c *Container) MasterKeyChain(ctx context.Context) (*cryptoDomain.MasterKeyChain, error) {
	err := c.lazy(&c.masterKeyChainInit, "masterKeyChain", func() (err error) {
		c.masterKeyChain, err = c.initMasterKeyChain(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.masterKeyChain, nil
}

// KeyRepository returns the data key repository of the configured driver.
func (c *Container) KeyRepository() (cryptoUseCase.KeyRepository, error) {
	err := c.lazy(&c.keyRepositoryInit, "keyRepository", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for key repository: %w", err)
		}
		switch c.config.DBDriver {
		case "postgres":
			c.keyRepository = cryptoRepository.NewPostgreSQLKeyRepository(db)
		case "mysql":
			c.keyRepository = cryptoRepository.NewMySQLKeyRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keyRepository, nil
}

// KeyUseCase returns the data key lifecycle use case.
func (c *Container) KeyUseCase() (cryptoUseCase.KeyUseCase, error) {
	err := c.lazy(&c.keyUseCaseInit, "keyUseCase", func() error {
		txManager, err := c.TxManager()
		if err != nil {
			return fmt.Errorf("failed to get tx manager for key use case: %w", err)
		}
		keyRepository, err := c.KeyRepository()
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		keyManager := cryptoService.NewKeyManager(cryptoService.NewAEADManager())
		c.keyUseCase = cryptoUseCase.NewKeyUseCaseWithMetrics(
			cryptoUseCase.NewKeyUseCase(txManager, keyRepository, keyManager),
			businessMetrics,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keyUseCase, nil
}

// Engine returns the crypto engine over every stored data key. It fails with
// ErrKeyUnavailable when no key was created yet.
func (c *Container) Engine(ctx context.Context) (*cryptoService.Engine, error) {
	err := c.lazy(&c.engineInit, "engine", func() error {
		keyset, err := c.unwrapKeys(ctx)
		if err != nil {
			return err
		}
		c.engine, err = cryptoService.NewEngine(keyset, cryptoService.NewAEADManager())
		if err != nil {
			keyset.Close()
			return err
		}
		c.Logger().Info("crypto engine ready",
			slog.Int("active_key_version", int(c.engine.ActiveKeyVersion())),
			slog.String("algorithm", string(c.engine.Algorithm())))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.engine, nil
}

// ReloadKeys adds data key versions rotated since the engine was built. It returns the
// active version after the reload.
func (c *Container) ReloadKeys(ctx context.Context) (uint16, error) {
	engine, err := c.Engine(ctx)
	if err != nil {
		return 0, err
	}

	keyset, err := c.unwrapKeys(ctx)
	if err != nil {
		return 0, err
	}

	added, err := engine.Merge(keyset)
	for _, version := range added {
		c.Logger().Info("data key version loaded", slog.Int("version", int(version)))
	}
	if err != nil {
		return 0, err
	}
	return engine.ActiveKeyVersion(), nil
}

// FieldRewrapUseCase returns the use case re-sealing stored envelopes.
func (c *Container) FieldRewrapUseCase(ctx context.Context) (cryptoUseCase.FieldRewrapUseCase, error) {
	err := c.lazy(&c.rewrapUseCaseInit, "rewrapUseCase", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for rewrap use case: %w", err)
		}
		txManager, err := c.TxManager()
		if err != nil {
			return err
		}
		reg, err := c.Registry()
		if err != nil {
			return err
		}
		engine, err := c.Engine(ctx)
		if err != nil {
			return err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		fieldRepository := cryptoRepository.NewFieldRepository(db, c.Dialect())
		c.rewrapUseCase = cryptoUseCase.NewFieldRewrapUseCaseWithMetrics(
			cryptoUseCase.NewFieldRewrapUseCase(txManager, fieldRepository, reg, engine),
			businessMetrics,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.rewrapUseCase, nil
}

func (c *Container) unwrapKeys(ctx context.Context) (*cryptoDomain.Keyset, error) {
	keyUseCase, err := c.KeyUseCase()
	if err != nil {
		return nil, err
	}
	masterKeyChain, err := c.MasterKeyChain(ctx)
	if err != nil {
		return nil, err
	}
	keyset, err := keyUseCase.Unwrap(ctx, masterKeyChain)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap data keys: %w", err)
	}
	return keyset, nil
}

func (c *Container) initMasterKeyChain(ctx context.Context) (*cryptoDomain.MasterKeyChain, error) {
	if c.config.KMSKeyURI == "" {
		masterKeyChain, err := cryptoDomain.LoadMasterKeyChainFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load master key chain: %w", err)
		}
		return masterKeyChain, nil
	}

	if c.config.KMSProvider != "" {
		if err := cryptoService.CheckProvider(c.config.KMSProvider, c.config.KMSKeyURI); err != nil {
			return nil, err
		}
	}

	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, err
	}
	defer func() { _ = keeper.Close() }()

	c.Logger().Info("unwrapping master keys with KMS", slog.String("kms_provider", c.config.KMSProvider))

	masterKeyChain, err := cryptoDomain.LoadMasterKeyChainFromKMS(ctx, keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key chain: %w", err)
	}
	return masterKeyChain, nil
}
