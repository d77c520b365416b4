package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/apiclient"
	"github.com/xxxsen/awbdesk/internal/config"
	"github.com/xxxsen/awbdesk/internal/credential"
	"github.com/xxxsen/awbdesk/internal/pkg/fieldcrypt"
	"github.com/xxxsen/awbdesk/internal/pkg/password"
	"github.com/xxxsen/awbdesk/internal/vault"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:           "awbdesk",
		Short:         "air waybill analysis console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(
		newAnalyzeCmd(&configPath),
		newEditCmd(&configPath),
		newCryptCmd(&configPath, true),
		newCryptCmd(&configPath, false),
		newExportCmd(&configPath),
		newSaveCmd(&configPath),
		newServeCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and initializes logging from it.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	initLogger(cfg.LogConfig)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

// loadOptionalConfig is used by commands that work on a local snapshot and
// only need the config for cipher cost and logging.
func loadOptionalConfig(path string) (*config.Config, error) {
	if path != "" {
		return loadConfig(path)
	}
	initLogger(logger.LogConfig{Level: "warn", Console: true})
	return nil, nil
}

func initLogger(c logger.LogConfig) {
	logger.Init(
		c.File,
		c.Level,
		int(c.FileCount),
		int(c.FileSize),
		int(c.KeepDays),
		c.Console,
	)
}

func newCipher(cfg *config.Config) *fieldcrypt.Cipher {
	if cfg == nil {
		return fieldcrypt.Default()
	}
	params := password.DefaultParams
	params.N = cfg.Vault.ScryptN
	return fieldcrypt.New(params)
}

func newCredentials(cfg *config.Config) credential.Provider {
	providers := []credential.Provider{credential.Context()}
	if cfg.API.Token != "" {
		providers = append(providers, credential.Static(cfg.API.Token))
	}
	if cfg.API.AuthSession != "" {
		providers = append(providers, credential.SessionFile(cfg.API.AuthSession))
	}
	providers = append(providers, credential.Env(credential.DefaultEnvKey))
	return credential.First(providers...)
}

func newAPIClient(cfg *config.Config) *apiclient.Client {
	return apiclient.New(apiclient.Config{
		BaseURL:     cfg.API.BaseURL,
		AnalyzePath: cfg.API.AnalyzePath,
		SavePath:    cfg.API.SavePath,
	}, newCredentials(cfg), &http.Client{})
}

func vaultOptions(cfg *config.Config, saver vault.Saver) []vault.Option {
	opts := []vault.Option{vault.WithCipher(newCipher(cfg))}
	if saver != nil {
		opts = append(opts, vault.WithSaver(saver))
	}
	if cfg != nil {
		opts = append(opts, vault.WithDisplayDelays(cfg.Vault.SuccessDisplay(), cfg.Vault.ErrorDisplay()))
	}
	return opts
}
