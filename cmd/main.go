package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sabarim/atmdata/internal/auth"
	"github.com/sabarim/atmdata/internal/catalog"
	"github.com/sabarim/atmdata/internal/config"
	"github.com/sabarim/atmdata/internal/pipeline"
	"github.com/sabarim/atmdata/internal/symbols"
)

var (
	configFile      string
	credentialsPath string
	underlying      string
	targetExpiry    string
	outputDir       string
	parquetEnabled  bool
	parquetDir      string
	verbose         bool
	showVersion     bool
)

var versionString = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "atmdata",
		Short: "Download ATM option candles for the last trading day",
		Long: `atmdata reconciles the Upstox and Groww instrument catalogs, resolves the
at-the-money CE and PE contracts for the last trading day and saves their
one-minute candles as JSON (optionally mirrored to Parquet).`,
		Run: runRootCommand,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "Path to credentials file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().StringVar(&underlying, "underlying", "", "Underlying symbol (default is NIFTY)")
	rootCmd.Flags().StringVar(&targetExpiry, "expiry", "", "Target expiry date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory for leg artifacts")
	rootCmd.Flags().BoolVar(&parquetEnabled, "parquet", false, "Mirror candles to Parquet format")
	rootCmd.Flags().StringVar(&parquetDir, "parquet-dir", "", "Output directory for Parquet files")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Print version information")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a fresh Upstox access token",
		Long: `login walks the Upstox authorization-code flow: it prints the authorization
URL and a current TOTP code, reads the redirect URL you were sent to, and
exchanges the embedded code for an access token stored in the credentials
file.`,
		RunE: runLoginCommand,
	}
	rootCmd.AddCommand(loginCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfigWithFlags() (config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, err
	}

	// Command-line flags win over the file and environment.
	if credentialsPath != "" {
		cfg.Auth.CredentialsPath = credentialsPath
	}
	if underlying != "" {
		cfg.Market.Underlying = underlying
	}
	if targetExpiry != "" {
		cfg.Market.TargetExpiry = targetExpiry
	}
	if outputDir != "" {
		cfg.Historical.OutputDir = outputDir
	}
	if parquetEnabled {
		cfg.Historical.ParquetEnabled = true
	}
	if parquetDir != "" {
		cfg.Historical.ParquetDir = parquetDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func runRootCommand(cmd *cobra.Command, args []string) {
	if showVersion {
		fmt.Printf("atmdata version %s\n", versionString)
		return
	}

	cfg, err := loadConfigWithFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigchan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	runner := pipeline.New(cfg, logger)
	summary := runner.Run(ctx)
	fmt.Print(summary.String())
	if !summary.Success() {
		os.Exit(1)
	}
}

func runLoginCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithFlags()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store := &auth.Store{Path: cfg.Auth.CredentialsPath}
	creds, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading credentials from %s: %w", cfg.Auth.CredentialsPath, err)
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return fmt.Errorf("credentials file %s is missing api_key or api_secret", cfg.Auth.CredentialsPath)
	}

	fmt.Println("Open this URL in a browser and complete the login:")
	fmt.Println("  " + auth.AuthorizeURL(cfg.Auth.BaseURL, creds.APIKey, creds.RedirectURL))
	if creds.TOTPSecret != "" {
		code, err := auth.GenerateTOTP(creds.TOTPSecret, time.Now())
		if err != nil {
			return fmt.Errorf("generating TOTP code: %w", err)
		}
		fmt.Printf("Current TOTP code: %s\n", code)
	}

	fmt.Print("Paste the full redirect URL here: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading redirect URL: %w", err)
	}
	code, err := auth.ExtractCode(strings.TrimSpace(line))
	if err != nil {
		return err
	}

	timeout := time.Duration(cfg.Market.RequestTimeout) * time.Second
	token, err := auth.ExchangeCode(context.Background(), cfg.Auth.BaseURL, code, creds, timeout)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	expiryDate := tokenExpiryDate(cfg, time.Now())
	if err := store.UpdateToken(token, expiryDate); err != nil {
		return fmt.Errorf("saving access token: %w", err)
	}
	fmt.Printf("Access token saved to %s, valid through %s\n", cfg.Auth.CredentialsPath, expiryDate)
	return nil
}

// tokenExpiryDate picks the date the new token is recorded as valid through:
// the nearest contract expiry from the catalog snapshot when one is on disk,
// else the weekly-expiry convention.
func tokenExpiryDate(cfg config.Config, now time.Time) string {
	snapshot := filepath.Join(cfg.Catalog.SnapshotDir, "NSE_main.json")
	if data, err := os.ReadFile(snapshot); err == nil {
		if records, err := catalog.ParseUpstoxJSON(data); err == nil {
			normalizer := symbols.NewNormalizer(symbols.DefaultIndexMap())
			reconciled, _, _ := catalog.Reconcile(records, normalizer.Normalize)
			if nearest, ok := catalog.NearestExpiry(reconciled, cfg.Market.Underlying, now); ok {
				return nearest
			}
		}
	}
	return catalog.NextWeeklyExpiry(now)
}
