package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/normrag/internal/core/domain"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change the normrag configuration.

Settings are read from the config file and can be overridden per key with
NORMRAG_<KEY> environment variables, e.g. NORMRAG_POOL_TIMEOUT=300s for
pool.timeout. A .env file in the working directory is loaded first.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE:  runConfigInit,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and query the corpora.`,
	RunE:  runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that generates answers and technical requirements.`,
	RunE:  runConfigLLM,
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}

	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	if settings.Embedding.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g/s\n", settings.Embedding.RateLimit)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	if settings.LLM.MaxTokens > 0 {
		cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Corpora]")
	for _, corpus := range domain.AllCorpora() {
		cmd.Printf("  %s: %s -> %s\n", corpus, settings.Corpora.Dir(corpus), settings.Corpora.Index(corpus))
	}
	cmd.Printf("  Chunking: %d chars, %d overlap\n", settings.Chunking.Size, settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	for _, name := range []string{domain.ProfileSearch, domain.ProfileTT, domain.ProfileQA} {
		p, _ := settings.Retrieval.Named(name)
		cmd.Printf("  %s: %s k=%d fetch_k=%d lambda=%g temperature=%g\n",
			name, p.Strategy, p.K, p.FetchK, p.Lambda, p.Temperature)
	}
	cmd.Println()

	cmd.Println("[Requests]")
	cmd.Printf("  Workers: %d, queue: %d\n", settings.Pool.Workers, settings.Pool.Queue)
	cmd.Printf("  Timeout: %s, retries: %d\n", settings.Pool.Timeout, settings.Pool.Retries)
	cmd.Printf("  TT marker: %s\n", settings.Mode.Marker)
	cmd.Printf("  TT keywords: %s\n", strings.Join(settings.Mode.Keywords, ", "))
	cmd.Printf("  Context labels: %s\n", settings.Format.Labels)
	cmd.Println()

	if err := app.Settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'normrag config embedding' or 'normrag config llm' to fix provider settings.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if app == nil {
		return errors.New("settings service not configured")
	}
	if app.ConfigPath == "" {
		cmd.Println("(in memory)")
		return nil
	}
	cmd.Println(app.ConfigPath)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	if app.ConfigPath != "" && !configInitForce {
		if info, err := os.Stat(app.ConfigPath); err == nil && info.Size() > 0 {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", app.ConfigPath)
		}
	}

	defaults := app.Settings.GetDefaults()
	if err := app.Settings.Save(&defaults); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if app.ConfigPath != "" {
		cmd.Printf("Wrote default configuration to %s\n", app.ConfigPath)
	}
	return nil
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), embeddingProviderSetup())
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if app == nil || app.Settings == nil {
		return errors.New("settings service not configured")
	}
	return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), llmProviderSetup())
}

// providerSetup describes one interactive provider configuration flow.
type providerSetup struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	set       func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func embeddingProviderSetup() providerSetup {
	return providerSetup{
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		set:       app.Settings.SetEmbeddingProvider,
		validate:  app.Settings.ValidateEmbeddingConfig,
	}
}

func llmProviderSetup() providerSetup {
	return providerSetup{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		set:       app.Settings.SetLLMProvider,
		validate:  app.Settings.ValidateLLMConfig,
	}
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, setup providerSetup) error {
	cmd.Printf("Select %s Provider\n", setup.kind)
	for i, p := range setup.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(setup.providers), 1)
	provider := setup.providers[idx-1]

	defaultModel := setup.models[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := setup.set(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", setup.kind, err)
	}

	cmd.Print("Validating configuration... ")
	if err := setup.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", setup.kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", setup.kind, provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
