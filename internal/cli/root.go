package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/logging"
	"github.com/ppiankov/claimflow/internal/model"
)

var (
	cfgFile string
	verbose bool

	// version is set by SetVersion from main
	version = "dev"

	appConfig *model.Config
	logger    = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimflow",
	Short: "claimflow - extract, validate and route automobile loss notices",
	Long: `claimflow reads the text of an ACORD-style automobile loss notice,
extracts the claim fields, checks them for completeness and consistency,
and recommends a processing queue with a plain-language reason.

Routing is a recommendation. A claims handler makes the final decision.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// SetVersion records the build version shown by "claimflow version"
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimflow %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"output.verbose": "verbose",
		"log.level":      "log-level",
		"log.format":     "log-format",
	})

	rootCmd.AddCommand(versionCmd)
}

type flagBinding struct {
	key  string
	flag *pflag.Flag
}

var bindings []flagBinding

// bindFlags maps config keys to flags so a changed flag overrides the config file
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			panic(fmt.Sprintf("bind %s: no flag --%s", key, name))
		}
		bindings = append(bindings, flagBinding{key: key, flag: f})
		_ = viper.BindPFlag(key, f)
	}
}

// resetViper drops all viper state and re-registers the flag bindings
func resetViper() {
	viper.Reset()
	for _, b := range bindings {
		_ = viper.BindPFlag(b.key, b.flag)
	}
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(model.DefaultDataDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CLAIMFLOW_ROUTING_FAST_TRACK_THRESHOLD overrides routing.fast_track_threshold
	viper.SetEnvPrefix("CLAIMFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env vars can override keys
// missing from the config file
func setDefaults(cfg *model.Config) {
	defaults := map[string]any{
		"source.timeout":               cfg.Source.Timeout,
		"source.user_agent":            cfg.Source.UserAgent,
		"source.max_bytes":             cfg.Source.MaxBytes,
		"source.max_retries":           cfg.Source.MaxRetries,
		"source.http_proxy":            cfg.Source.HTTPProxy,
		"source.https_proxy":           cfg.Source.HTTPSProxy,
		"source.no_proxy":              cfg.Source.NoProxy,
		"validation.min_year":          cfg.Validation.MinYear,
		"validation.max_year":          cfg.Validation.MaxYear,
		"validation.max_damage":        cfg.Validation.MaxDamage,
		"routing.fast_track_threshold": cfg.Routing.FastTrackThreshold,
		"cache.enabled":                cfg.Cache.Enabled,
		"cache.dir":                    cfg.Cache.Dir,
		"cache.memory_ttl":             cfg.Cache.MemoryTTL,
		"cache.disk_ttl":               cfg.Cache.DiskTTL,
		"store.enabled":                cfg.Store.Enabled,
		"store.path":                   cfg.Store.Path,
		"metrics.textfile_path":        cfg.Metrics.TextfilePath,
		"log.level":                    cfg.Log.Level,
		"log.format":                   cfg.Log.Format,
		"output.verbose":               cfg.Output.Verbose,
		"output.include_footer":        cfg.Output.IncludeFooter,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// loadConfig merges defaults, config file, env and flags into a Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup runs before every command: config first, then the logger built from it
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	appConfig = cfg
	logger = l
	logger.Debug("config loaded",
		zap.String("file", viper.ConfigFileUsed()),
		zap.String("data_dir", model.DefaultDataDir()))
	return nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(model.DefaultDataDir(), "config.yaml")
}
