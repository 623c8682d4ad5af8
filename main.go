package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/metcalfc/simplyread/internal/config"
	"github.com/metcalfc/simplyread/internal/credential"
	"github.com/metcalfc/simplyread/internal/engine"
	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/reader"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	v   = config.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "simplyread [flags] <file|url>",
	Short: "SimplyRead - read with in-place word simplification",
	Long: `SimplyRead - read third-party text with help.

Double-click a word to replace it with a simpler synonym at the difficulty you
pick; double-click it again to restore the original. Hover a highlighted term
for a definition, select a sentence for a neutrality check, and have any
selection read aloud.

Supported inputs: ` + strings.Join(reader.SupportedFormats(), ", ") + `, plain text and http(s) URLs.

Examples:
  simplyread article.html               # Read a saved page
  simplyread https://example.com/post   # Read a page from the web
  simplyread -b openai book.epub        # Use an OpenAI-compatible backend
  simplyread simplify ubiquitous        # One substitution without the reader`,
	Version:      version,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fresh, _ := cmd.Flags().GetBool("fresh")
		s, pos, err := openSession(cmd.Context(), cfg, args[0], fresh)
		if err != nil {
			return err
		}
		defer s.close()
		logger.Logger.Infow("opened",
			logger.FieldSource, s.book.Source,
			logger.FieldCount, len(s.book.Chapters),
			logger.FieldBackend, cfg.Backend,
			logger.FieldModel, cfg.ActiveBackend().Model)
		return runUI(s, pos)
	},
}

// setup loads configuration, applies flag overrides and initialises the
// logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := v.BindPFlag("backend", cmd.Root().PersistentFlags().Lookup("backend")); err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(v, path)
	if err != nil {
		return err
	}
	if m, _ := cmd.Flags().GetString("model"); m != "" {
		switch c.Backend {
		case config.BackendOpenAI:
			c.OpenAI.Model = m
		default:
			c.Gemini.Model = m
		}
	}
	cfg = c

	opts := logger.Options{Level: c.Log.Level, JSON: c.Log.JSON, Path: c.Log.File}
	if !cmd.HasParent() && uiOwnsTerminal {
		opts.Path = logPath(c)
	}
	return logger.Initialize(opts)
}

var simplifyCmd = &cobra.Command{
	Use:   "simplify <word>",
	Short: "Print a simpler synonym for a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("level")
		level, err := prompt.ParseLevel(name)
		if err != nil {
			return err
		}
		sentence, _ := cmd.Flags().GetString("context")
		svc, err := newService(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), svc.Simplify(cmd.Context(), args[0], sentence, level))
		return nil
	},
}

var defineCmd = &cobra.Command{
	Use:   "define <word>",
	Short: "Print a short definition of a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sentence, _ := cmd.Flags().GetString("context")
		svc, err := newService(cfg)
		if err != nil {
			return err
		}
		def := svc.Define(cmd.Context(), args[0], sentence)
		if def == "" {
			return errors.Newf("no definition for %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), def)
		return nil
	},
}

var biasCmd = &cobra.Command{
	Use:   "bias <passage>...",
	Short: "Check a passage for bias",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cfg)
		if err != nil {
			return err
		}
		advisory := svc.AnalyzeBias(cmd.Context(), strings.Join(args, " "))
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", engine.Tone(advisory), advisory)
		return nil
	},
}

var credentialHelperCmd = &cobra.Command{
	Use:   "credential-helper",
	Short: "Answer one API key request on stdin",
	Long: `Reads a JSON request such as {"action":"getAPIKey"} on stdin and writes
{"apiKey":"..."} on stdout, using the configured key and environment. Point
credential.helper at this command to keep the key in a separate process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return credential.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), keySource(cfg, false))
	},
}

func init() {
	rootCmd.PersistentPreRunE = setup
	rootCmd.SetVersionTemplate(fmt.Sprintf("simplyread %s (commit: %s, built: %s)\n", version, commit, date))

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default $XDG_CONFIG_HOME/simplyread/config.toml)")
	flags.StringP("backend", "b", config.BackendGemini, "text generation backend: gemini or openai")
	flags.StringP("model", "m", "", "model name for the selected backend")
	rootCmd.Flags().Bool("fresh", false, "ignore the saved reading position")

	for _, c := range []*cobra.Command{simplifyCmd, defineCmd} {
		c.Flags().String("context", "", "sentence the word appears in")
	}
	simplifyCmd.Flags().StringP("level", "l", prompt.Easy.String(), "difficulty: easy, medium or hard")

	rootCmd.AddCommand(simplifyCmd, defineCmd, biasCmd, credentialHelperCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
