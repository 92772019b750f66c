// gptrans translates text files with OpenAI-compatible chat models.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/minios-linux/gptrans/chat"
	"github.com/minios-linux/gptrans/config"
	"github.com/minios-linux/gptrans/i18n"
	"github.com/minios-linux/gptrans/langmeta"
	"github.com/minios-linux/gptrans/lockfile"
	"github.com/minios-linux/gptrans/logging"
	"github.com/minios-linux/gptrans/settings"
	"github.com/minios-linux/gptrans/tokenizer"
	"github.com/minios-linux/gptrans/translate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

// estimatorFor is replaced in tests to avoid downloading BPE ranks.
var estimatorFor = tokenizer.ForModel

var (
	rootDir string
	logJSON bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gptrans",
		Short: "Translate text files with OpenAI-compatible chat models",
		Long: `gptrans translates a text file into another language using an
OpenAI-compatible chat completions API.

The file is split on a delimiter (a blank line by default) and packed into
chunks that fit the model's context window. Chunks are translated one after
another and joined back in order.

Commands:
  translate   Translate a file
  auth        Manage stored API keys
  version     Show version information

Configuration is read from .gptrans.yaml in the project root, GPTRANS_*
environment variables and GitHub Actions inputs (INPUT_*).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	root.AddCommand(
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	logging.Setup(logging.Options{Actions: logging.InActions()})

	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		for _, hint := range translate.Hints(err) {
			logging.Notice(log.StandardLogger(), hint)
		}
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gptrans version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	input, output, lang, ext string

	splitter, model, apiKey, baseURL, prompt, proxy string
	timeout                                         time.Duration
	noStream                                        bool

	force, dryRun, verbose bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a file",
		Long: `Translate a text file into the target language.

--lang accepts a language code (ja, pt-BR) or a language name (Japanese).
The prompt placeholders {targetLanguage} and {targetFileExt} are replaced
with the language name and the target file extension.

Examples:
  # Translate README.md into Japanese
  gptrans translate --input README.md --output README.ja.md --lang ja

  # Use a larger model and a custom delimiter
  gptrans translate -i notes.txt -o notes.de.txt -l de --model gpt-4-32k --splitter '\n---\n'

  # Read stdin, write stdout
  cat doc.md | gptrans translate -i - -l fr --ext md

  # Show the chunk plan without calling the API
  gptrans translate -i README.md -l ko --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTranslate(ctx, cmd, a)
		},
	}

	// Files and language
	cmd.Flags().StringVarP(&a.input, "input", "i", "", "Input file (- for stdin)")
	cmd.Flags().StringVarP(&a.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&a.lang, "lang", "l", "", "Target language code or name")
	cmd.Flags().StringVar(&a.ext, "ext", "", "Target file extension for the prompt (default: from output or input file)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("lang")

	// Model and endpoint
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (default: "+config.DefaultModel+")")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or GPTRANS_API_KEY env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "API base URL (default: "+config.DefaultBaseURL+")")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "System prompt ({targetLanguage} and {targetFileExt} placeholders)")
	cmd.Flags().StringVar(&a.splitter, "splitter", "", `Segment delimiter, escapes allowed (default: "\n\n")`)
	cmd.Flags().BoolVar(&a.noStream, "no-stream", false, "Request a single JSON response instead of server-sent events")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = configured default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	// Behavior
	cmd.Flags().BoolVar(&a.force, "force", false, "Translate even if the output is up to date")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show the chunk plan without calling the API")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")

	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"gpt-3.5-turbo\t4k context",
			"gpt-3.5-turbo-16k\t16k context",
			"gpt-4\t4k budget",
			"gpt-4-32k\t32k context",
		}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, 0, len(langmeta.Registry))
		for code, m := range langmeta.Registry {
			out = append(out, code+"\t"+m.Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(ctx context.Context, cmd *cobra.Command, a translateArgs) error {
	logging.Setup(logging.Options{
		Verbose: a.verbose,
		JSON:    logJSON,
		Actions: logging.InActions(),
	})

	cfg, err := resolveConfig(a)
	if err != nil {
		return err
	}

	text, err := readInput(a.input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	language := langmeta.PromptName(a.lang)
	ext := targetExt(a.ext, a.output, a.input)

	est, err := estimatorFor(cfg.Model)
	if err != nil {
		log.Warnf(i18n.T("Token estimates use an approximation: %v"), err)
	}

	client := chat.New(chat.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Stream:  cfg.Stream,
		Proxy:   cfg.Proxy,
		Timeout: cfg.Timeout,
	}, log.StandardLogger())

	tr := translate.New(client, translate.Options{
		Model:          cfg.Model,
		PromptTemplate: cfg.Prompt,
		Splitter:       cfg.Splitter,
		Estimator:      est,
		Logger:         log.StandardLogger(),
	})

	if a.dryRun {
		printPlan(cmd.OutOrStdout(), tr, text)
		return nil
	}

	// Incremental runs only make sense for real output files.
	var (
		lock        *lockfile.LockFile
		fingerprint string
	)
	if a.output != "" {
		lock, err = lockfile.Load(rootDir)
		if err != nil {
			return err
		}
		fingerprint = lockfile.Fingerprint(lockfile.Inputs{
			Source:   text,
			Lang:     language,
			Ext:      ext,
			Model:    cfg.Model,
			Prompt:   cfg.Prompt,
			Splitter: cfg.Splitter,
			BaseURL:  cfg.BaseURL,
		})
		if !a.force && fileExists(a.output) && !lock.IsChanged(lockKey(a.output), fingerprint) {
			log.Infof(i18n.T("%s is up to date, skipping (use --force to retranslate)"), a.output)
			return nil
		}
	}

	result, err := tr.Translate(ctx, text, language, ext)
	if err != nil {
		return err
	}

	if err := writeOutput(a.output, result, cmd.OutOrStdout()); err != nil {
		return err
	}
	if lock == nil {
		return nil
	}

	log.Infof(i18n.T("Wrote %s"), a.output)
	lock.Update(lockKey(a.output), fingerprint)
	if err := lock.Save(); err != nil {
		return fmt.Errorf("saving lock file: %w", err)
	}
	return nil
}

// resolveConfig loads project configuration and applies command-line
// overrides and the stored API key.
func resolveConfig(a translateArgs) (*config.Config, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	applyFlags(cfg, a)

	if cfg.APIKey == "" {
		cfg.APIKey = settings.GetAPIKey(cfg.BaseURL)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			// A dry run never contacts the API.
			if a.dryRun {
				return cfg, nil
			}
			return nil, fmt.Errorf("%w: use --api-key, GPTRANS_API_KEY or 'gptrans auth login'", err)
		}
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, a translateArgs) {
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.model != "" {
		cfg.Model = a.model
	}
	if a.prompt != "" {
		cfg.Prompt = a.prompt
	}
	if a.splitter != "" {
		cfg.Splitter = config.UnescapeSplitter(a.splitter)
	}
	if a.proxy != "" {
		cfg.Proxy = a.proxy
	}
	if a.timeout > 0 {
		cfg.Timeout = a.timeout
	}
	if a.noStream {
		cfg.Stream = false
	}
}

func printPlan(w io.Writer, tr *translate.Translator, text string) {
	chunks := tr.Plan(text)
	total := 0
	for _, c := range chunks {
		total += c.Tokens
	}

	fmt.Fprintf(w, i18n.N("%d chunk", "%d chunks", len(chunks)), len(chunks))
	fmt.Fprintf(w, ", budget %d tokens per chunk, ~%d tokens total\n", tr.Budget(), total)
	for _, c := range chunks {
		marker := ""
		if c.Tokens > tr.Budget() {
			marker = " (over budget)"
		}
		fmt.Fprintf(w, "  #%-3d %6d tokens %8d chars%s\n", c.Index, c.Tokens, len(c.Text), marker)
	}
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API keys",
		Long: `Manage API keys stored in $XDG_DATA_HOME/gptrans/auth.json.

Keys are stored per API host, so one store can hold keys for the OpenAI
API and any number of compatible endpoints.

Examples:
  gptrans auth login                                  Store a key for the default endpoint
  gptrans auth login --base-url http://localhost:8080/v1
  echo "$KEY" | gptrans auth login                    Read the key from a pipe
  gptrans auth logout --base-url https://api.openai.com/v1
  gptrans auth logout                                 Remove all keys
  gptrans auth list                                   Show stored keys`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var baseURL, key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = config.DefaultBaseURL
			}

			if key == "" {
				existing := settings.GetAPIKey(baseURL)
				errOut := cmd.ErrOrStderr()
				if existing != "" {
					fmt.Fprintf(errOut, "Current key for %s: %s\n", settings.HostKey(baseURL), settings.MaskKey(existing))
					fmt.Fprint(errOut, "Enter new key to replace, or press Enter to keep: ")
				} else {
					fmt.Fprintf(errOut, "Enter API key for %s: ", settings.HostKey(baseURL))
				}

				var err error
				key, err = readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if key == "" {
					if existing != "" {
						log.Info("Keeping existing key")
						return nil
					}
					return errors.New("no API key provided")
				}
			}

			if err := settings.SetAPIKey(baseURL, key); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			log.Infof("API key for %s saved", settings.HostKey(baseURL))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL the key belongs to (default: "+config.DefaultBaseURL+")")
	cmd.Flags().StringVar(&key, "key", "", "API key (default: read from stdin)")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API keys",
		Long: `Remove the stored key for one endpoint, or all keys when --base-url
is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL != "" {
				if err := settings.Remove(baseURL); err != nil {
					return fmt.Errorf("removing key for %s: %w", settings.HostKey(baseURL), err)
				}
				log.Infof("Key for %s removed", settings.HostKey(baseURL))
				return nil
			}
			if err := settings.RemoveAll(); err != nil {
				return fmt.Errorf("removing stored keys: %w", err)
			}
			log.Info("All stored keys removed")
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL to log out of (default: all)")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored API keys",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			store := settings.Load()
			hosts := store.Hosts()

			fmt.Fprintf(out, "Stored keys (%s)\n", settings.FilePath())
			fmt.Fprintln(out, strings.Repeat("─", 60))
			if len(hosts) == 0 {
				fmt.Fprintln(out, "  none")
			}
			for _, host := range hosts {
				entry := store[host]
				fmt.Fprintf(out, "  %-28s %s\n", host, settings.MaskKey(entry.Key))
			}

			fmt.Fprintln(out)
			if envKey := os.Getenv("GPTRANS_API_KEY"); envKey != "" {
				fmt.Fprintf(out, "  GPTRANS_API_KEY: %s (overrides stored keys)\n", settings.MaskKey(envKey))
			} else {
				fmt.Fprintln(out, "  GPTRANS_API_KEY: not set")
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

const stdinName = "-"

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput writes text to path, creating parent directories, or to
// stdout when path is empty.
func writeOutput(path, text string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// targetExt picks the extension substituted for {targetFileExt}: the
// explicit flag, then the output file's extension, then the input's.
func targetExt(flag, output, input string) string {
	if flag != "" {
		return strings.TrimPrefix(flag, ".")
	}
	for _, p := range []string{output, input} {
		if p == "" || p == stdinName {
			continue
		}
		if ext := strings.TrimPrefix(filepath.Ext(p), "."); ext != "" {
			return ext
		}
	}
	return ""
}

// lockKey makes an output path relative to the project root when possible,
// so the lock file stays valid when the tree is checked out elsewhere.
func lockKey(output string) string {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return output
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return output
	}
	rel, err := filepath.Rel(absRoot, absOut)
	if err != nil || strings.HasPrefix(rel, "..") {
		return absOut
	}
	return rel
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
