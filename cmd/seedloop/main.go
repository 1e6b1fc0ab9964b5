// Copyright (c) 2025-2026 complex (complex@ft.hn)
// See LICENSE for licensing information

// Package main provides the seedloop CLI for managing a multi-chain HD
// wallet stored in a local state file.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/complex-gh/seedloop"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-tty"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/muesli/termenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/term"
	lang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	maxWidth = 72
)

var (
	baseStyle  = lipgloss.NewStyle().Margin(0, 0, 1, 2) //nolint:mnd
	red        = lipgloss.Color(completeColor("#FF4444", "196", "9"))
	violet     = lipgloss.Color(completeColor("#6B50FF", "63", "12"))
	errorStyle = baseStyle.
			Foreground(red).
			Background(lipgloss.AdaptiveColor{Light: completeColor("#FFEBEB", "255", "7"), Dark: completeColor("#2B1A1A", "235", "8")}).
			Padding(1, 2) //nolint:mnd
	mnemonicStyle = baseStyle.
			Foreground(violet).
			Background(lipgloss.AdaptiveColor{Light: completeColor("#EEEBFF", "255", "7"), Dark: completeColor("#1C1A2B", "235", "8")}).
			Padding(1, 2) //nolint:mnd

	statePath      string
	logLevel       string
	language       string
	kdfStrength    string
	networksFlag   string
	strength       int
	importPhrase   bool
	withPassphrase bool
	noLock         bool
	count          int
	checksum       bool

	rootCmd = &cobra.Command{
		Use:   "seedloop",
		Short: "Manage a multi-chain HD wallet from one seed phrase",
		Long: `Manage a multi-chain HD wallet from one seed phrase.

seedloop keeps one BIP39 mnemonic and derives addresses for EVM, Bitcoin,
Solana, Near and Cosmos networks from it. EVM networks share their
addresses. The wallet lives in a JSON state file which stays encrypted
with a password unless created with --no-lock.

SECURITY TIP: Add a space before the command to prevent it from being
saved in your shell history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setLanguage(vip.GetString(LanguageKey))
		},
	}

	newCmd = &cobra.Command{
		Use:   "new",
		Short: "Create a new seedloop",
		Example: `  seedloop new
  seedloop new --strength 256 --networks eth,btc,sol
  echo "abandon ... about" | seedloop new --import`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			if _, err := os.Stat(env.path); err == nil {
				return fmt.Errorf("%s already exists", env.path)
			}

			opts := seedloop.Options{
				Strength: strength,
				Registry: env.registry,
				Logger:   env.logger,
				KDF:      env.kdf,
			}
			if importPhrase {
				phrase, err := readSecret("Mnemonic: ")
				if err != nil {
					return err
				}
				opts.Mnemonic = phrase
			}
			if withPassphrase {
				passphrase, err := readSecret("BIP39 passphrase: ")
				if err != nil {
					return err
				}
				opts.Passphrase = passphrase
			}
			list := networksFlag
			if list == "" {
				list = vip.GetString(NetworksKey)
			}
			if opts.Networks, err = configuredNetworks(env.registry, list); err != nil {
				return err
			}

			s, err := seedloop.New(opts)
			if err != nil {
				return fmt.Errorf("could not create seedloop: %w", err)
			}
			if !importPhrase {
				phrase, _ := s.SeedPhrase()
				printBlock(mnemonicStyle, phrase)
			}

			if !noLock {
				password, err := readNewPassword()
				if err != nil {
					return err
				}
				if err := s.Lock(password); err != nil {
					return fmt.Errorf("could not lock seedloop: %w", err)
				}
			}
			if err := saveState(env.path, s); err != nil {
				return err
			}
			fmt.Printf("seedloop %s written to %s\n", s.ID(), env.path)
			return nil
		},
	}

	addressesCmd = &cobra.Command{
		Use:          "addresses <ticker>",
		Short:        "List the addresses of a network",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			s, err := env.load()
			if err != nil {
				return err
			}
			n, err := env.registry.NetworkFromTicker(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}
			addrs, err := s.Addresses(n)
			if err != nil {
				return err //nolint:wrapcheck
			}
			for _, a := range addrs {
				if checksum && n.Family == seedloop.EVM {
					a = seedloop.ChecksumAddress(a)
				}
				fmt.Println(a)
			}
			return nil
		},
	}

	addAddressesCmd = &cobra.Command{
		Use:          "add-addresses <ticker>",
		Short:        "Derive more addresses for a network",
		Example:      `  seedloop add-addresses btc -n 5`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			s, err := env.load()
			if err != nil {
				return err
			}
			n, err := env.registry.NetworkFromTicker(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}

			password, err := env.unlock(s)
			if err != nil {
				return err
			}
			if !s.NetworkOnSeedloop(n) {
				if _, err := s.AddKeyRingByNetwork(n); err != nil {
					return fmt.Errorf("could not add keyring: %w", err)
				}
			}
			added, err := s.AddAddresses(n, count)
			if err != nil {
				return fmt.Errorf("could not add addresses: %w", err)
			}
			if password != "" {
				if err := s.Lock(password); err != nil {
					return fmt.Errorf("could not lock seedloop: %w", err)
				}
			}
			if err := saveState(env.path, s); err != nil {
				return err
			}
			for _, a := range added {
				fmt.Println(a)
			}
			return nil
		},
	}

	networksCmd = &cobra.Command{
		Use:          "networks",
		Short:        "List supported networks",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			registry := seedloop.DefaultRegistry()
			defaults := map[string]bool{}
			for _, n := range registry.Defaults() {
				defaults[n.Ticker] = true
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0) //nolint:mnd
			fmt.Fprintln(w, "TICKER\tNAME\tFAMILY\tCOIN\tBASE PATH\tDEFAULT")
			for _, n := range registry.Networks() {
				def := ""
				if defaults[n.Ticker] {
					def = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", n.Ticker, n.FullName, n.Family, n.CoinType, n.BasePath, def)
			}
			return w.Flush() //nolint:wrapcheck
		},
	}

	lockCmd = &cobra.Command{
		Use:          "lock",
		Short:        "Encrypt the seed phrase in the state file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			s, err := env.load()
			if err != nil {
				return err
			}
			if s.IsLocked() {
				fmt.Println("already locked")
				return nil
			}
			password, err := readNewPassword()
			if err != nil {
				return err
			}
			if err := s.Lock(password); err != nil {
				return fmt.Errorf("could not lock seedloop: %w", err)
			}
			return saveState(env.path, s)
		},
	}

	unlockCmd = &cobra.Command{
		Use:   "unlock",
		Short: "Decrypt the seed phrase and store it in plain text",
		Long: `Decrypt the seed phrase and store it in plain text.

The state file will hold the mnemonic unencrypted until you run
seedloop lock again.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			s, err := env.load()
			if err != nil {
				return err
			}
			if _, err := env.unlock(s); err != nil {
				return err
			}
			return saveState(env.path, s)
		},
	}

	signMessageCmd = &cobra.Command{
		Use:          "sign-message <ticker> <address> <message>",
		Short:        "Sign a message with one of the seedloop's addresses",
		Args:         cobra.ExactArgs(3), //nolint:mnd
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := newEnv()
			if err != nil {
				return err
			}
			s, err := env.load()
			if err != nil {
				return err
			}
			n, err := env.registry.NetworkFromTicker(args[0])
			if err != nil {
				return err //nolint:wrapcheck
			}
			if _, err := env.unlock(s); err != nil {
				return err
			}
			sig, err := s.SignMessage(n, args[1], []byte(args[2]))
			if err != nil {
				return fmt.Errorf("could not sign: %w", err)
			}
			fmt.Println("0x" + hex.EncodeToString(sig))
			return nil
		},
	}

	manCmd = &cobra.Command{
		Use:          "man",
		Args:         cobra.NoArgs,
		Short:        "generate man pages",
		Hidden:       true,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				//nolint: wrapcheck
				return err
			}
			manPage = manPage.WithSection("Copyright", "(C) 2025-2026 complex.\n"+
				"See LICENSE for licensing information.")
			fmt.Println(manPage.Build(roff.NewDocument()))
			return nil
		},
	}

	// completionCmd generates shell completion scripts for bash, zsh, fish, and powershell.
	completionCmd = &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for seedloop.

To load completions:

Bash:
  $ source <(seedloop completion bash)

Zsh:
  $ seedloop completion zsh > "${fpath[1]}/_seedloop"

Fish:
  $ seedloop completion fish | source

PowerShell:
  PS> seedloop completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		SilenceUsage:          true,
		RunE: func(_ *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unknown shell: %s", args[0])
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&statePath, "state", "s", "", "Path of the seedloop state file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "en", "Language of the seed phrase")
	rootCmd.PersistentFlags().StringVar(&kdfStrength, "kdf", "", "Password stretching strength used when locking (standard, light)")

	newCmd.Flags().IntVar(&strength, "strength", seedloop.DefaultStrength, "Entropy bits of a generated seed phrase (128-256)")
	newCmd.Flags().StringVar(&networksFlag, "networks", "", "Comma separated tickers to create keyrings for")
	newCmd.Flags().BoolVar(&importPhrase, "import", false, "Import an existing seed phrase from stdin or the terminal")
	newCmd.Flags().BoolVar(&withPassphrase, "bip39-passphrase", false, "Prompt for a BIP39 passphrase")
	newCmd.Flags().BoolVar(&noLock, "no-lock", false, "Store the seed phrase unencrypted")
	addAddressesCmd.Flags().IntVarP(&count, "count", "n", 1, "Number of addresses to add")
	addressesCmd.Flags().BoolVar(&checksum, "checksum", false, "Print EVM addresses in EIP-55 mixed case")

	rootCmd.AddCommand(newCmd, addressesCmd, addAddressesCmd, networksCmd, lockCmd, unlockCmd, signMessageCmd)
	rootCmd.AddCommand(manCmd)
	rootCmd.AddCommand(completionCmd)

	cobra.OnInitialize(func() {
		if err := initConfig(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is what every state-backed command needs.
type session struct {
	path     string
	registry *seedloop.Registry
	logger   *log.Logger
	kdf      seedloop.KDFParams
}

func newEnv() (*session, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	kdf, err := kdfParams()
	if err != nil {
		return nil, err
	}
	return &session{
		path:     vip.GetString(StateFileKey),
		registry: seedloop.DefaultRegistry(),
		logger:   logger,
		kdf:      kdf,
	}, nil
}

func (e *session) load() (*seedloop.Seedloop, error) {
	return loadState(e.path, e.registry, e.logger, e.kdf)
}

// unlock prompts for the password of a locked seedloop and returns it so
// the caller can lock again. An unlocked seedloop returns "".
func (e *session) unlock(s *seedloop.Seedloop) (string, error) {
	if !s.IsLocked() {
		return "", nil
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return "", err
	}
	ok, err := s.Unlock(password)
	if err != nil {
		return "", fmt.Errorf("could not unlock: %w", err)
	}
	if !ok {
		return "", formatError(errors.New("wrong password"))
	}
	return password, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readSecret reads one line from stdin when it is piped, or from the
// terminal without echo otherwise.
func readSecret(msg string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("could not read stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	pass, err := readPassword(msg)
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprintln(os.Stderr)
	return string(pass), nil
}

func readNewPassword() (string, error) {
	first, err := readSecret("New password: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", formatError(seedloop.ErrNullPassphrase)
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return first, nil
	}
	second, err := readSecret("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", formatError(errors.New("passwords do not match"))
	}
	return first, nil
}

func readPassword(msg string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, msg)
	t, err := tty.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open tty: %w", err)
	}
	defer t.Close()                                     //nolint: errcheck
	pass, err := term.ReadPassword(int(t.Input().Fd())) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not read passphrase: %w", err)
	}
	return pass, nil
}

func getWidth(maxw int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint: gosec
	if err != nil || w > maxw {
		return maxWidth
	}
	return w
}

func renderBlock(w io.Writer, s lipgloss.Style, width int, str string) {
	_, _ = io.WriteString(w, s.Width(width).Render(str))
	_, _ = io.WriteString(w, "\n")
}

// printBlock renders str in a styled block on a terminal and as a plain
// line otherwise.
func printBlock(style lipgloss.Style, str string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println(str)
		return
	}
	b := strings.Builder{}
	b.WriteRune('\n')
	renderBlock(&b, style, getWidth(maxWidth), str)
	fmt.Print(b.String())
}

// formatError shows err in the error style on a terminal and returns it so
// the command exits with a non-zero code.
func formatError(err error) error {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		printBlock(errorStyle, err.Error())
	}
	return err
}

func completeColor(truecolor, ansi256, ansi string) string {
	//nolint: exhaustive
	switch lipgloss.ColorProfile() {
	case termenv.TrueColor:
		return truecolor
	case termenv.ANSI256:
		return ansi256
	}
	return ansi
}

// setLanguage sets the language of the bip39 mnemonic seed.
func setLanguage(language string) error {
	list := getWordlist(language)
	if list == nil {
		return fmt.Errorf("this language is not supported")
	}
	bip39.SetWordList(list)
	return nil
}

func sanitizeLang(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

var wordLists = map[lang.Tag][]string{
	lang.Chinese:              wordlists.ChineseSimplified,
	lang.SimplifiedChinese:    wordlists.ChineseSimplified,
	lang.TraditionalChinese:   wordlists.ChineseTraditional,
	lang.Czech:                wordlists.Czech,
	lang.AmericanEnglish:      wordlists.English,
	lang.BritishEnglish:       wordlists.English,
	lang.English:              wordlists.English,
	lang.French:               wordlists.French,
	lang.Italian:              wordlists.Italian,
	lang.Japanese:             wordlists.Japanese,
	lang.Korean:               wordlists.Korean,
	lang.Spanish:              wordlists.Spanish,
	lang.EuropeanSpanish:      wordlists.Spanish,
	lang.LatinAmericanSpanish: wordlists.Spanish,
}

func getWordlist(language string) []string {
	language = sanitizeLang(language)
	tag := lang.Make(language)
	en := display.English.Languages() // default language name matcher
	for t := range wordLists {
		if sanitizeLang(en.Name(t)) == language {
			tag = t
			break
		}
	}
	if tag == lang.Und { // Unknown language
		return nil
	}
	base, _ := tag.Base()
	btag := lang.MustParse(base.String())
	wl := wordLists[tag]
	if wl == nil {
		return wordLists[btag]
	}
	return wl
}
