package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	lipgloss "github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/erg0nix/synapse/internal/compose"
	"github.com/erg0nix/synapse/internal/config"
	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/evolution"
	"github.com/erg0nix/synapse/internal/provider"
	"github.com/erg0nix/synapse/internal/session"
)

const defaultMode = "standard"

func runCmd(cmd *cobra.Command, _ []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := loadStore(cfg)
	if err != nil {
		return err
	}

	seed, _ := cmd.Flags().GetUint64("seed")
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	l := &loop{
		cfg:      cfg,
		store:    store,
		client:   newClient(cfg),
		selector: compose.NewSelector(seed),
		composer: compose.Composer{HistoryWindow: cfg.HistoryWindow},
		recorder: session.NewRecorder(store, cfg.Model, nil),
		renderer: newMarkdownRenderer(),
		mode:     defaultMode,
	}

	return l.run()
}

func loadStore(cfg config.Config) (*content.Store, error) {
	store, err := content.Load(cfg.ContentDir)
	if err != nil {
		var loadErr *content.LoadError
		if errors.As(err, &loadErr) && os.IsNotExist(errors.Unwrap(loadErr)) {
			return nil, fmt.Errorf("%w\n  run: synapse init", err)
		}
		return nil, err
	}
	return store, nil
}

func newClient(cfg config.Config) *provider.Client {
	return provider.New(provider.Config{
		Endpoint:    cfg.Endpoint,
		HTTPTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     time.Duration(cfg.Retry.BackoffMs) * time.Millisecond,
	})
}

type loop struct {
	cfg      config.Config
	store    *content.Store
	client   *provider.Client
	selector *compose.Selector
	composer compose.Composer
	recorder *session.Recorder
	renderer *glamour.TermRenderer
	mode     string
}

func (l *loop) run() error {
	l.printBanner()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		lipgloss.Print(stylePrompt.Render("[you] > "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := l.dispatch(line); quit {
				return nil
			}
			continue
		}

		if err := l.turn(line); err != nil {
			lipgloss.Println(styledError(err.Error()))
		}
	}
}

func (l *loop) printBanner() {
	lipgloss.Println(styleBanner.Render("synapse") + styleDim.Render("  model: "+l.cfg.Model+"  endpoint: "+l.cfg.Endpoint))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !l.client.Healthy(ctx) {
		lipgloss.Println(styleWarning.Render("endpoint is not answering - responses will fail until it is up"))
		lipgloss.Println(styleDim.Render("start it with: ollama serve"))
	}

	lipgloss.Println(styleDim.Render("modes: " + strings.Join(l.store.Modes(), ", ")))
	lipgloss.Println(styleDim.Render("type /help for commands, /quit to leave"))
}

// dispatch handles one slash command. Errors are reported to the user and
// never end the loop; only /quit does.
func (l *loop) dispatch(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/quit":
		lipgloss.Println(styleDim.Render("the synapse continues in silence..."))
		return true
	case "/mode":
		l.cmdMode(args)
	case "/save":
		l.cmdSave()
	case "/mastery":
		fmt.Println(evolution.MasteryDiagram(l.store, l.recorder.Session(), l.cfg.Diagram.TierThresholds))
	case "/evolution":
		l.cmdEvolution(args)
	case "/load":
		l.cmdLoad(args)
	case "/reload":
		if err := l.store.Reload(); err != nil {
			lipgloss.Println(styledError(err.Error()))
			break
		}
		lipgloss.Println(styleSuccess.Render("content reloaded from disk"))
	case "/sessions":
		l.cmdSessions()
	case "/models":
		l.cmdModels()
	case "/help":
		l.printHelp()
	default:
		lipgloss.Println(styledError("unknown command: "+command, "type /help for the command list"))
	}

	return false
}

func (l *loop) cmdMode(args []string) {
	if len(args) != 1 {
		lipgloss.Println(styledError("usage: /mode <name>", "modes: "+strings.Join(l.store.Modes(), ", ")))
		return
	}

	mode := args[0]
	if _, err := l.store.Framework(mode); err != nil {
		lipgloss.Println(styledError("unknown mode: "+mode, "modes: "+strings.Join(l.store.Modes(), ", ")))
		return
	}

	l.mode = mode
	lipgloss.Println(styleSuccess.Render("mode set to ") + styleMode.Render(strings.ToUpper(mode)))
}

func (l *loop) cmdSave() {
	path, err := l.recorder.Save(l.cfg.SessionsDir())
	if err != nil {
		lipgloss.Println(styledError("save failed: " + err.Error()))
		return
	}
	lipgloss.Println(styleSuccess.Render("session saved") + " " + styleDim.Render(path))
}

func (l *loop) cmdEvolution(args []string) {
	report, err := evolution.Analyze(l.store, l.cfg.SessionsDir(), args...)
	if err != nil {
		lipgloss.Println(styledError(err.Error()))
		return
	}
	fmt.Println(evolution.RenderReport(l.store, report))
}

func (l *loop) cmdLoad(args []string) {
	if len(args) != 1 {
		lipgloss.Println(styledError("usage: /load <path>"))
		return
	}

	count, err := l.store.LoadFrameworkFile(args[0])
	if err != nil {
		lipgloss.Println(styledError(err.Error()))
		return
	}
	lipgloss.Println(styleSuccess.Render(fmt.Sprintf("loaded %d framework(s)", count)))
}

func (l *loop) cmdSessions() {
	list, err := session.List(l.cfg.SessionsDir())
	if err != nil {
		lipgloss.Println(styledError(err.Error()))
		return
	}
	if len(list) == 0 {
		lipgloss.Println(styleDim.Render("no sessions found"))
		return
	}
	printSessionsTable(list, l.recorder.ID())
}

func (l *loop) cmdModels() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := l.client.ListModels(ctx)
	if err != nil {
		lipgloss.Println(styledError("cannot list models: " + err.Error()))
		return
	}
	for _, model := range models {
		marker := "  "
		if model == l.cfg.Model {
			marker = styleSuccess.Render("* ")
		}
		lipgloss.Println(marker + model)
	}
}

func (l *loop) printHelp() {
	lines := [][2]string{
		{"/mode <name>", "set the interaction mode"},
		{"/save", "save the current session (JSON + transcript)"},
		{"/mastery", "show this session's mastery diagram"},
		{"/evolution [file...]", "evolution report over all or named sessions"},
		{"/load <path>", "load a framework file or folder into the store"},
		{"/reload", "re-read all content from disk"},
		{"/sessions", "list saved sessions"},
		{"/models", "list models the endpoint offers"},
		{"/quit", "exit"},
	}
	for _, line := range lines {
		lipgloss.Println("  " + styleMode.Render(fmt.Sprintf("%-22s", line[0])) + styleDim.Render(line[1]))
	}
}

// turn runs one full exchange: draw, compose, call the model, record,
// render. An interrupt while the call is in flight cancels it and records
// nothing.
func (l *loop) turn(input string) error {
	framework, err := l.store.Framework(l.mode)
	if err != nil {
		return err
	}

	archetype, koan, element, err := l.selector.Choose(l.store, framework, l.recorder.Count())
	if err != nil {
		return err
	}

	prompt := l.composer.Compose(compose.Turn{
		Mode:      l.mode,
		Framework: framework,
		Archetype: archetype,
		Koan:      koan,
		Element:   element,
		History:   l.recorder.History(l.composer.HistoryWindow),
		Input:     input,
	})

	lipgloss.Println(styleDim.Render("archetype: "+archetype.Name) + styleKoan.Render("  koan: "+koan.Text))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	output, err := l.client.Generate(ctx, provider.Request{
		Model:    l.cfg.Model,
		System:   prompt.System,
		Prompt:   prompt.User,
		Sampling: &l.cfg.Sampling,
	})
	if err != nil {
		return describeModelError(err)
	}

	if err := l.recorder.Append(l.mode, archetype.ID, koan.ID, input, output); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(renderMarkdown(l.renderer, output))
	return nil
}

func describeModelError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return errors.New("turn cancelled - nothing recorded")
	default:
		var transient *provider.TransientError
		if errors.As(err, &transient) {
			return fmt.Errorf("model unreachable after retries: %w", err)
		}
		return err
	}
}
