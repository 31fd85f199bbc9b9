package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/shinji-kodama/release-runner/internal/config"
	"github.com/shinji-kodama/release-runner/internal/github"
	"github.com/shinji-kodama/release-runner/internal/logging"
	"github.com/shinji-kodama/release-runner/internal/manifest"
	"github.com/shinji-kodama/release-runner/internal/metrics"
	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/prompt"
	"github.com/shinji-kodama/release-runner/internal/release"
	"github.com/shinji-kodama/release-runner/internal/runner"
	"github.com/shinji-kodama/release-runner/internal/vcs"
)

// successStyle renders the final "Released vX.Y.Z" line on stdout.
var successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))

// runRelease is the main orchestration function of the root command.
// It wires every component and runs the release.
//
// Steps:
//  1. Validate the version argument (nothing else runs for bad input)
//  2. Set up logging and metrics
//  3. Locate the package root and load configuration
//  4. Read the API token (fatal before any release step)
//  5. Build the runner, remote client and orchestrator
//  6. Run all release steps
func runRelease(ctx context.Context, stdout io.Writer, args []string, flags *rootFlags) error {
	// Step 1: The cobra Args func already checked this, but runRelease is
	// also the unit under test, so the check is repeated here before any
	// side effect.
	if len(args) == 0 {
		return fmt.Errorf("%w: missing version argument", model.ErrUsage)
	}
	if err := release.ValidateArg(args[0]); err != nil {
		return err
	}

	// Step 2: Logging goes to stderr so stdout carries only the result.
	// Every line of this run carries the same run_id.
	log, runID := logging.New(logging.Options{Verbose: flags.verbose, Format: flags.logFormat})

	// Metrics are always collected; they are only written out when
	// --metrics-file is set. The deferred write also runs on failure, so
	// an aborted release still leaves its step durations behind.
	m := metrics.New()
	if flags.metricsFile != "" {
		defer func() {
			if werr := m.WriteTextfile(flags.metricsFile); werr != nil {
				log.Warn().Err(werr).Str("path", flags.metricsFile).Msg("could not write metrics file")
			}
		}()
	}

	// Extra positional arguments are tolerated but reported.
	if len(args) > 1 {
		log.Warn().Strs("args", args[1:]).Msg("ignoring unused arguments")
	}

	// Step 3: Determine the package root.
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	// The config file lives in the package root, so the root is found by
	// the default manifest name before any config is read.
	root, err := manifest.FindRoot(cwd, manifest.DefaultName)
	if err != nil {
		return model.WrapCLIError(model.ExitConfig, "not inside a crate", err)
	}
	log.Debug().Str("root", root).Msg("package root")

	// Every external command (git, changie, cargo, the pager) runs in the
	// package root.
	sh := runner.NewExec(root, log)
	git := vcs.New(sh)

	cfg, err := loadConfig(ctx, root, flags, git)
	if err != nil {
		return err
	}

	// Step 4: The token is required before the first step. Failing here
	// means nothing has been modified yet.
	if err := cfg.LoadCredential(); err != nil {
		return err
	}
	log.Info().
		Str("repo", cfg.Owner+"/"+cfg.Repo).
		Str("workflow", cfg.Workflow).
		Str("branch", cfg.Branch).
		Msg("configuration loaded")

	// Step 5: Build the remote client. Countdown holds are drawn on stderr.
	api := github.NewREST(cfg.APIURL, cfg.Owner, cfg.Repo, cfg.Token, log, m)
	remote := github.NewClient(api, github.Options{
		Workflow: cfg.Workflow,
		Timing:   clientTiming(cfg.Timing),
		Status:   os.Stderr,
		Log:      log,
		Metrics:  m,
	})

	// --yes skips the question, not the review: the pager still opens.
	var confirm prompt.Confirmer = prompt.NewTerminal(os.Stdin, os.Stderr)
	if flags.yes {
		confirm = prompt.AssumeYes{}
	}

	// The pager needs the terminal, so the runner must not capture its
	// output.
	pagerCmd := cfg.Pager
	if pagerCmd == "" {
		pagerCmd = prompt.DefaultPager()
	}
	sh.Interactive[pagerCmd] = true

	orch := release.New(release.Options{
		VersionArg: args[0],
		Run:        sh,
		Remote:     remote,
		Manifest:   manifest.NewCargo(filepath.Join(root, cfg.Manifest)),
		Reviewer:   &prompt.Pager{Command: pagerCmd, Run: sh, Log: log},
		Confirm:    confirm,
		PushRemote: cfg.Remote,
		Branch:     cfg.Branch,
		Log:        log,
		Metrics:    m,
	})

	// Step 6: Run every step. The first failure aborts the run; the stage
	// reached tells the operator how far the release got.
	if err := orch.Run(ctx); err != nil {
		log.Error().Err(err).Str("stage", orch.Stage().String()).Msg("release aborted")
		return err
	}

	// The version is memoized by the first step, so this cannot fail.
	v, _ := orch.Version(ctx)
	fmt.Fprintln(stdout, successStyle.Render(fmt.Sprintf("Released %s", v.Tag())))
	log.Debug().Str("run_id", runID).Msg("done")
	return nil
}

// loadConfig reads the config file (explicit or discovered in root),
// applies flag overrides, fills owner/repo from the git remote when unset,
// and validates the result.
//
// Precedence, lowest to highest: built-in defaults, config file, flags.
func loadConfig(ctx context.Context, root string, flags *rootFlags, git *vcs.Git) (*config.Config, error) {
	// An explicit --config wins over discovery. No file at all is fine:
	// Load returns the defaults for an empty path.
	path := flags.configPath
	if path == "" {
		path = config.Discover(root)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	// Flag overrides. Empty means "not given".
	if flags.branch != "" {
		cfg.Branch = flags.branch
	}
	if flags.remote != "" {
		cfg.Remote = flags.remote
	}
	if flags.workflow != "" {
		cfg.Workflow = flags.workflow
	}

	// Owner and repo default to the push remote's URL, so a config file
	// is only needed to change behaviour, not to identify the repository.
	if cfg.Owner == "" || cfg.Repo == "" {
		url, err := git.RemoteURL(ctx, cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot determine repository: %v", model.ErrConfig, err)
		}
		owner, repo, err := vcs.ParseRemote(url)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
		}
		if cfg.Owner == "" {
			cfg.Owner = owner
		}
		if cfg.Repo == "" {
			cfg.Repo = repo
		}
	}

	// Validation runs last so it sees the fully resolved values.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// clientTiming converts the config's Duration wrappers into the plain
// time.Duration values the github package works with.
func clientTiming(t config.Timing) github.Timing {
	return github.Timing{
		CITimeout:         t.CITimeout.D(),
		MinBuildTime:      t.MinBuildTime.D(),
		PollInterval:      t.PollInterval.D(),
		SettleDelay:       t.SettleDelay.D(),
		ResolveAttempts:   t.ResolveAttempts,
		BackoffInitial:    t.BackoffInitial.D(),
		BackoffMultiplier: t.BackoffMultiplier,
		HoldTick:          t.HoldTick.D(),
	}
}
