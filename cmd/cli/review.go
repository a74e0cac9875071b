package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	gh "github.com/google/go-github/v73/github"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ganderhq/gander/internal/core"
	"github.com/ganderhq/gander/internal/github"
	"github.com/ganderhq/gander/internal/gitutil"
	"github.com/ganderhq/gander/internal/llm"
	"github.com/ganderhq/gander/internal/logger"
	"github.com/ganderhq/gander/internal/review"
)

var (
	verbose    bool
	postReview bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Generate a code review for a GitHub Pull Request",
	Long: `Generate a code review for a GitHub Pull Request.

The review command fetches the PR's changed files with a personal access
token, builds a bounded prompt from the patches, and asks the configured
LLM for a review. By default the review is rendered to the terminal; pass
--post to publish it as a PR comment instead.

Examples:
  gander-cli review https://github.com/owner/repo/pull/123
  gander-cli review --post https://github.com/owner/repo/pull/123
  gander-cli review --verbose https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().BoolVar(&postReview, "post", false, "Post the review as a PR comment instead of printing it")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{
		stepNum:    0,
		totalSteps: totalSteps,
		verbose:    verbose,
	}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\nStep %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   └── %s\n", d)
		}
	}
}

func (t *stepTimer) info(format string, args ...any) {
	if t.verbose {
		dimColor.Printf("   ├── "+format+"\n", args...)
	}
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]

	timer := newStepTimer(5, verbose)
	overallStart := time.Now()

	titleColor.Println("Gander - PR Review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	// 1. Load configuration
	timer.step("Loading configuration")
	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForCLI(); err != nil {
		return fmt.Errorf("%w\n\nTip: pass --github-token or set GANDER_GITHUB_TOKEN", err)
	}

	var logOut io.Writer = io.Discard
	if verbose {
		logOut = os.Stderr
	}
	log := logger.NewLogger(cfg.Logging, logOut)
	timer.done()

	// 2. Fetch PR metadata and changed files
	timer.step("Fetching pull request")
	client, err := github.NewPATClient(ctx, cfg.GitHub.Token, cfg.GitHub.APIBaseURL, log)
	if err != nil {
		return fmt.Errorf("failed to build GitHub client: %w", err)
	}

	var (
		pr    *gh.PullRequest
		files []core.ChangedFile
	)
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		pr, err = client.GetPullRequest(grpCtx, owner, repoName, prNumber)
		return err
	})
	grp.Go(func() error {
		var err error
		files, err = client.ListChangedFiles(grpCtx, owner, repoName, prNumber)
		return err
	})
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("failed to fetch PR: %w\n\nTip: check that the PR exists and your token has access", err)
	}

	bundle := &core.DiffBundle{
		RepoFullName: owner + "/" + repoName,
		PRNumber:     prNumber,
		PRTitle:      pr.GetTitle(),
		HeadSHA:      pr.GetHead().GetSHA(),
		Files:        files,
	}
	timer.info("PR #%d: %s", prNumber, bundle.PRTitle)
	timer.info("Head SHA: %s", truncateSHA(bundle.HeadSHA))
	timer.info("Changed files: %d", len(files))
	timer.done()

	if !bundle.HasPatches() {
		warnColor.Println("\nNothing to review: no file in this PR carries patch text.")
		return nil
	}

	// 3. Load the repository's review config
	timer.step("Loading repository review config")
	repoCfg, err := client.FetchRepoConfig(ctx, owner, repoName, bundle.HeadSHA)
	if err != nil {
		if errors.Is(err, github.ErrConfigNotFound) {
			timer.info("no %s found, using defaults", github.RepoConfigPath)
		} else {
			warnColor.Printf("   could not load %s, using defaults: %v\n", github.RepoConfigPath, err)
		}
		repoCfg = core.DefaultRepoConfig()
	}
	timer.done()

	// 4. Generate the review
	timer.step("Generating review")
	model, err := llm.NewModel(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize the %s model: %w", cfg.LLM.Provider, err)
	}
	prompts, err := llm.NewPromptManager()
	if err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}
	generator := review.NewGenerator(model, prompts, llm.NewTokenEstimator(log), cfg.Review.MaxPromptTokens, log)

	result, err := generator.Generate(ctx, bundle, repoCfg)
	if err != nil {
		if errors.Is(err, core.ErrNoReviewableChanges) {
			warnColor.Println("\nNothing to review: every changed file is excluded by the repository config.")
			return nil
		}
		return fmt.Errorf("failed to generate review: %w\n\nTip: check that the LLM provider is reachable and the API key is valid", err)
	}
	timer.info("Review length: %d characters", len(result.Body))
	timer.done()

	// 5. Publish or render
	if postReview {
		timer.step("Posting review comment")
		commentID, err := client.CreateComment(ctx, owner, repoName, prNumber, result.Body)
		if err != nil {
			return fmt.Errorf("failed to post review comment: %w", err)
		}
		timer.done()

		if verbose {
			dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Millisecond))
		}
		successColor.Printf("\n✓ Review posted: https://github.com/%s/%s/pull/%d#issuecomment-%d\n", owner, repoName, prNumber, commentID)
		return nil
	}

	timer.step("Rendering review")
	rendered, err := renderMarkdown(result.Body)
	if err != nil {
		// Fall back to the raw markdown rather than losing the review.
		rendered = result.Body
	}
	timer.done()

	if verbose {
		dimColor.Printf("\nTotal time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}
	fmt.Println(rendered)
	return nil
}

func renderMarkdown(body string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(body)
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
