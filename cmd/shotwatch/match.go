package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/shotwatch/internal/match"
)

var matchOpts struct {
	quiet bool
}

var matchCmd = &cobra.Command{
	Use:   "match <path>...",
	Short: "Test paths against the screenshot match rule",
	Long: `Test one or more paths against the configured match rule.

Paths are not required to exist. The exit status is 0 when every path
matches and 2 otherwise, so the command can be used in scripts:

  shotwatch match -q "$file" && echo screenshot`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolVarP(&matchOpts.quiet, "quiet", "q", false,
		"Print nothing, only set the exit status")
}

func runMatch(cmd *cobra.Command, args []string) error {
	rule, err := cfg.Rule()
	if err != nil {
		return fmt.Errorf("invalid match rule: %w", err)
	}
	logger.Debug("testing paths", "rule", rule.String(), "count", len(args))

	out := io.Writer(os.Stdout)
	if matchOpts.quiet {
		out = io.Discard
	}

	if !reportMatches(out, rule, args, newMatchStyles()) {
		return &exitError{code: 2}
	}
	return nil
}

// matchStyles styles the match report.
type matchStyles struct {
	hit    lipgloss.Style
	miss   lipgloss.Style
	detail lipgloss.Style
}

func newMatchStyles() matchStyles {
	return matchStyles{
		hit:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		miss:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// reportMatches writes one line per path and reports whether all matched.
func reportMatches(w io.Writer, rule *match.Rule, paths []string, styles matchStyles) bool {
	all := true
	for _, path := range paths {
		c := match.NewCandidate(path)
		ok := rule.MatchCandidate(c)
		all = all && ok
		_, _ = fmt.Fprintln(w, renderMatch(c, ok, styles))
	}
	return all
}

// renderMatch formats a single result line.
func renderMatch(c match.Candidate, ok bool, styles matchStyles) string {
	mark := styles.miss.Render("no ")
	if ok {
		mark = styles.hit.Render("yes")
	}

	ext := c.Extension
	if ext == "" {
		ext = "-"
	}
	return mark + " " + c.Path + " " + styles.detail.Render("(ext: "+ext+")")
}
