package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chic-lang/chicc/internal/diag"
	"github.com/chic-lang/chicc/internal/session"
)

var (
	errColor  = color.New(color.FgRed, color.Bold).SprintFunc()
	warnColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	noteColor = color.New(color.FgCyan).SprintFunc()
	okColor   = color.New(color.FgGreen, color.Bold).SprintFunc()
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse and type-check a source file, printing diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		s := session.New()
		res := s.Run(string(src), args[0])
		printDiagnostics(res.Diagnostics)

		if !res.Clean() {
			return fmt.Errorf("%s: checking failed", args[0])
		}
		fmt.Println(okColor("ok"))
		return nil
	},
}

func printDiagnostics(sink *diag.Sink) {
	for _, d := range sink.All() {
		loc := ""
		if d.PrimaryLabel != nil {
			loc = d.PrimaryLabel.Span.String() + ": "
		}
		code := ""
		if d.Code != nil {
			code = "[" + d.Code.Code + "] "
		}
		switch d.Severity {
		case diag.Error:
			fmt.Printf("%s%s%s %s\n", loc, errColor("error:"), " "+code, d.Message)
		case diag.Warning:
			fmt.Printf("%s%s%s %s\n", loc, warnColor("warning:"), " "+code, d.Message)
		default:
			fmt.Printf("%s%s%s %s\n", loc, noteColor("note:"), " "+code, d.Message)
		}
	}
}
