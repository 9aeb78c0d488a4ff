package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chic-lang/chicc/internal/reflect"
	"github.com/chic-lang/chicc/internal/session"
)

var emitReflect bool

func init() {
	buildCmd.Flags().BoolVar(&emitReflect, "emit-reflect", false, "also write <output>.reflect.json")
}

var buildCmd = &cobra.Command{
	Use:   "build <file> <output>",
	Short: "Run the full pipeline (parse, check, lower, layout) and optionally emit a reflection manifest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, output := args[0], args[1]
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		s := session.New()
		res := s.Run(string(src), file)
		printDiagnostics(res.Diagnostics)

		if emitReflect {
			out, err := reflect.Encode(res.Reflection)
			if err != nil {
				return fmt.Errorf("encoding reflection manifest: %w", err)
			}
			path := session.ReflectJSONPath(output)
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Printf("wrote %s\n", path)
		}

		fmt.Printf("%d function bodies lowered, %d struct layouts computed\n", len(res.Lowered.Functions), len(res.Layouts))

		if !res.Clean() {
			return fmt.Errorf("%s: build failed", file)
		}
		fmt.Println(okColor("ok"))
		return nil
	},
}
