// Command zxfmt is the thin CLI around the parser/render core: the
// only place in this repository allowed to touch the filesystem or
// stdout (SPEC_FULL.md §1). It parses, refuses to render trees that
// carry errors, and otherwise just shuttles bytes.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gmofishsauce/wut4/lang/zxfmt/ast"
	"github.com/gmofishsauce/wut4/lang/zxfmt/diag"
	"github.com/gmofishsauce/wut4/lang/zxfmt/parser"
	"github.com/gmofishsauce/wut4/lang/zxfmt/render"
)

var log = logrus.New()

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "zxfmt",
	Short: "Parse and format zx source files",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case verbosity >= 2:
			log.SetLevel(logrus.TraceLevel)
		case verbosity == 1:
			log.SetLevel(logrus.DebugLevel)
		default:
			log.SetLevel(logrus.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase diagnostic verbosity (-v, -vv)")
	rootCmd.AddCommand(fmtCmd, astDumpCmd)
}

var writeInPlace bool

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format zx source files and print the canonical rendering",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := formatFile(path); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "write result to the source file instead of stdout")
}

var astDumpCmd = &cobra.Command{
	Use:   "ast-dump [files...]",
	Short: "Parse zx source files and dump the resulting tree",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := dumpFile(path); err != nil {
				return err
			}
		}
		return nil
	},
}

func formatFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	start := time.Now()
	tree := parser.Parse(src)
	log.WithFields(logrus.Fields{
		"file":    path,
		"tokens":  tree.Tokens.Len(),
		"nodes":   len(tree.Tags),
		"elapsed": time.Since(start),
	}).Debug("parsed")

	if len(tree.Errors) > 0 {
		f := diag.NewFormatter(path, src, tree.Tokens, os.Stderr)
		fmt.Fprint(diag.Colorable(os.Stderr), f.FormatAll(tree))
		return fmt.Errorf("%s: %d parse error(s)", path, len(tree.Errors))
	}

	out, err := render.Tree(tree)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if writeInPlace {
		return os.WriteFile(path, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func dumpFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	tree := parser.Parse(src)
	log.WithField("file", path).Debug("parsed for ast-dump")

	if len(tree.Errors) > 0 {
		f := diag.NewFormatter(path, src, tree.Tokens, os.Stderr)
		fmt.Fprint(diag.Colorable(os.Stderr), f.FormatAll(tree))
	}

	spew.Fdump(os.Stdout, dumpView(tree))
	return nil
}

// dumpView flattens a Tree's parallel arrays into a slice of per-node
// records so spew.Fdump prints one line per node instead of three
// parallel slices a reader would have to cross-index by hand.
type dumpNode struct {
	Index ast.Index
	Tag   ast.Tag
	Main  string
	LHS   uint32
	RHS   uint32
}

func dumpView(tree *ast.Tree) []dumpNode {
	nodes := make([]dumpNode, len(tree.Tags))
	for i := range tree.Tags {
		n := ast.Index(i)
		d := tree.NodeData(n)
		nodes[i] = dumpNode{
			Index: n,
			Tag:   tree.NodeTag(n),
			Main:  tree.TokenLexeme(tree.MainToken(n)),
			LHS:   d.LHS,
			RHS:   d.RHS,
		}
	}
	return nodes
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "zxfmt: %v\n", err)
		os.Exit(1)
	}
}
