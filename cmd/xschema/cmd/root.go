/*
Copyright © 2024 Jonathan Taylor <jonrtaylor12@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/builder"
	"github.com/jt05610/xschema/env"
	"github.com/jt05610/xschema/petrifile/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	inputFile  string
	searchDirs []string
	envFiles   []string
	verbose    bool

	logger  *zap.Logger
	environ *env.Environment
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "xschema",
	Short:         "Run and inspect x-schema petri nets",
	Long:          `Run and inspect x-schema petri nets authored as petrifiles, including the nets they include.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return err
		}
		environ, err = env.Load(logger, envFiles...)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// loadNet builds the hierarchy declared by the input petrifile and composes it.
func loadNet(ctx context.Context) (*petri.Net, error) {
	if inputFile == "" {
		return nil, fmt.Errorf("an input petrifile is required")
	}
	dirs := append([]string{filepath.Dir(inputFile)}, searchDirs...)
	b := builder.NewBuilder(nil, dirs...).
		WithService("yaml", &yaml.Service{}).
		WithLogger(logger)
	h, err := b.Build(ctx, filepath.Base(inputFile))
	if err != nil {
		return nil, err
	}
	return h.PetriNet()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input petrifile")
	rootCmd.PersistentFlags().StringSliceVar(&searchDirs, "dir", nil, "directories to search for included petrifiles")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}
