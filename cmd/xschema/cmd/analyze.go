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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jt05610/xschema/analysis"
	"github.com/spf13/cobra"
)

var token string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the incidence matrix of a petri net",
	Long: `Print the incidence matrix of the composed net for one token type and
whether the net conserves that token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		net, err := loadNet(cmd.Context())
		if err != nil {
			return err
		}
		a := analysis.New(net, token)
		inc, err := a.Incidence()
		if err != nil {
			return err
		}
		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', tabwriter.AlignRight)
		header := make([]string, 0, len(a.Places)+1)
		header = append(header, "")
		for _, p := range a.Places {
			header = append(header, p.Name)
		}
		fmt.Fprintln(out, strings.Join(header, "\t")+"\t")
		for i, t := range a.Transitions {
			row := make([]string, 0, len(a.Places)+1)
			row = append(row, t.Name)
			for j := range a.Places {
				row = append(row, fmt.Sprint(inc.At(i, j)))
			}
			fmt.Fprintln(out, strings.Join(row, "\t")+"\t")
		}
		if err := out.Flush(); err != nil {
			return err
		}
		conservative, err := a.Conservative()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s conservative: %t\n", a.Token, conservative)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&token, "token", "t", "", "token type to analyze, the default token if empty")
}
