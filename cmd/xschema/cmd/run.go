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
	"os"
	"os/signal"

	petri "github.com/jt05610/xschema"
	"github.com/jt05610/xschema/amqp"
	"github.com/jt05610/xschema/report"
	"github.com/jt05610/xschema/runner"
	"github.com/jt05610/xschema/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	firingLimit int
	seed        int64
	reportPath  string
	dbPath      string
	useAMQP     bool
	wait        bool
	marks       []string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a petri net and report every round",
	Long: `Run the net declared by a petrifile until nothing can fire or the firing
limit is reached. Every round is logged and, if asked for, written to a CSV
report, a SQLite database and an AMQP exchange.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		net, err := loadNet(ctx)
		if err != nil {
			return err
		}
		r := runner.New(net, logger)
		if err := configure(cmd, r); err != nil {
			return err
		}
		closers, err := listen(r)
		defer func() {
			for _, c := range closers {
				_ = c()
			}
		}()
		if err != nil {
			return err
		}
		unbound, err := bind(r, net)
		if err != nil {
			return err
		}
		if useAMQP {
			conn, err := serve(ctx, r)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			if err := r.AddListener(amqp.NewPublisher(conn.Channel, conn.Exchange, conn.ReportKey())); err != nil {
				return err
			}
		} else if len(unbound) > 0 {
			logger.Warn("external transitions have no handler and will not fire", zap.Strings("transitions", unbound))
		}
		res, err := r.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s %s after %d rounds (seed %d)\n", res.RunID, res.Status, res.Rounds, res.Seed)
		return nil
	},
}

func configure(cmd *cobra.Command, r *runner.Runner) error {
	limit := environ.FiringLimit
	if cmd.Flags().Changed("limit") || limit == 0 {
		limit = firingLimit
	}
	if err := r.SetFiringLimit(limit); err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		if err := r.SetSeed(seed); err != nil {
			return err
		}
	} else if environ.HasSeed {
		if err := r.SetSeed(environ.Seed); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("report") && environ.Report != "" {
		reportPath = environ.Report
	}
	if !cmd.Flags().Changed("db") && environ.DB != "" {
		dbPath = environ.DB
	}
	if !cmd.Flags().Changed("amqp") && environ.URI != "" {
		useAMQP = true
	}
	if err := r.SetWait(wait || useAMQP); err != nil {
		return err
	}
	for _, m := range marks {
		place, token, count, err := parseMark(m)
		if err != nil {
			return err
		}
		if err := r.MarkPlace(place, token, count); err != nil {
			return err
		}
	}
	return nil
}

// listen adds the report listeners asked for and returns how to close them.
func listen(r *runner.Runner) ([]func() error, error) {
	closers := make([]func() error, 0)
	listeners := []petri.Listener{report.NewLogger(logger)}
	if reportPath != "" {
		w, err := report.CreateFiringWriter(reportPath)
		if err != nil {
			return closers, err
		}
		closers = append(closers, w.Close)
		listeners = append(listeners, w)
	}
	if dbPath != "" {
		s, err := sqlite.Open(dbPath)
		if err != nil {
			return closers, err
		}
		closers = append(closers, s.Close)
		listeners = append(listeners, s)
	}
	return closers, r.AddListener(listeners...)
}

func serve(ctx context.Context, r *runner.Runner) (*amqp.Connection, error) {
	if environ.URI == "" {
		return nil, fmt.Errorf("AMQP_URI is not set")
	}
	conn, err := amqp.Dial(environ)
	if err != nil {
		return nil, err
	}
	deliveries, err := conn.Consume()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	src := amqp.NewSource(r, logger)
	go func() {
		if err := src.Serve(ctx, deliveries); err != nil && ctx.Err() == nil {
			logger.Error("signal source stopped", zap.Error(err))
		}
	}()
	logger.Info("listening for signals", zap.String("exchange", conn.Exchange), zap.String("key", conn.SignalKey()))
	return conn, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&firingLimit, "limit", "n", runner.DefaultFiringLimit, "firing limit")
	runCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "tie-break seed, random if not set")
	runCmd.Flags().StringVarP(&reportPath, "report", "r", "", "CSV report path")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	runCmd.Flags().BoolVar(&useAMQP, "amqp", false, "take external signals from and publish reports to AMQP")
	runCmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for external signals while external transitions are enabled")
	runCmd.Flags().StringArrayVarP(&marks, "mark", "m", nil, "initial marking, place=count or place:token=count")
}
