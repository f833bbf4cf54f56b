package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/benchsweep/sweep"
	"github.com/inference-sim/benchsweep/sweep/config"
	"github.com/inference-sim/benchsweep/sweep/executor"
	"github.com/inference-sim/benchsweep/sweep/report"
	"github.com/inference-sim/benchsweep/sweep/trace"
)

// runFlags holds the flags of the run command.
type runFlags struct {
	config        string
	passwordEnv   string
	passwordFile  string
	passwordStdin bool
	dbPath        string
	metricsAddr   string
	traceLevel    string
	logDir        string
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sweep",
	Run: func(cmd *cobra.Command, args []string) {
		runOpts.config = configPath
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runSweep(ctx, runOpts, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			stop()
			logrus.Fatalf("Sweep failed: %v", err)
		}
	},
}

// runSweep loads the sweep file, wires executor, controller and sinks and
// runs the sweep to completion.
func runSweep(ctx context.Context, o runFlags, stdin io.Reader, stdout io.Writer) error {
	if !trace.IsValidTraceLevel(o.traceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, samples", o.traceLevel)
	}
	f, err := config.Load(o.config)
	if err != nil {
		return err
	}
	cred, err := loadCredential(o, stdin)
	if err != nil {
		return err
	}
	if len(f.Elevate) > 0 && cred.IsZero() {
		logrus.Warnf("No credential given; %s must not prompt for a password", f.Elevate[0])
	}

	exec, err := executor.New(f.ExecutorOptions(cred))
	if err != nil {
		return err
	}

	logDir := f.LogDir
	if o.logDir != "" {
		logDir = o.logDir
	}
	logSink := report.NewLogSink(logDir)
	sinks := []report.Sink{logSink}

	if o.dbPath != "" {
		db, err := report.OpenSQLiteSink(o.dbPath)
		if err != nil {
			return err
		}
		sinks = append(sinks, db)
	}

	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		sinks = append(sinks, report.NewMetricsSink(reg))
		srv := serveMetrics(o.metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	tr := trace.NewSweepTrace(trace.TraceConfig{Level: trace.TraceLevel(o.traceLevel)})
	ctlOpts := f.ControllerOptions()
	ctlOpts.Trace = tr

	sw := sweep.New(sweep.Options{
		Name:       f.Name,
		Targets:    f.Targets,
		Spec:       f.Spec(),
		Sampler:    exec,
		Controller: ctlOpts,
		Sinks:      sinks,
	})
	sum, runErr := sw.Run(ctx)

	if logSink.Path() != "" {
		fmt.Fprintf(stdout, "run %s: %d points (converged=%d exhausted=%d failed=%d), log %s\n",
			sum.RunID, sum.Totals.Points, sum.Totals.Converged, sum.Totals.Exhausted, sum.Totals.Failed, logSink.Path())
	}
	if tr.Enabled() {
		printTraceSummary(stdout, trace.Summarize(tr))
	}
	return runErr
}

// loadCredential picks at most one credential source.
func loadCredential(o runFlags, stdin io.Reader) (executor.Credential, error) {
	n := 0
	for _, set := range []bool{o.passwordEnv != "", o.passwordFile != "", o.passwordStdin} {
		if set {
			n++
		}
	}
	switch {
	case n > 1:
		return executor.Credential{}, errors.New("use only one of --password-env, --password-file, --password-stdin")
	case o.passwordEnv != "":
		return executor.CredentialFromEnv(o.passwordEnv)
	case o.passwordFile != "":
		return executor.CredentialFromFile(o.passwordFile)
	case o.passwordStdin:
		return executor.CredentialFromReader(stdin)
	}
	return executor.Credential{}, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logrus.Infof("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server: %v", err)
		}
	}()
	return srv
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintf(w, "=== Sample Trace ===\n")
	fmt.Fprintf(w, "Attempts: %d (ok %d, failed %d, retries %d, timeouts %d)\n",
		s.TotalAttempts, s.Succeeded, s.Failed, s.Retries, s.Timeouts)
	fmt.Fprintf(w, "Points touched: %d\n", s.PointsTouched)
	fmt.Fprintf(w, "Attempt duration: mean %s, max %s\n",
		s.MeanDuration.Round(time.Millisecond), s.MaxDuration.Round(time.Millisecond))
	for status, n := range s.FailuresByStatus {
		fmt.Fprintf(w, "  %s: %d\n", status, n)
	}
}

func init() {
	addConfigFlag(runCmd)
	runCmd.Flags().StringVar(&runOpts.passwordEnv, "password-env", "", "Read the elevation credential from this environment variable")
	runCmd.Flags().StringVar(&runOpts.passwordFile, "password-file", "", "Read the elevation credential from the first line of this file")
	runCmd.Flags().BoolVar(&runOpts.passwordStdin, "password-stdin", false, "Read the elevation credential from the first line of stdin")
	runCmd.Flags().StringVar(&runOpts.dbPath, "db", "", "Also store results in this SQLite database")
	runCmd.Flags().StringVar(&runOpts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9101")
	runCmd.Flags().StringVar(&runOpts.traceLevel, "trace", "none", "Trace level (none, samples)")
	runCmd.Flags().StringVar(&runOpts.logDir, "log-dir", "", "Directory for the result log (overrides log_dir)")

	rootCmd.AddCommand(runCmd)
}
