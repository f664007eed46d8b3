package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/newthinker/strategylab/internal/apiclient"
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/logger"
	"github.com/newthinker/strategylab/internal/table"
	"github.com/spf13/cobra"
)

var (
	backtestEmail    string
	backtestPassword string
	backtestToken    string
	backtestOutput   string
)

// backtestFlags maps command flags to form fields.
var backtestFlags = []struct {
	name  string
	field backtest.Field
	usage string
}{
	{"ticker", backtest.FieldTicker, "ticker symbol"},
	{"start", backtest.FieldStartDate, "start date YYYY-MM-DD"},
	{"end", backtest.FieldEndDate, "end date YYYY-MM-DD"},
	{"sma", backtest.FieldSMAPeriod, "SMA period"},
	{"if", backtest.FieldIfCondition, "rule condition, e.g. \"price > sma\""},
	{"then", backtest.FieldThenAction, "action when the condition holds (buy|sell)"},
	{"else", backtest.FieldElseAction, "action otherwise (hold|exit)"},
	{"cash", backtest.FieldInitialCash, "initial cash"},
	{"commission", backtest.FieldCommission, "commission rate"},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one backtest against the backend",
	Long: `Run a rule-based backtest on the backend and print the summary and trade
history. Unset parameters take the same defaults as the web form.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	defaults := backtest.NewForm()
	for _, f := range backtestFlags {
		backtestCmd.Flags().String(f.name, defaults.Value(f.field), f.usage)
	}
	backtestCmd.Flags().StringVar(&backtestEmail, "email", "", "account email (when no token is given)")
	backtestCmd.Flags().StringVar(&backtestPassword, "password", "", "account password (or STRATEGYLAB_PASSWORD)")
	backtestCmd.Flags().StringVar(&backtestToken, "token", "", "access token from a previous login")
	backtestCmd.Flags().StringVarP(&backtestOutput, "output", "o", "", "write trades to a .csv or .parquet file")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(debug, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	form := backtest.NewForm()
	for _, f := range backtestFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		value, _ := cmd.Flags().GetString(f.name)
		if err := form.Set(f.field, value); err != nil {
			return err
		}
	}
	req, ok := form.Submit()
	if !ok {
		for _, f := range backtest.Fields {
			if msg, bad := form.Errors[f]; bad {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f, msg)
			}
		}
		return errors.New("invalid backtest parameters")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Logger:  log,
	})

	token := backtestToken
	if token == "" {
		if token, err = login(ctx, client); err != nil {
			return err
		}
	}

	result, err := client.RunBacktest(ctx, req, token)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	out := cmd.OutOrStdout()
	printResult(out, req, result)

	if backtestOutput != "" {
		if err := writeTrades(backtestOutput, result.TradeHistory); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWrote %d trades to %s\n", len(result.TradeHistory), backtestOutput)
	}
	return nil
}

func login(ctx context.Context, client *apiclient.Client) (string, error) {
	password := backtestPassword
	if password == "" {
		password = os.Getenv("STRATEGYLAB_PASSWORD")
	}
	form := backtest.LoginForm{Email: backtestEmail, Password: password}
	if !form.Validate() {
		var msgs []string
		for _, k := range []string{"email", "password"} {
			if msg, ok := form.Errors[k]; ok {
				msgs = append(msgs, msg)
			}
		}
		return "", fmt.Errorf("--token or valid credentials required: %s", strings.Join(msgs, "; "))
	}

	resp, err := client.Login(ctx, form.Email, form.Password)
	if err != nil {
		return "", fmt.Errorf("signing in: %w", err)
	}
	return resp.AccessToken, nil
}

func printResult(out io.Writer, req backtest.Request, r *backtest.Result) {
	fmt.Fprintf(out, "=== Backtest %s ===\n", req.Ticker)
	fmt.Fprintf(out, "Period: %s to %s\n", req.StartDate, req.EndDate)
	fmt.Fprintf(out, "Rule:   if %s then %s else %s\n\n", req.IfCondition, req.ThenAction, req.ElseAction)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range backtest.Summarize(r) {
		fmt.Fprintf(w, "%s\t%s\n", c.Title, c.Value)
	}
	w.Flush()
	fmt.Fprintln(out)

	if len(r.TradeHistory) == 0 {
		fmt.Fprintln(out, "No trades were executed during this backtest period.")
		return
	}

	columns := backtest.ReportColumns()

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, t := range r.TradeHistory {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = c.Text(t)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
}

func writeTrades(path string, trades []backtest.Trade) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".parquet" {
		return fmt.Errorf("unsupported output extension %q (want .csv or .parquet)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".csv" {
		err = table.WriteCSV(f, trades)
	} else {
		err = table.WriteParquet(f, backtest.Records(trades))
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
