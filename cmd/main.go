package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"

	"patterncal/internal/caldav"
	"patterncal/internal/export"
	"patterncal/internal/extract"
	"patterncal/internal/google"
	"patterncal/internal/normalize"
	"patterncal/internal/render"
	"patterncal/internal/report"
	"patterncal/internal/rules"
	"patterncal/internal/source"
	"patterncal/internal/summary"
)

const defaultRulesFile = "rules.yaml"

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "patterncal",
		Usage: "Extract clients, amounts and durations from calendar event titles.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rules", Value: defaultRulesFile, EnvVars: []string{"PATTERNCAL_RULES"}, Usage: "YAML file holding the extraction rules."},
		},
		Commands: []*cli.Command{
			authCommand(),
			calendarsCommand(),
			extractCommand(),
			summaryCommand(),
			invoiceCommand(),
			rulesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		var perr *normalize.ParseError
		if errors.As(err, &perr) {
			slog.Error("Calendar could not be read", "error", perr)
		} else {
			slog.Error("Application failed", "error", err)
		}
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			logger.Info("Starting Google authentication flow.")

			auth, err := newAuthenticator()
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL, _ := auth.AuthURL()
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')

			token, err := auth.Exchange(c.Context, authCode)
			if err != nil {
				return err
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)

			if err := auth.SaveToken(accountName, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "account", accountName)
			return nil
		},
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List the Google calendars of an account.",
		Flags: []cli.Flag{accountFlag()},
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			client, err := googleCalendarClient(c, logger)
			if err != nil {
				return err
			}
			cals, err := client.ListCalendars(c.Context)
			if err != nil {
				return err
			}
			for _, cal := range cals {
				fmt.Printf("%s\t%s\n", cal.ID, cal.Summary)
			}
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Apply the rules to a calendar and show one row per event.",
		Flags: append(sourceFlags(),
			&cli.StringFlag{Name: "out", Usage: "Write the result to a .csv or .xlsx file."},
			&cli.StringFlag{Name: "sheet", Usage: "Push the result to this Google spreadsheet (URL or id)."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			res, err := runReport(c.Context, c, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%d events in period (out of %d).\n", len(res.Events), res.Fetched)
			if res.Table.Empty() {
				fmt.Println("No data to show.")
				return nil
			}
			fmt.Println(render.Table(res.Table))
			fmt.Print(render.Totals(res.Totals))

			if out := c.String("out"); out != "" {
				if err := writeFile(out, res.Table, "Détail"); err != nil {
					return err
				}
				logger.Info("Result written.", "file", out)
			}
			if sheet := c.String("sheet"); sheet != "" {
				sc, err := sheetsClient(c, logger)
				if err != nil {
					return err
				}
				return sc.WriteTable(c.Context, google.ExtractID(sheet), "", res.Table)
			}
			return nil
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Group the extracted values by client.",
		Flags: append(sourceFlags(),
			&cli.StringFlag{Name: "out", Usage: "Write the summary to a .csv or .xlsx file."},
			&cli.StringFlag{Name: "schedule", Usage: "Re-run on this cron schedule (e.g. '0 8 * * 1') until interrupted."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))

			once := func(ctx context.Context) error {
				res, err := runReport(ctx, c, logger)
				if err != nil {
					return err
				}
				if res.ByClient == nil {
					fmt.Println("No client column detected for grouping. Check your extraction rules.")
					return nil
				}
				fmt.Println(render.Table(res.ByClient))
				fmt.Print(render.Totals(res.Totals))
				if out := c.String("out"); out != "" {
					return writeFile(out, res.ByClient, "Synthèse")
				}
				return nil
			}

			spec := c.String("schedule")
			if spec == "" {
				return once(c.Context)
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return report.Schedule(ctx, logger, spec, once)
		},
	}
}

func invoiceCommand() *cli.Command {
	return &cli.Command{
		Name:  "invoice",
		Usage: "Generate a Google Docs invoice and its PDF for one client.",
		Flags: append(sourceFlags(),
			&cli.StringFlag{Name: "client", Required: true, Usage: "Client value as extracted."},
			&cli.StringFlag{Name: "amount", Value: "Montant", Usage: "Numeric column holding the amounts."},
			&cli.StringFlag{Name: "template", Required: true, EnvVars: []string{"INVOICE_TEMPLATE"}, Usage: "Google Docs template (URL or id)."},
			&cli.StringFlag{Name: "folder", Required: true, EnvVars: []string{"INVOICE_FOLDER"}, Usage: "Drive folder receiving the invoice (URL or id)."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLogger(os.Getenv("LOG_LEVEL"))
			res, err := runReport(c.Context, c, logger)
			if err != nil {
				return err
			}
			if res.ClientColumn == "" {
				return errors.New("no client column in the result, check the extraction rules")
			}

			inv, err := summary.InvoiceFor(res.Table, res.ClientColumn, c.String("amount"), c.String("client"))
			if err != nil {
				return err
			}

			httpClient, err := googleHTTPClient(c)
			if err != nil {
				return err
			}
			svc, err := google.NewInvoiceService(c.Context, logger, httpClient)
			if err != nil {
				return err
			}
			out, err := svc.Generate(c.Context,
				google.ExtractID(c.String("template")),
				google.ExtractID(c.String("folder")),
				inv.Client,
				inv.Replacements(language.French))
			if err != nil {
				return err
			}
			fmt.Printf("Invoice created: %s\n", out.PDFLink)
			return nil
		},
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Manage the extraction rules.",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the current rules.",
				Action: func(c *cli.Context) error {
					rs, err := rules.Load(c.String("rules"))
					if err != nil {
						return err
					}
					for _, r := range rs {
						fmt.Printf("%s\t%s\t%s\n", r.Name, r.Kind, r.Pattern)
					}
					return rules.Validate(rs)
				},
			},
			{
				Name:  "reset",
				Usage: "Write the default rules to the rules file.",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "extended", Usage: "Include the project rule."}},
				Action: func(c *cli.Context) error {
					rs := rules.Defaults()
					if c.Bool("extended") {
						rs = rules.Extended()
					}
					return rules.Save(c.String("rules"), rs)
				},
			},
			{
				Name:  "add",
				Usage: "Append a rule.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "pattern", Required: true},
					&cli.StringFlag{Name: "type", Value: string(rules.KindText), Usage: "text or number"},
				},
				Action: func(c *cli.Context) error {
					rs, err := rules.Load(c.String("rules"))
					if err != nil {
						return err
					}
					rs = append(rs, rules.Rule{Name: c.String("name"), Pattern: c.String("pattern"), Kind: rules.ParseKind(c.String("type"))})
					return rules.Save(c.String("rules"), rs)
				},
			},
			{
				Name:  "remove",
				Usage: "Remove the rule with the given name.",
				Flags: []cli.Flag{&cli.StringFlag{Name: "name", Required: true}},
				Action: func(c *cli.Context) error {
					rs, err := rules.Load(c.String("rules"))
					if err != nil {
						return err
					}
					kept := rs[:0]
					for _, r := range rs {
						if r.Name != c.String("name") {
							kept = append(kept, r)
						}
					}
					return rules.Save(c.String("rules"), kept)
				},
			},
			{
				Name:  "import-sheet",
				Usage: "Replace the rules with the ones listed in a Google spreadsheet (columns name, pattern, type).",
				Flags: []cli.Flag{
					accountFlag(),
					&cli.StringFlag{Name: "sheet", Required: true, Usage: "Spreadsheet URL or id."},
					&cli.StringFlag{Name: "range", Value: "A:Z"},
				},
				Action: func(c *cli.Context) error {
					logger := setupLogger(os.Getenv("LOG_LEVEL"))
					sc, err := sheetsClient(c, logger)
					if err != nil {
						return err
					}
					header, rows, err := sc.ReadTable(c.Context, google.ExtractID(c.String("sheet")), c.String("range"))
					if err != nil {
						return err
					}
					rs, err := rules.FromSheet(header, rows)
					if err != nil {
						return err
					}
					logger.Info("Imported rules from sheet.", "count", len(rs))
					return rules.Save(c.String("rules"), rs)
				},
			},
		},
	}
}

func accountFlag() cli.Flag {
	return &cli.StringFlag{Name: "account", EnvVars: []string{"GOOGLE_ACCOUNT"}, Usage: "Google account name used at 'auth' time."}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "ics", Usage: "Read events from an .ics file."},
		&cli.StringFlag{Name: "url", Usage: "Read events from an .ics link."},
		&cli.StringFlag{Name: "google-calendar", Usage: "Read events from this Google calendar id."},
		&cli.IntFlag{Name: "days-back", Value: 90, Usage: "How far back to fetch Google events."},
		&cli.BoolFlag{Name: "caldav", Usage: "Read events from the CalDAV calendar configured in the environment."},
		&cli.StringFlag{Name: "from", Usage: "First day of the period (YYYY-MM-DD), 30 days before --to by default."},
		&cli.StringFlag{Name: "to", Usage: "Last day of the period (YYYY-MM-DD), today by default."},
		accountFlag(),
	}
}

func runReport(ctx context.Context, c *cli.Context, logger *slog.Logger) (*report.Result, error) {
	loc, err := primaryLocation(os.Getenv("PRIMARY_TIMEZONE"))
	if err != nil {
		return nil, err
	}
	// Resolved on every call so scheduled runs follow the current day.
	from, to, err := period(c.String("from"), c.String("to"), time.Now(), loc)
	if err != nil {
		return nil, err
	}

	rs, err := rules.Load(c.String("rules"))
	if err != nil {
		return nil, err
	}
	if err := rules.Validate(rs); err != nil {
		logger.Warn("Rules have problems, the result may miss columns.", "error", err)
	}

	src, err := buildSource(ctx, c, logger, from, to)
	if err != nil {
		return nil, err
	}
	return report.NewReporter(logger, src).Run(ctx, report.Options{From: from, To: to, Rules: rs})
}

func buildSource(ctx context.Context, c *cli.Context, logger *slog.Logger, from, to time.Time) (source.Source, error) {
	switch {
	case c.String("ics") != "":
		return source.File{Path: c.String("ics")}, nil
	case c.String("url") != "":
		return source.URL{URL: c.String("url")}, nil
	case c.String("google-calendar") != "":
		client, err := googleCalendarClient(c, logger)
		if err != nil {
			return nil, err
		}
		return source.Google{Client: client, CalendarID: c.String("google-calendar"), DaysBack: c.Int("days-back")}, nil
	case c.Bool("caldav"):
		name := os.Getenv("CALDAV_CALENDAR_NAME")
		client, err := caldav.NewClient(ctx, logger, os.Getenv("CALDAV_URL"), os.Getenv("CALDAV_USERNAME"), os.Getenv("CALDAV_PASSWORD"), name)
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		return source.CalDAV{Client: client, Calendar: name, From: from, To: to.AddDate(0, 0, 1)}, nil
	}
	return nil, errors.New("no source given: use --ics, --url, --google-calendar or --caldav")
}

func newAuthenticator() (*google.Authenticator, error) {
	return google.NewAuthenticator(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), os.Getenv("GOOGLE_REDIRECT_URL"), os.Getenv("GOOGLE_TOKEN_DIR"))
}

// googleHTTPClient returns an authorized client for --account, or for the
// only saved account when none is given.
func googleHTTPClient(c *cli.Context) (*http.Client, error) {
	auth, err := newAuthenticator()
	if err != nil {
		return nil, err
	}
	account := c.String("account")
	if account == "" {
		accounts, err := auth.Accounts()
		if err != nil {
			return nil, fmt.Errorf("could not find any google accounts, did you run auth command? %w", err)
		}
		if len(accounts) != 1 {
			return nil, fmt.Errorf("found %d google accounts, pick one with --account", len(accounts))
		}
		account = accounts[0]
	}
	return auth.Client(c.Context, account)
}

func googleCalendarClient(c *cli.Context, logger *slog.Logger) (*google.CalendarClient, error) {
	httpClient, err := googleHTTPClient(c)
	if err != nil {
		return nil, err
	}
	return google.NewCalendarClient(c.Context, logger, httpClient)
}

func sheetsClient(c *cli.Context, logger *slog.Logger) (*google.SheetsClient, error) {
	httpClient, err := googleHTTPClient(c)
	if err != nil {
		return nil, err
	}
	return google.NewSheetsClient(c.Context, logger, httpClient)
}

func writeFile(path string, t *extract.Table, sheet string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer closeFile(f, path, &err)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.WriteXLSX(f, t, sheet)
	default:
		return export.WriteCSV(f, t)
	}
}

// closeFile closes f and reports its error through err unless a write
// error is already there.
func closeFile(f io.Closer, path string, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
}

// defaultPeriodDays is the length of the period when --from is not given.
const defaultPeriodDays = 30

// period resolves the --from and --to values. An empty --to is the current
// day in loc and an empty --from is defaultPeriodDays before --to.
func period(fromFlag, toFlag string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	to, err := parseDay(toFlag, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		y, m, d := now.In(loc).Date()
		to = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	from, err := parseDay(fromFlag, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultPeriodDays)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("period starts after it ends: %s > %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return from, to, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// primaryLocation loads the zone days are counted in. Empty means the
// local zone.
func primaryLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid PRIMARY_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
