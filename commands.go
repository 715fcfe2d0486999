package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/getredash/redash-sub002/pkg/params"
	"github.com/getredash/redash-sub002/pkg/services"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "redash-params version: %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		},
	}
}

type querySummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Parameters int    `json:"parameters"`
}

func newQueriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the saved queries in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			queries, err := a.queries.List(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]querySummary, len(queries))
			for i, q := range queries {
				out[i] = querySummary{ID: q.ID.String(), Name: q.Name, Parameters: len(q.Parameters)}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

type parameterView struct {
	Name           string             `json:"name"`
	Title          string             `json:"title"`
	Type           string             `json:"type"`
	Value          any                `json:"value"`
	Empty          bool               `json:"empty"`
	Dynamic        bool               `json:"dynamic,omitempty"`
	ExecutionValue any                `json:"execution_value"`
	URLParams      map[string]*string `json:"url_params"`
}

func newParamsCmd(opts *rootOptions) *cobra.Command {
	var joinLists bool

	cmd := &cobra.Command{
		Use:   "params <query-id> [p_name=value ...]",
		Short: "Show the reconciled parameters of a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, err := parseQueryID(args[0])
			if err != nil {
				return err
			}
			urlParams, err := parseURLArgs(args[1:])
			if err != nil {
				return err
			}
			now, err := opts.nowTime()
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			collection, err := a.reports.Parameters(cmd.Context(), queryID, urlParams)
			if err != nil {
				return err
			}

			execOpts := params.ExecutionOptions{JoinListValues: joinLists, Now: now}
			list := collection.Get(true)
			out := make([]parameterView, len(list))
			for i, p := range list {
				out[i] = parameterView{
					Name:           p.Name,
					Title:          p.Title,
					Type:           string(p.Kind),
					Value:          p.Value(),
					Empty:          p.IsEmpty(),
					Dynamic:        p.HasDynamicValue(),
					ExecutionValue: p.ExecutionValue(execOpts),
					URLParams:      p.ToURLParams(),
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&joinLists, "join-lists", false, "join multi-select values into one string")
	return cmd
}

// reportRequestFlags are shared by the commands that resolve a full execution.
type reportRequestFlags struct {
	joinLists bool
	limit     int
}

func (f *reportRequestFlags) register(cmd *cobra.Command, withLimit bool) {
	cmd.Flags().BoolVar(&f.joinLists, "join-lists", false, "join multi-select values into one string")
	if withLimit {
		cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum rows to return (0 = configured maximum)")
	}
}

func (f *reportRequestFlags) request(opts *rootOptions, args []string) (*services.ReportRequest, error) {
	urlParams, err := parseURLArgs(args)
	if err != nil {
		return nil, err
	}
	now, err := opts.nowTime()
	if err != nil {
		return nil, err
	}
	return &services.ReportRequest{
		URLParams:      urlParams,
		JoinListValues: f.joinLists,
		Limit:          f.limit,
		Now:            now,
	}, nil
}

func newPrepareCmd(opts *rootOptions) *cobra.Command {
	flags := &reportRequestFlags{}

	cmd := &cobra.Command{
		Use:   "prepare <query-id> [p_name=value ...]",
		Short: "Resolve parameters and print the SQL that would run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, err := parseQueryID(args[0])
			if err != nil {
				return err
			}
			req, err := flags.request(opts, args[1:])
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			prepared, err := a.reports.Prepare(cmd.Context(), queryID, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prepared)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &reportRequestFlags{}

	cmd := &cobra.Command{
		Use:   "run <query-id> [p_name=value ...]",
		Short: "Run a saved query with resolved parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, err := parseQueryID(args[0])
			if err != nil {
				return err
			}
			req, err := flags.request(opts, args[1:])
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.reports.Execute(cmd.Context(), queryID, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newDropdownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dropdown <query-id> <parameter>",
		Short: "List the options of a query-based dropdown parameter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, err := parseQueryID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			options, err := a.reports.DropdownOptions(cmd.Context(), queryID, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), options)
		},
	}
}

func newSaveDefaultsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save-defaults <query-id> p_name=value [...]",
		Short: "Store parameter values as the query's saved defaults",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID, err := parseQueryID(args[0])
			if err != nil {
				return err
			}
			urlParams, err := parseURLArgs(args[1:])
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			query, err := a.reports.SaveDefaults(cmd.Context(), queryID, urlParams)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), query.Parameters)
		},
	}
}

type dynamicDateView struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func newDynamicDatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dynamic-dates",
		Short: "List the d_ tokens and what they resolve to now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := opts.nowTime()
			if err != nil {
				return err
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			loc, err := a.cfg.Parameters.Location()
			if err != nil {
				return err
			}
			weekStart, err := a.cfg.Parameters.FirstWeekday()
			if err != nil {
				return err
			}
			if now.IsZero() {
				now = time.Now()
			}
			now = now.In(loc)

			var out []dynamicDateView
			for _, d := range params.DynamicDates() {
				out = append(out, dynamicDateView{
					Token: params.DynamicPrefix + d.Key,
					Name:  d.Name,
					Value: d.Value(now).Format("2006-01-02 15:04:05"),
				})
			}
			for _, r := range params.DynamicDateRanges() {
				start, end := r.Value(now, weekStart)
				out = append(out, dynamicDateView{
					Token: params.DynamicPrefix + r.Key,
					Name:  r.Name,
					Start: start.Format("2006-01-02"),
					End:   end.Format("2006-01-02"),
				})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
