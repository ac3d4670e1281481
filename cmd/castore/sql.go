package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/castore/pagedsql"
)

var (
	sqlCmd = &cobra.Command{
		Use:   "sql",
		Short: "Render paged SQL without running it",
	}

	sqlPageCmd = &cobra.Command{
		Use:   "page",
		Short: "Render the page query",
		RunE:  func(cmd *cobra.Command, _ []string) error { return renderSQL(cmd, pageSQLFlags, true) },
	}

	sqlCountCmd = &cobra.Command{
		Use:   "count",
		Short: "Render the total count query",
		RunE:  func(cmd *cobra.Command, _ []string) error { return renderSQL(cmd, countSQLFlags, false) },
	}

	pageSQLFlags, countSQLFlags *pageFlags
	bindParams                  bool
)

func init() {
	pageSQLFlags = addPageFlags(sqlPageCmd)
	countSQLFlags = addPageFlags(sqlCountCmd)
	sqlCmd.PersistentFlags().BoolVar(&bindParams, "params", false, "render placeholders and print the arguments")
	sqlCmd.AddCommand(sqlPageCmd, sqlCountCmd)
}

func renderSQL(cmd *cobra.Command, f *pageFlags, page bool) error {
	p, err := f.param()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !bindParams {
		if page {
			fmt.Fprintln(out, pagedsql.BuildPageQuery(p))
		} else {
			fmt.Fprintln(out, pagedsql.BuildCountQuery(p))
		}
		return nil
	}

	st, err := pagedsql.Build(p)
	if err != nil {
		return err
	}
	query, args := st.CountSQL, st.CountArgs
	if page {
		query, args = st.PageSQL, st.PageArgs
	}
	fmt.Fprintln(out, query)
	for i, a := range args {
		fmt.Fprintf(out, "-- $%d = %v\n", i+1, a)
	}
	return nil
}
