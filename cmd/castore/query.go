package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/castore"
	"github.com/unkn0wn-root/castore/store/bunstore"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Run a paged query against the configured database",
		Long: `Runs the count and page queries built from the flags against db.driver/db.dsn
and prints {"totalCount": n, "items": [...]} as JSON.`,
		RunE: runQuery,
	}

	queryFlags *pageFlags
)

func init() {
	queryFlags = addPageFlags(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	p, err := queryFlags.param()
	if err != nil {
		return err
	}
	db, err := bunstore.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The paged queries only read p.From, so any model serves.
	st := bunstore.New[castore.Model](db)
	var res castore.PagedResult
	if res.TotalCount, err = st.QueryTotalCount(ctx, p); err != nil {
		return err
	}
	if res.TotalCount > 0 {
		if res.Items, err = st.QueryPagedList(ctx, p); err != nil {
			return err
		}
	}
	if res.Items == nil {
		res.Items = []map[string]any{}
	}
	logger.Debug("query done",
		zap.String("from", p.From),
		zap.Int64("total", res.TotalCount),
		zap.Int("items", len(res.Items)),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
