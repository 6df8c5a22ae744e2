package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aisavvy/aisavvy/internal/config"
	"github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/schema"
	"github.com/aisavvy/aisavvy/internal/storage"
)

var schemaDot bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema snapshot the assistant grounds its queries on",
	RunE:  runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaDot, "dot", false, "Print the Graphviz ERD instead of the signatures")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to load configuration")
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}
	defer store.Close()

	snapshot, err := schema.Load(ctx, store.DB(), schema.Config{
		Namespace:      cfg.Schema.Namespace,
		HintColumns:    cfg.Schema.HintColumns,
		HintSampleSize: cfg.Schema.HintSampleSize,
		ExcludeTables:  storage.InternalTables(),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "failed to load schema snapshot")
	}

	out := cmd.OutOrStdout()

	if schemaDot {
		fmt.Fprint(out, snapshot.DOT())
		return nil
	}

	fmt.Fprint(out, snapshot.SchemaString)

	if snapshot.HintsString != "" {
		fmt.Fprintf(out, "\nValue hints:\n%s", snapshot.HintsString)
	}

	fmt.Fprintf(out, "\nSnapshot hash: %s\n", snapshot.Hash)

	return nil
}
