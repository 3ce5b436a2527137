package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/pesafrisma19/pbbkemang/internal/reconcile"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/pesafrisma19/pbbkemang/internal/services"
	"github.com/spf13/cobra"
)

type importOptions struct {
	workers int
	asJSON  bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import taxpayers and tax objects from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel row workers (default: IMPORT_WORKERS)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func runImport(cmd *cobra.Command, a *app, path string, opts importOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	expander, err := nop.NewExpander(a.cfg.Import.NOPPrefix, a.cfg.Import.NOPSuffix)
	if err != nil {
		return err
	}

	db, err := a.open(cmd.Context())
	if err != nil {
		return err
	}

	workers := a.cfg.Import.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}

	store := repository.NewImportStore(repository.NewTaxpayerRepository(db), repository.NewTaxObjectRepository(db))
	svc := services.NewImportService(store, expander, workers, nil, a.log.Named("import"))

	result, err := svc.Import(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return err
	}
	return printResult(a, result, opts.asJSON)
}

func printResult(a *app, result reconcile.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(a.out, "Baris diproses : %d\n", result.Rows)
	fmt.Fprintf(a.out, "WP baru        : %d\n", result.NewTaxpayers)
	fmt.Fprintf(a.out, "WP cocok       : %d\n", result.MatchedTaxpayers)
	fmt.Fprintf(a.out, "Objek disimpan : %d\n", result.AssetsSaved)
	fmt.Fprintf(a.out, "Dilewati       : %d\n", result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintf(a.out, "  - %s\n", e)
	}
	return nil
}
