package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/etl76/etl/internal/dataset"
	"github.com/etl76/etl/internal/form"
	"github.com/etl76/etl/internal/model"
)

var (
	addAssignments  []string
	addAt           int
	editAssignments []string
	checkFix        bool
)

// today is replaced in tests.
var today = time.Now

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the log as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := loadDataset()
			if err != nil {
				return err
			}
			return printList(cmd, ds)
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <index>",
		Short: "Print every field of one entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	r, err := ds.At(index)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), r.ToDisplayString())
	return err
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Long: "Add an entry built from key=value assignments. Unset fields take the\n" +
			"editor defaults. Keys: " + fmt.Sprint(form.Keys()),
		Args: cobra.NoArgs,
		RunE: runAddCmd,
	}
	cmd.Flags().StringArrayVar(&addAssignments, "set", nil, "field assignment key=value (repeatable)")
	cmd.Flags().IntVar(&addAt, "at", 0, "insert at this position instead of appending")
	return cmd
}

func runAddCmd(cmd *cobra.Command, _ []string) error {
	f, err := form.ParseAssignments(form.New(today()), addAssignments)
	if err != nil {
		return err
	}
	r, err := f.Record()
	if err != nil {
		return err
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	index := ds.Len()
	if cmd.Flags().Changed("at") {
		r.SetDatasetIndex(addAt)
		index = ds.InsertAt(r)
	} else {
		ds.Append(r)
	}
	if err := saveDataset(ds); err != nil {
		return err
	}
	logger.Info("entry added", "index", index, "date", r.YearMonthDay(), "activity", r.Activity)
	return nil
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Change fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runEditCmd,
	}
	cmd.Flags().StringArrayVar(&editAssignments, "set", nil, "field assignment key=value (repeatable)")
	return cmd
}

func runEditCmd(_ *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	current, err := ds.At(index)
	if err != nil {
		return err
	}
	f, err := form.ParseAssignments(form.FromRecord(current), editAssignments)
	if err != nil {
		return err
	}
	r, err := f.Record()
	if err != nil {
		return err
	}
	if err := ds.ReplaceAt(index, r); err != nil {
		return err
	}
	if err := saveDataset(ds); err != nil {
		return err
	}
	logger.Info("entry updated", "index", index)
	return nil
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			ds, err := loadDataset()
			if err != nil {
				return err
			}
			if _, err := ds.RemoveAt(index); err != nil {
				return err
			}
			if err := saveDataset(ds); err != nil {
				return err
			}
			logger.Info("entry removed", "index", index, "remaining", ds.Len())
			return nil
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "move <index> up|down",
		Short:     "Swap an entry with its neighbour",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down"},
		RunE:      runMoveCmd,
	}
}

func runMoveCmd(_ *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	var moved int
	switch args[1] {
	case "up":
		moved, err = ds.MoveUp(index)
	case "down":
		moved, err = ds.MoveDown(index)
	default:
		return fmt.Errorf("direction must be up or down, got %q", args[1])
	}
	if err != nil {
		return err
	}
	if moved == dataset.NotMoved {
		logger.Info("entry not moved", "index", index, "direction", args[1])
		return nil
	}
	if err := saveDataset(ds); err != nil {
		return err
	}
	logger.Info("entry moved", "from", index, "to", moved)
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report entries whose totals disagree with their parts",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
	cmd.Flags().BoolVar(&checkFix, "fix", false, "recompute totals and save")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset()
	if err != nil {
		return err
	}
	var bad []*model.Record
	for _, r := range ds.Instances() {
		if err := r.CheckTotals(); err != nil {
			bad = append(bad, r)
			if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "%d %s: %v\n", r.DatasetIndex(), r.YearMonthDay(), err); werr != nil {
				return werr
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}
	if !checkFix {
		return fmt.Errorf("%d entries with inconsistent totals", len(bad))
	}
	for _, r := range bad {
		r.RecomputeTotals()
	}
	if err := saveDataset(ds); err != nil {
		return err
	}
	logger.Info("totals recomputed", "entries", len(bad))
	return nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("index must be an integer")
	}
	return index, nil
}
