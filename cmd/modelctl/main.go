// Command modelctl inspects price model artifacts and scores feature sets
// offline, using the same mapping and inverse transform as the API.
//
//	modelctl inspect models/random_forest.json
//	modelctl predict models/random_forest.json sqft_living=2000 bedrooms=3
package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"house-price-api/estimator"
	"house-price-api/features"
	"house-price-api/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var layoutName string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modelctl",
		Short:         "Inspect and exercise house price model artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&layoutName, "layout", features.Layout15.Name, "feature layout the artifact was trained on")
	root.AddCommand(newInspectCmd(), newPredictCmd())
	return root
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Validate an artifact and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, layout, err := load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "artifact:   %s\n", model.Path())
			fmt.Fprintf(out, "layout:     %s (%d features)\n", layout.Name, layout.Width())
			fmt.Fprintf(out, "trees:      %d\n", model.NumTrees())
			fmt.Fprintf(out, "transform:  %s\n", model.TargetTransform())

			importances := model.FeatureImportances()
			if len(importances) == 0 {
				return nil
			}
			fmt.Fprintln(out, "importances:")
			for i, name := range layout.Fields {
				fmt.Fprintf(out, "  %-14s %s\n", name, decimal.NewFromFloat(importances[i]).StringFixed(4))
			}
			return nil
		},
	}
}

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <artifact> [name=value...]",
		Short: "Predict a price for the given attributes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			model, layout, err := load(args[0])
			if err != nil {
				return err
			}
			if unknown := unknownKeys(layout, fs); len(unknown) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "ignoring unknown attributes: %s\n", strings.Join(unknown, ", "))
			}

			price, err := services.NewPredictionService(model, layout, nil, nil).Price(fs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), decimal.NewFromFloat(price).StringFixed(2))
			return nil
		},
	}
}

func load(path string) (*estimator.Forest, features.Layout, error) {
	layout, err := features.LayoutByName(layoutName)
	if err != nil {
		return nil, features.Layout{}, err
	}
	model, err := estimator.Load(path)
	if err != nil {
		return nil, features.Layout{}, err
	}
	if err := model.ValidateLayout(layout); err != nil {
		return nil, features.Layout{}, err
	}
	return model, layout, nil
}

// parseAssignments reads name=value pairs. Values stay strings; the layout
// coerces them the same way it coerces JSON string values.
func parseAssignments(args []string) (features.FeatureSet, error) {
	fs := features.FeatureSet{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		fs[name] = value
	}
	return fs, nil
}

func unknownKeys(layout features.Layout, fs features.FeatureSet) []string {
	known := make(map[string]bool, layout.Width())
	for _, name := range layout.Known(fs) {
		known[name] = true
	}
	var unknown []string
	for name := range fs {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
