package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	voicematch "github.com/kailas-cloud/voicematch/pkg/sdk"
)

func newEnrollCmd(opts *globalOpts) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "enroll <name>",
		Short: "Enroll a speaker from a samples file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in samplesFile
			if err := readJSON(file, &in); err != nil {
				return err
			}

			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			res, err := vm.Enroll(cmd.Context(), args[0], in.Embeddings)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				printEnrollResult(w, "Enrolled", res)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "samples JSON file (- for stdin)")
	return cmd
}

func newUpdateCmd(opts *globalOpts) *cobra.Command {
	var (
		file    string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Append samples to a speaker, or replace them with --replace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in samplesFile
			if err := readJSON(file, &in); err != nil {
				return err
			}

			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			mode := voicematch.ModeAppend
			if replace {
				mode = voicematch.ModeReplace
			}
			res, err := vm.UpdateSamples(cmd.Context(), args[0], in.Embeddings, mode)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				printEnrollResult(w, "Updated", res)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "samples JSON file (- for stdin)")
	cmd.Flags().BoolVar(&replace, "replace", false, "discard the stored samples")
	return cmd
}

func newListCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enrolled speakers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			speakers, err := vm.Speakers(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), speakers, func(w io.Writer) {
				if len(speakers) == 0 {
					fmt.Fprintln(w, "No speakers enrolled.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSAMPLES\tQUALITY\tREGISTERED\tID")
				for _, s := range speakers {
					fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t%s\t%s\n",
						s.Name, s.NumSamples, s.QualityPercent,
						time.UnixMilli(s.RegisteredAt).UTC().Format(time.RFC3339), s.ID)
				}
				_ = tw.Flush()
			})
		},
	}
}

func newDeleteCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a speaker and all of its samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			if err := vm.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printEnrollResult(w io.Writer, verb string, res voicematch.EnrollResult) {
	fmt.Fprintf(w, "%s %s (%s)\n", verb, res.Name, res.ID)
	fmt.Fprintf(w, "  samples:               %d\n", res.NumSamples)
	fmt.Fprintf(w, "  quality:               %.2f%%\n", res.QualityPercent)
	fmt.Fprintf(w, "  recommended threshold: %.2f%%\n", res.RecommendedThreshold)
	if res.LowQuality {
		fmt.Fprintln(w, "  warning: samples are inconsistent, consider re-recording")
	}
}
