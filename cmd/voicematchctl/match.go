package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	voicematch "github.com/kailas-cloud/voicematch/pkg/sdk"
)

func newIdentifyCmd(opts *globalOpts) *cobra.Command {
	var (
		file          string
		unknown, high float64
		topN          int
	)
	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify the speaker of a query embedding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var q queryFile
			if err := readJSON(file, &q); err != nil {
				return err
			}

			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			var idOpts []voicematch.IdentifyOption
			if cmd.Flags().Changed("unknown-threshold") {
				idOpts = append(idOpts, voicematch.UnknownThreshold(unknown))
			}
			if cmd.Flags().Changed("high-threshold") {
				idOpts = append(idOpts, voicematch.HighThreshold(high))
			}
			if cmd.Flags().Changed("top") {
				idOpts = append(idOpts, voicematch.TopN(topN))
			}

			res, err := vm.Identify(cmd.Context(),
				voicematch.Query{Embedding: q.Embedding, NoVoice: q.NoVoice}, idOpts...)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s", res.Decision, res.Name)
				if res.Label != "" {
					fmt.Fprintf(w, " (%.2f%%, %s)", res.Confidence, res.Label)
				}
				fmt.Fprintln(w)
				for i, c := range res.Candidates {
					fmt.Fprintf(w, "  %d. %-20s avg %6.2f%%  max %6.2f%%\n", i+1, c.Name, c.Average, c.Max)
				}
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "query JSON file (- for stdin)")
	f.Float64Var(&unknown, "unknown-threshold", 30, "percent below which the query is unknown")
	f.Float64Var(&high, "high-threshold", 70, "percent from which the query is identified")
	f.IntVar(&topN, "top", 5, "number of candidates to show")
	return cmd
}

func newVerifyCmd(opts *globalOpts) *cobra.Command {
	var (
		file      string
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "verify <name>",
		Short: "Verify a query embedding against a claimed speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q queryFile
			if err := readJSON(file, &q); err != nil {
				return err
			}

			vm, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer vm.Close()

			var vOpts []voicematch.VerifyOption
			if cmd.Flags().Changed("threshold") {
				vOpts = append(vOpts, voicematch.Threshold(threshold))
			}

			res, err := vm.Verify(cmd.Context(),
				voicematch.Query{Embedding: q.Embedding, NoVoice: q.NoVoice}, args[0], vOpts...)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				verdict := "REJECTED"
				if res.Accepted {
					verdict = "ACCEPTED"
				}
				fmt.Fprintf(w, "%s: %s scored %.2f%% (threshold %.2f%%)\n", verdict, res.Name, res.Score, res.Threshold)
				if res.NoVoice {
					fmt.Fprintln(w, "  no voice detected in query")
				}
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "query JSON file (- for stdin)")
	cmd.Flags().Float64Var(&threshold, "threshold", 70, "acceptance threshold in percent")
	return cmd
}
