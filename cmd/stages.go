package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Cut non-silent annotation intervals into numbered subclips",
		Example: "  iss export --annotation-dir TextGrids --audio-dir Clips --export-dir Subclips\n" +
			"  iss export --tier silences --bit-depth 16",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, conf, err := a.pipeline(cmd, map[string]string{
				"paths.annotation_dir": "annotation-dir",
				"paths.audio_dir":      "audio-dir",
				"paths.export_dir":     "export-dir",
				"export.tier":          "tier",
				"audio.bit_depth":      "bit-depth",
			})
			if err != nil {
				return err
			}
			rep, err := p.Export(cmd.Context())
			if rep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "sessions_ok=%d sessions_failed=%d subclips_written=%d out_dir=%s\n",
					rep.Sessions-rep.Failed, rep.Failed, rep.Subclips, conf.Paths.Export)
			}
			return err
		},
	}
	c.Flags().String("annotation-dir", "", "directory of .TextGrid files")
	c.Flags().String("audio-dir", "", "directory of whole-session recordings")
	c.Flags().String("export-dir", "", "directory to write subclips into")
	c.Flags().String("tier", "", "annotation tier name (default first tier)")
	c.Flags().Int("bit-depth", 0, "output bit depth: 16, 24 or 32 (default source depth)")
	return c
}

func (a *app) concatCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "concat",
		Short:   "Rejoin subclips into one recording per session",
		Example: "  iss concat --export-dir Subclips --concat-dir Concatenated --sample-rate 44100",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, conf, err := a.pipeline(cmd, map[string]string{
				"paths.export_dir":  "export-dir",
				"paths.concat_dir":  "concat-dir",
				"audio.sample_rate": "sample-rate",
				"audio.bit_depth":   "bit-depth",
			})
			if err != nil {
				return err
			}
			rep, err := p.Concatenate(cmd.Context())
			if rep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "sessions_ok=%d sessions_failed=%d out_dir=%s\n",
					rep.Sessions-rep.Failed, rep.Failed, conf.Paths.Concat)
			}
			return err
		},
	}
	c.Flags().String("export-dir", "", "directory of {session}_{n} subclips")
	c.Flags().String("concat-dir", "", "directory to write concatenated sessions into")
	c.Flags().Int("sample-rate", 0, "required sample rate in Hz (default: rate of each session's first subclip)")
	c.Flags().Int("bit-depth", 0, "output bit depth: 16, 24 or 32 (default source depth)")
	return c
}

func (a *app) npviCmd() *cobra.Command {
	var fromCache bool
	c := &cobra.Command{
		Use:   "npvi",
		Short: "Score Prosogram nucleus tables with the normalized Pairwise Variability Index",
		Example: "  iss npvi --prosogram-dir ProsogramFiles --outputs results\n" +
			"  iss npvi --from-cache --outputs results",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := a.pipeline(cmd, map[string]string{
				"paths.prosogram_dir":       "prosogram-dir",
				"npvi.keep_trailing_phrase": "keep-trailing-phrase",
			})
			if err != nil {
				return err
			}
			run := p.Analyze
			if fromCache {
				run = p.Summarize
			}
			rep, err := run(cmd.Context())
			if rep != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "sessions_ok=%d sessions_failed=%d summary=%s cache=%s\n",
					rep.Sessions-rep.Failed, rep.Failed, rep.SummaryPath, rep.CachePath)
			}
			return err
		},
	}
	c.Flags().String("prosogram-dir", "", "directory of Prosogram *_data.txt tables")
	c.Flags().Bool("keep-trailing-phrase", false, "score events after the last pause as a final phrase instead of dropping them")
	c.Flags().BoolVar(&fromCache, "from-cache", false, "rebuild the summary CSV from the persisted cache only")
	return c
}

func (a *app) configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, _, err := a.load(cmd, map[string]string{})
			if err != nil {
				return err
			}
			b, err := conf.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})
	return c
}
