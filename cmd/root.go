// Package cmd is the command-line surface of the acoustics pipeline.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/themusiclab/infant-speech-song/config"
	"github.com/themusiclab/infant-speech-song/orchestrator"
)

type app struct {
	v       *viper.Viper
	cfgPath string
	errOut  io.Writer
}

// NewRootCmd builds the command tree. Each call gets its own viper instance.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), errOut: errOut}
	root := &cobra.Command{
		Use:           "iss",
		Short:         "Batch acoustics processing for the infant-directed speech and song corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml, then ./config.yaml)")
	root.PersistentFlags().String("log-level", "", "debug|info|warn|error")
	root.PersistentFlags().String("outputs", "", "directory for CSV tables and the nPVI cache")
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(a.exportCmd(), a.concatCmd(), a.npviCmd(), a.configCmd())
	return root
}

// bind maps config keys to flags of cmd. Binding happens at run time so that
// subcommands sharing a key do not steal each other's flags.
func (a *app) bind(cmd *cobra.Command, keys map[string]string) error {
	keys["pipeline.log_level"] = "log-level"
	keys["paths.outputs"] = "outputs"
	for key, name := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("flag --%s not defined on %s", name, cmd.Name())
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) load(cmd *cobra.Command, keys map[string]string) (*cfg.Root, *logrus.Logger, error) {
	if err := a.bind(cmd, keys); err != nil {
		return nil, nil, err
	}
	conf, err := cfg.Load(a.v, a.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(conf.Pipeline.LogLvl, a.errOut)
	if err != nil {
		return nil, nil, err
	}
	return conf, log, nil
}

func (a *app) pipeline(cmd *cobra.Command, keys map[string]string) (*orchestrator.Pipeline, *cfg.Root, error) {
	conf, log, err := a.load(cmd, keys)
	if err != nil {
		return nil, nil, err
	}
	p := orchestrator.NewPipeline(conf, log)
	log.WithFields(logrus.Fields{"run": p.RunID(), "command": cmd.Name(), "version": conf.Pipeline.Version}).
		Debug("pipeline starting")
	return p, conf, nil
}

func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}
