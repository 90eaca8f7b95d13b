package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/hybridrec/config"
	"github.com/rushteam/hybridrec/pkg/logging"

	// 注册预过滤 pipeline 的节点类型
	_ "github.com/rushteam/hybridrec/config/builders"
)

// cli 是所有子命令共享的状态，在 PersistentPreRunE 中初始化。
type cli struct {
	cfgFile  string
	logLevel string

	settings *config.Settings
	logger   zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "hybridrec",
		Short: "Hybrid product recommendation service",
		Long: `hybridrec blends collaborative-filtering and content-based candidates into one
scene-aware recommendation list.

Example usage:
  hybridrec serve --config hybridrec.yaml
  hybridrec rebuild
  hybridrec recommend --user 7 --item prd_001 --scene cart`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default $"+config.ConfigPathEnvVar+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newServeCmd(c),
		newRebuildCmd(c),
		newRecommendCmd(c),
	)
	return root
}

func (c *cli) init() error {
	s, err := config.LoadSettings(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		s.Log.Level = c.logLevel
	}
	c.settings = s
	c.logger = logging.New(logging.Options{Level: s.Log.Level, Format: s.Log.Format})
	return nil
}
