/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-avdecc/cmd/completion"
	"jinr.ru/greenlab/go-avdecc/cmd/config"
	"jinr.ru/greenlab/go-avdecc/cmd/decode"
	"jinr.ru/greenlab/go-avdecc/cmd/entities"
	"jinr.ru/greenlab/go-avdecc/cmd/read"
	"jinr.ru/greenlab/go-avdecc/cmd/serve"
	pkgconfig "jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	cfg := pkgconfig.NewDefaultConfig()
	if err := cfg.Load(); err != nil {
		log.Warning("Error while loading config %s: %s", cfg.Path(), err)
	}
	return NewCommand(out, cfg)
}

// NewCommand builds the command tree around an already loaded config
func NewCommand(out io.Writer, cfg *pkgconfig.Config) *cobra.Command {
	var logLevel string
	var logCloser io.Closer
	cmd := &cobra.Command{
		Use:          "go-avdecc",
		Short:        "Tool to decode IEEE 1722.1 AVDECC discovery and connection management messages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel != "" {
				cfg.LogConfig.Level = logLevel
			}
			if err := log.SetLevel(cfg.LogConfig.Level); err != nil {
				return err
			}
			if cfg.LogConfig.File == "" {
				log.Init(cmd.ErrOrStderr(), cfg.LogConfig.Level)
				return nil
			}
			closer, err := log.InitFile(log.FileOptions{
				Path:       cfg.LogConfig.File,
				MaxSizeMB:  cfg.LogConfig.MaxSizeMB,
				MaxBackups: cfg.LogConfig.MaxBackups,
				MaxAgeDays: cfg.LogConfig.MaxAgeDays,
				Compress:   cfg.LogConfig.Compress,
			}, cfg.LogConfig.Level)
			logCloser = closer
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(decode.NewCommand(cfg))
	cmd.AddCommand(read.NewCommand(cfg))
	cmd.AddCommand(serve.NewCommand(cfg))
	cmd.AddCommand(entities.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
