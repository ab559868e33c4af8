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

package serve

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-avdecc/pkg/capture"
	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
	"jinr.ru/greenlab/go-avdecc/pkg/srv/api"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

const (
	AddressOptionName = "address"
	PortOptionName    = "port"
	DBOptionName      = "db"
	CaptureOptionName = "capture"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var address, dbPath string
	var port int
	var captures []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.APIConfig.Address = address
			}
			if port != 0 {
				cfg.APIConfig.Port = port
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			st, err := state.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, path := range captures {
				if err := load(cmd, st, path); err != nil {
					return err
				}
			}

			server, err := api.NewApiServer(commandContext(cmd), cfg, st)
			if err != nil {
				return err
			}
			return server.Run()
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Address to bind. E.g. %s", config.DefaultAPIAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("Port number to bind. E.g. %d", config.DefaultAPIPort))
	cmd.Flags().StringVar(&dbPath, DBOptionName, "", fmt.Sprintf("Entity database. E.g. %s", config.DefaultDBPath()))
	cmd.Flags().StringSliceVar(&captures, CaptureOptionName, nil, "Capture files to load into the entity database before serving")
	return cmd
}

func load(cmd *cobra.Command, st *state.State, path string) error {
	source, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()
	count := 0
	for record := range source.Records(ctx) {
		if err := st.Observe(record); err != nil {
			return err
		}
		count++
	}
	if err := source.Err(); err != nil {
		return err
	}
	log.Info("Loaded %d AVDECC messages from %s", count, path)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
