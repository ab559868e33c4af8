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

package entities

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-avdecc/pkg/command"
	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Query entities known to the API server",
	}
	cmd.AddCommand(NewListCommand(cfg))
	cmd.AddCommand(NewGetCommand(cfg))
	return cmd
}

func NewListCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, err := command.NewApiClient(cfg).ListEntities()
			if err != nil {
				return err
			}
			now := time.Now()
			for _, e := range entities {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tvendor %s\tmodel %s\t%s\t%s\n",
					e.GUID, e.VendorID, e.ModelID, e.SourceMAC, status(e, now))
			}
			return nil
		},
	}
	return cmd
}

func NewGetCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <guid>",
		Short: "Print one entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := command.NewApiClient(cfg).GetEntity(args[0])
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(entity)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "---\n%s", data)
			return nil
		},
	}
	return cmd
}

// status tells whether the advertisement is still valid. Valid time is counted in 2 second units.
func status(e *state.Entity, now time.Time) string {
	lastSeen := time.Unix(0, e.LastSeen*int64(time.Millisecond))
	if now.Sub(lastSeen) > time.Duration(e.ValidTime)*2*time.Second {
		return "expired"
	}
	return "valid"
}
