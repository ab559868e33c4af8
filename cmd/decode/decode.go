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

package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-avdecc/pkg/command"
	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/layers"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
)

const (
	FormatOptionName = "format"
	RemoteOptionName = "remote"

	FormatText = "text"
	FormatYaml = "yaml"
	FormatJSON = "json"

	decodeExample = `
Decode an ACMP CONNECT_RX_RESPONSE
# go-avdecc decode fc07000000000000...

Ask a running server to decode an ADP message
# go-avdecc decode --remote "fa 00 50 38 11 22 33 44 55 66 77 88 ..."
`
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var format string
	var remote bool
	cmd := &cobra.Command{
		Use:     "decode <hex>...",
		Short:   "Decode an AVTP control PDU given as hex bytes starting at the subtype byte",
		Example: decodeExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := strings.Join(args, "")
			var tree *layers.Tree
			var columns layers.Columns
			var decodeErr error
			if remote {
				response, err := command.NewApiClient(cfg).Decode(payload)
				if err != nil {
					return err
				}
				tree, columns = response.Tree, response.Columns
				if response.Error != "" {
					decodeErr = errors.New(response.Error)
				}
			} else {
				data, err := layers.ParseHex(payload)
				if err != nil {
					return err
				}
				tree, decodeErr = layers.Dispatch(data, &columns)
			}
			if err := Print(cmd.OutOrStdout(), format, columns, tree); err != nil {
				return err
			}
			var errTruncated layers.ErrTruncated
			if errors.As(decodeErr, &errTruncated) {
				log.Warning("%s", decodeErr)
				return nil
			}
			return decodeErr
		},
	}
	cmd.Flags().StringVar(&format, FormatOptionName, FormatText, fmt.Sprintf("Output format, one of: %s, %s, %s", FormatText, FormatYaml, FormatJSON))
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, fmt.Sprintf("Decode on the API server at %s", cfg.URL()))
	return cmd
}

// Print writes a decoded tree in the given format
func Print(w io.Writer, format string, columns layers.Columns, tree *layers.Tree) error {
	switch format {
	case FormatText:
		if _, err := fmt.Fprintf(w, "%s\t%s\n", columns.Protocol, columns.Info); err != nil {
			return err
		}
		if len(tree.Root.Children) == 0 {
			return nil
		}
		return tree.Format(w)
	case FormatYaml:
		_, err := fmt.Fprint(w, tree.String())
		return err
	case FormatJSON:
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		return fmt.Errorf("Unknown output format %s", format)
	}
}
