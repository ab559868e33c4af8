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

package read

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-avdecc/pkg/capture"
	"jinr.ru/greenlab/go-avdecc/pkg/config"
	"jinr.ru/greenlab/go-avdecc/pkg/layers"
	"jinr.ru/greenlab/go-avdecc/pkg/log"
	"jinr.ru/greenlab/go-avdecc/pkg/state"
)

const (
	DBOptionName      = "db"
	VerboseOptionName = "verbose"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var dbPath string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Decode AVDECC messages from a pcap or pcapng file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := capture.Open(args[0])
			if err != nil {
				return err
			}
			defer source.Close()

			var st *state.State
			if dbPath != "" {
				st, err = state.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			ctx, cancel := context.WithCancel(commandContext(cmd))
			defer cancel()
			count := 0
			for record := range source.Records(ctx) {
				count++
				if err := PrintRecord(cmd.OutOrStdout(), record, verbose); err != nil {
					return err
				}
				if st == nil {
					continue
				}
				if err := st.Observe(record); err != nil {
					return err
				}
			}
			if err := source.Err(); err != nil {
				return err
			}
			log.Info("Read %d AVDECC messages from %s", count, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, DBOptionName, "", "Feed ADP messages to the entity database, --db=<path> or --db for the configured one")
	cmd.Flags().Lookup(DBOptionName).NoOptDefVal = cfg.DBPath
	cmd.Flags().BoolVarP(&verbose, VerboseOptionName, "v", false, "Print the decoded field tree of every message")
	return cmd
}

// PrintRecord writes the one line summary of a record and optionally its field tree
func PrintRecord(w io.Writer, record capture.Record, verbose bool) error {
	layer := record.Layer
	line := fmt.Sprintf("%d\t%s\t%s -> %s\t%s\t%s",
		record.Index, record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.SrcMAC, record.DstMAC, layer.Protocol, layer.Info)
	if mt := messageType(layer.Tree); mt != "" {
		line += "\t" + mt
	}
	if layer.Truncated() {
		line += "\t[truncated]"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if verbose && len(layer.Tree.Root.Children) > 0 {
		return layer.Tree.Format(w)
	}
	return nil
}

func messageType(tree *layers.Tree) string {
	c := layers.DefaultCatalog()
	for _, abbrev := range []string{c.ADP.MessageType.Abbrev, c.ACMP.MessageType.Abbrev} {
		if n := tree.Find(abbrev); n != nil {
			if n.Resolved {
				return n.Label
			}
			return fmt.Sprintf("%d", n.Value)
		}
	}
	return ""
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
