package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version of the hws binary. Release builds set it with
//
//	-ldflags "-X github.com/derickschaefer/hws/cmd.Version=v0.2.0"
var Version = "v0.1.0"

// BuildTime is an optional RFC 3339 stamp set the same way as Version.
var BuildTime = ""

type versionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
	BuildTime string `json:"build_time,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the hws version",
	Long: `Show the hws version together with the Go toolchain and platform it was
built for. --format json or jsonl prints the same fields as an object.

Examples:
  hws version
  hws version --format jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   Version,
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
			BuildTime: BuildTime,
		}

		out := cmd.OutOrStdout()
		switch globalFlags.Format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)

		case "jsonl":
			b, err := json.Marshal(info)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n", b)
			return err

		default:
			rows := [][2]string{
				{"hws", info.Version},
				{"go", info.GoVersion},
				{"platform", info.GOOS + "/" + info.GOARCH},
			}
			if info.BuildTime != "" {
				rows = append(rows, [2]string{"built", info.BuildTime})
			}
			for _, r := range rows {
				fmt.Fprintf(out, "%-9s %s\n", r[0], r[1])
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
