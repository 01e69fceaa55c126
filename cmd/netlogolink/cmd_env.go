package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// envInfo is the JSON form of the env command.
type envInfo struct {
	Home           string   `json:"home"`
	Layout         string   `json:"layout"`
	NetLogoVersion string   `json:"netlogo_version,omitempty"`
	MainArchive    string   `json:"main_archive"`
	LinkArchive    string   `json:"link_archive"`
	NativePath     string   `json:"native_path"`
	Java           string   `json:"java"`
	JavaVersion    string   `json:"java_version,omitempty"`
	Archives       []string `json:"archives"`
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the NetLogo installation and JVM that would be used",
		Long: `Inspect the NetLogo installation without starting it: layout, class
path, native library directory and the java executable. Every missing
archive is listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			env, err := environment(cfg)
			if err != nil {
				return err
			}

			info := envInfo{
				Home:        env.Home,
				Layout:      env.Layout.String(),
				MainArchive: env.MainArchive,
				LinkArchive: env.LinkArchive,
				NativePath:  env.NativePath,
				Java:        env.JavaPath,
				Archives:    env.Archives,
			}
			if env.NetLogoVersion.Major > 0 {
				info.NetLogoVersion = env.NetLogoVersion.String()
			}
			if v, err := env.DetectJavaVersion(); err == nil {
				info.JavaVersion = v.String()
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(out, "home:          %s\n", info.Home)
			fmt.Fprintf(out, "layout:        %s\n", info.Layout)
			fmt.Fprintf(out, "netlogo:       %s\n", valueOrDefault(info.NetLogoVersion, "(unknown)"))
			fmt.Fprintf(out, "main archive:  %s\n", info.MainArchive)
			fmt.Fprintf(out, "link archive:  %s\n", info.LinkArchive)
			fmt.Fprintf(out, "natives:       %s\n", info.NativePath)
			fmt.Fprintf(out, "java:          %s (%s)\n", info.Java, valueOrDefault(info.JavaVersion, "version unknown"))
			fmt.Fprintf(out, "class path:    %d archives\n", len(info.Archives))
			return nil
		},
	}
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
