package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/dataprep-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set dataprep configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		shown := *c
		shown.Postgres.DSN = maskURL(c.Postgres.DSN)
		shown.Snapshot.RedisURL = maskURL(c.Snapshot.RedisURL)
		b, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Keys use dotted names, for example
server.port, profile.bins, snapshot.ttl or postgres.dsn.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Validate(c); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	var err error
	switch key {
	case "server.port":
		c.Server.Port, err = cast.ToIntE(val)
	case "server.read_timeout":
		c.Server.ReadTimeout, err = cast.ToDurationE(val)
	case "server.write_timeout":
		c.Server.WriteTimeout, err = cast.ToDurationE(val)
	case "server.idle_timeout":
		c.Server.IdleTimeout, err = cast.ToDurationE(val)
	case "server.max_upload_bytes":
		c.Server.MaxUploadBytes, err = cast.ToInt64E(val)
	case "server.rate_limit_rps":
		c.Server.RateLimitRPS, err = cast.ToFloat64E(val)
	case "server.rate_burst":
		c.Server.RateBurst, err = cast.ToIntE(val)
	case "server.allowed_origins":
		c.Server.AllowedOrigins = splitList(val)
	case "ingest.delimiter":
		c.Ingest.Delimiter = val
	case "ingest.row_warning_threshold":
		c.Ingest.RowWarningThreshold, err = cast.ToIntE(val)
	case "ingest.na_values":
		c.Ingest.NAValues = splitList(val)
	case "profile.bins":
		c.Profile.Bins, err = cast.ToIntE(val)
	case "snapshot.backend":
		c.Snapshot.Backend = strings.ToLower(val)
	case "snapshot.ttl":
		c.Snapshot.TTL, err = cast.ToDurationE(val)
	case "snapshot.sweep_schedule":
		c.Snapshot.SweepSchedule = val
	case "snapshot.redis_url":
		c.Snapshot.RedisURL = val
	case "snapshot.key_prefix":
		c.Snapshot.KeyPrefix = val
	case "logging.level":
		c.Logging.Level = strings.ToLower(val)
	case "logging.format":
		c.Logging.Format = strings.ToLower(val)
	case "postgres.dsn":
		c.Postgres.DSN = val
	case "postgres.table":
		c.Postgres.Table = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %v", key, val)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// maskURL hides the password of a connection URL.
func maskURL(s string) string {
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	if _, ok := u.User.Password(); !ok {
		return s
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
