package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/fokuslabs/fokus/internal/config"
	"github.com/fokuslabs/fokus/internal/server"
	"github.com/fokuslabs/fokus/internal/store"
)

var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:     "fokusd",
		Short:   "fokusd - sync and analytics server for fokus",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.ListenAddr = addr
			}
			if db, _ := cmd.Flags().GetString("db"); db != "" {
				cfg.DBPath = db
			}
			if secret, _ := cmd.Flags().GetString("secret"); secret != "" {
				cfg.JWTSecret = secret
			}
			if tz, _ := cmd.Flags().GetString("timezone"); tz != "" {
				cfg.Timezone = tz
			}

			dbPath := cfg.DBPath
			if dbPath == "" {
				dbPath, err = store.DefaultDBPath()
				if err != nil {
					return err
				}
			}

			st, err := store.New(dbPath, cfg.Location())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}

			srv := server.New(st, server.Options{
				JWTSecret:  cfg.JWTSecret,
				DemoUserID: cfg.DemoUserID,
			})

			go func() {
				log.Printf("fokusd listening on %s", cfg.ListenAddr)
				if cfg.JWTSecret == "" {
					log.Printf("no JWT secret configured, running in trusted single-user mode")
				}
				if err := srv.Listen(cfg.ListenAddr); err != nil {
					log.Fatalf("listen: %v", err)
				}
			}()

			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				shutdownTimeout,
				map[string]gfshutdown.Operation{
					"http": func(ctx context.Context) error {
						return srv.Shutdown()
					},
					"store": func(ctx context.Context) error {
						return st.Close()
					},
				},
			)

			exitCode := <-wait
			log.Printf("fokusd exited with code %d", exitCode)
			os.Exit(exitCode)
			return nil
		},
	}

	cmd.Flags().String("config", "", "path to config.json")
	cmd.Flags().String("addr", "", "listen address (overrides config)")
	cmd.Flags().String("db", "", "SQLite database path (overrides config)")
	cmd.Flags().String("secret", "", "JWT signing secret (overrides config)")
	cmd.Flags().String("timezone", "", "IANA timezone for day bucketing (overrides config)")

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Mint a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if secret, _ := cmd.Flags().GetString("secret"); secret != "" {
				cfg.JWTSecret = secret
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("a JWT secret is required to mint tokens")
			}

			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}

			token, err := server.NewToken(cfg.JWTSecret, args[0], ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().String("config", "", "path to config.json")
	cmd.Flags().String("secret", "", "JWT signing secret (overrides config)")
	cmd.Flags().Duration("ttl", 90*24*time.Hour, "token lifetime")

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(path)
}
