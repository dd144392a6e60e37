package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ndmokit/ndmokit/internal/history"
	"github.com/ndmokit/ndmokit/internal/server"
	"github.com/ndmokit/ndmokit/internal/standards"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		host      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Start the HTTP server exposing assessment, remediation, processing, the standards catalogue, and run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, noHistory)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "disable run history persistence")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, noHistory bool) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	var store *history.Store
	if !noHistory {
		store, err = history.NewStore(resolveDataDir())
		if err != nil {
			return fmt.Errorf("init history store: %w", err)
		}
		logger.Info("history store initialized", "path", resolveDataDir())
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port
	if viper.IsSet("server.port") {
		srvCfg.Port = viper.GetInt("server.port")
	}
	if viper.IsSet("server.host") {
		srvCfg.Host = viper.GetString("server.host")
	}

	reg := standards.NewRegistry()
	logger.Info("standards catalogue loaded", "standards", reg.Len())

	srv := server.New(srvCfg, cfg, reg, store, logger)
	return srv.ListenAndServe()
}
