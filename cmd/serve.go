package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"intent-swap/pkg/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the route generator over HTTP",
	Long: `Start the JSON HTTP API. The server stops gracefully on Ctrl-C.

Endpoints:
  POST /api/v1/solve              generate routes for an intent
  POST /api/v1/execute            execute a route against the wallet
  GET  /api/v1/executions         execution history
  GET  /api/v1/wallet             wallet balances
  POST /api/v1/wallet/connect     connect the wallet
  POST /api/v1/wallet/disconnect  disconnect the wallet
  GET  /api/v1/tokens             reference prices
  GET  /api/v1/chains             supported chains
  GET  /api/v1/metrics            solver counters
  GET  /health                    liveness`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) {
	svc, err := loadServices(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	serverCfg := svc.cfg.Server
	if servePort > 0 {
		serverCfg.Port = servePort
	}

	handler := server.NewHandler(svc.solver, svc.wallet, svc.executor, svc.logger)
	srv := server.New(serverCfg, handler, svc.logger)

	svc.logger.Infof("environment: %s, wallet file: %s", serverCfg.Environment, svc.cfg.WalletFile)
	if err := srv.Run(cmd.Context()); err != nil {
		printError(err)
		os.Exit(1)
	}
}
