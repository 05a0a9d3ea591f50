package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"mtexp/internal/httpapi"
	"mtexp/internal/runstore"
)

func newServeCmd(g *globalOpts) *cobra.Command {
	var (
		addr        string
		cors        bool
		corsOrigins []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only run browser, health probes and metrics",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.Open(g.stateDir)
			if err != nil {
				return err
			}
			httpapi.SetLogger(g.log.With().Str("component", "http").Logger())
			httpapi.SetCORSOptions(cors, corsOrigins, nil, []string{"Accept", "Content-Type"})
			h := httpapi.NewMux(httpapi.NewStoreService(store, nil))
			return httpapi.Serve(cmd.Context(), addr, h, func(a net.Addr) {
				fmt.Fprintf(g.stdout, "serving runs from %s on http://%s\n", store.Dir(), a)
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&addr, "addr", envStr(envAddr, ":8080"), "HTTP listen address (defaults MTEXP_ADDR or :8080)")
	fs.BoolVar(&cors, "cors", envBool(envCORS, false), "Enable CORS")
	fs.StringSliceVar(&corsOrigins, "cors-origins", []string{"*"}, "Allowed CORS origins")
	return cmd
}
