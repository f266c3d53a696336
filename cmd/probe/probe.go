package probe

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Males-For-Females-llc/dapps/internal/config"
	"github.com/Males-For-Females-llc/dapps/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newProbeCmd("liveness", "/-/healthy"),
		newProbeCmd("readiness", "/-/ready"),
	)
}

// newProbeCmd 访问管理端点并以退出码表达结果（容器探针用）
func newProbeCmd(use, path string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Checks the %s endpoint of a local server", path),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			address := cfg.Echo.ListenAddress
			if address != "" && address[0] == ':' {
				address = "127.0.0.1" + address
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get("http://" + address + path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			defer resp.Body.Close()

			if verbose {
				fmt.Printf("%s -> %d\n", path, resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print probe result")
	return cmd
}
