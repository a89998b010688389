package cmd

import (
	"github.com/Hungichi/melodies-BE/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Melodies HTTP server",
	Long:  `Start the Melodies backend server, serving the auth and song APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
