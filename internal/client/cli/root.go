package cli

import (
	"github.com/spf13/cobra"
)

// rootCommand собирает дерево команд; зависимости создаются в PersistentPreRunE
func (c *Cli) rootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "labdesk",
		Short: "Operator console for the research project platform",
		Long: `labdesk is the operator console for the research project management platform.

Environment Variables:
  LABDESK_API_URL       REST API base address (default: http://localhost:8080/api)
  LABDESK_PUSH_URL      Push channel address (default: ws://localhost:8080/ws)
  LABDESK_DB            Session file (default: labdesk.db)
  LABDESK_HTTP_TIMEOUT  Request timeout (default: 30s)
  LABDESK_LOG_LEVEL     debug, info, warn or error (default: warn)
  LABDESK_PASSWORD      Password for non-interactive sign-in`,
		Version:       c.version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context(), flags)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(c.io)
	root.SetErr(c.io.ErrWriter())

	pf := root.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "REST API base address (overrides LABDESK_API_URL)")
	pf.StringVar(&flags.pushURL, "push-url", "", "push channel address (overrides LABDESK_PUSH_URL)")
	pf.StringVar(&flags.dbPath, "db", "", "session file (overrides LABDESK_DB)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides LABDESK_LOG_LEVEL)")

	root.AddCommand(
		c.signInCommand(),
		c.signUpCommand(),
		c.signOutCommand(),
		c.whoamiCommand(),
		c.projectsCommand(),
		c.tasksCommand(),
		c.teamCommand(),
		c.budgetCommand(),
		c.fundingCommand(),
		c.publicationsCommand(),
		c.equipmentCommand(),
		c.backupsCommand(),
		c.listenCommand(),
	)

	return root
}
