package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jacentio/generaldb/process"
	"github.com/jacentio/generaldb/store"
)

const version = "1.0.0"

// app carries the state shared by all subcommands.
type app struct {
	v     *viper.Viper
	log   zerolog.Logger
	proc  *process.Config
	store *store.Store
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "generaldb",
		Short: "virtual tables on two DynamoDB tables",
		Long: fmt.Sprintf(`generaldb (v%s)

Stores records of any number of virtual tables in the two physical
tables {env}generalsk and {env}generaldk.`, version),
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("region", "", "AWS region of the tables (env GENERALDB_REGION)")
	flags.String("profile", "", "shared config profile to use (env GENERALDB_PROFILE)")
	flags.String("env", "", "environment prefix of the table names (env GENERALDB_ENV)")
	flags.String("endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	flags.Bool("debug", false, "log every item touched")

	root.AddCommand(
		a.putCmd(),
		a.getCmd(),
		a.deleteCmd(),
		a.queryCmd(),
		a.copyCmd(),
		a.exampleCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "generaldb v%s\n", version)
			},
		},
	)
	return root
}

// init loads dotenv files, binds flags to viper and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	process.LoadDotEnv()

	a.v.SetEnvPrefix(process.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if a.v.GetBool("debug") {
		level = zerolog.DebugLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	a.proc = process.NewWithSource(a.v)
	a.proc.Configure(a.v.GetString("region"), a.v.GetBool("debug"))
	return nil
}

// connect opens the store selected by the global flags.
func (a *app) connect(cmd *cobra.Command, _ []string) error {
	if err := a.init(cmd); err != nil {
		return err
	}

	s, err := store.Connect(cmd.Context(), store.ConnectOptions{
		Region:      a.proc.Region(),
		Profile:     a.v.GetString("profile"),
		Environment: a.proc.Environment(),
		Endpoint:    a.v.GetString("endpoint"),
		Logger:      &a.log,
		Debug:       a.proc.Debug(),
	})
	if err != nil {
		return err
	}
	a.store = s

	a.log.Debug().
		Str("region", a.proc.Region()).
		Str("env", s.Environment()).
		Time("configuredAt", a.proc.LoadedTime()).
		Msg("connected")
	return nil
}
