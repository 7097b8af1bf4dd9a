package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lshigami/placement/config"
	"github.com/lshigami/placement/internal/client"
	"github.com/lshigami/placement/internal/logger"
	"github.com/lshigami/placement/internal/render"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfg    *config.ClientConfig
	api    *client.Client
	render *render.Renderer
}

func newApp() (*app, error) {
	cfg, err := config.NewClientConfig()
	if err != nil {
		return nil, err
	}
	signer, err := newSigner(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg: cfg,
		api: client.New(client.Config{
			BaseURL: cfg.APIURL,
			Signer:  signer,
			Timeout: cfg.HTTPTimeout,
		}),
		render: render.New(os.Stdout),
	}, nil
}

// newSigner picks how requests are authenticated: a given token, a token
// minted from the shared secret, or the plain student header.
func newSigner(cfg *config.ClientConfig) (client.Signer, error) {
	switch {
	case cfg.Token != "":
		return client.StaticToken(cfg.Token), nil
	case cfg.JWTSecret != "":
		if cfg.StudentID == "" {
			return nil, fmt.Errorf("--student (PLACEMENT_STUDENT_ID) is required when AUTH_JWT_SECRET is set")
		}
		return client.NewJWTSigner(cfg.JWTSecret, cfg.StudentID, time.Hour), nil
	default:
		return client.StudentHeader(cfg.StudentID), nil
	}
}

func newRootCmd() *cobra.Command {
	var a *app
	root := &cobra.Command{
		Use:           "placement",
		Short:         "Take timed placement tests from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.InitCLI(viper.GetBool("DEBUG"))
			var err error
			a, err = newApp()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.String("api", "", "placement API base URL (PLACEMENT_API_URL)")
	flags.String("student", "", "student id sent with every request (PLACEMENT_STUDENT_ID)")
	flags.String("token", "", "bearer token for the API (PLACEMENT_TOKEN)")
	flags.Bool("debug", false, "verbose logging to stderr")
	_ = viper.BindPFlag("PLACEMENT_API_URL", flags.Lookup("api"))
	_ = viper.BindPFlag("PLACEMENT_STUDENT_ID", flags.Lookup("student"))
	_ = viper.BindPFlag("PLACEMENT_TOKEN", flags.Lookup("token"))
	_ = viper.BindPFlag("DEBUG", flags.Lookup("debug"))

	root.AddCommand(
		&cobra.Command{
			Use:   "tests",
			Short: "List placement tests",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				tests, err := a.api.ListTests(cmd.Context())
				if err != nil {
					a.render.Error(err)
					return err
				}
				a.render.Tests(tests)
				return nil
			},
		},
		newStartCmd(&a),
		&cobra.Command{
			Use:   "take <attempt-id>",
			Short: "Continue an attempt that is in progress",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.take(cmd.Context(), args[0], os.Stdin)
			},
		},
		&cobra.Command{
			Use:   "result <attempt-id>",
			Short: "Show the result of a completed attempt",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.showResult(cmd.Context(), args[0])
			},
		},
	)
	return root
}

func newStartCmd(a **app) *cobra.Command {
	var noTake bool
	cmd := &cobra.Command{
		Use:   "start <test-id>",
		Short: "Read the instructions and start a test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := *a
			testID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid test id %q", args[0])
			}
			ctx := cmd.Context()
			in, err := p.api.GetTestInstructions(ctx, uint(testID))
			if err != nil {
				p.render.Error(err)
				return err
			}
			p.render.Instructions(in)

			started, err := p.api.StartAttempt(ctx, uint(testID))
			if err != nil {
				p.render.Error(err)
				return err
			}
			if started.Resumed {
				p.render.Notice("Resuming attempt %s", started.AttemptID)
			} else {
				p.render.Info("Attempt %s started, ends at %s", started.AttemptID, started.ExpiresAt.Local().Format(time.Kitchen))
			}
			if noTake {
				return nil
			}
			return p.take(ctx, started.AttemptID, os.Stdin)
		},
	}
	cmd.Flags().BoolVar(&noTake, "no-take", false, "only start the attempt, print its id and exit")
	return cmd
}
