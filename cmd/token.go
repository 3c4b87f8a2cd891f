package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/miknow-notebook-service/internal/app"
	pkgapp "github.com/haierkeys/miknow-notebook-service/pkg/app"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type tokenFlags struct {
	uid    int64
	config string
}

func init() {
	tokenEnv := new(tokenFlags)

	var tokenCommand = &cobra.Command{
		Use:   "token --uid N [-c config_file]",
		Short: "签发工作区 Token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := resolveConfig(tokenEnv.config)
			if err != nil {
				return err
			}
			cfg, _, err := internalApp.LoadConfig(config)
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			tm := pkgapp.NewTokenManager(pkgapp.TokenConfig{
				SecretKey: cfg.Security.AuthTokenKey,
				Expiry:    cfg.GetTokenExpiry(),
			})
			if !tm.Enabled() {
				return errors.New("security.auth-token-key is empty, workspace auth is disabled")
			}

			token, err := tm.Generate(tokenEnv.uid)
			if err != nil {
				return errors.Wrap(err, "generate token")
			}
			fmt.Println(token)
			return nil
		},
	}

	rootCmd.AddCommand(tokenCommand)
	fs := tokenCommand.Flags()
	fs.Int64Var(&tokenEnv.uid, "uid", 0, "workspace id")
	fs.StringVarP(&tokenEnv.config, "config", "c", "", "config file")
}
