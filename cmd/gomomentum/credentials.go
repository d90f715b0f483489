package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/betbot/gomomentum/pkg/config"
	"github.com/betbot/gomomentum/pkg/secretstore"
	"github.com/spf13/cobra"
)

func credentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage broker credentials in the encrypted store",
	}
	cmd.AddCommand(credentialsSetCmd())
	return cmd
}

// credentialsSetCmd 把券商凭证写入 Badger 凭证库，之后 run 可以不在配置/环境变量里放明文密码
func credentialsSetCmd() *cobra.Command {
	var (
		storePath string
		storeKey  string
		login     int64
		password  string
		server    string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Write login/password/server into the credential store",
		Example: `  gomomentum credentials set --store ./data/secrets --key $SECRET_STORE_KEY --login 101097885 --server MetaQuotes-Demo
  (password is read from stdin when --password is omitted)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv(envFile)
			if storePath == "" {
				storePath = os.Getenv("SECRET_STORE_PATH")
			}
			if storeKey == "" {
				storeKey = os.Getenv("SECRET_STORE_KEY")
			}
			if strings.TrimSpace(storePath) == "" {
				return fmt.Errorf("--store (or SECRET_STORE_PATH) is required")
			}
			key, err := secretstore.ParseKey(storeKey)
			if err != nil {
				return fmt.Errorf("invalid store key: %w", err)
			}

			if password == "" && !cmd.Flags().Changed("password") {
				fmt.Fprint(os.Stderr, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			store, err := secretstore.Open(secretstore.OpenOptions{Path: storePath, EncryptionKey: key})
			if err != nil {
				return err
			}
			defer store.Close()

			values := map[string]string{}
			if login != 0 {
				values[secretstore.KeyBrokerLogin] = strconv.FormatInt(login, 10)
			}
			if password != "" {
				values[secretstore.KeyBrokerPassword] = password
			}
			if server != "" {
				values[secretstore.KeyBrokerServer] = server
			}
			if len(values) == 0 {
				return fmt.Errorf("nothing to write")
			}
			for k, v := range values {
				if err := store.SetString(k, v); err != nil {
					return fmt.Errorf("write %s: %w", k, err)
				}
			}
			fmt.Fprintf(os.Stdout, "✅ wrote %d credential field(s) to %s\n", len(values), storePath)
			return nil
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "Credential store directory (default $SECRET_STORE_PATH)")
	cmd.Flags().StringVar(&storeKey, "key", "", "Store encryption key, 32 bytes hex/base64 (default $SECRET_STORE_KEY)")
	cmd.Flags().Int64Var(&login, "login", 0, "Broker account login")
	cmd.Flags().StringVar(&password, "password", "", "Broker password (prompted when omitted)")
	cmd.Flags().StringVar(&server, "server", "", "Broker server name")
	return cmd
}
