// Command ftp-deployer deploys a website to a remote host over FTP: it
// uploads a local directory tree, swaps a staged directory into the live
// position, backs up a remote tree to local disk, and removes remote trees.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ftp_deployer/config"
	"ftp_deployer/internal/deploy"
	"ftp_deployer/internal/session"
	"ftp_deployer/internal/transfer"
)

// withSession and readPassword are swapped out in unit tests, the same way
// the config and transfer packages override their fs variable.
var (
	withSession  = session.With
	readPassword = term.ReadPassword
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	host        string
	port        int
	username    string
	uploadPair  string
	deployPair  string
	backupPath  string
	removePath  string
	blackListed []string
	configPath  string
	useFTPS     bool
	verbose     bool
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "ftp-deployer",
		Short:        "Deploy a website to a remote host over FTP",
		SilenceUsage: true,

		// The error is printed by log.Fatal in main, so silence cobra's
		// own printing to avoid doubling it.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
			if err := applyConfigFile(cmd, &opts); err != nil {
				return err
			}
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.host, "ftp", "", "Address of the target FTP server.")
	flags.IntVar(&opts.port, "port", 21, "Port of the target FTP server.")
	flags.StringVar(&opts.username, "username", "", "Login name. The password is always prompted interactively.")
	flags.StringVar(&opts.uploadPair, "upload", "", "Upload local directory SOURCE to remote directory TARGET, as SOURCE:TARGET (split on the last colon).")
	flags.StringVar(&opts.deployPair, "deploy", "", "Rename LIVE to LIVE.bak, then STAGED to LIVE, as STAGED:LIVE (split on the last colon).")
	flags.StringVar(&opts.backupPath, "backup", "", "Download the remote directory into an identically named local directory.")
	flags.StringVar(&opts.removePath, "remove", "", "Recursively delete the remote directory.")
	flags.StringArrayVar(&opts.blackListed, "black-listed", nil, "Path excluded from upload and backup. May be repeated.")
	flags.StringVar(&opts.configPath, "config", "", "Optional YAML file with connection defaults and blacklist.")
	flags.BoolVar(&opts.useFTPS, "ftps", false, "Connect over implicit FTPS using the certificate from FTPS_CERT_PATH/FTPS_KEY_PASSWORD.")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging.")
	return cmd
}

// applyConfigFile fills in options from the YAML config file. Flags set on
// the command line take precedence over file values.
func applyConfigFile(cmd *cobra.Command, opts *options) error {
	if opts.configPath == "" {
		return nil
	}

	file, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("ftp") && file.Host != "" {
		opts.host = file.Host
	}
	if !cmd.Flags().Changed("port") && file.Port != 0 {
		opts.port = file.Port
	}
	if !cmd.Flags().Changed("username") && file.Username != "" {
		opts.username = file.Username
	}
	if !cmd.Flags().Changed("black-listed") && len(file.BlackListed) > 0 {
		opts.blackListed = file.BlackListed
	}
	return nil
}

// run executes the requested operations in fixed order: upload, then
// deploy, then backup, then remove. Each operation opens and closes its own
// session; a failure in one aborts the rest.
func run(opts options) error {
	if opts.host == "" {
		return errors.New("--ftp is required")
	}
	if opts.username == "" {
		return errors.New("--username is required")
	}
	if opts.uploadPair == "" && opts.deployPair == "" &&
		opts.backupPath == "" && opts.removePath == "" {
		return errors.New("no operation requested: pass --upload, --deploy, --backup or --remove")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	params := session.Params{
		Host:     opts.host,
		Port:     opts.port,
		Username: opts.username,
		Password: password,
	}
	if opts.useFTPS {
		envr, err := config.MustLoad()
		if err != nil {
			return err
		}
		tlsConfig, err := session.TLSConfig(opts.host, envr.CertPath, envr.KeyPassword)
		if err != nil {
			return err
		}
		params.TLS = tlsConfig
	}

	if opts.uploadPair != "" {
		source, target, err := splitPair("upload", opts.uploadPair)
		if err != nil {
			return err
		}
		err = withSession(params, func(remote session.Remote) error {
			return transfer.Upload(remote, source, target, opts.blackListed)
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"source": source, "target": target}).Info("Upload complete")
	}

	if opts.deployPair != "" {
		staged, live, err := splitPair("deploy", opts.deployPair)
		if err != nil {
			return err
		}
		err = withSession(params, func(remote session.Remote) error {
			return deploy.Deploy(remote, staged, live)
		})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"staged": staged, "live": live}).Info("Deploy complete")
	}

	if opts.backupPath != "" {
		err := withSession(params, func(remote session.Remote) error {
			return transfer.Backup(remote, opts.backupPath, opts.blackListed)
		})
		if err != nil {
			return err
		}
		log.WithField("path", opts.backupPath).Info("Backup complete")
	}

	if opts.removePath != "" {
		err := withSession(params, func(remote session.Remote) error {
			return deploy.RemoveTree(remote, opts.removePath)
		})
		if err != nil {
			return err
		}
		log.WithField("path", opts.removePath).Info("Remove complete")
	}

	log.Info("Finished")
	return nil
}

// splitPair parses the colon-separated path pair of --upload and --deploy.
// The split is on the last colon so a Windows drive-letter source like
// C:\site stays intact.
func splitPair(flag, value string) (string, string, error) {
	i := strings.LastIndex(value, ":")
	if i <= 0 || i == len(value)-1 {
		return "", "", fmt.Errorf("--%s expects two paths as FIRST:SECOND, got %q", flag, value)
	}
	return value[:i], value[i+1:], nil
}

// promptPassword reads the password from the terminal with echo disabled.
// The password never travels through argv or the environment.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
