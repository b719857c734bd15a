package cmd

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stesla/telscript/telnet"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           "telscript",
		Short:         "telscript drives scripted TELNET sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := telnet.DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.telscript.yaml)")
	flags.StringP("host", "H", "", "remote host")
	flags.StringP("port", "p", defaults.Port, "remote port or service name")
	flags.DurationP("timeout", "t", defaults.Timeout, "how long to wait for each pattern")
	flags.String("prompt", defaults.Prompt, "command prompt to wait for after each command")
	flags.String("echo", string(defaults.EchoMode), "echo mode: local, remote, none or default")
	flags.Bool("bugs", defaults.TelnetBugs, "work around common TELNET server bugs")
	flags.Bool("pager", defaults.Pager, "answer the page prompt automatically")
	flags.String("charset", "", "character set of the remote host's output (e.g. ascii, latin1)")
	flags.String("transcript", "", "directory for a dated transcript of everything received")
	flags.String("level", "info", "log level")

	for key, flag := range map[string]string{
		"host":        "host",
		"port":        "port",
		"timeout":     "timeout",
		"prompt":      "prompt",
		"echo":        "echo",
		"telnet_bugs": "bugs",
		"pager":       "pager",
		"charset":     "charset",
		"transcript":  "transcript",
		"level":       "level",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln("error finding home directory:", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".telscript")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("telscript")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()

	log.SetFormatter(new(log.TextFormatter))
	level, err := log.ParseLevel(viper.GetString("level"))
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	if readErr == nil {
		log.Debugf("loaded config at '%s'", viper.ConfigFileUsed())
	}

	if addr := viper.GetString("debugaddr"); addr != "" {
		go launchProfiler(addr)
	}
}

// loadConfig overlays the config file, environment and flags on the
// session defaults.
func loadConfig() (telnet.Config, error) {
	cfg := telnet.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func launchProfiler(addr string) {
	log.Printf("pprof listening on '%s'", addr)
	log.Println(http.ListenAndServe(addr, nil))
}
