package conftools

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const redacted = "***REDACTED***"

// Initialize makes viper read configuration from <appName>.yaml in the working directory or /etc,
// and from environment variables named after the configuration keys,
// e.g. GEOSERVER_FETCH_FORMAT for geoserver.fetch-format.
//
// Aliases bind keys to additional environment variables, for values the
// platform provides under its own names, e.g. database-url to DATABASE_URL.
func Initialize(appName string, aliases map[string]string) {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for key, env := range aliases {
		viper.BindEnv(key, env)
	}

	viper.SetConfigName(appName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc")
}

// Decode copies the current settings into cfg, matching keys against json tags.
// Settings without a matching field are an error.
func Decode(cfg interface{}) error {
	return viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.ErrorUnused = true
	})
}

// Load reads the configuration file if there is one, parses the command line and decodes
// the result into cfg. Flags take precedence over the environment, which takes precedence
// over the file.
func Load(cfg interface{}) error {
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read configuration file: %w", err)
		}
	}

	flag.Parse()

	err = viper.BindPFlags(flag.CommandLine)
	if err != nil {
		return err
	}

	return Decode(cfg)
}

// Format returns one "key: value" line per configuration key, sorted by key.
// Values of secret keys are hidden. Passwords embedded in URLs, such as database
// connection strings, are hidden too.
func Format(secretKeys []string) []string {
	secret := make(map[string]bool, len(secretKeys))
	for _, key := range secretKeys {
		secret[key] = true
	}

	keys := viper.AllKeys()
	sort.Strings(keys)

	printed := make([]string, 0, len(keys))
	for _, key := range keys {
		value := viper.Get(key)
		if secret[key] {
			value = redacted
		} else if s, ok := value.(string); ok {
			value = redactURL(s)
		}
		printed = append(printed, fmt.Sprintf("%s: %v", key, value))
	}

	return printed
}

func redactURL(value string) string {
	if !strings.Contains(value, "://") {
		return value
	}
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return value
	}
	u.User = url.UserPassword(u.User.Username(), redacted)
	return u.String()
}
