// heic2jpg/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"heic2jpg/codec"
)

type Config struct {
	Input            string        `mapstructure:"INPUT"`
	Output           string        `mapstructure:"OUTPUT"`
	Quality          int           `mapstructure:"QUALITY"`
	Jobs             int           `mapstructure:"JOBS"`
	DecodeCmd        string        `mapstructure:"DECODE_CMD"`
	MaxDimension     uint          `mapstructure:"MAX_DIMENSION"`
	MaxInputSize     int64         `mapstructure:"MAX_INPUT_SIZE"`
	ThrottleFreeMem  int64         `mapstructure:"THROTTLE_FREEMEM"`
	ThrottleFreeDisk int64         `mapstructure:"THROTTLE_FREEDISK"`
	RunTimeout       time.Duration `mapstructure:"RUN_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	LogFormat        string        `mapstructure:"LOG_FORMAT"`
	MaxBatches       int           `mapstructure:"MAX_BATCHES"`
	AuthEnable       bool          `mapstructure:"AUTH_ENABLE"`
	AuthKey          string        `mapstructure:"AUTH_KEY"`
	Port             string        `mapstructure:"PORT"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"input":         "INPUT",
	"output":        "OUTPUT",
	"quality":       "QUALITY",
	"jobs":          "JOBS",
	"max-dimension": "MAX_DIMENSION",
	"decode-cmd":    "DECODE_CMD",
	"log-level":     "LOG_LEVEL",
	"port":          "PORT",
}

// stringToDurationHookFunc is a custom Viper hook for parsing Go's duration strings.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

// stringToByteSizeHookFunc is a custom Viper hook for parsing human-readable size strings.
func stringToByteSizeHookFunc() mapstructure.DecodeHookFunc {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int64 {
			return data, nil
		}

		var size datasize.ByteSize
		err := size.UnmarshalText([]byte(data.(string)))
		if err != nil {
			// Not a valid size string, let other parsers handle it.
			return data, nil
		}

		return int64(size.Bytes()), nil
	}
}

// Load resolves configuration from defaults, an optional YAML file, the
// HEIC2JPG_* environment and finally any flags set on flags. configFile
// overrides the default search path; flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	vp := viper.New()

	// Set default values as strings, the hooks will handle them.
	vp.SetDefault("INPUT", "")
	vp.SetDefault("OUTPUT", "")
	vp.SetDefault("QUALITY", 90)
	vp.SetDefault("JOBS", 4)
	vp.SetDefault("DECODE_CMD", codec.DefaultDecodeCommand)
	vp.SetDefault("MAX_DIMENSION", 0)
	vp.SetDefault("MAX_INPUT_SIZE", "200MB")
	vp.SetDefault("THROTTLE_FREEMEM", "0")
	vp.SetDefault("THROTTLE_FREEDISK", "0")
	vp.SetDefault("RUN_TIMEOUT", "0s")
	vp.SetDefault("LOG_LEVEL", "info")
	vp.SetDefault("LOG_FORMAT", "console")
	vp.SetDefault("MAX_BATCHES", 1)
	vp.SetDefault("AUTH_ENABLE", false)
	vp.SetDefault("AUTH_KEY", "")
	vp.SetDefault("PORT", "8080")

	if configFile != "" {
		vp.SetConfigFile(configFile)
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		vp.SetConfigName("heic2jpg_config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath(".")
		vp.AddConfigPath("/etc/heic2jpg/")

		if err := vp.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	vp.SetEnvPrefix("HEIC2JPG")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := vp.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	// The order matters: the first hook that succeeds is used.
	err := vp.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToDurationHookFunc(),
			stringToByteSizeHookFunc(),
		),
	))
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that would make every conversion fail. Quality
// is passed through to the encoder unchecked; an out-of-range value only
// produces a warning.
func (c *Config) Validate() (warnings []string, err error) {
	if c.Jobs < 1 {
		return nil, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if c.MaxBatches < 1 {
		return nil, fmt.Errorf("max batches must be at least 1, got %d", c.MaxBatches)
	}
	args, err := codec.SplitCommand(c.DecodeCmd)
	if err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	if err := codec.ValidateArgs(args); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	if c.Quality < 1 || c.Quality > 100 {
		warnings = append(warnings, fmt.Sprintf("quality %d is outside 1-100 and will be clamped by the encoder", c.Quality))
	}
	return warnings, nil
}

// ResolveRoots returns absolute roots for a run. The input must be an
// existing directory and is symlink-resolved; the output does not need to
// exist and is not created here.
func ResolveRoots(input, output string) (string, string, error) {
	if input == "" {
		return "", "", fmt.Errorf("input directory is required")
	}
	if output == "" {
		return "", "", fmt.Errorf("output directory is required")
	}

	in, err := filepath.Abs(expandHome(input))
	if err != nil {
		return "", "", fmt.Errorf("resolve input %s: %w", input, err)
	}
	in, err = filepath.EvalSymlinks(in)
	if err != nil {
		return "", "", fmt.Errorf("input directory not found: %s", input)
	}
	info, err := os.Stat(in)
	if err != nil {
		return "", "", fmt.Errorf("input directory not readable: %s: %w", input, err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("input is not a directory: %s", input)
	}

	out, err := filepath.Abs(expandHome(output))
	if err != nil {
		return "", "", fmt.Errorf("resolve output %s: %w", output, err)
	}
	return in, out, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
