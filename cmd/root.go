package cmd

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "fmv-reconciler"
)

// Default file names inside the working directory.
const (
	defaultCalculatorFile = "FMV_Calculator_Updated.xlsx"
	defaultSurveyFile     = "CVdump.csv"
	defaultRosterFile     = "DVL.csv"
	defaultMissingFile    = "Missing_Doctors.csv"
	defaultRatesFile      = "scoring_criteria.xlsx"
	defaultRatesSheet     = "OUS FMV Rates"
)

type Config struct {
	Dir   string       `mapstructure:"dir"`
	Files *FilesConfig `mapstructure:"files"`
	Rates *RatesConfig `mapstructure:"rates"`
}

// FilesConfig overrides individual input/output file names. Relative names
// resolve against dir.
type FilesConfig struct {
	Calculator string `mapstructure:"calculator"`
	Survey     string `mapstructure:"survey"`
	Roster     string `mapstructure:"roster"`
	Missing    string `mapstructure:"missing"`
	Rates      string `mapstructure:"rates"`
}

type RatesConfig struct {
	Sheet string `mapstructure:"sheet"`
	// Defaults overrides the built-in per-tier fallback rates. Values come
	// straight from yaml, so they may arrive as strings or ints.
	Defaults map[string]any `mapstructure:"defaults"`
}

// DefaultRates decodes the configured per-tier overrides into integers.
func (c *RatesConfig) DefaultRates() (map[string]int, error) {
	if c == nil || len(c.Defaults) == 0 {
		return nil, nil
	}

	var out map[string]int
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(c.Defaults); err != nil {
		return nil, fmt.Errorf("rates.defaults: %w", err)
	}
	return out, nil
}

// Paths are the fully resolved locations of every input and output.
type Paths struct {
	Calculator string
	Survey     string
	Roster     string
	Missing    string
	Rates      string
	RatesSheet string
}

// Paths resolves the effective file locations from the config, the FMV_DIR
// environment binding and the built-in defaults.
func (c *Config) Paths() Paths {
	dir := c.Dir
	if dir == "" {
		dir = viper.GetString("dir")
	}
	if dir == "" {
		dir = "."
	}

	files := c.Files
	if files == nil {
		files = &FilesConfig{}
	}

	resolve := func(override, name string) string {
		if override == "" {
			return filepath.Join(dir, name)
		}
		if filepath.IsAbs(override) {
			return override
		}
		return filepath.Join(dir, override)
	}

	sheet := defaultRatesSheet
	if c.Rates != nil && c.Rates.Sheet != "" {
		sheet = c.Rates.Sheet
	}

	return Paths{
		Calculator: resolve(files.Calculator, defaultCalculatorFile),
		Survey:     resolve(files.Survey, defaultSurveyFile),
		Roster:     resolve(files.Roster, defaultRosterFile),
		Missing:    resolve(files.Missing, defaultMissingFile),
		Rates:      resolve(files.Rates, defaultRatesFile),
		RatesSheet: sheet,
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "fmv-reconciler matches DVL providers against CV survey data and maintains the FMV calculator",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("dir", "FMV_DIR"); err != nil {
		log.Fatalf("binding FMV_DIR environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine since every path has a default; a config
	// file that exists but does not parse is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
