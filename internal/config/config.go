package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed instructions.yaml
var instructionsYAML []byte

type Config struct {
	Sheets       SheetsConfig
	Pairs        PairsConfig
	Images       ImagesConfig
	Validation   ValidationConfig
	Instructions InstructionsConfig
}

type SheetsConfig struct {
	SpreadsheetID   string // destination Google Sheet
	CredentialsFile string // path to the service account JSON
}

type PairsConfig struct {
	CSVPath string // path to the pairs table
}

type ImagesConfig struct {
	BasePath string // local image directory
	UseURLs  bool   // resolve identifiers against URLBase instead of BasePath
	URLBase  string // base URL when UseURLs is set
}

type ValidationConfig struct {
	MinNameLength        int // minimum annotator name/ID length
	MinExplanationLength int // minimum free-text explanation length
}

// InstructionsConfig is the annotator-facing instructions document,
// loaded from the embedded instructions.yaml.
type InstructionsConfig struct {
	Title   string   `yaml:"title" json:"title"`
	Intro   string   `yaml:"intro" json:"intro"`
	Steps   []string `yaml:"steps" json:"steps"`
	Focus   []string `yaml:"focus" json:"focus"`
	Caution []string `yaml:"caution" json:"caution"`
	Example string   `yaml:"example" json:"example"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean. Unset or
// unparseable values yield the default.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var instructions InstructionsConfig
	if err := yaml.Unmarshal(instructionsYAML, &instructions); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded instructions.yaml: " + err.Error())
	}

	return &Config{
		Sheets: SheetsConfig{
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
			CredentialsFile: envString("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		},
		Pairs: PairsConfig{
			CSVPath: envString("PAIRS_CSV", "pairs.csv"),
		},
		Images: ImagesConfig{
			BasePath: envString("IMAGE_BASE_PATH", "images/"),
			UseURLs:  envBool("USE_IMAGE_URLS", false),
			URLBase:  os.Getenv("IMAGE_URL_BASE"),
		},
		Validation: ValidationConfig{
			MinNameLength:        envInt("MIN_NAME_LENGTH", 5),
			MinExplanationLength: envInt("MIN_EXPLANATION_LENGTH", 20),
		},
		Instructions: instructions,
	}
}
