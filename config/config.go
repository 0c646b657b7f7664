package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Pipeline struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	LogLvl  string `yaml:"log_level" mapstructure:"log_level"`
}
type Audio struct {
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate"` // 0: first subclip decides
	BitDepth   int `yaml:"bit_depth" mapstructure:"bit_depth"`     // 0: keep source depth
}
type Paths struct {
	Annotations string `yaml:"annotation_dir" mapstructure:"annotation_dir"`
	Audio       string `yaml:"audio_dir" mapstructure:"audio_dir"`
	Export      string `yaml:"export_dir" mapstructure:"export_dir"`
	Concat      string `yaml:"concat_dir" mapstructure:"concat_dir"`
	Prosogram   string `yaml:"prosogram_dir" mapstructure:"prosogram_dir"`
	Outputs     string `yaml:"outputs" mapstructure:"outputs"`
}
type Export struct {
	Tier            string `yaml:"tier" mapstructure:"tier"`
	AnnotationExt   string `yaml:"annotation_ext" mapstructure:"annotation_ext"`
	AudioExt        string `yaml:"audio_ext" mapstructure:"audio_ext"`
	ClipTimesCSV    string `yaml:"clip_times_csv" mapstructure:"clip_times_csv"`
	SubclipTimesCSV string `yaml:"subclip_times_csv" mapstructure:"subclip_times_csv"`
}
type NPVI struct {
	Suffix             string `yaml:"suffix" mapstructure:"suffix"`
	KeepTrailingPhrase bool   `yaml:"keep_trailing_phrase" mapstructure:"keep_trailing_phrase"`
	CacheFile          string `yaml:"cache_file" mapstructure:"cache_file"`
	SummaryCSV         string `yaml:"summary_csv" mapstructure:"summary_csv"`
}
type Root struct {
	Pipeline Pipeline `yaml:"pipeline" mapstructure:"pipeline"`
	Audio    Audio    `yaml:"audio" mapstructure:"audio"`
	Paths    Paths    `yaml:"paths" mapstructure:"paths"`
	Export   Export   `yaml:"export" mapstructure:"export"`
	NPVI     NPVI     `yaml:"npvi" mapstructure:"npvi"`
}

// Stages accepted by Validate.
const (
	StageExport = "export"
	StageConcat = "concat"
	StageNPVI   = "npvi"
)

const envPrefix = "ISS"

// SetDefaults registers every default on v so that env lookups work for all keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "infant-speech-song")
	v.SetDefault("pipeline.version", "0.1.0")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("audio.sample_rate", 0)
	v.SetDefault("audio.bit_depth", 0)
	v.SetDefault("paths.annotation_dir", "")
	v.SetDefault("paths.audio_dir", "")
	v.SetDefault("paths.export_dir", "")
	v.SetDefault("paths.concat_dir", "")
	v.SetDefault("paths.prosogram_dir", "")
	v.SetDefault("paths.outputs", ".")
	v.SetDefault("export.tier", "")
	v.SetDefault("export.annotation_ext", ".TextGrid")
	v.SetDefault("export.audio_ext", ".wav")
	v.SetDefault("export.clip_times_csv", "clip_times.csv")
	v.SetDefault("export.subclip_times_csv", "subclip_times.csv")
	v.SetDefault("npvi.suffix", "_data.txt")
	v.SetDefault("npvi.keep_trailing_phrase", false)
	v.SetDefault("npvi.cache_file", "npvi_data.json")
	v.SetDefault("npvi.summary_csv", "npvi_summary.csv")
}

// Candidates lists the config files tried when no explicit path is given.
func Candidates() []string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
}

// Load reads the config file (explicit path or first existing candidate),
// then applies ISS_* environment overrides and any flags already bound on v.
// A missing candidate file is not an error; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Root, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		for _, p := range Candidates() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			v.SetConfigFile(p)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config %s: %w", p, err)
			}
			break
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the directories a stage needs are set.
func (c *Root) Validate(stage string) error {
	var missing []string
	need := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	switch stage {
	case StageExport:
		need("paths.annotation_dir", c.Paths.Annotations)
		need("paths.audio_dir", c.Paths.Audio)
		need("paths.export_dir", c.Paths.Export)
	case StageConcat:
		need("paths.export_dir", c.Paths.Export)
		need("paths.concat_dir", c.Paths.Concat)
	case StageNPVI:
		need("paths.prosogram_dir", c.Paths.Prosogram)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	if c.Audio.SampleRate < 0 {
		return errors.New("audio.sample_rate must be >= 0")
	}
	switch c.Audio.BitDepth {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("audio.bit_depth %d not supported", c.Audio.BitDepth)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", stage, strings.Join(missing, ", "))
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Root) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
