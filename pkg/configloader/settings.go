package configloader

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/transitlog"
	"github.com/hyp3rd/transitlog/internal/constants"
)

// Settings is the serializable shape of the logger configuration.
// Defaults come from the `default` tags and are applied before
// decoding, so absent keys keep their documented values. Range
// constraints live in the `validate` tags and are checked after
// decoding.
type Settings struct {
	Level              string        `mapstructure:"level"                yaml:"level"                default:"info"`
	Name               string        `mapstructure:"name"                 yaml:"name"`
	Output             string        `mapstructure:"output"               yaml:"output"               default:"stdout"`
	TimeFormat         string        `mapstructure:"time_format"          yaml:"time_format"          default:"rfc3339"`
	DisableTimestamp   bool          `mapstructure:"disable_timestamp"    yaml:"disable_timestamp"`
	EnableJSON         bool          `mapstructure:"enable_json"          yaml:"enable_json"`
	Formatter          string        `mapstructure:"formatter"            yaml:"formatter"`
	QueueCapacity      int           `mapstructure:"queue_capacity"       yaml:"queue_capacity"       default:"131072" validate:"min=0"`
	OverflowStrategy   string        `mapstructure:"overflow_strategy"    yaml:"overflow_strategy"    default:"drop_newest"`
	TransitCapacity    int           `mapstructure:"transit_capacity"     yaml:"transit_capacity"     default:"128"    validate:"min=0"`
	TransitDecayPeriod time.Duration `mapstructure:"transit_decay_period" yaml:"transit_decay_period" default:"10s"    validate:"min=0s"`
	FormatPoolCapacity int           `mapstructure:"format_pool_capacity" yaml:"format_pool_capacity" default:"2"      validate:"min=0"`
	PollInterval       time.Duration `mapstructure:"poll_interval"        yaml:"poll_interval"        default:"500us"  validate:"min=0s"`
	FlushTimeout       time.Duration `mapstructure:"flush_timeout"        yaml:"flush_timeout"        default:"5s"     validate:"min=0s"`
	MetricsInterval    time.Duration `mapstructure:"metrics_interval"     yaml:"metrics_interval"     validate:"min=0s"`
	Color              ColorSettings `mapstructure:"color"                yaml:"color"`
	File               FileSettings  `mapstructure:"file"                 yaml:"file"`
}

// ColorSettings configures colored console output.
type ColorSettings struct {
	Enable   bool `mapstructure:"enable"    yaml:"enable"    default:"true"`
	ForceTTY bool `mapstructure:"force_tty" yaml:"force_tty" default:"true"`
}

// FileSettings configures file output and rotation.
type FileSettings struct {
	Path             string `mapstructure:"path"              yaml:"path"`
	MaxSize          int64  `mapstructure:"max_size"          yaml:"max_size"          default:"104857600" validate:"min=0"`
	Compress         bool   `mapstructure:"compress"          yaml:"compress"          default:"true"`
	MaxBackups       int    `mapstructure:"max_backups"       yaml:"max_backups"       validate:"min=0"`
	CompressionLevel int    `mapstructure:"compression_level" yaml:"compression_level" default:"-1"        validate:"min=-1,max=9"`
}

// newSettings returns a Settings populated with the default values.
func newSettings() (Settings, error) {
	var settings Settings

	err := defaults.Set(&settings)
	if err != nil {
		return Settings{}, ewrap.Wrap(err, "failed to apply configuration defaults")
	}

	return settings, nil
}

// validate checks the decoded settings against the range constraints.
func (s Settings) validate() error {
	err := settingsValidator().Struct(s)
	if err != nil {
		return ewrap.Wrap(err, "invalid configuration")
	}

	return nil
}

// Build materializes the runtime configuration described by the settings.
func (s Settings) Build() (*transitlog.Config, error) {
	cfg := transitlog.DefaultConfig()

	level, err := transitlog.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	strategy, err := overflowStrategyFromString(s.OverflowStrategy)
	if err != nil {
		return nil, err
	}

	timeFormat, err := timeFormatFromString(s.TimeFormat)
	if err != nil {
		return nil, err
	}

	writer, err := transitlog.SetOutput(s.Output)
	if err != nil {
		return nil, err
	}

	cfg.Level = level
	cfg.Name = s.Name
	cfg.Output = writer
	cfg.TimeFormat = timeFormat
	cfg.DisableTimestamp = s.DisableTimestamp
	cfg.EnableJSON = s.EnableJSON
	cfg.FormatterName = s.Formatter
	cfg.QueueCapacity = s.QueueCapacity
	cfg.OverflowStrategy = strategy
	cfg.TransitCapacity = s.TransitCapacity
	cfg.TransitDecayPeriod = s.TransitDecayPeriod
	cfg.FormatPoolCapacity = s.FormatPoolCapacity
	cfg.PollInterval = s.PollInterval
	cfg.FlushTimeout = s.FlushTimeout
	cfg.MetricsInterval = s.MetricsInterval
	cfg.Color.Enable = s.Color.Enable
	cfg.Color.ForceTTY = s.Color.ForceTTY
	cfg.File.Path = s.File.Path
	cfg.File.MaxSizeBytes = s.File.MaxSize
	cfg.File.Compress = s.File.Compress
	cfg.File.MaxBackups = s.File.MaxBackups
	cfg.File.CompressionLevel = s.File.CompressionLevel

	return &cfg, nil
}

func overflowStrategyFromString(raw string) (transitlog.OverflowStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "drop_newest", "drop":
		return transitlog.OverflowDropNewest, nil
	case "block":
		return transitlog.OverflowBlock, nil
	default:
		return 0, ewrap.Newf("unknown overflow strategy %q", raw)
	}
}

func timeFormatFromString(raw string) (constants.TimeFormat, error) {
	if raw == "" {
		return transitlog.DefaultTimeFormat, nil
	}

	format := constants.TimeFormat(strings.ToLower(strings.TrimSpace(raw)))
	if !format.IsValid() {
		return "", ewrap.Newf("unknown time format %q", raw)
	}

	return format, nil
}

//nolint:gochecknoglobals // the validator is stateless after construction and shared by every load.
var settingsValidator = sync.OnceValue(func() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return validate
})

func allKeys() []string {
	return []string{
		"level",
		"name",
		"output",
		"time_format",
		"disable_timestamp",
		"enable_json",
		"formatter",
		"queue_capacity",
		"overflow_strategy",
		"transit_capacity",
		"transit_decay_period",
		"format_pool_capacity",
		"poll_interval",
		"flush_timeout",
		"metrics_interval",
		"color.enable",
		"color.force_tty",
		"file.path",
		"file.max_size",
		"file.compress",
		"file.max_backups",
		"file.compression_level",
	}
}
