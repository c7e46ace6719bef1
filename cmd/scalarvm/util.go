package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/scalarvm/asm"
	"github.com/deepnoodle-ai/scalarvm/backend"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/object"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if viper.GetBool("debug") {
		level = zerolog.TraceLevel
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    viper.GetBool("no-color") || !isTerminal(os.Stderr),
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// newRegistry returns the software and emulated GPU backends, plus the
// native backend when a library path is configured.
func newRegistry(logger zerolog.Logger) (*backend.Registry, error) {
	gpu, err := backend.NewGPU(backend.NewHostDevice(), backend.KernelSource,
		backend.WithGPULogger(logger))
	if err != nil {
		return nil, err
	}
	registry := backend.NewRegistry(gpu)
	if path := viper.GetString("native-lib"); path != "" {
		native, err := backend.OpenNative(path, backend.WithNativeLogger(logger))
		if err != nil {
			registry.Close()
			return nil, err
		}
		registry.Register(native.Name(), native)
	}
	return registry, nil
}

// selectedBackend returns the backend named by --backend, or nil.
func selectedBackend(registry *backend.Registry) (backend.Backend, error) {
	name := viper.GetString("backend")
	if name == "" {
		return nil, nil
	}
	kind, err := backend.ParseKind(name)
	if err != nil {
		return nil, err
	}
	if kind == backend.KindNative && viper.GetString("native-lib") == "" {
		return nil, fmt.Errorf("the native backend requires --native-lib")
	}
	return registry.Lookup(kind.String())
}

// loadProgram reads a TOML source (.toml) or an encoded program. A path of
// "-" reads an encoded program from stdin.
func loadProgram(path string, registry *backend.Registry) ([]*bytecode.Chunk, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return asm.ParseFile(path, registry)
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return bytecode.DecodeProgram(data)
}

var outputFormatsCompletion = []string{"json", "text"}

type outputValue struct {
	DType        string `json:"dtype"`
	Value        any    `json:"value"`
	ImplicitCast bool   `json:"implicit_cast,omitempty"`
	Backend      string `json:"backend"`
}

func toOutputValues(stack []*object.Value) []outputValue {
	values := make([]outputValue, 0, len(stack))
	for _, v := range stack {
		ov := outputValue{
			DType:        v.DType().String(),
			Value:        v.Interface(),
			ImplicitCast: v.ImplicitCast(),
			Backend:      v.BackendName(),
		}
		// JSON has no encoding for NaN or the infinities.
		if v.DType() == object.FLOAT {
			if f := float64(v.Float()); math.IsNaN(f) || math.IsInf(f, 0) {
				ov.Value = v.String()
			}
		}
		values = append(values, ov)
	}
	return values
}

func getOutput(stack []*object.Value, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		var sb strings.Builder
		for i, v := range stack {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(v.Inspect())
		}
		return sb.String(), nil
	case "json":
		output, err := getOutputJSON(toOutputValues(stack))
		if err != nil {
			return "", err
		}
		return string(output), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}
