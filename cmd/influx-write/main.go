package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx-write/pkg/influx"
	"github.com/galdor/go-influx-write/pkg/service"
	"github.com/galdor/go-influx-write/pkg/utils"
	"github.com/galdor/go-program"
)

type Cfg struct {
	Service service.ServiceCfg `json:"service"`
}

func (cfg *Cfg) ValidateJSON(v *ejson.Validator) {
	v.CheckObject("service", &cfg.Service)
}

// App is the service implementation shared by all commands.
type App struct {
	Cfg Cfg
}

func (a *App) DefaultImplementationCfg() interface{} {
	return &a.Cfg
}

func (a *App) ValidateImplementationCfg() error {
	return nil
}

func (a *App) ServiceCfg() (*service.ServiceCfg, error) {
	return &a.Cfg.Service, nil
}

func (a *App) Init(*service.Service) error {
	return nil
}

func (a *App) Start(*service.Service) error {
	return nil
}

func (a *App) Stop(*service.Service) {
}

func (a *App) Terminate(*service.Service) {
}

func main() {
	utils.UseUTCTimezone()

	p := program.NewProgram("influx-write",
		"write points to an InfluxDB server")

	p.AddOption("c", "cfg-file", "path", "",
		"the path of the configuration file")

	c := p.AddCommand("write", "write a single point", cmdWrite)
	c.AddOption("t", "tags", "tags", "",
		"a comma-separated list of key=value tags")
	c.AddOption("", "time", "timestamp", "",
		"the RFC 3339 timestamp of the point")
	c.AddOption("p", "precision", "precision", "",
		"the precision of the timestamp (ns, us, ms or s)")
	c.AddArgument("measurement", "the measurement of the point")
	c.AddTrailingArgument("field", "a key=value field")

	p.AddCommand("probe", "write go runtime statistics periodically",
		cmdProbe)

	p.ParseCommandLine()
	p.Run()
}

func cfgPath(p *program.Program) string {
	if !p.IsOptionSet("cfg-file") {
		return ""
	}

	path := p.OptionValue("cfg-file")
	p.Info("loading configuration from %q", path)

	return path
}

func cmdWrite(p *program.Program) {
	point, err := parsePoint(p.ArgumentValue("measurement"),
		p.OptionValue("tags"), p.TrailingArgumentValues("field"),
		p.OptionValue("time"))
	if err != nil {
		p.Fatal("invalid point: %v", err)
	}

	var precision influx.Precision
	if p.IsOptionSet("precision") {
		precision, err = influx.ParsePrecision(p.OptionValue("precision"))
		if err != nil {
			p.Fatal("%v", err)
		}
	}

	s, err := service.NewService("influx-write", &App{}, cfgPath(p))
	if err != nil {
		p.Fatal("%v", err)
	}
	defer s.HTTPClient.CloseConnections()

	ctx := context.Background()

	if err := s.Writer.WritePointWithPrecision(ctx, point, precision); err != nil {
		p.Fatal("cannot write point: %v", err)
	}
}

func cmdProbe(p *program.Program) {
	app := &App{}

	app.Cfg.Service.Probe = &influx.GoProbeCfg{}

	service.RunProgram(p, "influx-write", app)
}

func parsePoint(measurement, tagsString string, fieldStrings []string, timeString string) (*influx.Point, error) {
	if measurement == "" {
		return nil, fmt.Errorf("empty measurement")
	}

	if len(fieldStrings) == 0 {
		return nil, influx.ErrMissingField
	}

	var b *influx.CompletePointBuilder

	for _, s := range fieldStrings {
		key, valueString, err := parseKeyValue(s)
		if err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", s, err)
		}

		value := parseFieldValue(valueString)

		if b == nil {
			b = influx.NewPointBuilder(measurement).WithField(key, value)
		} else {
			b.WithField(key, value)
		}
	}

	if tagsString != "" {
		for _, s := range strings.Split(tagsString, ",") {
			key, value, err := parseKeyValue(s)
			if err != nil {
				return nil, fmt.Errorf("invalid tag %q: %w", s, err)
			}

			b.WithTag(key, value)
		}
	}

	if timeString == "" {
		b.WithTime(time.Now())
	} else {
		t, err := time.Parse(time.RFC3339Nano, timeString)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", timeString, err)
		}

		b.WithTime(t)
	}

	return b.Point(), nil
}

func parseKeyValue(s string) (string, string, error) {
	key, value, found := strings.Cut(s, "=")
	if !found {
		return "", "", fmt.Errorf("missing '=' separator")
	}

	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}

	return key, value, nil
}

// parseFieldValue uses the value syntax of the line protocol: "42i" is an
// integer, "42u" an unsigned integer, "true" and "false" are booleans, other
// numbers are floats and anything else is a string. Double quotes force a
// string value.
func parseFieldValue(s string) influx.Value {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return influx.String(s[1 : len(s)-1])
	}

	switch {
	case strings.HasSuffix(s, "i"):
		if i, err := strconv.ParseInt(s[:len(s)-1], 10, 64); err == nil {
			return influx.Integer(i)
		}

	case strings.HasSuffix(s, "u"):
		if u, err := strconv.ParseUint(s[:len(s)-1], 10, 64); err == nil {
			return influx.UInteger(u)
		}

	case s == "true" || s == "false":
		return influx.Boolean(s == "true")
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return influx.Float(f)
	}

	return influx.String(s)
}
