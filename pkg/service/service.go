package service

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx-write/pkg/influx"
	"github.com/galdor/go-influx-write/pkg/shttp"
	"github.com/galdor/go-log"
	"github.com/galdor/go-program"
)

type ServiceImplementation interface {
	DefaultImplementationCfg() interface{}
	ValidateImplementationCfg() error
	ServiceCfg() (*ServiceCfg, error)
	Init(*Service) error
	Start(*Service) error
	Stop(*Service)
	Terminate(*Service)
}

type ServiceCfg struct {
	name string

	Logger *log.LoggerCfg `json:"logger,omitempty"`

	HTTPClient *shttp.ClientCfg `json:"httpClient,omitempty"`

	Influx *influx.WriterCfg `json:"influx"`

	Probe *influx.GoProbeCfg `json:"probe,omitempty"`
}

func (cfg *ServiceCfg) ValidateJSON(v *ejson.Validator) {
	v.CheckOptionalObject("httpClient", cfg.HTTPClient)
	v.CheckObject("influx", cfg.Influx)
	v.CheckOptionalObject("probe", cfg.Probe)
}

type Service struct {
	Cfg *ServiceCfg
	Log *log.Logger

	Name           string
	Implementation ServiceImplementation

	Hostname string

	HTTPClient *shttp.Client
	Writer     *influx.Writer
	Probe      *influx.GoProbe

	stopChan        chan struct{} // used to interrupt wait()
	terminationChan chan struct{} // used to wait for termination in Stop()
}

func newService(cfg *ServiceCfg, implementation ServiceImplementation) *Service {
	s := Service{
		Cfg: cfg,

		Name:           cfg.name,
		Implementation: implementation,

		stopChan:        make(chan struct{}, 1),
		terminationChan: make(chan struct{}),
	}

	return &s
}

// NewService loads the configuration of the implementation, then creates and
// initializes the service. The configuration file is optional.
func NewService(name string, implementation ServiceImplementation, cfgPath string) (*Service, error) {
	implementationCfg := implementation.DefaultImplementationCfg()

	if cfgPath != "" {
		hostname, _ := os.Hostname()
		templateData := CfgTemplateData{Hostname: hostname}

		if err := LoadCfg(cfgPath, templateData, implementationCfg); err != nil {
			return nil, fmt.Errorf("cannot load configuration: %w", err)
		}

		if err := implementation.ValidateImplementationCfg(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	serviceCfg, err := implementation.ServiceCfg()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if serviceCfg.Influx == nil {
		return nil, fmt.Errorf("invalid configuration: missing influx " +
			"configuration")
	}

	serviceCfg.name = name

	s := newService(serviceCfg, implementation)

	if err := s.init(); err != nil {
		return nil, fmt.Errorf("cannot initialize service: %w", err)
	}

	return s, nil
}

func (s *Service) init() error {
	s.Log = log.DefaultLogger(s.Name)

	initFuncs := []func() error{
		s.initHostname,
		s.initLogger,
		s.initHTTPClient,
		s.initWriter,
		s.initProbe,
	}

	for _, initFunc := range initFuncs {
		if err := initFunc(); err != nil {
			return err
		}
	}

	if err := s.Implementation.Init(s); err != nil {
		return err
	}

	return nil
}

func (s *Service) initHostname() error {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("cannot obtain hostname: %w", err)
	}

	s.Hostname = hostname

	return nil
}

func (s *Service) initLogger() error {
	if s.Cfg.Logger == nil {
		return nil
	}

	logger, err := log.NewLogger(s.Name, *s.Cfg.Logger)
	if err != nil {
		return fmt.Errorf("invalid logger configuration: %w", err)
	}

	s.Log = logger

	return nil
}

func (s *Service) initHTTPClient() error {
	var cfg shttp.ClientCfg
	if s.Cfg.HTTPClient != nil {
		cfg = *s.Cfg.HTTPClient
	}

	cfg.Log = s.Log.Child("http-client", log.Data{})

	client, err := shttp.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("cannot create http client: %w", err)
	}

	s.HTTPClient = client

	return nil
}

func (s *Service) initWriter() error {
	cfg := *s.Cfg.Influx

	cfg.Log = s.Log.Child("influx", log.Data{})

	writer, err := influx.NewWriter(s.HTTPClient, cfg)
	if err != nil {
		return fmt.Errorf("cannot create influx writer: %w", err)
	}

	s.Writer = writer

	return nil
}

func (s *Service) initProbe() error {
	if s.Cfg.Probe == nil {
		return nil
	}

	cfg := *s.Cfg.Probe

	cfg.Log = s.Log.Child("go-probe", log.Data{})
	cfg.Writer = s.Writer

	tags := map[string]string{"host": s.Hostname}
	for key, value := range cfg.Tags {
		tags[key] = value
	}
	cfg.Tags = tags

	probe, err := influx.NewGoProbe(cfg)
	if err != nil {
		return fmt.Errorf("cannot create go probe: %w", err)
	}

	s.Probe = probe

	return nil
}

func (s *Service) start() error {
	if s.Probe != nil {
		s.Probe.Start()
	}

	if err := s.Implementation.Start(s); err != nil {
		if s.Probe != nil {
			s.Probe.Stop()
		}

		s.HTTPClient.CloseConnections()

		return err
	}

	s.Log.Info("started")

	return nil
}

func (s *Service) wait() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case signo := <-sigChan:
		// Cosmetic fix to avoid having "^C" displayed before the next log
		// line in shells which print interrupting characters.
		fmt.Fprintln(os.Stderr)
		s.Log.Info("received signal %d (%v)", signo, signo)

	case <-s.stopChan:
	}
}

func (s *Service) stop() {
	s.Log.Info("stopping")

	s.Implementation.Stop(s)

	if s.Probe != nil {
		s.Probe.Stop()
	}

	s.HTTPClient.CloseConnections()

	s.Log.Info("stopped")
}

func (s *Service) terminate() {
	s.Implementation.Terminate(s)

	close(s.terminationChan)
}

// Run starts the service, closes readyChan if it is not nil, and blocks until
// the process receives SIGINT or SIGTERM or until Stop is called.
func (s *Service) Run(readyChan chan<- struct{}) error {
	if err := s.start(); err != nil {
		s.terminate()
		return fmt.Errorf("cannot start service: %w", err)
	}

	if readyChan != nil {
		close(readyChan)
	}

	s.wait()
	s.stop()
	s.terminate()

	return nil
}

func (s *Service) Stop() {
	s.stopChan <- struct{}{}
	<-s.terminationChan
}

func Run(name, description string, implementation ServiceImplementation) {
	p := program.NewProgram(name, description)

	p.AddOption("c", "cfg-file", "path", "",
		"the path of the configuration file")

	p.ParseCommandLine()

	RunProgram(p, name, implementation)
}

// RunProgram runs the service for a program whose command line has already
// been parsed and which defines the "cfg-file" option.
func RunProgram(p *program.Program, name string, implementation ServiceImplementation) {
	var cfgPath string
	if p.IsOptionSet("cfg-file") {
		cfgPath = p.OptionValue("cfg-file")
		p.Info("loading configuration from %q", cfgPath)
	}

	s, err := NewService(name, implementation, cfgPath)
	if err != nil {
		p.Fatal("%v", err)
	}

	if err := s.Run(nil); err != nil {
		p.Fatal("%v", err)
	}
}
