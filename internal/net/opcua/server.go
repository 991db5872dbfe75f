package opcua

import (
	"fmt"
	"net/url"
	"os"

	ua "github.com/awcullen/opcua/ua"
	"github.com/awcullen/opcua/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"sawmill/internal/points"
)

const (
	DEFAULT_ENDPOINT      = "opc.tcp://0.0.0.0:4840/freeopcua/server/"
	DEFAULT_SERVER_NAME   = "Sawmill OPC UA Server"
	DEFAULT_NAMESPACE_URI = "http://examples.freeopcua.github.io"
	DEFAULT_PKI_DIR       = "./pki"
)

type ServerConfig struct {
	Endpoint     string
	Name         string
	NamespaceURI string
	PKIDir       string
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Endpoint == "" {
		c.Endpoint = DEFAULT_ENDPOINT
	}
	if c.Name == "" {
		c.Name = DEFAULT_SERVER_NAME
	}
	if c.NamespaceURI == "" {
		c.NamespaceURI = DEFAULT_NAMESPACE_URI
	}
	if c.PKIDir == "" {
		c.PKIDir = DEFAULT_PKI_DIR
	}
	return c
}

// Server owns the OPC UA server hosting the SawMill tree.
type Server struct {
	srv       *server.Server
	namespace uint16
	space     *AddressSpace
	sink      *NodeSink
	endpoint  string
	log       logrus.FieldLogger
	started   bool
	served    chan error
}

func NewServer(cfg ServerConfig, reg *points.Registry, log logrus.FieldLogger) (*Server, error) {
	log = log.WithField("component", "opcua")
	cfg = cfg.withDefaults()

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing endpoint %q", cfg.Endpoint)
	}
	host, _ := os.Hostname()
	appURI := fmt.Sprintf("urn:%s:sawmill", host)

	certPath, keyPath, created, err := EnsureCertificate(cfg.PKIDir, appURI, u.Hostname())
	if err != nil {
		return nil, err
	}
	if created {
		log.Infof("Generated self-signed certificate in %s", cfg.PKIDir)
	}

	srv, err := server.New(
		ua.ApplicationDescription{
			ApplicationURI:  appURI,
			ProductURI:      "urn:sawmill",
			ApplicationName: ua.LocalizedText{Text: cfg.Name, Locale: "en"},
			ApplicationType: ua.ApplicationTypeServer,
			DiscoveryURLs:   []string{cfg.Endpoint},
		},
		certPath,
		keyPath,
		cfg.Endpoint,
		server.WithBuildInfo(ua.BuildInfo{
			ProductURI:       "urn:sawmill",
			ManufacturerName: "Sawmill",
			ProductName:      cfg.Name,
			SoftwareVersion:  "1.0.0",
		}),
		server.WithAnonymousIdentity(true),
		server.WithSecurityPolicyNone(true),
		server.WithInsecureSkipVerify(),
		server.WithServerDiagnostics(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating OPC UA server")
	}

	nm := srv.NamespaceManager()
	ns := nm.Add(cfg.NamespaceURI)

	space, err := BuildAddressSpace(ns, reg)
	if err != nil {
		return nil, err
	}
	if err := nm.AddNodes(space.Nodes...); err != nil {
		return nil, errors.Wrap(err, "adding SawMill nodes")
	}

	for _, d := range reg.Definitions() {
		log.WithField("point", d.Name).Infof("Created variable %s", space.NodeIDs[d.Name])
	}

	return &Server{
		srv:       srv,
		namespace: ns,
		space:     space,
		sink:      NewNodeSink(reg, space),
		endpoint:  cfg.Endpoint,
		log:       log,
		served:    make(chan error, 1),
	}, nil
}

func (s *Server) Namespace() uint16 { return s.namespace }

func (s *Server) Sink() *NodeSink { return s.sink }

// Start serves clients in the background.
func (s *Server) Start() {
	s.started = true
	go func() {
		err := s.srv.ListenAndServe()
		if err != nil && err != ua.BadServerHalted {
			s.log.WithError(err).Error("OPC UA server stopped")
		}
		s.served <- err
	}()
	s.log.Infof("OPC UA server listening on %s", s.endpoint)
}

func (s *Server) Close() error {
	err := s.srv.Close()
	if s.started {
		<-s.served
	}
	s.log.Info("OPC UA server closed")
	return err
}
