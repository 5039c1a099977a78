package main

import (
	"context"
	"flag"

	multierror "github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/server"

	"github.com/objexa/service/common"
	"github.com/objexa/service/common/tracing"
	"github.com/objexa/service/portal"
	"github.com/objexa/service/portal/api"
	"github.com/objexa/service/portal/booking"
	"github.com/objexa/service/portal/confirm"
	"github.com/objexa/service/portal/events"
	"github.com/objexa/service/portal/flow"
	"github.com/objexa/service/portal/identity"
	"github.com/objexa/service/portal/leads"
	"github.com/objexa/service/portal/marketing"
	"github.com/objexa/service/portal/sessions"
	"github.com/objexa/service/portal/verify"
)

func main() {
	var (
		cfg          Config
		serverConfig = server.Config{
			MetricsNamespace:        common.PrometheusNamespace,
			RegisterInstrumentation: true,
		}
	)
	cfg.RegisterFlags(flag.CommandLine)
	serverConfig.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if err := logging.Setup(serverConfig.LogLevel.String()); err != nil {
		log.Fatalf("Error configuring logging: %v", err)
	}
	serverConfig.Log = logging.Logrus(log.StandardLogger())
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	traceCloser, err := tracing.Init("portal")
	if err != nil {
		log.Fatalf("Error initializing tracing: %v", err)
	}
	defer traceCloser.Close()

	// A nil provider keeps the site up; every flow reports a connection error.
	var idp identity.API
	if cfg.identity.Enabled() {
		client, err := identity.NewClient(cfg.identity)
		if err != nil {
			log.Fatalf("Error creating identity client: %v", err)
		}
		idp = client
	} else {
		log.Warn("No identity provider configured; sign in is disabled")
	}

	var sender confirm.Sender = confirm.Noop{}
	if cfg.confirm.URL != "" {
		client, err := confirm.NewClient(cfg.confirm)
		if err != nil {
			log.Fatalf("Error creating confirmation client: %v", err)
		}
		sender = client
	}

	db, err := leads.New(cfg.db)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	var closers []func() error
	closers = append(closers, func() error { return db.Close(context.Background()) })

	hub := &marketing.Hub{Log: logging.Global()}
	if cfg.marketoClientID != "" {
		goketo, err := marketing.NewGoketoClient(cfg.marketoClientID, cfg.marketoSecret, cfg.marketoEndpoint)
		if err != nil {
			log.Warningf("Failed to initialise Marketo client: %v", err)
		} else {
			queue := marketing.NewQueue(marketing.NewMarketoClient(goketo, cfg.marketoProgram))
			hub.Queues = append(hub.Queues, queue)
		}
	}
	if cfg.mixpanelToken != "" {
		hub.Trackers = append(hub.Trackers, marketing.NewMixpanelClient(cfg.mixpanelToken))
	}
	segment, err := marketing.NewSegmentClient(cfg.segmentKeyFile, logging.Global())
	if err != nil {
		log.Fatalf("Error creating segment client: %v", err)
	}
	tracker := marketing.NewSegmentTracker(segment)
	hub.Trackers = append(hub.Trackers, tracker)
	closers = append(closers, func() error { hub.Queues.Stop(); return nil }, tracker.Close)

	var eventLogger events.Logger = events.Discard{}
	if cfg.fluentHostPort != "" {
		el, err := events.NewEventLogger(cfg.fluentHostPort)
		if err != nil {
			log.Fatalf("Error setting up event logging: %v", err)
		}
		eventLogger = el
	}
	closers = append(closers, eventLogger.Close)

	var publisher booking.Publisher
	if cfg.natsURL != "" {
		p, conn, err := booking.NewNATSPublisher(cfg.natsURL)
		if err != nil {
			log.Fatalf("Error connecting to NATS: %v", err)
		}
		publisher = p
		closers = append(closers, func() error { conn.Close(); return nil })
	}

	verifiedURL := portal.Absolute(cfg.flow.Origin, portal.AuthPage+"?verified=true")
	registry := verify.NewRegistry(cfg.verify, verify.RealClock, idp, verifiedURL, logging.Global())
	if err := registry.Start(); err != nil {
		log.Fatalf("Error starting verification registry: %v", err)
	}

	bootstrap := flow.NewBootstrapper(idp, cfg.flow, logging.Global())
	handler := flow.NewHandler(cfg.flow, idp, registry, bootstrap, sender, hub, eventLogger, logging.Global())
	bookings := booking.NewService(db, bootstrap, registry, sender, hub, publisher, eventLogger, logging.Global())
	a := api.New(handler, bookings,
		sessions.MustNewStore(cfg.sessionSecret, cfg.secureCookie),
		sessions.MustNewVisitorStore(cfg.sessionSecret, cfg.secureCookie),
		cfg.flow.Origin, cfg.secureCookie)

	s, err := server.New(serverConfig)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer s.Shutdown()
	s.HTTP.PathPrefix("/api/portal").Handler(a)
	s.HTTP.PathPrefix("/admin/portal").Handler(a)

	log.Infof("Listening on port %d", serverConfig.HTTPListenPort)
	s.Run()

	registry.Stop()
	var errs error
	for _, c := range closers {
		if err := c(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if errs != nil {
		log.Errorf("Error shutting down: %v", errs)
	}
}
